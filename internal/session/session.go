// Package session implements the per-connection state machine
// (spec.md §4.1): the Session record, the LoginState machine, and the
// SessionManager that owns the `addr -> *Session` and
// `runtime_id -> addr` indices. The tick thread is the only mutator of
// Session fields once InGame (spec.md §5); up to that point the login
// pipeline below mutates them synchronously per packet.
package session

import (
	"net"
	"time"

	"github.com/bedrockcore/server/internal/crypto"
	"github.com/bedrockcore/server/internal/inventory"
	"github.com/bedrockcore/server/internal/protocol"
	"github.com/bedrockcore/server/internal/worldstore"
)

// LoginState is the one-way state machine spec.md §3 defines.
type LoginState int

const (
	AwaitingNetworkSettings LoginState = iota
	AwaitingLogin
	AwaitingHandshake
	LoggedIn
	AwaitingResourcePackResponse
	AwaitingResourcePackComplete
	Spawning
	InGame
)

func (s LoginState) String() string {
	switch s {
	case AwaitingNetworkSettings:
		return "AwaitingNetworkSettings"
	case AwaitingLogin:
		return "AwaitingLogin"
	case AwaitingHandshake:
		return "AwaitingHandshake"
	case LoggedIn:
		return "LoggedIn"
	case AwaitingResourcePackResponse:
		return "AwaitingResourcePackResponse"
	case AwaitingResourcePackComplete:
		return "AwaitingResourcePackComplete"
	case Spawning:
		return "Spawning"
	case InGame:
		return "InGame"
	default:
		return "Unknown"
	}
}

// BreakingBlock records the in-progress mining state BlockInteraction
// validates against (spec.md §3, §4.6).
type BreakingBlock struct {
	Pos   worldstore.BlockPos
	Start time.Time
	Active bool
}

// RateLimitTimestamps tracks the last-accepted time per rate-limited
// action (spec.md §3: "rate-limit timestamps for break/place/attack/command").
type RateLimitTimestamps struct {
	LastBreak, LastPlace, LastAttack, LastCommand time.Time
}

// Session is the per-remote-address connection record (spec.md §3).
// It is not safe for concurrent mutation from multiple goroutines — the
// tick thread and the login pipeline (which runs before InGame, off the
// tick thread per packet) are the only writers at any given time for a
// given session, and the manager's lock only protects the session
// *index*, not the fields below.
type Session struct {
	Addr net.Addr

	State LoginState

	CompressionAlgorithm protocol.CompressionAlgorithm
	CompressionThreshold uint16
	ProtocolVersion      int32

	Identity    crypto.IdentityClaims
	ClientData  crypto.ClientDataClaims

	handshake *crypto.Handshake
	Cipher    *crypto.SessionCipher // nil until ClientToServerHandshake

	UniqueID  int64  // stable across save/load
	RuntimeID uint64 // stable only while connected

	X, Y, Z     float64
	Pitch, Yaw, HeadYaw float32
	OnGround    bool
	LastAckedClientTick uint64

	SentChunks   map[worldstore.ChunkKey]struct{}
	ViewRadius   int32
	Dimension    int32
	Gamemode     int32

	Breaking BreakingBlock

	Inventory *inventory.Inventory

	Health         float32
	LastDamageTick int64
	Dead           bool
	Sprinting      bool

	Effects []StatusEffect

	LastDeltaY float64 // for critical-hit test (spec.md §4.4)

	FireTicks  int32
	AirTicks   int32
	FallDistance float64
	FoodLevel  int32
	Saturation float32
	Exhaustion float32

	XPTotal int32
	XPLevel int32

	PendingForms   map[int32]string
	OpenContainer  *worldstore.BlockEntity
	NextWindowID   int32

	EnchantmentSeed int64

	AirborneTicks int32

	ViolationCounters map[string]int32
	RateLimits        RateLimitTimestamps
}

// StatusEffect is one entry in a session's active-effects list
// (spec.md §3, §4.8).
type StatusEffect struct {
	EffectID       int32
	Amplifier      int32
	RemainingTicks int32
}

// NewSession creates a session in its initial login state.
func NewSession(addr net.Addr) *Session {
	return &Session{
		Addr:         addr,
		State:        AwaitingNetworkSettings,
		SentChunks:   make(map[worldstore.ChunkKey]struct{}),
		Inventory:    inventory.NewInventory(),
		Health:       20,
		FoodLevel:    20,
		Saturation:   5,
		NextWindowID: 1,
		PendingForms: make(map[int32]string),
		ViolationCounters: make(map[string]int32),
	}
}

// SetHandshake records the in-progress ECDH handshake state started by
// the Login handler, consumed by ClientToServerHandshake.
func (s *Session) SetHandshake(h *crypto.Handshake) { s.handshake = h }

// Handshake returns the in-progress handshake state, or nil if none was
// started (e.g. a ClientToServerHandshake arriving out of order).
func (s *Session) Handshake() *crypto.Handshake { return s.handshake }

// HasEffect reports whether effectID is currently active, enforcing
// the at-most-one-entry-per-id invariant (spec.md §8 property 6) at the
// read side; ApplyEffect enforces it at the write side.
func (s *Session) HasEffect(effectID int32) (StatusEffect, bool) {
	for _, e := range s.Effects {
		if e.EffectID == effectID {
			return e, true
		}
	}
	return StatusEffect{}, false
}

// ApplyEffect adds a new status effect instance, replacing any existing
// entry for the same id (spec.md §4.8: "Applying a new instance of an
// already-present effect replaces the existing entry").
func (s *Session) ApplyEffect(e StatusEffect) {
	for i, existing := range s.Effects {
		if existing.EffectID == e.EffectID {
			s.Effects[i] = e
			return
		}
	}
	s.Effects = append(s.Effects, e)
}

// RemoveEffect deletes the entry for effectID, if present.
func (s *Session) RemoveEffect(effectID int32) {
	for i, e := range s.Effects {
		if e.EffectID == effectID {
			s.Effects = append(s.Effects[:i], s.Effects[i+1:]...)
			return
		}
	}
}

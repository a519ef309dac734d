package main

import (
	"sync"

	"github.com/bedrockcore/server/internal/adminconsole"
	"github.com/bedrockcore/server/internal/command"
	"github.com/bedrockcore/server/internal/db"
	"github.com/bedrockcore/server/internal/dispatcher"
	"github.com/bedrockcore/server/internal/mobai"
	"github.com/bedrockcore/server/internal/plugin"
	"github.com/bedrockcore/server/internal/ratelimit"
	"github.com/bedrockcore/server/internal/replication"
	"github.com/bedrockcore/server/internal/session"
	"github.com/bedrockcore/server/internal/tick"
	"github.com/bedrockcore/server/internal/transport"
	"github.com/bedrockcore/server/internal/worldstore"
)

// server bundles every long-lived collaborator cmd/bedrockserver wires
// together, the way internal/gameserver.Server in the teacher holds its
// ClientManager/CharacterRepository/etc — one struct the packet
// handlers and tick phases are built as methods or closures over,
// instead of threading a dozen parameters through every call.
type server struct {
	cfgWorld worldConfig

	db       *db.DB
	world    *worldstore.World
	sessions *session.Manager
	dispatch *dispatcher.Dispatcher
	limiter  ratelimit.Limiter
	commands *command.Registry
	console  *adminconsole.Console
	bridge   *plugin.Bridge
	sched    *plugin.Scheduler

	connMu sync.RWMutex
	conns  map[string]*transport.Connection

	trackerMu    sync.Mutex
	trackers     map[uint64]*replication.Tracker // session runtime id -> its sent-chunk tracker
	chunkCenters map[uint64][2]int32             // session runtime id -> last (cx, cz) replicated from

	mobAIMu sync.Mutex
	mobAI   map[uint64]*mobai.State // mob runtime id -> AI bookkeeping

	inbound chan transport.Event

	// pendingEvents accumulates the mobai.GameEvents WorldTick produced
	// this tick for ProcessGameEvents to turn into broadcast packets.
	// pendingBroadcasts holds packets WorldTick already knows how to
	// build directly (projectile hits on a player, for instance, have no
	// mobai.GameEvent shape of their own). Safe unguarded: every phase
	// runs on the single tick goroutine.
	pendingEvents     []mobai.GameEvent
	pendingBroadcasts []any

	// currentTick is the tick number WorldTick observed this pass,
	// cached for the phases after it that need it but aren't handed one
	// directly by tick.Phases' signatures.
	currentTick int64

	saveCounter tick.SaveCounter

	// encode turns one outbound packet value into one session's wire
	// bytes (per-session because compression threshold/algorithm and the
	// AES cipher are negotiated per connection). The real Bedrock packet
	// codec is an external collaborator (spec.md §1); this hook is the
	// seam it plugs into, wrapping internal/batch framing and
	// internal/crypto.SessionCipher around whatever that codec produces.
	// main.go supplies the default.
	encode func(sess *session.Session, out any) ([]byte, error)

	// decode reverses encode: given one session's raw inbound bytes (the
	// payload a transport.EventPacket carries), it returns the decoded
	// packet values DrainTransport dispatches. Same external-codec seam
	// as encode, from the other direction.
	decode func(sess *session.Session, payload []byte) ([]any, error)

	shutdown func()
}

// worldConfig is the subset of config.Config the tick phases consult
// every tick, copied out so they don't retain the whole Config.
type worldConfig struct {
	viewDistanceCap  int32
	doDaylightCycle  bool
	doWeatherCycle   bool
	regenTickCadence int64

	spawnX, spawnY, spawnZ float64
}

func (s *server) trackerFor(runtimeID uint64, dimension, radius int32) *replication.Tracker {
	s.trackerMu.Lock()
	defer s.trackerMu.Unlock()
	t, ok := s.trackers[runtimeID]
	if !ok {
		t = replication.NewTracker(dimension, radius)
		s.trackers[runtimeID] = t
	}
	return t
}

func (s *server) dropTracker(runtimeID uint64) {
	s.trackerMu.Lock()
	defer s.trackerMu.Unlock()
	delete(s.trackers, runtimeID)
}

func (s *server) mobState(m *worldstore.Mob) *mobai.State {
	s.mobAIMu.Lock()
	defer s.mobAIMu.Unlock()
	st, ok := s.mobAI[m.RuntimeID]
	if !ok {
		st = mobai.NewState(m.Position.X, m.Position.Y, m.Position.Z, true, 16)
		s.mobAI[m.RuntimeID] = st
	}
	return st
}

// connByAddr resolves the transport.Connection a session's outbound
// packets should be queued on.
func (s *server) connByAddr(addr string) (*transport.Connection, bool) {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	c, ok := s.conns[addr]
	return c, ok
}

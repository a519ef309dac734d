// Package mobai implements the per-tick mob AI step and projectile
// physics step (spec.md §4.7) over the Mob/Projectile records
// worldstore owns, generalized from internal/ai/attackable_ai.go's
// AttackableAI intention state machine and aggro list —
// IDLE/ACTIVE/ATTACK driven by a hate list and a scan callback — into
// Bedrock's flatter wander/chase/attack loop over a single
// nearest-hostile target, since the distilled mob roster carries no
// clan/faction or skill-casting concept.
package mobai

import (
	"math"

	"github.com/bedrockcore/server/internal/worldstore"
)

// Intention mirrors internal/ai/attackable_ai.go's Idle/Active/Attack
// state machine, trimmed to the states a hostile mob needs without
// clan faction calls or skill casting. It is tracked
// outside worldstore.Mob itself (keyed by RuntimeID) so the data-model
// record stays a plain storage struct.
type Intention int

const (
	IntentionIdle Intention = iota
	IntentionActive
	IntentionAttack
)

// GameEventKind enumerates the wire-facing events a mob tick step may
// produce (spec.md §4.7: "MobMoved, MobHurt, MobDied, MobAttackPlayer,
// EntityRemoved").
type GameEventKind int

const (
	EventMobMoved GameEventKind = iota
	EventMobHurt
	EventMobDied
	EventMobAttackPlayer
	EventEntityRemoved
)

// GameEvent is one tick-step output; fields not relevant to Kind are
// zero.
type GameEvent struct {
	Kind                   GameEventKind
	EntityRuntimeID        uint64
	X, Y, Z                float64
	Damage                 float32
	KnockbackX, KnockbackZ float64
	TargetRuntimeID        uint64
}

// SpawnImmunityTicks matches internal/ai/attackable_ai.go's ten-tick
// spawn-immunity window ("globalAggro starts at -10").
const SpawnImmunityTicks = 10

// AggroRange is the default radius within which a wandering mob
// notices a player (spec.md §4.7 leaves the exact radius
// implementation-defined).
const AggroRange = 16.0

// AttackRange is the default melee range at which an attacking mob
// stops chasing and swings.
const AttackRange = 2.5

// State is the AI bookkeeping for one mob, separate from worldstore's
// Mob data record (spec.md §3 treats Mob as WorldStore-owned plain
// state; AI intention is the mob-AI component's own concern).
type State struct {
	SpawnX, SpawnY, SpawnZ float64
	Intention              Intention
	SpawnImmunity          int32
	DriftLimit             float64
	Hostile                bool
}

// NewState builds AI bookkeeping for a mob freshly placed at its spawn
// point, with spawn immunity active.
func NewState(spawnX, spawnY, spawnZ float64, hostile bool, driftLimit float64) *State {
	return &State{
		SpawnX: spawnX, SpawnY: spawnY, SpawnZ: spawnZ,
		Intention:     IntentionActive,
		SpawnImmunity: SpawnImmunityTicks,
		DriftLimit:    driftLimit,
		Hostile:       hostile,
	}
}

// NearbyPlayer is a candidate target a caller scanned for the mob.
type NearbyPlayer struct {
	RuntimeID uint64
	X, Y, Z   float64
	Dead      bool
}

// Step runs one AI tick for a live mob, mutating m.Position/Target and
// returning any GameEvents produced. nearby is the set of players the
// caller has already determined share the mob's dimension; Step does
// its own range filtering (spec.md §4.7: "Mob AI is a per-tick step
// producing GameEvents").
func Step(m *worldstore.Mob, st *State, nearby []NearbyPlayer, moveSpeed float64) []GameEvent {
	if m.Dead {
		return nil
	}

	if st.SpawnImmunity > 0 {
		st.SpawnImmunity--
		return nil
	}

	switch st.Intention {
	case IntentionAttack:
		return thinkAttack(m, st, nearby, moveSpeed)
	default:
		return thinkActive(m, st, nearby, moveSpeed)
	}
}

func thinkActive(m *worldstore.Mob, st *State, nearby []NearbyPlayer, moveSpeed float64) []GameEvent {
	if !st.Hostile {
		return driftTowardSpawn(m, st, moveSpeed)
	}

	var nearest *NearbyPlayer
	nearestDistSq := AggroRange * AggroRange
	for i := range nearby {
		p := &nearby[i]
		if p.Dead {
			continue
		}
		d := distSq(m.Position.X, m.Position.Y, m.Position.Z, p.X, p.Y, p.Z)
		if d <= nearestDistSq {
			nearestDistSq = d
			nearest = p
		}
	}
	if nearest == nil {
		return driftTowardSpawn(m, st, moveSpeed)
	}

	m.TargetRuntimeID = nearest.RuntimeID
	st.Intention = IntentionAttack
	return nil
}

func thinkAttack(m *worldstore.Mob, st *State, nearby []NearbyPlayer, moveSpeed float64) []GameEvent {
	var target *NearbyPlayer
	for i := range nearby {
		if nearby[i].RuntimeID == m.TargetRuntimeID {
			target = &nearby[i]
			break
		}
	}
	if target == nil || target.Dead {
		m.TargetRuntimeID = 0
		st.Intention = IntentionActive
		return nil
	}

	if st.DriftLimit > 0 && distFromSpawn(m, st) > st.DriftLimit {
		m.TargetRuntimeID = 0
		st.Intention = IntentionActive
		return driftTowardSpawn(m, st, moveSpeed)
	}

	d := math.Sqrt(distSq(m.Position.X, m.Position.Y, m.Position.Z, target.X, target.Y, target.Z))
	if d > AttackRange {
		return moveToward(m, target.X, target.Y, target.Z, moveSpeed)
	}

	return []GameEvent{{
		Kind:            EventMobAttackPlayer,
		EntityRuntimeID: m.RuntimeID,
		TargetRuntimeID: target.RuntimeID,
	}}
}

func moveToward(m *worldstore.Mob, tx, ty, tz, speed float64) []GameEvent {
	dx, dy, dz := tx-m.Position.X, ty-m.Position.Y, tz-m.Position.Z
	length := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if length < 1e-6 {
		return nil
	}
	m.Position.X += dx / length * speed
	m.Position.Y += dy / length * speed
	m.Position.Z += dz / length * speed
	return []GameEvent{{Kind: EventMobMoved, EntityRuntimeID: m.RuntimeID, X: m.Position.X, Y: m.Position.Y, Z: m.Position.Z}}
}

func driftTowardSpawn(m *worldstore.Mob, st *State, speed float64) []GameEvent {
	if distFromSpawn(m, st) < 0.5 {
		return nil
	}
	return moveToward(m, st.SpawnX, st.SpawnY, st.SpawnZ, speed)
}

func distFromSpawn(m *worldstore.Mob, st *State) float64 {
	return math.Sqrt(distSq(m.Position.X, m.Position.Y, m.Position.Z, st.SpawnX, st.SpawnY, st.SpawnZ))
}

func distSq(x1, y1, z1, x2, y2, z2 float64) float64 {
	dx, dy, dz := x2-x1, y2-y1, z2-z1
	return dx*dx + dy*dy + dz*dz
}

// ApplyDamage reduces m.Health, cancels spawn immunity, marks the
// attacker as the new target, and reports MobHurt/MobDied events
// (spec.md §4.7: attacks route through the shared combat pipeline, and
// the mob reacts the way AttackableAI.NotifyDamage does — aggro
// switches to attack mode on taking damage).
func ApplyDamage(m *worldstore.Mob, st *State, attackerRuntimeID uint64, damage float32) []GameEvent {
	if m.Dead {
		return nil
	}
	st.SpawnImmunity = 0
	m.Health -= damage
	if m.Health <= 0 {
		m.Health = 0
		m.Dead = true
		return []GameEvent{
			{Kind: EventMobHurt, EntityRuntimeID: m.RuntimeID, Damage: damage},
			{Kind: EventMobDied, EntityRuntimeID: m.RuntimeID},
		}
	}

	m.TargetRuntimeID = attackerRuntimeID
	st.Intention = IntentionAttack
	return []GameEvent{{Kind: EventMobHurt, EntityRuntimeID: m.RuntimeID, Damage: damage}}
}

package mobai

import (
	"testing"

	"github.com/bedrockcore/server/internal/worldstore"
)

func newMob(runtimeID uint64, x, y, z float64, maxHealth float32) *worldstore.Mob {
	return &worldstore.Mob{
		RuntimeID: runtimeID,
		Position:  worldstore.Vec3{X: x, Y: y, Z: z},
		Health:    maxHealth,
		MaxHealth: maxHealth,
	}
}

func TestStep_SpawnImmunityBlocksAggro(t *testing.T) {
	m := newMob(1, 0, 0, 0, 20)
	st := NewState(0, 0, 0, true, 300)

	events := Step(m, st, []NearbyPlayer{{RuntimeID: 2, X: 1, Y: 0, Z: 0}}, 0.25)

	if len(events) != 0 {
		t.Errorf("events = %+v, want none during spawn immunity", events)
	}
	if st.SpawnImmunity != SpawnImmunityTicks-1 {
		t.Errorf("SpawnImmunity = %d, want %d", st.SpawnImmunity, SpawnImmunityTicks-1)
	}
}

func TestStep_AcquiresTargetAfterImmunity(t *testing.T) {
	m := newMob(1, 0, 0, 0, 20)
	st := NewState(0, 0, 0, true, 300)
	st.SpawnImmunity = 0

	Step(m, st, []NearbyPlayer{{RuntimeID: 2, X: 5, Y: 0, Z: 0}}, 0.25)

	if st.Intention != IntentionAttack {
		t.Errorf("Intention = %v, want IntentionAttack", st.Intention)
	}
	if m.TargetRuntimeID != 2 {
		t.Errorf("TargetRuntimeID = %d, want 2", m.TargetRuntimeID)
	}
}

func TestStep_ChasesThenAttacksInRange(t *testing.T) {
	m := newMob(1, 0, 0, 0, 20)
	st := NewState(0, 0, 0, true, 300)
	st.SpawnImmunity = 0
	st.Intention = IntentionAttack
	m.TargetRuntimeID = 2

	events := Step(m, st, []NearbyPlayer{{RuntimeID: 2, X: 1, Y: 0, Z: 0}}, 0.25)

	if len(events) != 1 || events[0].Kind != EventMobAttackPlayer {
		t.Fatalf("events = %+v, want one MobAttackPlayer event within range", events)
	}
}

func TestStep_ChasesWhenOutOfRange(t *testing.T) {
	m := newMob(1, 0, 0, 0, 20)
	st := NewState(0, 0, 0, true, 300)
	st.SpawnImmunity = 0
	st.Intention = IntentionAttack
	m.TargetRuntimeID = 2

	events := Step(m, st, []NearbyPlayer{{RuntimeID: 2, X: 10, Y: 0, Z: 0}}, 0.25)

	if len(events) != 1 || events[0].Kind != EventMobMoved {
		t.Fatalf("events = %+v, want one MobMoved event", events)
	}
	if m.Position.X <= 0 {
		t.Errorf("X = %v, want mob to have moved toward target", m.Position.X)
	}
}

func TestStep_LosesTargetOnDeath(t *testing.T) {
	m := newMob(1, 0, 0, 0, 20)
	st := NewState(0, 0, 0, true, 300)
	st.SpawnImmunity = 0
	st.Intention = IntentionAttack
	m.TargetRuntimeID = 2

	Step(m, st, []NearbyPlayer{{RuntimeID: 2, X: 10, Y: 0, Z: 0, Dead: true}}, 0.25)

	if st.Intention != IntentionActive || m.TargetRuntimeID != 0 {
		t.Errorf("mob should drop a dead target, got Intention=%v Target=%d", st.Intention, m.TargetRuntimeID)
	}
}

func TestApplyDamage_KillsAtZeroHealth(t *testing.T) {
	m := newMob(1, 0, 0, 0, 10)
	st := NewState(0, 0, 0, true, 300)

	events := ApplyDamage(m, st, 2, 10)

	if !m.Dead {
		t.Error("expected mob to die")
	}
	if len(events) != 2 || events[1].Kind != EventMobDied {
		t.Fatalf("events = %+v, want MobHurt then MobDied", events)
	}
}

func TestApplyDamage_SwitchesToAttackOnSurvivingHit(t *testing.T) {
	m := newMob(1, 0, 0, 0, 20)
	st := NewState(0, 0, 0, true, 300)
	st.SpawnImmunity = 5

	events := ApplyDamage(m, st, 2, 5)

	if st.SpawnImmunity != 0 {
		t.Errorf("SpawnImmunity = %d, want canceled to 0", st.SpawnImmunity)
	}
	if st.Intention != IntentionAttack || m.TargetRuntimeID != 2 {
		t.Errorf("expected mob to target its attacker, got Intention=%v Target=%d", st.Intention, m.TargetRuntimeID)
	}
	if len(events) != 1 || events[0].Kind != EventMobHurt {
		t.Fatalf("events = %+v, want one MobHurt event", events)
	}
}

func TestApplyDamage_DeadMobIgnoresFurtherDamage(t *testing.T) {
	m := newMob(1, 0, 0, 0, 10)
	st := NewState(0, 0, 0, true, 300)
	m.Dead = true

	events := ApplyDamage(m, st, 2, 5)
	if events != nil {
		t.Errorf("events = %+v, want nil for an already-dead mob", events)
	}
}

func TestStep_PassiveMobDriftsTowardSpawnWithoutAggro(t *testing.T) {
	m := newMob(1, 10, 0, 0, 20)
	st := NewState(10, 0, 0, false, 300)
	st.SpawnImmunity = 0
	m.Position.X = 15 // drifted away from its spawn point

	events := Step(m, st, []NearbyPlayer{{RuntimeID: 2, X: 11, Y: 0, Z: 0}}, 0.25)

	if st.Intention == IntentionAttack {
		t.Error("passive mob must never switch to attack intention")
	}
	if len(events) != 1 || events[0].Kind != EventMobMoved {
		t.Fatalf("events = %+v, want the mob to drift back toward spawn", events)
	}
}

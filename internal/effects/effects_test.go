package effects

import (
	"testing"

	"github.com/bedrockcore/server/internal/session"
)

func newTestSession() *session.Session {
	s := session.NewSession(nil)
	return s
}

func TestTickStatusEffects_ExpiresAtZero(t *testing.T) {
	s := newTestSession()
	s.Effects = []session.StatusEffect{{EffectID: 1, RemainingTicks: 1}, {EffectID: 2, RemainingTicks: 5}}

	expired := TickStatusEffects(s)

	if len(expired) != 1 || expired[0].EffectID != 1 {
		t.Fatalf("expired = %+v, want effect 1 to expire", expired)
	}
	if len(s.Effects) != 1 || s.Effects[0].EffectID != 2 {
		t.Fatalf("remaining effects = %+v, want only effect 2", s.Effects)
	}
}

func TestTickFoodAndSaturation_ExhaustionDrainsSaturationFirst(t *testing.T) {
	s := newTestSession()
	s.Saturation = 3
	s.FoodLevel = 20
	s.Exhaustion = 4

	TickFoodAndSaturation(s, 1, 1000) // cadence far away, only test drain

	if s.Saturation != 2 {
		t.Errorf("Saturation = %v, want 2", s.Saturation)
	}
	if s.FoodLevel != 20 {
		t.Errorf("FoodLevel = %v, want unchanged at 20", s.FoodLevel)
	}
}

func TestTickFoodAndSaturation_DrainsFoodWhenSaturationZero(t *testing.T) {
	s := newTestSession()
	s.Saturation = 0
	s.FoodLevel = 20
	s.Exhaustion = 4

	TickFoodAndSaturation(s, 1, 1000)

	if s.FoodLevel != 19 {
		t.Errorf("FoodLevel = %v, want 19", s.FoodLevel)
	}
}

func TestTickFoodAndSaturation_StarvationDamageAtZeroFood(t *testing.T) {
	s := newTestSession()
	s.FoodLevel = 0
	s.Health = 10

	events := TickFoodAndSaturation(s, 20, 20)

	if len(events) != 1 || events[0].Cause != "starve" {
		t.Fatalf("events = %+v, want one starve event", events)
	}
}

func TestTickFoodAndSaturation_RegenDisabledAtLowFood(t *testing.T) {
	s := newTestSession()
	s.FoodLevel = 17
	s.Health = 10

	TickFoodAndSaturation(s, 20, 20)

	if s.Health != 10 {
		t.Errorf("Health = %v, want unchanged (regen disabled at food<=17)", s.Health)
	}
}

func TestTickFoodAndSaturation_RegenAboveThreshold(t *testing.T) {
	s := newTestSession()
	s.FoodLevel = 18
	s.Health = 10

	TickFoodAndSaturation(s, 20, 20)

	if s.Health != 11 {
		t.Errorf("Health = %v, want 11 (regenerated)", s.Health)
	}
}

func TestTickFire_DamageEveryTwentyTicks(t *testing.T) {
	s := newTestSession()
	s.FireTicks = 20

	events := TickFire(s)

	if s.FireTicks != 19 {
		t.Errorf("FireTicks = %v, want 19", s.FireTicks)
	}
	if len(events) != 1 || events[0].Cause != "fire" {
		t.Fatalf("events = %+v, want one fire event", events)
	}
}

func TestTickFire_NoDamageOffCadence(t *testing.T) {
	s := newTestSession()
	s.FireTicks = 15

	events := TickFire(s)

	if len(events) != 0 {
		t.Errorf("events = %+v, want none", events)
	}
}

func TestTickAir_DecrementsWhileSubmerged(t *testing.T) {
	s := newTestSession()
	s.AirTicks = MaxAirTicks

	TickAir(s, true, 1)

	if s.AirTicks != MaxAirTicks-1 {
		t.Errorf("AirTicks = %v, want %v", s.AirTicks, MaxAirTicks-1)
	}
}

func TestTickAir_DrownsAtZero(t *testing.T) {
	s := newTestSession()
	s.AirTicks = 0

	events := TickAir(s, true, 20)

	if len(events) != 1 || events[0].Cause != "drown" {
		t.Fatalf("events = %+v, want one drown event", events)
	}
}

func TestTickAir_RefillsOutOfWater(t *testing.T) {
	s := newTestSession()
	s.AirTicks = 100

	TickAir(s, false, 1)

	if s.AirTicks != 104 {
		t.Errorf("AirTicks = %v, want 104", s.AirTicks)
	}
}

func TestTrackFall_AccumulatesWhileAirborne(t *testing.T) {
	s := newTestSession()

	TrackFall(s, false, false, -2, 0, -1)
	TrackFall(s, false, false, -3, 0, -1)

	if s.FallDistance != 5 {
		t.Errorf("FallDistance = %v, want 5", s.FallDistance)
	}
}

func TestTrackFall_NoDamageUnderThreeBlocks(t *testing.T) {
	s := newTestSession()
	s.FallDistance = 2.5

	events := TrackFall(s, true, false, 0, 0, -1)

	if len(events) != 0 {
		t.Errorf("events = %+v, want none under the 3-block threshold", events)
	}
}

func TestTrackFall_DamageOnLanding(t *testing.T) {
	s := newTestSession()
	s.FallDistance = 10

	events := TrackFall(s, true, false, 0, 0, -1)

	if len(events) != 1 {
		t.Fatalf("events = %+v, want one fall-damage event", events)
	}
	if events[0].Amount != 7 {
		t.Errorf("Amount = %v, want 7 (floor(10-3))", events[0].Amount)
	}
}

func TestTrackFall_InWaterResetsDistanceNoDamage(t *testing.T) {
	s := newTestSession()
	s.FallDistance = 10

	events := TrackFall(s, false, true, 0, 0, -1)

	if s.FallDistance != 0 {
		t.Errorf("FallDistance = %v, want reset to 0 in water", s.FallDistance)
	}
	if len(events) != 0 {
		t.Errorf("events = %+v, want none", events)
	}
}

func TestAddExhaustion_AccumulatesPerAction(t *testing.T) {
	s := newTestSession()

	AddExhaustion(s, ActionSprint)
	AddExhaustion(s, ActionJump)

	if s.Exhaustion <= 0 {
		t.Errorf("Exhaustion = %v, want positive accumulation", s.Exhaustion)
	}
}

func TestTrackFall_FeatherFallingReducesDamage(t *testing.T) {
	s := newTestSession()
	s.FallDistance = 10

	events := TrackFall(s, true, false, 0, 4, -1)

	if len(events) != 1 {
		t.Fatalf("events = %+v, want one event", events)
	}
	if events[0].Amount >= 7 {
		t.Errorf("Amount = %v, want reduced below the unmitigated 7", events[0].Amount)
	}
}

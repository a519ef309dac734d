// Package effects ticks a session's status-effect list and survival
// counters once per server tick (spec.md §4.8), generalized from
// internal/game/skill/effect_manager.go's EffectManager.Tick
// decrement-and-expire loop, from a stat-modifier buff list into
// Bedrock's amplifier/remaining-ticks status effects plus the
// food/fire/air/fall survival counters, which have no equivalent in
// that loop and are built fresh from spec.md §4.8.
package effects

import "github.com/bedrockcore/server/internal/session"

// ExhaustionPerSaturationDrain is the exhaustion threshold that drains
// one point of saturation (or food, if saturation is already zero)
// (spec.md §4.8: "exhaustion >= 4 drains one saturation").
const ExhaustionPerSaturationDrain = 4.0

// RegenDisabledAtOrBelowFood is the food level at and below which
// natural regeneration is disabled (spec.md §4.8: "food <= 17 disables
// regeneration").
const RegenDisabledAtOrBelowFood = 17

// FireDamageCadenceTicks is the tick interval at which a burning
// session takes fire damage (spec.md §4.8: "every 20 ticks deal 1 fire
// damage").
const FireDamageCadenceTicks = 20

// MaxAirTicks is the air supply a session starts with upon submerging
// (spec.md §4.8: "decrement from 300").
const MaxAirTicks = 300

// DrownDamageCadenceTicks is the tick interval at which a
// zero-air session takes drowning damage.
const DrownDamageCadenceTicks = 20

// SafeFallDistance is the fall distance below which no fall damage is
// taken (spec.md §4.8: "damage = max(0, floor(fall_distance - 3))").
const SafeFallDistance = 3.0

// ExpiredEffect describes a status effect that crossed zero remaining
// ticks this tick, so the caller can emit a remove-packet for it.
type ExpiredEffect struct {
	EffectID int32
}

// TickStatusEffects decrements every active effect's remaining ticks by
// one and drops any that expire, returning the ones that did for the
// caller to notify the client about (spec.md §4.8: "decrement
// remaining; emit a remove-packet when it crosses zero").
func TickStatusEffects(s *session.Session) []ExpiredEffect {
	var expired []ExpiredEffect
	kept := s.Effects[:0]
	for _, e := range s.Effects {
		e.RemainingTicks--
		if e.RemainingTicks <= 0 {
			expired = append(expired, ExpiredEffect{EffectID: e.EffectID})
			continue
		}
		kept = append(kept, e)
	}
	s.Effects = kept
	return expired
}

// SurvivalAction is an exhaustion-increasing player action (spec.md
// §4.8: "actions increase exhaustion (sprint, jump, attack, mining)").
type SurvivalAction int

const (
	ActionSprint SurvivalAction = iota
	ActionJump
	ActionAttack
	ActionMine
)

var exhaustionCost = map[SurvivalAction]float32{
	ActionSprint: 0.1,
	ActionJump:   0.2,
	ActionAttack: 0.1,
	ActionMine:   0.005,
}

// AddExhaustion increases a session's exhaustion for a survival action.
func AddExhaustion(s *session.Session, action SurvivalAction) {
	s.Exhaustion += exhaustionCost[action]
}

// DamageEvent is a single instance of survival damage the caller must
// apply to session health and broadcast.
type DamageEvent struct {
	Amount float32
	Cause  string
}

// TickFoodAndSaturation runs the exhaustion-drain, regeneration, and
// starvation rules for one tick (spec.md §4.8). regenTickCadence is the
// tick modulus at which regeneration/starvation pulses fire; tickNum is
// the current server tick number.
func TickFoodAndSaturation(s *session.Session, tickNum int64, regenTickCadence int64) []DamageEvent {
	if s.Exhaustion >= ExhaustionPerSaturationDrain {
		s.Exhaustion -= ExhaustionPerSaturationDrain
		if s.Saturation > 0 {
			s.Saturation--
		} else if s.FoodLevel > 0 {
			s.FoodLevel--
		}
	}

	if tickNum%regenTickCadence != 0 {
		return nil
	}

	if s.FoodLevel > RegenDisabledAtOrBelowFood && s.Health < 20 {
		s.Health += 1
		if s.Health > 20 {
			s.Health = 20
		}
		return nil
	}

	if s.FoodLevel == 0 {
		return []DamageEvent{{Amount: 1, Cause: "starve"}}
	}
	return nil
}

// TickFire decrements fire ticks and returns a damage event every
// FireDamageCadenceTicks while still burning (spec.md §4.8).
func TickFire(s *session.Session) []DamageEvent {
	if s.FireTicks <= 0 {
		return nil
	}
	burning := s.FireTicks
	s.FireTicks--
	if burning%FireDamageCadenceTicks == 0 {
		return []DamageEvent{{Amount: 1, Cause: "fire"}}
	}
	return nil
}

// TickAir decrements air while the head is submerged, refills it
// rapidly otherwise, and returns a drowning-damage event on the
// configured cadence once air reaches zero (spec.md §4.8).
func TickAir(s *session.Session, headInWater bool, tickNum int64) []DamageEvent {
	if headInWater {
		if s.AirTicks > 0 {
			s.AirTicks--
		}
		if s.AirTicks <= 0 && tickNum%DrownDamageCadenceTicks == 0 {
			return []DamageEvent{{Amount: 1, Cause: "drown"}}
		}
		return nil
	}
	s.AirTicks += 4
	if s.AirTicks > MaxAirTicks {
		s.AirTicks = MaxAirTicks
	}
	return nil
}

// TrackFall updates fall_distance while a session is airborne and not
// in water, and computes fall damage on landing (spec.md §4.8).
// featherFallingLevel and resistanceAmp (-1 = not applied) modify the
// final damage the same way CombatEngine's modifiers do.
func TrackFall(s *session.Session, onGround, inWater bool, deltaY float64, featherFallingLevel, resistanceAmp int32) []DamageEvent {
	if inWater {
		s.FallDistance = 0
		return nil
	}
	if !onGround {
		if deltaY < 0 {
			s.FallDistance += -deltaY
		}
		return nil
	}

	dist := s.FallDistance
	s.FallDistance = 0
	dmg := dist - SafeFallDistance
	if dmg <= 0 {
		return nil
	}
	dmg = float64(int64(dmg))

	if featherFallingLevel > 0 {
		dmg *= 1 - 0.12*float64(featherFallingLevel)
		if dmg < 0 {
			dmg = 0
		}
	}
	if resistanceAmp >= 0 {
		dmg *= 1 - 0.2*float64(resistanceAmp+1)
		if dmg < 0 {
			dmg = 0
		}
	}
	if dmg <= 0 {
		return nil
	}
	return []DamageEvent{{Amount: float32(dmg), Cause: "fall"}}
}

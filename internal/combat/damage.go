// Package combat implements the shared PvE/PvP damage pipeline (spec.md
// §4.4), generalized from internal/game/combat/damage.go's
// CalcPhysicalDamage / CalcCrit / CalcHitMiss pipeline — base damage, a
// multiplicative stack of modifiers, then a flat reduction — into
// Bedrock's enchant/effect/armor pipeline.
package combat

import "math"

// AttackReach is the maximum attacker-to-target distance, in blocks,
// a melee attack may be issued from (spec.md §4.4, §8 boundary case:
// exactly 6.0 succeeds, 6.0+ε fails).
const AttackReach = 6.0

// InvulnerabilityTicks is the minimum tick gap between two damage
// instances on the same target (spec.md §4.4).
const InvulnerabilityTicks = 10

// baseDamage is the unenchanted base damage table keyed by a coarse
// weapon category; spec.md §4.4 gives ranges per category rather than
// per concrete item, so WeaponCategory is resolved by the caller from
// the held item's runtime id.
type WeaponCategory int

const (
	WeaponUnarmed WeaponCategory = iota
	WeaponSword
	WeaponAxe
	WeaponOther
)

// BaseDamage returns the representative base damage for category
// (spec.md §4.4: "unarmed = 1.0; swords 5-9; axes 4-8; others 1-7").
func BaseDamage(cat WeaponCategory) float64 {
	switch cat {
	case WeaponSword:
		return 8
	case WeaponAxe:
		return 6
	case WeaponOther:
		return 4
	default:
		return 1
	}
}

// Attacker carries the inputs the damage pipeline needs about the
// attacking entity.
type Attacker struct {
	WeaponCategory   WeaponCategory
	SharpnessLevel   int32
	FireAspectLevel  int32
	KnockbackLevel   int32
	StrengthAmp      int32 // -1 means not applied
	WeaknessActive   bool
	Airborne         bool
	LastDeltaY       float64
	Sprinting        bool
}

// Target carries the inputs the damage pipeline needs about the victim.
type Target struct {
	ArmorPoints      float64
	ProtectionFactor float64 // 0..1, already averaged across armor pieces
	ResistanceAmp    int32   // -1 means not applied
}

// Result is the outcome of Calculate: the final damage plus whether a
// critical hit occurred (for the animation side effect).
type Result struct {
	Damage   float64
	Critical bool
}

// Calculate runs the pipeline spec.md §4.4 describes in order: base,
// enchant bonus, strength/weakness, critical multiplier, armor
// reduction, resistance, returning the final non-negative damage.
func Calculate(a Attacker, t Target) Result {
	dmg := BaseDamage(a.WeaponCategory)

	if a.SharpnessLevel > 0 {
		dmg += 0.5*float64(a.SharpnessLevel) + 0.5
	}

	if a.StrengthAmp >= 0 {
		dmg += 3 * float64(a.StrengthAmp+1)
	}
	if a.WeaknessActive {
		dmg -= 4
		if dmg < 0 {
			dmg = 0
		}
	}

	critical := a.Airborne && a.LastDeltaY < 0 && !a.Sprinting
	if critical {
		dmg *= 1.5
	}

	armorFactor := t.ArmorPoints * 0.04 * (1 - t.ProtectionFactor)
	if armorFactor > 20 {
		armorFactor = 20
	}
	dmg *= 1 - armorFactor

	if t.ResistanceAmp >= 0 {
		mult := 1 - 0.2*float64(t.ResistanceAmp+1)
		if mult < 0 {
			mult = 0
		}
		dmg *= mult
	}

	if dmg < 0 {
		dmg = 0
	}
	return Result{Damage: dmg, Critical: critical}
}

// FireTicksFromAspect returns the fire-tick duration Fire Aspect sets
// on the victim (spec.md §4.4: "80*L, if not already higher").
func FireTicksFromAspect(level int32) int32 { return 80 * level }

// ApplyFireAspect sets the victim's fire ticks to the Fire Aspect
// duration unless the victim is already burning longer.
func ApplyFireAspect(currentFireTicks, fireAspectLevel int32) int32 {
	if fireAspectLevel <= 0 {
		return currentFireTicks
	}
	ticks := FireTicksFromAspect(fireAspectLevel)
	if ticks > currentFireTicks {
		return ticks
	}
	return currentFireTicks
}

// Knockback computes the knockback velocity vector applied to the
// victim (spec.md §4.4: "normalize(victim - attacker) * (0.4 +
// 0.3*knockback_enchant) * sprint_mult").
func Knockback(attackerX, attackerZ, victimX, victimZ float64, knockbackLevel int32, attackerSprinting bool) (vx, vz float64) {
	dx := victimX - attackerX
	dz := victimZ - attackerZ
	length := math.Hypot(dx, dz)
	if length == 0 {
		length = 1
	}
	dx /= length
	dz /= length

	magnitude := 0.4 + 0.3*float64(knockbackLevel)
	if attackerSprinting {
		magnitude *= 1.5
	}
	return dx * magnitude, dz * magnitude
}

// WithinReach reports whether the attacker is close enough to the
// target to attack (spec.md §8 boundary case: exactly AttackReach
// succeeds, beyond it fails).
func WithinReach(attackerX, attackerY, attackerZ, targetX, targetY, targetZ float64) bool {
	dx := targetX - attackerX
	dy := targetY - attackerY
	dz := targetZ - attackerZ
	distSq := dx*dx + dy*dy + dz*dz
	return distSq <= AttackReach*AttackReach
}

// InvulnerableSince reports whether a target hit at lastDamageTick is
// still within its invulnerability window at currentTick (spec.md
// §4.4: "invulnerability frame: >= 10 ticks since last damage").
func InvulnerableSince(lastDamageTick, currentTick int64) bool {
	return currentTick-lastDamageTick < InvulnerabilityTicks
}

// NormalizeHealth clamps health to [0, max] (spec.md §8 property 5).
func NormalizeHealth(health, max float32) float32 {
	if health < 0 {
		return 0
	}
	if health > max {
		return max
	}
	return health
}

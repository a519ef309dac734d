package mobai

import (
	"math"

	"github.com/bedrockcore/server/internal/worldstore"
)

// Gravity and drag are Bedrock's published per-tick projectile
// constants (spec.md §4.7: "step position and velocity with gravity and
// drag").
const (
	ProjectileGravityPerTick  = 0.05
	ProjectileDragFactor      = 0.99
	BaseArrowSpeed            = 3.0
	BaseTridentSpeed          = 2.5
	MaxStuckAgeTicks          = 1200
	TridentLoyaltyReturnTicks = 40
)

// Enchantment keys looked up in worldstore.Projectile.Enchantments
// (spec.md §4.7: "arrows: Power/Punch/Flame apply; tridents: Loyalty
// ..., Riptide ...").
const (
	EnchantPower    = "power"
	EnchantPunch    = "punch"
	EnchantFlame    = "flame"
	EnchantLoyalty  = "loyalty"
	EnchantRiptide  = "riptide"
)

// SpawnProjectile computes the initial position/velocity from release
// direction, charge, and kind (spec.md §4.7: "velocity =
// direction(pitch,yaw) * base_speed * charge_factor").
func SpawnProjectile(runtimeID, shooterID uint64, dimension int32, x, y, z float64, pitch, yaw float32, chargeTicks int32, kind worldstore.ProjectileKind) *worldstore.Projectile {
	chargeFactor := chargeFactorFromTicks(chargeTicks)
	base := BaseArrowSpeed
	if kind == worldstore.ProjectileTrident {
		base = BaseTridentSpeed
	}

	dx, dy, dz := directionFromPitchYaw(pitch, yaw)
	speed := base * chargeFactor
	return &worldstore.Projectile{
		RuntimeID:        runtimeID,
		Kind:             kind,
		Dimension:        dimension,
		Position:         worldstore.Vec3{X: x, Y: y, Z: z},
		Velocity:         worldstore.Vec3{X: dx * speed, Y: dy * speed, Z: dz * speed},
		ShooterRuntimeID: shooterID,
		Enchantments:     make(map[string]int32),
	}
}

// chargeFactorFromTicks maps bow-draw ticks to Bedrock's charge curve,
// capping at full draw (spec.md §4.7: "spawned on bow release (charge
// >= 3 ticks)").
func chargeFactorFromTicks(ticks int32) float64 {
	const fullDrawTicks = 20.0
	f := float64(ticks) / fullDrawTicks
	if f > 1 {
		f = 1
	}
	if f < 0.15 {
		f = 0.15
	}
	return f
}

func directionFromPitchYaw(pitch, yaw float32) (dx, dy, dz float64) {
	p := float64(pitch) * math.Pi / 180
	y := float64(yaw) * math.Pi / 180
	dx = -math.Sin(y) * math.Cos(p)
	dz = math.Cos(y) * math.Cos(p)
	dy = -math.Sin(p)
	return
}

// BlockSolidity reports whether a block position is solid, reused from
// movement's no-clip check shape so projectile collision uses the same
// block-property source.
type BlockSolidity func(pos worldstore.BlockPos) bool

// StepProjectile advances one projectile by one tick (spec.md §4.7):
// gravity and drag while in flight; frozen in place while stuck, aging
// toward despawn (reported via the returned bool).
func StepProjectile(p *worldstore.Projectile, solid BlockSolidity) (despawn bool) {
	if p.Dead {
		return true
	}
	if p.StuckPos != nil {
		p.StuckAge++
		if p.Kind == worldstore.ProjectileTrident && p.Enchantments[EnchantLoyalty] > 0 && p.StuckAge >= TridentLoyaltyReturnTicks {
			p.StuckPos = nil
			p.StuckAge = 0
		} else if p.StuckAge >= MaxStuckAgeTicks {
			p.Dead = true
			return true
		}
		return false
	}

	p.Velocity.Y -= ProjectileGravityPerTick
	p.Velocity.X *= ProjectileDragFactor
	p.Velocity.Y *= ProjectileDragFactor
	p.Velocity.Z *= ProjectileDragFactor

	next := p.Position.Add(p.Velocity)
	blockPos := worldstore.BlockPos{X: int32(math.Floor(next.X)), Y: int32(math.Floor(next.Y)), Z: int32(math.Floor(next.Z))}
	if solid != nil && solid(blockPos) {
		stuck := blockPos
		p.StuckPos = &stuck
		p.Velocity = worldstore.Vec3{}
		return false
	}
	p.Position = next
	p.LifetimeTicks++
	return false
}

// HitResult is the damage-and-effects outcome of a projectile striking
// an entity, ready to be handed to the combat pipeline.
type HitResult struct {
	Damage                 float32
	KnockbackX, KnockbackZ float64
	FireTicks              int32
	ReturnsToShooter       bool
	ThrowsShooter          bool
}

// ResolveHit computes the on-entity-collision outcome (spec.md §4.7:
// "arrows: Power/Punch/Flame apply; tridents: Loyalty returns to
// shooter after 40 ticks stuck, Riptide throws the shooter") and marks
// p dead.
func ResolveHit(p *worldstore.Projectile, baseDamage float64) HitResult {
	dmg := baseDamage
	isArrow := p.Kind == worldstore.ProjectileArrow
	if power := p.Enchantments[EnchantPower]; isArrow && power > 0 {
		dmg += dmg * (0.25 * float64(power+1))
	}

	var kbX, kbZ float64
	if punch := p.Enchantments[EnchantPunch]; isArrow && punch > 0 {
		length := math.Hypot(p.Velocity.X, p.Velocity.Z)
		if length > 0 {
			kbX = p.Velocity.X / length * 0.6 * float64(punch)
			kbZ = p.Velocity.Z / length * 0.6 * float64(punch)
		}
	}

	var fireTicks int32
	if isArrow && p.Enchantments[EnchantFlame] > 0 {
		fireTicks = 100
	}

	isTrident := p.Kind == worldstore.ProjectileTrident
	p.Dead = true
	return HitResult{
		Damage:                 float32(dmg),
		KnockbackX:             kbX,
		KnockbackZ:             kbZ,
		FireTicks:              fireTicks,
		ReturnsToShooter:       isTrident && p.Enchantments[EnchantLoyalty] > 0,
		ThrowsShooter:          isTrident && p.Enchantments[EnchantRiptide] > 0,
	}
}

package mobai

import (
	"testing"

	"github.com/bedrockcore/server/internal/worldstore"
)

func noSolidBlocks(pos worldstore.BlockPos) bool { return false }

func allSolidBlocks(pos worldstore.BlockPos) bool { return true }

func TestSpawnProjectile_ChargeBelowMinimumClampedUp(t *testing.T) {
	p := SpawnProjectile(1, 100, 0, 0, 0, 0, 0, 0, 1, worldstore.ProjectileArrow)
	if p.Velocity.X == 0 && p.Velocity.Y == 0 && p.Velocity.Z == 0 {
		t.Error("expected nonzero velocity even at minimal charge")
	}
}

func TestSpawnProjectile_FullChargeExceedsMinimalCharge(t *testing.T) {
	low := SpawnProjectile(1, 100, 0, 0, 0, 0, 0, 0, 1, worldstore.ProjectileArrow)
	full := SpawnProjectile(1, 100, 0, 0, 0, 0, 0, 0, 20, worldstore.ProjectileArrow)

	lowSpeed := low.Velocity.X*low.Velocity.X + low.Velocity.Y*low.Velocity.Y + low.Velocity.Z*low.Velocity.Z
	fullSpeed := full.Velocity.X*full.Velocity.X + full.Velocity.Y*full.Velocity.Y + full.Velocity.Z*full.Velocity.Z
	if fullSpeed <= lowSpeed {
		t.Errorf("full-charge speed^2 = %v, want greater than low-charge %v", fullSpeed, lowSpeed)
	}
}

func TestStepProjectile_AppliesGravityAndDrag(t *testing.T) {
	p := &worldstore.Projectile{Velocity: worldstore.Vec3{X: 1, Y: 1, Z: 1}}
	StepProjectile(p, noSolidBlocks)

	if p.Velocity.Y >= 1 {
		t.Errorf("VY = %v, want reduced by gravity", p.Velocity.Y)
	}
	if p.Position.X == 0 {
		t.Error("expected the projectile to have moved")
	}
}

func TestStepProjectile_BecomesStuckOnSolidCollision(t *testing.T) {
	p := &worldstore.Projectile{Velocity: worldstore.Vec3{X: 1, Y: 0, Z: 1}}
	StepProjectile(p, allSolidBlocks)

	if p.StuckPos == nil {
		t.Fatal("expected the projectile to become stuck on solid collision")
	}
	if p.Velocity != (worldstore.Vec3{}) {
		t.Error("a stuck projectile must have zero velocity")
	}
}

func TestStepProjectile_DespawnsAfterMaxStuckAge(t *testing.T) {
	pos := worldstore.BlockPos{}
	p := &worldstore.Projectile{StuckPos: &pos, StuckAge: MaxStuckAgeTicks - 1}
	despawn := StepProjectile(p, noSolidBlocks)

	if !despawn || !p.Dead {
		t.Error("expected the projectile to despawn at max stuck age")
	}
}

func TestStepProjectile_TridentLoyaltyUnstucksAfterReturnTicks(t *testing.T) {
	pos := worldstore.BlockPos{}
	p := &worldstore.Projectile{
		Kind:         worldstore.ProjectileTrident,
		StuckPos:     &pos,
		StuckAge:     TridentLoyaltyReturnTicks - 1,
		Enchantments: map[string]int32{EnchantLoyalty: 1},
	}
	StepProjectile(p, noSolidBlocks)

	if p.StuckPos != nil {
		t.Error("expected a loyalty trident to unstick and return")
	}
}

func TestResolveHit_PowerIncreasesDamage(t *testing.T) {
	base := &worldstore.Projectile{Kind: worldstore.ProjectileArrow, Enchantments: map[string]int32{}}
	buffed := &worldstore.Projectile{Kind: worldstore.ProjectileArrow, Enchantments: map[string]int32{EnchantPower: 2}}

	baseHit := ResolveHit(base, 5)
	buffedHit := ResolveHit(buffed, 5)

	if buffedHit.Damage <= baseHit.Damage {
		t.Errorf("buffedHit.Damage = %v, want greater than baseHit.Damage = %v", buffedHit.Damage, baseHit.Damage)
	}
}

func TestResolveHit_FlameSetsFireTicks(t *testing.T) {
	p := &worldstore.Projectile{Kind: worldstore.ProjectileArrow, Enchantments: map[string]int32{EnchantFlame: 1}}
	hit := ResolveHit(p, 5)
	if hit.FireTicks == 0 {
		t.Error("expected Flame to set nonzero fire ticks")
	}
}

func TestResolveHit_TridentLoyaltyReturnsToShooter(t *testing.T) {
	p := &worldstore.Projectile{Kind: worldstore.ProjectileTrident, Enchantments: map[string]int32{EnchantLoyalty: 1}}
	hit := ResolveHit(p, 8)
	if !hit.ReturnsToShooter {
		t.Error("expected a loyalty trident hit to return to its shooter")
	}
}

func TestResolveHit_MarksProjectileDead(t *testing.T) {
	p := &worldstore.Projectile{Kind: worldstore.ProjectileArrow, Enchantments: map[string]int32{}}
	ResolveHit(p, 5)
	if !p.Dead {
		t.Error("expected a resolved hit to mark the projectile dead")
	}
}

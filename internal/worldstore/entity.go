package worldstore

// Vec3 is a plain 3D vector used for entity position/velocity/facing.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns a + b.
func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }

// Scale returns v scaled by f.
func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }

// AABB is an axis-aligned bounding box, used by MovementAuthority's
// no-clip check and by projectile/mob collision tests.
type AABB struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// Intersects reports whether two AABBs overlap.
func (a AABB) Intersects(b AABB) bool {
	return a.MinX < b.MaxX && a.MaxX > b.MinX &&
		a.MinY < b.MaxY && a.MaxY > b.MinY &&
		a.MinZ < b.MaxZ && a.MaxZ > b.MinZ
}

// MobEffectInstance is a status effect attached to a mob (mobs only,
// spec.md §3 "effects-on-me (mobs only)").
type MobEffectInstance struct {
	EffectID      int32
	Amplifier     int32
	RemainingTicks int32
}

// Mob is owned by WorldStore (spec.md §3).
type Mob struct {
	RuntimeID uint64
	UniqueID  int64
	TypeID    string
	Dimension int32
	Position  Vec3
	Velocity  Vec3
	Facing    float32 // yaw, degrees
	BoundingBox AABB
	Health    float32
	MaxHealth float32
	EffectsOnMe []MobEffectInstance
	TargetRuntimeID uint64 // 0 = no target
	Dead      bool
}

// ProjectileKind distinguishes arrows from tridents (spec.md §4.7).
type ProjectileKind int

const (
	ProjectileArrow ProjectileKind = iota
	ProjectileTrident
)

// Projectile is owned by WorldStore (spec.md §3).
type Projectile struct {
	RuntimeID uint64
	Kind      ProjectileKind
	Dimension int32
	Position  Vec3
	Velocity  Vec3
	ShooterRuntimeID uint64
	StuckPos  *BlockPos // nil while in flight
	StuckAge  int32     // ticks since becoming stuck
	LifetimeTicks int32
	Enchantments map[string]int32 // Power/Punch/Flame/Loyalty/Riptide levels
	Dead      bool
}

// Package movement implements the MovementAuthority validation funnel
// (spec.md §4.3): the server, never the client, is the source of truth
// for position. Generalized from internal/gameserver/movement_validator.go's
// ValidateMoveToLocation funnel — distance/bounds checks followed by a
// reject-and-snap outcome — to Bedrock's continuous PlayerAuthInput
// stream and per-tick caps.
package movement

import (
	"math"

	"github.com/bedrockcore/server/internal/worldstore"
)

const (
	// MaxHorizontalPerTick is the per-tick horizontal distance cap
	// (spec.md §4.3: "≈ 1.0 block, generous for latency tolerance given
	// sprint ≈ 0.28 b/t").
	MaxHorizontalPerTick = 1.0

	// WorldBottomY is the minimum accepted Y coordinate (spec.md §4.3,
	// §8 boundary case: Y = MIN_Y_POSITION is accepted, below it is not).
	WorldBottomY = -64.0

	// TerminalVelocityPerTick bounds the accepted per-tick |Δy|.
	TerminalVelocityPerTick = 3.92 // blocks/tick, vanilla terminal velocity

	// EyeHeight is the standing player eye height. Validate treats the
	// input Y as feet level, so the on-ground probe does not use it.
	EyeHeight = 1.62

	// MaxAirborneTicks is the anti-fly cap: ticks airborne with
	// non-negative vertical delta before a reset is forced.
	MaxAirborneTicks = 100

	playerHalfWidth = 0.3
	playerHeight    = 1.8
)

// Input is one PlayerAuthInput sample (spec.md §4.3).
type Input struct {
	X, Y, Z             float64
	Pitch, Yaw, HeadYaw float32
	OnGround            bool
	Sprinting           bool
}

// Previous is the server-held state the new input is validated against.
type Previous struct {
	X, Y, Z       float64
	AirborneTicks int32
	Survival      bool // false for creative/spectator: no-clip check skipped
}

// Outcome is the result of validating one input: either Accept (with
// the new authoritative state) or Reject (snap back).
type Outcome struct {
	Accepted      bool
	NewOnGround   bool
	AirborneTicks int32
}

// BlockSolidity reports whether the block at the given position blocks
// movement; passed in so this package stays decoupled from a concrete
// World/Registry instance.
type BlockSolidity func(pos worldstore.BlockPos) bool

// Validate runs the funnel described in spec.md §4.3, in order: NaN/inf
// reject, horizontal speed cap, world-bottom check, vertical speed cap,
// and (survival only) a no-clip AABB check against solid blocks.
func Validate(prev Previous, in Input, solid BlockSolidity) Outcome {
	if isNaNOrInf(in.X) || isNaNOrInf(in.Y) || isNaNOrInf(in.Z) {
		return Outcome{Accepted: false}
	}

	dx := in.X - prev.X
	dz := in.Z - prev.Z
	horizDist := math.Hypot(dx, dz)
	if horizDist > MaxHorizontalPerTick {
		return Outcome{Accepted: false}
	}

	if in.Y < WorldBottomY {
		return Outcome{Accepted: false}
	}

	dy := in.Y - prev.Y
	if math.Abs(dy) > TerminalVelocityPerTick {
		return Outcome{Accepted: false}
	}

	if prev.Survival && solid != nil && intersectsSolid(in.X, in.Y, in.Z, solid) {
		return Outcome{Accepted: false}
	}

	onGround := probeOnGround(in.X, in.Y, in.Z, solid)

	airborne := prev.AirborneTicks
	if onGround {
		airborne = 0
	} else {
		airborne++
	}

	if prev.Survival && !onGround && dy >= 0 && airborne > MaxAirborneTicks {
		return Outcome{Accepted: false}
	}

	return Outcome{Accepted: true, NewOnGround: onGround, AirborneTicks: airborne}
}

func isNaNOrInf(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// intersectsSolid checks the player's AABB at (x,y,z) against every
// block position it overlaps (spec.md §4.3 step 5).
func intersectsSolid(x, y, z float64, solid BlockSolidity) bool {
	minX, maxX := x-playerHalfWidth, x+playerHalfWidth
	minY, maxY := y, y+playerHeight
	minZ, maxZ := z-playerHalfWidth, z+playerHalfWidth

	for bx := int32(math.Floor(minX)); bx <= int32(math.Floor(maxX)); bx++ {
		for by := int32(math.Floor(minY)); by <= int32(math.Floor(maxY)); by++ {
			for bz := int32(math.Floor(minZ)); bz <= int32(math.Floor(maxZ)); bz++ {
				if solid(worldstore.BlockPos{X: bx, Y: by, Z: bz}) {
					return true
				}
			}
		}
	}
	return false
}

// probeOnGround checks for a solid block under the player's feet with
// a small bias (spec.md §4.3: "solid block below eye-minus-1.62 with a
// 0.01 bias").
func probeOnGround(x, y, z float64, solid BlockSolidity) bool {
	if solid == nil {
		return false
	}
	feetY := y - 0.01
	pos := worldstore.BlockPos{
		X: int32(math.Floor(x)),
		Y: int32(math.Floor(feetY)),
		Z: int32(math.Floor(z)),
	}
	return solid(pos)
}

// Package blockinteraction implements break/place validation, the
// mining-time survival gate, and block-entity lifecycle management
// (spec.md §4.6), grounded on internal/gameserver/movement_validator.go's
// validation-funnel style, generalized from movement distance checks to
// mining-time and placement checks.
package blockinteraction

import (
	"time"

	"github.com/bedrockcore/server/internal/worldstore"
)

// Face identifies which side of a clicked block a placement targets.
type Face int32

const (
	FaceDown Face = iota
	FaceUp
	FaceNorth
	FaceSouth
	FaceWest
	FaceEast
)

// FaceOffset returns the neighboring block position implied by
// clicking face on pos (spec.md §4.6: "target position =
// face_offset(clicked_pos, face)").
func FaceOffset(pos worldstore.BlockPos, face Face) worldstore.BlockPos {
	switch face {
	case FaceDown:
		return worldstore.BlockPos{X: pos.X, Y: pos.Y - 1, Z: pos.Z}
	case FaceUp:
		return worldstore.BlockPos{X: pos.X, Y: pos.Y + 1, Z: pos.Z}
	case FaceNorth:
		return worldstore.BlockPos{X: pos.X, Y: pos.Y, Z: pos.Z - 1}
	case FaceSouth:
		return worldstore.BlockPos{X: pos.X, Y: pos.Y, Z: pos.Z + 1}
	case FaceWest:
		return worldstore.BlockPos{X: pos.X - 1, Y: pos.Y, Z: pos.Z}
	case FaceEast:
		return worldstore.BlockPos{X: pos.X + 1, Y: pos.Y, Z: pos.Z}
	default:
		return pos
	}
}

// BreakAttempt is one UseItemAction::BreakBlock check against a prior
// StartBreak record (spec.md §4.6).
type BreakAttempt struct {
	Pos            worldstore.BlockPos
	StartedAt      time.Time
	Now            time.Time
	Survival       bool
	ExpectedMining time.Duration
	BlockHardness  float64 // < 0 means unbreakable
}

// BreakOutcome is the result of validating a break attempt.
type BreakOutcome struct {
	Accepted bool
	Reason   string
}

// ValidateBreak runs the break-validation funnel (spec.md §4.6: Y
// bounds, not-air, not-unbreakable, and in survival at least 80% of the
// expected mining time must have elapsed).
func ValidateBreak(a BreakAttempt, blockID worldstore.BlockRuntimeID) BreakOutcome {
	if a.Pos.Y < worldstore.WorldBottomY() || a.Pos.Y >= worldstore.WorldTopY() {
		return BreakOutcome{Reason: "out of Y bounds"}
	}
	if blockID == worldstore.AirRuntimeID {
		return BreakOutcome{Reason: "target block is already air"}
	}
	if a.BlockHardness < 0 {
		return BreakOutcome{Reason: "block is unbreakable"}
	}
	if a.Survival {
		elapsed := a.Now.Sub(a.StartedAt)
		minElapsed := time.Duration(float64(a.ExpectedMining) * 0.8)
		if elapsed < minElapsed {
			return BreakOutcome{Reason: "mining time not yet elapsed"}
		}
	}
	return BreakOutcome{Accepted: true}
}

// PlaceAttempt is one block-placement request.
type PlaceAttempt struct {
	Target           worldstore.BlockPos
	ChunkLoaded      bool
	HeldBlockRuntime worldstore.BlockRuntimeID
}

// ValidatePlace runs the placement validation funnel (spec.md §4.6:
// loaded chunk, Y bounds, nonzero non-air held block id).
func ValidatePlace(a PlaceAttempt) BreakOutcome {
	if !a.ChunkLoaded {
		return BreakOutcome{Reason: "target chunk not loaded"}
	}
	if a.Target.Y < worldstore.WorldBottomY() || a.Target.Y >= worldstore.WorldTopY() {
		return BreakOutcome{Reason: "out of Y bounds"}
	}
	if a.HeldBlockRuntime == 0 || a.HeldBlockRuntime == worldstore.AirRuntimeID {
		return BreakOutcome{Reason: "held item is not a placeable block"}
	}
	return BreakOutcome{Accepted: true}
}

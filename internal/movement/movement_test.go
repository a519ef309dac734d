package movement

import (
	"math"
	"testing"

	"github.com/bedrockcore/server/internal/worldstore"
)

func flatGroundAt(groundY int32) BlockSolidity {
	return func(pos worldstore.BlockPos) bool { return pos.Y <= groundY }
}

func TestValidate_RejectsNaN(t *testing.T) {
	out := Validate(Previous{}, Input{X: math.NaN(), Y: 0, Z: 0}, nil)
	if out.Accepted {
		t.Error("NaN position must be rejected")
	}
}

func TestValidate_RejectsTeleportDistance(t *testing.T) {
	out := Validate(Previous{X: 0, Y: 5, Z: 0}, Input{X: 100, Y: 5, Z: 0}, nil)
	if out.Accepted {
		t.Error("movement exceeding the per-tick horizontal cap must be rejected")
	}
}

func TestValidate_AcceptsSmallStep(t *testing.T) {
	out := Validate(Previous{X: 0, Y: 5, Z: 0}, Input{X: 0.5, Y: 5, Z: 0.5}, nil)
	if !out.Accepted {
		t.Error("a small step within the per-tick cap should be accepted")
	}
}

func TestValidate_BoundaryAtWorldBottomAccepted(t *testing.T) {
	out := Validate(Previous{X: 0, Y: WorldBottomY, Z: 0}, Input{X: 0, Y: WorldBottomY, Z: 0}, nil)
	if !out.Accepted {
		t.Error("Y exactly at world bottom must be accepted per spec.md boundary case")
	}
}

func TestValidate_BelowWorldBottomRejected(t *testing.T) {
	out := Validate(Previous{X: 0, Y: WorldBottomY, Z: 0}, Input{X: 0, Y: WorldBottomY - 0.001, Z: 0}, nil)
	if out.Accepted {
		t.Error("Y below world bottom must be rejected")
	}
}

func TestValidate_NoClipRejectsMovingIntoSolidBlock(t *testing.T) {
	solid := flatGroundAt(10)
	out := Validate(
		Previous{X: 0, Y: 12, Z: 0, Survival: true},
		Input{X: 0, Y: 9, Z: 0},
		solid,
	)
	if out.Accepted {
		t.Error("moving into a solid block in survival must be rejected")
	}
}

func TestValidate_CreativeSkipsNoClip(t *testing.T) {
	solid := flatGroundAt(10)
	out := Validate(
		Previous{X: 0, Y: 12, Z: 0, Survival: false},
		Input{X: 0, Y: 9, Z: 0},
		solid,
	)
	if !out.Accepted {
		t.Error("creative/spectator movement must skip the no-clip check")
	}
}

func TestValidate_OnGroundDetection(t *testing.T) {
	solid := flatGroundAt(10)
	out := Validate(Previous{X: 0, Y: 11, Z: 0}, Input{X: 0, Y: 11, Z: 0}, solid)
	if !out.Accepted || !out.NewOnGround {
		t.Errorf("expected accepted+on-ground standing just above solid ground, got %+v", out)
	}
}

func TestValidate_AntiFlyResetsAfterMaxAirborneTicks(t *testing.T) {
	prev := Previous{X: 0, Y: 50, Z: 0, AirborneTicks: MaxAirborneTicks + 1, Survival: true}
	out := Validate(prev, Input{X: 0, Y: 50.5, Z: 0}, func(worldstore.BlockPos) bool { return false })
	if out.Accepted {
		t.Error("excessive airborne ticks with non-negative vertical delta should be rejected")
	}
}

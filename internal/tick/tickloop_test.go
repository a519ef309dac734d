package tick

import (
	"context"
	"testing"
)

func TestLoop_RunOnceCallsPhasesInOrder(t *testing.T) {
	var order []string
	phases := Phases{
		DrainTransport:            func(ctx context.Context) { order = append(order, "drain") },
		WorldTick:                 func(n int64) { order = append(order, "world") },
		ProcessGameEvents:         func() { order = append(order, "events") },
		TickEffects:               func() { order = append(order, "effects") },
		TickSurvival:              func() { order = append(order, "survival") },
		TickWeather:               func() { order = append(order, "weather") },
		RunPluginSchedulerAndTick: func() { order = append(order, "plugin") },
		MaybeSave:                 func(n int64) { order = append(order, "save") },
	}
	l := NewLoop(phases)
	l.RunOnce(context.Background())

	want := []string{"drain", "world", "events", "effects", "survival", "weather", "plugin", "save"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("phase %d = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestLoop_RunOnceSkipsNilHooks(t *testing.T) {
	l := NewLoop(Phases{})
	l.RunOnce(context.Background())
	if l.TickNum() != 1 {
		t.Errorf("TickNum() = %d, want 1", l.TickNum())
	}
}

func TestLoop_TickNumIncrementsEachRun(t *testing.T) {
	l := NewLoop(Phases{})
	for i := 0; i < 5; i++ {
		l.RunOnce(context.Background())
	}
	if l.TickNum() != 5 {
		t.Errorf("TickNum() = %d, want 5", l.TickNum())
	}
}

func TestSaveCounter_DueAtInterval(t *testing.T) {
	sc := &SaveCounter{Interval: 3}
	results := []bool{sc.Due(), sc.Due(), sc.Due(), sc.Due()}
	want := []bool{false, false, true, false}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("Due() call %d = %v, want %v", i+1, results[i], want[i])
		}
	}
}

package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_FirstCallAllowed(t *testing.T) {
	l := NewMemoryLimiter(map[Action]time.Duration{ActionBreak: time.Hour})
	allowed, err := l.Allow(context.Background(), "127.0.0.1:1", ActionBreak)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("expected the first call to be allowed")
	}
}

func TestMemoryLimiter_SecondCallWithinIntervalRejected(t *testing.T) {
	l := NewMemoryLimiter(map[Action]time.Duration{ActionBreak: time.Hour})
	ctx := context.Background()
	l.Allow(ctx, "127.0.0.1:1", ActionBreak)
	allowed, err := l.Allow(ctx, "127.0.0.1:1", ActionBreak)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if allowed {
		t.Error("expected the second call within the interval to be rejected")
	}
}

func TestMemoryLimiter_CallAfterIntervalElapsedAllowed(t *testing.T) {
	l := NewMemoryLimiter(map[Action]time.Duration{ActionAttack: 10 * time.Millisecond})
	ctx := context.Background()
	l.Allow(ctx, "k", ActionAttack)
	time.Sleep(20 * time.Millisecond)
	allowed, err := l.Allow(ctx, "k", ActionAttack)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("expected the call after the interval elapsed to be allowed")
	}
}

func TestMemoryLimiter_DifferentActionsHaveIndependentBudgets(t *testing.T) {
	l := NewMemoryLimiter(map[Action]time.Duration{ActionBreak: time.Hour, ActionPlace: time.Hour})
	ctx := context.Background()
	l.Allow(ctx, "k", ActionBreak)
	allowed, err := l.Allow(ctx, "k", ActionPlace)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("expected an independent action to have its own budget")
	}
}

func TestMemoryLimiter_DifferentKeysHaveIndependentBudgets(t *testing.T) {
	l := NewMemoryLimiter(map[Action]time.Duration{ActionCommand: time.Hour})
	ctx := context.Background()
	l.Allow(ctx, "addr-a", ActionCommand)
	allowed, err := l.Allow(ctx, "addr-b", ActionCommand)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("expected a different key to have its own budget")
	}
}

func TestNewMemoryLimiter_NilIntervalsUsesDefaults(t *testing.T) {
	l := NewMemoryLimiter(nil)
	if l.intervals[ActionBreak] != DefaultIntervals[ActionBreak] {
		t.Errorf("intervals = %v, want DefaultIntervals", l.intervals)
	}
}

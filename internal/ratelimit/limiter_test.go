package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWait_UnknownProviderUnlimited(t *testing.T) {
	l := New()
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		if err := l.Wait(ctx, "unknown"); err != nil {
			t.Fatalf("Wait() returned error for unlimited provider: %v", err)
		}
	}
}

func TestAllow_EnforcesLimit(t *testing.T) {
	l := New()
	l.Set("slow", 0.001, 1)

	if !l.Allow("slow") {
		t.Fatal("first event should be allowed (burst)")
	}
	if l.Allow("slow") {
		t.Fatal("second immediate event should be throttled")
	}
}

func TestSet_ZeroRateMeansUnlimited(t *testing.T) {
	l := New()
	l.Set("free", 0, 1)

	for i := 0; i < 100; i++ {
		if !l.Allow("free") {
			t.Fatal("zero rate should never throttle")
		}
	}
}

func TestWait_ContextCancelled(t *testing.T) {
	l := New()
	l.Set("slow", 0.001, 1)
	if !l.Allow("slow") {
		t.Fatal("burst token missing")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.Wait(ctx, "slow")
	if err == nil {
		t.Fatal("Wait() expected error after cancellation, got nil")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Wait() took %v after cancellation, want prompt return", elapsed)
	}
}

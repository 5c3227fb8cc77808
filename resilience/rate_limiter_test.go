package resilience

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Name: "process", Rate: 100, Burst: 3})

	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Fatalf("call %d rejected inside burst", i)
		}
	}
	if rl.Allow() {
		t.Error("call beyond burst admitted")
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Name: "process", Rate: 1000, Burst: 1})

	if !rl.Allow() {
		t.Fatal("first call rejected")
	}
	if rl.Allow() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(10 * time.Millisecond) // 1000/s refills well within this
	if !rl.Allow() {
		t.Error("bucket did not refill")
	}
}

func TestRateLimiterCapsAtBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Name: "process", Rate: 10000, Burst: 2})

	time.Sleep(5 * time.Millisecond)
	if got := rl.Tokens(); got > 2 {
		t.Errorf("Tokens() = %v, want at most burst 2", got)
	}
}

func TestRateLimiterAllowN(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Name: "process", Rate: 1, Burst: 5})

	if !rl.AllowN(5) {
		t.Fatal("AllowN(5) rejected with a full bucket of 5")
	}
	if rl.AllowN(1) {
		t.Error("AllowN(1) admitted with an empty bucket")
	}
}

func TestRateLimiterOnLimit(t *testing.T) {
	var limited []string
	rl := NewRateLimiter(RateLimiterConfig{
		Name:    "process",
		Rate:    1,
		Burst:   1,
		OnLimit: func(name string) { limited = append(limited, name) },
	})

	rl.Allow()
	rl.Allow()
	if len(limited) != 1 || limited[0] != "process" {
		t.Errorf("OnLimit calls = %v, want one for %q", limited, "process")
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Name: "process"})

	if rl.Rate() <= 0 {
		t.Errorf("Rate() = %v, want a positive default", rl.Rate())
	}
	if rl.Burst() <= 0 {
		t.Errorf("Burst() = %v, want a positive default", rl.Burst())
	}
}

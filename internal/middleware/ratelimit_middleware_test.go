package middleware

import (
	"testing"
	"time"
)

func TestSubscribeRateLimiterAllowsWithinLimit(t *testing.T) {
	rl := NewSubscribeRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("attempt %d denied, want allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("attempt over the limit was allowed")
	}
}

func TestSubscribeRateLimiterIsolatesIPs(t *testing.T) {
	rl := NewSubscribeRateLimiter(1, time.Minute)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("first IP denied")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("second IP denied by first IP's quota")
	}
}

func TestSubscribeRateLimiterResetsAfterWindow(t *testing.T) {
	rl := NewSubscribeRateLimiter(1, 10*time.Millisecond)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("first attempt denied")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("second attempt within window allowed")
	}
	time.Sleep(15 * time.Millisecond)
	if !rl.Allow("10.0.0.1") {
		t.Error("attempt after window expiry denied")
	}
}

package ratelimit

import (
	"net/http"
	"testing"
	"time"
)

func TestFailureWindow_LocksOutAfterMaxAttempts(t *testing.T) {
	fw := NewFailureWindow(LockoutConfig{Window: time.Minute, MaxAttempts: 10, Lockout: 5 * time.Minute})
	now := time.Unix(1_700_000_000, 0)

	for i := 0; i < 11; i++ {
		fw.RecordFailure("10.0.0.5", now)
	}

	allowed, retryAfter := fw.Check("10.0.0.5", now)
	if allowed {
		t.Fatal("expected IP to be locked out after 11 failures")
	}
	if retryAfter <= 0 || retryAfter > 5*time.Minute {
		t.Errorf("retryAfter = %v, want roughly the lockout duration", retryAfter)
	}

	allowed, _ = fw.Check("10.0.0.6", now)
	if !allowed {
		t.Error("expected an unrelated IP to be unaffected")
	}
}

func TestFailureWindow_UnlocksAfterLockoutElapses(t *testing.T) {
	fw := NewFailureWindow(LockoutConfig{Window: time.Minute, MaxAttempts: 3, Lockout: time.Minute})
	now := time.Unix(1_700_000_000, 0)

	for i := 0; i < 3; i++ {
		fw.RecordFailure("10.0.0.5", now)
	}
	if allowed, _ := fw.Check("10.0.0.5", now); allowed {
		t.Fatal("expected lockout immediately after max attempts")
	}

	later := now.Add(2 * time.Minute)
	if allowed, _ := fw.Check("10.0.0.5", later); !allowed {
		t.Error("expected lockout to clear after lockout duration elapses")
	}
}

func TestFailureWindow_LoopbackAlwaysAllowed(t *testing.T) {
	fw := NewFailureWindow(LockoutConfig{Window: time.Minute, MaxAttempts: 1, Lockout: time.Hour})
	now := time.Unix(1_700_000_000, 0)

	for _, ip := range []string{"127.0.0.1", "::1", "::ffff:127.0.0.1"} {
		fw.RecordFailure(ip, now)
		fw.RecordFailure(ip, now)
		if allowed, _ := fw.Check(ip, now); !allowed {
			t.Errorf("expected loopback %q to always be allowed", ip)
		}
	}
}

func TestFailureWindow_ClearLockoutDoesNotResetHistory(t *testing.T) {
	fw := NewFailureWindow(LockoutConfig{Window: time.Minute, MaxAttempts: 3, Lockout: time.Hour})
	now := time.Unix(1_700_000_000, 0)

	for i := 0; i < 3; i++ {
		fw.RecordFailure("10.0.0.5", now)
	}
	fw.ClearLockout("10.0.0.5")

	if allowed, _ := fw.Check("10.0.0.5", now); !allowed {
		t.Fatal("expected ClearLockout to unlock the IP")
	}
	entry := fw.entries["10.0.0.5"]
	if entry == nil || len(entry.failures) != 3 {
		t.Error("expected ClearLockout to preserve failure history")
	}
}

func TestFailureWindow_Prune(t *testing.T) {
	fw := NewFailureWindow(LockoutConfig{Window: time.Minute, MaxAttempts: 10, Lockout: time.Minute})
	now := time.Unix(1_700_000_000, 0)
	fw.RecordFailure("10.0.0.5", now)

	fw.Prune(now.Add(2 * time.Minute))
	if _, ok := fw.entries["10.0.0.5"]; ok {
		t.Error("expected stale entry to be pruned")
	}
}

func TestIsLoopback(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1":       true,
		"127.0.0.1:1234":  true,
		"::1":             true,
		"::ffff:127.0.0.1": true,
		"10.0.0.5":        false,
		"8.8.8.8:443":     false,
	}
	for addr, want := range cases {
		if got := IsLoopback(addr); got != want {
			t.Errorf("IsLoopback(%q) = %v, want %v", addr, got, want)
		}
	}
}

func TestResolveClientIP_TrustedProxyHonorsXFF(t *testing.T) {
	trusted := ParseTrustedProxies([]string{"10.0.0.0/8"})
	req := &http.Request{
		RemoteAddr: "10.0.0.1:5555",
		Header:     http.Header{"X-Forwarded-For": []string{"203.0.113.5, 10.0.0.1"}},
	}
	if got := ResolveClientIP(req, trusted); got != "203.0.113.5" {
		t.Errorf("got %q, want 203.0.113.5", got)
	}
}

func TestResolveClientIP_UntrustedPeerIgnoresXFF(t *testing.T) {
	req := &http.Request{
		RemoteAddr: "203.0.113.9:5555",
		Header:     http.Header{"X-Forwarded-For": []string{"198.51.100.1"}},
	}
	if got := ResolveClientIP(req, nil); got != "203.0.113.9" {
		t.Errorf("got %q, want the untrusted socket remote 203.0.113.9", got)
	}
}

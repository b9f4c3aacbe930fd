package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// LockoutConfig configures the gateway auth rate limiter (§4.8/§8).
type LockoutConfig struct {
	// Window is the sliding window over which failures are counted.
	Window time.Duration
	// MaxAttempts is the number of failures within Window that trigger a lockout.
	MaxAttempts int
	// Lockout is how long an IP stays locked once MaxAttempts is reached.
	Lockout time.Duration
}

// DefaultLockoutConfig returns the defaults from §4.8.
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		Window:      60 * time.Second,
		MaxAttempts: 10,
		Lockout:     300 * time.Second,
	}
}

type lockoutEntry struct {
	failures []time.Time
	lockedAt time.Time
}

// FailureWindow tracks per-IP auth failures in a sliding window and locks an
// IP out once it accumulates too many within that window. It is a single
// in-memory map shared across connections, mutated under a short critical
// section per call (§5 "Shared-resource policy").
type FailureWindow struct {
	mu      sync.Mutex
	cfg     LockoutConfig
	entries map[string]*lockoutEntry
}

// NewFailureWindow constructs a FailureWindow with the given config. A zero
// Window/MaxAttempts/Lockout falls back to DefaultLockoutConfig's values.
func NewFailureWindow(cfg LockoutConfig) *FailureWindow {
	defaults := DefaultLockoutConfig()
	if cfg.Window <= 0 {
		cfg.Window = defaults.Window
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = defaults.Lockout
	}
	return &FailureWindow{cfg: cfg, entries: map[string]*lockoutEntry{}}
}

// Check reports whether ip is currently allowed to attempt auth, and if not,
// how long until the lockout clears. Loopback addresses are always allowed
// regardless of failure history (§8).
func (f *FailureWindow) Check(ip string, now time.Time) (allowed bool, retryAfter time.Duration) {
	if IsLoopback(ip) {
		return true, 0
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[ip]
	if !ok {
		return true, 0
	}
	if !entry.lockedAt.IsZero() {
		unlockAt := entry.lockedAt.Add(f.cfg.Lockout)
		if now.Before(unlockAt) {
			return false, unlockAt.Sub(now)
		}
		entry.lockedAt = time.Time{}
	}
	return true, 0
}

// RecordFailure records a failed auth attempt for ip, pruning failures older
// than the window and locking the IP out once MaxAttempts is reached within
// it.
func (f *FailureWindow) RecordFailure(ip string, now time.Time) {
	if IsLoopback(ip) {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[ip]
	if !ok {
		entry = &lockoutEntry{}
		f.entries[ip] = entry
	}
	entry.failures = pruneBefore(entry.failures, now.Add(-f.cfg.Window))
	entry.failures = append(entry.failures, now)
	if len(entry.failures) >= f.cfg.MaxAttempts {
		entry.lockedAt = now
	}
}

// ClearLockout records a successful auth for ip. Per §7 this clears (unlocks)
// the IP but does not reset its failure history — the sliding window still
// ages failures out naturally on their own schedule.
func (f *FailureWindow) ClearLockout(ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry, ok := f.entries[ip]; ok {
		entry.lockedAt = time.Time{}
	}
}

// Prune removes entries with no failures in the window and no active
// lockout. Intended to run on a periodic 60s task (§4.8).
func (f *FailureWindow) Prune(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ip, entry := range f.entries {
		entry.failures = pruneBefore(entry.failures, now.Add(-f.cfg.Window))
		locked := !entry.lockedAt.IsZero() && now.Before(entry.lockedAt.Add(f.cfg.Lockout))
		if len(entry.failures) == 0 && !locked {
			delete(f.entries, ip)
		}
	}
}

func pruneBefore(failures []time.Time, cutoff time.Time) []time.Time {
	kept := failures[:0]
	for _, ts := range failures {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}

// IsLoopback reports whether addr (an IP or IP:port string) is a loopback
// address: 127.0.0.0/8, ::1, or an IPv4-mapped ::ffff:127.x address (§8).
func IsLoopback(addr string) bool {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	ip := net.ParseIP(strings.Trim(host, "[]"))
	return ip != nil && ip.IsLoopback()
}

// ResolveClientIP determines the client IP for rate-limiting purposes,
// honoring X-Forwarded-For/X-Real-IP only when the immediate peer
// (r.RemoteAddr) falls within one of the configured trusted proxy CIDRs
// (§4.8). Otherwise the raw socket remote address is used.
func ResolveClientIP(r *http.Request, trustedProxies []*net.IPNet) string {
	remoteHost := r.RemoteAddr
	if h, _, err := net.SplitHostPort(remoteHost); err == nil {
		remoteHost = h
	}
	remoteIP := net.ParseIP(remoteHost)
	if remoteIP == nil || !isTrustedProxy(remoteIP, trustedProxies) {
		return remoteHost
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return strings.TrimSpace(xrip)
	}
	return remoteHost
}

func isTrustedProxy(ip net.IP, trustedProxies []*net.IPNet) bool {
	for _, network := range trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ParseTrustedProxies parses a list of IP or CIDR strings (as validated by
// config.GatewayConfig.TrustedProxies) into *net.IPNet values suitable for
// ResolveClientIP. A bare IP is treated as a /32 (or /128) network.
func ParseTrustedProxies(entries []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, network, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, network)
			continue
		}
		if ip := net.ParseIP(entry); ip != nil {
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
		}
	}
	return nets
}

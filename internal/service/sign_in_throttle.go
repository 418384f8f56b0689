package service

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"
)

// SignInThrottle slows down repeated failed email sign-ins. Failures are
// counted per email and per client IP; the longer of the two cooldowns
// applies.
type SignInThrottle interface {
	Check(ctx context.Context, email, ip string) (time.Duration, error)
	RegisterFailure(ctx context.Context, email, ip string) (time.Duration, error)
	Reset(ctx context.Context, email, ip string) error
}

type SignInThrottlePolicy struct {
	FreeAttempts int
	BaseDelay    time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	ResetWindow  time.Duration
}

func (p SignInThrottlePolicy) normalized() SignInThrottlePolicy {
	if p.FreeAttempts < 0 {
		p.FreeAttempts = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 2 * time.Second
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = 5 * time.Minute
	}
	if p.ResetWindow <= 0 {
		p.ResetWindow = 30 * time.Minute
	}
	return p
}

// delayAfter is the cooldown once failures reaches n.
func (p SignInThrottlePolicy) delayAfter(n int) time.Duration {
	if n <= p.FreeAttempts {
		return 0
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(n-p.FreeAttempts-1)))
	return min(d, p.MaxDelay)
}

type NoopSignInThrottle struct{}

func (NoopSignInThrottle) Check(context.Context, string, string) (time.Duration, error) {
	return 0, nil
}

func (NoopSignInThrottle) RegisterFailure(context.Context, string, string) (time.Duration, error) {
	return 0, nil
}

func (NoopSignInThrottle) Reset(context.Context, string, string) error { return nil }

type throttleEntry struct {
	failures      int
	lastFailure   time.Time
	cooldownUntil time.Time
}

type InMemorySignInThrottle struct {
	mu      sync.Mutex
	policy  SignInThrottlePolicy
	entries map[string]throttleEntry
	now     func() time.Time
}

func NewInMemorySignInThrottle(policy SignInThrottlePolicy) *InMemorySignInThrottle {
	return &InMemorySignInThrottle{
		policy:  policy.normalized(),
		entries: make(map[string]throttleEntry),
		now:     time.Now,
	}
}

func (t *InMemorySignInThrottle) Check(_ context.Context, email, ip string) (time.Duration, error) {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	var wait time.Duration
	for _, key := range throttleKeys(email, ip) {
		e, ok := t.entries[key]
		if !ok {
			continue
		}
		if now.Sub(e.lastFailure) > t.policy.ResetWindow {
			delete(t.entries, key)
			continue
		}
		if e.cooldownUntil.After(now) {
			wait = max(wait, e.cooldownUntil.Sub(now))
		}
	}
	return wait, nil
}

func (t *InMemorySignInThrottle) RegisterFailure(_ context.Context, email, ip string) (time.Duration, error) {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	var wait time.Duration
	for _, key := range throttleKeys(email, ip) {
		e := t.entries[key]
		if e.lastFailure.IsZero() || now.Sub(e.lastFailure) > t.policy.ResetWindow {
			e.failures = 0
		}
		e.failures++
		e.lastFailure = now
		d := t.policy.delayAfter(e.failures)
		e.cooldownUntil = now.Add(d)
		t.entries[key] = e
		wait = max(wait, d)
	}
	return wait, nil
}

func (t *InMemorySignInThrottle) Reset(_ context.Context, email, ip string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, key := range throttleKeys(email, ip) {
		delete(t.entries, key)
	}
	return nil
}

func throttleKeys(email, ip string) [2]string {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		email = "anonymous"
	}
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = "unknown"
	}
	return [2]string{"email:" + email, "ip:" + ip}
}

package loadgen

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	botUserAgent = "python-requests/2.31"
	bypassHeader = "X-Protection-Bypass"
)

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
	// BypassToken is sent with bot-profile requests when set.
	BypassToken string
}

type Result struct {
	TotalRequests int64
	Failures      int64
	Status2xx     int64
	Status3xx     int64
	Status4xx     int64
	Status5xx     int64
}

type target struct {
	method    string
	path      string
	form      url.Values
	userAgent string
}

func (t target) request(ctx context.Context, baseURL, bypass string) (*http.Request, error) {
	body := strings.NewReader("")
	if t.form != nil {
		body = strings.NewReader(t.form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, t.method, baseURL+t.path, body)
	if err != nil {
		return nil, err
	}
	if t.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
		if bypass != "" {
			req.Header.Set(bypassHeader, bypass)
		}
	}
	return req, nil
}

// Run sends the profile's requests at cfg.RPS until cfg.Duration elapses.
// Redirects are counted, not followed.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	targets := targetsForProfile(cfg.Profile)
	if len(targets) == 0 {
		return Result{}, fmt.Errorf("unknown profile: %s", cfg.Profile)
	}

	client := &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var total, failures, s2xx, s3xx, s4xx, s5xx atomic.Int64
	jobs := make(chan target, cfg.Concurrency*2)
	g := new(errgroup.Group)
	for i := 0; i < cfg.Concurrency; i++ {
		g.Go(func() error {
			for t := range jobs {
				req, err := t.request(ctx, cfg.BaseURL, cfg.BypassToken)
				if err != nil {
					failures.Add(1)
					continue
				}
				resp, err := client.Do(req)
				if err != nil {
					failures.Add(1)
					continue
				}
				_ = resp.Body.Close()
				total.Add(1)
				switch {
				case resp.StatusCode >= 500:
					s5xx.Add(1)
				case resp.StatusCode >= 400:
					s4xx.Add(1)
				case resp.StatusCode >= 300:
					s3xx.Add(1)
				case resp.StatusCode >= 200:
					s2xx.Add(1)
				}
			}
			return nil
		})
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			select {
			case jobs <- targets[rng.Intn(len(targets))]:
			case <-ctx.Done():
				break loop
			}
		}
	}
	close(jobs)
	_ = g.Wait()
	return Result{
		TotalRequests: total.Load(),
		Failures:      failures.Load(),
		Status2xx:     s2xx.Load(),
		Status3xx:     s3xx.Load(),
		Status4xx:     s4xx.Load(),
		Status5xx:     s5xx.Load(),
	}, nil
}

func targetsForProfile(profile string) []target {
	pages := []target{
		{method: http.MethodGet, path: "/"},
		{method: http.MethodGet, path: "/sign-in"},
		{method: http.MethodGet, path: "/zh/sign-in"},
		{method: http.MethodGet, path: "/dashboard"},
	}
	authFlow := []target{
		{method: http.MethodPost, path: "/api/auth/sign-in/email", form: url.Values{"email": {"loadgen@example.com"}, "password": {"wrong-password"}}},
		{method: http.MethodGet, path: "/api/auth/session"},
		{method: http.MethodGet, path: "/api/auth/callback/github?state=bad&code=x"},
	}
	switch strings.ToLower(profile) {
	case "", "mixed":
		return append(append(append([]target{}, pages...), authFlow...),
			target{method: http.MethodGet, path: "/api/v1/rankings"},
			target{method: http.MethodGet, path: "/health/ready"},
		)
	case "pages":
		return pages
	case "auth":
		return authFlow
	case "bot":
		return []target{
			{method: http.MethodGet, path: "/", userAgent: botUserAgent},
			{method: http.MethodGet, path: "/sign-in", userAgent: botUserAgent},
		}
	case "error-heavy":
		return []target{
			{method: http.MethodGet, path: "/api/v1/me"},
			{method: http.MethodGet, path: "/de/sign-in"},
			{method: http.MethodGet, path: "/api/auth/callback/github?state=bad&code=x"},
		}
	default:
		return nil
	}
}

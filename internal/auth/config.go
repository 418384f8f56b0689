package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

const (
	AppName         = "LMRing"
	MinSecretLength = 32
)

type DeploymentMode string

const (
	ModeSaaS     DeploymentMode = "saas"
	ModeSelfHost DeploymentMode = "selfhost"
)

func ParseDeploymentMode(v string) (DeploymentMode, error) {
	switch m := DeploymentMode(strings.ToLower(strings.TrimSpace(v))); m {
	case ModeSaaS, ModeSelfHost:
		return m, nil
	default:
		return "", &ConfigError{Field: "DEPLOYMENT_MODE", Message: fmt.Sprintf("DEPLOYMENT_MODE must be one of saas,selfhost (got %q)", v)}
	}
}

type ProviderID string

const (
	ProviderGitHub ProviderID = "github"
	ProviderGoogle ProviderID = "google"
)

func ParseProviderID(v string) (ProviderID, bool) {
	switch p := ProviderID(strings.ToLower(strings.TrimSpace(v))); p {
	case ProviderGitHub, ProviderGoogle:
		return p, true
	default:
		return "", false
	}
}

type ProviderConfig struct {
	ID           ProviderID
	ClientID     string
	ClientSecret string
	// AccessType is only meaningful for Google, where "offline" yields a refresh token.
	AccessType string
}

type EmailPasswordConfig struct {
	Enabled           bool
	MinPasswordLength int
	MaxPasswordLength int
	AutoSignIn        bool
}

type SessionPolicy struct {
	ExpiresIn time.Duration
	UpdateAge time.Duration
	FreshAge  time.Duration
}

type AccountLinking struct {
	Enabled          bool
	TrustedProviders []ProviderID
}

// Config is the validated authentication setup. Only Builder.Build produces one.
type Config struct {
	AppName        string
	Mode           DeploymentMode
	BaseURL        string
	Secret         string
	EmailPassword  EmailPasswordConfig
	Session        SessionPolicy
	AccountLinking AccountLinking
	OAuthProviders map[ProviderID]ProviderConfig
}

func (c *Config) Provider(id ProviderID) (ProviderConfig, bool) {
	p, ok := c.OAuthProviders[id]
	return p, ok
}

func (c *Config) HasProvider(id ProviderID) bool {
	_, ok := c.OAuthProviders[id]
	return ok
}

func (c *Config) ProviderIDs() []ProviderID {
	out := make([]ProviderID, 0, len(c.OAuthProviders))
	for id := range c.OAuthProviders {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c *Config) IsTrustedProvider(id ProviderID) bool {
	if !c.AccountLinking.Enabled {
		return false
	}
	for _, p := range c.AccountLinking.TrustedProviders {
		if p == id {
			return true
		}
	}
	return false
}

var ErrConfiguration = errors.New("auth configuration error")

type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

type credentials struct {
	id     string
	secret string
}

type Builder struct {
	logger  *slog.Logger
	mode    DeploymentMode
	baseURL string
	secret  string
	github  credentials
	google  credentials
}

func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger, mode: ModeSelfHost}
}

func (b *Builder) WithMode(mode DeploymentMode) *Builder {
	b.mode = mode
	return b
}

func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return b
}

func (b *Builder) WithSecret(secret string) *Builder {
	b.secret = secret
	return b
}

func (b *Builder) WithGitHub(clientID, clientSecret string) *Builder {
	b.github = credentials{id: strings.TrimSpace(clientID), secret: strings.TrimSpace(clientSecret)}
	return b
}

func (b *Builder) WithGoogle(clientID, clientSecret string) *Builder {
	b.google = credentials{id: strings.TrimSpace(clientID), secret: strings.TrimSpace(clientSecret)}
	return b
}

// Build validates the secret before anything else and returns a ConfigError
// when it is missing or too short. Providers are only evaluated afterwards.
func (b *Builder) Build() (*Config, error) {
	if b.secret == "" {
		b.logger.Error("auth configuration error: missing AUTH_SECRET")
		return nil, &ConfigError{Field: "AUTH_SECRET", Message: "AUTH_SECRET is required"}
	}
	if len(b.secret) < MinSecretLength {
		b.logger.Error("auth configuration error: AUTH_SECRET too short", "length", len(b.secret), "min_length", MinSecretLength)
		return nil, &ConfigError{Field: "AUTH_SECRET", Message: fmt.Sprintf("AUTH_SECRET must be at least %d characters long", MinSecretLength)}
	}
	if b.mode != ModeSaaS && b.mode != ModeSelfHost {
		return nil, &ConfigError{Field: "DEPLOYMENT_MODE", Message: fmt.Sprintf("unsupported deployment mode %q", b.mode)}
	}

	cfg := &Config{
		AppName: AppName,
		Mode:    b.mode,
		BaseURL: b.baseURL,
		Secret:  b.secret,
		EmailPassword: EmailPasswordConfig{
			Enabled:           true,
			MinPasswordLength: 8,
			MaxPasswordLength: 128,
			AutoSignIn:        true,
		},
		Session: SessionPolicy{
			ExpiresIn: 7 * 24 * time.Hour,
			UpdateAge: 24 * time.Hour,
			FreshAge:  10 * time.Minute,
		},
		AccountLinking: AccountLinking{
			Enabled:          true,
			TrustedProviders: []ProviderID{ProviderGitHub, ProviderGoogle},
		},
		OAuthProviders: map[ProviderID]ProviderConfig{},
	}
	b.logger.Info("auth configuration loaded", "deployment_mode", cfg.Mode, "base_url", cfg.BaseURL, "app_name", cfg.AppName)

	switch cfg.Mode {
	case ModeSaaS:
		b.logger.Info("saas mode enabled, configuring oauth providers")
		b.addProvider(cfg, ProviderGitHub, b.github, "")
		b.addProvider(cfg, ProviderGoogle, b.google, "offline")
		if len(cfg.OAuthProviders) == 0 {
			b.logger.Warn("no oauth providers configured in saas mode", "note", "users can only sign in with email and password")
		} else {
			b.logger.Info("oauth providers configured", "providers", cfg.ProviderIDs())
		}
	case ModeSelfHost:
		b.logger.Info("self-hosted mode enabled, oauth providers disabled")
	}
	return cfg, nil
}

func (b *Builder) addProvider(cfg *Config, id ProviderID, c credentials, accessType string) {
	if c.id != "" && c.secret != "" {
		cfg.OAuthProviders[id] = ProviderConfig{ID: id, ClientID: c.id, ClientSecret: c.secret, AccessType: accessType}
		b.logger.Info("oauth provider enabled", "provider", id)
		return
	}
	missing := make([]string, 0, 2)
	prefix := strings.ToUpper(string(id))
	if c.id == "" {
		missing = append(missing, prefix+"_CLIENT_ID")
	}
	if c.secret == "" {
		missing = append(missing, prefix+"_CLIENT_SECRET")
	}
	b.logger.Warn("oauth credentials not configured, login unavailable", "provider", id, "missing_fields", missing)
}

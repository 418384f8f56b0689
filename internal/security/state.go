package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidState = errors.New("invalid oauth state")
	ErrStateExpired = errors.New("oauth state expired")
)

// OAuthState is the signed payload round-tripped through the provider.
type OAuthState struct {
	Provider    string `json:"p"`
	Nonce       string `json:"n"`
	CallbackURL string `json:"cb,omitempty"`
	ExpiresAt   int64  `json:"exp"`
}

// StateSigner issues and verifies HMAC-SHA256 signed OAuth state values of the
// form base64url(payload) "." base64url(mac).
type StateSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewStateSigner(secret string, ttl time.Duration) *StateSigner {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("oauth-state"))
	return &StateSigner{key: mac.Sum(nil), ttl: ttl, now: time.Now}
}

func (s *StateSigner) Issue(provider, callbackURL string) (string, error) {
	nonce, err := NewOpaqueToken(16)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(OAuthState{
		Provider:    provider,
		Nonce:       nonce,
		CallbackURL: callbackURL,
		ExpiresAt:   s.now().Add(s.ttl).Unix(),
	})
	if err != nil {
		return "", err
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + base64.RawURLEncoding.EncodeToString(s.sign(body)), nil
}

func (s *StateSigner) Verify(value, provider string) (*OAuthState, error) {
	body, sig, ok := strings.Cut(value, ".")
	if !ok || body == "" || sig == "" {
		return nil, ErrInvalidState
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(got, s.sign(body)) {
		return nil, ErrInvalidState
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, ErrInvalidState
	}
	var st OAuthState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, ErrInvalidState
	}
	if st.Provider != provider {
		return nil, ErrInvalidState
	}
	if s.now().Unix() >= st.ExpiresAt {
		return nil, ErrStateExpired
	}
	return &st, nil
}

func (s *StateSigner) sign(body string) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(body))
	return mac.Sum(nil)
}

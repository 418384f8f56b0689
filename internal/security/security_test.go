package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

const testKey = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

func TestSessionTokenSignerRoundTrip(t *testing.T) {
	signer := NewSessionTokenSigner("abcdefghijklmnopqrstuvwxyz123456")
	sid, uid := uuid.New(), uuid.New()

	value, err := signer.Sign(sid, uid, "raw-token", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	gotID, gotToken, err := signer.Parse(value)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if gotID != sid || gotToken != "raw-token" {
		t.Fatalf("unexpected claims sid=%s tok=%s", gotID, gotToken)
	}

	other := NewSessionTokenSigner("zyxwvutsrqponmlkjihgfedcba654321")
	if _, _, err := other.Parse(value); !errors.Is(err, ErrInvalidSessionToken) {
		t.Fatalf("expected ErrInvalidSessionToken for foreign signature, got %v", err)
	}

	expired, _ := signer.Sign(sid, uid, "raw-token", time.Now().Add(-time.Minute))
	if _, _, err := signer.Parse(expired); !errors.Is(err, ErrInvalidSessionToken) {
		t.Fatalf("expected ErrInvalidSessionToken for expired token, got %v", err)
	}
	if _, _, err := signer.Parse("not-a-jwt"); !errors.Is(err, ErrInvalidSessionToken) {
		t.Fatalf("expected ErrInvalidSessionToken for garbage, got %v", err)
	}
}

func TestHashTokenIsStable(t *testing.T) {
	tok, err := NewOpaqueToken(32)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if len(tok) != 43 {
		t.Fatalf("expected 43 base64url chars, got %d", len(tok))
	}
	if !TokenHashEqual(HashToken(tok), HashToken(tok)) {
		t.Fatal("hash must be deterministic")
	}
	if TokenHashEqual(HashToken(tok), HashToken(tok+"x")) {
		t.Fatal("different tokens must not collide")
	}
}

func TestStateSigner(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewStateSigner("abcdefghijklmnopqrstuvwxyz123456", 10*time.Minute)
	s.now = func() time.Time { return now }

	state, err := s.Issue("github", "/dashboard")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := s.Verify(state, "github")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.CallbackURL != "/dashboard" || got.Nonce == "" {
		t.Fatalf("unexpected payload %+v", got)
	}

	if _, err := s.Verify(state, "google"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("provider mismatch should fail, got %v", err)
	}
	body, sig, _ := strings.Cut(state, ".")
	if _, err := s.Verify(body+"x."+sig, "github"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("tampered body should fail, got %v", err)
	}
	if _, err := s.Verify("garbage", "github"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("garbage should fail, got %v", err)
	}

	now = now.Add(11 * time.Minute)
	if _, err := s.Verify(state, "github"); !errors.Is(err, ErrStateExpired) {
		t.Fatalf("expected ErrStateExpired, got %v", err)
	}
}

func TestEncryptorRoundTripAndFormat(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	if err != nil {
		t.Fatalf("new encryptor: %v", err)
	}
	sealed, err := enc.Encrypt("sk-live-123456")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	parts := strings.Split(sealed, ":")
	if len(parts) != 3 || len(parts[0]) != 32 || len(parts[1]) != 32 {
		t.Fatalf("unexpected layout %q", sealed)
	}
	plain, err := enc.Decrypt(sealed)
	if err != nil || plain != "sk-live-123456" {
		t.Fatalf("decrypt = %q, %v", plain, err)
	}

	again, _ := enc.Encrypt("sk-live-123456")
	if again == sealed {
		t.Fatal("iv must be random per encryption")
	}

	if _, err := enc.Decrypt("abc"); !errors.Is(err, ErrInvalidEncryptedPayload) {
		t.Fatalf("expected ErrInvalidEncryptedPayload, got %v", err)
	}
	tampered := parts[0] + ":" + parts[1] + ":" + strings.Repeat("0", len(parts[2]))
	if _, err := enc.Decrypt(tampered); err == nil {
		t.Fatal("tampered ciphertext must fail authentication")
	}
	if _, err := NewEncryptor("short"); !errors.Is(err, ErrInvalidEncryptionKey) {
		t.Fatalf("expected ErrInvalidEncryptionKey, got %v", err)
	}
}

func TestMaskSecret(t *testing.T) {
	cases := map[string]string{
		"":                               "",
		"abc":                            "***",
		"sk-1234567890":                  "*********7890",
		strings.Repeat("a", 40) + "wxyz": strings.Repeat("*", 12) + "wxyz",
	}
	for in, want := range cases {
		if got := MaskSecret(in); got != want {
			t.Fatalf("MaskSecret(%q)=%q want %q", in, got, want)
		}
	}
}

func TestBotDetector(t *testing.T) {
	d := DefaultBotDetector()
	cases := []struct {
		ua       string
		category BotCategory
		allowed  bool
	}{
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/605.1.15 Safari/605.1.15", BotCategoryNone, true},
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", BotCategorySearchEngine, true},
		{"facebookexternalhit/1.1", BotCategoryPreview, true},
		{"Mozilla/5.0+(compatible; UptimeRobot/2.0)", BotCategoryMonitor, true},
		{"curl/8.4.0", BotCategoryAutomated, false},
		{"python-requests/2.31", BotCategoryAutomated, false},
		{"", BotCategoryAutomated, false},
		{"Mozilla/5.0 (compatible; AhrefsBot/7.0; +http://ahrefs.com/robot/)", BotCategoryAutomated, false},
		// Handset model names that merely contain "bot" are browsers.
		{"Mozilla/5.0 (Linux; Android 10; CUBOT_X30) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36", BotCategoryNone, true},
		{"Mozilla/5.0 (Linux; Android 9; CUBOT KINGKONG 5 Pro) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Mobile Safari/537.36", BotCategoryNone, true},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1", BotCategoryNone, true},
	}
	for _, tc := range cases {
		got := d.Classify(tc.ua)
		if got != tc.category {
			t.Fatalf("Classify(%q)=%s want %s", tc.ua, got, tc.category)
		}
		if d.Allowed(got) != tc.allowed {
			t.Fatalf("Allowed(%s)=%v want %v", got, !tc.allowed, tc.allowed)
		}
	}
}

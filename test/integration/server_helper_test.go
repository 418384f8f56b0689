package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lmring/lmring/internal/app"
	"github.com/lmring/lmring/internal/di"
	"github.com/lmring/lmring/internal/security"
)

const (
	testAuthSecret    = "integration-secret-0123456789abcdef"
	testEncryptionKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	t      *testing.T
	URL    string
	App    *app.App
	client *http.Client
}

// newTestServer boots the full dependency graph against a file-backed SQLite
// database. env overrides the defaults below.
func newTestServer(t *testing.T, env map[string]string) *testServer {
	t.Helper()
	defaults := map[string]string{
		"ENV_FILE":                  filepath.Join(t.TempDir(), "missing.env"),
		"APP_ENV":                   "test",
		"DATABASE_URL":              "sqlite://" + filepath.Join(t.TempDir(), "lmring.db"),
		"DEPLOYMENT_MODE":           "selfhost",
		"AUTH_SECRET":               testAuthSecret,
		"ENCRYPTION_KEY":            testEncryptionKey,
		"LOCALES":                   "en,zh,fr",
		"DEFAULT_LOCALE":            "en",
		"OTEL_METRICS_ENABLED":      "false",
		"OTEL_TRACING_ENABLED":      "false",
		"OTEL_LOGS_ENABLED":         "false",
		"AUTH_RATE_LIMIT_PER_MIN":   "100",
		"API_RATE_LIMIT_PER_MIN":    "500",
		"BOT_PROTECTION_KEY":        "",
		"BOOTSTRAP_ADMIN_EMAIL":     "",
		"SERVER_START_GRACE_PERIOD": "0s",
	}
	for k, v := range env {
		defaults[k] = v
	}
	for k, v := range defaults {
		t.Setenv(k, v)
	}

	a, cleanup, err := di.InitializeApp()
	if err != nil {
		t.Fatalf("initialize app: %v", err)
	}
	srv := httptest.NewServer(a.Server.Handler)
	t.Cleanup(func() {
		srv.Close()
		a.Shutdown()
		cleanup()
	})
	return &testServer{t: t, URL: srv.URL, App: a, client: newClient(t)}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// withClient returns a view of the server with its own cookie jar, which is
// how a second browser looks to the API.
func (s *testServer) withClient() *testServer {
	cp := *s
	cp.client = newClient(s.t)
	return &cp
}

func (s *testServer) cookie(name string) string {
	u, _ := url.Parse(s.URL)
	for _, c := range s.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (s *testServer) do(method, path string, body any, headers map[string]string) (*http.Response, apiEnvelope, string) {
	s.t.Helper()
	var reader io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case url.Values:
		reader = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
		contentType = "application/json"
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		s.t.Fatalf("new request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if method != http.MethodGet {
		if csrf := s.cookie(security.CSRFCookieName); csrf != "" {
			req.Header.Set("X-CSRF-Token", csrf)
		}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var env apiEnvelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(raw, &env)
	}
	return resp, env, string(raw)
}

func (s *testServer) signUp(name, email, password string) {
	s.t.Helper()
	resp, env, raw := s.do(http.MethodPost, "/api/auth/sign-up/email", map[string]string{"name": name, "email": email, "password": password}, nil)
	if resp.StatusCode != http.StatusCreated || !env.Success {
		s.t.Fatalf("sign up %s: status=%d body=%s", email, resp.StatusCode, raw)
	}
}

func (s *testServer) signIn(email, password string) (*http.Response, apiEnvelope) {
	s.t.Helper()
	resp, env, _ := s.do(http.MethodPost, "/api/auth/sign-in/email", map[string]string{"email": email, "password": password}, nil)
	return resp, env
}

func decodeData[T any](t *testing.T, env apiEnvelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return v
}

package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/repository"
	"github.com/lmring/lmring/internal/service"
)

type stubPrefsSvc struct {
	got service.PreferencesUpdate
	err error
}

func (s *stubPrefsSvc) Get(_ context.Context, userID uuid.UUID) (*domain.UserPreferences, error) {
	p := domain.DefaultPreferences(userID)
	return &p, nil
}

func (s *stubPrefsSvc) Update(_ context.Context, userID uuid.UUID, in service.PreferencesUpdate) (*domain.UserPreferences, error) {
	s.got = in
	if s.err != nil {
		return nil, s.err
	}
	p := domain.DefaultPreferences(userID)
	if in.Theme != nil {
		p.Theme = *in.Theme
	}
	return &p, nil
}

func TestUserHandlerMe(t *testing.T) {
	u := testUser(domain.RoleUser)
	h := NewUserHandler(&stubUserSvc{users: map[uuid.UUID]*domain.User{u.ID: u}}, &stubPrefsSvc{}, 0)

	rr := httptest.NewRecorder()
	h.Me(rr, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Me(rr, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), u))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), u.Email) {
		t.Fatalf("expected profile, got %d %s", rr.Code, rr.Body.String())
	}

	gone := testUser(domain.RoleUser)
	rr = httptest.NewRecorder()
	h.Me(rr, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), gone))
	if rr.Code != http.StatusNotFound || errCode(t, rr) != "NOT_FOUND" {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestUserHandlerUpdateMeErrorMapping(t *testing.T) {
	u := testUser(domain.RoleUser)
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrInvalidUsername, http.StatusBadRequest, "VALIDATION_ERROR"},
		{repository.ErrUsernameTaken, http.StatusConflict, "USERNAME_TAKEN"},
	}
	for _, tc := range cases {
		h := NewUserHandler(&stubUserSvc{updateFn: func(uuid.UUID, service.ProfileUpdate) (*domain.User, error) { return nil, tc.err }}, &stubPrefsSvc{}, 0)
		req := withUser(httptest.NewRequest(http.MethodPatch, "/api/v1/me", strings.NewReader(`{"username":"x"}`)), u)
		rr := httptest.NewRecorder()
		h.UpdateMe(rr, req)
		if rr.Code != tc.status || errCode(t, rr) != tc.code {
			t.Fatalf("expected %d %s, got %d", tc.status, tc.code, rr.Code)
		}
	}

	h := NewUserHandler(&stubUserSvc{}, &stubPrefsSvc{}, 0)
	req := withUser(httptest.NewRequest(http.MethodPatch, "/api/v1/me", strings.NewReader(`{"nickname":"x"}`)), u)
	rr := httptest.NewRecorder()
	h.UpdateMe(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown fields must be rejected, got %d", rr.Code)
	}
}

func avatarRequest(t *testing.T, field string, payload []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "me.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write(payload)
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/me/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUserHandlerUploadAvatar(t *testing.T) {
	u := testUser(domain.RoleUser)
	var got []byte
	svc := &stubUserSvc{avatarFn: func(id uuid.UUID, body []byte) (*domain.User, error) {
		got = body
		return &domain.User{ID: id, AvatarURL: "https://cdn.example.com/avatars/x.png"}, nil
	}}
	h := NewUserHandler(svc, &stubPrefsSvc{}, 1024)

	rr := httptest.NewRecorder()
	h.UploadAvatar(rr, withUser(avatarRequest(t, avatarFormField, []byte("\x89PNG")), u))
	if rr.Code != http.StatusOK || string(got) != "\x89PNG" {
		t.Fatalf("expected upload to reach service, got %d body=%q", rr.Code, got)
	}

	rr = httptest.NewRecorder()
	h.UploadAvatar(rr, withUser(avatarRequest(t, "file", []byte("x")), u))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong field, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.UploadAvatar(rr, withUser(avatarRequest(t, avatarFormField, bytes.Repeat([]byte("a"), 10<<10)), u))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversized avatar, got %d", rr.Code)
	}
}

func TestUserHandlerDeleteAvatar(t *testing.T) {
	u := testUser(domain.RoleUser)
	svc := &stubUserSvc{}
	h := NewUserHandler(svc, &stubPrefsSvc{}, 0)
	rr := httptest.NewRecorder()
	h.DeleteAvatar(rr, withUser(httptest.NewRequest(http.MethodDelete, "/api/v1/me/avatar", nil), u))
	if rr.Code != http.StatusOK || svc.removedID != u.ID {
		t.Fatalf("expected avatar removal for caller, got %d", rr.Code)
	}
}

func TestUserHandlerPreferences(t *testing.T) {
	u := testUser(domain.RoleUser)
	prefs := &stubPrefsSvc{}
	h := NewUserHandler(&stubUserSvc{}, prefs, 0)

	rr := httptest.NewRecorder()
	h.GetPreferences(rr, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/me/preferences", nil), u))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"theme":"system"`) {
		t.Fatalf("expected default preferences, got %d %s", rr.Code, rr.Body.String())
	}

	body := `{"theme":"dark","default_models":["gpt-4o","claude-3-5-sonnet"]}`
	rr = httptest.NewRecorder()
	h.PutPreferences(rr, withUser(httptest.NewRequest(http.MethodPut, "/api/v1/me/preferences", strings.NewReader(body)), u))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if prefs.got.Theme == nil || *prefs.got.Theme != "dark" || len(prefs.got.DefaultModels) != 2 || prefs.got.Language != nil {
		t.Fatalf("unexpected update forwarded: %+v", prefs.got)
	}

	prefs.err = service.ErrInvalidTheme
	rr = httptest.NewRecorder()
	h.PutPreferences(rr, withUser(httptest.NewRequest(http.MethodPut, "/api/v1/me/preferences", strings.NewReader(`{"theme":"neon"}`)), u))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/lmring/lmring/internal/security"
	"github.com/lmring/lmring/internal/service"
)

var pngFixture = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 256)...)

func (s *testServer) uploadAvatar(filename string, content []byte) (*http.Response, apiEnvelope) {
	s.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("avatar", filename)
	if err != nil {
		s.t.Fatalf("form file: %v", err)
	}
	_, _ = part.Write(content)
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPost, s.URL+"/api/v1/me/avatar", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-CSRF-Token", s.cookie(security.CSRFCookieName))
	resp, err := s.client.Do(req)
	if err != nil {
		s.t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var env apiEnvelope
	_ = json.Unmarshal(raw, &env)
	return resp, env
}

func TestAvatarUploadReplaceAndDelete(t *testing.T) {
	minioEnv := newMinIOEnv(t)
	s := newTestServer(t, minioEnv.serverEnv())
	s.signUp("Ada", "avatar@example.com", "correct horse battery")

	resp, env := s.uploadAvatar("me.png", pngFixture)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload: status=%d err=%+v", resp.StatusCode, env.Error)
	}
	first := decodeData[struct {
		ID        string `json:"id"`
		AvatarURL string `json:"avatar_url"`
	}](t, env)
	if !strings.HasPrefix(first.AvatarURL, "http://cdn.example.test/"+minioEnv.bucket+"/avatars/"+first.ID+"/") {
		t.Fatalf("unexpected avatar url %q", first.AvatarURL)
	}
	firstKey := service.AvatarKeyFromURL(first.AvatarURL)
	info := minioEnv.statObject(t, firstKey)
	if info.ContentType != "image/png" {
		t.Fatalf("expected sniffed png content type, got %q", info.ContentType)
	}

	// Replacing removes the previous object.
	resp, env = s.uploadAvatar("again.png", pngFixture)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("replace: status=%d", resp.StatusCode)
	}
	if minioEnv.objectExists(t, firstKey) {
		t.Fatal("expected previous avatar to be deleted")
	}
	second := decodeData[struct {
		AvatarURL string `json:"avatar_url"`
	}](t, env)
	secondKey := service.AvatarKeyFromURL(second.AvatarURL)

	resp, env = s.uploadAvatar("notes.txt", []byte("plain text is not an image"))
	if resp.StatusCode < 400 || env.Error == nil {
		t.Fatalf("expected text upload to be rejected, got %d", resp.StatusCode)
	}

	resp, _, raw := s.do(http.MethodDelete, "/api/v1/me/avatar", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete avatar: %d %s", resp.StatusCode, raw)
	}
	if minioEnv.objectExists(t, secondKey) {
		t.Fatal("expected avatar object to be removed")
	}
}

package handler

import (
	"errors"
	"net/http"

	"github.com/lmring/lmring/internal/http/response"
	"github.com/lmring/lmring/internal/observability"
	"github.com/lmring/lmring/internal/service"
)

const (
	avatarFormField       = "avatar"
	DefaultAvatarMaxBytes = 2 << 20
)

type UserHandler struct {
	userSvc        service.UserServiceInterface
	prefsSvc       service.PreferencesServiceInterface
	avatarMaxBytes int64
}

func NewUserHandler(userSvc service.UserServiceInterface, prefsSvc service.PreferencesServiceInterface, avatarMaxBytes int64) *UserHandler {
	if avatarMaxBytes <= 0 {
		avatarMaxBytes = DefaultAvatarMaxBytes
	}
	return &UserHandler{userSvc: userSvc, prefsSvc: prefsSvc, avatarMaxBytes: avatarMaxBytes}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	fresh, err := h.userSvc.GetByID(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, fresh)
}

type profileRequest struct {
	FullName *string `json:"full_name"`
	Username *string `json:"username"`
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body profileRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.userSvc.UpdateProfile(r.Context(), u.ID, service.ProfileUpdate{FullName: body.FullName, Username: body.Username})
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, updated)
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	// Room for the multipart envelope around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.avatarMaxBytes+64<<10)
	if err := r.ParseMultipartForm(h.avatarMaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, service.ErrAvatarTooLarge)
			return
		}
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "expected multipart form with an avatar file", nil)
		return
	}
	file, header, err := r.FormFile(avatarFormField)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing avatar file", nil)
		return
	}
	defer file.Close()
	if header.Size > h.avatarMaxBytes {
		writeError(w, r, service.ErrAvatarTooLarge)
		return
	}
	updated, err := h.userSvc.ReplaceAvatar(r.Context(), u.ID, file, header.Size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, observability.AuditInput{EventName: "user.avatar", ActorUserID: u.ID.String(), TargetType: "user", TargetID: u.ID.String(), Action: "upload", Outcome: "success"})
	response.JSON(w, r, http.StatusOK, updated)
}

func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	updated, err := h.userSvc.RemoveAvatar(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, updated)
}

func (h *UserHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	prefs, err := h.prefsSvc.Get(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, prefs)
}

type preferencesRequest struct {
	Theme         *string  `json:"theme"`
	Language      *string  `json:"language"`
	DefaultModels []string `json:"default_models"`
	ConfigSource  *string  `json:"config_source"`
}

func (h *UserHandler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body preferencesRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	prefs, err := h.prefsSvc.Update(r.Context(), u.ID, service.PreferencesUpdate{
		Theme:         body.Theme,
		Language:      body.Language,
		DefaultModels: body.DefaultModels,
		ConfigSource:  body.ConfigSource,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, prefs)
}

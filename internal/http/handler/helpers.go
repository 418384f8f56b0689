package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lmring/lmring/internal/auth"
	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/http/middleware"
	"github.com/lmring/lmring/internal/http/response"
	"github.com/lmring/lmring/internal/repository"
	"github.com/lmring/lmring/internal/service"
)

const maxJSONBody = 1 << 20

var errInvalidPayload = errors.New("invalid payload")

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidPayload, err)
	}
	return nil
}

// writeError maps service, repository and auth errors onto the envelope.
// Anything unrecognised is a 500 with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ae, ok := auth.AsError(err); ok {
		response.Error(w, r, ae.Status, string(ae.Code), ae.Message, nil)
		return
	}
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, errInvalidPayload):
		status, code = http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrConversationNotFound),
		errors.Is(err, repository.ErrMessageNotFound),
		errors.Is(err, repository.ErrModelResponseNotFound),
		errors.Is(err, repository.ErrAPIKeyNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, service.ErrVoteExists):
		status, code = http.StatusConflict, "VOTE_EXISTS"
	case errors.Is(err, repository.ErrUsernameTaken):
		status, code = http.StatusConflict, "USERNAME_TAKEN"
	case errors.Is(err, service.ErrSelfModify), errors.Is(err, service.ErrLastAdmin):
		status, code = http.StatusConflict, "CONFLICT"
	case errors.Is(err, service.ErrAvatarTooLarge):
		status, code = http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"
	case errors.Is(err, service.ErrAvatarStorageOff):
		status, code = http.StatusServiceUnavailable, "STORAGE_DISABLED"
	case errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidVoteType),
		errors.Is(err, domain.ErrInvalidMessageRole),
		errors.Is(err, domain.ErrInvalidConfigSource),
		errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrInvalidFullName),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrMessageTooLong),
		errors.Is(err, service.ErrInvalidResponse),
		errors.Is(err, service.ErrInvalidProviderName),
		errors.Is(err, service.ErrEmptyAPIKey),
		errors.Is(err, service.ErrInvalidTheme),
		errors.Is(err, service.ErrInvalidLanguage),
		errors.Is(err, service.ErrTooManyModels),
		errors.Is(err, service.ErrAvatarType):
		status, code = http.StatusBadRequest, "VALIDATION_ERROR"
	}
	message := "internal error"
	if status != http.StatusInternalServerError {
		message = err.Error()
	}
	response.Error(w, r, status, code, message, nil)
}

func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return nil, false
	}
	return u, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}

func parsePageRequest(r *http.Request) (repository.PageRequest, error) {
	page := repository.DefaultPage
	pageSize := repository.DefaultPageSize
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errors.New("page must be a positive integer")
		}
		page = v
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("page_size")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errors.New("page_size must be a positive integer")
		}
		if v > repository.MaxPageSize {
			return repository.PageRequest{}, fmt.Errorf("page_size must be <= %d", repository.MaxPageSize)
		}
		pageSize = v
	}
	return repository.PageRequest{Page: page, PageSize: pageSize}, nil
}

func paginatedData[T any](p repository.PageResult[T]) map[string]any {
	return map[string]any{
		"items": p.Items,
		"pagination": map[string]any{
			"page":        p.Page,
			"page_size":   p.PageSize,
			"total":       p.Total,
			"total_pages": p.TotalPages,
		},
	}
}

func requestMeta(r *http.Request) service.RequestMeta {
	return service.RequestMeta{IP: clientIP(r), UserAgent: r.UserAgent()}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

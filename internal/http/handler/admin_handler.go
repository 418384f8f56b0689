package handler

import (
	"net/http"
	"strings"

	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/http/response"
	"github.com/lmring/lmring/internal/observability"
	"github.com/lmring/lmring/internal/repository"
	"github.com/lmring/lmring/internal/service"
)

// AdminHandler is mounted behind RequireRole(domain.RoleAdmin).
type AdminHandler struct {
	userSvc service.UserServiceInterface
}

func NewAdminHandler(userSvc service.UserServiceInterface) *AdminHandler {
	return &AdminHandler{userSvc: userSvc}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	pageReq, err := parsePageRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	filter := repository.UserListFilter{Email: strings.TrimSpace(r.URL.Query().Get("email"))}
	if raw := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))); raw != "" {
		st, err := domain.ParseUserStatus(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter.Status = st
	}
	if raw := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("role"))); raw != "" {
		role, err := domain.ParseRole(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter.Role = role
	}
	page, err := h.userSvc.ListPaged(r.Context(), pageReq, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, paginatedData(page))
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	targetID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body setStatusRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	audit := observability.AuditInput{
		EventName:   "admin.user.status",
		ActorUserID: actor.ID.String(),
		TargetType:  "user",
		TargetID:    targetID.String(),
		Action:      "set_status:" + body.Status,
	}
	status, err := domain.ParseUserStatus(strings.ToLower(strings.TrimSpace(body.Status)))
	if err == nil {
		var u *domain.User
		if u, err = h.userSvc.SetStatus(r.Context(), actor.ID, targetID, status); err == nil {
			audit.Outcome = "success"
			observability.Audit(r, audit)
			response.JSON(w, r, http.StatusOK, u)
			return
		}
	}
	audit.Outcome, audit.Reason = "failure", err.Error()
	observability.Audit(r, audit)
	writeError(w, r, err)
}

type setRoleRequest struct {
	Role string `json:"role"`
}

func (h *AdminHandler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	targetID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body setRoleRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	audit := observability.AuditInput{
		EventName:   "admin.user.role",
		ActorUserID: actor.ID.String(),
		TargetType:  "user",
		TargetID:    targetID.String(),
		Action:      "set_role:" + body.Role,
	}
	role, err := domain.ParseRole(strings.ToLower(strings.TrimSpace(body.Role)))
	if err == nil {
		var u *domain.User
		if u, err = h.userSvc.SetRole(r.Context(), actor.ID, targetID, role); err == nil {
			audit.Outcome = "success"
			observability.Audit(r, audit)
			response.JSON(w, r, http.StatusOK, u)
			return
		}
	}
	audit.Outcome, audit.Reason = "failure", err.Error()
	observability.Audit(r, audit)
	writeError(w, r, err)
}

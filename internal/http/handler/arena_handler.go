package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/http/response"
	"github.com/lmring/lmring/internal/service"
)

// ArenaHandler serves conversations, model responses, votes and rankings.
type ArenaHandler struct {
	conversations service.ConversationServiceInterface
	votes         service.VoteServiceInterface
}

func NewArenaHandler(conversations service.ConversationServiceInterface, votes service.VoteServiceInterface) *ArenaHandler {
	return &ArenaHandler{conversations: conversations, votes: votes}
}

func (h *ArenaHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	pageReq, err := parsePageRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	page, err := h.conversations.List(r.Context(), u.ID, pageReq)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, paginatedData(page))
}

type createConversationRequest struct {
	Title string `json:"title"`
}

func (h *ArenaHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body createConversationRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.conversations.Create(r.Context(), u.ID, body.Title)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, c)
}

// GetConversation returns the conversation tree together with the caller's
// votes on it.
func (h *ArenaHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.conversations.Get(r.Context(), u.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	messageIDs := make([]uuid.UUID, 0, len(c.Messages))
	for _, m := range c.Messages {
		messageIDs = append(messageIDs, m.ID)
	}
	votes, err := h.votes.ListForMessages(r.Context(), u.ID, messageIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if votes == nil {
		votes = []domain.UserVote{}
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"conversation": c, "votes": votes})
}

type addMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (h *ArenaHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body addMessageRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.Role == "" {
		body.Role = string(domain.MessageRoleUser)
	}
	m, err := h.conversations.AddMessage(r.Context(), u.ID, id, domain.MessageRole(body.Role), body.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, m)
}

type addResponseRequest struct {
	ModelName       string `json:"model_name"`
	ProviderName    string `json:"provider_name"`
	ResponseContent string `json:"response_content"`
	TokensUsed      *int   `json:"tokens_used"`
	ResponseTimeMS  *int   `json:"response_time_ms"`
}

func (h *ArenaHandler) AddResponse(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body addResponseRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := h.conversations.AddResponse(r.Context(), u.ID, id, domain.ModelResponse{
		ModelName:       body.ModelName,
		ProviderName:    body.ProviderName,
		ResponseContent: body.ResponseContent,
		TokensUsed:      body.TokensUsed,
		ResponseTimeMS:  body.ResponseTimeMS,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, resp)
}

type voteRequest struct {
	VoteType string `json:"vote_type"`
}

func (h *ArenaHandler) Vote(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body voteRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := h.votes.Cast(r.Context(), u.ID, id, domain.VoteType(body.VoteType))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, v)
}

func (h *ArenaHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "limit must be a positive integer", nil)
			return
		}
		limit = v
	}
	rows, err := h.votes.Rankings(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []domain.ModelRanking{}
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"items": rows})
}

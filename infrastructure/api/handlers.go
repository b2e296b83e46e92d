// Package api exposes registration, conversation discovery and history
// over HTTP, next to the WebSocket endpoint.
package api

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/services"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type registerRequest struct {
	Username string `json:"username" validate:"required"`
}

type conversationRequest struct {
	Participants []string `json:"participants" validate:"len=2,dive,required"`
}

type identityResponse struct {
	Username     string     `json:"username"`
	ConnectionID string     `json:"connectionId,omitempty"`
	Online       bool       `json:"online"`
	Admin        bool       `json:"admin"`
	LastSeen     *time.Time `json:"lastSeen,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type conversationResponse struct {
	ID           uuid.UUID `json:"id"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
}

type messageResponse struct {
	ID             uuid.UUID `json:"id"`
	Seq            uint64    `json:"seq"`
	ConversationID uuid.UUID `json:"conversationId"`
	Sender         string    `json:"sender"`
	Receiver       string    `json:"receiver"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

type historyResponse struct {
	Messages []messageResponse `json:"messages"`
	// NextAfter is the cursor for the following page; zero when the page is empty.
	NextAfter uint64 `json:"nextAfter"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	log      *slog.Logger
	service  services.IChatService
	validate *validator.Validate
}

// NewRouter returns the HTTP API with the WebSocket endpoint mounted on /ws.
func NewRouter(log *slog.Logger, service services.IChatService, wsHandler http.Handler) http.Handler {
	h := &handlers{log: log.With("component", "api"), service: service, validate: validator.New()}

	mux := http.NewServeMux()
	mux.Handle("GET /ws", wsHandler)
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("POST /users", h.register)
	mux.HandleFunc("GET /users/{username}", h.findIdentity)
	mux.HandleFunc("POST /conversations", h.resolveConversation)
	mux.HandleFunc("GET /conversations/{id}/messages", h.history)

	return Chain(mux, NewRecoverer(h.log), NewRequestLogger(h.log))
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if err := h.decode(r, &body); err != nil {
		h.fail(w, err)
		return
	}
	identity, created, err := h.service.Register(r.Context(), body.Username)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, lo.Ternary(created, http.StatusCreated, http.StatusOK), toIdentityResponse(identity))
}

func (h *handlers) findIdentity(w http.ResponseWriter, r *http.Request) {
	username, err := domain.NormalizeUsername(r.PathValue("username"))
	if err != nil {
		h.fail(w, err)
		return
	}
	identity, err := h.service.FindIdentity(r.Context(), username)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityResponse(identity))
}

func (h *handlers) resolveConversation(w http.ResponseWriter, r *http.Request) {
	var body conversationRequest
	if err := h.decode(r, &body); err != nil {
		h.fail(w, err)
		return
	}
	participants := make([]string, len(body.Participants))
	for i, p := range body.Participants {
		name, err := domain.NormalizeUsername(p)
		if err != nil {
			h.fail(w, err)
			return
		}
		participants[i] = name
	}
	conversation, err := h.service.ResolveConversation(r.Context(), participants[0], participants[1])
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toConversationResponse(conversation))
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.fail(w, fmt.Errorf("%w: conversation id", errors.ErrInvalidRequest))
		return
	}
	query := domain.HistoryQuery{ConversationID: id}
	if after := r.URL.Query().Get("after"); after != "" {
		if query.AfterSeq, err = strconv.ParseUint(after, 10, 64); err != nil {
			h.fail(w, fmt.Errorf("%w: after", errors.ErrInvalidRequest))
			return
		}
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if query.Limit, err = strconv.Atoi(limit); err != nil || query.Limit < 0 {
			h.fail(w, fmt.Errorf("%w: limit", errors.ErrInvalidRequest))
			return
		}
	}

	messages, err := h.service.History(r.Context(), query)
	if err != nil {
		h.fail(w, err)
		return
	}
	response := historyResponse{Messages: lo.Map(messages, func(m domain.Message, _ int) messageResponse {
		return toMessageResponse(m)
	})}
	if last, ok := lo.Last(messages); ok {
		response.NextAfter = last.Seq
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *handlers) decode(r *http.Request, body any) error {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	if err := h.validate.Struct(body); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	return nil
}

func (h *handlers) fail(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error("Request failed", "error", err)
		message = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func toIdentityResponse(i domain.Identity) identityResponse {
	response := identityResponse{
		Username:     i.Username,
		ConnectionID: i.ConnectionID,
		Online:       i.Online,
		Admin:        i.Admin,
		CreatedAt:    i.CreatedAt,
	}
	if !i.LastSeen.IsZero() {
		response.LastSeen = lo.ToPtr(i.LastSeen)
	}
	return response
}

func toConversationResponse(c domain.Conversation) conversationResponse {
	return conversationResponse{
		ID:           c.ID,
		Participants: []string{c.Participants[0], c.Participants[1]},
		CreatedAt:    c.CreatedAt,
	}
}

func toMessageResponse(m domain.Message) messageResponse {
	return messageResponse{
		ID:             m.ID,
		Seq:            m.Seq,
		ConversationID: m.ConversationID,
		Sender:         m.Sender,
		Receiver:       m.Receiver,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

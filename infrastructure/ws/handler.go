package ws

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/services"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

type Options struct {
	BufferSize       int
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	PingTimeout      time.Duration
	MaxContentLength int
	OriginPatterns   []string
}

type updateUserPayload struct {
	ConnectionID string `json:"connectionId" validate:"required"`
	Identity     string `json:"identity" validate:"required"`
}

type chatMessagePayload struct {
	Sender         string `json:"sender" validate:"required"`
	Receiver       string `json:"receiver" validate:"required,nefield=Sender"`
	Content        string `json:"content" validate:"required"`
	ConversationID string `json:"conversationId" validate:"required,uuid"`
}

type typingPayload struct {
	TypingUser     string `json:"typingUser" validate:"required"`
	ConversationID string `json:"conversationId" validate:"omitempty,uuid"`
}

// Handler upgrades HTTP requests to WebSocket connections and runs the
// event protocol on each of them. Inbound events of one connection are
// handled one after the other, in arrival order.
type Handler struct {
	ctx      context.Context
	log      *slog.Logger
	service  services.IChatService
	validate *validator.Validate
	opts     Options
	wg       sync.WaitGroup
}

// NewHandler ties every connection to ctx: canceling it closes them all.
func NewHandler(ctx context.Context, log *slog.Logger, service services.IChatService, opts Options) *Handler {
	return &Handler{
		ctx:      ctx,
		log:      log.With("component", "ws"),
		service:  service,
		validate: validator.New(),
		opts:     opts,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.opts.OriginPatterns})
	if err != nil {
		h.log.Warn("Failed to accept websocket connection", "remote_addr", r.RemoteAddr, "error", err)
		return
	}
	if h.opts.MaxContentLength > 0 {
		wsConn.SetReadLimit(int64(h.opts.MaxContentLength)*4 + 4096)
	}

	h.wg.Add(1)
	defer h.wg.Done()

	conn := newConnection(h.ctx, wsConn, h.opts.BufferSize, h.opts.WriteTimeout, h.log)
	conn.log.Info("Connection opened", "remote_addr", r.RemoteAddr)
	h.service.Connect(conn)
	go conn.writePump()
	go conn.keepalive(h.opts.PingInterval, h.opts.PingTimeout)

	if err := conn.Send(event.Connected{ConnectionID: conn.ID()}); err != nil {
		conn.log.Warn("Unable to send handshake", "error", err)
	}

	status, reason := h.readLoop(conn, wsConn)

	conn.Close(status, reason)
	if identity, ok := h.service.Disconnect(conn); ok {
		conn.log.Info("Connection closed", "identity", identity)
	} else {
		conn.log.Info("Connection closed")
	}
}

func (h *Handler) readLoop(conn *Connection, wsConn *websocket.Conn) (websocket.StatusCode, string) {
	for {
		typ, frame, err := wsConn.Read(conn.ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				return status, ""
			}
			if conn.ctx.Err() != nil {
				return websocket.StatusGoingAway, "server shutting down"
			}
			conn.log.Debug("Read failed", "error", err)
			return websocket.StatusInternalError, "read failed"
		}
		if typ != websocket.MessageText {
			conn.log.Debug("Binary frame ignored")
			continue
		}
		h.dispatch(conn, frame)
	}
}

// dispatch handles one inbound frame. Malformed or incomplete events are
// dropped silently; a panic is reported to the sender as a generic error.
func (h *Handler) dispatch(conn *Connection, frame []byte) {
	if !gjson.ValidBytes(frame) {
		conn.log.Debug("Malformed frame ignored")
		return
	}
	name := gjson.GetBytes(frame, "event").String()
	data := gjson.GetBytes(frame, "data")

	defer func() {
		if r := recover(); r != nil {
			conn.log.Error("Event handler panicked", "event", name, "panic", r)
			_ = conn.Send(event.ErrorSignal{Event: name, Message: "internal error"})
		}
	}()

	switch name {
	case event.NameUpdateUser:
		h.onUpdateUser(conn, data)
	case event.NameChatMessage:
		h.onChatMessage(conn, data)
	case event.NameTyping:
		h.onTyping(conn, data)
	default:
		conn.log.Debug("Unknown event ignored", "event", name)
	}
}

func (h *Handler) onUpdateUser(conn *Connection, data gjson.Result) {
	var payload updateUserPayload
	if !h.decode(conn, event.NameUpdateUser, data, &payload) {
		return
	}
	if payload.ConnectionID != conn.ID() {
		conn.log.Debug("updateUser ignored, connection id mismatch", "claimed", payload.ConnectionID)
		return
	}
	identity, err := domain.NormalizeUsername(payload.Identity)
	if err != nil {
		conn.log.Debug("updateUser ignored", "error", err)
		return
	}
	h.service.Bind(identity, conn)
}

func (h *Handler) onChatMessage(conn *Connection, data gjson.Result) {
	var payload chatMessagePayload
	if !h.decode(conn, event.NameChatMessage, data, &payload) {
		return
	}
	if h.opts.MaxContentLength > 0 {
		if err := h.validate.Var(payload.Content, fmt.Sprintf("max=%d", h.opts.MaxContentLength)); err != nil {
			conn.log.Debug("chat-message ignored, content too long", "length", len(payload.Content))
			return
		}
	}

	sender, err := domain.NormalizeUsername(payload.Sender)
	if err != nil {
		conn.log.Debug("chat-message ignored, invalid sender", "error", err)
		return
	}
	receiver, err := domain.NormalizeUsername(payload.Receiver)
	if err != nil || receiver == sender {
		conn.log.Debug("chat-message ignored, invalid receiver", "receiver", payload.Receiver)
		return
	}

	// The message was received: a disconnect from now on must not abort its storage.
	ctx := context.WithoutCancel(conn.ctx)
	_, outcome, err := h.service.Route(ctx, domain.RouteMessageCommand{
		Sender:         sender,
		Receiver:       receiver,
		Content:        payload.Content,
		ConversationID: uuid.MustParse(payload.ConversationID),
	})
	if err != nil {
		_ = conn.Send(event.ErrorSignal{Event: event.NameChatMessage, Message: "message could not be stored"})
		return
	}
	conn.log.Debug("chat-message routed", "receiver", receiver, "outcome", outcome.String())
}

func (h *Handler) onTyping(conn *Connection, data gjson.Result) {
	var payload typingPayload
	if data.Type == gjson.String {
		// Bare form: "typing" carrying only the username.
		payload.TypingUser = data.String()
	} else if !h.decode(conn, event.NameTyping, data, &payload) {
		return
	}
	typingUser, err := domain.NormalizeUsername(payload.TypingUser)
	if err != nil {
		return
	}

	cmd := domain.TypingCommand{TypingUser: typingUser}
	if payload.ConversationID != "" {
		cmd.ConversationID = uuid.MustParse(payload.ConversationID)
	}
	h.service.Typing(conn.ctx, conn, cmd)
}

// decode unmarshals and validates data into payload, reporting whether the
// event can be handled.
func (h *Handler) decode(conn *Connection, name string, data gjson.Result, payload any) bool {
	if !data.IsObject() {
		conn.log.Debug("Event ignored, data is not an object", "event", name)
		return false
	}
	if err := json.Unmarshal([]byte(data.Raw), payload); err != nil {
		conn.log.Debug("Event ignored, undecodable data", "event", name, "error", err)
		return false
	}
	if err := h.validate.Struct(payload); err != nil {
		conn.log.Debug("Event ignored, incomplete data", "event", name, "error", err)
		return false
	}
	return true
}

// Wait blocks until every connection handled by h has been torn down.
func (h *Handler) Wait() {
	h.wg.Wait()
}

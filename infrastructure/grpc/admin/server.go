package admin

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/services"
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	sdkgrpc "github.com/mama165/sdk-go/grpc"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"google.golang.org/grpc"
)

type AdminServer struct {
	log     *slog.Logger
	service services.IChatService
}

func NewAdminServer(log *slog.Logger, service services.IChatService) *AdminServer {
	return &AdminServer{log: log.With("component", "admin"), service: service}
}

// NewGRPCServer builds a server exposing srv behind request logging and the
// admin token check.
func NewGRPCServer(log *slog.Logger, secret []byte, srv AdminServiceServer) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			sdkgrpc.UnaryLoggingInterceptor(log),
			auth.NewAdminInterceptor(log, secret),
		))
	RegisterAdminServiceServer(s, srv)
	return s
}

// Emit pushes an external event to every attached connection.
func (s *AdminServer) Emit(_ context.Context, in *EmitRequest) (*EmitResponse, error) {
	if in.EventName == "" {
		return nil, errors.MapToGRPCError(fmt.Errorf("%w: eventName is required", errors.ErrInvalidRequest))
	}
	if !gjson.ValidBytes(in.Payload) {
		return nil, errors.MapToGRPCError(fmt.Errorf("%w: payload is not JSON", errors.ErrInvalidRequest))
	}
	delivered := s.service.Emit(in.EventName, in.Payload)
	s.log.Info("External event emitted", "event", in.EventName, "delivered", delivered)
	return &EmitResponse{Delivered: delivered}, nil
}

func (s *AdminServer) Stats(context.Context, *StatsRequest) (*observability.Stats, error) {
	return lo.ToPtr(s.service.Stats()), nil
}

func (s *AdminServer) Presence(ctx context.Context, in *PresenceRequest) (*PresenceResponse, error) {
	username, err := domain.NormalizeUsername(in.Username)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	presence, err := s.service.Presence(ctx, username)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	response := &PresenceResponse{
		Username:     presence.Identity.Username,
		Live:         presence.Live,
		ConnectionID: presence.ConnectionID,
		Online:       presence.Identity.Online,
		Admin:        presence.Identity.Admin,
	}
	if !presence.Identity.LastSeen.IsZero() {
		response.LastSeen = lo.ToPtr(presence.Identity.LastSeen)
	}
	return response, nil
}

func (s *AdminServer) History(ctx context.Context, in *HistoryRequest) (*HistoryResponse, error) {
	id, err := uuid.Parse(in.ConversationID)
	if err != nil {
		return nil, errors.MapToGRPCError(fmt.Errorf("%w: conversationId", errors.ErrInvalidRequest))
	}
	messages, err := s.service.History(ctx, domain.HistoryQuery{
		ConversationID: id,
		AfterSeq:       in.After,
		Limit:          max(in.Limit, 0),
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	response := &HistoryResponse{Messages: lo.Map(messages, func(m domain.Message, _ int) Message {
		return Message{
			ID:        m.ID,
			Seq:       m.Seq,
			Sender:    m.Sender,
			Receiver:  m.Receiver,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	})}
	if last, ok := lo.Last(messages); ok {
		response.NextAfter = last.Seq
	}
	return response, nil
}

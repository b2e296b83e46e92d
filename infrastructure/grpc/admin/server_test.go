package admin

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/observability"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

var secret = []byte("admin-secret")

func startAdmin(t *testing.T, service *mocks.MockIChatService) *bufconn.Listener {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	listener := bufconn.Listen(1 << 20)
	s := NewGRPCServer(log, secret, NewAdminServer(log, service))
	go func() { _ = s.Serve(listener) }()
	t.Cleanup(s.Stop)
	return listener
}

func dialAdmin(t *testing.T, listener *bufconn.Listener, roles ...string) *Client {
	token, err := auth.GenerateToken(secret, "ops", roles, time.Hour)
	require.NoError(t, err)
	client, err := Dial("passthrough:///bufnet", token,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func callCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func Test_Emit_Reaches_Every_Connection(t *testing.T) {
	req := require.New(t)
	service := mocks.NewMockIChatService(gomock.NewController(t))
	client := dialAdmin(t, startAdmin(t, service), auth.RoleAdmin)

	// Given three attached connections
	service.EXPECT().Emit("maintenance", json.RawMessage(`{"in":"5m"}`)).Return(3)

	// When an operator emits an event
	delivered, err := client.Emit(callCtx(t), "maintenance", json.RawMessage(`{"in":"5m"}`))

	// Then the delivered count is returned
	req.NoError(err)
	req.Equal(3, delivered)
}

func Test_Emit_Rejects_Invalid_Payload(t *testing.T) {
	req := require.New(t)
	service := mocks.NewMockIChatService(gomock.NewController(t))
	client := dialAdmin(t, startAdmin(t, service), auth.RoleAdmin)

	// When the event name is missing
	_, err := client.Emit(callCtx(t), "", json.RawMessage(`{}`))

	// Then the call is rejected without reaching the service
	req.Equal(codes.InvalidArgument, status.Code(err))
}

func Test_Calls_Without_Admin_Role_Are_Denied(t *testing.T) {
	req := require.New(t)
	service := mocks.NewMockIChatService(gomock.NewController(t))
	client := dialAdmin(t, startAdmin(t, service), "user")

	// When a non admin asks for stats
	_, err := client.Stats(callCtx(t))

	// Then permission is denied
	req.Equal(codes.PermissionDenied, status.Code(err))
}

func Test_Stats(t *testing.T) {
	req := require.New(t)
	service := mocks.NewMockIChatService(gomock.NewController(t))
	client := dialAdmin(t, startAdmin(t, service), auth.RoleAdmin)

	// Given two connections and one online identity
	service.EXPECT().Stats().Return(observability.Stats{Connections: 2, OnlineIdentities: 1, MessagesStored: 5})

	// When asking for stats
	stats, err := client.Stats(callCtx(t))

	// Then the snapshot travels as JSON
	req.NoError(err)
	req.Equal(2, stats.Connections)
	req.Equal(1, stats.OnlineIdentities)
	req.EqualValues(5, stats.MessagesStored)
}

func Test_Presence(t *testing.T) {
	req := require.New(t)
	service := mocks.NewMockIChatService(gomock.NewController(t))
	client := dialAdmin(t, startAdmin(t, service), auth.RoleAdmin)
	lastSeen := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	// Given alice is bound while bob is unknown
	service.EXPECT().Presence(gomock.Any(), "alice").Return(domain.Presence{
		Identity:     domain.Identity{Username: "alice", Online: true, ConnectionID: "c1", LastSeen: lastSeen},
		Live:         true,
		ConnectionID: "c1",
	}, nil)
	service.EXPECT().Presence(gomock.Any(), "bob").Return(domain.Presence{}, errors.ErrIdentityNotFound)

	// When asking for both, with padded and blank names
	alice, err := client.Presence(callCtx(t), " alice ")
	_, bobErr := client.Presence(callCtx(t), "bob")
	_, blankErr := client.Presence(callCtx(t), "  ")

	// Then alice is live and bob is not found
	req.NoError(err)
	req.True(alice.Live)
	req.True(alice.Online)
	req.Equal("c1", alice.ConnectionID)
	req.True(lastSeen.Equal(*alice.LastSeen))
	req.Equal(codes.NotFound, status.Code(bobErr))
	req.Equal(codes.InvalidArgument, status.Code(blankErr))
}

func Test_History(t *testing.T) {
	req := require.New(t)
	service := mocks.NewMockIChatService(gomock.NewController(t))
	client := dialAdmin(t, startAdmin(t, service), auth.RoleAdmin)
	id := uuid.New()

	// Given one stored message
	service.EXPECT().History(gomock.Any(), domain.HistoryQuery{ConversationID: id, Limit: 10}).
		Return([]domain.Message{{Seq: 1, Sender: "alice", Receiver: "bob", Content: "hi"}}, nil)

	// When fetching the history
	history, err := client.History(callCtx(t), HistoryRequest{ConversationID: id.String(), Limit: 10})

	// Then the message and the cursor are returned
	req.NoError(err)
	req.Len(history.Messages, 1)
	req.Equal("hi", history.Messages[0].Content)
	req.EqualValues(1, history.NextAfter)

	// And a malformed id is an invalid argument
	_, err = client.History(callCtx(t), HistoryRequest{ConversationID: "nope"})
	req.Equal(codes.InvalidArgument, status.Code(err))
}

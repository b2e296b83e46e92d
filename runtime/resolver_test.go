package runtime

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestResolver_Returns_Existing_Conversation(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)
	resolver := NewResolver(logs.GetLoggerFromLevel(slog.LevelDebug), gateway)
	existing := domain.Conversation{ID: uuid.New(), Participants: domain.Pair{"alice", "bob"}}

	// Given a conversation already stored for alice and bob
	gateway.EXPECT().
		FindConversation(gomock.Any(), domain.Pair{"alice", "bob"}).
		Return(existing, nil).
		Times(2)

	// When both orderings are resolved
	ab, err := resolver.Resolve(context.Background(), "alice", "bob")
	req.NoError(err)
	ba, err := resolver.Resolve(context.Background(), "bob", "alice")
	req.NoError(err)

	// Then the same conversation comes back
	req.Equal(existing, ab)
	req.Equal(ab, ba)
}

func TestResolver_Creates_When_Missing(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)
	resolver := NewResolver(logs.GetLoggerFromLevel(slog.LevelDebug), gateway)
	created := domain.Conversation{ID: uuid.New(), Participants: domain.Pair{"alice", "bob"}, CreatedAt: time.Now()}

	gateway.EXPECT().FindConversation(gomock.Any(), domain.Pair{"alice", "bob"}).Return(domain.Conversation{}, errors.ErrConversationNotFound)
	gateway.EXPECT().CreateConversation(gomock.Any(), domain.Pair{"alice", "bob"}).Return(created, nil)

	conversation, err := resolver.Resolve(context.Background(), "bob", "alice")

	req.NoError(err)
	req.Equal(created, conversation)
}

func TestResolver_Refetches_After_Lost_Creation_Race(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)
	resolver := NewResolver(logs.GetLoggerFromLevel(slog.LevelDebug), gateway)
	winner := domain.Conversation{ID: uuid.New(), Participants: domain.Pair{"alice", "bob"}}

	// Given another process creates the conversation between our find and our create
	gomock.InOrder(
		gateway.EXPECT().FindConversation(gomock.Any(), gomock.Any()).Return(domain.Conversation{}, errors.ErrConversationNotFound),
		gateway.EXPECT().CreateConversation(gomock.Any(), gomock.Any()).Return(domain.Conversation{}, errors.ErrConversationAlreadyExists),
		gateway.EXPECT().FindConversation(gomock.Any(), gomock.Any()).Return(winner, nil),
	)

	conversation, err := resolver.Resolve(context.Background(), "alice", "bob")

	// Then the winner's conversation is returned
	req.NoError(err)
	req.Equal(winner, conversation)
}

func TestResolver_Rejects_Invalid_Pair(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	resolver := NewResolver(logs.GetLoggerFromLevel(slog.LevelDebug), mocks.NewMockGateway(ctrl))

	_, err := resolver.Resolve(context.Background(), "alice", "alice")

	req.ErrorIs(err, errors.ErrInvalidParticipants)
}

func TestResolver_Concurrent_Resolutions_Create_Once(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)
	resolver := NewResolver(logs.GetLoggerFromLevel(slog.LevelDebug), gateway)

	var mu sync.Mutex
	var stored *domain.Conversation
	gateway.EXPECT().
		FindConversation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, pair domain.Pair) (domain.Conversation, error) {
			mu.Lock()
			defer mu.Unlock()
			if stored == nil {
				return domain.Conversation{}, errors.ErrConversationNotFound
			}
			return *stored, nil
		}).
		AnyTimes()
	gateway.EXPECT().
		CreateConversation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, pair domain.Pair) (domain.Conversation, error) {
			mu.Lock()
			defer mu.Unlock()
			stored = &domain.Conversation{ID: uuid.New(), Participants: pair}
			return *stored, nil
		}).
		Times(1)

	// When many callers resolve the same pair at once, in both orders
	var wg sync.WaitGroup
	results := make([]domain.Conversation, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "alice", "bob"
			if i%2 == 0 {
				a, b = b, a
			}
			conversation, err := resolver.Resolve(context.Background(), a, b)
			req.NoError(err)
			results[i] = conversation
		}(i)
	}
	wg.Wait()

	// Then a single conversation was created and shared
	for _, c := range results {
		req.Equal(results[0].ID, c.ID)
	}
	req.Empty(resolver.locks)
}

package api

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/mock/gomock"
)

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockIChatService) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockIChatService(ctrl)
	ws := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	return NewRouter(logs.GetLoggerFromLevel(slog.LevelDebug), service, ws), service
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func Test_Register_Returns_Created_Then_Ok(t *testing.T) {
	req := require.New(t)
	router, service := newTestRouter(t)
	identity := domain.Identity{Username: "alice", CreatedAt: time.Now()}

	// Given the first registration creates the identity and the second finds it
	gomock.InOrder(
		service.EXPECT().Register(gomock.Any(), "alice").Return(identity, true, nil),
		service.EXPECT().Register(gomock.Any(), "alice").Return(identity, false, nil),
	)

	// When alice registers twice
	first := serve(router, http.MethodPost, "/users", `{"username":"alice"}`)
	second := serve(router, http.MethodPost, "/users", `{"username":"alice"}`)

	// Then the first answer is 201 and the second 200 with the same identity
	req.Equal(http.StatusCreated, first.Code)
	req.Equal(http.StatusOK, second.Code)
	req.Equal("alice", gjson.Get(first.Body.String(), "username").String())
	req.False(gjson.Get(first.Body.String(), "lastSeen").Exists())
}

func Test_Register_Rejects_Missing_Username(t *testing.T) {
	req := require.New(t)
	router, _ := newTestRouter(t)

	// When the body has no username
	rec := serve(router, http.MethodPost, "/users", `{}`)

	// Then the request is rejected before reaching the service
	req.Equal(http.StatusBadRequest, rec.Code)
	req.Contains(gjson.Get(rec.Body.String(), "error").String(), "invalid request")
}

func Test_FindIdentity_Maps_Not_Found(t *testing.T) {
	req := require.New(t)
	router, service := newTestRouter(t)

	// Given bob is unknown
	service.EXPECT().FindIdentity(gomock.Any(), "bob").Return(domain.Identity{}, errors.ErrIdentityNotFound)

	// When looking bob up
	rec := serve(router, http.MethodGet, "/users/bob", "")

	// Then the answer is 404
	req.Equal(http.StatusNotFound, rec.Code)
}

func Test_ResolveConversation(t *testing.T) {
	req := require.New(t)
	router, service := newTestRouter(t)
	id := uuid.New()

	// Given the service resolves the pair
	service.EXPECT().ResolveConversation(gomock.Any(), "bob", "alice").
		Return(domain.Conversation{ID: id, Participants: domain.Pair{"alice", "bob"}}, nil)

	// When resolving it
	rec := serve(router, http.MethodPost, "/conversations", `{"participants":["bob","alice"]}`)

	// Then the conversation is returned with its sorted participants
	req.Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	req.Equal(id.String(), gjson.Get(body, "id").String())
	req.Equal(`["alice","bob"]`, gjson.Get(body, "participants").Raw)
}

func Test_ResolveConversation_Rejects_Wrong_Participant_Count(t *testing.T) {
	req := require.New(t)
	router, _ := newTestRouter(t)

	// When only one participant is given
	rec := serve(router, http.MethodPost, "/conversations", `{"participants":["alice"]}`)

	// Then the request is rejected
	req.Equal(http.StatusBadRequest, rec.Code)
}

func Test_ResolveConversation_Trims_Participants(t *testing.T) {
	req := require.New(t)
	router, service := newTestRouter(t)
	id := uuid.New()

	// Given the service resolves the trimmed pair
	service.EXPECT().ResolveConversation(gomock.Any(), "bob", "alice").
		Return(domain.Conversation{ID: id, Participants: domain.Pair{"alice", "bob"}}, nil)

	// When the participants are padded
	rec := serve(router, http.MethodPost, "/conversations", `{"participants":[" bob","alice  "]}`)

	// Then the conversation is resolved for the trimmed names
	req.Equal(http.StatusOK, rec.Code)
	req.Equal(id.String(), gjson.Get(rec.Body.String(), "id").String())

	// And a blank participant is rejected before reaching the service
	rec = serve(router, http.MethodPost, "/conversations", `{"participants":["alice","   "]}`)
	req.Equal(http.StatusBadRequest, rec.Code)
}

func Test_History_Pages_With_Cursor(t *testing.T) {
	req := require.New(t)
	router, service := newTestRouter(t)
	id := uuid.New()

	// Given two stored messages after seq 3
	service.EXPECT().History(gomock.Any(), domain.HistoryQuery{ConversationID: id, AfterSeq: 3, Limit: 2}).
		Return([]domain.Message{
			{Seq: 4, ConversationID: id, Sender: "alice", Receiver: "bob", Content: "hi"},
			{Seq: 7, ConversationID: id, Sender: "bob", Receiver: "alice", Content: "hello"},
		}, nil)

	// When fetching the page
	rec := serve(router, http.MethodGet, "/conversations/"+id.String()+"/messages?after=3&limit=2", "")

	// Then the messages come in order with the next cursor
	req.Equal(http.StatusOK, rec.Code)
	var body historyResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	req.Len(body.Messages, 2)
	req.Equal("hi", body.Messages[0].Content)
	req.Equal("hello", body.Messages[1].Content)
	req.EqualValues(7, body.NextAfter)
}

func Test_History_Rejects_Bad_Parameters(t *testing.T) {
	req := require.New(t)
	router, _ := newTestRouter(t)
	id := uuid.New().String()

	// When the id or the cursor cannot be parsed
	badID := serve(router, http.MethodGet, "/conversations/nope/messages", "")
	badAfter := serve(router, http.MethodGet, "/conversations/"+id+"/messages?after=-1", "")
	badLimit := serve(router, http.MethodGet, "/conversations/"+id+"/messages?limit=x", "")

	// Then every request is a 400
	req.Equal(http.StatusBadRequest, badID.Code)
	req.Equal(http.StatusBadRequest, badAfter.Code)
	req.Equal(http.StatusBadRequest, badLimit.Code)
}

func Test_Internal_Errors_Are_Not_Leaked(t *testing.T) {
	req := require.New(t)
	router, service := newTestRouter(t)

	// Given the store fails
	service.EXPECT().FindIdentity(gomock.Any(), "alice").Return(domain.Identity{}, errors.New("disk on fire"))

	// When looking alice up
	rec := serve(router, http.MethodGet, "/users/alice", "")

	// Then the client only sees a generic error
	req.Equal(http.StatusInternalServerError, rec.Code)
	req.Equal("internal error", gjson.Get(rec.Body.String(), "error").String())
}

func Test_Recoverer_Turns_Panic_Into_500(t *testing.T) {
	req := require.New(t)
	router, service := newTestRouter(t)

	// Given the service panics
	service.EXPECT().FindIdentity(gomock.Any(), "alice").DoAndReturn(
		func(any, string) (domain.Identity, error) { panic("boom") })

	// When looking alice up
	rec := serve(router, http.MethodGet, "/users/alice", "")

	// Then the server answers 500
	req.Equal(http.StatusInternalServerError, rec.Code)
}

func Test_Ws_And_Health_Are_Mounted(t *testing.T) {
	req := require.New(t)
	router, _ := newTestRouter(t)

	req.Equal(http.StatusTeapot, serve(router, http.MethodGet, "/ws", "").Code)
	req.Equal(http.StatusOK, serve(router, http.MethodGet, "/healthz", "").Code)
	req.Equal(http.StatusMethodNotAllowed, serve(router, http.MethodPost, "/ws", "").Code)
}

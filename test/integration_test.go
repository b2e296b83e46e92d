package test

import (
	"bytes"
	"chat-relay/domain/event"
	"chat-relay/infrastructure/api"
	"chat-relay/infrastructure/storage"
	"chat-relay/infrastructure/ws"
	"chat-relay/runtime"
	"chat-relay/services"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type relay struct {
	t   *testing.T
	url string
}

func startRelay(t *testing.T) relay {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	gateway, err := storage.OpenBadger(t.TempDir(), log)
	require.NoError(t, err)

	orchestrator := runtime.NewOrchestrator(log, gateway, runtime.Options{
		AdminUsername:      "admin",
		PresenceBufferSize: 64,
		TypingScope:        runtime.TypingScopeBroadcast,
		RestartInterval:    50 * time.Millisecond,
	})
	service := services.NewChatService(log, orchestrator, gateway, 100)
	ctx, closeSessions := context.WithCancel(context.Background())
	orchestrator.Start(ctx)

	wsHandler := ws.NewHandler(ctx, log, service, ws.Options{
		BufferSize:       16,
		WriteTimeout:     time.Second,
		PingInterval:     time.Minute,
		PingTimeout:      time.Second,
		MaxContentLength: 1024,
	})
	srv := httptest.NewServer(api.NewRouter(log, service, wsHandler))
	t.Cleanup(func() {
		srv.Close()
		closeSessions()
		wsHandler.Wait()
		orchestrator.Stop()
		_ = gateway.Close()
	})
	return relay{t: t, url: srv.URL}
}

func (r relay) post(path, body string) (int, string) {
	resp, err := http.Post(r.url+path, "application/json", bytes.NewBufferString(body))
	require.NoError(r.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(r.t, err)
	return resp.StatusCode, string(raw)
}

func (r relay) get(path string) (int, string) {
	resp, err := http.Get(r.url + path)
	require.NoError(r.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(r.t, err)
	return resp.StatusCode, string(raw)
}

type client struct {
	t            *testing.T
	conn         *websocket.Conn
	connectionID string
}

// connect dials the relay and binds the connection to identity.
func (r relay) connect(identity string) *client {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(r.url, "http")+"/ws", nil)
	require.NoError(r.t, err)
	r.t.Cleanup(func() { _ = conn.CloseNow() })

	c := &client{t: r.t, conn: conn}
	connected := c.read()
	require.Equal(r.t, event.NameConnected, connected.Event)
	c.connectionID = gjson.GetBytes(connected.Data, "connectionId").String()

	c.send(event.NameUpdateUser, map[string]string{"connectionId": c.connectionID, "identity": identity})
	return c
}

func (c *client) send(name string, data any) {
	raw, err := json.Marshal(data)
	require.NoError(c.t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(c.t, wsjson.Write(ctx, c.conn, event.Envelope{Event: name, Data: raw}))
}

func (c *client) read() event.Envelope {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var envelope event.Envelope
	require.NoError(c.t, wsjson.Read(ctx, c.conn, &envelope))
	return envelope
}

func (r relay) waitOnline(username string, online bool) {
	require.Eventually(r.t, func() bool {
		status, body := r.get("/users/" + username)
		return status == http.StatusOK && gjson.Get(body, "online").Bool() == online
	}, 2*time.Second, 10*time.Millisecond)
}

func Test_Scenario(t *testing.T) {
	req := require.New(t)
	r := startRelay(t)

	// Given alice and bob are registered and share a conversation
	status, _ := r.post("/users", `{"username":"alice"}`)
	req.Equal(http.StatusCreated, status)
	status, _ = r.post("/users", `{"username":"bob"}`)
	req.Equal(http.StatusCreated, status)
	status, body := r.post("/conversations", `{"participants":["bob","alice"]}`)
	req.Equal(http.StatusOK, status)
	conversationID := gjson.Get(body, "id").String()
	_, again := r.post("/conversations", `{"participants":["alice","bob"]}`)
	req.Equal(conversationID, gjson.Get(again, "id").String())

	// And both are connected
	alice := r.connect("alice")
	bob := r.connect("bob")
	r.waitOnline("alice", true)
	r.waitOnline("bob", true)

	// When alice writes to bob
	alice.send(event.NameChatMessage, map[string]string{
		"sender": "alice", "receiver": "bob", "content": "hello bob", "conversationId": conversationID,
	})

	// Then bob receives it live
	received := bob.read()
	req.Equal(event.NameChatMessage, received.Event)
	req.Equal("hello bob", gjson.GetBytes(received.Data, "content").String())
	req.Equal("alice", gjson.GetBytes(received.Data, "sender").String())

	// When bob answers and starts typing
	bob.send(event.NameChatMessage, map[string]string{
		"sender": "bob", "receiver": "alice", "content": "hi alice", "conversationId": conversationID,
	})
	bob.send(event.NameTyping, "bob")

	// Then alice gets the answer then the typing signal
	answer := alice.read()
	req.Equal(event.NameChatMessage, answer.Event)
	req.Equal("hi alice", gjson.GetBytes(answer.Data, "content").String())
	typing := alice.read()
	req.Equal(event.NameTyping, typing.Event)
	req.Equal(`"bob"`, string(typing.Data))

	// When bob disconnects
	req.NoError(bob.conn.Close(websocket.StatusNormalClosure, "bye"))
	r.waitOnline("bob", false)

	// Then the history holds both messages in send order
	status, body = r.get("/conversations/" + conversationID + "/messages")
	req.Equal(http.StatusOK, status)
	messages := gjson.Get(body, "messages").Array()
	req.Len(messages, 2)
	req.Equal("hello bob", messages[0].Get("content").String())
	req.Equal("hi alice", messages[1].Get("content").String())
	req.Less(messages[0].Get("seq").Uint(), messages[1].Get("seq").Uint())

	// And a message to the offline bob is still stored
	alice.send(event.NameChatMessage, map[string]string{
		"sender": "alice", "receiver": "bob", "content": "are you there?", "conversationId": conversationID,
	})
	after := gjson.Get(body, "nextAfter").String()
	req.Eventually(func() bool {
		_, page := r.get("/conversations/" + conversationID + "/messages?after=" + after)
		return gjson.Get(page, "messages.#").Int() == 1 &&
			gjson.Get(page, "messages.0.content").String() == "are you there?"
	}, 2*time.Second, 10*time.Millisecond)
}

func Test_Rebind_Moves_Delivery_To_The_New_Connection(t *testing.T) {
	req := require.New(t)
	r := startRelay(t)
	r.post("/users", `{"username":"alice"}`)
	r.post("/users", `{"username":"bob"}`)
	_, body := r.post("/conversations", `{"participants":["alice","bob"]}`)
	conversationID := gjson.Get(body, "id").String()

	// Given bob connected from two tabs, the second one last
	alice := r.connect("alice")
	first := r.connect("bob")
	r.waitOnline("bob", true)
	second := r.connect("bob")
	req.Eventually(func() bool {
		_, body := r.get("/users/bob")
		return gjson.Get(body, "connectionId").String() == second.connectionID
	}, 2*time.Second, 10*time.Millisecond)

	// When alice writes to bob
	alice.send(event.NameChatMessage, map[string]string{
		"sender": "alice", "receiver": "bob", "content": "which tab?", "conversationId": conversationID,
	})

	// Then only the newest connection receives it
	received := second.read()
	req.Equal("which tab?", gjson.GetBytes(received.Data, "content").String())

	// And closing the stale tab leaves bob online
	req.NoError(first.conn.Close(websocket.StatusNormalClosure, "bye"))
	time.Sleep(50 * time.Millisecond)
	status, user := r.get("/users/bob")
	req.Equal(http.StatusOK, status)
	req.True(gjson.Get(user, "online").Bool())
}

func Test_Message_To_Disconnected_Peer_Is_Only_In_History(t *testing.T) {
	req := require.New(t)
	r := startRelay(t)
	r.post("/users", `{"username":"alice"}`)
	r.post("/users", `{"username":"bob"}`)
	_, body := r.post("/conversations", `{"participants":["alice","bob"]}`)
	conversationID := gjson.Get(body, "id").String()

	// Given alice and bob are connected
	alice := r.connect("alice")
	bob := r.connect("bob")
	r.waitOnline("bob", true)

	// When alice says hi
	alice.send(event.NameChatMessage, map[string]string{
		"sender": "alice", "receiver": "bob", "content": "hi", "conversationId": conversationID,
	})

	// Then bob receives it
	received := bob.read()
	req.Equal("hi", gjson.GetBytes(received.Data, "content").String())

	// When bob disconnects and alice writes again
	req.NoError(bob.conn.Close(websocket.StatusNormalClosure, "bye"))
	r.waitOnline("bob", false)
	alice.send(event.NameChatMessage, map[string]string{
		"sender": "alice", "receiver": "bob", "content": "still there?", "conversationId": conversationID,
	})

	// Then the history returns both messages in send order
	var messages []gjson.Result
	req.Eventually(func() bool {
		_, page := r.get("/conversations/" + conversationID + "/messages")
		messages = gjson.Get(page, "messages").Array()
		return len(messages) == 2
	}, 2*time.Second, 10*time.Millisecond)
	req.Equal("hi", messages[0].Get("content").String())
	req.Equal("still there?", messages[1].Get("content").String())
}

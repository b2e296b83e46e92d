//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"encoding/json"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself, the supervisor restarts it when it panics.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker
// for supervision logs.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Connection is one live bidirectional channel to exactly one client process.
// Send is best-effort and must not block the caller.
type Connection interface {
	ID() string
	Send(e event.Event) error
}

// IRegistry is the authoritative in-memory view of who is online on which connection.
type IRegistry interface {
	Attach(conn Connection)
	Detach(conn Connection) (string, bool)
	Bind(identity string, conn Connection) Binding
	Unbind(conn Connection) (string, bool)
	Lookup(identity string) (Connection, bool)
	Connections() []Connection
	Online() []string
	Count() int
	Drain() []string
}

// Binding is the result of IRegistry.Bind. Evicted is the connection that
// was previously bound to the identity, if any; it is no longer addressable.
type Binding struct {
	Identity   string
	Connection Connection
	Admin      bool
	Evicted    Connection
}

// IPresence persists the transitions decided by the registry.
// Both calls are fire-and-forget.
type IPresence interface {
	SetOnline(identity, connectionID string, admin bool)
	SetOffline(identity, connectionID string)
}

type IResolver interface {
	Resolve(ctx context.Context, a, b string) (domain.Conversation, error)
}

type IRouter interface {
	Route(ctx context.Context, cmd domain.RouteMessageCommand) (domain.Message, RouteOutcome, error)
}

type IBroadcaster interface {
	Typing(ctx context.Context, from Connection, cmd domain.TypingCommand) int
	EmitExternal(eventName string, payload json.RawMessage) int
}

// RouteOutcome describes what happened after a message was stored.
type RouteOutcome int

const (
	OutcomeNotRouted RouteOutcome = iota
	OutcomeRelayed
	OutcomeRecipientOffline
	OutcomeRelayDropped
)

func (o RouteOutcome) String() string {
	switch o {
	case OutcomeRelayed:
		return "relayed"
	case OutcomeRecipientOffline:
		return "recipient_offline"
	case OutcomeRelayDropped:
		return "relay_dropped"
	default:
		return "not_routed"
	}
}

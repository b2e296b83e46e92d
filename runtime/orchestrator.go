// Package runtime holds the live side of the relay: who is connected on
// which connection, how messages reach them and how presence is persisted.
// It orchestrates storage and transports without knowing about either wire.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime/workers"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

type Options struct {
	AdminUsername      string
	PresenceBufferSize int
	TypingScope        TypingScope
	RestartInterval    time.Duration
	MetricInterval     time.Duration
}

// Orchestrator wires the registry, presence tracker, resolver, router and
// broadcaster together and supervises the background workers.
type Orchestrator struct {
	mu          sync.Mutex
	log         *slog.Logger
	supervisor  contract.ISupervisor
	registry    *Registry
	presence    *PresenceTracker
	resolver    *Resolver
	router      *Router
	broadcaster *Broadcaster
	monitoring  *observability.MonitoringManager
	metricEvery time.Duration
	done        chan struct{}
}

func NewOrchestrator(log *slog.Logger, gateway repositories.Gateway, opts Options) *Orchestrator {
	presence := NewPresenceTracker(log, gateway, opts.PresenceBufferSize)
	registry := NewRegistry(log, presence, opts.AdminUsername)
	return &Orchestrator{
		log:         log,
		supervisor:  workers.NewSupervisor(log, opts.RestartInterval),
		registry:    registry,
		presence:    presence,
		resolver:    NewResolver(log, gateway),
		router:      NewRouter(log, gateway, registry),
		broadcaster: NewBroadcaster(log, registry, gateway, opts.TypingScope),
		monitoring:  observability.NewMonitoringManager(log),
		metricEvery: opts.MetricInterval,
	}
}

// Start runs the supervised workers in the background. It returns at once.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done != nil {
		return
	}

	o.supervisor.Add(o.presence)
	if o.metricEvery > 0 {
		o.supervisor.Add(workers.NewTelemetryWorker(o.log, o.metricEvery, o.Stats))
	}

	o.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		o.log.Info("Starting orchestrator and all supervised workers")
		o.supervisor.Run(ctx)
	}(o.done)
}

// Stop marks every bound identity offline, then stops the workers. The
// presence tracker flushes its queue before exiting, so the offline
// transitions of a clean shutdown are persisted.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	drained := o.registry.Drain()
	o.log.Info("Registry drained", "identities", len(drained))

	o.mu.Lock()
	done := o.done
	o.mu.Unlock()

	o.supervisor.Stop()
	if done != nil {
		<-done
	}
	// The presence worker may have been canceled before it ever ran.
	o.presence.Flush(context.Background())
	o.log.Info("Orchestrator stopped")
}

func (o *Orchestrator) Attach(conn contract.Connection) {
	o.registry.Attach(conn)
}

func (o *Orchestrator) Detach(conn contract.Connection) (string, bool) {
	return o.registry.Detach(conn)
}

func (o *Orchestrator) Bind(identity string, conn contract.Connection) contract.Binding {
	return o.registry.Bind(identity, conn)
}

func (o *Orchestrator) Lookup(identity string) (contract.Connection, bool) {
	return o.registry.Lookup(identity)
}

func (o *Orchestrator) Online() []string {
	return o.registry.Online()
}

func (o *Orchestrator) Resolve(ctx context.Context, a, b string) (domain.Conversation, error) {
	return o.resolver.Resolve(ctx, a, b)
}

func (o *Orchestrator) Route(ctx context.Context, cmd domain.RouteMessageCommand) (domain.Message, contract.RouteOutcome, error) {
	message, outcome, err := o.router.Route(ctx, cmd)
	o.monitoring.RecordRoute(outcome, err)
	return message, outcome, err
}

func (o *Orchestrator) Typing(ctx context.Context, from contract.Connection, cmd domain.TypingCommand) int {
	delivered := o.broadcaster.Typing(ctx, from, cmd)
	o.monitoring.RecordTyping(delivered)
	return delivered
}

func (o *Orchestrator) EmitExternal(eventName string, payload json.RawMessage) int {
	delivered := o.broadcaster.EmitExternal(eventName, payload)
	o.monitoring.RecordExternal(delivered)
	return delivered
}

func (o *Orchestrator) Stats() observability.Stats {
	return o.monitoring.Snapshot(o.registry, o.presence.Pending())
}

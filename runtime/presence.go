package runtime

import (
	"chat-relay/contract"
	"chat-relay/repositories"
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

var _ contract.IPresence = (*PresenceTracker)(nil)

const flushTimeout = 2 * time.Second

type presenceUpdate struct {
	identity     string
	connectionID string
	online       bool
	admin        bool
	at           time.Time
}

// PresenceTracker persists the online flag transitions decided by the
// registry. Enqueueing never blocks: when the queue is full the transition
// is dropped and logged. Storage failures are logged and never retried.
type PresenceTracker struct {
	log     *slog.Logger
	gateway repositories.Gateway
	updates chan presenceUpdate
	now     func() time.Time
}

func NewPresenceTracker(log *slog.Logger, gateway repositories.Gateway, bufferSize int) *PresenceTracker {
	return &PresenceTracker{
		log:     log.With("component", "presence"),
		gateway: gateway,
		updates: make(chan presenceUpdate, bufferSize),
		now:     time.Now,
	}
}

func (p *PresenceTracker) SetOnline(identity, connectionID string, admin bool) {
	p.enqueue(presenceUpdate{identity: identity, connectionID: connectionID, online: true, admin: admin})
}

// SetOffline only takes effect while the stored record still names
// connectionID, so a late release never overwrites a newer binding.
func (p *PresenceTracker) SetOffline(identity, connectionID string) {
	p.enqueue(presenceUpdate{identity: identity, connectionID: connectionID})
}

func (p *PresenceTracker) enqueue(u presenceUpdate) {
	u.at = p.now().UTC()
	select {
	case p.updates <- u:
	default:
		p.log.Warn("Presence queue full, dropping transition", "identity", u.identity, "online", u.online)
	}
}

// Run applies queued transitions in order until ctx is canceled, then
// flushes what is still queued so that shutdown transitions are persisted.
func (p *PresenceTracker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.Flush(context.WithoutCancel(ctx))
			return nil
		case u := <-p.updates:
			p.apply(ctx, u)
		}
	}
}

// Flush persists every queued transition, bounded by a short timeout.
func (p *PresenceTracker) Flush(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	for {
		select {
		case u := <-p.updates:
			p.apply(ctx, u)
		default:
			return
		}
	}
}

func (p *PresenceTracker) apply(ctx context.Context, u presenceUpdate) {
	filter := repositories.IdentityFilter{Username: u.identity}
	patch := repositories.IdentityPatch{
		Online:   lo.ToPtr(u.online),
		LastSeen: lo.ToPtr(u.at),
	}
	if u.online {
		patch.Admin = lo.ToPtr(u.admin)
		patch.ConnectionID = lo.ToPtr(u.connectionID)
	} else {
		filter.ConnectionID = lo.ToPtr(u.connectionID)
		patch.ConnectionID = lo.ToPtr("")
	}

	updated, err := p.gateway.UpdateIdentity(ctx, filter, patch)
	if err != nil {
		p.log.Error("Unable to persist presence", "identity", u.identity, "online", u.online, "error", err)
		return
	}
	if updated == nil {
		p.log.Debug("Presence update matched no identity", "identity", u.identity, "connection_id", u.connectionID)
		return
	}
	p.log.Debug("Presence persisted", "identity", u.identity, "online", u.online)
}

// Pending is the number of queued transitions not yet persisted.
func (p *PresenceTracker) Pending() int {
	return len(p.updates)
}

package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"log/slog"
	"sync"

	"github.com/samber/lo"
)

var _ contract.IRegistry = (*Registry)(nil)

type binding struct {
	conn  contract.Connection
	admin bool
}

// Registry maps identities to their single live connection.
//
// Every live connection is attached for its whole lifetime, bound or not.
// The forward index (identity -> binding) and the reverse index
// (connection id -> identity) are only ever changed together under mu, so
// Bind, Unbind and Lookup are linearizable.
//
// Presence transitions are handed to the tracker while mu is held. The
// tracker's enqueue never blocks, and the queue sees transitions in the
// same order as the registry applied them.
type Registry struct {
	mu         sync.RWMutex
	log        *slog.Logger
	presence   contract.IPresence
	adminName  string
	live       map[string]contract.Connection // connection id -> connection
	identities map[string]binding             // identity -> current binding
	owners     map[string]string              // connection id -> identity
}

func NewRegistry(log *slog.Logger, presence contract.IPresence, adminName string) *Registry {
	return &Registry{
		log:        log.With("component", "registry"),
		presence:   presence,
		adminName:  adminName,
		live:       make(map[string]contract.Connection),
		identities: make(map[string]binding),
		owners:     make(map[string]string),
	}
}

// Attach makes a freshly opened connection reachable by broadcasts.
func (r *Registry) Attach(conn contract.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live[conn.ID()] = conn
}

// Detach forgets a closed connection and unbinds it if it is still the
// current connection of its identity.
func (r *Registry) Detach(conn contract.Connection) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, conn.ID())
	return r.unbindLocked(conn.ID())
}

// Bind associates identity with conn, replacing any previous binding of
// that identity. The previous connection is not closed: it stays attached
// but is no longer addressable through Lookup.
func (r *Registry) Bind(identity string, conn contract.Connection) contract.Binding {
	r.mu.Lock()
	defer r.mu.Unlock()

	connID := conn.ID()
	r.live[connID] = conn

	// A connection addresses a single identity at a time.
	if previous, ok := r.owners[connID]; ok && previous != identity {
		r.unbindLocked(connID)
	}

	result := contract.Binding{
		Identity:   identity,
		Connection: conn,
		Admin:      domain.IsAdmin(identity, r.adminName),
	}
	if current, ok := r.identities[identity]; ok && current.conn.ID() != connID {
		delete(r.owners, current.conn.ID())
		result.Evicted = current.conn
	}

	r.identities[identity] = binding{conn: conn, admin: result.Admin}
	r.owners[connID] = identity
	r.presence.SetOnline(identity, connID, result.Admin)

	if result.Evicted != nil {
		r.log.Info("Identity rebound, previous connection evicted",
			"identity", identity,
			"connection_id", connID,
			"evicted_connection_id", result.Evicted.ID())
	} else {
		r.log.Info("Identity bound", "identity", identity, "connection_id", connID, "admin", result.Admin)
	}
	return result
}

// Unbind removes the binding held by conn. It is a no-op when conn is not
// the current connection of any identity, so a late disconnect of a stale
// connection never clears the presence of an identity that reconnected.
func (r *Registry) Unbind(conn contract.Connection) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unbindLocked(conn.ID())
}

func (r *Registry) unbindLocked(connID string) (string, bool) {
	identity, ok := r.owners[connID]
	if !ok {
		return "", false
	}
	delete(r.owners, connID)

	current, ok := r.identities[identity]
	if !ok || current.conn.ID() != connID {
		return "", false
	}
	delete(r.identities, identity)
	r.presence.SetOffline(identity, connID)
	r.log.Info("Identity unbound", "identity", identity, "connection_id", connID)
	return identity, true
}

func (r *Registry) Lookup(identity string) (contract.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.identities[identity]
	if !ok {
		return nil, false
	}
	return b.conn, true
}

// Connections returns every attached connection, bound or not.
func (r *Registry) Connections() []contract.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.live)
}

// Online returns the identities that currently have a binding.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.identities)
}

// Count is the number of bound identities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.identities)
}

// Drain unbinds every identity, marking each one offline. Used at shutdown.
func (r *Registry) Drain() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	drained := make([]string, 0, len(r.identities))
	for connID := range r.owners {
		if identity, ok := r.unbindLocked(connID); ok {
			drained = append(drained, identity)
		}
	}
	return drained
}

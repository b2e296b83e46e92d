package runtime

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() (*Registry, *recordingPresence) {
	presence := &recordingPresence{}
	return NewRegistry(slog.Default(), presence, "admin"), presence
}

func TestRegistry_Bind_Then_Lookup(t *testing.T) {
	req := require.New(t)
	registry, presence := newTestRegistry()
	conn := newFakeConn(uuid.NewString())

	// Given an attached connection
	registry.Attach(conn)

	// When alice binds to it
	binding := registry.Bind("alice", conn)

	// Then alice is reachable through that connection
	req.Nil(binding.Evicted)
	req.False(binding.Admin)
	found, ok := registry.Lookup("alice")
	req.True(ok)
	req.Equal(conn, found)
	req.Equal(1, registry.Count())
	req.Equal([]string{"alice"}, registry.Online())

	// And the presence tracker was told
	req.Equal([]transition{{identity: "alice", connectionID: conn.ID(), online: true}}, presence.all())
}

func TestRegistry_Lookup_After_Unbind_Is_Absent(t *testing.T) {
	req := require.New(t)
	registry, presence := newTestRegistry()
	conn := newFakeConn(uuid.NewString())
	registry.Bind("alice", conn)

	// When the connection is unbound
	identity, ok := registry.Unbind(conn)

	// Then alice is no longer addressable
	req.True(ok)
	req.Equal("alice", identity)
	_, found := registry.Lookup("alice")
	req.False(found)
	req.Zero(registry.Count())
	req.Len(presence.all(), 2)
	req.False(presence.all()[1].online)
}

func TestRegistry_Rebind_Evicts_Previous_Connection(t *testing.T) {
	req := require.New(t)
	registry, presence := newTestRegistry()
	first := newFakeConn("c1")
	second := newFakeConn("c2")

	// Given alice bound on c1
	registry.Bind("alice", first)

	// When alice binds again on c2
	binding := registry.Bind("alice", second)

	// Then c1 is evicted and c2 is the current connection
	req.Equal(first, binding.Evicted)
	found, _ := registry.Lookup("alice")
	req.Equal(second, found)

	// When the stale c1 disconnects late
	identity, ok := registry.Unbind(first)

	// Then alice stays online on c2
	req.False(ok)
	req.Empty(identity)
	found, ok = registry.Lookup("alice")
	req.True(ok)
	req.Equal(second, found)
	for _, tr := range presence.all() {
		req.True(tr.online, "no offline transition expected")
	}
}

func TestRegistry_Rebinding_Connection_To_Another_Identity(t *testing.T) {
	req := require.New(t)
	registry, presence := newTestRegistry()
	conn := newFakeConn("c1")

	// Given c1 bound to alice
	registry.Bind("alice", conn)

	// When c1 announces itself as bob
	registry.Bind("bob", conn)

	// Then alice is released and bob is bound
	_, ok := registry.Lookup("alice")
	req.False(ok)
	found, ok := registry.Lookup("bob")
	req.True(ok)
	req.Equal(conn, found)
	req.Equal([]transition{
		{identity: "alice", connectionID: "c1", online: true},
		{identity: "alice", connectionID: "c1"},
		{identity: "bob", connectionID: "c1", online: true},
	}, presence.all())
}

func TestRegistry_Bind_Admin_Flag(t *testing.T) {
	req := require.New(t)
	registry, presence := newTestRegistry()

	// When the configured admin identity binds
	binding := registry.Bind("admin", newFakeConn("c1"))

	// Then the binding and the presence transition are flagged
	req.True(binding.Admin)
	req.True(presence.all()[0].admin)
}

func TestRegistry_Detach_Removes_Connection_And_Binding(t *testing.T) {
	req := require.New(t)
	registry, _ := newTestRegistry()
	bound := newFakeConn("c1")
	anonymous := newFakeConn("c2")

	// Given one bound and one anonymous connection
	registry.Attach(bound)
	registry.Attach(anonymous)
	registry.Bind("alice", bound)
	req.Len(registry.Connections(), 2)

	// When both detach
	identity, ok := registry.Detach(bound)
	req.True(ok)
	req.Equal("alice", identity)
	_, ok = registry.Detach(anonymous)
	req.False(ok)

	// Then nothing is left
	req.Empty(registry.Connections())
	req.Zero(registry.Count())
}

func TestRegistry_Drain_Marks_Everyone_Offline(t *testing.T) {
	req := require.New(t)
	registry, presence := newTestRegistry()
	registry.Bind("alice", newFakeConn("c1"))
	registry.Bind("bob", newFakeConn("c2"))

	// When the registry is drained
	drained := registry.Drain()

	// Then both identities went offline
	req.ElementsMatch([]string{"alice", "bob"}, drained)
	req.Zero(registry.Count())
	offline := 0
	for _, tr := range presence.all() {
		if !tr.online {
			offline++
		}
	}
	req.Equal(2, offline)
}

func TestRegistry_Concurrent_Binds_Keep_One_Connection_Per_Identity(t *testing.T) {
	req := require.New(t)
	registry, _ := newTestRegistry()

	var wg sync.WaitGroup
	conns := make([]*fakeConn, 50)
	for i := range conns {
		conns[i] = newFakeConn(uuid.NewString())
		wg.Add(1)
		go func(c *fakeConn) {
			defer wg.Done()
			registry.Attach(c)
			registry.Bind("alice", c)
		}(conns[i])
	}
	wg.Wait()

	// Then exactly one binding survives and every connection stays attached
	req.Equal(1, registry.Count())
	req.Len(registry.Connections(), 50)
	current, ok := registry.Lookup("alice")
	req.True(ok)

	// And only the current connection can unbind alice
	for _, c := range conns {
		if c.ID() == current.ID() {
			continue
		}
		_, unbound := registry.Unbind(c)
		req.False(unbound)
	}
	_, unbound := registry.Unbind(current)
	req.True(unbound)
}

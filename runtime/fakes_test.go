package runtime

import (
	"chat-relay/domain/event"
	"chat-relay/errors"
	"sync"
)

type fakeConn struct {
	mu     sync.Mutex
	id     string
	failed bool
	events []event.Event
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(e event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed {
		return errors.ErrSendBufferFull
	}
	c.events = append(c.events, e)
	return nil
}

func (c *fakeConn) received() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Event(nil), c.events...)
}

type transition struct {
	identity     string
	connectionID string
	online       bool
	admin        bool
}

type recordingPresence struct {
	mu          sync.Mutex
	transitions []transition
}

func (p *recordingPresence) SetOnline(identity, connectionID string, admin bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transitions = append(p.transitions, transition{identity: identity, connectionID: connectionID, online: true, admin: admin})
}

func (p *recordingPresence) SetOffline(identity, connectionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transitions = append(p.transitions, transition{identity: identity, connectionID: connectionID})
}

func (p *recordingPresence) all() []transition {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]transition(nil), p.transitions...)
}

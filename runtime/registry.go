// Package runtime owns the live side of the relay: the shared session
// registry, the per-connection session state machine, and the listener
// that ties them together. Domain rules and persistence live elsewhere.
package runtime

import (
	"log/slog"
	"sync"

	"tcpchat/wire"

	"github.com/samber/lo"
)

// Peer is what the registry knows about a member: enough to broadcast
// to it and to list it on the roster. Sessions implement it; tests use
// fakes.
type Peer interface {
	ID() string
	Send(frame []byte) error
	Roster() wire.User
}

// Registry is the shared, mutable set of live sessions. A session is a
// member exactly between registration (after accept) and removal (on
// close); broadcasts only ever target members.
type Registry struct {
	mu    sync.RWMutex
	log   *slog.Logger
	peers map[string]Peer
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{log: log, peers: make(map[string]Peer)}
}

func (r *Registry) Add(p Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[p.ID()] = p
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peers, id)
}

// Snapshot returns a consistent point-in-time view of the membership,
// safe to iterate while sessions connect and disconnect.
func (r *Registry) Snapshot() []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.peers)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// Roster lists the nickname and color of every live session.
func (r *Registry) Roster() []wire.User {
	return lo.Map(r.Snapshot(), func(p Peer, _ int) wire.User {
		return p.Roster()
	})
}

// Broadcast sends one encoded frame to every member of a snapshot.
// Fan-out is best-effort: a failed send is logged and skipped, and the
// failing session's own read loop will detect the broken connection
// and close it.
func (r *Registry) Broadcast(frame []byte) {
	for _, p := range r.Snapshot() {
		if err := p.Send(frame); err != nil {
			r.log.Warn("Broadcast send failed", "peer", p.ID(), "err", err)
		}
	}
}

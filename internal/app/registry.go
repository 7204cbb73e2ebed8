package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/recapcall/signal-server/internal/core"
	"github.com/recapcall/signal-server/internal/domain"
)

type sessionEntry struct {
	Peer    domain.PeerID
	Room    domain.RoomName
	Session core.MemberSession
}

// Registry is the reverse index from connection id to (peer, room),
// giving O(1) cleanup when the transport reports a close.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[core.SessionID]sessionEntry)}
}

func (r *Registry) Bind(sid core.SessionID, room domain.RoomName, ms core.MemberSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = sessionEntry{Peer: ms.Peer(), Room: room, Session: ms}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("peer", string(ms.Peer())).Str("room", string(room)).Msg("bound session")
}

func (r *Registry) Lookup(sid core.SessionID) (sessionEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	return e, ok
}

// Unbind drops the connection's entry and returns it, so the caller can
// finish the room-side cleanup. Unknown sids are a no-op.
func (r *Registry) Unbind(sid core.SessionID) (sessionEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if ok {
		delete(r.sessions, sid)
		log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
	}
	return e, ok
}

package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/recapcall/signal-server/internal/domain"
)

// PublishResult reports delivery stats for a broadcast. Delivery is
// send-or-drop; dropped recipients never abort the fan-out.
type PublishResult struct {
	SentTo  int
	Dropped int
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"member_count"`
}

// room owns one member set. It never closes adapter-owned resources.
type room struct {
	mu      sync.RWMutex
	members map[domain.PeerID]MemberSession
}

// RoomRegistry maps room names to member sets. Rooms exist implicitly:
// created on first join, removed when the last member leaves. The registry
// guards the name map; each room guards its own members, so reads of
// unrelated rooms never serialize on each other.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]*room
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[domain.RoomName]*room)}
}

func (r *RoomRegistry) get(name domain.RoomName) (*room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[name]
	return rm, ok
}

// Join registers the session under its peer id, creating the room if
// needed. A peer id already present is replaced: the prior connection is
// assumed stale.
func (r *RoomRegistry) Join(name domain.RoomName, ms MemberSession) {
	r.mu.Lock()
	rm, ok := r.rooms[name]
	if !ok {
		rm = &room{members: make(map[domain.PeerID]MemberSession)}
		r.rooms[name] = rm
		log.Info().Str("module", "core.rooms").Str("room", string(name)).Msg("room created")
	}
	rm.mu.Lock()
	r.mu.Unlock()
	rm.members[ms.Peer()] = ms
	rm.mu.Unlock()
	log.Info().Str("module", "core.rooms").Str("room", string(name)).Str("peer", string(ms.Peer())).Msg("member added")
}

// Leave removes the peer's slot and, atomically with the emptiness check,
// the room itself once no members remain. Returns true when the room was
// removed. A concurrent Join cannot observe the emptied room: both paths
// mutate membership under the registry lock.
func (r *RoomRegistry) Leave(name domain.RoomName, peer domain.PeerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[name]
	if !ok {
		return false
	}
	rm.mu.Lock()
	delete(rm.members, peer)
	empty := len(rm.members) == 0
	rm.mu.Unlock()
	log.Info().Str("module", "core.rooms").Str("room", string(name)).Str("peer", string(peer)).Msg("member removed")
	if empty {
		delete(r.rooms, name)
		log.Info().Str("module", "core.rooms").Str("room", string(name)).Msg("room empty, removed")
	}
	return empty
}

// Peers returns a snapshot of member ids; absent rooms yield nil. The
// caller owns the slice.
func (r *RoomRegistry) Peers(name domain.RoomName) []domain.PeerID {
	rm, ok := r.get(name)
	if !ok {
		return nil
	}
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	out := make([]domain.PeerID, 0, len(rm.members))
	for id := range rm.members {
		out = append(out, id)
	}
	return out
}

// Member looks up one peer's session in a room.
func (r *RoomRegistry) Member(name domain.RoomName, peer domain.PeerID) (MemberSession, bool) {
	rm, ok := r.get(name)
	if !ok {
		return nil, false
	}
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	ms, ok := rm.members[peer]
	return ms, ok
}

// Broadcast fans a frame out to every member except exclude. A recipient
// whose transport fails is counted and skipped.
func (r *RoomRegistry) Broadcast(name domain.RoomName, exclude domain.PeerID, data Frame) PublishResult {
	rm, ok := r.get(name)
	if !ok {
		return PublishResult{}
	}
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	res := PublishResult{}
	for id, ms := range rm.members {
		if id == exclude {
			continue
		}
		if err := ms.Signal().TrySend(data); err != nil {
			res.Dropped++
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.rooms").Str("room", string(name)).Int("sent_to", res.SentTo).Int("dropped", res.Dropped).Msg("broadcast result")
	return res
}

func (r *RoomRegistry) List() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for name, rm := range r.rooms {
		rm.mu.RLock()
		out = append(out, RoomInfo{Name: name, MemberCount: len(rm.members)})
		rm.mu.RUnlock()
	}
	return out
}

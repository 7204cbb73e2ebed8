package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/recapcall/signal-server/internal/core"
	"github.com/recapcall/signal-server/internal/domain"
)

// Relay implements the signaling protocol over the room registry. Per
// connection the state machine is Unjoined -> Joined(room, peer) -> Closed;
// directed messages are fire-and-forget and a routing miss is silently
// dropped, matching WebRTC's own tolerance for signaling loss.
type Relay struct {
	Rooms    *core.RoomRegistry
	Sessions *Registry
}

func NewRelay(rooms *core.RoomRegistry, sessions *Registry) *Relay {
	return &Relay{Rooms: rooms, Sessions: sessions}
}

// Join admits a connection into a room. The member snapshot for the
// joiner's all-users envelope is taken before the joiner is added, so it
// never lists itself, and the new-user broadcast excludes the joiner.
func (r *Relay) Join(sid core.SessionID, peer domain.PeerID, roomName domain.RoomName, ms core.MemberSession) {
	if prev, ok := r.Sessions.Lookup(sid); ok {
		// Re-join on a live connection: vacate the old slot quietly,
		// the rejoin itself announces the peer again.
		log.Warn().Str("module", "app.relay").Str("sid", string(sid)).Str("old_room", string(prev.Room)).Msg("join on already-joined connection")
		r.Rooms.Leave(prev.Room, prev.Peer)
	}
	log.Info().Str("module", "app.relay").Str("peer", string(peer)).Str("room", string(roomName)).Msg("peer joining room")

	others := r.Rooms.Peers(roomName)
	r.send(ms, &domain.SignalEnvelope{
		Type: domain.SignalAllUsers,
		Room: roomName,
		Data: marshalPeerList(others),
	})

	r.Rooms.Join(roomName, ms)
	r.Sessions.Bind(sid, roomName, ms)

	r.broadcast(roomName, peer, &domain.SignalEnvelope{
		Type:   domain.SignalNewUser,
		Sender: peer,
		Room:   roomName,
	})
}

// Forward relays a directed envelope to its receiver, byte-for-byte. The
// raw frame is the one read off the wire; nothing is re-encoded.
func (r *Relay) Forward(raw core.Frame, env *domain.SignalEnvelope) {
	ms, ok := r.Rooms.Member(env.Room, env.Receiver)
	if !ok {
		log.Debug().Str("module", "app.relay").Str("type", string(env.Type)).Str("receiver", string(env.Receiver)).Msg("receiver absent, dropped")
		return
	}
	log.Info().Str("module", "app.relay").Str("type", string(env.Type)).Str("from", string(env.Sender)).Str("to", string(env.Receiver)).Msg("relaying")
	if err := ms.Signal().TrySend(raw); err != nil {
		log.Debug().Err(err).Str("module", "app.relay").Str("receiver", string(env.Receiver)).Msg("receiver transport closed, dropped")
	}
}

// Disconnect runs the leave cascade for a closed connection. Connections
// that never joined are a no-op.
func (r *Relay) Disconnect(sid core.SessionID) {
	e, ok := r.Sessions.Unbind(sid)
	if !ok {
		return
	}
	log.Info().Str("module", "app.relay").Str("peer", string(e.Peer)).Str("room", string(e.Room)).Msg("peer leaving room")
	removed := r.Rooms.Leave(e.Room, e.Peer)
	if removed {
		return
	}
	r.broadcast(e.Room, e.Peer, &domain.SignalEnvelope{
		Type:   domain.SignalUserLeft,
		Sender: e.Peer,
		Room:   e.Room,
	})
}

func (r *Relay) send(ms core.MemberSession, env *domain.SignalEnvelope) {
	b, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("marshal envelope")
		return
	}
	_ = ms.Signal().TrySend(b)
}

func (r *Relay) broadcast(roomName domain.RoomName, exclude domain.PeerID, env *domain.SignalEnvelope) {
	b, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("marshal envelope")
		return
	}
	r.Rooms.Broadcast(roomName, exclude, b)
}

func marshalPeerList(peers []domain.PeerID) json.RawMessage {
	if peers == nil {
		peers = []domain.PeerID{}
	}
	b, _ := json.Marshal(peers)
	return b
}

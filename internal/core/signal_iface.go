package core

import "github.com/recapcall/signal-server/internal/domain"

// Frame is a raw text payload forwarded as-is.
type Frame []byte

// SessionID identifies one transport connection, not a peer.
type SessionID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberSession binds a peer identity and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	Peer() domain.PeerID
	Signal() SignalConnection
}

type memberSession struct {
	peer domain.PeerID
	conn SignalConnection
}

func NewMemberSession(peer domain.PeerID, conn SignalConnection) MemberSession {
	return &memberSession{peer: peer, conn: conn}
}

func (m *memberSession) Peer() domain.PeerID      { return m.peer }
func (m *memberSession) Signal() SignalConnection { return m.conn }

package domain

import "encoding/json"

// SignalType discriminates wire envelopes. The inbound set is
// join/offer/answer/ice-candidate; the rest are server-emitted.
type SignalType string

const (
	SignalJoin         SignalType = "join"
	SignalOffer        SignalType = "offer"
	SignalAnswer       SignalType = "answer"
	SignalICECandidate SignalType = "ice-candidate"
	SignalAllUsers     SignalType = "all-users"
	SignalNewUser      SignalType = "new-user"
	SignalUserLeft     SignalType = "user-left"
)

// SignalEnvelope is the wire unit of the signaling protocol. Data is
// SDP/ICE material meaningful only to the peers and is never decoded here.
type SignalEnvelope struct {
	Type     SignalType      `json:"type"`
	Sender   PeerID          `json:"sender,omitempty"`
	Receiver PeerID          `json:"receiver,omitempty"`
	Room     RoomName        `json:"room,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Directed reports whether the envelope targets a single receiver.
func (e *SignalEnvelope) Directed() bool {
	switch e.Type {
	case SignalOffer, SignalAnswer, SignalICECandidate:
		return true
	}
	return false
}

// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const (
	MaxRoomNameLen = 36
	MaxPeerIDLen   = 36
)

var (
	ErrRoomNameEmpty   = errors.New("room name empty")
	ErrRoomNameTooLong = errors.New("room name too long")
	ErrPeerIDEmpty     = errors.New("peer id empty")
	ErrPeerIDTooLong   = errors.New("peer id too long")
)

type RoomName string

func ValidRoomName(raw string) (RoomName, error) {
	if len(raw) == 0 {
		return "", ErrRoomNameEmpty
	}
	if len(raw) > MaxRoomNameLen {
		return "", ErrRoomNameTooLong
	}
	return RoomName(raw), nil
}

// PeerID is the client-chosen identity inside a room. A peer occupies at
// most one slot per room; a rejoin with the same id replaces the old slot.
type PeerID string

func ValidPeerID(raw string) (PeerID, error) {
	if len(raw) == 0 {
		return "", ErrPeerIDEmpty
	}
	if len(raw) > MaxPeerIDLen {
		return "", ErrPeerIDTooLong
	}
	return PeerID(raw), nil
}

package domain

import "errors"

type SessionStatus string

const (
	SessionPending    SessionStatus = "PENDING"
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionEnded      SessionStatus = "ENDED"
)

var ErrUnknownSessionStatus = errors.New("unknown session status")

func ValidSessionStatus(raw string) (SessionStatus, error) {
	switch s := SessionStatus(raw); s {
	case SessionPending, SessionInProgress, SessionEnded:
		return s, nil
	}
	return "", ErrUnknownSessionStatus
}

// Session is the lifecycle record of one room's meeting.
type Session struct {
	Room         RoomName      `json:"roomName"`
	Participants []string      `json:"participants"`
	Status       SessionStatus `json:"status"`
}

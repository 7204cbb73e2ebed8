package core

import (
	"context"

	"github.com/recapcall/signal-server/internal/domain"
)

// CaptureHandle is the opaque id of one running capture job.
type CaptureHandle string

// ParticipantService enumerates live participants of a media room.
type ParticipantService interface {
	ListParticipants(ctx context.Context, room domain.RoomName) ([]domain.Participant, error)
}

// CaptureService starts and stops server-side track capture jobs.
type CaptureService interface {
	StartTrackCapture(ctx context.Context, room domain.RoomName, filepath string, track domain.TrackID) (CaptureHandle, error)
	StopCapture(ctx context.Context, handle CaptureHandle) error
}

// DataRelay pushes application-level events to every participant of a
// room, reusing the media server's data channel as a pub/sub pipe.
type DataRelay interface {
	SendData(ctx context.Context, room domain.RoomName, payload []byte) error
}

// RecapSource locates and fetches the summary artifact of a finished room.
type RecapSource interface {
	LatestRecapKey(ctx context.Context, room domain.RoomName) (string, error)
	Content(ctx context.Context, key string) (string, error)
}

package livekit

import (
	"context"

	"github.com/livekit/protocol/livekit"

	"github.com/recapcall/signal-server/internal/core"
	"github.com/recapcall/signal-server/internal/domain"
)

// ListParticipants implements core.ParticipantService.
func (c *Client) ListParticipants(ctx context.Context, room domain.RoomName) ([]domain.Participant, error) {
	res, err := c.rooms.ListParticipants(ctx, &livekit.ListParticipantsRequest{Room: string(room)})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Participant, 0, len(res.Participants))
	for _, p := range res.Participants {
		tracks := make([]domain.Track, 0, len(p.Tracks))
		for _, t := range p.Tracks {
			tracks = append(tracks, domain.Track{SID: domain.TrackID(t.Sid)})
		}
		out = append(out, domain.Participant{Identity: p.Identity, Tracks: tracks})
	}
	return out, nil
}

// StartTrackCapture implements core.CaptureService.
func (c *Client) StartTrackCapture(ctx context.Context, room domain.RoomName, filepath string, track domain.TrackID) (core.CaptureHandle, error) {
	info, err := c.egress.StartTrackEgress(ctx, &livekit.TrackEgressRequest{
		RoomName: string(room),
		TrackId:  string(track),
		Output: &livekit.TrackEgressRequest_File{
			File: &livekit.DirectFileOutput{Filepath: filepath},
		},
	})
	if err != nil {
		return "", err
	}
	return core.CaptureHandle(info.EgressId), nil
}

// StopCapture implements core.CaptureService.
func (c *Client) StopCapture(ctx context.Context, handle core.CaptureHandle) error {
	_, err := c.egress.StopEgress(ctx, &livekit.StopEgressRequest{EgressId: string(handle)})
	return err
}

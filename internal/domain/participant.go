package domain

type TrackID string

type Track struct {
	SID TrackID
}

// Participant is a read-only view of a media-server participant.
type Participant struct {
	Identity string
	Tracks   []Track
}

// PrimaryTrack returns the first published track, the one a capture job
// records.
func (p Participant) PrimaryTrack() (TrackID, bool) {
	if len(p.Tracks) == 0 {
		return "", false
	}
	return p.Tracks[0].SID, true
}

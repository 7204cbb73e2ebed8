package domain

type VoteID string

type VoteStatus string

const (
	VoteOpen   VoteStatus = "OPEN"
	VoteClosed VoteStatus = "CLOSED"
)

type Vote struct {
	ID         VoteID     `json:"voteId"`
	Room       RoomName   `json:"roomName"`
	Topic      string     `json:"topic"`
	Options    []string   `json:"options"`
	ProposerID string     `json:"proposerId"`
	Status     VoteStatus `json:"status"`
}

package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/recapcall/signal-server/internal/core"
	"github.com/recapcall/signal-server/internal/domain"
)

var ErrVoteNotFound = errors.New("vote not found")

// VoteService keeps room votes in memory and announces their lifecycle to
// the room over the data relay. Relay failures are logged but never fail
// the vote itself.
type VoteService struct {
	mu    sync.RWMutex
	votes map[domain.VoteID]*voteState
	relay core.DataRelay
}

type voteState struct {
	vote domain.Vote
	// ballots maps voter id to chosen option; a repeated cast by the
	// same voter replaces the earlier choice.
	ballots map[string]string
	order   []string
}

func NewVoteService(relay core.DataRelay) *VoteService {
	return &VoteService{votes: make(map[domain.VoteID]*voteState), relay: relay}
}

// VoteResult is the per-room listing view: option -> voters.
type VoteResult struct {
	ID      domain.VoteID       `json:"voteId"`
	Room    domain.RoomName     `json:"roomName"`
	Topic   string              `json:"topic"`
	Results map[string][]string `json:"results"`
	Status  domain.VoteStatus   `json:"status"`
}

func (s *VoteService) Start(ctx context.Context, room domain.RoomName, topic string, options []string, proposer string) (domain.VoteID, error) {
	if topic == "" || len(options) == 0 {
		return "", errors.New("vote needs a topic and options")
	}
	v := domain.Vote{
		ID:         domain.VoteID(uuid.NewString()),
		Room:       room,
		Topic:      topic,
		Options:    options,
		ProposerID: proposer,
		Status:     domain.VoteOpen,
	}
	s.mu.Lock()
	s.votes[v.ID] = &voteState{vote: v, ballots: make(map[string]string)}
	s.mu.Unlock()
	log.Info().Str("module", "app.vote").Str("vote", string(v.ID)).Str("room", string(room)).Str("topic", topic).Msg("vote started")

	s.publish(ctx, room, "VOTE_STARTED", map[string]any{
		"voteId":     v.ID,
		"topic":      v.Topic,
		"options":    v.Options,
		"proposerId": v.ProposerID,
	})
	return v.ID, nil
}

func (s *VoteService) Cast(voteID domain.VoteID, voter, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.votes[voteID]
	if !ok {
		return ErrVoteNotFound
	}
	if _, seen := st.ballots[voter]; !seen {
		st.order = append(st.order, voter)
	}
	st.ballots[voter] = option
	log.Info().Str("module", "app.vote").Str("vote", string(voteID)).Str("voter", voter).Msg("ballot cast")
	return nil
}

// Close tallies ballots and broadcasts VOTE_ENDED with option counts.
func (s *VoteService) Close(ctx context.Context, voteID domain.VoteID) error {
	s.mu.Lock()
	st, ok := s.votes[voteID]
	if !ok {
		s.mu.Unlock()
		return ErrVoteNotFound
	}
	st.vote.Status = domain.VoteClosed
	tally := make(map[string]int)
	for _, option := range st.ballots {
		tally[option]++
	}
	room, topic := st.vote.Room, st.vote.Topic
	s.mu.Unlock()
	log.Info().Str("module", "app.vote").Str("vote", string(voteID)).Int("ballots", len(tally)).Msg("vote closed")

	s.publish(ctx, room, "VOTE_ENDED", map[string]any{
		"voteId":  voteID,
		"topic":   topic,
		"results": tally,
	})
	return nil
}

func (s *VoteService) ByRoom(room domain.RoomName) []VoteResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]VoteResult, 0)
	for _, st := range s.votes {
		if st.vote.Room != room {
			continue
		}
		results := make(map[string][]string, len(st.vote.Options))
		for _, option := range st.vote.Options {
			results[option] = []string{}
		}
		for _, voter := range st.order {
			option := st.ballots[voter]
			if _, known := results[option]; known {
				results[option] = append(results[option], voter)
			}
		}
		out = append(out, VoteResult{
			ID:      st.vote.ID,
			Room:    st.vote.Room,
			Topic:   st.vote.Topic,
			Results: results,
			Status:  st.vote.Status,
		})
	}
	return out
}

func (s *VoteService) publish(ctx context.Context, room domain.RoomName, event string, data map[string]any) {
	payload, err := json.Marshal(map[string]any{"type": event, "data": data})
	if err != nil {
		log.Error().Err(err).Str("module", "app.vote").Msg("marshal vote event")
		return
	}
	if err := s.relay.SendData(ctx, room, payload); err != nil {
		log.Error().Err(err).Str("module", "app.vote").Str("room", string(room)).Str("event", event).Msg("publish vote event")
	}
}

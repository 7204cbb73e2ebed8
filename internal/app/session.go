package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/recapcall/signal-server/internal/core"
	"github.com/recapcall/signal-server/internal/domain"
)

var ErrSessionNotFound = errors.New("session not found")

// CycleStopper ends the capture cycle of a room whose session is over.
type CycleStopper interface {
	Stop(room domain.RoomName)
}

// SessionService tracks meeting lifecycle per room. Moving a session to
// ENDED is the official stop signal for that room's egress cycle.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[domain.RoomName]*domain.Session
	egress   CycleStopper
	recaps   core.RecapSource
}

func NewSessionService(egress CycleStopper, recaps core.RecapSource) *SessionService {
	return &SessionService{
		sessions: make(map[domain.RoomName]*domain.Session),
		egress:   egress,
		recaps:   recaps,
	}
}

func (s *SessionService) Create(room domain.RoomName, participants []string) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &domain.Session{Room: room, Participants: participants, Status: domain.SessionPending}
	s.sessions[room] = sess
	log.Info().Str("module", "app.session").Str("room", string(room)).Int("participants", len(participants)).Msg("session created")
	return sess
}

func (s *SessionService) UpdateStatus(room domain.RoomName, status domain.SessionStatus) error {
	s.mu.Lock()
	sess, ok := s.sessions[room]
	if !ok {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	sess.Status = status
	s.mu.Unlock()
	log.Info().Str("module", "app.session").Str("room", string(room)).Str("status", string(status)).Msg("session status updated")
	if status == domain.SessionEnded && s.egress != nil {
		s.egress.Stop(room)
	}
	return nil
}

func (s *SessionService) Status(room domain.RoomName) (domain.SessionStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[room]
	if !ok {
		return "", ErrSessionNotFound
	}
	return sess.Status, nil
}

// Recap fetches the newest summary artifact produced for the room.
func (s *SessionService) Recap(ctx context.Context, room domain.RoomName) (string, error) {
	key, err := s.recaps.LatestRecapKey(ctx, room)
	if err != nil {
		return "", err
	}
	return s.recaps.Content(ctx, key)
}

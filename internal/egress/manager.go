// Package egress keeps one recording alive per room by cycling an
// external capture job on a fixed cadence. Each tick tears down the
// previous job and starts a fresh one against the target participant's
// current primary track; a failed tick degrades to "no active job" and
// the cadence itself is the retry mechanism.
package egress

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/recapcall/signal-server/internal/core"
	"github.com/recapcall/signal-server/internal/domain"
)

type Manager struct {
	ctx          context.Context
	participants core.ParticipantService
	capture      core.CaptureService
	interval     time.Duration
	initialDelay time.Duration
	prefix       string

	seq    atomic.Uint64
	mu     sync.Mutex
	cycles map[domain.RoomName]*cycle
}

// cycle is one room's periodic capture loop. A single goroutine owns the
// ticks, so ticks never overlap; identity and the current handle are
// shared with Start/Stop callers and guarded by mu.
type cycle struct {
	room   domain.RoomName
	cancel context.CancelFunc

	mu       sync.Mutex
	identity string
	current  core.CaptureHandle
}

func NewManager(ctx context.Context, participants core.ParticipantService, capture core.CaptureService, interval, initialDelay time.Duration, prefix string) *Manager {
	return &Manager{
		ctx:          ctx,
		participants: participants,
		capture:      capture,
		interval:     interval,
		initialDelay: initialDelay,
		prefix:       strings.TrimSuffix(prefix, "/"),
		cycles:       make(map[domain.RoomName]*cycle),
	}
}

// Start launches the room's capture cycle targeting the given participant.
// A room whose cycle is already live is retargeted in place rather than
// given a second timer; the original backend stacked a new cycle per token
// call, so the warning keeps that behavior change visible.
func (m *Manager) Start(room domain.RoomName, identity string) {
	m.mu.Lock()
	if cy, ok := m.cycles[room]; ok {
		m.mu.Unlock()
		cy.mu.Lock()
		old := cy.identity
		cy.identity = identity
		cy.mu.Unlock()
		log.Warn().Str("module", "egress").Str("room", string(room)).Str("old_identity", old).Str("identity", identity).Msg("cycle already running, retargeted")
		return
	}
	cctx, cancel := context.WithCancel(m.ctx)
	cy := &cycle{room: room, cancel: cancel, identity: identity}
	m.cycles[room] = cy
	m.mu.Unlock()

	log.Info().Str("module", "egress").Str("room", string(room)).Str("identity", identity).Dur("interval", m.interval).Msg("cycle started")
	go m.run(cctx, cy)
}

// Stop cancels the room's cycle; the loop goroutine stops the in-flight
// job on its way out. Unknown rooms are a no-op.
func (m *Manager) Stop(room domain.RoomName) {
	m.mu.Lock()
	cy, ok := m.cycles[room]
	if ok {
		delete(m.cycles, room)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	log.Info().Str("module", "egress").Str("room", string(room)).Msg("cycle stopped")
	cy.cancel()
}

func (m *Manager) StopAll() {
	m.mu.Lock()
	cycles := make([]*cycle, 0, len(m.cycles))
	for _, cy := range m.cycles {
		cycles = append(cycles, cy)
	}
	m.cycles = make(map[domain.RoomName]*cycle)
	m.mu.Unlock()
	for _, cy := range cycles {
		cy.cancel()
	}
}

func (m *Manager) run(ctx context.Context, cy *cycle) {
	delay := time.NewTimer(m.initialDelay)
	defer delay.Stop()
	select {
	case <-ctx.Done():
		m.teardown(cy)
		return
	case <-delay.C:
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	m.runTick(ctx, cy)
	for {
		select {
		case <-ctx.Done():
			m.teardown(cy)
			return
		case <-ticker.C:
			m.runTick(ctx, cy)
		}
	}
}

// runTick executes one stop-then-start rotation. The handle is cleared up
// front: whatever goes wrong afterwards, the next tick starts clean
// instead of wedging on a stale reference.
func (m *Manager) runTick(ctx context.Context, cy *cycle) {
	cy.mu.Lock()
	identity := cy.identity
	current := cy.current
	cy.current = ""
	cy.mu.Unlock()

	if current != "" {
		if err := m.capture.StopCapture(ctx, current); err != nil {
			log.Warn().Err(err).Str("module", "egress").Str("room", string(cy.room)).Str("handle", string(current)).Msg("stop previous capture")
		}
	}

	parts, err := m.participants.ListParticipants(ctx, cy.room)
	if err != nil {
		log.Error().Err(err).Str("module", "egress").Str("room", string(cy.room)).Msg("list participants")
		return
	}
	track, ok := findTrack(parts, identity)
	if !ok {
		log.Info().Str("module", "egress").Str("room", string(cy.room)).Str("identity", identity).Msg("participant absent or no track, waiting for next tick")
		return
	}

	path := m.artifactPath(cy.room, identity)
	handle, err := m.capture.StartTrackCapture(ctx, cy.room, path, track)
	if err != nil {
		log.Error().Err(err).Str("module", "egress").Str("room", string(cy.room)).Msg("start capture")
		return
	}
	cy.mu.Lock()
	cy.current = handle
	cy.mu.Unlock()
	log.Info().Str("module", "egress").Str("room", string(cy.room)).Str("handle", string(handle)).Str("path", path).Msg("capture started")
}

// teardown stops the in-flight job after the cycle context is gone, so it
// runs against a short standalone context.
func (m *Manager) teardown(cy *cycle) {
	cy.mu.Lock()
	current := cy.current
	cy.current = ""
	cy.mu.Unlock()
	if current == "" {
		return
	}
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.capture.StopCapture(sctx, current); err != nil {
		log.Warn().Err(err).Str("module", "egress").Str("room", string(cy.room)).Str("handle", string(current)).Msg("stop capture on teardown")
	}
}

// artifactPath names the capture output. The sequence is strictly
// increasing within the process; the timestamp and suffix keep names
// unique across restarts.
func (m *Manager) artifactPath(room domain.RoomName, identity string) string {
	return fmt.Sprintf("%s/%s/%s_%d_%s-%s.ogg",
		m.prefix, room, identity,
		m.seq.Add(1),
		time.Now().UTC().Format("20060102-150405"),
		uuid.NewString()[:8],
	)
}

func findTrack(parts []domain.Participant, identity string) (domain.TrackID, bool) {
	for _, p := range parts {
		if p.Identity != identity {
			continue
		}
		return p.PrimaryTrack()
	}
	return "", false
}

package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/recapcall/signal-server/internal/domain"
)

type fakeDataRelay struct {
	mu       sync.Mutex
	payloads map[domain.RoomName][][]byte
	err      error
}

func newFakeDataRelay() *fakeDataRelay {
	return &fakeDataRelay{payloads: make(map[domain.RoomName][][]byte)}
}

func (f *fakeDataRelay) SendData(ctx context.Context, room domain.RoomName, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.payloads[room] = append(f.payloads[room], payload)
	return nil
}

type voteEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func (f *fakeDataRelay) events(t *testing.T, room domain.RoomName) []voteEvent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]voteEvent, 0, len(f.payloads[room]))
	for _, p := range f.payloads[room] {
		var ev voteEvent
		if err := json.Unmarshal(p, &ev); err != nil {
			t.Fatalf("bad event payload %q: %v", p, err)
		}
		out = append(out, ev)
	}
	return out
}

func TestVoteLifecycle(t *testing.T) {
	relay := newFakeDataRelay()
	s := NewVoteService(relay)
	ctx := context.Background()

	id, err := s.Start(ctx, "r1", "lunch?", []string{"pizza", "sushi"}, "alice")
	if err != nil {
		t.Fatalf("start vote: %v", err)
	}

	events := relay.events(t, "r1")
	if len(events) != 1 || events[0].Type != "VOTE_STARTED" {
		t.Fatalf("expected VOTE_STARTED broadcast, got %+v", events)
	}
	if events[0].Data["topic"] != "lunch?" || events[0].Data["proposerId"] != "alice" {
		t.Fatalf("VOTE_STARTED payload wrong: %+v", events[0].Data)
	}

	if err := s.Cast(id, "bob", "pizza"); err != nil {
		t.Fatalf("cast: %v", err)
	}
	// A repeated cast by the same voter replaces the earlier choice.
	if err := s.Cast(id, "bob", "sushi"); err != nil {
		t.Fatalf("recast: %v", err)
	}
	if err := s.Cast(id, "carol", "sushi"); err != nil {
		t.Fatalf("cast: %v", err)
	}

	if err := s.Close(ctx, id); err != nil {
		t.Fatalf("close: %v", err)
	}
	events = relay.events(t, "r1")
	if len(events) != 2 || events[1].Type != "VOTE_ENDED" {
		t.Fatalf("expected VOTE_ENDED broadcast, got %+v", events)
	}
	results, ok := events[1].Data["results"].(map[string]any)
	if !ok {
		t.Fatalf("VOTE_ENDED missing results: %+v", events[1].Data)
	}
	if results["sushi"] != float64(2) {
		t.Fatalf("replaced ballot counted twice: %+v", results)
	}
	if _, pizzaLeft := results["pizza"]; pizzaLeft {
		t.Fatalf("stale ballot survived replacement: %+v", results)
	}
}

func TestVoteByRoomListsVotersPerOption(t *testing.T) {
	relay := newFakeDataRelay()
	s := NewVoteService(relay)
	ctx := context.Background()

	id, _ := s.Start(ctx, "r1", "topic", []string{"a", "b"}, "alice")
	_, _ = s.Start(ctx, "other", "elsewhere", []string{"x"}, "dave")
	_ = s.Cast(id, "bob", "a")
	_ = s.Cast(id, "carol", "b")

	votes := s.ByRoom("r1")
	if len(votes) != 1 {
		t.Fatalf("expected one vote for r1, got %d", len(votes))
	}
	v := votes[0]
	if v.Status != domain.VoteOpen {
		t.Fatalf("expected OPEN, got %s", v.Status)
	}
	if len(v.Results["a"]) != 1 || v.Results["a"][0] != "bob" {
		t.Fatalf("option a voters wrong: %+v", v.Results)
	}
	if len(v.Results["b"]) != 1 || v.Results["b"][0] != "carol" {
		t.Fatalf("option b voters wrong: %+v", v.Results)
	}
}

func TestVoteUnknownID(t *testing.T) {
	s := NewVoteService(newFakeDataRelay())
	if err := s.Cast("missing", "bob", "a"); !errors.Is(err, ErrVoteNotFound) {
		t.Fatalf("expected ErrVoteNotFound, got %v", err)
	}
	if err := s.Close(context.Background(), "missing"); !errors.Is(err, ErrVoteNotFound) {
		t.Fatalf("expected ErrVoteNotFound, got %v", err)
	}
}

func TestVoteStartSurvivesRelayFailure(t *testing.T) {
	relay := newFakeDataRelay()
	relay.err = errors.New("livekit down")
	s := NewVoteService(relay)

	id, err := s.Start(context.Background(), "r1", "topic", []string{"a"}, "alice")
	if err != nil {
		t.Fatalf("relay failure must not fail the vote: %v", err)
	}
	if err := s.Cast(id, "bob", "a"); err != nil {
		t.Fatalf("vote unusable after relay failure: %v", err)
	}
}

package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/recapcall/signal-server/internal/core"
	"github.com/recapcall/signal-server/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	fail   bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("transport closed")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) envelopes(t *testing.T) []domain.SignalEnvelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.SignalEnvelope, 0, len(c.frames))
	for _, f := range c.frames {
		var env domain.SignalEnvelope
		if err := json.Unmarshal(f, &env); err != nil {
			t.Fatalf("undecodable frame %q: %v", f, err)
		}
		out = append(out, env)
	}
	return out
}

func newRelay() *Relay {
	return NewRelay(core.NewRoomRegistry(), NewRegistry())
}

func join(r *Relay, sid, peer string) *fakeConn {
	conn := &fakeConn{}
	p := domain.PeerID(peer)
	r.Join(core.SessionID(sid), p, "r1", core.NewMemberSession(p, conn))
	return conn
}

func TestJoinLeaveScenario(t *testing.T) {
	r := newRelay()

	alice := join(r, "s-alice", "alice")
	got := alice.envelopes(t)
	if len(got) != 1 || got[0].Type != domain.SignalAllUsers {
		t.Fatalf("alice expected one all-users envelope, got %+v", got)
	}
	var peers []string
	if err := json.Unmarshal(got[0].Data, &peers); err != nil {
		t.Fatalf("all-users data: %v", err)
	}
	if len(peers) != 0 {
		t.Fatalf("first joiner should see empty peer list, got %v", peers)
	}

	bob := join(r, "s-bob", "bob")
	got = bob.envelopes(t)
	if len(got) != 1 || got[0].Type != domain.SignalAllUsers {
		t.Fatalf("bob expected one all-users envelope, got %+v", got)
	}
	if err := json.Unmarshal(got[0].Data, &peers); err != nil {
		t.Fatalf("all-users data: %v", err)
	}
	if len(peers) != 1 || peers[0] != "alice" {
		t.Fatalf("bob should see [alice], got %v", peers)
	}

	got = alice.envelopes(t)
	if len(got) != 2 || got[1].Type != domain.SignalNewUser || got[1].Sender != "bob" {
		t.Fatalf("alice expected new-user{bob}, got %+v", got)
	}

	r.Disconnect("s-alice")
	got = bob.envelopes(t)
	if len(got) != 2 || got[1].Type != domain.SignalUserLeft || got[1].Sender != "alice" {
		t.Fatalf("bob expected user-left{alice}, got %+v", got)
	}
	if members := r.Rooms.Peers("r1"); len(members) != 1 || members[0] != "bob" {
		t.Fatalf("expected [bob] left in r1, got %v", members)
	}
}

func TestJoinerNeverSeesItself(t *testing.T) {
	r := newRelay()
	join(r, "s1", "solo")
	conn := join(r, "s2", "solo2")

	env := conn.envelopes(t)[0]
	var peers []string
	_ = json.Unmarshal(env.Data, &peers)
	for _, p := range peers {
		if p == "solo2" {
			t.Fatal("joiner listed in its own all-users snapshot")
		}
	}
}

func TestDirectedRelayByteForByte(t *testing.T) {
	r := newRelay()
	join(r, "s-alice", "alice")
	bob := join(r, "s-bob", "bob")
	carol := join(r, "s-carol", "carol")

	raw := []byte(`{"type":"offer","sender":"alice","receiver":"bob","room":"r1","data":{"sdp":"v=0 trailing   spaces","type":"offer"}}`)
	var env domain.SignalEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatal(err)
	}
	r.Forward(raw, &env)

	// bob holds all-users, new-user{carol} and now the offer.
	bob.mu.Lock()
	frames := bob.frames
	bob.mu.Unlock()
	if len(frames) != 3 {
		t.Fatalf("bob expected all-users + new-user + offer, got %d frames", len(frames))
	}
	if !bytes.Equal(frames[2], raw) {
		t.Fatalf("offer not forwarded byte-for-byte:\nwant %s\ngot  %s", raw, frames[2])
	}
	if got := carol.envelopes(t); len(got) != 1 {
		t.Fatalf("directed relay leaked to other members: %+v", got)
	}
}

func TestDirectedRelayMissIsSilentlyDropped(t *testing.T) {
	r := newRelay()
	alice := join(r, "s-alice", "alice")

	raw := []byte(`{"type":"ice-candidate","sender":"alice","receiver":"ghost","room":"r1","data":"c"}`)
	var env domain.SignalEnvelope
	_ = json.Unmarshal(raw, &env)
	r.Forward(raw, &env)

	if got := alice.envelopes(t); len(got) != 1 {
		t.Fatalf("sender received an error for a dropped relay: %+v", got)
	}
}

func TestDisconnectNeverJoinedIsNoop(t *testing.T) {
	r := newRelay()
	r.Disconnect("never-joined")
	if infos := r.Rooms.List(); len(infos) != 0 {
		t.Fatalf("disconnect of unjoined connection touched rooms: %v", infos)
	}
}

func TestNoUserLeftAfterLastMember(t *testing.T) {
	r := newRelay()
	alice := join(r, "s-alice", "alice")
	r.Disconnect("s-alice")
	if got := alice.envelopes(t); len(got) != 1 {
		t.Fatalf("unexpected envelopes after last leave: %+v", got)
	}

	// Fresh join behaves as first-ever.
	fresh := join(r, "s-new", "dave")
	env := fresh.envelopes(t)[0]
	var peers []string
	_ = json.Unmarshal(env.Data, &peers)
	if len(peers) != 0 {
		t.Fatalf("fresh join saw residue of removed room: %v", peers)
	}
}

func TestRejoinOnLiveConnectionMoves(t *testing.T) {
	r := newRelay()
	conn := &fakeConn{}
	p := domain.PeerID("alice")
	r.Join("s1", p, "r1", core.NewMemberSession(p, conn))
	r.Join("s1", p, "r2", core.NewMemberSession(p, conn))

	if got := r.Rooms.Peers("r1"); got != nil {
		t.Fatalf("old room kept the peer after rejoin: %v", got)
	}
	if got := r.Rooms.Peers("r2"); len(got) != 1 || got[0] != "alice" {
		t.Fatalf("expected alice in r2, got %v", got)
	}
}

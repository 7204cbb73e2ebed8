package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/recapcall/signal-server/internal/app"
	"github.com/recapcall/signal-server/internal/config"
	"github.com/recapcall/signal-server/internal/core"
	"github.com/recapcall/signal-server/internal/domain"
)

func newTestServer(t *testing.T) (*httptest.Server, *app.Relay) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	relay := app.NewRelay(core.NewRoomRegistry(), app.NewRegistry())
	ctl := NewSignalWSController(relay, &config.Config{
		ReadLimit:  32768,
		PingPeriod: time.Minute,
	})

	r := gin.New()
	r.GET("/signal", func(c *gin.Context) {
		ctl.HandleSignal(context.Background(), c)
	})
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts, relay
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := strings.Replace(ts.URL, "http", "ws", 1) + "/signal"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func read(t *testing.T, conn *websocket.Conn) (domain.SignalEnvelope, []byte) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env domain.SignalEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("bad frame %q: %v", raw, err)
	}
	return env, raw
}

func TestSignalingOverWebSocket(t *testing.T) {
	ts, _ := newTestServer(t)

	alice := dial(t, ts)
	send(t, alice, `{"type":"join","sender":"alice","room":"r1"}`)
	env, _ := read(t, alice)
	if env.Type != domain.SignalAllUsers {
		t.Fatalf("alice expected all-users, got %+v", env)
	}
	var peers []string
	_ = json.Unmarshal(env.Data, &peers)
	if len(peers) != 0 {
		t.Fatalf("first joiner saw peers %v", peers)
	}

	bob := dial(t, ts)
	send(t, bob, `{"type":"join","sender":"bob","room":"r1"}`)
	env, _ = read(t, bob)
	if env.Type != domain.SignalAllUsers {
		t.Fatalf("bob expected all-users, got %+v", env)
	}
	_ = json.Unmarshal(env.Data, &peers)
	if len(peers) != 1 || peers[0] != "alice" {
		t.Fatalf("bob expected [alice], got %v", peers)
	}

	env, _ = read(t, alice)
	if env.Type != domain.SignalNewUser || env.Sender != "bob" {
		t.Fatalf("alice expected new-user{bob}, got %+v", env)
	}

	offer := `{"type":"offer","sender":"alice","receiver":"bob","room":"r1","data":{"sdp":"v=0","type":"offer"}}`
	send(t, alice, offer)
	_, raw := read(t, bob)
	if string(raw) != offer {
		t.Fatalf("offer not relayed byte-for-byte:\nwant %s\ngot  %s", offer, raw)
	}

	_ = alice.Close()
	env, _ = read(t, bob)
	if env.Type != domain.SignalUserLeft || env.Sender != "alice" {
		t.Fatalf("bob expected user-left{alice}, got %+v", env)
	}
}

func TestUnknownTypeKeepsConnectionOpen(t *testing.T) {
	ts, _ := newTestServer(t)

	conn := dial(t, ts)
	send(t, conn, `{"type":"bogus"}`)
	send(t, conn, `not even json`)
	send(t, conn, `{"type":"join","sender":"carol","room":"r2"}`)
	env, _ := read(t, conn)
	if env.Type != domain.SignalAllUsers {
		t.Fatalf("connection unusable after junk frames, got %+v", env)
	}
}

func TestOfferToAbsentReceiverIsDropped(t *testing.T) {
	ts, relay := newTestServer(t)

	conn := dial(t, ts)
	send(t, conn, `{"type":"join","sender":"alice","room":"r1"}`)
	_, _ = read(t, conn) // all-users

	send(t, conn, `{"type":"offer","sender":"alice","receiver":"ghost","room":"r1","data":"x"}`)

	// No error frame comes back; the connection keeps working.
	send(t, conn, `{"type":"offer","sender":"alice","receiver":"alice","room":"r1","data":"self"}`)
	env, _ := read(t, conn)
	if env.Type != domain.SignalOffer || string(env.Data) != `"self"` {
		t.Fatalf("expected self-offer relay, got %+v", env)
	}

	if peers := relay.Rooms.Peers("r1"); len(peers) != 1 {
		t.Fatalf("room membership disturbed by dropped relay: %v", peers)
	}
}

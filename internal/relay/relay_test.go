package relay

import (
	"Lumen/internal/pkg/events"
	"Lumen/internal/pkg/security"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(hub).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID uint64) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if userID != 0 {
		token, err := security.GenerateToken(userID, time.Minute)
		if err != nil {
			t.Fatalf("GenerateToken() error = %v", err)
		}
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f Frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return f
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	var f Frame
	if err := conn.ReadJSON(&f); err == nil {
		t.Errorf("unexpected frame %+v", f)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func join(t *testing.T, conn *websocket.Conn, room string) Frame {
	t.Helper()
	if err := conn.WriteJSON(ClientMessage{Type: MessageJoinRoom, RoomID: room}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	return readFrame(t, conn)
}

func TestRoomDeliveryOnlyReachesMembers(t *testing.T) {
	hub := NewHub(8)
	srv := newTestServer(t, hub)

	seven := dial(t, srv, 7)
	eight := dial(t, srv, 8)
	anon := dial(t, srv, 0)
	waitFor(t, func() bool { return hub.Count() == 3 })

	if f := join(t, seven, "7"); f.Event != EventJoined {
		t.Fatalf("join frame = %+v, want joined", f)
	}
	if f := join(t, eight, "8"); f.Event != EventJoined {
		t.Fatalf("join frame = %+v, want joined", f)
	}

	e, _ := events.NewRealtimeEvent(events.RealtimePostLiked, map[string]string{"contentId": "p"}, events.UserRoom(7))
	if n := hub.Emit(e); n != 1 {
		t.Errorf("Emit() delivered = %d, want 1", n)
	}

	f := readFrame(t, seven)
	if f.Event != events.RealtimePostLiked || string(f.Data) != `{"contentId":"p"}` {
		t.Errorf("frame = %+v", f)
	}
	expectSilence(t, eight)
	expectSilence(t, anon)
}

func TestJoinOnlyOwnRoom(t *testing.T) {
	hub := NewHub(8)
	srv := newTestServer(t, hub)

	conn := dial(t, srv, 7)
	anon := dial(t, srv, 0)

	if f := join(t, conn, "8"); f.Event != EventError {
		t.Errorf("joining someone else's room = %+v, want error", f)
	}
	if f := join(t, anon, "7"); f.Event != EventError {
		t.Errorf("anonymous join = %+v, want error", f)
	}
	if hub.RoomSize("8") != 0 || hub.RoomSize("7") != 0 {
		t.Error("rejected joins must not register membership")
	}
}

func TestBroadcastSkipsDisconnected(t *testing.T) {
	hub := NewHub(8)
	srv := newTestServer(t, hub)

	a := dial(t, srv, 1)
	b := dial(t, srv, 0)
	gone := dial(t, srv, 2)
	waitFor(t, func() bool { return hub.Count() == 3 })

	_ = gone.Close()
	waitFor(t, func() bool { return hub.Count() == 2 })

	e, _ := events.NewRealtimeEvent(events.RealtimeNewPost, map[string]string{"id": "x"}, "")
	if n := hub.Emit(e); n != 2 {
		t.Errorf("Emit() delivered = %d, want 2", n)
	}
	for _, conn := range []*websocket.Conn{a, b} {
		if f := readFrame(t, conn); f.Event != events.RealtimeNewPost {
			t.Errorf("frame = %+v, want new_post", f)
		}
	}
}

func TestUnregisterLeavesRooms(t *testing.T) {
	hub := NewHub(8)
	srv := newTestServer(t, hub)

	conn := dial(t, srv, 7)
	join(t, conn, "7")
	if hub.RoomSize("7") != 1 {
		t.Fatalf("RoomSize(7) = %d, want 1", hub.RoomSize("7"))
	}
	_ = conn.Close()
	waitFor(t, func() bool { return hub.RoomSize("7") == 0 })

	e, _ := events.NewRealtimeEvent(events.RealtimeNewFollower, nil, "7")
	if n := hub.Emit(e); n != 0 {
		t.Errorf("Emit() to empty room = %d, want 0", n)
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := NewHub(1)
	c := &Client{id: "slow", hub: hub, send: make(chan []byte, 1), rooms: make(map[string]struct{})}
	hub.Register(c)

	e, _ := events.NewRealtimeEvent(events.RealtimeNewPost, nil, "")
	if n := hub.Emit(e); n != 1 {
		t.Fatalf("first Emit() = %d, want 1", n)
	}
	if n := hub.Emit(e); n != 0 {
		t.Errorf("second Emit() = %d, want 0 for full buffer", n)
	}
	if hub.Count() != 0 {
		t.Error("slow client should be unregistered")
	}

	var f Frame
	if err := json.Unmarshal(<-c.send, &f); err != nil || f.Event != events.RealtimeNewPost {
		t.Errorf("buffered frame = %+v, %v", f, err)
	}
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed")
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	hub := NewHub(8)
	srv := newTestServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=bad"
	if _, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Fatal("Dial() with a bad token should fail the handshake")
	}
	if hub.Count() != 0 {
		t.Errorf("Count() = %d, want 0", hub.Count())
	}
}

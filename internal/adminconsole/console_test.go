package adminconsole

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startTestConsole(t *testing.T, runCmd CommandFunc) (*Console, *httptest.Server, *websocket.Conn) {
	t.Helper()
	console := New(runCmd)
	srv := httptest.NewServer(console)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return console, srv, conn
}

func TestBroadcast_DeliversToConnectedClient(t *testing.T) {
	console, _, conn := startTestConsole(t, func(string) string { return "" })

	// Give readPump/writePump time to register the client.
	time.Sleep(50 * time.Millisecond)
	console.Broadcast("server started")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if string(msg) != "server started" {
		t.Errorf("msg = %q, want %q", msg, "server started")
	}
}

func TestReadPump_RunsSubmittedCommandAndRepliesWithResult(t *testing.T) {
	_, _, conn := startTestConsole(t, func(line string) string {
		return "ran: " + line
	})

	if err := conn.WriteMessage(websocket.TextMessage, []byte("/list")); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if string(msg) != "ran: /list" {
		t.Errorf("msg = %q, want %q", msg, "ran: /list")
	}
}

func TestBroadcast_NoClientsIsANoOp(t *testing.T) {
	console := New(func(string) string { return "" })
	console.Broadcast("nobody listening")
}

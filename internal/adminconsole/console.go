// Package adminconsole implements the read-only live console (spec.md
// §6's admin surface): a websocket endpoint that streams server log
// lines and command output to connected operators and accepts command
// lines back. Grounded on 1kaius1-MUD-Engine's cmd/server/main.go
// Client/readPump/writePump pair — the same per-connection send-channel
// plus ping-ticker shape, adapted from a raw TCP telnet-style client to
// a github.com/gorilla/websocket connection and from free-text MUD
// input to this project's fixed command surface (internal/command).
package adminconsole

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// pingInterval and pongWait mirror the keepalive cadence MUD-Engine's
// writePump/readPump use (54s ping against a 60s read deadline).
const (
	pingInterval = 54 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// CommandFunc runs one console-submitted command line and returns the
// text to echo back (internal/command.Registry.Dispatch, formatted by
// the caller — this package has no command-authorization knowledge of
// its own and performs no authentication; every line a connected
// client submits is passed to the CommandFunc).
type CommandFunc func(line string) string

// Console accepts websocket connections and fans broadcast log/output
// lines out to every connected operator.
type Console struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	runCmd   CommandFunc
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New returns a Console that dispatches submitted command lines via
// runCmd.
func New(runCmd CommandFunc) *Console {
	return &Console{
		clients: make(map[*client]struct{}),
		runCmd:  runCmd,
	}
}

// ServeHTTP upgrades the request to a websocket connection and starts
// its read/write pumps.
func (c *Console) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("adminconsole: upgrade failed", "err", err)
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, 256)}
	c.mu.Lock()
	c.clients[cl] = struct{}{}
	c.mu.Unlock()

	go c.writePump(cl)
	go c.readPump(cl)
}

// Broadcast queues line for delivery to every connected console,
// dropping it for any client whose send buffer is full rather than
// blocking the caller (spec.md §5: no tick-thread stall on slow I/O).
func (c *Console) Broadcast(line string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for cl := range c.clients {
		select {
		case cl.send <- []byte(line):
		default:
			slog.Warn("adminconsole: client send buffer full, dropping line")
		}
	}
}

func (c *Console) remove(cl *client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.clients[cl]; ok {
		delete(c.clients, cl)
		close(cl.send)
	}
}

func (c *Console) readPump(cl *client) {
	defer func() {
		c.remove(cl)
		cl.conn.Close()
	}()

	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		cl.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("adminconsole: read error", "err", err)
			}
			return
		}
		reply := c.runCmd(string(message))
		select {
		case cl.send <- []byte(reply):
		default:
			slog.Warn("adminconsole: client send buffer full, dropping command reply")
		}
	}
}

func (c *Console) writePump(cl *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case message, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

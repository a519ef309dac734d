// Package transport implements the core's consumption contract for the
// RakNet-like transport (spec.md §5, §6): a dedicated I/O goroutine per
// connection delivers session lifecycle events over a bounded channel
// and accepts outgoing packet batches over a bounded send channel,
// keeping all blocking I/O off the tick thread. The RakNet wire
// protocol itself is an external collaborator (spec.md §1); this
// package assumes it is already terminated into a net.Conn delivering
// reliable-ordered bytes on channel 0 (spec.md §5: "the core assumes
// reliable-ordered on channel 0").
//
// One real-time connection per session is multiplexed into two logical
// streams with github.com/hashicorp/yamux: the reliable-ordered game
// channel, and a control channel carrying plugin RPC and admin-console
// traffic, the way internal/gslistener's single net.Conn is wrapped in
// a connection type owning per-connection state.
package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/hashicorp/yamux"
)

// EventKind distinguishes the transport events delivered on a
// Connection's event channel (spec.md §6: "SessionConnected{addr,
// guid}, SessionDisconnected{addr}, Packet{addr, payload}").
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventPacket
)

// Event is one lifecycle or data event from the transport layer.
type Event struct {
	Kind    EventKind
	Addr    net.Addr
	GUID    uint64
	Payload []byte
}

// outboundBatchPrefix is the single byte spec.md §6 prefixes every
// outbound encrypted+compressed packet batch with.
const outboundBatchPrefix = 0xFE

// Connection owns one client's multiplexed link: a yamux session over
// the raw net.Conn, a reliable-ordered game stream (channel 0), and a
// control stream for plugin RPC / admin console traffic. The I/O
// goroutines it starts are the only things that block on network I/O;
// everything they produce crosses onto the tick thread via Events.
type Connection struct {
	addr net.Addr
	raw  net.Conn
	mux  *yamux.Session
	game net.Conn

	events  chan Event
	outbox  chan []byte
	closeCh chan struct{}
}

// EventBufferSize and OutboxBufferSize bound the channels a Connection
// uses to cross from its I/O goroutines onto the tick thread (spec.md
// §5: "A dedicated I/O task ... delivers events and accepts outgoing
// packets via bounded channels").
const (
	EventBufferSize  = 256
	OutboxBufferSize = 256
)

// Accept wraps conn as a yamux server session, opens the one reliable
// game stream the client is expected to dial first, and starts the
// read/write goroutines. guid identifies the RakNet session this
// connection was promoted from.
func Accept(ctx context.Context, conn net.Conn, guid uint64) (*Connection, error) {
	mux, err := yamux.Server(conn, nil)
	if err != nil {
		return nil, fmt.Errorf("starting yamux session: %w", err)
	}

	game, err := mux.Accept()
	if err != nil {
		mux.Close()
		return nil, fmt.Errorf("accepting game channel: %w", err)
	}

	c := &Connection{
		addr:    conn.RemoteAddr(),
		raw:     conn,
		mux:     mux,
		game:    game,
		events:  make(chan Event, EventBufferSize),
		outbox:  make(chan []byte, OutboxBufferSize),
		closeCh: make(chan struct{}),
	}

	c.events <- Event{Kind: EventConnected, Addr: c.addr, GUID: guid}
	go c.readLoop()
	go c.writeLoop(ctx)
	return c, nil
}

// OpenControlStream opens the control-channel stream used for plugin
// RPC and admin-console traffic (spec.md's domain-stack wiring:
// "multiplexes the RakNet-like reliable channel 0 plus an internal
// control channel ... over one logical connection per session").
func (c *Connection) OpenControlStream() (net.Conn, error) {
	return c.mux.Open()
}

// Events returns the channel lifecycle and packet events arrive on.
// The tick thread (or its transport-drain phase) is the only reader.
func (c *Connection) Events() <-chan Event { return c.events }

// Send queues an outbound packet batch for the write goroutine,
// prefixing it with the 0xFE batch marker (spec.md §6). It never
// blocks the caller on network I/O; if the outbox is full the packet
// is dropped and a warning logged — the suspension points a tick may
// incur are bounded per spec.md §5.
func (c *Connection) Send(batch []byte) {
	framed := make([]byte, 1+len(batch))
	framed[0] = outboundBatchPrefix
	copy(framed[1:], batch)

	select {
	case c.outbox <- framed:
	default:
		slog.Warn("transport outbox full, dropping packet batch", "addr", c.addr.String())
	}
}

// Close tears down the game stream, the control multiplexer, and the
// underlying connection.
func (c *Connection) Close() error {
	select {
	case <-c.closeCh:
		return nil
	default:
		close(c.closeCh)
	}
	c.game.Close()
	c.mux.Close()
	return c.raw.Close()
}

func (c *Connection) readLoop() {
	defer c.disconnect()

	buf := make([]byte, 64*1024)
	for {
		n, err := c.game.Read(buf)
		if err != nil {
			if err != io.EOF {
				slog.Debug("transport read error", "addr", c.addr.String(), "err", err)
			}
			return
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])

		select {
		case c.events <- Event{Kind: EventPacket, Addr: c.addr, Payload: payload}:
		default:
			slog.Warn("transport event channel full, dropping inbound packet", "addr", c.addr.String())
		}
	}
}

func (c *Connection) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closeCh:
			return
		case framed, ok := <-c.outbox:
			if !ok {
				return
			}
			if _, err := c.game.Write(framed); err != nil {
				slog.Debug("transport write error", "addr", c.addr.String(), "err", err)
				return
			}
		}
	}
}

func (c *Connection) disconnect() {
	select {
	case c.events <- Event{Kind: EventDisconnected, Addr: c.addr}:
	default:
		slog.Warn("transport event channel full, dropping disconnect event", "addr", c.addr.String())
	}
}

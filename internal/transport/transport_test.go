package transport

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/hashicorp/yamux"
)

func dialedPair(t *testing.T) (*Connection, *yamux.Session, net.Conn) {
	t.Helper()
	serverConn, clientConn := net.Pipe()

	clientMux, err := yamux.Client(clientConn, nil)
	if err != nil {
		t.Fatalf("yamux.Client() error = %v", err)
	}

	acceptDone := make(chan *Connection, 1)
	acceptErrCh := make(chan error, 1)
	go func() {
		c, err := Accept(context.Background(), serverConn, 42)
		if err != nil {
			acceptErrCh <- err
			return
		}
		acceptDone <- c
	}()

	clientGame, err := clientMux.Open()
	if err != nil {
		t.Fatalf("clientMux.Open() error = %v", err)
	}
	// yamux streams negotiate lazily; writing a byte forces the SYN.
	if _, err := clientGame.Write([]byte{0}); err != nil {
		t.Fatalf("clientGame.Write() error = %v", err)
	}

	select {
	case c := <-acceptDone:
		return c, clientMux, clientGame
	case err := <-acceptErrCh:
		t.Fatalf("Accept() error = %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Accept()")
	}
	return nil, nil, nil
}

func TestAccept_EmitsConnectedEvent(t *testing.T) {
	conn, mux, _ := dialedPair(t)
	defer conn.Close()
	defer mux.Close()

	select {
	case evt := <-conn.Events():
		if evt.Kind != EventConnected {
			t.Errorf("Kind = %v, want EventConnected", evt.Kind)
		}
		if evt.GUID != 42 {
			t.Errorf("GUID = %d, want 42", evt.GUID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connected event")
	}
}

func TestSend_PrefixesBatchWithOutboundMarker(t *testing.T) {
	conn, mux, clientGame := dialedPair(t)
	defer conn.Close()
	defer mux.Close()

	<-conn.Events() // drain EventConnected

	conn.Send([]byte{0x01, 0x02, 0x03})

	buf := make([]byte, 4)
	n, err := io.ReadFull(clientGame, buf)
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	if n != 4 || buf[0] != outboundBatchPrefix {
		t.Errorf("got %v, want [0xFE 0x01 0x02 0x03]", buf[:n])
	}
}

func TestClose_IsIdempotent(t *testing.T) {
	conn, mux, _ := dialedPair(t)
	defer mux.Close()

	if err := conn.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second Close() error = %v, want nil", err)
	}
}

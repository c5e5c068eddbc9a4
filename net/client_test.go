package net

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"cobble/config"
	"cobble/internal"
	"cobble/protocol"
	"cobble/protocol/packets"
	cb "cobble/protocol/packets/clientbound"
	sb "cobble/protocol/packets/serverbound"
)

// scriptedServer reads client frames with the registries of the phase it
// expects and answers through reply.
type scriptedServer struct {
	t    *testing.T
	conn *FrameConn
}

func newClientPair(t *testing.T) (*Client, *scriptedServer) {
	t.Helper()
	a, b := net.Pipe()
	cfg := config.NewClientConfig()
	cfg.RequestTimeout = 2 * time.Second
	c := NewClient(a, cfg)
	t.Cleanup(func() {
		_ = c.Close()
		_ = b.Close()
	})
	return c, &scriptedServer{t: t, conn: NewFrameConn(b, config.DefaultMaxFrameSize)}
}

func (s *scriptedServer) expect(reg *protocol.Registry) protocol.Envelope {
	data, err := s.conn.ReadFrame()
	if err != nil {
		s.t.Errorf("server read: %v", err)
		return protocol.Envelope{}
	}
	e, err := reg.Unmarshal(data, protocol.CurrentVersion)
	if err != nil {
		s.t.Errorf("server decode: %v", err)
	}
	return e
}

func (s *scriptedServer) reply(reg *protocol.Registry, p any) {
	data, err := reg.Marshal(p, protocol.CurrentVersion)
	if err != nil {
		s.t.Errorf("server encode: %v", err)
		return
	}
	if err := s.conn.WriteFrame(data); err != nil {
		s.t.Errorf("server write: %v", err)
	}
}

func TestClientStatus(t *testing.T) {
	c, srv := newClientPair(t)
	want := packets.NewStatus(protocol.CurrentVersion, "hello", 10, 2)

	go func() {
		e := srv.expect(packets.HandshakeServerbound)
		if h, ok := protocol.Narrow[sb.Handshake](e); !ok || h.Phase() != protocol.Status || h.ProtocolVersion != c.Version() {
			t.Errorf("expected a status handshake for %v, got %v", c.Version(), e)
		}
		srv.expect(packets.StatusServerbound)
		resp, _ := want.Response()
		srv.reply(packets.StatusClientbound, resp)

		e = srv.expect(packets.StatusServerbound)
		ping, _ := protocol.Narrow[sb.Ping](e)
		srv.reply(packets.StatusClientbound, cb.Pong{Payload: ping.Payload})
	}()

	if err := c.Handshake("localhost", 25565, protocol.Status); err != nil {
		t.Fatal(err)
	}
	got, err := c.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.Description.Text != "hello" || got.Players.Online != 2 {
		t.Fatalf("unexpected status %+v", got)
	}
	if _, err := c.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestClientLoginAndKeepAlive(t *testing.T) {
	c, srv := newClientPair(t)
	other := make(chan protocol.Envelope, 1)
	c.OnPacket(func(e protocol.Envelope) { other <- e })

	answered := make(chan uint64, 1)
	go func() {
		srv.expect(packets.HandshakeServerbound)
		e := srv.expect(packets.LoginServerbound)
		start, _ := protocol.Narrow[sb.LoginStart](e)
		srv.reply(packets.LoginClientbound, cb.LoginSuccess{UUID: OfflineUUID(start.Name), Username: start.Name})

		srv.reply(packets.PlayClientbound, cb.KeepAlive{ID: 77})
		e = srv.expect(packets.PlayServerbound)
		ka, _ := protocol.Narrow[sb.KeepAlive](e)
		answered <- ka.ID

		srv.reply(packets.PlayClientbound, cb.TimeUpdate{WorldAge: 5})
	}()

	if err := c.Handshake("localhost", 25565, protocol.Login); err != nil {
		t.Fatal(err)
	}
	success, err := c.Login(context.Background(), "Alex")
	if err != nil {
		t.Fatal(err)
	}
	if success.Username != "Alex" || c.Phase() != protocol.Play {
		t.Fatalf("unexpected login %+v in %v", success, c.Phase())
	}

	select {
	case id := <-answered:
		if id != 77 {
			t.Fatalf("expected keep alive 77 echoed, got %d", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("keep alive was not answered")
	}

	select {
	case e := <-other:
		if tu, ok := protocol.Narrow[cb.TimeUpdate](e); !ok || tu.WorldAge != 5 {
			t.Fatalf("unexpected packet %v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("unsolicited packet was not delivered")
	}
}

func TestClientLoginRefused(t *testing.T) {
	c, srv := newClientPair(t)
	go func() {
		srv.expect(packets.HandshakeServerbound)
		srv.expect(packets.LoginServerbound)
		srv.reply(packets.LoginClientbound, cb.LoginDisconnect{Reason: packets.Chat("no")})
	}()

	if err := c.Handshake("localhost", 25565, protocol.Login); err != nil {
		t.Fatal(err)
	}
	_, err := c.Login(context.Background(), "Alex")
	var de *DisconnectError
	if !errors.As(err, &de) || de.Reason != packets.Chat("no") {
		t.Fatalf("expected DisconnectError, got %v", err)
	}

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the client to close after a login disconnect")
	}
	if err := c.Send(sb.LoginStart{Name: "x"}); !errors.Is(err, ErrClientClosed) {
		t.Fatalf("expected ErrClientClosed, got %v", err)
	}
}

func TestClientRequestTimeout(t *testing.T) {
	c, srv := newClientPair(t)
	c.clientConfig.RequestTimeout = 50 * time.Millisecond
	go func() {
		srv.expect(packets.HandshakeServerbound)
		srv.expect(packets.StatusServerbound)
	}()

	if err := c.Handshake("localhost", 25565, protocol.Status); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Status(context.Background()); !errors.Is(err, internal.ErrRequestTimeout) {
		t.Fatalf("expected ErrRequestTimeout, got %v", err)
	}
}

func TestClientInvokeAsync(t *testing.T) {
	c, srv := newClientPair(t)
	go func() {
		srv.expect(packets.HandshakeServerbound)
		e := srv.expect(packets.StatusServerbound)
		ping, _ := protocol.Narrow[sb.Ping](e)
		srv.reply(packets.StatusClientbound, cb.Pong{Payload: ping.Payload})
	}()

	if err := c.Handshake("localhost", 25565, protocol.Status); err != nil {
		t.Fatal(err)
	}
	done := make(chan *ResponseFuture, 1)
	err := c.InvokeAsync(context.Background(), sb.Ping{Payload: 5}, "ping", func(f *ResponseFuture) {
		done <- f
	})
	if err != nil {
		t.Fatal(err)
	}
	select {
	case f := <-done:
		if pong, ok := protocol.Narrow[cb.Pong](f.Response); f.Err != nil || !ok || pong.Payload != 5 {
			t.Fatalf("unexpected async result %v, %v", f.Response, f.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("callback did not run")
	}
}

func TestClientHandshakeRejectsPlay(t *testing.T) {
	c, _ := newClientPair(t)
	if err := c.Handshake("localhost", 25565, protocol.Play); err == nil {
		t.Fatalf("expected an error for a play handshake")
	}
}

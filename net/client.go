package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/gnet/pool/goroutine"
	"github.com/smallnest/goframe"

	"cobble/config"
	"cobble/internal/logging"
	"cobble/protocol"
	"cobble/protocol/packets"
	cb "cobble/protocol/packets/clientbound"
	sb "cobble/protocol/packets/serverbound"
)

var ErrClientClosed = errors.New("net: client closed")

// DisconnectError carries the reason a server gave for closing the
// connection.
type DisconnectError struct {
	Reason string
}

func (e *DisconnectError) Error() string {
	return fmt.Sprintf("disconnected by server: %s", e.Reason)
}

// Client is one connection to a server. It tracks the connection phase from
// the packets it sends and receives.
type Client struct {
	logger        logging.Logger
	clientConfig  *config.ClientConfig
	conn          goframe.FrameConn
	responseTable sync.Map
	onPacket      func(protocol.Envelope)

	phase   atomic.Int32
	version atomic.Int32
	closed  atomic.Bool
	done    chan struct{}

	workerPool *goroutine.Pool
}

func Dial(ctx context.Context, addr string, clientConfig *config.ClientConfig) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewClient(conn, clientConfig), nil
}

// NewClient starts reading frames from conn.
func NewClient(conn net.Conn, clientConfig *config.ClientConfig) *Client {
	c := &Client{
		logger:       clientConfig.Logger,
		clientConfig: clientConfig,
		conn:         NewFrameConn(conn, clientConfig.MaxFrameSize),
		done:         make(chan struct{}),
		workerPool:   goroutine.Default(),
	}
	c.phase.Store(int32(protocol.Handshake))
	c.version.Store(int32(clientConfig.Version))
	go func() {
		defer func() {
			if err := recover(); err != nil {
				c.logger.Errorf("receive packet error, addr: %s, err: %v", conn.RemoteAddr(), err)
			}
		}()
		c.receivePacket()
	}()
	return c
}

// OnPacket sets the callback for clientbound packets no request is waiting
// for. It runs on the receive goroutine.
func (c *Client) OnPacket(fn func(protocol.Envelope)) {
	c.onPacket = fn
}

func (c *Client) Phase() protocol.Phase {
	return protocol.Phase(c.phase.Load())
}

func (c *Client) Version() protocol.ProtocolVersion {
	return protocol.ProtocolVersion(c.version.Load())
}

func (c *Client) RemoteAddr() net.Addr {
	return c.conn.Conn().RemoteAddr()
}

// Done is closed when the receive loop exits.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Send encodes p with the serverbound registry of the current phase.
func (c *Client) Send(p any) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	reg, err := packets.Registry(c.Phase(), protocol.Serverbound)
	if err != nil {
		return err
	}
	data, err := reg.Marshal(p, c.Version())
	if err != nil {
		return err
	}
	return c.conn.WriteFrame(data)
}

func (c *Client) InvokeSync(ctx context.Context, p any, key string) (protocol.Envelope, error) {
	ctx, cancel := context.WithTimeout(ctx, c.clientConfig.RequestTimeout)
	defer cancel()
	resp := NewResponseFuture(ctx, key, nil)
	c.responseTable.Store(key, resp)
	defer c.responseTable.CompareAndDelete(key, resp)
	if err := c.Send(p); err != nil {
		return protocol.Envelope{}, err
	}
	return resp.waitResponse()
}

func (c *Client) InvokeAsync(ctx context.Context, p any, key string, callback func(future *ResponseFuture)) error {
	ctx, cancel := context.WithTimeout(ctx, c.clientConfig.RequestTimeout)
	resp := NewResponseFuture(ctx, key, callback)
	c.responseTable.Store(key, resp)
	if err := c.Send(p); err != nil {
		cancel()
		c.responseTable.Delete(key)
		return err
	}
	go func() {
		defer cancel()
		defer func() {
			if err := recover(); err != nil {
				c.logger.Errorf("receive message async error, err: %v", err)
			}
		}()
		c.receiveAsync(resp)
		c.responseTable.CompareAndDelete(key, resp)
	}()
	return nil
}

// Handshake announces the protocol version and switches to next, which must
// be Status or Login.
func (c *Client) Handshake(host string, port uint16, next protocol.Phase) error {
	var state sb.NextState
	switch next {
	case protocol.Status:
		state = sb.NextStateStatus{}
	case protocol.Login:
		state = sb.NextStateLogin{}
	default:
		return fmt.Errorf("net: cannot hand shake into %v", next)
	}
	err := c.Send(sb.Handshake{
		ProtocolVersion: c.Version(),
		ServerAddress:   host,
		ServerPort:      port,
		NextState:       state,
	})
	if err != nil {
		return err
	}
	c.phase.Store(int32(next))
	return nil
}

func (c *Client) Status(ctx context.Context) (packets.StatusJSON, error) {
	e, err := c.InvokeSync(ctx, sb.Request{}, "status")
	if err != nil {
		return packets.StatusJSON{}, err
	}
	resp, _ := protocol.Narrow[cb.Response](e)
	return packets.ParseStatus(resp)
}

// Ping measures the round trip of a status ping.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	payload := start.UnixNano()
	e, err := c.InvokeSync(ctx, sb.Ping{Payload: payload}, "ping")
	if err != nil {
		return 0, err
	}
	pong, _ := protocol.Narrow[cb.Pong](e)
	if pong.Payload != payload {
		return 0, fmt.Errorf("net: pong payload %d does not match ping %d", pong.Payload, payload)
	}
	return time.Since(start), nil
}

// Login sends LoginStart and waits for the server to accept or refuse it.
func (c *Client) Login(ctx context.Context, name string) (cb.LoginSuccess, error) {
	e, err := c.InvokeSync(ctx, sb.LoginStart{Name: name}, "login")
	if err != nil {
		return cb.LoginSuccess{}, err
	}
	success, _ := protocol.Narrow[cb.LoginSuccess](e)
	return success, nil
}

func (c *Client) ShutDown() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) Close() error {
	return c.ShutDown()
}

func (c *Client) receiveAsync(f *ResponseFuture) {
	_, _ = f.waitResponse()
	f.executeInvokeCallback()
}

func (c *Client) receivePacket() {
	defer close(c.done)
	defer c.failPending(ErrClientClosed)
	for {
		data, err := c.conn.ReadFrame()
		if err != nil {
			if !c.closed.Load() && err != io.EOF {
				c.logger.Errorf("conn error, close connection, addr: %s, err: %v", c.RemoteAddr(), err)
			}
			_ = c.ShutDown()
			return
		}

		reg, err := packets.Registry(c.Phase(), protocol.Clientbound)
		if err != nil {
			c.logger.Errorf("no registry for phase %v: %v", c.Phase(), err)
			_ = c.ShutDown()
			return
		}
		e, err := reg.Unmarshal(data, c.Version())
		if err != nil {
			// Servers send far more packets than this client binds.
			if protocol.IsUnrecognized(err) {
				c.logger.Debugf("skipping packet: %v", err)
				continue
			}
			c.logger.Errorf("decode packet error, err: %v", err)
			_ = c.ShutDown()
			return
		}
		if !c.processPacket(e) {
			_ = c.ShutDown()
			return
		}
	}
}

// processPacket applies phase changes inline and reports false when the
// connection should close.
func (c *Client) processPacket(e protocol.Envelope) bool {
	switch p := e.Packet.(type) {
	case cb.Response:
		c.resolve("status", e, nil)
	case cb.Pong:
		c.resolve("ping", e, nil)
	case cb.LoginSuccess:
		c.phase.Store(int32(protocol.Play))
		c.resolve("login", e, nil)
	case cb.SetCompression:
		c.resolve("login", e, fmt.Errorf("net: server requested compression at %d bytes", p.Threshold))
		return false
	case cb.LoginDisconnect:
		c.resolve("login", e, &DisconnectError{Reason: p.Reason})
		return false
	case cb.Disconnect:
		c.failPending(&DisconnectError{Reason: p.Reason})
		return false
	case cb.KeepAlive:
		if err := c.Send(sb.KeepAlive{ID: p.ID}); err != nil {
			c.logger.Warnf("send keep alive error, err: %v", err)
		}
	default:
		if c.onPacket != nil {
			c.onPacket(e)
		}
	}
	return true
}

func (c *Client) resolve(key string, e protocol.Envelope, err error) {
	v, ok := c.responseTable.LoadAndDelete(key)
	if !ok {
		if c.onPacket != nil {
			c.onPacket(e)
		}
		return
	}
	f := v.(*ResponseFuture)
	f.complete(e, err)
	if f.callback != nil {
		if err := c.workerPool.Submit(f.executeInvokeCallback); err != nil {
			c.logger.Warnf("submit func to workerpool error, err: %v", err)
		}
	}
}

func (c *Client) failPending(err error) {
	c.responseTable.Range(func(k, v any) bool {
		c.responseTable.Delete(k)
		v.(*ResponseFuture).complete(protocol.Envelope{}, err)
		return true
	})
}

package net

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/gnet/pool/goroutine"
	"golang.org/x/time/rate"

	"cobble/protocol"
	"cobble/protocol/packets"
)

// sessionConn is the part of gnet.Conn a Session writes through.
type sessionConn interface {
	AsyncWrite(buf []byte) error
	RemoteAddr() net.Addr
	Close() error
}

// Session is the protocol state of one client connection. Phase and version
// are read by the event loop and written by handlers, so both are atomic.
type Session struct {
	id      uint64
	conn    sessionConn
	limiter *rate.Limiter
	opened  time.Time

	phase   atomic.Int32
	version atomic.Int32

	mu       sync.Mutex
	username string
	uuid     uuid.UUID

	keepAliveID   atomic.Uint64
	keepAliveSent atomic.Int64
	lastKeepAlive atomic.Int64

	queueMu sync.Mutex
	queue   []func()
	running bool
}

func newSession(id uint64, conn sessionConn, limiter *rate.Limiter, version protocol.ProtocolVersion) *Session {
	s := &Session{
		id:      id,
		conn:    conn,
		limiter: limiter,
		opened:  time.Now(),
	}
	s.phase.Store(int32(protocol.Handshake))
	s.version.Store(int32(version))
	return s
}

func (s *Session) ID() uint64 { return s.id }

func (s *Session) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

func (s *Session) Phase() protocol.Phase {
	return protocol.Phase(s.phase.Load())
}

func (s *Session) SetPhase(p protocol.Phase) {
	s.phase.Store(int32(p))
}

func (s *Session) Version() protocol.ProtocolVersion {
	return protocol.ProtocolVersion(s.version.Load())
}

func (s *Session) SetVersion(v protocol.ProtocolVersion) {
	s.version.Store(int32(v))
}

func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

func (s *Session) UUID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uuid
}

func (s *Session) setPlayer(name string, id uuid.UUID) {
	s.mu.Lock()
	s.username, s.uuid = name, id
	s.mu.Unlock()
}

// Marshal encodes p with the clientbound registry of the current phase.
func (s *Session) Marshal(p any) ([]byte, error) {
	reg, err := packets.Registry(s.Phase(), protocol.Clientbound)
	if err != nil {
		return nil, err
	}
	data, err := reg.Marshal(p, s.Version())
	if err != nil {
		return nil, err
	}
	if e, err := reg.Widen(p); err == nil {
		RecordEncoded(reg.Name(), e.Name)
	}
	return data, nil
}

// Send encodes p right away, so a phase change after Send does not affect it,
// and queues the frame on the connection.
func (s *Session) Send(p any) error {
	data, err := s.Marshal(p)
	if err != nil {
		return err
	}
	return s.conn.AsyncWrite(data)
}

func (s *Session) Close() error {
	return s.conn.Close()
}

// enqueue runs job on pool after every job queued before it on this session
// has finished. At most one pool goroutine drains a session at a time.
func (s *Session) enqueue(pool *goroutine.Pool, job func()) error {
	s.queueMu.Lock()
	s.queue = append(s.queue, job)
	if s.running {
		s.queueMu.Unlock()
		return nil
	}
	s.running = true
	s.queueMu.Unlock()

	if err := pool.Submit(s.drain); err != nil {
		s.queueMu.Lock()
		s.queue = nil
		s.running = false
		s.queueMu.Unlock()
		return err
	}
	return nil
}

func (s *Session) drain() {
	for {
		s.queueMu.Lock()
		if len(s.queue) == 0 {
			s.running = false
			s.queueMu.Unlock()
			return
		}
		job := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.queueMu.Unlock()
		job()
	}
}

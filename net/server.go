package net

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/gnet"
	"github.com/panjf2000/gnet/pool/goroutine"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"cobble/config"
	"cobble/internal"
	"cobble/internal/logging"
	"cobble/protocol"
	"cobble/protocol/packets"
	cb "cobble/protocol/packets/clientbound"
	sb "cobble/protocol/packets/serverbound"
)

const maxUsernameLength = 16

var ErrServerClosed = errors.New("net: server closed")

// HandlerFunc handles one decoded packet. Every value it returns is sent back
// to the session as a clientbound packet of the session's current phase.
type HandlerFunc func(s *Session, e protocol.Envelope) []any

type Server struct {
	gnet.EventServer
	logger   logging.Logger
	handlers map[reflect.Type]HandlerFunc
	onLogin  func(s *Session) []any

	serverConfig *config.ServerConfig

	codec      gnet.ICodec
	workerPool *goroutine.Pool

	sessions sync.Map
	online   atomic.Int32
	nextID   atomic.Uint64
	shutdown atomic.Bool
	metrics  *http.Server
}

func NewServer(serverConfig *config.ServerConfig) *Server {
	server := &Server{
		handlers: make(map[reflect.Type]HandlerFunc),
		logger:   serverConfig.Logger,
	}
	server.codec = NewFrameCodec(serverConfig.MaxFrameSize, func(c gnet.Conn, err error) {
		server.logger.Warnf("bad frame from %s, closing: %v", c.RemoteAddr(), err)
		RecordDecodeError("frame", err, "disconnect")
		RecordDisconnect("bad_frame")
	})
	server.serverConfig = serverConfig
	server.workerPool = goroutine.Default()

	Handle(server, server.status)
	Handle(server, server.ping)
	Handle(server, server.keepAlive)
	return server
}

// Handle registers fn for packets of type P, replacing any earlier handler.
// It must be called before Start.
func Handle[P any](s *Server, fn func(*Session, P) []any) {
	t := reflect.TypeOf((*P)(nil)).Elem()
	s.handlers[t] = func(sess *Session, e protocol.Envelope) []any {
		p, ok := protocol.Narrow[P](e)
		if !ok {
			return nil
		}
		return fn(sess, p)
	}
}

// OnLogin sets the packets sent to a player right after login succeeds.
func (s *Server) OnLogin(fn func(s *Session) []any) {
	s.onLogin = fn
}

// Online is the number of sessions in the play phase.
func (s *Server) Online() int {
	return int(s.online.Load())
}

func (s *Server) Start() error {
	if s.shutdown.Load() {
		return ErrServerClosed
	}
	if addr := s.serverConfig.MetricsAddr; addr != "" {
		RegisterMetrics()
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		s.metrics = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := s.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Errorf("metrics server error, err: %v", err)
			}
		}()
	}

	return gnet.Serve(s, s.serverConfig.Addr, func(opts *gnet.Options) {
		opts.Logger = s.serverConfig.Logger
		opts.Codec = s.codec
		opts.Multicore = s.serverConfig.Multicore
		opts.NumEventLoop = int(s.serverConfig.EventLoopNum)
		opts.TCPKeepAlive = s.serverConfig.TcpKeepAlive
		opts.LB = s.serverConfig.LoadBalance
		opts.Ticker = true
	})
}

// ShutDown stops the event loops on their next tick.
func (s *Server) ShutDown() {
	s.shutdown.Store(true)
	if s.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.metrics.Shutdown(ctx)
	}
}

func (s *Server) OnInitComplete(srv gnet.Server) (action gnet.Action) {
	if s.serverConfig.PrintBanner {
		s.logger.Infof(internal.BannerString())
	}
	s.logger.Infof("[COBBLE] server is listening on %s (multi-cores: %t, loops: %d, protocol: %s)",
		srv.Addr.String(), srv.Multicore, srv.NumEventLoop, s.serverConfig.Version)
	return
}

func (s *Server) OnOpened(c gnet.Conn) (out []byte, action gnet.Action) {
	s.openSession(c)
	return
}

func (s *Server) openSession(c sessionConn) *Session {
	limiter := rate.NewLimiter(rate.Limit(s.serverConfig.PacketsPerSecond), s.serverConfig.PacketBurst)
	sess := newSession(s.nextID.Add(1), c, limiter, s.serverConfig.Version)
	if gc, ok := c.(gnet.Conn); ok {
		gc.SetContext(sess)
	}
	s.sessions.Store(sess.id, sess)
	RecordSessionOpened()
	s.logger.Debugf("session %d opened from %s", sess.id, c.RemoteAddr())
	return sess
}

func (s *Server) OnClosed(c gnet.Conn, err error) (action gnet.Action) {
	if sess, ok := c.Context().(*Session); ok {
		s.closeSession(sess, err)
	}
	return
}

func (s *Server) closeSession(sess *Session, err error) {
	if _, loaded := s.sessions.LoadAndDelete(sess.id); !loaded {
		return
	}
	if sess.Phase() == protocol.Play && sess.Username() != "" {
		s.online.Add(-1)
	}
	RecordSessionClosed()
	if err != nil {
		s.logger.Debugf("session %d closed: %v", sess.id, err)
		return
	}
	s.logger.Debugf("session %d closed", sess.id)
}

func (s *Server) React(frame []byte, c gnet.Conn) (out []byte, action gnet.Action) {
	sess, ok := c.Context().(*Session)
	if !ok {
		return nil, gnet.Close
	}
	return s.react(sess, frame)
}

// react decodes one frame against the session's current phase and either
// handles it inline or queues it for the session's handlers.
func (s *Server) react(sess *Session, frame []byte) ([]byte, gnet.Action) {
	phase := sess.Phase()
	RecordFrame(phase, len(frame))
	if !sess.limiter.Allow() {
		s.logger.Warnf("session %d exceeded %v packets/s, closing", sess.id, s.serverConfig.PacketsPerSecond)
		RecordDisconnect("rate_limited")
		return nil, gnet.Close
	}

	reg, err := packets.Registry(phase, protocol.Serverbound)
	if err != nil {
		s.logger.Errorf("session %d in unknown phase: %v", sess.id, err)
		return nil, gnet.Close
	}
	e, err := reg.Unmarshal(frame, sess.Version())
	if err != nil {
		if s.serverConfig.UnknownPackets == config.Skip && protocol.IsUnrecognized(err) {
			s.logger.Debugf("session %d: skipping frame: %v", sess.id, err)
			RecordDecodeError(reg.Name(), err, "skip")
			return nil, gnet.None
		}
		s.logger.Warnf("session %d: %v", sess.id, err)
		RecordDecodeError(reg.Name(), err, "disconnect")
		RecordDisconnect("decode_error")
		return nil, gnet.Close
	}
	RecordDecoded(reg.Name(), e.Name)
	s.logger.Debugf("session %d receive packet: %v", sess.id, e)

	switch p := e.Packet.(type) {
	case sb.Handshake:
		return s.handshake(sess, p)
	case sb.LoginStart:
		return s.login(sess, p)
	}

	h := s.handlers[reflect.TypeOf(e.Packet)]
	if h == nil {
		s.logger.Debugf("there is no handler registered for %s", e.Name)
		return nil, gnet.None
	}
	job := func() { s.run(sess, e, h) }
	if phase != protocol.Play {
		job()
		return nil, gnet.None
	}
	if err := sess.enqueue(s.workerPool, job); err != nil {
		s.logger.Warnf("submit func to workerpool error, err: %v", err)
	}
	return nil, gnet.None
}

func (s *Server) run(sess *Session, e protocol.Envelope, h HandlerFunc) {
	defer func() {
		if err := recover(); err != nil {
			s.logger.Errorf("handler for %s panicked: %v", e.Name, err)
		}
	}()
	start := time.Now()
	replies := h(sess, e)
	RecordHandler(e.Name, time.Since(start))
	s.sendAll(sess, replies)
}

func (s *Server) sendAll(sess *Session, replies []any) {
	for _, p := range replies {
		if err := sess.Send(p); err != nil {
			s.logger.Warnf("send packet error, packet: %T, err: %v", p, err)
		}
	}
}

func (s *Server) disconnect(sess *Session, reason string, metric string) ([]byte, gnet.Action) {
	var p any = cb.Disconnect{Reason: packets.Chat(reason)}
	if sess.Phase() == protocol.Login {
		p = cb.LoginDisconnect{Reason: packets.Chat(reason)}
	}
	RecordDisconnect(metric)
	out, err := sess.Marshal(p)
	if err != nil {
		s.logger.Errorf("encode disconnect error, err: %v", err)
		return nil, gnet.Close
	}
	return out, gnet.Close
}

func (s *Server) handshake(sess *Session, p sb.Handshake) ([]byte, gnet.Action) {
	sess.SetVersion(p.ProtocolVersion)
	sess.SetPhase(p.Phase())
	s.logger.Debugf("session %d handshake: protocol %d, next %v", sess.id, p.ProtocolVersion, p.Phase())

	if sess.Phase() == protocol.Login && sess.Version() != s.serverConfig.Version {
		return s.disconnect(sess, fmt.Sprintf("Outdated client! Please use %s", s.serverConfig.Version.Name()), "version_mismatch")
	}
	return nil, gnet.None
}

func (s *Server) login(sess *Session, p sb.LoginStart) ([]byte, gnet.Action) {
	if p.Name == "" || len(p.Name) > maxUsernameLength {
		return s.disconnect(sess, "Invalid username", "bad_username")
	}
	if s.serverConfig.MaxPlayers > 0 && s.Online() >= s.serverConfig.MaxPlayers {
		return s.disconnect(sess, "The server is full!", "server_full")
	}

	id := OfflineUUID(p.Name)
	sess.setPlayer(p.Name, id)
	out, err := sess.Marshal(cb.LoginSuccess{UUID: id, Username: p.Name})
	if err != nil {
		s.logger.Errorf("encode login success error, err: %v", err)
		return nil, gnet.Close
	}
	sess.SetPhase(protocol.Play)
	sess.lastKeepAlive.Store(time.Now().UnixNano())
	s.online.Add(1)
	s.logger.Infof("%s (%s) logged in from %s", p.Name, id, sess.RemoteAddr())

	if s.onLogin != nil {
		job := func() {
			s.sendAll(sess, s.onLogin(sess))
		}
		if err := sess.enqueue(s.workerPool, job); err != nil {
			s.logger.Warnf("submit func to workerpool error, err: %v", err)
		}
	}
	return out, gnet.None
}

// OfflineUUID derives the version 3 UUID an offline mode server assigns to
// a player name.
func OfflineUUID(name string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = sum[6]&0x0f | 0x30
	sum[8] = sum[8]&0x3f | 0x80
	return uuid.UUID(sum)
}

func (s *Server) status(sess *Session, _ sb.Request) []any {
	st := packets.NewStatus(s.serverConfig.Version, s.serverConfig.MOTD, s.serverConfig.MaxPlayers, s.Online())
	resp, err := st.Response()
	if err != nil {
		s.logger.Errorf("encode status error, err: %v", err)
		return nil
	}
	return []any{resp}
}

func (s *Server) ping(sess *Session, p sb.Ping) []any {
	return []any{cb.Pong{Payload: p.Payload}}
}

func (s *Server) keepAlive(sess *Session, p sb.KeepAlive) []any {
	if want := sess.keepAliveID.Load(); want == 0 || p.ID != want {
		s.logger.Debugf("session %d: unexpected keep alive %d", sess.id, p.ID)
		return nil
	}
	sess.keepAliveID.Store(0)
	RecordKeepAlive(time.Duration(time.Now().UnixNano() - sess.keepAliveSent.Load()))
	return nil
}

func (s *Server) Tick() (delay time.Duration, action gnet.Action) {
	if s.shutdown.Load() {
		s.logger.Infof("[COBBLE] shutting down")
		return 0, gnet.Shutdown
	}
	s.probe(time.Now())
	return time.Second, gnet.None
}

// probe sends a keep alive to every play session whose last probe is older
// than the configured interval, and closes sessions that left the previous
// probe unanswered.
func (s *Server) probe(now time.Time) {
	interval := s.serverConfig.KeepAliveInterval
	if interval <= 0 {
		return
	}
	s.sessions.Range(func(_, v any) bool {
		sess := v.(*Session)
		if sess.Phase() != protocol.Play {
			return true
		}
		if now.Sub(time.Unix(0, sess.lastKeepAlive.Load())) < interval {
			return true
		}
		if sess.keepAliveID.Load() != 0 {
			s.logger.Infof("session %d timed out", sess.id)
			RecordDisconnect("keepalive_timeout")
			_ = sess.Close()
			return true
		}
		id := uint64(now.UnixNano())
		sess.keepAliveID.Store(id)
		sess.keepAliveSent.Store(now.UnixNano())
		sess.lastKeepAlive.Store(now.UnixNano())
		if err := sess.Send(cb.KeepAlive{ID: id}); err != nil {
			s.logger.Warnf("send keep alive error, err: %v", err)
		}
		return true
	})
}

package net

import (
	"net"

	"cobble/protocol"
)

// Sender is one end of a connection that packets can be sent through.
type Sender interface {
	Send(p any) error
	RemoteAddr() net.Addr
	Close() error
}

var (
	_ Sender = (*Session)(nil)
	_ Sender = (*Client)(nil)
)

// Broadcast sends p to every session in the play phase and returns how many
// sessions accepted it.
func (s *Server) Broadcast(p any) int {
	var targets []Sender
	s.sessions.Range(func(_, v any) bool {
		if sess := v.(*Session); sess.Phase() == protocol.Play {
			targets = append(targets, sess)
		}
		return true
	})
	return s.sendTo(targets, p)
}

func (s *Server) sendTo(targets []Sender, p any) int {
	sent := 0
	for _, t := range targets {
		if err := t.Send(p); err != nil {
			s.logger.Warnf("send to %s error, packet: %T, err: %v", t.RemoteAddr(), p, err)
			continue
		}
		sent++
	}
	return sent
}

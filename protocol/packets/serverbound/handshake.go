// Package serverbound declares the packets a client sends to the server.
package serverbound

import (
	"cobble/protocol"
)

// Handshake is the first packet on every connection. NextState picks the
// phase the connection switches to.
type Handshake struct {
	ProtocolVersion protocol.ProtocolVersion `wire:"varint"`
	ServerAddress   string
	ServerPort      uint16
	NextState       NextState
}

type NextState interface {
	nextState()
}

type (
	NextStateStatus struct{}
	NextStateLogin  struct{}
)

func (NextStateStatus) nextState() {}
func (NextStateLogin) nextState()  {}

var NextStates = protocol.RegisterVariant[NextState]("NextState", protocol.VarInt,
	protocol.Case(1, "Status", NextStateStatus{}),
	protocol.Case(2, "Login", NextStateLogin{}),
)

// Phase returns the phase the handshake asks for.
func (h Handshake) Phase() protocol.Phase {
	if _, ok := h.NextState.(NextStateLogin); ok {
		return protocol.Login
	}
	return protocol.Status
}

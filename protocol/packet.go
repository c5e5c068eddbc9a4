package protocol

import (
	"fmt"
	"strings"
)

// Phase is the connection state that selects which packet set is in use.
type Phase byte

const (
	Handshake = Phase(0)
	Status    = Phase(1)
	Login     = Phase(2)
	Play      = Phase(3)
)

var phaseNames = [...]string{"handshake", "status", "login", "play"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", byte(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if strings.EqualFold(string(b), name) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("protocol: unknown phase %q", b)
}

// Direction is which peer sends a packet.
type Direction byte

const (
	Serverbound = Direction(0)
	Clientbound = Direction(1)
)

func (d Direction) String() string {
	switch d {
	case Serverbound:
		return "serverbound"
	case Clientbound:
		return "clientbound"
	default:
		return fmt.Sprintf("direction(%d)", byte(d))
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "serverbound", "server":
		*d = Serverbound
	case "clientbound", "client":
		*d = Clientbound
	default:
		return fmt.Errorf("protocol: unknown direction %q", b)
	}
	return nil
}

// Envelope is a decoded packet together with the ID it was bound to. Packet
// always holds a struct value, never a pointer.
type Envelope struct {
	ID     int32
	Name   string
	Packet any
}

func (e Envelope) String() string {
	return fmt.Sprintf("%s(0x%02x)", e.Name, e.ID)
}

// Narrow returns the packet as P if that is the kind the envelope carries.
func Narrow[P any](e Envelope) (P, bool) {
	p, ok := e.Packet.(P)
	return p, ok
}

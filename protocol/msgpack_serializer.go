package protocol

import (
	"github.com/shamaton/msgpack/v2"
)

var (
	MSGPACK = &MsgpackSerializer{}
)

// MsgpackSerializer writes dumps as MessagePack for tools that post-process
// captures.
type MsgpackSerializer struct{}

func (m *MsgpackSerializer) Marshal(e Envelope) ([]byte, error) {
	return msgpack.Marshal(NewDump(e))
}

func (m *MsgpackSerializer) UnMarshal(bs []byte) (*Dump, error) {
	d := new(Dump)
	return d, msgpack.Unmarshal(bs, d)
}

package clientbound

import (
	"github.com/google/uuid"
)

type LoginDisconnect struct {
	Reason string
}

type EncryptionRequest struct {
	ServerID    string
	PublicKey   []byte
	VerifyToken []byte
}

type LoginSuccess struct {
	UUID     uuid.UUID
	Username string
}

type SetCompression struct {
	Threshold int32 `wire:"varint"`
}

type LoginPluginRequest struct {
	MessageID int32 `wire:"varint"`
	Channel   string
	Data      []byte `wire:"rest"`
}

package serverbound

type LoginStart struct {
	Name string
}

type EncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte
}

type LoginPluginResponse struct {
	MessageID  int32 `wire:"varint"`
	Successful bool
	Data       []byte `wire:"rest"`
}

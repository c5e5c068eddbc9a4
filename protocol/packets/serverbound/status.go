package serverbound

type Request struct{}

type Ping struct {
	Payload int64
}

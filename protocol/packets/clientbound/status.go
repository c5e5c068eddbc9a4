// Package clientbound declares the packets the server sends to a client.
package clientbound

// Response carries the server list status as a JSON document.
type Response struct {
	JSONResponse string
}

type Pong struct {
	Payload int64
}

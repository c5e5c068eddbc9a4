package net

import (
	"context"
	"sync"

	"cobble/internal"
	"cobble/protocol"
)

// ResponseFuture waits for the clientbound packet answering a request. Key
// names the reply kind, e.g. "status" or "login".
type ResponseFuture struct {
	Response     protocol.Envelope
	Err          error
	Key          string
	callback     func(*ResponseFuture)
	Done         chan bool
	callbackOnce sync.Once
	ctx          context.Context
}

func NewResponseFuture(ctx context.Context, key string, callback func(*ResponseFuture)) *ResponseFuture {
	return &ResponseFuture{
		Key:      key,
		Done:     make(chan bool, 1),
		callback: callback,
		ctx:      ctx,
	}
}

func (r *ResponseFuture) complete(e protocol.Envelope, err error) {
	r.Response, r.Err = e, err
	select {
	case r.Done <- true:
	default:
	}
}

func (r *ResponseFuture) executeInvokeCallback() {
	r.callbackOnce.Do(func() {
		if r.callback != nil {
			r.callback(r)
		}
	})
}

func (r *ResponseFuture) waitResponse() (protocol.Envelope, error) {
	var (
		e   protocol.Envelope
		err error
	)
	select {
	case <-r.Done:
		e, err = r.Response, r.Err
	case <-r.ctx.Done():
		err = internal.ErrRequestTimeout
		r.Err = err
	}
	return e, err
}

package net

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/panjf2000/gnet"
	"github.com/smallnest/goframe"

	"cobble/protocol"
)

var ErrFrameTooLarge = errors.New("net: frame too large")

// splitFrame finds the first complete frame in buf. It returns the frame body
// and the number of bytes the frame spans including its length prefix. A nil
// body with a nil error means buf does not hold a whole frame yet.
func splitFrame(buf []byte, maxSize int) ([]byte, int, error) {
	r := protocol.NewReader(buf)
	length, err := protocol.ReadVarInt(r, protocol.CurrentVersion)
	if errors.Is(err, protocol.ErrTruncatedInput) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	if length < 0 || int(length) > maxSize {
		return nil, 0, fmt.Errorf("%w: %d bytes, limit %d", ErrFrameTooLarge, length, maxSize)
	}
	header := r.Offset()
	if len(buf)-header < int(length) {
		return nil, 0, nil
	}
	return buf[header : header+int(length)], header + int(length), nil
}

// FrameCodec is a gnet.ICodec for VarInt length prefixed frames.
//
// gnet drops Decode errors and only stops reading, so a malformed prefix
// closes the connection from inside Decode.
type FrameCodec struct {
	MaxFrameSize int
	OnError      func(c gnet.Conn, err error)
}

func NewFrameCodec(maxFrameSize int, onError func(c gnet.Conn, err error)) *FrameCodec {
	return &FrameCodec{MaxFrameSize: maxFrameSize, OnError: onError}
}

func (fc *FrameCodec) Encode(c gnet.Conn, buf []byte) ([]byte, error) {
	out := make([]byte, 0, len(buf)+protocol.MaxVarIntLen)
	out = protocol.AppendVarInt(out, int32(len(buf)))
	return append(out, buf...), nil
}

func (fc *FrameCodec) Decode(c gnet.Conn) ([]byte, error) {
	frame, n, err := splitFrame(c.Read(), fc.MaxFrameSize)
	if err != nil {
		c.ResetBuffer()
		if fc.OnError != nil {
			fc.OnError(c, err)
		}
		_ = c.Close()
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]byte, len(frame))
	copy(out, frame)
	c.ShiftN(n)
	return out, nil
}

// FrameConn speaks VarInt length prefixed frames over a plain net.Conn.
type FrameConn struct {
	conn         net.Conn
	r            *bufio.Reader
	maxFrameSize int

	writeMu sync.Mutex
}

var _ goframe.FrameConn = (*FrameConn)(nil)

func NewFrameConn(conn net.Conn, maxFrameSize int) *FrameConn {
	return &FrameConn{
		conn:         conn,
		r:            bufio.NewReader(conn),
		maxFrameSize: maxFrameSize,
	}
}

func (fc *FrameConn) ReadFrame() ([]byte, error) {
	var prefix []byte
	for {
		b, err := fc.r.ReadByte()
		if err != nil {
			if len(prefix) > 0 && err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		prefix = append(prefix, b)
		if b&0x80 == 0 {
			break
		}
		if len(prefix) == protocol.MaxVarIntLen {
			return nil, protocol.ErrCorruptVarInt
		}
	}
	length, err := protocol.ReadVarInt(protocol.NewReader(prefix), protocol.CurrentVersion)
	if err != nil {
		return nil, err
	}
	if length < 0 || int(length) > fc.maxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFrameTooLarge, length, fc.maxFrameSize)
	}
	frame := make([]byte, length)
	if _, err := io.ReadFull(fc.r, frame); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return frame, nil
}

func (fc *FrameConn) WriteFrame(p []byte) error {
	if len(p) > fc.maxFrameSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFrameTooLarge, len(p), fc.maxFrameSize)
	}
	out := make([]byte, 0, len(p)+protocol.MaxVarIntLen)
	out = protocol.AppendVarInt(out, int32(len(p)))
	out = append(out, p...)

	fc.writeMu.Lock()
	defer fc.writeMu.Unlock()
	_, err := fc.conn.Write(out)
	return err
}

func (fc *FrameConn) Close() error {
	return fc.conn.Close()
}

func (fc *FrameConn) Conn() net.Conn {
	return fc.conn
}

package protocol

import "io"

// Reader is a read cursor over the bytes of one frame. It belongs to the
// decode call that created it and is never shared between goroutines.
type Reader struct {
	buf []byte
	off int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

func (r *Reader) Offset() int {
	return r.off
}

func (r *Reader) ReadByte() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, ErrTruncatedInput
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

// ReadN returns the next n bytes. The result aliases the underlying buffer;
// callers that keep it must copy.
func (r *Reader) ReadN(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeLength
	}
	if r.Remaining() < n {
		return nil, ErrTruncatedInput
	}
	b := r.buf[r.off : r.off+n : r.off+n]
	r.off += n
	return b, nil
}

// ReadRest consumes everything left in the current scope.
func (r *Reader) ReadRest() []byte {
	b := r.buf[r.off:]
	r.off = len(r.buf)
	return b
}

// Read implements io.Reader so nested decoders (NBT) can consume the cursor.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.off >= len(r.buf) {
		return 0, io.EOF
	}
	n := copy(p, r.buf[r.off:])
	r.off += n
	return n, nil
}

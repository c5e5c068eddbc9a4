package protocol

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxVarIntLen  = 5
	MaxVarLongLen = 10

	// MaxStringLength is the largest string, in characters, the game accepts
	// in any field.
	MaxStringLength = 32767
)

// ReadVarInt decodes a 7-bits-per-group, least-significant-group-first
// integer of at most five groups. Negative values are carried as raw two's
// complement, not zig-zag.
func ReadVarInt(r *Reader, _ ProtocolVersion) (int32, error) {
	var result uint32
	for i := 0; i < MaxVarIntLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return int32(result), nil
		}
	}
	return 0, ErrCorruptVarInt
}

// AppendVarInt appends the minimal group encoding of n to dst.
func AppendVarInt(dst []byte, n int32) []byte {
	u := uint32(n)
	for u >= 0x80 {
		dst = append(dst, byte(u)|0x80)
		u >>= 7
	}
	return append(dst, byte(u))
}

func WriteVarInt(w *bytes.Buffer, n int32, _ ProtocolVersion) {
	var tmp [MaxVarIntLen]byte
	w.Write(AppendVarInt(tmp[:0], n))
}

// VarIntSize returns the number of bytes WriteVarInt emits for n.
func VarIntSize(n int32) int {
	u := uint32(n)
	size := 1
	for u >= 0x80 {
		u >>= 7
		size++
	}
	return size
}

func ReadVarLong(r *Reader, _ ProtocolVersion) (int64, error) {
	var result uint64
	for i := 0; i < MaxVarLongLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return int64(result), nil
		}
	}
	return 0, ErrCorruptVarLong
}

func WriteVarLong(w *bytes.Buffer, n int64, _ ProtocolVersion) {
	var tmp [MaxVarLongLen]byte
	buf := tmp[:0]
	u := uint64(n)
	for u >= 0x80 {
		buf = append(buf, byte(u)|0x80)
		u >>= 7
	}
	w.Write(append(buf, byte(u)))
}

// ReadString reads a VarInt byte length followed by that many bytes of UTF-8.
func ReadString(r *Reader, v ProtocolVersion) (string, error) {
	n, err := ReadVarInt(r, v)
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", ErrNegativeLength
	}
	if int(n) > MaxStringLength*utf8.UTFMax {
		return "", ErrStringTooLong
	}
	b, err := r.ReadN(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	if utf8.RuneCount(b) > MaxStringLength {
		return "", ErrStringTooLong
	}
	return string(b), nil
}

func WriteString(w *bytes.Buffer, s string, v ProtocolVersion) error {
	if !utf8.ValidString(s) {
		return ErrInvalidUTF8
	}
	if utf8.RuneCountInString(s) > MaxStringLength {
		return ErrStringTooLong
	}
	WriteVarInt(w, int32(len(s)), v)
	w.WriteString(s)
	return nil
}

func ReadBool(r *Reader, _ ProtocolVersion) (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

func WriteBool(w *bytes.Buffer, b bool, _ ProtocolVersion) {
	if b {
		w.WriteByte(0x01)
		return
	}
	w.WriteByte(0x00)
}

func ReadUint16(r *Reader, _ ProtocolVersion) (uint16, error) {
	b, err := r.ReadN(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func WriteUint16(w *bytes.Buffer, n uint16, _ ProtocolVersion) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], n)
	w.Write(tmp[:])
}

func ReadUint32(r *Reader, _ ProtocolVersion) (uint32, error) {
	b, err := r.ReadN(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func WriteUint32(w *bytes.Buffer, n uint32, _ ProtocolVersion) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], n)
	w.Write(tmp[:])
}

func ReadUint64(r *Reader, _ ProtocolVersion) (uint64, error) {
	b, err := r.ReadN(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func WriteUint64(w *bytes.Buffer, n uint64, _ ProtocolVersion) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], n)
	w.Write(tmp[:])
}

func ReadFloat32(r *Reader, v ProtocolVersion) (float32, error) {
	n, err := ReadUint32(r, v)
	return math.Float32frombits(n), err
}

func WriteFloat32(w *bytes.Buffer, f float32, v ProtocolVersion) {
	WriteUint32(w, math.Float32bits(f), v)
}

func ReadFloat64(r *Reader, v ProtocolVersion) (float64, error) {
	n, err := ReadUint64(r, v)
	return math.Float64frombits(n), err
}

func WriteFloat64(w *bytes.Buffer, f float64, v ProtocolVersion) {
	WriteUint64(w, math.Float64bits(f), v)
}

// ReadAngle decodes a rotation stored as 1/256 of a full turn into degrees.
func ReadAngle(r *Reader, _ ProtocolVersion) (float32, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	return float32(b) * 360 / 256, nil
}

// WriteAngle truncates toward zero and wraps, so -90 and 270 share a byte.
func WriteAngle(w *bytes.Buffer, deg float32, _ ProtocolVersion) {
	w.WriteByte(byte(int64(deg * 256 / 360)))
}

func ReadUUID(r *Reader, _ ProtocolVersion) (uuid.UUID, error) {
	var id uuid.UUID
	b, err := r.ReadN(len(id))
	if err != nil {
		return uuid.Nil, err
	}
	copy(id[:], b)
	return id, nil
}

func WriteUUID(w *bytes.Buffer, id uuid.UUID, _ ProtocolVersion) {
	w.Write(id[:])
}

// BlockPosition is a block coordinate packed into 64 bits on the wire:
// 26 bits of X, 26 bits of Z, 12 bits of Y. X and Z range over
// [-33554432, 33554431] and Y over [-2048, 2047].
type BlockPosition struct {
	X, Y, Z int32
}

func (p BlockPosition) Pack() uint64 {
	return (uint64(p.X)&0x3ffffff)<<38 | (uint64(p.Z)&0x3ffffff)<<12 | uint64(p.Y)&0xfff
}

func UnpackBlockPosition(n uint64) BlockPosition {
	return BlockPosition{
		X: int32(int64(n) >> 38),
		Y: int32(int64(n<<52) >> 52),
		Z: int32(int64(n<<26) >> 38),
	}
}

func ReadBlockPosition(r *Reader, v ProtocolVersion) (BlockPosition, error) {
	n, err := ReadUint64(r, v)
	if err != nil {
		return BlockPosition{}, err
	}
	return UnpackBlockPosition(n), nil
}

func WriteBlockPosition(w *bytes.Buffer, p BlockPosition, v ProtocolVersion) {
	WriteUint64(w, p.Pack(), v)
}

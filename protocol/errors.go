package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrTruncatedInput      = errors.New("protocol: truncated input")
	ErrCorruptVarInt       = errors.New("protocol: corrupt varint")
	ErrCorruptVarLong      = errors.New("protocol: corrupt varlong")
	ErrInvalidUTF8         = errors.New("protocol: invalid utf-8")
	ErrStringTooLong       = errors.New("protocol: string too long")
	ErrNegativeLength      = errors.New("protocol: negative length")
	ErrUnknownVariant      = errors.New("protocol: unknown variant")
	ErrUnknownPacketID     = errors.New("protocol: unknown packet id")
	ErrUnregisteredVariant = errors.New("protocol: value is not a registered variant")
	ErrUnboundPacket       = errors.New("protocol: packet type is not bound in registry")
	ErrTrailingBytes       = errors.New("protocol: trailing bytes after packet")
)

// FieldError annotates a failure with the field and the enclosing packet or
// variant that was being read or written. The cause stays reachable through
// errors.Is and errors.As.
type FieldError struct {
	Type  string
	Field string
	Op    string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("failed to %s field `%s` of `%s`: %v", e.Op, e.Field, e.Type, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// UnknownVariantError is returned when a discriminant matches no case of a
// tagged variant.
type UnknownVariantError struct {
	Type         string
	Discriminant int64
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("protocol: no discriminant for enum `%s` matched value %d", e.Type, e.Discriminant)
}

func (e *UnknownVariantError) Is(target error) bool {
	return target == ErrUnknownVariant
}

// UnknownPacketIDError is returned when a packet ID has no binding in the
// registry used to decode it.
type UnknownPacketIDError struct {
	Registry string
	ID       int32
}

func (e *UnknownPacketIDError) Error() string {
	return fmt.Sprintf("protocol: unknown packet ID %d (0x%02x) in %s", e.ID, e.ID, e.Registry)
}

func (e *UnknownPacketIDError) Is(target error) bool {
	return target == ErrUnknownPacketID
}

// IsUnrecognized reports whether err comes from well-formed input that simply
// has no schema match, as opposed to corrupt or truncated bytes.
func IsUnrecognized(err error) bool {
	return errors.Is(err, ErrUnknownPacketID) || errors.Is(err, ErrUnknownVariant)
}

package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"cobble/protocol/nbt"
)

// Slot is an inventory slot as carried in window and creative packets.
// When Present is false the other fields are not on the wire.
type Slot struct {
	Present bool
	Item    int32
	Count   int8
	NBT     *nbt.Blob
}

func ReadSlot(r *Reader, v ProtocolVersion) (Slot, error) {
	present, err := ReadBool(r, v)
	if err != nil || !present {
		return Slot{}, err
	}
	s := Slot{Present: true}
	if s.Item, err = ReadVarInt(r, v); err != nil {
		return Slot{}, err
	}
	count, err := r.ReadByte()
	if err != nil {
		return Slot{}, err
	}
	s.Count = int8(count)
	if s.NBT, err = ReadNBT(r, v); err != nil {
		return Slot{}, err
	}
	return s, nil
}

func WriteSlot(w *bytes.Buffer, s Slot, v ProtocolVersion) error {
	WriteBool(w, s.Present, v)
	if !s.Present {
		return nil
	}
	WriteVarInt(w, s.Item, v)
	w.WriteByte(byte(s.Count))
	return WriteNBT(w, s.NBT, v)
}

// ReadNBT reads a root compound, or nil for a lone TAG_End.
func ReadNBT(r *Reader, _ ProtocolVersion) (*nbt.Blob, error) {
	blob, err := nbt.Read(r)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %v", ErrTruncatedInput, err)
		}
		return nil, err
	}
	return blob, nil
}

func WriteNBT(w *bytes.Buffer, blob *nbt.Blob, _ ProtocolVersion) error {
	return nbt.Write(w, blob)
}

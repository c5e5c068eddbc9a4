package protocol

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"cobble/protocol/nbt"
)

func TestVarIntVectors(t *testing.T) {
	tests := []struct {
		value   int32
		encoded string
	}{
		{0, "00"},
		{1, "01"},
		{127, "7f"},
		{128, "8001"},
		{255, "ff01"},
		{25565, "ddc701"},
		{2097151, "ffff7f"},
		{2147483647, "ffffffff07"},
		{-1, "ffffffff0f"},
		{-2147483648, "8080808008"},
	}

	for _, test := range tests {
		var buf bytes.Buffer
		WriteVarInt(&buf, test.value, CurrentVersion)
		if got := hex.EncodeToString(buf.Bytes()); got != test.encoded {
			t.Errorf("encode %d: expected %s, got %s", test.value, test.encoded, got)
		}
		if size := VarIntSize(test.value); size != buf.Len() {
			t.Errorf("size %d: expected %d, got %d", test.value, buf.Len(), size)
		}

		raw, _ := hex.DecodeString(test.encoded)
		r := NewReader(raw)
		got, err := ReadVarInt(r, CurrentVersion)
		if err != nil {
			t.Fatalf("decode %s: %v", test.encoded, err)
		}
		if got != test.value || r.Remaining() != 0 {
			t.Errorf("decode %s: expected %d, got %d with %d left", test.encoded, test.value, got, r.Remaining())
		}
	}
}

func TestVarIntErrors(t *testing.T) {
	_, err := ReadVarInt(NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0x01}), CurrentVersion)
	if !errors.Is(err, ErrCorruptVarInt) {
		t.Fatalf("expected ErrCorruptVarInt, got %v", err)
	}

	_, err = ReadVarInt(NewReader([]byte{0xff}), CurrentVersion)
	if !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("expected ErrTruncatedInput, got %v", err)
	}

	_, err = ReadVarInt(NewReader(nil), CurrentVersion)
	if !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("expected ErrTruncatedInput on empty input, got %v", err)
	}
}

func TestVarLong(t *testing.T) {
	for _, n := range []int64{0, 1, 300, -1, 1 << 40, -9223372036854775808, 9223372036854775807} {
		var buf bytes.Buffer
		WriteVarLong(&buf, n, CurrentVersion)
		got, err := ReadVarLong(NewReader(buf.Bytes()), CurrentVersion)
		if err != nil || got != n {
			t.Errorf("varlong %d: got %d, %v", n, got, err)
		}
	}

	var buf bytes.Buffer
	WriteVarLong(&buf, -1, CurrentVersion)
	if buf.Len() != MaxVarLongLen {
		t.Fatalf("expected -1 to take %d bytes, got %d", MaxVarLongLen, buf.Len())
	}

	corrupt := bytes.Repeat([]byte{0x80}, MaxVarLongLen+1)
	if _, err := ReadVarLong(NewReader(corrupt), CurrentVersion); !errors.Is(err, ErrCorruptVarLong) {
		t.Fatalf("expected ErrCorruptVarLong, got %v", err)
	}
}

func TestString(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteString(&buf, "héllo", CurrentVersion); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), []byte("\x06h\xc3\xa9llo")) {
		t.Fatalf("unexpected encoding %x", buf.Bytes())
	}
	s, err := ReadString(NewReader(buf.Bytes()), CurrentVersion)
	if err != nil || s != "héllo" {
		t.Fatalf("expected héllo, got %q, %v", s, err)
	}

	if _, err := ReadString(NewReader([]byte{0x02, 0xc3, 0x28}), CurrentVersion); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
	if _, err := ReadString(NewReader([]byte{0x05, 'a', 'b'}), CurrentVersion); !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("expected ErrTruncatedInput, got %v", err)
	}
	if err := WriteString(&buf, "\xff", CurrentVersion); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8 on encode, got %v", err)
	}

	long := strings.Repeat("a", MaxStringLength+1)
	if err := WriteString(&buf, long, CurrentVersion); !errors.Is(err, ErrStringTooLong) {
		t.Fatalf("expected ErrStringTooLong on encode, got %v", err)
	}
	var raw bytes.Buffer
	WriteVarInt(&raw, int32(len(long)), CurrentVersion)
	raw.WriteString(long)
	if _, err := ReadString(NewReader(raw.Bytes()), CurrentVersion); !errors.Is(err, ErrStringTooLong) {
		t.Fatalf("expected ErrStringTooLong on decode, got %v", err)
	}
}

func TestBool(t *testing.T) {
	for in, want := range map[byte]bool{0x00: false, 0x01: true, 0x7f: true} {
		got, err := ReadBool(NewReader([]byte{in}), CurrentVersion)
		if err != nil || got != want {
			t.Errorf("bool %#x: expected %v, got %v, %v", in, want, got, err)
		}
	}
	var buf bytes.Buffer
	WriteBool(&buf, true, CurrentVersion)
	WriteBool(&buf, false, CurrentVersion)
	if !bytes.Equal(buf.Bytes(), []byte{0x01, 0x00}) {
		t.Fatalf("unexpected bool encoding %x", buf.Bytes())
	}
}

func TestAngle(t *testing.T) {
	tests := []struct {
		deg float32
		b   byte
	}{
		{0, 0x00},
		{90, 0x40},
		{180, 0x80},
		{270, 0xc0},
		{-90, 0xc0},
		{359, 0xff},
	}
	for _, test := range tests {
		var buf bytes.Buffer
		WriteAngle(&buf, test.deg, CurrentVersion)
		if buf.Bytes()[0] != test.b {
			t.Errorf("angle %v: expected %#x, got %#x", test.deg, test.b, buf.Bytes()[0])
		}
	}

	got, err := ReadAngle(NewReader([]byte{0x40}), CurrentVersion)
	if err != nil || got != 90 {
		t.Fatalf("expected 90, got %v, %v", got, err)
	}
}

func TestBlockPosition(t *testing.T) {
	p := BlockPosition{X: 18357644, Y: 831, Z: -20882616}
	if got := p.Pack(); got != 0x4607632c15b4833f {
		t.Fatalf("expected 0x4607632c15b4833f, got %#x", got)
	}
	if got := UnpackBlockPosition(0x4607632c15b4833f); got != p {
		t.Fatalf("expected %+v, got %+v", p, got)
	}

	for _, p := range []BlockPosition{
		{0, 0, 0},
		{-1, -1, -1},
		{-33554432, -2048, 33554431},
		{33554431, 2047, -33554432},
	} {
		var buf bytes.Buffer
		WriteBlockPosition(&buf, p, CurrentVersion)
		got, err := ReadBlockPosition(NewReader(buf.Bytes()), CurrentVersion)
		if err != nil || got != p {
			t.Errorf("position %+v: got %+v, %v", p, got, err)
		}
	}
}

func TestUUID(t *testing.T) {
	id := uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")
	var buf bytes.Buffer
	WriteUUID(&buf, id, CurrentVersion)
	if hex.EncodeToString(buf.Bytes()) != "069a79f444e94726a5befca90e38aaf5" {
		t.Fatalf("unexpected uuid encoding %x", buf.Bytes())
	}
	got, err := ReadUUID(NewReader(buf.Bytes()), CurrentVersion)
	if err != nil || got != id {
		t.Fatalf("expected %v, got %v, %v", id, got, err)
	}
	if _, err := ReadUUID(NewReader(buf.Bytes()[:15]), CurrentVersion); !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("expected ErrTruncatedInput, got %v", err)
	}
}

func BenchmarkVarInt(b *testing.B) {
	var buf bytes.Buffer
	for i := 0; i < b.N; i++ {
		buf.Reset()
		WriteVarInt(&buf, int32(i), CurrentVersion)
		if _, err := ReadVarInt(NewReader(buf.Bytes()), CurrentVersion); err != nil {
			b.Fatal(err)
		}
	}
}

func TestWriteSlotNilTag(t *testing.T) {
	slot := Slot{Present: true, Item: 1, Count: 1, NBT: &nbt.Blob{Root: &nbt.Compound{
		Tags: []nbt.NamedTag{{Name: "x"}},
	}}}
	var buf bytes.Buffer
	if err := WriteSlot(&buf, slot, CurrentVersion); !errors.Is(err, nbt.ErrNilTag) {
		t.Fatalf("expected nbt.ErrNilTag, got %v", err)
	}
	if err := Encode(&buf, struct{ Item Slot }{slot}, CurrentVersion); !errors.Is(err, nbt.ErrNilTag) {
		t.Fatalf("expected nbt.ErrNilTag through the schema codec, got %v", err)
	}
}

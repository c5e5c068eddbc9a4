package nbt

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPayloadSerialization(t *testing.T) {
	tests := []struct {
		serialized string
		value      Tag
	}{
		{"\x01", &Byte{1}},
		{"\x10\x20", &Short{0x1020}},
		{"\x10\x20\x30\x40", &Int{0x10203040}},
		{"\x10\x20\x30\x40\x50\x60\x70\x80", &Long{0x1020304050607080}},
		{"\x3f\x80\x00\x00", &Float{1.0}},
		{"\x3f\xf0\x00\x00\x00\x00\x00\x00", &Double{1.0}},
		{"\x00\x00\x00\x04\x00\x01\x02\x03", &ByteArray{[]byte{0, 1, 2, 3}}},
		{"\x00\x03foo", &String{"foo"}},
		{"\x01\x00\x00\x00\x02\x01\x02", &List{TagByte, []Tag{&Byte{1}, &Byte{2}}}},
		{"\x03\x00\x00\x00\x02\x00\x00\x00\x01\x00\x00\x00\x02", &List{TagInt, []Tag{&Int{1}, &Int{2}}}},
		{"\x00\x00\x00\x02\x00\x00\x00\x07\xff\xff\xff\xff", &IntArray{[]int32{7, -1}}},
		{"\x01\x00\x03foo\x01\x08\x00\x01b\x00\x02xy\x00", &Compound{[]NamedTag{
			{"foo", &Byte{1}},
			{"b", &String{"xy"}},
		}}},
	}

	for _, test := range tests {
		d := decoder{r: bytes.NewReader([]byte(test.serialized))}
		got, err := d.payload(test.value.Type(), 0)
		if err != nil {
			t.Fatalf("failed to read %v: %v", test.value.Type(), err)
		}
		if diff := cmp.Diff(test.value, got); diff != "" {
			t.Errorf("read %v mismatch (-want +got):\n%s", test.value.Type(), diff)
		}

		var buf bytes.Buffer
		e := encoder{w: &buf}
		e.payload(test.value)
		if e.err != nil {
			t.Fatalf("failed to write %v: %v", test.value.Type(), e.err)
		}
		if buf.String() != test.serialized {
			t.Errorf("write %v: expected %x, got %x", test.value.Type(), test.serialized, buf.Bytes())
		}
	}
}

func TestBlobRoundTripKeepsOrder(t *testing.T) {
	blob := &Blob{Name: "", Root: &Compound{}}
	blob.Root.Set("zeta", &Int{1})
	blob.Root.Set("alpha", &Compound{[]NamedTag{{"Damage", &Short{3}}}})
	blob.Root.Set("mid", &LongArray{[]int64{1, 2}})

	var buf bytes.Buffer
	if err := Write(&buf, blob); err != nil {
		t.Fatalf("failed to write blob: %v", err)
	}
	encoded := append([]byte(nil), buf.Bytes()...)

	got, err := Read(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("failed to read blob: %v", err)
	}
	if diff := cmp.Diff(blob, got); diff != "" {
		t.Fatalf("blob mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	if err := Write(&buf, got); err != nil {
		t.Fatalf("failed to rewrite blob: %v", err)
	}
	if !bytes.Equal(encoded, buf.Bytes()) {
		t.Fatalf("expected byte-exact re-encode, got %x want %x", buf.Bytes(), encoded)
	}

	if tag, ok := got.Lookup("alpha/Damage").(*Short); !ok || tag.Value != 3 {
		t.Fatalf("expected alpha/Damage = 3, got %#v", got.Lookup("alpha/Damage"))
	}
	if got.Lookup("alpha/missing") != nil {
		t.Fatalf("expected nil for missing path")
	}
}

func TestCompoundSetReplacesInPlace(t *testing.T) {
	c := &Compound{}
	c.Set("a", &Int{1})
	c.Set("b", &Int{2})
	c.Set("a", &Int{3})

	want := &Compound{[]NamedTag{{"a", &Int{3}}, {"b", &Int{2}}}}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Fatalf("compound mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteNilTags(t *testing.T) {
	tests := []struct {
		name string
		root *Compound
	}{
		{"nil entry", &Compound{[]NamedTag{{Name: "x"}}}},
		{"typed nil entry", &Compound{[]NamedTag{{"x", (*Int)(nil)}}}},
		{"nil list element", &Compound{[]NamedTag{{"l", &List{TagInt, []Tag{&Int{1}, nil}}}}}},
		{"nested nil", &Compound{[]NamedTag{{"c", &Compound{[]NamedTag{{"y", (*Compound)(nil)}}}}}}},
	}

	for _, test := range tests {
		var buf bytes.Buffer
		err := Write(&buf, &Blob{Root: test.root})
		if !errors.Is(err, ErrNilTag) {
			t.Errorf("%s: expected ErrNilTag, got %v", test.name, err)
		}
	}
}

func TestReadEmptyBlob(t *testing.T) {
	blob, err := Read(bytes.NewReader([]byte{0x00}))
	if err != nil || blob != nil {
		t.Fatalf("expected nil blob, got %v, %v", blob, err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0x00}) {
		t.Fatalf("expected lone TAG_End, got %x", buf.Bytes())
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"not compound", []byte{0x01, 0x00, 0x00, 0x05}, ErrNotCompound},
		{"bad tag type", []byte{0x0a, 0x00, 0x00, 0x42}, ErrInvalidTagType},
		{"negative array", []byte{0x0a, 0x00, 0x00, 0x07, 0x00, 0x01, 'a', 0xff, 0xff, 0xff, 0xff}, ErrNegativeLength},
		{"truncated", []byte{0x0a, 0x00, 0x00, 0x03, 0x00, 0x01, 'a', 0x00}, io.ErrUnexpectedEOF},
		{"huge array", []byte{0x0a, 0x00, 0x00, 0x07, 0x00, 0x01, 'a', 0x7f, 0xff, 0xff, 0xff, 0x01}, io.ErrUnexpectedEOF},
	}

	for _, test := range tests {
		_, err := Read(bytes.NewReader(test.in))
		if !errors.Is(err, test.want) {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, err)
		}
	}
}

func TestReadTooDeep(t *testing.T) {
	var in []byte
	in = append(in, 0x0a, 0x00, 0x00)
	for i := 0; i <= MaxDepth; i++ {
		in = append(in, 0x0a, 0x00, 0x00)
	}
	_, err := Read(bytes.NewReader(in))
	if !errors.Is(err, ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep, got %v", err)
	}
}

func TestPlain(t *testing.T) {
	c := &Compound{[]NamedTag{
		{"name", &String{"x"}},
		{"list", &List{TagInt, []Tag{&Int{4}}}},
	}}
	want := map[string]any{"name": "x", "list": []any{int32(4)}}
	if diff := cmp.Diff(want, Plain(c)); diff != "" {
		t.Fatalf("plain mismatch (-want +got):\n%s", diff)
	}
}

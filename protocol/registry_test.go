package protocol

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var testRegistry = NewRegistry(Play, Serverbound,
	Bind[testSettings](0x05),
	Bind[testKeepAlive](0x10),
	Bind[testEverything](0x20),
)

var testClientRegistry = NewRegistry(Play, Clientbound,
	Bind[testKeepAlive](0x1f),
)

func TestRegistryValidate(t *testing.T) {
	if err := testRegistry.Validate(); err != nil {
		t.Fatal(err)
	}
	if testRegistry.Name() != "play/serverbound" {
		t.Fatalf("unexpected registry name %q", testRegistry.Name())
	}
	var ids []int32
	for _, b := range testRegistry.Bindings() {
		ids = append(ids, b.ID)
	}
	if diff := cmp.Diff([]int32{0x05, 0x10, 0x20}, ids); diff != "" {
		t.Fatalf("bindings mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryKeepAlive(t *testing.T) {
	frame, err := testRegistry.Marshal(testKeepAlive{ID: 0x1122334455667788}, CurrentVersion)
	if err != nil {
		t.Fatal(err)
	}
	if got := hex.EncodeToString(frame); got != "101122334455667788" {
		t.Fatalf("expected 101122334455667788, got %s", got)
	}

	e, err := testRegistry.Unmarshal(frame, CurrentVersion)
	if err != nil {
		t.Fatal(err)
	}
	if e.ID != 0x10 || e.Name != "testKeepAlive" {
		t.Fatalf("unexpected envelope %v", e)
	}
	ka, ok := Narrow[testKeepAlive](e)
	if !ok || ka.ID != 0x1122334455667788 {
		t.Fatalf("expected keep alive 0x1122334455667788, got %+v", e.Packet)
	}
	if _, ok := Narrow[testSettings](e); ok {
		t.Fatalf("expected narrow to the wrong kind to fail")
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	frame, err := testClientRegistry.Marshal(testKeepAlive{ID: 1}, CurrentVersion)
	if err != nil {
		t.Fatal(err)
	}
	if frame[0] != 0x1f {
		t.Fatalf("expected clientbound ID 0x1f, got %#x", frame[0])
	}
	if _, err := testClientRegistry.Marshal(testSettings{}, CurrentVersion); !errors.Is(err, ErrUnboundPacket) {
		t.Fatalf("expected ErrUnboundPacket, got %v", err)
	}
}

func TestRegistryUnknownID(t *testing.T) {
	r := NewReader([]byte{0xe7, 0x07, 0x01, 0x02, 0x03})
	_, err := testRegistry.Decode(r, CurrentVersion)

	var unknown *UnknownPacketIDError
	if !errors.As(err, &unknown) || unknown.ID != 999 || unknown.Registry != "play/serverbound" {
		t.Fatalf("expected UnknownPacketIDError for 999, got %v", err)
	}
	if !errors.Is(err, ErrUnknownPacketID) || !IsUnrecognized(err) {
		t.Fatalf("expected unknown packet to be unrecognized")
	}
	if r.Offset() != 2 {
		t.Fatalf("expected only the ID to be consumed, offset is %d", r.Offset())
	}
}

func TestRegistryTruncatedID(t *testing.T) {
	_, err := testRegistry.Unmarshal([]byte{0x80}, CurrentVersion)
	if !errors.Is(err, ErrTruncatedInput) || IsUnrecognized(err) {
		t.Fatalf("expected ErrTruncatedInput, got %v", err)
	}
}

func TestRegistryTrailingBytes(t *testing.T) {
	frame, _ := hex.DecodeString("10112233445566778899")
	e, err := testRegistry.Unmarshal(frame, CurrentVersion)
	if !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("expected ErrTrailingBytes, got %v", err)
	}
	if e.Name != "testKeepAlive" {
		t.Fatalf("expected the decoded envelope alongside the error, got %v", e)
	}
}

func TestWidenNarrow(t *testing.T) {
	e, err := testRegistry.Widen(&testKeepAlive{ID: 7})
	if err != nil {
		t.Fatal(err)
	}
	if e.ID != 0x10 {
		t.Fatalf("expected ID 0x10, got %#x", e.ID)
	}
	if _, ok := e.Packet.(testKeepAlive); !ok {
		t.Fatalf("expected envelope to hold a value, got %T", e.Packet)
	}
	if ka, ok := Narrow[testKeepAlive](e); !ok || ka.ID != 7 {
		t.Fatalf("narrow after widen lost the packet: %+v", e.Packet)
	}

	if _, err := testRegistry.Widen(testList{}); !errors.Is(err, ErrUnboundPacket) {
		t.Fatalf("expected ErrUnboundPacket, got %v", err)
	}
	if id, ok := testRegistry.IDOf(testEverything{}); !ok || id != 0x20 {
		t.Fatalf("expected IDOf = 0x20, got %#x %v", id, ok)
	}
}

func TestEncodeIgnoresEnvelopeID(t *testing.T) {
	var buf bytes.Buffer
	err := testRegistry.Encode(&buf, Envelope{ID: 0x7f, Packet: testKeepAlive{ID: 1}}, CurrentVersion)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Bytes()[0] != 0x10 {
		t.Fatalf("expected bound ID 0x10, got %#x", buf.Bytes()[0])
	}
}

func TestEncodeNilPacket(t *testing.T) {
	if _, err := testRegistry.Marshal((*testKeepAlive)(nil), CurrentVersion); !errors.Is(err, ErrUnboundPacket) {
		t.Fatalf("expected ErrUnboundPacket for a nil packet, got %v", err)
	}
	buf := bytes.NewBufferString("keep")
	err := testRegistry.Encode(buf, Envelope{Packet: (*testKeepAlive)(nil)}, CurrentVersion)
	if !errors.Is(err, ErrUnboundPacket) || buf.String() != "keep" {
		t.Fatalf("expected ErrUnboundPacket and an untouched buffer, got %v %q", err, buf.String())
	}
	if _, err := testRegistry.Marshal(nil, CurrentVersion); !errors.Is(err, ErrUnboundPacket) {
		t.Fatalf("expected ErrUnboundPacket for nil, got %v", err)
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	packets := []any{
		testKeepAlive{ID: 42},
		testSettings{Locale: "en_US", ViewDistance: 10, Mode: testModeOff{}, Colors: true, Skin: 0x7f, Hand: 1},
		sampleEverything(),
	}
	for _, p := range packets {
		frame, err := testRegistry.Marshal(p, CurrentVersion)
		if err != nil {
			t.Fatalf("failed to marshal %T: %v", p, err)
		}
		e, err := testRegistry.Unmarshal(frame, CurrentVersion)
		if err != nil {
			t.Fatalf("failed to unmarshal %T: %v", p, err)
		}
		if diff := cmp.Diff(p, e.Packet); diff != "" {
			t.Errorf("%T round trip mismatch (-want +got):\n%s", p, diff)
		}
	}
}

func TestNewRegistryPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"duplicate id", func() {
			NewRegistry(Play, Serverbound, Bind[testKeepAlive](1), Bind[testSettings](1))
		}},
		{"duplicate type", func() {
			NewRegistry(Play, Serverbound, Bind[testKeepAlive](1), Bind[testKeepAlive](2))
		}},
		{"non-struct packet", func() {
			Bind[int](1)
		}},
	}
	for _, test := range tests {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%s: expected panic", test.name)
				}
			}()
			test.fn()
		}()
	}
}

func TestSerializers(t *testing.T) {
	e, err := testRegistry.Widen(testSettings{Locale: "en_US", Mode: testModeOn{Level: 3, Label: "x"}})
	if err != nil {
		t.Fatal(err)
	}

	data, err := JSON.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	d, err := JSON.UnMarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if d.ID != 0x05 || d.Name != "testSettings" || d.Fields["Locale"] != "en_US" {
		t.Fatalf("unexpected json dump %s", data)
	}
	mode, ok := d.Fields["Mode"].(map[string]any)
	if !ok || mode["variant"] != "On" || mode["Label"] != "x" {
		t.Fatalf("expected variant case in dump, got %s", data)
	}

	data, err = MSGPACK.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	d, err = MSGPACK.UnMarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if d.ID != 0x05 || d.Name != "testSettings" || d.Fields["Locale"] != "en_US" {
		t.Fatalf("unexpected msgpack dump %+v", d)
	}
}

func BenchmarkRegistryDecode(b *testing.B) {
	frame, err := testRegistry.Marshal(testSettings{Locale: "en_US", ViewDistance: 10, Mode: testModeOff{}}, CurrentVersion)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := testRegistry.Unmarshal(frame, CurrentVersion); err != nil {
			b.Fatal(err)
		}
	}
}

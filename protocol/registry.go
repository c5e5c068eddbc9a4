package protocol

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
)

// Binding ties a packet struct type to its ID within one registry.
type Binding struct {
	ID     int32
	Name   string
	Type   reflect.Type
	schema *PacketSchema
}

func (b Binding) Schema() *PacketSchema {
	return b.schema
}

// Bind declares that packet type P has the given ID.
func Bind[P any](id int32) Binding {
	t := reflect.TypeOf((*P)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("protocol: packet type %v is not a struct", t))
	}
	return Binding{ID: id, Name: t.Name(), Type: t, schema: schemaEntry(t)}
}

// Registry is the closed set of packets for one phase and direction. It is
// immutable after NewRegistry and safe for concurrent use.
type Registry struct {
	phase     Phase
	direction Direction
	byID      map[int32]*Binding
	byType    map[reflect.Type]*Binding
	bindings  []Binding
}

// NewRegistry panics if two bindings share an ID or a packet type.
func NewRegistry(phase Phase, direction Direction, bindings ...Binding) *Registry {
	r := &Registry{
		phase:     phase,
		direction: direction,
		byID:      make(map[int32]*Binding, len(bindings)),
		byType:    make(map[reflect.Type]*Binding, len(bindings)),
	}
	for i := range bindings {
		b := bindings[i]
		if prev, dup := r.byID[b.ID]; dup {
			panic(fmt.Sprintf("protocol: %s: ID 0x%02x bound to both %s and %s", r.Name(), b.ID, prev.Name, b.Name))
		}
		if prev, dup := r.byType[b.Type]; dup {
			panic(fmt.Sprintf("protocol: %s: %s bound to both 0x%02x and 0x%02x", r.Name(), b.Name, prev.ID, b.ID))
		}
		r.byID[b.ID] = &b
		r.byType[b.Type] = &b
		r.bindings = append(r.bindings, b)
	}
	sort.Slice(r.bindings, func(i, j int) bool { return r.bindings[i].ID < r.bindings[j].ID })
	return r
}

func (r *Registry) Phase() Phase { return r.phase }

func (r *Registry) Direction() Direction { return r.direction }

// Name identifies the registry in errors and logs, e.g. "play/serverbound".
func (r *Registry) Name() string {
	return r.phase.String() + "/" + r.direction.String()
}

// Bindings lists the registry contents ordered by ID.
func (r *Registry) Bindings() []Binding {
	return append([]Binding(nil), r.bindings...)
}

func (r *Registry) Len() int {
	return len(r.bindings)
}

// Lookup returns the binding for id.
func (r *Registry) Lookup(id int32) (Binding, bool) {
	b, ok := r.byID[id]
	if !ok {
		return Binding{}, false
	}
	return *b, true
}

// IDOf returns the ID bound to the type of p.
func (r *Registry) IDOf(p any) (int32, bool) {
	b, ok := r.bindingOf(p)
	if !ok {
		return 0, false
	}
	return b.ID, true
}

func (r *Registry) bindingOf(p any) (*Binding, bool) {
	if p == nil {
		return nil, false
	}
	t := reflect.TypeOf(p)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	b, ok := r.byType[t]
	return b, ok
}

// Validate compiles the schema of every bound packet and everything those
// schemas reach.
func (r *Registry) Validate() error {
	visited := map[reflect.Type]bool{}
	for _, b := range r.bindings {
		if err := b.schema.validate(visited); err != nil {
			return fmt.Errorf("%s: %s: %w", r.Name(), b.Name, err)
		}
	}
	return nil
}

// Widen wraps a concrete packet in an envelope. Pointers are dereferenced.
func (r *Registry) Widen(p any) (Envelope, error) {
	b, ok := r.bindingOf(p)
	if !ok {
		return Envelope{}, fmt.Errorf("%w: %T in %s", ErrUnboundPacket, p, r.Name())
	}
	val := reflect.ValueOf(p)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return Envelope{}, fmt.Errorf("%w: nil %T", ErrUnboundPacket, p)
		}
		val = val.Elem()
	}
	return Envelope{ID: b.ID, Name: b.Name, Packet: val.Interface()}, nil
}

// Decode reads a packet ID followed by that packet's fields. An unknown ID
// consumes nothing past the ID itself.
func (r *Registry) Decode(rd *Reader, v ProtocolVersion) (Envelope, error) {
	id, err := ReadVarInt(rd, v)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to read packet ID in %s: %w", r.Name(), err)
	}
	b, ok := r.byID[id]
	if !ok {
		return Envelope{}, &UnknownPacketIDError{Registry: r.Name(), ID: id}
	}
	val := reflect.New(b.Type).Elem()
	if err := b.schema.decode(b.Name, rd, v, val); err != nil {
		return Envelope{}, err
	}
	return Envelope{ID: b.ID, Name: b.Name, Packet: val.Interface()}, nil
}

// Encode writes the ID bound to e.Packet's type and then its fields. The ID
// comes from the registry, not from e.ID. On error nothing is left in w.
func (r *Registry) Encode(w *bytes.Buffer, e Envelope, v ProtocolVersion) error {
	b, ok := r.bindingOf(e.Packet)
	if !ok {
		return fmt.Errorf("%w: %T in %s", ErrUnboundPacket, e.Packet, r.Name())
	}
	val := reflect.ValueOf(e.Packet)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return fmt.Errorf("%w: nil %T", ErrUnboundPacket, e.Packet)
		}
		val = val.Elem()
	}
	start := w.Len()
	WriteVarInt(w, b.ID, v)
	if err := b.schema.encode(b.Name, w, v, val); err != nil {
		w.Truncate(start)
		return err
	}
	return nil
}

// Marshal encodes p, which may be a bare packet or an Envelope, into a new
// frame body.
func (r *Registry) Marshal(p any, v ProtocolVersion) ([]byte, error) {
	e, ok := p.(Envelope)
	if !ok {
		e = Envelope{Packet: p}
	}
	var buf bytes.Buffer
	if err := r.Encode(&buf, e, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a whole frame body. Bytes left over after the last field
// are an error.
func (r *Registry) Unmarshal(frame []byte, v ProtocolVersion) (Envelope, error) {
	rd := NewReader(frame)
	e, err := r.Decode(rd, v)
	if err != nil {
		return Envelope{}, err
	}
	if rd.Remaining() > 0 {
		return e, fmt.Errorf("%w: %d after %s", ErrTrailingBytes, rd.Remaining(), e.Name)
	}
	return e, nil
}

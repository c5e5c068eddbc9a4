package protocol

import (
	"bytes"
	"fmt"
	"reflect"
	"sync"
)

// FieldDescriptor is one wire field of a schema, in wire order.
type FieldDescriptor struct {
	Name  string
	Type  WireType
	index int
}

// PacketSchema is the ordered field layout of a Go struct. It is derived
// from the struct definition itself, so the in-memory type and the wire
// layout cannot drift apart.
//
// Field types come from the Go type or from a `wire:"..."` tag:
//
//	type SpawnPlayer struct {
//		EntityID int32 `wire:"varint"`
//		Yaw      float32 `wire:"angle"`
//		Data     []byte `wire:"rest"`
//	}
type PacketSchema struct {
	Name string
	Type reflect.Type

	once   sync.Once
	fields []FieldDescriptor
	err    error
}

var schemas sync.Map // reflect.Type -> *PacketSchema

// schemaEntry returns the cached, possibly not yet compiled, schema for t.
func schemaEntry(t reflect.Type) *PacketSchema {
	if s, ok := schemas.Load(t); ok {
		return s.(*PacketSchema)
	}
	s, _ := schemas.LoadOrStore(t, &PacketSchema{Name: t.Name(), Type: t})
	return s.(*PacketSchema)
}

// SchemaFor returns the compiled schema of struct type t.
func SchemaFor(t reflect.Type) (*PacketSchema, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("protocol: schema requires a struct type, got %v", t)
	}
	s := schemaEntry(t)
	if err := s.compile(); err != nil {
		return nil, err
	}
	return s, nil
}

// SchemaOf is SchemaFor for a type parameter. It panics on an invalid
// struct definition.
func SchemaOf[T any]() *PacketSchema {
	s, err := SchemaFor(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the field descriptors in wire order.
func (s *PacketSchema) Fields() []FieldDescriptor {
	if s.compile() != nil {
		return nil
	}
	return append([]FieldDescriptor(nil), s.fields...)
}

func (s *PacketSchema) compile() error {
	s.once.Do(func() {
		s.fields, s.err = buildFields(s.Type)
	})
	return s.err
}

func buildFields(t reflect.Type) ([]FieldDescriptor, error) {
	fields := make([]FieldDescriptor, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, tagged := sf.Tag.Lookup("wire")
		if tag == "-" {
			continue
		}
		if !sf.IsExported() {
			if tagged {
				return nil, fmt.Errorf("protocol: %v.%s: unexported field cannot carry a wire tag", t, sf.Name)
			}
			return nil, fmt.Errorf("protocol: %v.%s: unexported field must be tagged `wire:\"-\"`", t, sf.Name)
		}
		wt, err := resolveTag(tag, sf.Type)
		if err != nil {
			return nil, fmt.Errorf("protocol: %v.%s: %w", t, sf.Name, err)
		}
		if wrapsOpenEnded(wt, map[reflect.Type]bool{t: true}) {
			return nil, fmt.Errorf("protocol: %v.%s: %s holds an element that reads to the end of the frame", t, sf.Name, wt.Name())
		}
		if i != lastWireField(t) && openEnded(wt, map[reflect.Type]bool{t: true}) {
			return nil, fmt.Errorf("protocol: %v.%s: %s reads to the end of the frame and must be the last field", t, sf.Name, wt.Name())
		}
		fields = append(fields, FieldDescriptor{Name: sf.Name, Type: wt, index: i})
	}
	return fields, nil
}

func lastWireField(t reflect.Type) int {
	for i := t.NumField() - 1; i >= 0; i-- {
		if t.Field(i).Tag.Get("wire") != "-" {
			return i
		}
	}
	return -1
}

// validate compiles s and every schema reachable from it.
func (s *PacketSchema) validate(visited map[reflect.Type]bool) error {
	if visited[s.Type] {
		return nil
	}
	visited[s.Type] = true
	if err := s.compile(); err != nil {
		return err
	}
	for _, f := range s.fields {
		if vt, ok := f.Type.(validator); ok {
			if err := vt.validate(visited); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate compiles the schema and everything it refers to, so a broken
// definition is reported at startup rather than on first use.
func (s *PacketSchema) Validate() error {
	return s.validate(map[reflect.Type]bool{})
}

func (s *PacketSchema) decode(label string, r *Reader, v ProtocolVersion, dst reflect.Value) error {
	if err := s.compile(); err != nil {
		return err
	}
	for _, f := range s.fields {
		if err := f.Type.Decode(r, v, dst.Field(f.index)); err != nil {
			return &FieldError{Type: label, Field: f.Name, Op: "decode", Err: err}
		}
	}
	return nil
}

func (s *PacketSchema) encode(label string, w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error {
	if err := s.compile(); err != nil {
		return err
	}
	for _, f := range s.fields {
		if err := f.Type.Encode(w, v, src.Field(f.index)); err != nil {
			return &FieldError{Type: label, Field: f.Name, Op: "encode", Err: err}
		}
	}
	return nil
}

// DecodeStruct reads the fields of s into dst, which must be a settable
// value of the schema's type.
func DecodeStruct(s *PacketSchema, r *Reader, v ProtocolVersion, dst reflect.Value) error {
	return s.decode(s.Name, r, v, dst)
}

// EncodeStruct writes the fields of src in schema order.
func EncodeStruct(s *PacketSchema, w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error {
	return s.encode(s.Name, w, v, src)
}

// Decode reads one T. T may be any struct, registered variant interface or
// type with a default wire representation.
func Decode[T any](r *Reader, v ProtocolVersion) (T, error) {
	var val T
	wt, err := WireTypeFor(reflect.TypeOf(&val).Elem())
	if err != nil {
		return val, err
	}
	err = wt.Decode(r, v, reflect.ValueOf(&val).Elem())
	return val, err
}

// Encode writes val. On error nothing is left in w.
func Encode[T any](w *bytes.Buffer, val T, v ProtocolVersion) error {
	wt, err := WireTypeFor(reflect.TypeOf(&val).Elem())
	if err != nil {
		return err
	}
	start := w.Len()
	if err := wt.Encode(w, v, reflect.ValueOf(&val).Elem()); err != nil {
		w.Truncate(start)
		return err
	}
	return nil
}

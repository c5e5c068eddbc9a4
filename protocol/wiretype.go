package protocol

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"

	"cobble/protocol/nbt"
)

// WireType reads and writes one field representation. Decode stores into
// dst, which is always settable; Encode reads src.
type WireType interface {
	Name() string
	Decode(r *Reader, v ProtocolVersion, dst reflect.Value) error
	Encode(w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error
	// Accepts reports whether a Go field of type t can hold this wire type.
	Accepts(t reflect.Type) bool
}

// validator is implemented by wire types that refer to other schemas.
type validator interface {
	validate(visited map[reflect.Type]bool) error
}

// sized is implemented by wire types that know the fewest bytes a value
// can occupy.
type sized interface {
	minWidth() int
}

// minWidth returns the fewest bytes any value of wt occupies, or 0 when that
// is unknown.
func minWidth(wt WireType) int {
	if s, ok := wt.(sized); ok {
		return s.minWidth()
	}
	return 0
}

type scalarType struct {
	name   string
	kind   reflect.Kind
	exact  reflect.Type
	min    int
	decode func(r *Reader, v ProtocolVersion, dst reflect.Value) error
	encode func(w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error
}

func (s *scalarType) Name() string { return s.name }

func (s *scalarType) minWidth() int { return s.min }

func (s *scalarType) Accepts(t reflect.Type) bool {
	if s.exact != nil {
		return t == s.exact
	}
	return t.Kind() == s.kind
}

func (s *scalarType) Decode(r *Reader, v ProtocolVersion, dst reflect.Value) error {
	return s.decode(r, v, dst)
}

func (s *scalarType) Encode(w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error {
	return s.encode(w, v, src)
}

var (
	uuidType     = reflect.TypeOf(uuid.UUID{})
	positionType = reflect.TypeOf(BlockPosition{})
	slotType     = reflect.TypeOf(Slot{})
	nbtType      = reflect.TypeOf((*nbt.Blob)(nil))
	bytesType    = reflect.TypeOf([]byte(nil))
)

func fixedInt(name string, kind reflect.Kind, size int) *scalarType {
	return &scalarType{
		name: name,
		kind: kind,
		min:  size,
		decode: func(r *Reader, _ ProtocolVersion, dst reflect.Value) error {
			b, err := r.ReadN(size)
			if err != nil {
				return err
			}
			var u uint64
			for _, c := range b {
				u = u<<8 | uint64(c)
			}
			switch kind {
			case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
				dst.SetUint(u)
			default:
				shift := 64 - 8*uint(size)
				dst.SetInt(int64(u<<shift) >> shift)
			}
			return nil
		},
		encode: func(w *bytes.Buffer, _ ProtocolVersion, src reflect.Value) error {
			var u uint64
			switch kind {
			case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
				u = src.Uint()
			default:
				u = uint64(src.Int())
			}
			for i := size - 1; i >= 0; i-- {
				w.WriteByte(byte(u >> (8 * uint(i))))
			}
			return nil
		},
	}
}

// Built-in wire types. Fixed-width numbers are big-endian.
var (
	Bool = &scalarType{
		name: "bool",
		min:  1,
		kind: reflect.Bool,
		decode: func(r *Reader, v ProtocolVersion, dst reflect.Value) error {
			b, err := ReadBool(r, v)
			dst.SetBool(b)
			return err
		},
		encode: func(w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error {
			WriteBool(w, src.Bool(), v)
			return nil
		},
	}
	I8  = fixedInt("i8", reflect.Int8, 1)
	U8  = fixedInt("u8", reflect.Uint8, 1)
	I16 = fixedInt("i16", reflect.Int16, 2)
	U16 = fixedInt("u16", reflect.Uint16, 2)
	I32 = fixedInt("i32", reflect.Int32, 4)
	U32 = fixedInt("u32", reflect.Uint32, 4)
	I64 = fixedInt("i64", reflect.Int64, 8)
	U64 = fixedInt("u64", reflect.Uint64, 8)
	F32 = &scalarType{
		name: "f32",
		min:  4,
		kind: reflect.Float32,
		decode: func(r *Reader, v ProtocolVersion, dst reflect.Value) error {
			f, err := ReadFloat32(r, v)
			dst.SetFloat(float64(f))
			return err
		},
		encode: func(w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error {
			WriteFloat32(w, float32(src.Float()), v)
			return nil
		},
	}
	F64 = &scalarType{
		name: "f64",
		min:  8,
		kind: reflect.Float64,
		decode: func(r *Reader, v ProtocolVersion, dst reflect.Value) error {
			f, err := ReadFloat64(r, v)
			dst.SetFloat(f)
			return err
		},
		encode: func(w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error {
			WriteFloat64(w, src.Float(), v)
			return nil
		},
	}
	VarInt = &scalarType{
		name: "varint",
		min:  1,
		kind: reflect.Int32,
		decode: func(r *Reader, v ProtocolVersion, dst reflect.Value) error {
			n, err := ReadVarInt(r, v)
			dst.SetInt(int64(n))
			return err
		},
		encode: func(w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error {
			WriteVarInt(w, int32(src.Int()), v)
			return nil
		},
	}
	VarLong = &scalarType{
		name: "varlong",
		min:  1,
		kind: reflect.Int64,
		decode: func(r *Reader, v ProtocolVersion, dst reflect.Value) error {
			n, err := ReadVarLong(r, v)
			dst.SetInt(n)
			return err
		},
		encode: func(w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error {
			WriteVarLong(w, src.Int(), v)
			return nil
		},
	}
	String = &scalarType{
		name: "string",
		min:  1,
		kind: reflect.String,
		decode: func(r *Reader, v ProtocolVersion, dst reflect.Value) error {
			s, err := ReadString(r, v)
			dst.SetString(s)
			return err
		},
		encode: func(w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error {
			return WriteString(w, src.String(), v)
		},
	}
	Angle = &scalarType{
		name: "angle",
		min:  1,
		kind: reflect.Float32,
		decode: func(r *Reader, v ProtocolVersion, dst reflect.Value) error {
			f, err := ReadAngle(r, v)
			dst.SetFloat(float64(f))
			return err
		},
		encode: func(w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error {
			WriteAngle(w, float32(src.Float()), v)
			return nil
		},
	}
	UUID = &scalarType{
		name:  "uuid",
		min:   16,
		exact: uuidType,
		decode: func(r *Reader, v ProtocolVersion, dst reflect.Value) error {
			id, err := ReadUUID(r, v)
			dst.Set(reflect.ValueOf(id))
			return err
		},
		encode: func(w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error {
			WriteUUID(w, src.Interface().(uuid.UUID), v)
			return nil
		},
	}
	Position = &scalarType{
		name:  "position",
		min:   8,
		exact: positionType,
		decode: func(r *Reader, v ProtocolVersion, dst reflect.Value) error {
			p, err := ReadBlockPosition(r, v)
			dst.Set(reflect.ValueOf(p))
			return err
		},
		encode: func(w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error {
			WriteBlockPosition(w, src.Interface().(BlockPosition), v)
			return nil
		},
	}
	SlotType = &scalarType{
		name:  "slot",
		min:   1,
		exact: slotType,
		decode: func(r *Reader, v ProtocolVersion, dst reflect.Value) error {
			s, err := ReadSlot(r, v)
			dst.Set(reflect.ValueOf(s))
			return err
		},
		encode: func(w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error {
			return WriteSlot(w, src.Interface().(Slot), v)
		},
	}
	NBT = &scalarType{
		name:  "nbt",
		min:   1,
		exact: nbtType,
		decode: func(r *Reader, v ProtocolVersion, dst reflect.Value) error {
			blob, err := ReadNBT(r, v)
			if err != nil {
				return err
			}
			dst.Set(reflect.ValueOf(blob))
			return nil
		},
		encode: func(w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error {
			return WriteNBT(w, src.Interface().(*nbt.Blob), v)
		},
	}
	// RestBytes takes every byte left in the frame. It must be the last field.
	RestBytes = &scalarType{
		name:  "rest",
		exact: bytesType,
		decode: func(r *Reader, _ ProtocolVersion, dst reflect.Value) error {
			rest := r.ReadRest()
			if len(rest) == 0 {
				dst.SetBytes(nil)
				return nil
			}
			dst.SetBytes(append([]byte(nil), rest...))
			return nil
		},
		encode: func(w *bytes.Buffer, _ ProtocolVersion, src reflect.Value) error {
			w.Write(src.Bytes())
			return nil
		},
	}
)

type seqType struct {
	inner WireType

	widthOnce sync.Once
	width     int
}

const maxZeroWidthPrealloc = 1024

// Seq is a sequence prefixed with its element count as a VarInt.
func Seq(inner WireType) WireType {
	return &seqType{inner: inner}
}

func (s *seqType) Name() string { return "seq(" + s.inner.Name() + ")" }

func (s *seqType) minWidth() int { return 1 }

func (s *seqType) elemWidth() int {
	s.widthOnce.Do(func() { s.width = minWidth(s.inner) })
	return s.width
}

func (s *seqType) Accepts(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && s.inner.Accepts(t.Elem())
}

func (s *seqType) Decode(r *Reader, v ProtocolVersion, dst reflect.Value) error {
	n, err := ReadVarInt(r, v)
	if err != nil {
		return err
	}
	if n < 0 {
		return ErrNegativeLength
	}
	width := s.elemWidth()
	if width > 0 && int(n) > r.Remaining()/width {
		return ErrTruncatedInput
	}
	if n == 0 {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	if s.inner == U8 && dst.Type() == bytesType {
		b, err := r.ReadN(int(n))
		if err != nil {
			return err
		}
		dst.SetBytes(append([]byte(nil), b...))
		return nil
	}
	// Zero-width elements put no bound on the count, so grow as they decode.
	size := int(n)
	if width == 0 && size > maxZeroWidthPrealloc {
		size = maxZeroWidthPrealloc
	}
	out := reflect.MakeSlice(dst.Type(), 0, size)
	elem := reflect.New(dst.Type().Elem()).Elem()
	for i := 0; i < int(n); i++ {
		elem.Set(reflect.Zero(elem.Type()))
		if err := s.inner.Decode(r, v, elem); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		out = reflect.Append(out, elem)
	}
	dst.Set(out)
	return nil
}

func (s *seqType) Encode(w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error {
	n := src.Len()
	WriteVarInt(w, int32(n), v)
	if s.inner == U8 && src.Type() == bytesType {
		w.Write(src.Bytes())
		return nil
	}
	for i := 0; i < n; i++ {
		if err := s.inner.Encode(w, v, src.Index(i)); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

func (s *seqType) validate(visited map[reflect.Type]bool) error {
	if vt, ok := s.inner.(validator); ok {
		return vt.validate(visited)
	}
	return nil
}

type optionalType struct {
	inner WireType
}

// Optional is a bool presence flag followed by the value when present. The
// Go field is a pointer; nil means absent.
func Optional(inner WireType) WireType {
	return &optionalType{inner: inner}
}

func (o *optionalType) Name() string { return "optional(" + o.inner.Name() + ")" }

func (o *optionalType) minWidth() int { return 1 }

func (o *optionalType) Accepts(t reflect.Type) bool {
	return t.Kind() == reflect.Ptr && o.inner.Accepts(t.Elem())
}

func (o *optionalType) Decode(r *Reader, v ProtocolVersion, dst reflect.Value) error {
	present, err := ReadBool(r, v)
	if err != nil {
		return err
	}
	if !present {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	val := reflect.New(dst.Type().Elem())
	if err := o.inner.Decode(r, v, val.Elem()); err != nil {
		return err
	}
	dst.Set(val)
	return nil
}

func (o *optionalType) Encode(w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error {
	if src.IsNil() {
		WriteBool(w, false, v)
		return nil
	}
	WriteBool(w, true, v)
	return o.inner.Encode(w, v, src.Elem())
}

func (o *optionalType) validate(visited map[reflect.Type]bool) error {
	if vt, ok := o.inner.(validator); ok {
		return vt.validate(visited)
	}
	return nil
}

// structType encodes a nested struct inline, field after field.
type structType struct {
	schema *PacketSchema
}

func (s *structType) Name() string { return s.schema.Name }

func (s *structType) Accepts(t reflect.Type) bool { return t == s.schema.Type }

func (s *structType) minWidth() int {
	if s.schema.compile() != nil {
		return 0
	}
	n := 0
	for _, f := range s.schema.fields {
		n += minWidth(f.Type)
	}
	return n
}

func (s *structType) Decode(r *Reader, v ProtocolVersion, dst reflect.Value) error {
	return s.schema.decode(s.schema.Name, r, v, dst)
}

func (s *structType) Encode(w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error {
	return s.schema.encode(s.schema.Name, w, v, src)
}

func (s *structType) validate(visited map[reflect.Type]bool) error {
	return s.schema.validate(visited)
}

var (
	typesMu sync.RWMutex
	// namedTypes resolves `wire:"..."` tag names.
	namedTypes = map[string]WireType{}
	// goTypes maps exact Go types, including variant interfaces, to their
	// wire representation when a field has no tag.
	goTypes = map[reflect.Type]WireType{}
)

func init() {
	for _, wt := range []WireType{
		Bool, I8, U8, I16, U16, I32, U32, I64, U64, F32, F64,
		VarInt, VarLong, String, Angle, UUID, Position, SlotType, NBT, RestBytes,
	} {
		namedTypes[wt.Name()] = wt
	}
	goTypes[uuidType] = UUID
	goTypes[positionType] = Position
	goTypes[slotType] = SlotType
	goTypes[nbtType] = NBT
}

// RegisterWireType makes wt usable by name in struct tags. It panics if the
// name is taken.
func RegisterWireType(wt WireType) {
	typesMu.Lock()
	defer typesMu.Unlock()
	if _, dup := namedTypes[wt.Name()]; dup {
		panic(fmt.Sprintf("protocol: wire type %q registered twice", wt.Name()))
	}
	namedTypes[wt.Name()] = wt
}

// RegisterType makes wt the default representation of Go type t. It panics
// if t already has one.
func RegisterType(t reflect.Type, wt WireType) {
	typesMu.Lock()
	defer typesMu.Unlock()
	if _, dup := goTypes[t]; dup {
		panic(fmt.Sprintf("protocol: Go type %v registered twice", t))
	}
	if !wt.Accepts(t) {
		panic(fmt.Sprintf("protocol: wire type %s cannot hold %v", wt.Name(), t))
	}
	goTypes[t] = wt
}

func lookupGoType(t reflect.Type) (WireType, bool) {
	typesMu.RLock()
	defer typesMu.RUnlock()
	wt, ok := goTypes[t]
	return wt, ok
}

func lookupNamedType(name string) (WireType, bool) {
	typesMu.RLock()
	defer typesMu.RUnlock()
	wt, ok := namedTypes[name]
	return wt, ok
}

// resolveTag turns a field tag into a wire type for Go type t. Tags nest:
// "seq(varint)", "optional(angle)", and a bare "seq" or "optional" infers the
// element from t.
func resolveTag(tag string, t reflect.Type) (WireType, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return inferWireType(t)
	}
	for _, wrap := range []struct {
		name string
		kind reflect.Kind
		make func(WireType) WireType
	}{
		{"seq", reflect.Slice, Seq},
		{"optional", reflect.Ptr, Optional},
	} {
		if tag != wrap.name && !strings.HasPrefix(tag, wrap.name+"(") {
			continue
		}
		if t.Kind() != wrap.kind {
			return nil, fmt.Errorf("wire type %s cannot hold %v", tag, t)
		}
		inner := ""
		if tag != wrap.name {
			if !strings.HasSuffix(tag, ")") {
				return nil, fmt.Errorf("malformed wire tag %q", tag)
			}
			inner = tag[len(wrap.name)+1 : len(tag)-1]
		}
		elem, err := resolveTag(inner, t.Elem())
		if err != nil {
			return nil, err
		}
		return wrap.make(elem), nil
	}
	wt, ok := lookupNamedType(tag)
	if !ok {
		return nil, fmt.Errorf("unknown wire type %q", tag)
	}
	if !wt.Accepts(t) {
		return nil, fmt.Errorf("wire type %s cannot hold %v", wt.Name(), t)
	}
	return wt, nil
}

func inferWireType(t reflect.Type) (WireType, error) {
	if wt, ok := lookupGoType(t); ok {
		return wt, nil
	}
	switch t.Kind() {
	case reflect.Bool:
		return Bool, nil
	case reflect.Int8:
		return I8, nil
	case reflect.Uint8:
		return U8, nil
	case reflect.Int16:
		return I16, nil
	case reflect.Uint16:
		return U16, nil
	case reflect.Int32:
		return I32, nil
	case reflect.Uint32:
		return U32, nil
	case reflect.Int64:
		return I64, nil
	case reflect.Uint64:
		return U64, nil
	case reflect.Float32:
		return F32, nil
	case reflect.Float64:
		return F64, nil
	case reflect.String:
		return String, nil
	case reflect.Ptr:
		elem, err := inferWireType(t.Elem())
		if err != nil {
			return nil, err
		}
		return Optional(elem), nil
	case reflect.Slice:
		elem, err := inferWireType(t.Elem())
		if err != nil {
			return nil, err
		}
		return Seq(elem), nil
	case reflect.Struct:
		return &structType{schema: schemaEntry(t)}, nil
	case reflect.Interface:
		return nil, fmt.Errorf("interface %v is not a registered variant", t)
	}
	return nil, fmt.Errorf("no wire type for Go type %v", t)
}

// openEnded reports whether wt reads to the end of the frame: rest itself, or
// a struct or variant case whose last field is open-ended.
func openEnded(wt WireType, seen map[reflect.Type]bool) bool {
	switch t := wt.(type) {
	case *scalarType:
		return t == RestBytes
	case *structType:
		return structOpenEnded(t.schema.Type, seen)
	case *VariantSchema:
		for _, c := range t.cases {
			if structOpenEnded(c.Type, seen) {
				return true
			}
		}
	}
	return false
}

// wrapsOpenEnded reports whether a seq or optional somewhere in wt holds an
// open-ended element, which would read past its own element.
func wrapsOpenEnded(wt WireType, seen map[reflect.Type]bool) bool {
	var inner WireType
	switch t := wt.(type) {
	case *seqType:
		inner = t.inner
	case *optionalType:
		inner = t.inner
	default:
		return false
	}
	return openEnded(inner, seen) || wrapsOpenEnded(inner, seen)
}

func structOpenEnded(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return false
	}
	seen[t] = true
	last := lastWireField(t)
	if last < 0 {
		return false
	}
	sf := t.Field(last)
	wt, err := resolveTag(sf.Tag.Get("wire"), sf.Type)
	if err != nil {
		return false
	}
	return openEnded(wt, seen)
}

// WireTypeFor returns the wire type used for an untagged field of type t.
func WireTypeFor(t reflect.Type) (WireType, error) {
	return inferWireType(t)
}

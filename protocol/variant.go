package protocol

import (
	"bytes"
	"fmt"
	"reflect"
)

// VariantCase binds one discriminant literal to a case type.
type VariantCase struct {
	Literal int64
	Name    string
	Type    reflect.Type

	schema *PacketSchema
}

// Case declares a variant case. value is a zero value of the case struct,
// e.g. Case(0, "Enabled", ChatModeEnabled{}).
func Case(literal int64, name string, value any) VariantCase {
	return VariantCase{Literal: literal, Name: name, Type: reflect.TypeOf(value)}
}

// VariantSchema is a tagged union: a discriminant followed by the fields of
// the case it selects. In Go the union is a sealed interface and each case is
// a struct implementing it.
type VariantSchema struct {
	name         string
	iface        reflect.Type
	discriminant WireType
	discType     reflect.Type
	cases        []*VariantCase
	byLiteral    map[int64]*VariantCase
	byType       map[reflect.Type]*VariantCase
}

var discriminantTypes = []reflect.Type{
	reflect.TypeOf(int32(0)),
	reflect.TypeOf(int64(0)),
	reflect.TypeOf(uint8(0)),
	reflect.TypeOf(int8(0)),
	reflect.TypeOf(int16(0)),
	reflect.TypeOf(uint16(0)),
	reflect.TypeOf(uint64(0)),
}

// RegisterVariant builds the schema for interface I and makes I usable as a
// field type. It panics on a malformed definition: a non-interface I, a case
// that does not implement I, duplicate literals or duplicate case types.
func RegisterVariant[I any](name string, discriminant WireType, cases ...VariantCase) *VariantSchema {
	iface := reflect.TypeOf((*I)(nil)).Elem()
	if iface.Kind() != reflect.Interface {
		panic(fmt.Sprintf("protocol: variant %s: %v is not an interface", name, iface))
	}
	vs := &VariantSchema{
		name:         name,
		iface:        iface,
		discriminant: discriminant,
		byLiteral:    make(map[int64]*VariantCase, len(cases)),
		byType:       make(map[reflect.Type]*VariantCase, len(cases)),
	}
	for _, t := range discriminantTypes {
		if discriminant.Accepts(t) {
			vs.discType = t
			break
		}
	}
	if vs.discType == nil {
		panic(fmt.Sprintf("protocol: variant %s: discriminant %s is not an integer type", name, discriminant.Name()))
	}
	for i := range cases {
		c := cases[i]
		if c.Type == nil || c.Type.Kind() != reflect.Struct {
			panic(fmt.Sprintf("protocol: variant %s::%s: case must be a struct, got %v", name, c.Name, c.Type))
		}
		if !c.Type.Implements(iface) {
			panic(fmt.Sprintf("protocol: variant %s::%s: %v does not implement %v", name, c.Name, c.Type, iface))
		}
		if literalOverflows(vs.discType, c.Literal) {
			panic(fmt.Sprintf("protocol: variant %s::%s: literal %d does not fit %s", name, c.Name, c.Literal, discriminant.Name()))
		}
		if prev, dup := vs.byLiteral[c.Literal]; dup {
			panic(fmt.Sprintf("protocol: variant %s: literal %d used by %s and %s", name, c.Literal, prev.Name, c.Name))
		}
		if prev, dup := vs.byType[c.Type]; dup {
			panic(fmt.Sprintf("protocol: variant %s: type %v used by %s and %s", name, c.Type, prev.Name, c.Name))
		}
		c.schema = schemaEntry(c.Type)
		vs.cases = append(vs.cases, &c)
		vs.byLiteral[c.Literal] = &c
		vs.byType[c.Type] = &c
	}
	RegisterType(iface, vs)
	return vs
}

func literalOverflows(t reflect.Type, literal int64) bool {
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return literal < 0 || v.OverflowUint(uint64(literal))
	}
	return v.OverflowInt(literal)
}

func (vs *VariantSchema) Name() string { return vs.name }

func (vs *VariantSchema) Accepts(t reflect.Type) bool { return t == vs.iface }

// Cases returns the cases in declaration order.
func (vs *VariantSchema) Cases() []VariantCase {
	out := make([]VariantCase, len(vs.cases))
	for i, c := range vs.cases {
		out[i] = *c
	}
	return out
}

// CaseOf returns the case that val belongs to.
func (vs *VariantSchema) CaseOf(val any) (VariantCase, bool) {
	if val == nil {
		return VariantCase{}, false
	}
	t := reflect.TypeOf(val)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	c, ok := vs.byType[t]
	if !ok {
		return VariantCase{}, false
	}
	return *c, true
}

func (vs *VariantSchema) caseLabel(c *VariantCase) string {
	return vs.name + "::" + c.Name
}

func (vs *VariantSchema) Decode(r *Reader, v ProtocolVersion, dst reflect.Value) error {
	disc := reflect.New(vs.discType).Elem()
	if err := vs.discriminant.Decode(r, v, disc); err != nil {
		return &FieldError{Type: vs.name, Field: "discriminant", Op: "decode", Err: err}
	}
	var literal int64
	if disc.CanInt() {
		literal = disc.Int()
	} else {
		literal = int64(disc.Uint())
	}
	c, ok := vs.byLiteral[literal]
	if !ok {
		return &UnknownVariantError{Type: vs.name, Discriminant: literal}
	}
	val := reflect.New(c.Type).Elem()
	if err := c.schema.decode(vs.caseLabel(c), r, v, val); err != nil {
		return err
	}
	dst.Set(val)
	return nil
}

func (vs *VariantSchema) Encode(w *bytes.Buffer, v ProtocolVersion, src reflect.Value) error {
	if src.Kind() == reflect.Interface {
		if src.IsNil() {
			return fmt.Errorf("%w: nil %s", ErrUnregisteredVariant, vs.name)
		}
		src = src.Elem()
	}
	if src.Kind() == reflect.Ptr {
		if src.IsNil() {
			return fmt.Errorf("%w: nil %s", ErrUnregisteredVariant, vs.name)
		}
		src = src.Elem()
	}
	c, ok := vs.byType[src.Type()]
	if !ok {
		return fmt.Errorf("%w: %v is not a case of %s", ErrUnregisteredVariant, src.Type(), vs.name)
	}
	disc := reflect.New(vs.discType).Elem()
	if disc.CanInt() {
		disc.SetInt(c.Literal)
	} else {
		disc.SetUint(uint64(c.Literal))
	}
	if err := vs.discriminant.Encode(w, v, disc); err != nil {
		return &FieldError{Type: vs.name, Field: "discriminant", Op: "encode", Err: err}
	}
	return c.schema.encode(vs.caseLabel(c), w, v, src)
}

func (vs *VariantSchema) validate(visited map[reflect.Type]bool) error {
	for _, c := range vs.cases {
		if err := c.schema.validate(visited); err != nil {
			return fmt.Errorf("variant %s: %w", vs.caseLabel(c), err)
		}
	}
	return nil
}

// Validate compiles every case schema.
func (vs *VariantSchema) Validate() error {
	return vs.validate(map[reflect.Type]bool{})
}

func (vs *VariantSchema) minWidth() int { return minWidth(vs.discriminant) }

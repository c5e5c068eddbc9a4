package protocol

import (
	"reflect"

	"github.com/google/uuid"

	"cobble/protocol/nbt"
)

// Serializer renders envelopes in a human or tool facing format. It is not
// part of the wire path.
type Serializer interface {
	Marshal(e Envelope) ([]byte, error)
	UnMarshal(bs []byte) (*Dump, error)
}

// Dump is the format-neutral shape of an envelope.
type Dump struct {
	ID     int32          `json:"id" msgpack:"id"`
	Name   string         `json:"name" msgpack:"name"`
	Fields map[string]any `json:"fields" msgpack:"fields"`
}

func NewDump(e Envelope) *Dump {
	d := &Dump{ID: e.ID, Name: e.Name}
	if fields, ok := DumpValue(reflect.ValueOf(e.Packet)).(map[string]any); ok {
		d.Fields = fields
	}
	return d
}

// DumpValue converts a packet value into maps, slices and scalars. Variant
// values carry their case name under "variant"; UUIDs become strings and NBT
// becomes a plain tree.
func DumpValue(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	switch v.Type() {
	case uuidType:
		return v.Interface().(uuid.UUID).String()
	case nbtType:
		blob := v.Interface().(*nbt.Blob)
		if blob == nil {
			return nil
		}
		return nbt.Plain(blob.Root)
	}
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		out := map[string]any{}
		if wt, ok := lookupGoType(v.Type()); ok {
			if vs, ok := wt.(*VariantSchema); ok {
				if c, ok := vs.CaseOf(v.Elem().Interface()); ok {
					out["variant"] = c.Name
				}
			}
		}
		if fields, ok := DumpValue(v.Elem()).(map[string]any); ok {
			for k, f := range fields {
				out[k] = f
			}
		}
		return out
	case reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		return DumpValue(v.Elem())
	case reflect.Struct:
		out := make(map[string]any, v.NumField())
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() || sf.Tag.Get("wire") == "-" {
				continue
			}
			out[sf.Name] = DumpValue(v.Field(i))
		}
		return out
	case reflect.Slice:
		if v.Type() == bytesType {
			return v.Bytes()
		}
		out := make([]any, v.Len())
		for i := range out {
			out[i] = DumpValue(v.Index(i))
		}
		return out
	}
	return v.Interface()
}

// Package nbt reads and writes Named Binary Tag data, the tagged tree format
// the game embeds in item slots and block entity packets.
package nbt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strings"
)

type TagType byte

const (
	TagEnd       = TagType(0)
	TagByte      = TagType(1)
	TagShort     = TagType(2)
	TagInt       = TagType(3)
	TagLong      = TagType(4)
	TagFloat     = TagType(5)
	TagDouble    = TagType(6)
	TagByteArray = TagType(7)
	TagString    = TagType(8)
	TagList      = TagType(9)
	TagCompound  = TagType(10)
	TagIntArray  = TagType(11)
	TagLongArray = TagType(12)
)

// MaxDepth bounds the nesting of lists and compounds a reader will follow.
const MaxDepth = 512

var (
	ErrInvalidTagType = errors.New("nbt: invalid tag type")
	ErrNotCompound    = errors.New("nbt: root tag is not a compound")
	ErrNegativeLength = errors.New("nbt: negative length")
	ErrTooDeep        = errors.New("nbt: nesting too deep")
	ErrNilTag         = errors.New("nbt: nil tag")
)

var tagNames = [...]string{
	"TAG_End", "TAG_Byte", "TAG_Short", "TAG_Int", "TAG_Long", "TAG_Float", "TAG_Double",
	"TAG_Byte_Array", "TAG_String", "TAG_List", "TAG_Compound", "TAG_Int_Array", "TAG_Long_Array",
}

func (tt TagType) String() string {
	if int(tt) < len(tagNames) {
		return tagNames[tt]
	}
	return fmt.Sprintf("TAG_%#x", byte(tt))
}

// Tag is one value in an NBT tree.
type Tag interface {
	Type() TagType
	Lookup(path string) Tag
}

type (
	Byte      struct{ Value int8 }
	Short     struct{ Value int16 }
	Int       struct{ Value int32 }
	Long      struct{ Value int64 }
	Float     struct{ Value float32 }
	Double    struct{ Value float64 }
	ByteArray struct{ Value []byte }
	String    struct{ Value string }
	IntArray  struct{ Value []int32 }
	LongArray struct{ Value []int64 }
)

func (*Byte) Type() TagType      { return TagByte }
func (*Short) Type() TagType     { return TagShort }
func (*Int) Type() TagType       { return TagInt }
func (*Long) Type() TagType      { return TagLong }
func (*Float) Type() TagType     { return TagFloat }
func (*Double) Type() TagType    { return TagDouble }
func (*ByteArray) Type() TagType { return TagByteArray }
func (*String) Type() TagType    { return TagString }
func (*IntArray) Type() TagType  { return TagIntArray }
func (*LongArray) Type() TagType { return TagLongArray }

func (*Byte) Lookup(string) Tag      { return nil }
func (*Short) Lookup(string) Tag     { return nil }
func (*Int) Lookup(string) Tag       { return nil }
func (*Long) Lookup(string) Tag      { return nil }
func (*Float) Lookup(string) Tag     { return nil }
func (*Double) Lookup(string) Tag    { return nil }
func (*ByteArray) Lookup(string) Tag { return nil }
func (*String) Lookup(string) Tag    { return nil }
func (*IntArray) Lookup(string) Tag  { return nil }
func (*LongArray) Lookup(string) Tag { return nil }

// List holds tags that all share ElemType.
type List struct {
	ElemType TagType
	Value    []Tag
}

func (*List) Type() TagType { return TagList }

func (*List) Lookup(string) Tag { return nil }

type NamedTag struct {
	Name string
	Tag  Tag
}

// Compound keeps its entries in wire order so a decoded tree re-encodes to
// the same bytes.
type Compound struct {
	Tags []NamedTag
}

func (*Compound) Type() TagType { return TagCompound }

// Get returns the entry called name, or nil.
func (c *Compound) Get(name string) Tag {
	for i := range c.Tags {
		if c.Tags[i].Name == name {
			return c.Tags[i].Tag
		}
	}
	return nil
}

// Set replaces the entry called name or appends a new one.
func (c *Compound) Set(name string, tag Tag) {
	for i := range c.Tags {
		if c.Tags[i].Name == name {
			c.Tags[i].Tag = tag
			return
		}
	}
	c.Tags = append(c.Tags, NamedTag{Name: name, Tag: tag})
}

// Lookup walks a slash separated path through nested compounds.
func (c *Compound) Lookup(path string) Tag {
	path = strings.TrimPrefix(path, "/")
	head, rest, nested := strings.Cut(path, "/")
	tag := c.Get(head)
	if tag == nil || !nested {
		return tag
	}
	return tag.Lookup(rest)
}

// Blob is a named root compound as it appears on the wire.
type Blob struct {
	Name string
	Root *Compound
}

func (b *Blob) Lookup(path string) Tag {
	if b == nil || b.Root == nil {
		return nil
	}
	return b.Root.Lookup(path)
}

// Read decodes one root tag. A lone TAG_End means "no blob" and yields nil
// with no error.
func Read(r io.Reader) (*Blob, error) {
	d := decoder{r: r}
	tt, err := d.tagType()
	if err != nil {
		return nil, err
	}
	if tt == TagEnd {
		return nil, nil
	}
	if tt != TagCompound {
		return nil, fmt.Errorf("%w: got %v", ErrNotCompound, tt)
	}
	name, err := d.string()
	if err != nil {
		return nil, unexpected(err)
	}
	root, err := d.compound(0)
	if err != nil {
		return nil, fmt.Errorf("nbt: reading %q: %w", name, err)
	}
	return &Blob{Name: name, Root: root}, nil
}

// Write encodes b, or a lone TAG_End when b is nil.
func Write(w io.Writer, b *Blob) error {
	e := encoder{w: w}
	if b == nil {
		e.byte(byte(TagEnd))
		return e.err
	}
	root := b.Root
	if root == nil {
		root = &Compound{}
	}
	e.byte(byte(TagCompound))
	e.string(b.Name)
	e.payload(root)
	return e.err
}

type decoder struct {
	r   io.Reader
	buf [8]byte
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func (d *decoder) fixed(n int) ([]byte, error) {
	if _, err := io.ReadFull(d.r, d.buf[:n]); err != nil {
		return nil, err
	}
	return d.buf[:n], nil
}

func (d *decoder) tagType() (TagType, error) {
	b, err := d.fixed(1)
	if err != nil {
		return 0, err
	}
	tt := TagType(b[0])
	if tt > TagLongArray {
		return 0, fmt.Errorf("%w %#x", ErrInvalidTagType, b[0])
	}
	return tt, nil
}

func (d *decoder) int32() (int32, error) {
	b, err := d.fixed(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (d *decoder) length() (int, error) {
	n, err := d.int32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrNegativeLength
	}
	return int(n), nil
}

// bytes reads n bytes in bounded chunks so a hostile length prefix cannot
// force a large allocation before the input runs out.
func (d *decoder) bytes(n int) ([]byte, error) {
	const chunk = 64 << 10
	if n <= chunk {
		b := make([]byte, n)
		_, err := io.ReadFull(d.r, b)
		return b, err
	}
	b := make([]byte, 0, chunk)
	for len(b) < n {
		step := n - len(b)
		if step > chunk {
			step = chunk
		}
		b = append(b, make([]byte, step)...)
		if _, err := io.ReadFull(d.r, b[len(b)-step:]); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (d *decoder) string() (string, error) {
	b, err := d.fixed(2)
	if err != nil {
		return "", err
	}
	s, err := d.bytes(int(binary.BigEndian.Uint16(b)))
	if err != nil {
		return "", err
	}
	return string(s), nil
}

func (d *decoder) payload(tt TagType, depth int) (Tag, error) {
	switch tt {
	case TagByte:
		b, err := d.fixed(1)
		if err != nil {
			return nil, err
		}
		return &Byte{int8(b[0])}, nil
	case TagShort:
		b, err := d.fixed(2)
		if err != nil {
			return nil, err
		}
		return &Short{int16(binary.BigEndian.Uint16(b))}, nil
	case TagInt:
		n, err := d.int32()
		if err != nil {
			return nil, err
		}
		return &Int{n}, nil
	case TagLong:
		b, err := d.fixed(8)
		if err != nil {
			return nil, err
		}
		return &Long{int64(binary.BigEndian.Uint64(b))}, nil
	case TagFloat:
		b, err := d.fixed(4)
		if err != nil {
			return nil, err
		}
		return &Float{math.Float32frombits(binary.BigEndian.Uint32(b))}, nil
	case TagDouble:
		b, err := d.fixed(8)
		if err != nil {
			return nil, err
		}
		return &Double{math.Float64frombits(binary.BigEndian.Uint64(b))}, nil
	case TagByteArray:
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		b, err := d.bytes(n)
		if err != nil {
			return nil, err
		}
		return &ByteArray{b}, nil
	case TagString:
		s, err := d.string()
		if err != nil {
			return nil, err
		}
		return &String{s}, nil
	case TagIntArray:
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		raw, err := d.bytes(n * 4)
		if err != nil {
			return nil, err
		}
		v := make([]int32, n)
		for i := range v {
			v[i] = int32(binary.BigEndian.Uint32(raw[i*4:]))
		}
		return &IntArray{v}, nil
	case TagLongArray:
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		raw, err := d.bytes(n * 8)
		if err != nil {
			return nil, err
		}
		v := make([]int64, n)
		for i := range v {
			v[i] = int64(binary.BigEndian.Uint64(raw[i*8:]))
		}
		return &LongArray{v}, nil
	case TagList:
		return d.list(depth + 1)
	case TagCompound:
		return d.compound(depth + 1)
	}
	return nil, fmt.Errorf("%w %v in payload position", ErrInvalidTagType, tt)
}

func (d *decoder) list(depth int) (*List, error) {
	if depth > MaxDepth {
		return nil, ErrTooDeep
	}
	elem, err := d.tagType()
	if err != nil {
		return nil, unexpected(err)
	}
	n, err := d.length()
	if err != nil {
		return nil, unexpected(err)
	}
	l := &List{ElemType: elem}
	if n == 0 {
		return l, nil
	}
	if elem == TagEnd {
		return nil, fmt.Errorf("%w: non-empty list of TAG_End", ErrInvalidTagType)
	}
	capacity := n
	if capacity > 1024 {
		capacity = 1024
	}
	l.Value = make([]Tag, 0, capacity)
	for i := 0; i < n; i++ {
		tag, err := d.payload(elem, depth)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, unexpected(err))
		}
		l.Value = append(l.Value, tag)
	}
	return l, nil
}

func (d *decoder) compound(depth int) (*Compound, error) {
	if depth > MaxDepth {
		return nil, ErrTooDeep
	}
	c := &Compound{}
	for {
		tt, err := d.tagType()
		if err != nil {
			return nil, unexpected(err)
		}
		if tt == TagEnd {
			return c, nil
		}
		name, err := d.string()
		if err != nil {
			return nil, unexpected(err)
		}
		tag, err := d.payload(tt, depth)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, unexpected(err))
		}
		c.Tags = append(c.Tags, NamedTag{Name: name, Tag: tag})
	}
}

// encoder latches the first write error so the payload walk stays linear.
type encoder struct {
	w   io.Writer
	buf [8]byte
	err error
}

func (e *encoder) write(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *encoder) byte(b byte) {
	e.buf[0] = b
	e.write(e.buf[:1])
}

func (e *encoder) uint16(n uint16) {
	binary.BigEndian.PutUint16(e.buf[:2], n)
	e.write(e.buf[:2])
}

func (e *encoder) uint32(n uint32) {
	binary.BigEndian.PutUint32(e.buf[:4], n)
	e.write(e.buf[:4])
}

func (e *encoder) uint64(n uint64) {
	binary.BigEndian.PutUint64(e.buf[:8], n)
	e.write(e.buf[:8])
}

func (e *encoder) string(s string) {
	if len(s) > math.MaxUint16 {
		if e.err == nil {
			e.err = fmt.Errorf("nbt: string of %d bytes exceeds %d", len(s), math.MaxUint16)
		}
		return
	}
	e.uint16(uint16(len(s)))
	e.write([]byte(s))
}

func isNil(tag Tag) bool {
	if tag == nil {
		return true
	}
	v := reflect.ValueOf(tag)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// typeOf is tag.Type() with nil tags reported as TagEnd; payload latches
// ErrNilTag for them.
func typeOf(tag Tag) TagType {
	if isNil(tag) {
		return TagEnd
	}
	return tag.Type()
}

func (e *encoder) payload(tag Tag) {
	if isNil(tag) {
		if e.err == nil {
			e.err = ErrNilTag
		}
		return
	}
	switch t := tag.(type) {
	case *Byte:
		e.byte(byte(t.Value))
	case *Short:
		e.uint16(uint16(t.Value))
	case *Int:
		e.uint32(uint32(t.Value))
	case *Long:
		e.uint64(uint64(t.Value))
	case *Float:
		e.uint32(math.Float32bits(t.Value))
	case *Double:
		e.uint64(math.Float64bits(t.Value))
	case *ByteArray:
		e.uint32(uint32(len(t.Value)))
		e.write(t.Value)
	case *String:
		e.string(t.Value)
	case *IntArray:
		e.uint32(uint32(len(t.Value)))
		for _, v := range t.Value {
			e.uint32(uint32(v))
		}
	case *LongArray:
		e.uint32(uint32(len(t.Value)))
		for _, v := range t.Value {
			e.uint64(uint64(v))
		}
	case *List:
		e.byte(byte(t.ElemType))
		e.uint32(uint32(len(t.Value)))
		for _, v := range t.Value {
			if vt := typeOf(v); vt != t.ElemType && !isNil(v) && e.err == nil {
				e.err = fmt.Errorf("nbt: %v element in list of %v", vt, t.ElemType)
			}
			e.payload(v)
		}
	case *Compound:
		for _, nt := range t.Tags {
			e.byte(byte(typeOf(nt.Tag)))
			e.string(nt.Name)
			e.payload(nt.Tag)
		}
		e.byte(byte(TagEnd))
	default:
		if e.err == nil {
			e.err = fmt.Errorf("nbt: cannot encode %T", tag)
		}
	}
}

// Plain converts a tag tree into maps, slices and scalars for dumping.
func Plain(tag Tag) any {
	switch t := tag.(type) {
	case nil:
		return nil
	case *Byte:
		return t.Value
	case *Short:
		return t.Value
	case *Int:
		return t.Value
	case *Long:
		return t.Value
	case *Float:
		return t.Value
	case *Double:
		return t.Value
	case *ByteArray:
		return t.Value
	case *String:
		return t.Value
	case *IntArray:
		return t.Value
	case *LongArray:
		return t.Value
	case *List:
		out := make([]any, len(t.Value))
		for i, v := range t.Value {
			out[i] = Plain(v)
		}
		return out
	case *Compound:
		out := make(map[string]any, len(t.Tags))
		for _, nt := range t.Tags {
			out[nt.Name] = Plain(nt.Tag)
		}
		return out
	}
	return nil
}

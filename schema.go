package streamrec

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// NodeKind tells tables (records with named fields) from arrays (fixed-shape
// slices of one element type).
type NodeKind uint8

const (
	KindTable NodeKind = 1
	KindArray NodeKind = 2
)

func (k NodeKind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindArray:
		return "array"
	default:
		return "NodeKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Field is one column of a table. A non-empty Shape makes the column a fixed
// size array of Type.
type Field struct {
	Name  string `msgpack:"n"`
	Type  DType  `msgpack:"t"`
	Shape []int  `msgpack:"s,omitempty"`
}

// F is shorthand for building a Field.
func F(name string, typ DType, shape ...int) Field {
	return Field{Name: name, Type: typ, Shape: shape}
}

func (fld Field) ByteSize() int {
	return fld.Type.ByteSize() * shapeSize(fld.Shape)
}

// Schema describes the row layout of one node.
type Schema struct {
	Kind   NodeKind `msgpack:"k"`
	Fields []Field  `msgpack:"f,omitempty"`
	Elem   DType    `msgpack:"e"`
	Shape  []int    `msgpack:"s,omitempty"`
}

// NewTableSchema returns a record schema with the given fields.
func NewTableSchema(fields ...Field) *Schema {
	return &Schema{Kind: KindTable, Fields: fields}
}

// NewArraySchema returns an array schema; each row is one elem-typed slice of
// the given trailing shape (no shape means one scalar per row).
func NewArraySchema(elem DType, shape ...int) *Schema {
	return &Schema{Kind: KindArray, Elem: elem, Shape: shape}
}

func (sch *Schema) RowSize() int {
	switch sch.Kind {
	case KindTable:
		var n int
		for _, fld := range sch.Fields {
			n += fld.ByteSize()
		}
		return n
	case KindArray:
		return sch.Elem.ByteSize() * shapeSize(sch.Shape)
	default:
		return 0
	}
}

// FieldNamed returns the field with the given name and its byte offset within
// a row, or ok=false.
func (sch *Schema) FieldNamed(name string) (fld Field, off int, ok bool) {
	for _, f := range sch.Fields {
		if f.Name == name {
			return f, off, true
		}
		off += f.ByteSize()
	}
	return Field{}, 0, false
}

func (sch *Schema) Validate() error {
	if sch == nil {
		return fmt.Errorf("nil schema")
	}
	switch sch.Kind {
	case KindTable:
		if len(sch.Fields) == 0 {
			return fmt.Errorf("table schema has no fields")
		}
		seen := make(map[string]bool, len(sch.Fields))
		for _, fld := range sch.Fields {
			if fld.Name == "" {
				return fmt.Errorf("table schema has a field with no name")
			}
			if seen[fld.Name] {
				return fmt.Errorf("duplicate field %q", fld.Name)
			}
			seen[fld.Name] = true
			if err := fld.Type.validate(); err != nil {
				return fmt.Errorf("field %q: %w", fld.Name, err)
			}
			if err := validateShape(fld.Shape); err != nil {
				return fmt.Errorf("field %q: %w", fld.Name, err)
			}
		}
	case KindArray:
		if len(sch.Fields) != 0 {
			return fmt.Errorf("array schema cannot have fields")
		}
		if err := sch.Elem.validate(); err != nil {
			return err
		}
		if err := validateShape(sch.Shape); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid schema kind %v", sch.Kind)
	}
	return nil
}

// Equal reports whether both schemas have the same layout and field names.
func (sch *Schema) Equal(other *Schema) bool {
	if sch == nil || other == nil {
		return sch == other
	}
	if sch.Kind != other.Kind || sch.Elem != other.Elem || !shapeEqual(sch.Shape, other.Shape) {
		return false
	}
	return slices.EqualFunc(sch.Fields, other.Fields, func(a, b Field) bool {
		return a.Name == b.Name && a.Type == b.Type && shapeEqual(a.Shape, b.Shape)
	})
}

// String renders the schema like "{x float64, pos float32[3]}" or "float64[2,2]".
func (sch *Schema) String() string {
	if sch == nil {
		return "<nil>"
	}
	var buf strings.Builder
	switch sch.Kind {
	case KindTable:
		buf.WriteByte('{')
		for i, fld := range sch.Fields {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(fld.Name)
			buf.WriteByte(' ')
			buf.WriteString(fld.Type.String())
			writeShape(&buf, fld.Shape)
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteString(sch.Elem.String())
		writeShape(&buf, sch.Shape)
	default:
		buf.WriteString(sch.Kind.String())
	}
	return buf.String()
}

func writeShape(buf *strings.Builder, shape []int) {
	if len(shape) == 0 {
		return
	}
	buf.WriteByte('[')
	for i, d := range shape {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Itoa(d))
	}
	buf.WriteByte(']')
}

func shapeSize(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// shapeEqual treats nil and empty shapes as the same scalar shape.
func shapeEqual(a, b []int) bool {
	return len(a) == len(b) && (len(a) == 0 || slices.Equal(a, b))
}

func validateShape(shape []int) error {
	for _, d := range shape {
		if d <= 0 {
			return fmt.Errorf("invalid shape %v", shape)
		}
	}
	return nil
}

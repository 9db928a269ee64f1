package streamrec

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

var layoutCache sync.Map

// layout binds a Go type to the schema it encodes to.
type layout struct {
	typ     reflect.Type
	schema  *Schema
	fields  []fieldLayout
	rowSize int
}

type fieldLayout struct {
	index []int
	typ   DType
	depth int
	size  int
}

func layoutOf(typ reflect.Type) (*layout, error) {
	if v, ok := layoutCache.Load(typ); ok {
		return v.(*layout), nil
	}
	lay, err := layoutWithoutCache(typ)
	if err != nil {
		return nil, err
	}
	actual, _ := layoutCache.LoadOrStore(typ, lay)
	return actual.(*layout), nil
}

func layoutWithoutCache(typ reflect.Type) (*layout, error) {
	lay := &layout{typ: typ}
	if typ.Kind() == reflect.Struct {
		sch := &Schema{Kind: KindTable}
		for i := 0; i < typ.NumField(); i++ {
			sf := typ.Field(i)
			if !sf.IsExported() {
				continue
			}
			name, size, skip, err := parseFieldTag(sf)
			if err != nil {
				return nil, fmt.Errorf("%v.%s: %w", typ, sf.Name, err)
			}
			if skip {
				continue
			}
			shape, st := unwrapArrays(sf.Type)
			var dt DType
			if st.Kind() == reflect.String {
				if size <= 0 {
					return nil, fmt.Errorf("%v.%s: string fields need a size, e.g. `rec:\"%s,64\"`", typ, sf.Name, name)
				}
				dt = FixedString(size)
			} else {
				var ok bool
				dt, ok = dtypeOfKind(st.Kind())
				if !ok {
					return nil, fmt.Errorf("%v.%s: unsupported field type %v", typ, sf.Name, sf.Type)
				}
				if size != 0 {
					return nil, fmt.Errorf("%v.%s: size is only allowed on string fields", typ, sf.Name)
				}
			}
			fld := Field{Name: name, Type: dt, Shape: shape}
			sch.Fields = append(sch.Fields, fld)
			lay.fields = append(lay.fields, fieldLayout{
				index: sf.Index,
				typ:   dt,
				depth: len(shape),
				size:  fld.ByteSize(),
			})
		}
		if len(sch.Fields) == 0 {
			return nil, fmt.Errorf("%v has no recordable fields", typ)
		}
		lay.schema = sch
	} else {
		shape, st := unwrapArrays(typ)
		dt, ok := dtypeOfKind(st.Kind())
		if !ok {
			return nil, fmt.Errorf("unsupported array element type %v", st)
		}
		lay.schema = NewArraySchema(dt, shape...)
	}
	if err := lay.schema.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", typ, err)
	}
	lay.rowSize = lay.schema.RowSize()
	return lay, nil
}

// parseFieldTag reads `rec:"name,size"`; `rec:"-"` skips the field.
func parseFieldTag(sf reflect.StructField) (name string, size int, skip bool, err error) {
	tag, ok := sf.Tag.Lookup("rec")
	if !ok {
		return sf.Name, 0, false, nil
	}
	if tag == "-" {
		return "", 0, true, nil
	}
	name, sizeStr, _ := strings.Cut(tag, ",")
	if name == "" {
		name = sf.Name
	}
	if sizeStr != "" {
		size, err = strconv.Atoi(sizeStr)
		if err != nil || size <= 0 {
			return "", 0, false, fmt.Errorf("invalid size %q in rec tag", sizeStr)
		}
	}
	return name, size, false, nil
}

func unwrapArrays(typ reflect.Type) ([]int, reflect.Type) {
	var shape []int
	for typ.Kind() == reflect.Array {
		shape = append(shape, typ.Len())
		typ = typ.Elem()
	}
	return shape, typ
}

// SchemaOf derives a schema from T. Structs become tables (exported fields in
// order, `rec:"name,size"` tags); numeric scalars and fixed-size arrays of them
// become arrays whose shape is the array dimensions.
func SchemaOf[T any]() (*Schema, error) {
	lay, err := layoutOf(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return lay.schema, nil
}

func MustSchemaOf[T any]() *Schema {
	return must(SchemaOf[T]())
}

// rowTypeOf builds a Go type whose layout is sch, the inverse of SchemaOf.
// Tables become structs with fields F0, F1... tagged with the column names.
func rowTypeOf(sch *Schema) (reflect.Type, error) {
	if err := sch.Validate(); err != nil {
		return nil, err
	}
	if sch.Kind == KindArray {
		if sch.Elem.Kind == ElemString {
			return nil, fmt.Errorf("array schema %v: string elements are only supported in tables", sch)
		}
		et, _ := sch.Elem.goType()
		return arrayOfShape(et, sch.Shape), nil
	}
	fields := make([]reflect.StructField, len(sch.Fields))
	for i, fld := range sch.Fields {
		if fld.Name == "-" || strings.Contains(fld.Name, ",") {
			return nil, fmt.Errorf("field %q cannot be expressed as a rec tag", fld.Name)
		}
		tag := fld.Name
		if fld.Type.Kind == ElemString {
			tag += "," + strconv.Itoa(fld.Type.Size)
		}
		et, _ := fld.Type.goType()
		fields[i] = reflect.StructField{
			Name: "F" + strconv.Itoa(i),
			Type: arrayOfShape(et, fld.Shape),
			Tag:  reflect.StructTag("rec:" + strconv.Quote(tag)),
		}
	}
	return reflect.StructOf(fields), nil
}

func arrayOfShape(et reflect.Type, shape []int) reflect.Type {
	for i := len(shape) - 1; i >= 0; i-- {
		et = reflect.ArrayOf(shape[i], et)
	}
	return et
}

// NewRow returns a pointer to a zero row of sch, ready to be filled through
// reflection and passed to Append.
func NewRow(sch *Schema) (any, error) {
	typ, err := rowTypeOf(sch)
	if err != nil {
		return nil, err
	}
	return reflect.New(typ).Interface(), nil
}

// encode writes one row; buf must be lay.rowSize bytes.
func (lay *layout) encode(buf []byte, v reflect.Value) {
	if lay.schema.Kind == KindArray {
		encodeShaped(buf, lay.schema.Elem, v, len(lay.schema.Shape))
		return
	}
	var off int
	for _, f := range lay.fields {
		encodeShaped(buf[off:off+f.size], f.typ, v.FieldByIndex(f.index), f.depth)
		off += f.size
	}
}

func (lay *layout) decode(buf []byte, v reflect.Value) {
	if lay.schema.Kind == KindArray {
		decodeShaped(buf, lay.schema.Elem, v, len(lay.schema.Shape))
		return
	}
	var off int
	for _, f := range lay.fields {
		decodeShaped(buf[off:off+f.size], f.typ, v.FieldByIndex(f.index), f.depth)
		off += f.size
	}
}

func encodeShaped(b []byte, dt DType, v reflect.Value, depth int) {
	if depth == 0 {
		putScalar(b, dt, v)
		return
	}
	n := v.Len()
	step := len(b) / n
	for i := 0; i < n; i++ {
		encodeShaped(b[i*step:(i+1)*step], dt, v.Index(i), depth-1)
	}
}

func decodeShaped(b []byte, dt DType, v reflect.Value, depth int) {
	if depth == 0 {
		getScalar(b, dt, v)
		return
	}
	n := v.Len()
	step := len(b) / n
	for i := 0; i < n; i++ {
		decodeShaped(b[i*step:(i+1)*step], dt, v.Index(i), depth-1)
	}
}

// DecodeRow decodes one raw row without a Go type: tables decode to
// map[string]any, shaped values to nested []any.
func (sch *Schema) DecodeRow(row []byte) any {
	if sch.Kind == KindArray {
		return decodeShapedAny(row, sch.Elem, sch.Shape)
	}
	m := make(map[string]any, len(sch.Fields))
	var off int
	for _, fld := range sch.Fields {
		n := fld.ByteSize()
		m[fld.Name] = decodeShapedAny(row[off:off+n], fld.Type, fld.Shape)
		off += n
	}
	return m
}

func decodeShapedAny(b []byte, dt DType, shape []int) any {
	if len(shape) == 0 {
		return scalarAny(b, dt)
	}
	n := shape[0]
	step := len(b) / n
	out := make([]any, n)
	for i := range out {
		out[i] = decodeShapedAny(b[i*step:(i+1)*step], dt, shape[1:])
	}
	return out
}

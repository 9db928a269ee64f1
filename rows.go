package streamrec

import "reflect"

// encodeRows appends v to buf as rows of sch. v may be a single row value, a
// pointer to one, or a slice/array of rows or row pointers. Nil pointers
// contribute no rows.
func encodeRows(buf []byte, node string, sch *Schema, v reflect.Value) ([]byte, int, error) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return buf, 0, nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return buf, 0, nil
	}

	lay, err := layoutOf(v.Type())
	if err == nil && lay.schema.Equal(sch) {
		return appendRow(buf, lay, v), 1, nil
	}

	if k := v.Kind(); k == reflect.Slice || k == reflect.Array {
		et := v.Type().Elem()
		ptrElems := et.Kind() == reflect.Pointer
		if ptrElems {
			et = et.Elem()
		}
		elemLay, elemErr := layoutOf(et)
		if elemErr == nil && elemLay.schema.Equal(sch) {
			var n int
			for i := 0; i < v.Len(); i++ {
				ev := v.Index(i)
				if ptrElems {
					if ev.IsNil() {
						continue
					}
					ev = ev.Elem()
				}
				buf = appendRow(buf, elemLay, ev)
				n++
			}
			return buf, n, nil
		}
		if err != nil {
			// v is not a row type itself, so the element type is the one to blame.
			if elemErr != nil {
				return buf, 0, &SchemaError{Node: node, Want: sch, GoType: et, Err: elemErr}
			}
			return buf, 0, &SchemaError{Node: node, Want: sch, GoType: et, Got: elemLay.schema}
		}
	}

	if err != nil {
		return buf, 0, &SchemaError{Node: node, Want: sch, GoType: v.Type(), Err: err}
	}
	return buf, 0, &SchemaError{Node: node, Want: sch, GoType: v.Type(), Got: lay.schema}
}

func appendRow(buf []byte, lay *layout, v reflect.Value) []byte {
	off, buf := grow(buf, lay.rowSize)
	lay.encode(buf[off:], v)
	return buf
}

// decodeRows decodes raw into a new []T.
func decodeRows[T any](node string, sch *Schema, raw []byte) ([]T, error) {
	lay, err := layoutOf(reflect.TypeFor[T]())
	if err != nil {
		return nil, &SchemaError{Node: node, Want: sch, GoType: reflect.TypeFor[T](), Err: err}
	}
	if !lay.schema.Equal(sch) {
		return nil, &SchemaError{Node: node, Want: sch, GoType: lay.typ, Got: lay.schema}
	}
	n := len(raw) / lay.rowSize
	out := make([]T, n)
	for i := range out {
		lay.decode(raw[i*lay.rowSize:(i+1)*lay.rowSize], reflect.ValueOf(&out[i]).Elem())
	}
	return out, nil
}

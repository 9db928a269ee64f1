package streamrec

import (
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestSchema_RowSizeAndString(t *testing.T) {
	sch := NewTableSchema(F("t", Uint64), F("pos", Float32, 3), F("name", FixedString(8)), F("img", Uint8, 2, 2))
	ensure(sch.Validate())
	deepEqual(t, sch.RowSize(), 8+12+8+4)
	deepEqual(t, sch.String(), "{t uint64, pos float32[3], name S8, img uint8[2,2]}")

	arr := NewArraySchema(Float64, 2, 3)
	ensure(arr.Validate())
	deepEqual(t, arr.RowSize(), 48)
	deepEqual(t, arr.String(), "float64[2,3]")
	deepEqual(t, NewArraySchema(Int16).String(), "int16")
}

func TestSchema_FieldNamed(t *testing.T) {
	sch := NewTableSchema(F("a", Int16), F("b", Float64, 2), F("c", Bool))
	fld, off, ok := sch.FieldNamed("c")
	if !ok || fld.Type != Bool || off != 18 {
		t.Errorf("** FieldNamed(c) = (%v, %d, %v), wanted (bool, 18, true)", fld, off, ok)
	}
	if _, _, ok := sch.FieldNamed("zzz"); ok {
		t.Error("** FieldNamed(zzz) ok = true")
	}
}

func TestSchema_Validate(t *testing.T) {
	bad := map[string]*Schema{
		"nil":             nil,
		"no kind":         {},
		"no fields":       NewTableSchema(),
		"unnamed field":   NewTableSchema(F("", Int8)),
		"duplicate":       NewTableSchema(F("a", Int8), F("a", Int16)),
		"bad field type":  NewTableSchema(F("a", DType{})),
		"bad field shape": NewTableSchema(F("a", Int8, 0)),
		"array fields":    {Kind: KindArray, Elem: Int8, Fields: []Field{F("a", Int8)}},
		"array elem":      NewArraySchema(FixedString(0)),
		"array shape":     NewArraySchema(Int8, 3, -1),
	}
	for name, sch := range bad {
		if err := sch.Validate(); err == nil {
			t.Errorf("** %s: Validate() = nil, wanted error", name)
		}
	}
}

func TestSchema_Equal(t *testing.T) {
	a := NewTableSchema(F("x", Float64), F("y", Int32, 2))
	b := NewTableSchema(F("x", Float64), F("y", Int32, 2))
	c := NewTableSchema(F("x", Float64), F("y", Int32, 3))
	d := NewTableSchema(F("x", Float64), F("z", Int32, 2))
	deepEqual(t, a.Equal(b), true)
	deepEqual(t, a.Equal(c), false)
	deepEqual(t, a.Equal(d), false)
	deepEqual(t, a.Equal(nil), false)
	deepEqual(t, (*Schema)(nil).Equal(nil), true)

	// scalar shapes compare equal whether nil or empty
	deepEqual(t, NewArraySchema(Int8).Equal(&Schema{Kind: KindArray, Elem: Int8, Shape: []int{}}), true)
}

func TestSchema_msgpackRoundTrip(t *testing.T) {
	for _, sch := range []*Schema{
		NewTableSchema(F("time", Uint64), F("msg", FixedString(256))),
		NewArraySchema(Float32, 4, 4),
		NewArraySchema(Bool),
	} {
		raw := must(msgpack.Marshal(sch))
		var out Schema
		ensure(msgpack.Unmarshal(raw, &out))
		if !sch.Equal(&out) {
			t.Errorf("** %v decoded as %v", sch, &out)
		}
	}
}

func TestSchema_DecodeRow(t *testing.T) {
	sch := NewTableSchema(F("a", Int16), F("v", Uint8, 2), F("s", FixedString(3)))
	row := x("feff 0102 616200")
	deepEqual(t, sch.DecodeRow(row), any(map[string]any{
		"a": int64(-2),
		"v": []any{uint64(1), uint64(2)},
		"s": "ab",
	}))

	arr := NewArraySchema(Int8, 2, 2)
	deepEqual(t, arr.DecodeRow(x("01020304")), any([]any{
		[]any{int64(1), int64(2)},
		[]any{int64(3), int64(4)},
	}))
}

func TestNodeKind_String(t *testing.T) {
	deepEqual(t, KindTable.String(), "table")
	deepEqual(t, KindArray.String(), "array")
	if s := NodeKind(7).String(); !strings.Contains(s, "7") {
		t.Errorf("** NodeKind(7).String() = %q", s)
	}
}

func TestField_ByteSize(t *testing.T) {
	deepEqual(t, F("a", Float64).ByteSize(), 8)
	deepEqual(t, F("a", Float64, 2, 3).ByteSize(), 48)
}

package streamrec

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

type sample struct {
	Time   uint64     `rec:"t"`
	Pos    [3]float32 `rec:"pos"`
	Name   string     `rec:"name,8"`
	Skip   int        `rec:"-"`
	hidden int
	Flag   bool
	Grid   [2][2]int16
	Count  int
}

func TestSchemaOf_struct(t *testing.T) {
	sch := must(SchemaOf[sample]())
	deepEqual(t, sch.String(), "{t uint64, pos float32[3], name S8, Flag bool, Grid int16[2,2], Count int64}")
	deepEqual(t, sch.RowSize(), 8+12+8+1+8+8)

	// cached
	if MustSchemaOf[sample]() != sch {
		t.Error("** SchemaOf should return the cached schema")
	}
}

func TestSchemaOf_arrays(t *testing.T) {
	deepEqual(t, must(SchemaOf[float64]()).String(), "float64")
	deepEqual(t, must(SchemaOf[[4]uint8]()).String(), "uint8[4]")
	deepEqual(t, must(SchemaOf[[2][3]int16]()).String(), "int16[2,3]")
}

func TestSchemaOf_errors(t *testing.T) {
	type noSize struct {
		S string
	}
	type sizeOnNumber struct {
		N int `rec:"n,4"`
	}
	type badSize struct {
		S string `rec:"s,x"`
	}
	type mapField struct {
		M map[string]int
	}
	type empty struct {
		hidden int
	}
	check := func(name string, err error, want string) {
		t.Helper()
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("** %s: err = %v, wanted %q", name, err, want)
		}
	}
	_, err := SchemaOf[noSize]()
	check("noSize", err, "need a size")
	_, err = SchemaOf[sizeOnNumber]()
	check("sizeOnNumber", err, "only allowed on string")
	_, err = SchemaOf[badSize]()
	check("badSize", err, "invalid size")
	_, err = SchemaOf[mapField]()
	check("mapField", err, "unsupported field type")
	_, err = SchemaOf[empty]()
	check("empty", err, "no recordable fields")
	_, err = SchemaOf[string]()
	check("string", err, "unsupported")
	_, err = SchemaOf[[]float64]()
	check("slice", err, "unsupported")

	assertPanics(t, func() { MustSchemaOf[mapField]() })
}

func TestLayout_encodeDecode(t *testing.T) {
	in := []sample{
		{Time: 1, Pos: [3]float32{1, 2, 3}, Name: "abc", Skip: 9, hidden: 9, Flag: true, Grid: [2][2]int16{{-1, 2}, {3, -4}}, Count: -7},
		{Time: 2, Name: "truncated!", Count: 1 << 40},
	}
	sch := MustSchemaOf[sample]()
	raw, n, err := encodeRows(nil, "s", sch, reflect.ValueOf(in))
	ensure(err)
	deepEqual(t, n, 2)
	deepEqual(t, len(raw), 2*sch.RowSize())

	out := must(decodeRows[sample]("s", sch, raw))
	want := []sample{
		{Time: 1, Pos: [3]float32{1, 2, 3}, Name: "abc", Flag: true, Grid: [2][2]int16{{-1, 2}, {3, -4}}, Count: -7},
		{Time: 2, Name: "truncate", Count: 1 << 40},
	}
	deepEqual(t, out, want)
}

func TestDecodeRows_mismatch(t *testing.T) {
	_, err := decodeRows[rec2]("t", MustSchemaOf[rec1](), make([]byte, 12))
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("** err = %v, wanted *SchemaError", err)
	}
	deepEqual(t, se.Got.String(), "{X uint16, Y float32}")
}

func TestEncodeRows_interfaceSlice(t *testing.T) {
	sch := MustSchemaOf[rec1]()
	rows := []*rec1{{A: 1}, nil, {A: 2}}
	var v any = rows
	raw, n, err := encodeRows(nil, "t", sch, reflect.ValueOf(&v))
	ensure(err)
	deepEqual(t, n, 2)
	deepEqual(t, must(decodeRows[rec1]("t", sch, raw)), []rec1{{A: 1}, {A: 2}})
}

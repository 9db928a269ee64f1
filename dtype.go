package streamrec

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// ElemKind identifies the storage type of a single scalar value.
type ElemKind uint8

const (
	ElemInvalid ElemKind = iota
	ElemBool
	ElemInt8
	ElemInt16
	ElemInt32
	ElemInt64
	ElemUint8
	ElemUint16
	ElemUint32
	ElemUint64
	ElemFloat32
	ElemFloat64
	ElemString
)

var elemKindNames = [...]string{
	ElemInvalid: "invalid",
	ElemBool:    "bool",
	ElemInt8:    "int8",
	ElemInt16:   "int16",
	ElemInt32:   "int32",
	ElemInt64:   "int64",
	ElemUint8:   "uint8",
	ElemUint16:  "uint16",
	ElemUint32:  "uint32",
	ElemUint64:  "uint64",
	ElemFloat32: "float32",
	ElemFloat64: "float64",
	ElemString:  "S",
}

func (k ElemKind) String() string {
	if int(k) < len(elemKindNames) {
		return elemKindNames[k]
	}
	return "ElemKind(" + strconv.Itoa(int(k)) + ")"
}

// DType is a scalar storage type. Size is only meaningful for ElemString,
// where it's the fixed byte length of the value.
type DType struct {
	Kind ElemKind `msgpack:"k"`
	Size int      `msgpack:"n,omitempty"`
}

var (
	Bool    = DType{Kind: ElemBool}
	Int8    = DType{Kind: ElemInt8}
	Int16   = DType{Kind: ElemInt16}
	Int32   = DType{Kind: ElemInt32}
	Int64   = DType{Kind: ElemInt64}
	Uint8   = DType{Kind: ElemUint8}
	Uint16  = DType{Kind: ElemUint16}
	Uint32  = DType{Kind: ElemUint32}
	Uint64  = DType{Kind: ElemUint64}
	Float32 = DType{Kind: ElemFloat32}
	Float64 = DType{Kind: ElemFloat64}
)

// FixedString returns a NUL-padded string type of n bytes.
func FixedString(n int) DType {
	return DType{Kind: ElemString, Size: n}
}

func (dt DType) String() string {
	if dt.Kind == ElemString {
		return "S" + strconv.Itoa(dt.Size)
	}
	return dt.Kind.String()
}

// ByteSize returns the encoded size of one value.
func (dt DType) ByteSize() int {
	switch dt.Kind {
	case ElemBool, ElemInt8, ElemUint8:
		return 1
	case ElemInt16, ElemUint16:
		return 2
	case ElemInt32, ElemUint32, ElemFloat32:
		return 4
	case ElemInt64, ElemUint64, ElemFloat64:
		return 8
	case ElemString:
		return dt.Size
	default:
		return 0
	}
}

func (dt DType) validate() error {
	switch dt.Kind {
	case ElemInvalid:
		return fmt.Errorf("invalid dtype")
	case ElemString:
		if dt.Size <= 0 {
			return fmt.Errorf("string dtype needs a positive size, got %d", dt.Size)
		}
	default:
		if dt.Kind > ElemString {
			return fmt.Errorf("unknown dtype %v", dt.Kind)
		}
		if dt.Size != 0 {
			return fmt.Errorf("%v does not take a size", dt.Kind)
		}
	}
	return nil
}

// ParseDType parses the names produced by DType.String ("float64", "S256").
func ParseDType(s string) (DType, error) {
	if rest, ok := strings.CutPrefix(s, "S"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 {
			return DType{}, fmt.Errorf("invalid string dtype %q", s)
		}
		return FixedString(n), nil
	}
	for k, name := range elemKindNames {
		if name == s && ElemKind(k) != ElemInvalid && ElemKind(k) != ElemString {
			return DType{Kind: ElemKind(k)}, nil
		}
	}
	return DType{}, fmt.Errorf("unknown dtype %q", s)
}

func dtypeOfKind(k reflect.Kind) (DType, bool) {
	switch k {
	case reflect.Bool:
		return Bool, true
	case reflect.Int8:
		return Int8, true
	case reflect.Int16:
		return Int16, true
	case reflect.Int32:
		return Int32, true
	case reflect.Int64, reflect.Int:
		return Int64, true
	case reflect.Uint8:
		return Uint8, true
	case reflect.Uint16:
		return Uint16, true
	case reflect.Uint32:
		return Uint32, true
	case reflect.Uint64, reflect.Uint:
		return Uint64, true
	case reflect.Float32:
		return Float32, true
	case reflect.Float64:
		return Float64, true
	default:
		return DType{}, false
	}
}

func putUintLE[T constraints.Unsigned](b []byte, v T, size int) {
	for i := 0; i < size; i++ {
		b[i] = byte(uint64(v) >> (8 * i))
	}
}

func getUintLE(b []byte, size int) uint64 {
	var v uint64
	for i := 0; i < size; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func signExtend[T constraints.Signed](v uint64, size int) T {
	shift := 64 - 8*size
	return T(int64(v<<shift) >> shift)
}

// putScalar encodes v into b, which must be exactly dt.ByteSize() long.
func putScalar(b []byte, dt DType, v reflect.Value) {
	switch dt.Kind {
	case ElemBool:
		if v.Bool() {
			b[0] = 1
		} else {
			b[0] = 0
		}
	case ElemInt8, ElemInt16, ElemInt32, ElemInt64:
		putUintLE(b, uint64(v.Int()), len(b))
	case ElemUint8, ElemUint16, ElemUint32, ElemUint64:
		putUintLE(b, v.Uint(), len(b))
	case ElemFloat32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v.Float())))
	case ElemFloat64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v.Float()))
	case ElemString:
		n := copy(b, v.String())
		clear(b[n:])
	default:
		panic(fmt.Errorf("putScalar: unsupported dtype %v", dt))
	}
}

// getScalar decodes b into the settable v.
func getScalar(b []byte, dt DType, v reflect.Value) {
	switch dt.Kind {
	case ElemBool:
		v.SetBool(b[0] != 0)
	case ElemInt8, ElemInt16, ElemInt32, ElemInt64:
		v.SetInt(signExtend[int64](getUintLE(b, len(b)), len(b)))
	case ElemUint8, ElemUint16, ElemUint32, ElemUint64:
		v.SetUint(getUintLE(b, len(b)))
	case ElemFloat32:
		v.SetFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(b))))
	case ElemFloat64:
		v.SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	case ElemString:
		v.SetString(trimNUL(b))
	default:
		panic(fmt.Errorf("getScalar: unsupported dtype %v", dt))
	}
}

// scalarAny decodes b into a plain Go value, for dumps.
func scalarAny(b []byte, dt DType) any {
	switch dt.Kind {
	case ElemBool:
		return b[0] != 0
	case ElemInt8, ElemInt16, ElemInt32, ElemInt64:
		return signExtend[int64](getUintLE(b, len(b)), len(b))
	case ElemUint8, ElemUint16, ElemUint32, ElemUint64:
		return getUintLE(b, len(b))
	case ElemFloat32:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case ElemFloat64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	case ElemString:
		return trimNUL(b)
	default:
		return nil
	}
}

func trimNUL(b []byte) string {
	n := len(b)
	for n > 0 && b[n-1] == 0 {
		n--
	}
	return string(b[:n])
}

// goType is the Go type rows of dt are decoded into, the inverse of
// dtypeOfKind.
func (dt DType) goType() (reflect.Type, bool) {
	switch dt.Kind {
	case ElemBool:
		return reflect.TypeFor[bool](), true
	case ElemInt8:
		return reflect.TypeFor[int8](), true
	case ElemInt16:
		return reflect.TypeFor[int16](), true
	case ElemInt32:
		return reflect.TypeFor[int32](), true
	case ElemInt64:
		return reflect.TypeFor[int64](), true
	case ElemUint8:
		return reflect.TypeFor[uint8](), true
	case ElemUint16:
		return reflect.TypeFor[uint16](), true
	case ElemUint32:
		return reflect.TypeFor[uint32](), true
	case ElemUint64:
		return reflect.TypeFor[uint64](), true
	case ElemFloat32:
		return reflect.TypeFor[float32](), true
	case ElemFloat64:
		return reflect.TypeFor[float64](), true
	case ElemString:
		return reflect.TypeFor[string](), true
	default:
		return nil, false
	}
}

package streamrec

import (
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestBytesBuilder_Basics(t *testing.T) {
	var bb bytesBuilder
	off := bb.Grow(3)
	copy(bb.Buf[off:], []byte{1, 2, 3})
	_ = bb.WriteByte(4)
	bb.AppendFixedUint64(0x0102030405060708)
	bb.AppendUvarint(0x42)

	want := make([]byte, 0, 1+3+8+binary.MaxVarintLen64)
	want = append(want, 1, 2, 3, 4)
	var u64 [8]byte
	binary.BigEndian.PutUint64(u64[:], 0x0102030405060708)
	want = append(want, u64[:]...)
	want = appendUvarint(want, 0x42)

	if !reflect.DeepEqual(bb.Buf, want) {
		t.Fatalf("bb.Buf = %x, wanted %x", bb.Buf, want)
	}

	bb.Trim(2)
	if !reflect.DeepEqual(bb.Buf, []byte{1, 2}) {
		t.Fatalf("after Trim: bb.Buf = %x, wanted 0102", bb.Buf)
	}

	_, _ = bb.Write([]byte{9, 8})
	if !reflect.DeepEqual(bb.Buf, []byte{1, 2, 9, 8}) {
		t.Fatalf("after Write: bb.Buf = %x, wanted 01020908", bb.Buf)
	}
}

func TestByteUtil_grow(t *testing.T) {
	buf := make([]byte, 2)
	off, buf := grow(buf, 20)
	if off != 2 || len(buf) != 22 || cap(buf) < 22 {
		t.Fatalf("grow = (off=%d, len=%d, cap=%d), wanted (2, 22, >=22)", off, len(buf), cap(buf))
	}
	deepEqual(t, appendRaw(nil, []byte{0xAA, 0xBB}), []byte{0xAA, 0xBB})
}

func TestByteDecoder(t *testing.T) {
	buf := appendUvarint(nil, 300)
	buf = append(buf, x("0000000000000102 abcd")...)
	d := makeByteDecoder(buf)
	deepEqual(t, must(d.Uvarint()), uint64(300))
	deepEqual(t, d.Off(), 2)
	deepEqual(t, must(d.FixedUint64()), uint64(0x102))
	deepEqual(t, d.Rest(), x("abcd"))
	deepEqual(t, len(d.Rest()), 0)
}

func TestByteDecoder_Errors(t *testing.T) {
	t.Run("invalid uvarint", func(t *testing.T) {
		d := makeByteDecoder([]byte{0x80}) // continuation bit with no terminator
		_, err := d.Uvarint()
		var de *DataError
		if !errors.As(err, &de) {
			t.Fatalf("Uvarint err = %T %v, wanted *DataError", err, err)
		}
		if de.Off != 0 {
			t.Fatalf("DataError.Off = %d, wanted 0", de.Off)
		}
	})

	t.Run("uvarint overflows int", func(t *testing.T) {
		var b [binary.MaxVarintLen64]byte
		n := binary.PutUvarint(b[:], uint64(math.MaxInt)+1)
		d := makeByteDecoder(b[:n])
		_, err := d.Uvarinti()
		if err == nil {
			t.Fatalf("Uvarinti err = nil, wanted error")
		}
	})

	t.Run("Raw not enough data", func(t *testing.T) {
		d := makeByteDecoder([]byte{1, 2})
		_, err := d.Raw(3)
		if err == nil {
			t.Fatalf("Raw err = nil, wanted error")
		}
	})
}

package streamrec

import (
	"bytes"
	"testing"
)

func TestFilters_Validate(t *testing.T) {
	good := []Filters{
		DefaultFilters,
		{Codec: CodecZlib, Level: 0},
		{Codec: CodecZlib, Level: 9, Shuffle: true},
		{Codec: CodecZstd, Level: 1},
		{Codec: CodecZstd, Level: 22},
		{Codec: CodecNone},
		{Codec: CodecNone, Shuffle: true},
	}
	for _, f := range good {
		if err := f.Validate(); err != nil {
			t.Errorf("** %v.Validate() = %v, wanted nil", f, err)
		}
	}
	bad := []Filters{
		{},
		{Codec: CodecZlib, Level: 10},
		{Codec: CodecZlib, Level: -1},
		{Codec: CodecZstd, Level: 0},
		{Codec: CodecNone, Level: 3},
		{Codec: Codec(42)},
	}
	for _, f := range bad {
		if err := f.Validate(); err == nil {
			t.Errorf("** %v.Validate() = nil, wanted error", f)
		}
	}
}

func TestFilters_String(t *testing.T) {
	deepEqual(t, DefaultFilters.String(), "zlib(5)+shuffle")
	deepEqual(t, Filters{Codec: CodecZstd, Level: 3}.String(), "zstd(3)")
	deepEqual(t, Filters{Codec: CodecNone}.String(), "none")
	deepEqual(t, Codec(9).String(), "Codec(9)")
}

func TestFilters_orDefault(t *testing.T) {
	deepEqual(t, Filters{}.orDefault(), DefaultFilters)
	f := Filters{Codec: CodecNone}
	deepEqual(t, f.orDefault(), f)
}

func TestFilters_applyRevert(t *testing.T) {
	raw := make([]byte, 1003)
	for i := range raw {
		raw[i] = byte(i * 7 / 13)
	}
	for _, f := range []Filters{
		DefaultFilters,
		{Codec: CodecZlib, Level: 1},
		{Codec: CodecZstd, Level: 3, Shuffle: true},
		{Codec: CodecNone, Shuffle: true},
	} {
		for _, elemSize := range []int{1, 4, 8} {
			prefix := []byte("hdr")
			enc := must(f.apply(prefix, raw, elemSize))
			if !bytes.HasPrefix(enc, prefix) {
				t.Fatalf("** %v: apply dropped the dst prefix", f)
			}
			dec := must(f.revert(enc[len(prefix):], len(raw), elemSize))
			if !bytes.Equal(dec, raw) {
				t.Errorf("** %v/%d: revert(apply(raw)) != raw", f, elemSize)
			}
		}
	}
}

func TestFilters_revertSizeMismatch(t *testing.T) {
	f := Filters{Codec: CodecZstd, Level: 3}
	enc := must(f.apply(nil, []byte("0123456789"), 1))
	if _, err := f.revert(enc, 11, 1); err == nil {
		t.Error("** expected size mismatch error")
	}
}

func TestShuffle(t *testing.T) {
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	got := shuffle(make([]byte, len(src)), src, 4)
	deepEqual(t, got, []byte{1, 5, 2, 6, 3, 7, 4, 8, 9, 10})
	deepEqual(t, unshuffle(make([]byte, len(got)), got, 4), src)
}

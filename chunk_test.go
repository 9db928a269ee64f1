package streamrec

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func sampleRaw(rows, rowSize int) []byte {
	raw := make([]byte, rows*rowSize)
	for i := range raw {
		raw[i] = byte(i / rowSize)
	}
	return raw
}

func TestChunk_roundTrip(t *testing.T) {
	for _, f := range []Filters{
		DefaultFilters,
		{Codec: CodecZstd, Level: 1, Shuffle: true},
		{Codec: CodecNone},
	} {
		for _, rowSize := range []int{1, 12, 300} {
			raw := sampleRaw(17, rowSize)
			enc := must(encodeChunk(f, 17, raw, rowSize))
			ch := must(decodeChunk(f, enc, rowSize))
			if ch.Rows != 17 || !bytes.Equal(ch.Raw, raw) {
				t.Errorf("** %v/%d: decoded %d rows, raw equal %v", f, rowSize, ch.Rows, bytes.Equal(ch.Raw, raw))
			}
			rows, rawLen := must2x(chunkHeader(enc))
			deepEqual(t, rows, 17)
			deepEqual(t, rawLen, len(raw))
		}
	}
}

func TestChunk_compresses(t *testing.T) {
	raw := make([]byte, 12*1000)
	enc := must(encodeChunk(DefaultFilters, 1000, raw, 12))
	if len(enc) > len(raw)/10 {
		t.Errorf("** zero chunk of %d bytes encoded to %d bytes", len(raw), len(enc))
	}
}

func TestChunk_checksumMismatch(t *testing.T) {
	f := Filters{Codec: CodecNone}
	raw := sampleRaw(4, 8)
	enc := must(encodeChunk(f, 4, raw, 8))
	enc[len(enc)-1] ^= 0xFF

	_, err := decodeChunk(f, enc, 8)
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("** err = %v, wanted *DataError", err)
	}
	if !strings.Contains(err.Error(), "checksum mismatch") {
		t.Errorf("** err = %v, wanted checksum mismatch", err)
	}
}

func TestChunk_corruptPayload(t *testing.T) {
	raw := sampleRaw(4, 8)
	enc := must(encodeChunk(DefaultFilters, 4, raw, 8))
	// header (10 bytes) plus the 2-byte zlib header, no deflate stream
	_, err := decodeChunk(DefaultFilters, enc[:12], 8)
	if err == nil {
		t.Fatal("** expected error for truncated payload")
	}
}

func TestChunk_wrongRowSize(t *testing.T) {
	raw := sampleRaw(2, 12)
	enc := must(encodeChunk(DefaultFilters, 2, raw, 12))
	_, err := decodeChunk(DefaultFilters, enc, 8)
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("** err = %v, wanted *DataError", err)
	}
}

func TestChunk_truncatedHeader(t *testing.T) {
	for _, data := range [][]byte{nil, {0x80}, {0x02, 0x10}, {0x02, 0x10, 0x01, 0x02}} {
		if _, err := decodeChunk(DefaultFilters, data, 8); err == nil {
			t.Errorf("** decodeChunk(%x) err = nil, wanted error", data)
		}
	}
}

func TestChunkKeyOrder(t *testing.T) {
	deepEqual(t, chunkKey(0), x("00000000 00000000"))
	deepEqual(t, chunkKey(0x0102), x("00000000 00000102"))
	if bytes.Compare(chunkKey(255), chunkKey(256)) >= 0 {
		t.Error("** chunk keys must sort numerically")
	}
}

func TestChunkRowsFor(t *testing.T) {
	deepEqual(t, chunkRowsFor(12, 64), uint64(5))
	deepEqual(t, chunkRowsFor(12, 12), uint64(1))
	deepEqual(t, chunkRowsFor(300, 64), uint64(1))
	deepEqual(t, chunkRowsFor(8, DefaultChunkSize), uint64(2048))
}

func must2x[A, B any](a A, b B, err error) (A, B) {
	if err != nil {
		panic(err)
	}
	return a, b
}

package streamrec

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

type Codec uint8

const (
	CodecZlib Codec = iota + 1
	CodecZstd
	CodecNone
)

func (c Codec) String() string {
	switch c {
	case CodecZlib:
		return "zlib"
	case CodecZstd:
		return "zstd"
	case CodecNone:
		return "none"
	default:
		return fmt.Sprintf("Codec(%d)", uint8(c))
	}
}

// Filters is the compression pipeline applied to every chunk of a node. The
// settings are stored with each node, so files written with different
// filters read back the same way.
type Filters struct {
	Codec   Codec `msgpack:"c"`
	Level   int   `msgpack:"l"`
	Shuffle bool  `msgpack:"s"`
}

// DefaultFilters is moderate zlib compression with byte shuffling.
var DefaultFilters = Filters{Codec: CodecZlib, Level: 5, Shuffle: true}

func (f Filters) IsZero() bool {
	return f == Filters{}
}

func (f Filters) orDefault() Filters {
	if f.IsZero() {
		return DefaultFilters
	}
	return f
}

func (f Filters) String() string {
	s := f.Codec.String()
	if f.Codec != CodecNone {
		s += fmt.Sprintf("(%d)", f.Level)
	}
	if f.Shuffle {
		s += "+shuffle"
	}
	return s
}

func (f Filters) Validate() error {
	switch f.Codec {
	case CodecZlib:
		if f.Level < 0 || f.Level > 9 {
			return fmt.Errorf("zlib level must be 0..9, got %d", f.Level)
		}
	case CodecZstd:
		if f.Level < 1 || f.Level > 22 {
			return fmt.Errorf("zstd level must be 1..22, got %d", f.Level)
		}
	case CodecNone:
		if f.Level != 0 {
			return fmt.Errorf("codec none takes no level, got %d", f.Level)
		}
	default:
		return fmt.Errorf("unknown codec %v", f.Codec)
	}
	return nil
}

// apply runs raw rows through the pipeline, appending the result to dst.
func (f Filters) apply(dst, raw []byte, elemSize int) ([]byte, error) {
	if f.Shuffle && elemSize > 1 {
		raw = shuffle(make([]byte, len(raw)), raw, elemSize)
	}
	switch f.Codec {
	case CodecNone:
		return append(dst, raw...), nil
	case CodecZlib:
		bb := bytesBuilder{dst}
		w, err := zlib.NewWriterLevel(&bb, f.Level)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(raw); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return bb.Buf, nil
	case CodecZstd:
		return zstdEncoder(f.Level).EncodeAll(raw, dst), nil
	default:
		return nil, fmt.Errorf("unknown codec %v", f.Codec)
	}
}

// revert undoes apply; rawLen is the expected size of the result.
func (f Filters) revert(payload []byte, rawLen, elemSize int) ([]byte, error) {
	var raw []byte
	switch f.Codec {
	case CodecNone:
		raw = payload
	case CodecZlib:
		r, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		raw = make([]byte, rawLen)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("zlib: %w", err)
		}
		if err := r.Close(); err != nil {
			return nil, err
		}
	case CodecZstd:
		var err error
		raw, err = zstdDecoder().DecodeAll(payload, make([]byte, 0, rawLen))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown codec %v", f.Codec)
	}
	if len(raw) != rawLen {
		return nil, fmt.Errorf("decompressed %d bytes, expected %d", len(raw), rawLen)
	}
	if f.Shuffle && elemSize > 1 {
		raw = unshuffle(make([]byte, len(raw)), raw, elemSize)
	}
	return raw, nil
}

// shuffle groups byte k of every element together, which makes slowly
// changing numeric columns compress much better.
func shuffle(dst, src []byte, elemSize int) []byte {
	n := len(src) / elemSize
	for i := 0; i < n; i++ {
		for j := 0; j < elemSize; j++ {
			dst[j*n+i] = src[i*elemSize+j]
		}
	}
	copy(dst[n*elemSize:], src[n*elemSize:])
	return dst
}

func unshuffle(dst, src []byte, elemSize int) []byte {
	n := len(src) / elemSize
	for i := 0; i < n; i++ {
		for j := 0; j < elemSize; j++ {
			dst[i*elemSize+j] = src[j*n+i]
		}
	}
	copy(dst[n*elemSize:], src[n*elemSize:])
	return dst
}

var zstdEncoders sync.Map

func zstdEncoder(level int) *zstd.Encoder {
	if v, ok := zstdEncoders.Load(level); ok {
		return v.(*zstd.Encoder)
	}
	enc := must(zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level))))
	actual, _ := zstdEncoders.LoadOrStore(level, enc)
	return actual.(*zstd.Encoder)
}

var zstdDecoder = sync.OnceValue(func() *zstd.Decoder {
	return must(zstd.NewReader(nil))
})

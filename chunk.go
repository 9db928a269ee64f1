package streamrec

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

const maxChunkHeaderSize = binary.MaxVarintLen64*2 + 8

// chunk is a decoded run of consecutive rows.
type chunk struct {
	Rows int
	Raw  []byte
}

func encodeChunk(f Filters, rows int, raw []byte, rowSize int) ([]byte, error) {
	bb := bytesBuilder{make([]byte, 0, maxChunkHeaderSize+len(raw)/2)}
	bb.AppendUvarint(uint64(rows))
	bb.AppendUvarint(uint64(len(raw)))
	bb.AppendFixedUint64(xxhash.Sum64(raw))
	buf, err := f.apply(bb.Buf, raw, rowSizeForShuffle(rowSize))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// chunkHeader returns the row count and uncompressed size of an encoded
// chunk without decoding its payload.
func chunkHeader(data []byte) (rows, rawLen int, err error) {
	d := makeByteDecoder(data)
	rows, err = d.Uvarinti()
	if err != nil {
		return 0, 0, err
	}
	rawLen, err = d.Uvarinti()
	if err != nil {
		return 0, 0, err
	}
	return rows, rawLen, nil
}

func decodeChunk(f Filters, data []byte, rowSize int) (chunk, error) {
	d := makeByteDecoder(data)
	rows, err := d.Uvarinti()
	if err != nil {
		return chunk{}, err
	}
	rawLen, err := d.Uvarinti()
	if err != nil {
		return chunk{}, err
	}
	if rawLen != rows*rowSize {
		return chunk{}, dataErrf(data, d.Off(), nil, "invalid chunk: %d rows of %d bytes, but raw size is %d", rows, rowSize, rawLen)
	}
	sum, err := d.FixedUint64()
	if err != nil {
		return chunk{}, err
	}
	payloadOff := d.Off()
	raw, err := f.revert(d.Rest(), rawLen, rowSizeForShuffle(rowSize))
	if err != nil {
		return chunk{}, dataErrf(data, payloadOff, err, "invalid chunk payload")
	}
	if actual := xxhash.Sum64(raw); actual != sum {
		return chunk{}, dataErrf(data, 0, nil, "chunk checksum mismatch: stored %016x, computed %016x", sum, actual)
	}
	return chunk{Rows: rows, Raw: raw}, nil
}

// rowSizeForShuffle returns the shuffle element size. Rows wider than
// maxShuffleElem are left unshuffled.
func rowSizeForShuffle(rowSize int) int {
	const maxShuffleElem = 256
	if rowSize > maxShuffleElem {
		return 1
	}
	return rowSize
}

func chunkKey(idx uint64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], idx)
	return key[:]
}

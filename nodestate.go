package streamrec

import (
	"reflect"
	"time"
)

var (
	nodeStateKey = []byte("_state")
	dataSub      = "data"
	attrsSub     = "attrs"
)

const nodeStateEncoding = MsgPack

// nodeState is the `_state` document of a node.
type nodeState struct {
	Schema    *Schema   `msgpack:"sc"`
	Filters   Filters   `msgpack:"f"`
	Rows      uint64    `msgpack:"n"`
	ChunkRows uint64    `msgpack:"cr"`
	Created   time.Time `msgpack:"ct"`
	Modified  time.Time `msgpack:"mt"`
}

func (st *nodeState) kind() NodeKind {
	return st.Schema.Kind
}

func (st *nodeState) chunkCount() uint64 {
	return (st.Rows + st.ChunkRows - 1) / st.ChunkRows
}

func loadNodeState(name string, tx storageTx) (*nodeState, error) {
	root := tx.Bucket(name, "")
	if root == nil {
		return nil, nodeErrf(name, nil, ErrNotFound, "")
	}
	raw := root.Get(nodeStateKey)
	if raw == nil {
		return nil, nodeErrf(name, nil, ErrNotFound, "missing node state")
	}
	st := new(nodeState)
	err := nodeStateEncoding.DecodeValue(raw, reflect.ValueOf(st))
	if err != nil {
		return nil, nodeErrf(name, nil, err, "failed to decode node state")
	}
	if st.Schema == nil || st.ChunkRows == 0 {
		return nil, nodeErrf(name, nil, nil, "corrupted node state")
	}
	if err := st.Schema.Validate(); err != nil {
		return nil, nodeErrf(name, nil, err, "corrupted node state")
	}
	return st, nil
}

func (st *nodeState) save(name string, tx storageTx) {
	raw := nodeStateEncoding.EncodeValue(nil, reflect.ValueOf(st))
	root := nonNil(tx.Bucket(name, ""))
	ensure(root.Put(nodeStateKey, raw))
}

// chunkRowsFor returns how many rows of rowSize fit in one chunk of chunkSize bytes.
func chunkRowsFor(rowSize, chunkSize int) uint64 {
	if rowSize <= 0 || chunkSize <= rowSize {
		return 1
	}
	return uint64(chunkSize / rowSize)
}

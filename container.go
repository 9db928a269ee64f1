package streamrec

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultChunkSize is the target uncompressed size of one chunk.
const DefaultChunkSize = 16 * 1024

// NodeInfo describes one root node of a file.
type NodeInfo struct {
	Name string
	Kind NodeKind
	Rows uint64
}

// container is the hierarchical file: a flat namespace of nodes on top of a
// storage backend.
type container struct {
	stor      storage
	readOnly  bool
	chunkSize int
}

type containerOptions struct {
	ChunkSize int
	NoSync    bool
}

func openContainer(path string, mode Mode, opt containerOptions) (*container, error) {
	mode = mode.orDefault()
	if err := mode.prepareFile(path); err != nil {
		return nil, fmt.Errorf("streamrec: %w", err)
	}
	stor, err := openBoltStorage(path, boltOptions{
		ReadOnly: mode.readOnly(),
		NoSync:   opt.NoSync,
	})
	if err != nil {
		return nil, err
	}
	return newContainer(stor, mode.readOnly(), opt.ChunkSize), nil
}

func newContainer(stor storage, readOnly bool, chunkSize int) *container {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &container{
		stor:      stor,
		readOnly:  readOnly,
		chunkSize: chunkSize,
	}
}

// List enumerates root nodes in name order. Root buckets without a node
// state are not nodes and are skipped.
func (c *container) List() ([]NodeInfo, error) {
	var infos []NodeInfo
	err := c.read(func(tx storageTx) error {
		for _, name := range tx.RootNames() {
			st, err := loadNodeState(name, tx)
			if errors.Is(err, ErrNotFound) {
				slog.Debug("streamrec: skipping foreign bucket", "name", name)
				continue
			} else if err != nil {
				return err
			}
			infos = append(infos, NodeInfo{Name: name, Kind: st.kind(), Rows: st.Rows})
		}
		return nil
	})
	return infos, err
}

// Node opens an existing node.
func (c *container) Node(name string) (*Node, error) {
	var st *nodeState
	err := c.read(func(tx storageTx) error {
		var err error
		st, err = loadNodeState(name, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Node{c: c, name: name, state: *st}, nil
}

type nodeSpec struct {
	name    string
	schema  *Schema
	filters Filters
}

// CreateNodes creates all given nodes in one transaction; if any of them
// already exists, nothing is created.
func (c *container) CreateNodes(specs ...nodeSpec) ([]*Node, error) {
	now := time.Now()
	nodes := make([]*Node, len(specs))
	for i, spec := range specs {
		if spec.name == "" {
			return nil, fmt.Errorf("empty node name")
		}
		if err := spec.schema.Validate(); err != nil {
			return nil, &SchemaError{Node: spec.name, Want: spec.schema, Err: err}
		}
		f := spec.filters.orDefault()
		if err := f.Validate(); err != nil {
			return nil, nodeErrf(spec.name, nil, err, "invalid filters")
		}
		nodes[i] = &Node{c: c, name: spec.name, state: nodeState{
			Schema:    spec.schema,
			Filters:   f,
			ChunkRows: chunkRowsFor(spec.schema.RowSize(), c.chunkSize),
			Created:   now,
			Modified:  now,
		}}
	}
	err := c.write(func(tx storageTx) error {
		for _, n := range nodes {
			if tx.Bucket(n.name, "") != nil {
				return nodeErrf(n.name, nil, ErrExists, "create")
			}
			must(tx.CreateBucket(n.name, dataSub))
			must(tx.CreateBucket(n.name, attrsSub))
			n.state.save(n.name, tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func (c *container) Exists(name string) (bool, error) {
	var found bool
	err := c.read(func(tx storageTx) error {
		found = tx.Bucket(name, "") != nil
		return nil
	})
	return found, err
}

// Size returns the file size as seen by the storage.
func (c *container) Size() int64 {
	var size int64
	_ = c.read(func(tx storageTx) error {
		size = tx.Size()
		return nil
	})
	return size
}

// Close flushes and closes the storage.
func (c *container) Close() error {
	syncErr := c.stor.Sync()
	closeErr := c.stor.Close()
	if syncErr != nil {
		return fmt.Errorf("streamrec: sync: %w", syncErr)
	}
	if closeErr != nil {
		return fmt.Errorf("streamrec: close: %w", closeErr)
	}
	return nil
}

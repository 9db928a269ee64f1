package streamrec

// NodeStats describes how a node is stored.
type NodeStats struct {
	Rows       uint64
	Chunks     int
	ChunkRows  uint64
	RawSize    int64
	StoredSize int64
	Attrs      int
}

// Ratio is StoredSize/RawSize, or 0 for an empty node.
func (ns *NodeStats) Ratio() float64 {
	if ns.RawSize == 0 {
		return 0
	}
	return float64(ns.StoredSize) / float64(ns.RawSize)
}

func (n *Node) stats() (NodeStats, error) {
	result := NodeStats{
		Rows:      n.state.Rows,
		ChunkRows: n.state.ChunkRows,
	}
	err := n.c.read(func(tx storageTx) error {
		data := nonNil(tx.Bucket(n.name, dataSub))
		c := data.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			_, rawLen, err := chunkHeader(v)
			if err != nil {
				return nodeErrf(n.name, k, err, "chunk header")
			}
			result.Chunks++
			result.RawSize += int64(rawLen)
			result.StoredSize += int64(len(v))
		}
		if want := n.state.chunkCount(); uint64(result.Chunks) != want {
			return nodeErrf(n.name, nil, nil, "found %d chunks, state implies %d", result.Chunks, want)
		}
		result.Attrs = nonNil(tx.Bucket(n.name, attrsSub)).KeyCount()
		return nil
	})
	return result, err
}

// Stats returns storage statistics of the named node.
func (rd *Reader) Stats(name string) (NodeStats, error) {
	n, err := rd.Node(name)
	if err != nil {
		return NodeStats{}, err
	}
	return n.stats()
}

// FileSize returns the size of the underlying file.
func (rd *Reader) FileSize() int64 {
	if rd.c == nil {
		return 0
	}
	return rd.c.Size()
}

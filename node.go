package streamrec

import (
	"fmt"
	"log/slog"
	"reflect"
	"time"
)

// Node is a handle to one table or array of an open file. A Node caches its
// state and is only valid while the file it came from stays open.
type Node struct {
	c     *container
	name  string
	state nodeState
}

func (n *Node) Name() string        { return n.name }
func (n *Node) Kind() NodeKind      { return n.state.kind() }
func (n *Node) Schema() *Schema     { return n.state.Schema }
func (n *Node) Filters() Filters    { return n.state.Filters }
func (n *Node) Created() time.Time  { return n.state.Created }
func (n *Node) Modified() time.Time { return n.state.Modified }

// Len returns the number of rows.
func (n *Node) Len() uint64 { return n.state.Rows }

// appendRaw appends rows already encoded per the node's schema. The partial
// tail chunk, if any, is rewritten together with the new rows.
func (n *Node) appendRaw(raw []byte, rows int) error {
	st := n.state
	rowSize := st.Schema.RowSize()
	if len(raw) != rows*rowSize {
		panic(fmt.Errorf("%s: appendRaw got %d bytes for %d rows of %d bytes", n.name, len(raw), rows, rowSize))
	}
	if rows == 0 {
		return nil
	}
	err := n.c.write(func(tx storageTx) error {
		data := nonNil(tx.Bucket(n.name, dataSub))
		tailIdx := st.Rows / st.ChunkRows
		tailRows := int(st.Rows % st.ChunkRows)

		var buf []byte
		if tailRows > 0 {
			key := chunkKey(tailIdx)
			v := data.Get(key)
			if v == nil {
				return nodeErrf(n.name, key, ErrNotFound, "missing tail chunk")
			}
			ch, err := decodeChunk(st.Filters, v, rowSize)
			if err != nil {
				return nodeErrf(n.name, key, err, "decode tail chunk")
			}
			if ch.Rows != tailRows {
				return nodeErrf(n.name, key, nil, "tail chunk has %d rows, state says %d", ch.Rows, tailRows)
			}
			buf = make([]byte, 0, len(ch.Raw)+len(raw))
			buf = append(buf, ch.Raw...)
		}
		buf = append(buf, raw...)

		total := tailRows + rows
		capRows := int(st.ChunkRows)
		idx := tailIdx
		for off := 0; off < total; off += capRows {
			end := min(off+capRows, total)
			key := chunkKey(idx)
			enc, err := encodeChunk(st.Filters, end-off, buf[off*rowSize:end*rowSize], rowSize)
			if err != nil {
				return nodeErrf(n.name, key, err, "encode chunk")
			}
			if err := data.Put(key, enc); err != nil {
				return nodeErrf(n.name, key, err, "put chunk")
			}
			slog.Debug("streamrec: wrote chunk", "node", n.name, hexAttr("key", key), "rows", end-off, "bytes", len(enc))
			idx++
		}

		st.Rows += uint64(rows)
		st.Modified = time.Now()
		st.save(n.name, tx)
		return nil
	})
	if err != nil {
		return err
	}
	n.state = st
	return nil
}

// readRaw returns count encoded rows starting at row start.
func (n *Node) readRaw(start, count uint64) ([]byte, error) {
	st := n.state
	if count > st.Rows || start > st.Rows-count {
		return nil, nodeErrf(n.name, nil, nil, "%d rows at %d out of range, node has %d", count, start, st.Rows)
	}
	rowSize := st.Schema.RowSize()
	out := make([]byte, 0, int(count)*rowSize)
	if count == 0 {
		return out, nil
	}
	first, last := start/st.ChunkRows, (start+count-1)/st.ChunkRows
	err := n.c.read(func(tx storageTx) error {
		data := nonNil(tx.Bucket(n.name, dataSub))
		for idx := first; idx <= last; idx++ {
			key := chunkKey(idx)
			v := data.Get(key)
			if v == nil {
				return nodeErrf(n.name, key, ErrNotFound, "missing chunk")
			}
			ch, err := decodeChunk(st.Filters, v, rowSize)
			if err != nil {
				return nodeErrf(n.name, key, err, "decode chunk")
			}
			base := idx * st.ChunkRows
			lo, hi := 0, ch.Rows
			if idx == first {
				lo = int(start - base)
			}
			if idx == last {
				hi = int(start + count - base)
			}
			if hi > ch.Rows {
				return nodeErrf(n.name, key, nil, "chunk has %d rows, wanted %d", ch.Rows, hi)
			}
			out = append(out, ch.Raw[lo*rowSize:hi*rowSize]...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (n *Node) setAttr(attr string, value any) error {
	if attr == "" {
		return nodeErrf(n.name, nil, nil, "empty attribute name")
	}
	raw, err := attrEncoding.Encode(nil, reflect.ValueOf(&value).Elem())
	if err != nil {
		return nodeErrf(n.name, nil, err, "attribute %s", attr)
	}
	return n.c.write(func(tx storageTx) error {
		attrs := nonNil(tx.Bucket(n.name, attrsSub))
		if err := attrs.Put([]byte(attr), raw); err != nil {
			return nodeErrf(n.name, nil, err, "attribute %s", attr)
		}
		return nil
	})
}

// attr decodes the attribute into ptr.
func (n *Node) attr(attr string, ptr any) error {
	ptrVal := reflect.ValueOf(ptr)
	if ptrVal.Kind() != reflect.Pointer || ptrVal.IsNil() {
		return fmt.Errorf("attribute %s: expected a non-nil pointer, got %T", attr, ptr)
	}
	return n.c.read(func(tx storageTx) error {
		attrs := nonNil(tx.Bucket(n.name, attrsSub))
		raw := attrs.Get([]byte(attr))
		if raw == nil {
			return nodeErrf(n.name, nil, ErrNotFound, "attribute %s", attr)
		}
		if err := attrEncoding.DecodeValue(raw, ptrVal); err != nil {
			return nodeErrf(n.name, nil, err, "attribute %s", attr)
		}
		return nil
	})
}

func (n *Node) attrNames() ([]string, error) {
	var names []string
	err := n.c.read(func(tx storageTx) error {
		c := nonNil(tx.Bucket(n.name, attrsSub)).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			names = append(names, string(k))
		}
		return nil
	})
	return names, err
}

package streamrec

import "fmt"

// Reader gives read-only access to a closed recording.
type Reader struct {
	path  string
	c     *container
	nodes map[string]*Node
	infos []NodeInfo
}

// OpenReader opens the file at path read-only. The file must not be open
// for writing by a Recorder at the same time.
func OpenReader(path string) (*Reader, error) {
	c, err := openContainer(path, ModeReadOnly, containerOptions{})
	if err != nil {
		return nil, err
	}
	infos, err := c.List()
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	rd := &Reader{
		path:  path,
		c:     c,
		nodes: make(map[string]*Node, len(infos)),
		infos: infos,
	}
	for _, info := range infos {
		n, err := c.Node(info.Name)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		rd.nodes[info.Name] = n
	}
	return rd, nil
}

func (rd *Reader) Path() string { return rd.path }

// Nodes lists every node, including message tables, in name order.
func (rd *Reader) Nodes() []NodeInfo {
	return rd.infos
}

// Node returns the named node.
func (rd *Reader) Node(name string) (*Node, error) {
	if rd.c == nil {
		return nil, ErrClosed
	}
	n := rd.nodes[name]
	if n == nil {
		return nil, nodeErrf(name, nil, ErrNotFound, "")
	}
	return n, nil
}

func (rd *Reader) Schema(name string) (*Schema, error) {
	n, err := rd.Node(name)
	if err != nil {
		return nil, err
	}
	return n.Schema(), nil
}

func (rd *Reader) Len(name string) (uint64, error) {
	n, err := rd.Node(name)
	if err != nil {
		return 0, err
	}
	return n.Len(), nil
}

// ReadRows decodes every row of the named node into T, which must have the
// same schema as the node.
func ReadRows[T any](rd *Reader, name string) ([]T, error) {
	n, err := rd.Node(name)
	if err != nil {
		return nil, err
	}
	raw, err := n.readRaw(0, n.Len())
	if err != nil {
		return nil, err
	}
	return decodeRows[T](name, n.Schema(), raw)
}

// ReadMessages returns the messages recorded for source.
func ReadMessages(rd *Reader, source string) ([]Message, error) {
	return ReadRows[Message](rd, MessageTableName(source))
}

// Rows decodes count rows starting at start without a Go type, see
// Schema.DecodeRow.
func (rd *Reader) Rows(name string, start, count uint64) ([]any, error) {
	n, err := rd.Node(name)
	if err != nil {
		return nil, err
	}
	raw, err := n.readRaw(start, count)
	if err != nil {
		return nil, err
	}
	sch := n.Schema()
	rowSize := sch.RowSize()
	out := make([]any, 0, count)
	for off := 0; off < len(raw); off += rowSize {
		out = append(out, sch.DecodeRow(raw[off:off+rowSize]))
	}
	return out, nil
}

// Attr decodes the named attribute into ptr.
func (rd *Reader) Attr(name, attr string, ptr any) error {
	n, err := rd.Node(name)
	if err != nil {
		return err
	}
	return n.attr(attr, ptr)
}

// AttrNames lists attribute names of a node in order.
func (rd *Reader) AttrNames(name string) ([]string, error) {
	n, err := rd.Node(name)
	if err != nil {
		return nil, err
	}
	return n.attrNames()
}

// Attrs returns every attribute of a node decoded into generic values.
func (rd *Reader) Attrs(name string) (map[string]any, error) {
	names, err := rd.AttrNames(name)
	if err != nil {
		return nil, err
	}
	m := make(map[string]any, len(names))
	for _, attr := range names {
		var v any
		if err := rd.Attr(name, attr, &v); err != nil {
			return nil, err
		}
		m[attr] = v
	}
	return m, nil
}

func (rd *Reader) Close() error {
	if rd.c == nil {
		return ErrClosed
	}
	err := rd.c.Close()
	rd.c = nil
	rd.nodes = nil
	if err != nil {
		return fmt.Errorf("%s: %w", rd.path, err)
	}
	return nil
}

// ReadAttr decodes the named attribute of a node as T.
func ReadAttr[T any](rd *Reader, name, attr string) (T, error) {
	var v T
	err := rd.Attr(name, attr, &v)
	return v, err
}

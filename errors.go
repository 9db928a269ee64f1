package streamrec

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrClosed       = errors.New("recorder is closed")
	ErrExists       = errors.New("node already exists")
	ErrNotFound     = errors.New("not found")
	ErrReservedName = errors.New("reserved source name")
	ErrReadOnly     = errors.New("file opened read-only")
	ErrInMemory     = errors.New("in-memory file cannot be copied")
)

type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x", e.Msg, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s: (%d) %x", e.Msg, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x...%x", e.Msg, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s: (%d) %x...%x", e.Msg, n, p, s)
		}
	}
}

// NodeError reports a failure on a particular node (and chunk key, if any).
type NodeError struct {
	Node string
	Key  []byte
	Msg  string
	Err  error
}

func nodeErrf(node string, key []byte, err error, format string, args ...any) error {
	return &NodeError{node, key, fmt.Sprintf(format, args...), err}
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

func (e *NodeError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Node)
	if e.Key != nil {
		buf.WriteByte('/')
		buf.WriteString(hexstr(e.Key))
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
		if e.Err != nil {
			buf.WriteString(": ")
			buf.WriteString(e.Err.Error())
		}
	} else if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// SchemaError means a Go value does not match the schema of the node it was
// written to or read from.
type SchemaError struct {
	Node   string
	Want   *Schema
	GoType reflect.Type
	Got    *Schema
	Err    error
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

func (e *SchemaError) Error() string {
	var buf strings.Builder
	if e.Node != "" {
		buf.WriteString(e.Node)
		buf.WriteString(": ")
	}
	switch {
	case e.GoType != nil && e.Got != nil:
		fmt.Fprintf(&buf, "%v has schema %v, node has %v", e.GoType, e.Got, e.Want)
	case e.GoType != nil:
		fmt.Fprintf(&buf, "%v does not match schema %v", e.GoType, e.Want)
	default:
		fmt.Fprintf(&buf, "invalid schema %v", e.Want)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

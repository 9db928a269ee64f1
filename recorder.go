package streamrec

import (
	"fmt"
	"log"
	"maps"
	"os"
	"reflect"
	"slices"

	"github.com/streamrec/streamrec/fsutil"
)

// InMemory as a path keeps the file in memory; nothing touches the disk.
const InMemory = ":memory:"

// TempFileExt is the extension of auto-named working files.
const TempFileExt = ".rec"

type Options struct {
	Verbose bool
	// Logf receives status lines when Verbose is set. Defaults to stdout.
	Logf func(format string, args ...any)
	// Mode used by New. Save always reopens with ModeAppend.
	Mode Mode
	// Filters applied to every node created by this recorder. Zero value means DefaultFilters.
	Filters Filters
	// NoSync skips fsync on every append; Close and Save still sync.
	NoSync bool
	// ChunkSize is the target uncompressed chunk size, DefaultChunkSize if zero.
	ChunkSize int
}

// Recorder streams rows from named sources into one file. A Recorder is not
// safe for concurrent use; drive it from a single loop.
type Recorder struct {
	path    string
	verbose bool
	logf    func(format string, args ...any)
	filters Filters
	copt    containerOptions

	cont   *container
	mem    *memStorage
	data   map[string]*Node
	msgs   map[string]*Node
	closed bool
}

// New creates a recorder writing to path, or to a fresh temporary file if
// path is empty, and opens it in opt.Mode.
func New(path string, opt Options) (*Recorder, error) {
	filters := opt.Filters.orDefault()
	if err := filters.Validate(); err != nil {
		return nil, fmt.Errorf("streamrec: %w", err)
	}
	if path == "" {
		f, err := os.CreateTemp("", "streamrec-*"+TempFileExt)
		if err != nil {
			return nil, fmt.Errorf("streamrec: %w", err)
		}
		path = f.Name()
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("streamrec: %w", err)
		}
	}

	r := &Recorder{
		path:    path,
		verbose: opt.Verbose,
		logf:    opt.Logf,
		filters: filters,
		copt: containerOptions{
			ChunkSize: opt.ChunkSize,
			NoSync:    opt.NoSync,
		},
		closed: true,
	}
	if r.logf == nil {
		r.logf = log.New(os.Stdout, "", 0).Printf
	}
	r.statusf("streamrec: saving datafile to %s", path)

	if err := r.Open(opt.Mode); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Recorder) statusf(format string, args ...any) {
	if r.verbose {
		r.logf(format, args...)
	}
}

// Path returns the working path.
func (r *Recorder) Path() string {
	return r.path
}

// Open (re)opens the working file and rebuilds the source mappings from the
// nodes found in it. An open file is closed first.
func (r *Recorder) Open(mode Mode) error {
	mode = mode.orDefault()
	if !r.closed {
		if err := r.Close(""); err != nil {
			return err
		}
	}
	r.statusf("streamrec: opening file")

	var cont *container
	if r.path == InMemory {
		if r.mem == nil {
			r.mem = newMemStorage()
		} else {
			r.mem.reopen()
		}
		if mode == ModeWrite {
			r.mem.truncate()
		}
		cont = newContainer(r.mem, mode.readOnly(), r.copt.ChunkSize)
	} else {
		var err error
		cont, err = openContainer(r.path, mode, r.copt)
		if err != nil {
			return err
		}
	}

	data, msgs, err := r.scan(cont)
	if err != nil {
		_ = cont.Close()
		return err
	}
	r.cont, r.data, r.msgs, r.closed = cont, data, msgs, false
	return nil
}

// scan classifies the nodes of cont into data and message mappings.
func (r *Recorder) scan(cont *container) (data, msgs map[string]*Node, err error) {
	infos, err := cont.List()
	if err != nil {
		return nil, nil, err
	}
	data = make(map[string]*Node)
	msgs = make(map[string]*Node)
	var pending []string
	for _, info := range infos {
		n, err := cont.Node(info.Name)
		if err != nil {
			return nil, nil, err
		}
		role, base := classifyName(info.Name)
		if role == roleMessages {
			msgs[base] = n
			pending = append(pending, base)
		} else {
			data[info.Name] = n
		}
	}
	for _, base := range pending {
		if data[base] == nil {
			r.statusf("streamrec: ignoring message table %s without a data table", MessageTableName(base))
			delete(msgs, base)
		}
	}
	return data, msgs, nil
}

// Register creates the node for a new source and returns a pointer to a zero
// row of sch (see NewRow) to use as a scratch row for Append. With
// includeMessages, a message table named MessageTableName(name) is created
// alongside.
//
// A message table left without its data table is ignored by Open but still
// occupies its name: registering its source again fails with ErrExists
// whether or not messages are requested.
func (r *Recorder) Register(name string, sch *Schema, includeMessages bool) (any, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if err := validateSourceName(name); err != nil {
		return nil, nodeErrf(name, nil, err, "register")
	}
	if r.data[name] != nil {
		return nil, nodeErrf(name, nil, ErrExists, "register")
	}
	msgName := MessageTableName(name)
	if found, err := r.cont.Exists(msgName); err != nil {
		return nil, err
	} else if found {
		return nil, nodeErrf(msgName, nil, ErrExists, "register %s", name)
	}
	row, err := NewRow(sch)
	if err != nil {
		return nil, &SchemaError{Node: name, Want: sch, Err: err}
	}

	specs := []nodeSpec{{name: name, schema: sch, filters: r.filters}}
	if includeMessages {
		specs = append(specs, nodeSpec{name: msgName, schema: messageSchema, filters: r.filters})
	}
	nodes, err := r.cont.CreateNodes(specs...)
	if err != nil {
		return nil, err
	}
	r.data[name] = nodes[0]
	if includeMessages {
		r.msgs[name] = nodes[1]
	}
	r.statusf("streamrec: registered %q", name)
	return row, nil
}

// Register registers a source whose rows are T values and returns a zero T to
// use as a scratch row for Append.
func Register[T any](r *Recorder, name string, includeMessages bool) (*T, error) {
	sch, err := SchemaOf[T]()
	if err != nil {
		return nil, &SchemaError{Node: name, GoType: reflect.TypeFor[T](), Err: err}
	}
	if _, err := r.Register(name, sch, includeMessages); err != nil {
		return nil, err
	}
	return new(T), nil
}

// Append writes rows to the source's node. Rows for unregistered sources and
// nil rows are dropped without error.
func (r *Recorder) Append(source string, rows any) error {
	if r.closed {
		return ErrClosed
	}
	n := r.data[source]
	if n == nil || rows == nil {
		return nil
	}
	buf := rowBytesPool.Get().([]byte)
	defer func() { releaseRowBytes(buf) }()

	buf, count, err := encodeRows(buf, source, n.Schema(), reflect.ValueOf(rows))
	if err != nil {
		return err
	}
	return n.appendRaw(buf, count)
}

// AppendMessage adds text to the message table of every source registered
// with messages, stamped with that source's current row count.
func (r *Recorder) AppendMessage(text string) error {
	if r.closed {
		return ErrClosed
	}
	text = clipMessage(text)
	for _, source := range slices.Sorted(maps.Keys(r.msgs)) {
		m := r.msgs[source]
		msg := Message{Time: r.data[source].Len(), Msg: text}
		buf, count, err := encodeRows(nil, m.Name(), m.Schema(), reflect.ValueOf(&msg))
		if err != nil {
			return err
		}
		if err := m.appendRaw(buf, count); err != nil {
			return err
		}
	}
	return nil
}

// SetAttribute stores a msgpack-encodable value as a named attribute of the
// source's node. Unregistered sources are ignored.
func (r *Recorder) SetAttribute(source, attr string, value any) error {
	if r.closed {
		return ErrClosed
	}
	n := r.data[source]
	if n == nil {
		return nil
	}
	return n.setAttr(attr, value)
}

// Sources returns registered source names in order.
func (r *Recorder) Sources() []string {
	return slices.Sorted(maps.Keys(r.data))
}

// HasMessages reports whether source has a message table.
func (r *Recorder) HasMessages(source string) bool {
	return r.msgs[source] != nil
}

// Len returns the row count of source.
func (r *Recorder) Len(source string) (uint64, bool) {
	n := r.data[source]
	if n == nil {
		return 0, false
	}
	return n.Len(), true
}

// Close flushes and closes the file. If dest is not empty, the closed file is
// then copied to dest; the working file stays in place.
func (r *Recorder) Close(dest string) error {
	if r.closed {
		return ErrClosed
	}
	err := r.cont.Close()
	r.cont, r.data, r.msgs, r.closed = nil, nil, nil, true
	if err != nil {
		return err
	}
	r.statusf("streamrec: closed file")

	if dest != "" {
		if r.path == InMemory {
			return ErrInMemory
		}
		if err := fsutil.CopyFile(dest, r.path); err != nil {
			return fmt.Errorf("streamrec: copy to %s: %w", dest, err)
		}
		r.statusf("streamrec: copied output file to %s", dest)
	}
	return nil
}

// Save closes the file (copying it to dest if given) and reopens it for
// appending, which guarantees everything so far is on disk.
func (r *Recorder) Save(dest string) error {
	if err := r.Close(dest); err != nil {
		return err
	}
	return r.Open(ModeAppend)
}

package streamrec

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-json"
)

type DumpFlags uint64

const (
	DumpNodeHeaders = DumpFlags(1 << iota)
	DumpRows
	DumpStats
	DumpAttrs
	DumpSchema

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders every node as text, one row per line in JSON.
func (rd *Reader) Dump(f DumpFlags) string {
	var buf strings.Builder
	for _, info := range rd.infos {
		rd.dumpNode(&buf, f, info.Name)
	}
	return buf.String()
}

func (rd *Reader) dumpNode(w *strings.Builder, f DumpFlags, name string) {
	n, err := rd.Node(name)
	if err != nil {
		fmt.Fprintf(w, "%s ** ERROR: %v\n", name, err)
		return
	}
	role, _ := classifyName(name)

	if f.Contains(DumpNodeHeaders) {
		fmt.Fprintln(w, dumpSep1)
		fmt.Fprintf(w, "%s (%s %s, %d rows)\n", name, role, n.Kind(), n.Len())
	}
	if f.Contains(DumpSchema) {
		fmt.Fprintf(w, "%s.schema: %v [%v]\n", name, n.Schema(), n.Filters())
	}
	if f.Contains(DumpStats) {
		s, err := n.stats()
		if err != nil {
			fmt.Fprintf(w, "%s.stats ** ERROR: %v\n", name, err)
		} else {
			fmt.Fprintf(w, "%s.stats: chunks = %d, chunk_rows = %d, raw_size = %d, stored_size = %d, attrs = %d\n", name, s.Chunks, s.ChunkRows, s.RawSize, s.StoredSize, s.Attrs)
		}
	}
	if f.Contains(DumpAttrs) {
		attrs, err := rd.Attrs(name)
		if err != nil {
			fmt.Fprintf(w, "%s.attrs ** ERROR: %v\n", name, err)
		} else {
			for _, k := range slices.Sorted(maps.Keys(attrs)) {
				fmt.Fprintf(w, "%s.@%s = %s\n", name, k, loggableVal(attrs[k]))
			}
		}
	}
	if f.Contains(DumpRows) && n.Len() > 0 {
		if f.Contains(DumpStats) || f.Contains(DumpAttrs) {
			fmt.Fprintln(w, dumpSep2)
		}
		rows, err := rd.Rows(name, 0, n.Len())
		if err != nil {
			fmt.Fprintf(w, "%s.rows ** ERROR: %v\n", name, err)
			return
		}
		for i, row := range rows {
			fmt.Fprintf(w, "%s.%d = %s\n", name, i, loggableVal(row))
		}
	}
}

func loggableVal(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(raw)
}

package streamrec

import (
	"encoding/hex"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type rec1 struct {
	A float64
	B int32
}

type rec2 struct {
	X uint16
	Y float32
}

func tempPath(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test"+TempFileExt)
	t.Logf("file: %s", path)
	return path
}

func setup(t testing.TB, opt Options) (*Recorder, string) {
	t.Helper()
	path := tempPath(t)
	r := must(New(path, opt))
	t.Cleanup(func() {
		if !r.closed {
			ensure(r.Close(""))
		}
	})
	return r, path
}

func openReader(t testing.TB, path string) *Reader {
	t.Helper()
	rd := must(OpenReader(path))
	t.Cleanup(func() {
		if rd.c != nil {
			ensure(rd.Close())
		}
	})
	return rd
}

func memContainer(t testing.TB, chunkSize int) (*container, *memStorage) {
	t.Helper()
	mem := newMemStorage()
	return newContainer(mem, false, chunkSize), mem
}

func nodeNames(rd *Reader) []string {
	var names []string
	for _, info := range rd.Nodes() {
		names = append(names, info.Name)
	}
	return names
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func isempty[T any, S ~[]T](t testing.TB, a S) {
	if len(a) > 0 {
		t.Helper()
		t.Errorf("** got %v, wanted empty slice", a)
	}
}

func isnil[T any, P ~*T](t testing.TB, a P) {
	if a != nil {
		t.Helper()
		t.Errorf("** got &%v, wanted nil", *a)
	}
}

func isnonnil[T any](t testing.TB, a *T) {
	if a == nil {
		t.Helper()
		t.Errorf("** got nil %T, wanted non-nil", a)
	}
}

func assertPanics(t testing.TB, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Helper()
			t.Errorf("** expected panic")
		}
	}()
	f()
}

func x(data string) []byte {
	data = strings.ReplaceAll(data, " ", "")
	return must(hex.DecodeString(data))
}

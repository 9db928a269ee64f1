package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/streamrec/streamrec"
)

type sensor struct {
	Volts float64 `rec:"volts"`
	Tick  uint32  `rec:"tick"`
}

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.rec")
	r, err := streamrec.New(path, streamrec.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := streamrec.Register[sensor](r, "adc", true); err != nil {
		t.Fatal(err)
	}
	if err := r.Append("adc", []sensor{{Volts: 1.5, Tick: 1}, {Volts: 2.5, Tick: 2}}); err != nil {
		t.Fatal(err)
	}
	if err := r.SetAttribute("adc", "units", "V"); err != nil {
		t.Fatal(err)
	}
	if err := r.AppendMessage("calibrated"); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(""); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMainImpl_text(t *testing.T) {
	path := writeSample(t)
	var out bytes.Buffer
	if err := mainImpl(&out, []string{"-rows", "-attrs", path}); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	for _, want := range []string{
		"adc (data table, 2 rows)",
		`adc.1 = {"tick":2,"volts":2.5}`,
		`adc.@units = "V"`,
		`adc_msgs.0 = {"msg":"calibrated","time":2}`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("** output is missing %q:\n%s", want, s)
		}
	}
}

func TestMainImpl_json(t *testing.T) {
	path := writeSample(t)
	var out bytes.Buffer
	if err := mainImpl(&out, []string{"-json", path}); err != nil {
		t.Fatal(err)
	}
	var s fileSummary
	if err := json.Unmarshal(out.Bytes(), &s); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out.String())
	}
	if s.Path != path || len(s.Nodes) != 2 {
		t.Fatalf("got %+v", s)
	}
	adc := s.Nodes[0]
	if adc.Name != "adc" || adc.Kind != "table" || adc.Rows != 2 || adc.Chunks != 1 || adc.RawSize != 24 {
		t.Errorf("** adc = %+v", adc)
	}
	if adc.Schema != "{volts float64, tick uint32}" {
		t.Errorf("** adc.Schema = %q", adc.Schema)
	}
	if adc.Attrs["units"] != "V" {
		t.Errorf("** adc.Attrs = %v", adc.Attrs)
	}
	if s.Nodes[1].Name != "adc_msgs" || s.Nodes[1].Rows != 1 {
		t.Errorf("** msgs = %+v", s.Nodes[1])
	}
}

func TestMainImpl_errors(t *testing.T) {
	var out bytes.Buffer
	if err := mainImpl(&out, nil); err == nil {
		t.Error("** no files accepted")
	}
	if err := mainImpl(&out, []string{"-log-level", "loud", "x"}); err == nil {
		t.Error("** bad log level accepted")
	}
	if err := mainImpl(&out, []string{filepath.Join(t.TempDir(), "missing.rec")}); err == nil {
		t.Error("** missing file accepted")
	}
}

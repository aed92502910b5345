package rtconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Default() failed validation: %v", err)
	}
}

func TestValidateRejectsMinAboveMax(t *testing.T) {
	c := Default()
	c.GC.MinSegments = 10
	c.GC.MaxSegments = 2
	if err := Validate(c); err == nil {
		t.Fatal("expected a validation error when gc-min exceeds gc-max")
	}
}

func TestValidateRejectsUnknownOptLevel(t *testing.T) {
	c := Default()
	c.Opt = OptLevel("O3")
	if err := Validate(c); err == nil {
		t.Fatal("expected a validation error for an opt level outside O0/Og/O2")
	}
}

func TestLoadMergesOverTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jsvm.toml")
	body := "strict = true\n\n[gc]\ninit-segments = 4\nmax-segments = 32\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !c.Strict {
		t.Error("strict = true in the file should override Default()'s false")
	}
	if c.GC.InitSegments != 4 || c.GC.MaxSegments != 32 {
		t.Errorf("gc section not applied: %+v", c.GC)
	}
	if c.GC.MinSegments != 1 {
		t.Errorf("min-segments should keep Default()'s value when the file doesn't set it, got %d", c.GC.MinSegments)
	}
	if c.Dir != path {
		t.Errorf("Dir = %q, want %q", c.Dir, path)
	}
}

func TestHeapConfigTranslation(t *testing.T) {
	c := Default()
	c.GC.InitSegments = 3
	c.GC.MaxSegments = 16
	c.GC.ReleaseUnused = true

	hc := c.HeapConfig()
	if hc.InitialOldSegments != 3 || hc.MaxOldSegments != 16 || !hc.ReleaseUnusedSegments {
		t.Errorf("HeapConfig() = %+v, want matching fields from Config.GC", hc)
	}
}

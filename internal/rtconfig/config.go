// Package rtconfig loads and validates the Runtime's Config (spec §6.1):
// defaults, an optional TOML file, then flag overrides, the same layering
// the teacher's manifest package applies to maggie.toml, followed by a CUE
// schema check that catches malformed heap-size combinations before the
// runtime boots instead of panicking deep in the allocator.
package rtconfig

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/ashlang/jsvmcore/internal/heap"
)

// OptLevel mirrors the CLI's -O/-Og/-O0 flags (spec §6.4). The level is
// carried in Config and checked by Validate; nothing in the heap or the
// interpreter reads it, so inline caches and safepoints behave the same
// at every level.
type OptLevel string

const (
	OptDebug     OptLevel = "O0" // -O0
	OptGenerous  OptLevel = "Og" // -Og, the default
	OptAggressive OptLevel = "O2"
)

// Config is the merged, validated configuration a Runtime is created from.
// Field names match the TOML keys and CLI flag names directly (no separate
// translation table), the same flat style manifest.Manifest uses.
type Config struct {
	GC struct {
		InitSegments  int  `toml:"init-segments" json:"init-segments"`
		MinSegments   int  `toml:"min-segments" json:"min-segments"`
		MaxSegments   int  `toml:"max-segments" json:"max-segments"`
		ReleaseUnused bool `toml:"release-unused" json:"release-unused"`
	} `toml:"gc" json:"gc"`

	Strict bool     `toml:"strict" json:"strict"`
	Lazy   bool     `toml:"lazy" json:"lazy"`
	Target string   `toml:"target" json:"target"` // e.g. "HBC"
	Opt    OptLevel `toml:"opt" json:"opt"`
	JIT    bool     `toml:"jit" json:"jit"`

	SampleProfile string `toml:"sample-profile" json:"sample-profile"` // output path, empty disables
	BytecodeOut   string `toml:"bytecode-out" json:"bytecode-out"`     // -b: dump compiled bytecode here

	// Dir is the path of the config file (if any) this Config was loaded
	// from, as passed to Load.
	Dir string `toml:"-" json:"-"`
}

// Default returns the configuration a Runtime boots with when nothing else
// is supplied, mirroring heap.DefaultConfig's sizing.
func Default() Config {
	var c Config
	c.GC.InitSegments = 1
	c.GC.MinSegments = 1
	c.GC.MaxSegments = 64
	c.Strict = false
	c.Lazy = true
	c.Target = "HBC"
	c.Opt = OptGenerous
	return c
}

// Load reads a TOML config file, starting from Default() and overriding
// whatever keys the file sets, the same "parse on top of zero value"
// approach manifest.Load takes for maggie.toml.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("rtconfig: cannot read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("rtconfig: parse error in %s: %w", path, err)
	}
	c.Dir = path
	if err := Validate(c); err != nil {
		return c, err
	}
	return c, nil
}

// HeapConfig translates the validated Config into the heap package's own
// Config shape, the boundary between the ambient configuration surface and
// the allocator's narrower view of it.
func (c Config) HeapConfig() heap.Config {
	return heap.Config{
		InitialOldSegments:    c.GC.InitSegments,
		MaxOldSegments:        c.GC.MaxSegments,
		ReleaseUnusedSegments: c.GC.ReleaseUnused,
	}
}

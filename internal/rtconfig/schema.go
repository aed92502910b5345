package rtconfig

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// schemaSource is the embedded CUE constraint set a merged Config is
// checked against before a Runtime boots. Kept as a plain Go string rather
// than a loaded module (cue/load) since this core has exactly one schema
// and no package imports of its own to resolve.
const schemaSource = `
#Config: {
	gc: {
		"init-segments": int & >=1 & <=gc."max-segments"
		"min-segments":  int & >=1 & <=gc."max-segments"
		"max-segments":  int & >=1
		"release-unused": bool
	}

	strict: bool
	lazy:   bool
	target: string & =~"^[A-Za-z0-9_]+$"
	opt:    "O0" | "Og" | "O2"
	jit:    bool

	"sample-profile": string
	"bytecode-out":    string
}
`

// Validate checks c against the embedded schema, catching field-level
// mistakes (spec SPEC_FULL's "gc-min > gc-max" example) with a descriptive
// error instead of letting a bad Config reach the allocator and panic
// there. cuelang.org/go is the teacher's own go.mod dependency, unwired in
// the teacher itself; this is its one concrete home in this core.
func Validate(c Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("rtconfig: internal schema error: %w", err)
	}
	data := ctx.Encode(c)
	if err := data.Err(); err != nil {
		return fmt.Errorf("rtconfig: cannot encode config: %w", err)
	}
	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("rtconfig: invalid config: %w", err)
	}
	return nil
}

// Command jsvmrun is the CLI driver for the VM core (spec §6.4): loads a
// compiled bytecode module and runs its global function, the same
// flag-based entry-point shape the teacher's cmd/mag takes for running
// Maggie programs.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ashlang/jsvmcore/internal/bcprovider"
	"github.com/ashlang/jsvmcore/internal/rtconfig"
	"github.com/ashlang/jsvmcore/internal/rtlog"
	"github.com/ashlang/jsvmcore/internal/runtime"
)

// Exit codes (spec §6.4): 0 success, 1 an uncaught script exception, 2 a
// VM-internal/usage failure (bad flags, unreadable module, OOM before the
// program ever ran).
const (
	exitOK         = 0
	exitScriptFail = 1
	exitVMFail     = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("jsvmrun", flag.ContinueOnError)

	optDebug := fs.Bool("O0", false, "debug optimization level (recorded in the runtime config only)")
	optGenerous := fs.Bool("Og", true, "default optimization level (recorded in the runtime config only)")
	optAggressive := fs.Bool("O2", false, "aggressive optimization level")
	strict := fs.Bool("strict", false, "set strict mode in the runtime config (each function's strictness comes from its bytecode)")
	nonStrict := fs.Bool("non-strict", false, "clear strict mode in the runtime config (each function's strictness comes from its bytecode)")
	lazy := fs.Bool("lazy", true, "set lazy compilation in the runtime config (recorded only; modules are loaded whole)")
	target := fs.String("target", "HBC", "bytecode target format identifier")
	gcMin := fs.Int("gc-min", 1, "minimum old-generation segment count")
	gcInit := fs.Int("gc-init", 1, "initial old-generation segment count")
	gcMax := fs.Int("gc-max", 64, "maximum old-generation segment count")
	jit := fs.Bool("jit", false, "enable the optimizing tier (no-op placeholder: no JIT is implemented)")
	sampleProfile := fs.String("sample-profile", "", "sampling-profiler report path, recorded in the runtime config (no report is written)")
	bytecodeOut := fs.String("b", "", "dump the loaded module's decoded form to this path instead of running it")
	configPath := fs.String("config", "", "path to a TOML config file, merged under these flags' defaults")
	verbose := fs.Bool("v", false, "verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: jsvmrun [options] <bytecode-module>\n\n")
		fmt.Fprintf(os.Stderr, "Runs a compiled bytecode module's global function.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(argv); err != nil {
		return exitVMFail
	}

	args := fs.Args()
	if len(args) != 1 {
		fs.Usage()
		return exitVMFail
	}

	cfg := rtconfig.Default()
	if *configPath != "" {
		loaded, err := rtconfig.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jsvmrun: %v\n", err)
			return exitVMFail
		}
		cfg = loaded
	}
	cfg.GC.MinSegments = *gcMin
	cfg.GC.InitSegments = *gcInit
	cfg.GC.MaxSegments = *gcMax
	cfg.Lazy = *lazy
	cfg.Target = *target
	cfg.JIT = *jit
	cfg.SampleProfile = *sampleProfile
	cfg.BytecodeOut = *bytecodeOut
	switch {
	case *optDebug:
		cfg.Opt = rtconfig.OptDebug
	case *optAggressive:
		cfg.Opt = rtconfig.OptAggressive
	case *optGenerous:
		cfg.Opt = rtconfig.OptGenerous
	}
	if *nonStrict {
		cfg.Strict = false
	} else if *strict {
		cfg.Strict = true
	}

	if *verbose {
		rtlog.SetVerbosity(7) // commonlog.Debug
	}
	log := rtlog.New("cli")

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "jsvmrun: %v\n", err)
		return exitVMFail
	}
	module, err := bcprovider.Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jsvmrun: %v\n", err)
		return exitVMFail
	}

	if cfg.BytecodeOut != "" {
		if err := dumpModule(module, cfg.BytecodeOut); err != nil {
			fmt.Fprintf(os.Stderr, "jsvmrun: %v\n", err)
			return exitVMFail
		}
		return exitOK
	}

	rt, err := runtime.Create(cfg, module, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jsvmrun: %v\n", err)
		return exitVMFail
	}

	result, err := rt.Run()
	if err != nil {
		if scriptErr, ok := err.(*runtime.ScriptError); ok {
			fmt.Fprintf(os.Stderr, "uncaught exception: %s\n", scriptErr.Error())
			return exitScriptFail
		}
		fmt.Fprintf(os.Stderr, "jsvmrun: %v\n", err)
		return exitVMFail
	}

	log.Infof("program finished, global function returned %s", rt.Engine.Stringify(result))
	return exitOK
}

// dumpModule writes a human-readable summary of a decoded module to path,
// the CLI's "-b" bytecode-inspection mode (spec §6.4).
func dumpModule(m bcprovider.Module, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	fmt.Fprintf(f, "functions: %d\n", m.FunctionCount())
	fmt.Fprintf(f, "global function index: %d\n", m.GlobalFunctionIndex())
	for i := uint32(0); i < m.FunctionCount(); i++ {
		fn := m.Function(i)
		fmt.Fprintf(f, "function %d: %d opcode bytes, %d registers, %d params, strict=%v\n",
			i, len(fn.Opcodes), fn.Header.FrameSize, fn.Header.ParamCount, fn.Header.Strict)
	}
	return nil
}

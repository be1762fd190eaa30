// Package config parses the pnexec CLI surface into the plain options
// struct the core consumes (§6): memory size, argv/env, tracing, and the
// analyzer/executor knobs, independent of any particular flag shape.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pnacl-run/pnexec/runtime"
)

// Config is the parsed configuration object the core depends on (§6).
type Config struct {
	PexePath string

	MemorySize uint32
	Argv       []string
	Env        []string
	Run        bool
	DedupePhi  bool
	TraceFlags runtime.TraceFlag
	RepeatLoad uint32

	FileBaseDir string
	Monitor     bool
}

const defaultMemorySize = 256 << 20 // 256MiB, comfortably above GuardSize+stack

// Default returns a Config with the core's baseline defaults, before any
// flags are applied.
func Default() Config {
	return Config{
		MemorySize: defaultMemorySize,
		Run:        true,
		DedupePhi:  true,
		RepeatLoad: 1,
	}
}

// Parse walks os.Args-style arguments by hand, matching the teacher's
// convention of manual flag parsing with a usage banner and os.Exit(1) on
// error rather than a flag-parsing library.
func Parse(args []string) (Config, error) {
	cfg := Default()
	var positional []string

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--memory-size":
			i++
			if i >= len(args) {
				return cfg, fmt.Errorf("--memory-size requires a value")
			}
			n, err := strconv.ParseUint(args[i], 10, 32)
			if err != nil {
				return cfg, fmt.Errorf("--memory-size: %w", err)
			}
			cfg.MemorySize = uint32(n)

		case a == "--env":
			i++
			if i >= len(args) {
				return cfg, fmt.Errorf("--env requires a K=V value")
			}
			if !strings.Contains(args[i], "=") {
				return cfg, fmt.Errorf("--env value %q is not K=V", args[i])
			}
			cfg.Env = append(cfg.Env, args[i])

		case a == "--use-host-env":
			cfg.Env = append(cfg.Env, os.Environ()...)

		case a == "--run":
			cfg.Run = true
		case a == "--no-run":
			cfg.Run = false

		case a == "--no-dedupe-phi-nodes":
			cfg.DedupePhi = false

		case a == "--repeat-load":
			i++
			if i >= len(args) {
				return cfg, fmt.Errorf("--repeat-load requires a value")
			}
			n, err := strconv.ParseUint(args[i], 10, 32)
			if err != nil {
				return cfg, fmt.Errorf("--repeat-load: %w", err)
			}
			cfg.RepeatLoad = uint32(n)

		case a == "--monitor":
			cfg.Monitor = true

		case a == "--file-base-dir":
			i++
			if i >= len(args) {
				return cfg, fmt.Errorf("--file-base-dir requires a value")
			}
			cfg.FileBaseDir = args[i]

		case a == "--trace":
			i++
			if i >= len(args) {
				return cfg, fmt.Errorf("--trace requires a value")
			}
			flags, err := parseTraceFlags(args[i])
			if err != nil {
				return cfg, err
			}
			cfg.TraceFlags |= flags

		case a == "--":
			cfg.Argv = append(cfg.Argv, args[i+1:]...)
			i = len(args)

		case strings.HasPrefix(a, "--"):
			return cfg, fmt.Errorf("unrecognized flag %q", a)

		default:
			positional = append(positional, a)
		}
	}

	if len(positional) == 0 {
		return cfg, fmt.Errorf("missing PEXE path")
	}
	cfg.PexePath = positional[0]
	if cfg.Argv == nil {
		cfg.Argv = append([]string{cfg.PexePath}, positional[1:]...)
	}
	if cfg.FileBaseDir == "" {
		cfg.FileBaseDir = "."
	}
	return cfg, nil
}

func parseTraceFlags(spec string) (runtime.TraceFlag, error) {
	var flags runtime.TraceFlag
	for _, name := range strings.Split(spec, ",") {
		switch name {
		case "instructions":
			flags |= runtime.TraceInstructions
		case "calls":
			flags |= runtime.TraceCalls
		case "syscalls":
			flags |= runtime.TraceSyscalls
		case "scheduler":
			flags |= runtime.TraceScheduler
		default:
			return 0, fmt.Errorf("unrecognized trace flag %q", name)
		}
	}
	return flags, nil
}

// Usage is printed by cmd/pnexec on a parse error, ahead of os.Exit(1).
const Usage = `usage: pnexec [flags] <pexe-path> [-- program-args...]

flags:
  --memory-size N       total linear memory size in bytes (default 268435456)
  --env K=V             set an environment variable (repeatable)
  --use-host-env        copy the host's environment into the guest
  --run / --no-run      run _start after loading (default: run)
  --no-dedupe-phi-nodes disable phi-assign deduplication in the analyzer
  --repeat-load N       parse and lower the module N times (diagnostic)
  --file-base-dir DIR   sandbox root for filename IRT calls (default ".")
  --trace LIST          comma-separated: instructions,calls,syscalls,scheduler
  --monitor             run the interactive debug console on stdin/stdout
`

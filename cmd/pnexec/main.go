// Command pnexec loads a PEXE bitcode file, analyzes and lowers every
// defined function to the dense runtime opcode stream, then executes it
// under the simulated NaCl/IRT environment (§1, §2).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pnacl-run/pnexec/analyzer"
	"github.com/pnacl-run/pnexec/config"
	"github.com/pnacl-run/pnexec/debugviz"
	"github.com/pnacl-run/pnexec/irt"
	"github.com/pnacl-run/pnexec/pnmodule"
	"github.com/pnacl-run/pnexec/runtime"
	"github.com/pnacl-run/pnexec/scheduler"
)

const (
	atSysinfo     = 32
	mainStackSize = 16 << 20
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, config.Usage)
		os.Exit(1)
	}

	data, err := os.ReadFile(cfg.PexePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pnexec: reading %s: %v\n", cfg.PexePath, err)
		os.Exit(1)
	}

	var parsed *pnmodule.ParsedModule
	for i := uint32(0); i < cfg.RepeatLoad; i++ {
		parsed, err = pnmodule.Parse(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pnexec: parsing %s: %v\n", cfg.PexePath, err)
			os.Exit(1)
		}
	}

	module := parsed.Module
	if err := analyzer.Analyze(module, cfg.DedupePhi); err != nil {
		fmt.Fprintf(os.Stderr, "pnexec: analyzing %s: %v\n", cfg.PexePath, err)
		os.Exit(1)
	}

	if !cfg.Run {
		fmt.Printf("pnexec: %s parsed and lowered, %d functions, --no-run given\n", cfg.PexePath, len(module.Funcs))
		return
	}

	startInfo, startInfoSize := buildStartInfo(cfg.Argv, cfg.Env)

	mem, err := runtime.NewMemory(parsed.GlobalData, cfg.MemorySize, startInfoSize, mainStackSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pnexec: %v\n", err)
		os.Exit(1)
	}
	if err := mem.CopyIn(mem.StartInfoStart, startInfo); err != nil {
		fmt.Fprintf(os.Stderr, "pnexec: writing start-info block: %v\n", err)
		os.Exit(1)
	}

	ex := runtime.NewExecutor(module, mem)
	ex.TraceFlags = cfg.TraceFlags
	ex.FileBaseDir = cfg.FileBaseDir
	irt.Register(ex)

	if int(module.StartFunctionID) >= len(module.Funcs) {
		fmt.Fprintf(os.Stderr, "pnexec: start function id %d out of range\n", module.StartFunctionID)
		os.Exit(1)
	}
	entry := &module.Funcs[module.StartFunctionID]
	args := []pnmodule.RuntimeValue{pnmodule.RuntimeValue(mem.StartInfoStart)}
	ex.SpawnThread(entry, args, mem.StackEnd, mem.Size(), 0, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Monitor {
		frontend := debugviz.New()
		frontend.Initialize("pnexec memory inspector: " + cfg.PexePath)
		mon := &debugviz.Monitor{Ex: ex, Frontend: frontend}
		go func() {
			mon.Run(ctx)
			cancel()
		}()
	}

	sched := scheduler.New(ex, 1000)
	if err := sched.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pnexec: %v\n", err)
		os.Exit(1)
	}

	os.Exit(int(ex.ExitCode))
}

// buildStartInfo lays out the start-info block (§6): cleanup=0, envc,
// argc, argc+1 argv pointers (NULL-terminated), envc+1 env pointers
// (NULL-terminated), then auxv (type,value) pairs terminated by (0,0).
// The string bytes follow immediately after the auxv table, inside the
// same region; the returned size covers both.
func buildStartInfo(argv, env []string) ([]byte, uint32) {
	words := 3 + (len(argv) + 1) + (len(env) + 1) + 4 // cleanup,envc,argc + argv + env + one auxv pair + terminator
	headerSize := uint32(words) * 4

	var strs [][]byte
	var strOffsets []uint32
	cursor := headerSize
	for _, s := range append(append([]string{}, argv...), env...) {
		strOffsets = append(strOffsets, cursor)
		b := append([]byte(s), 0)
		strs = append(strs, b)
		cursor += uint32(len(b))
	}
	total := cursor

	buf := make([]byte, total)
	put32 := func(off uint32, v uint32) {
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
		buf[off+2] = byte(v >> 16)
		buf[off+3] = byte(v >> 24)
	}

	off := uint32(0)
	put32(off, 0) // cleanup
	off += 4
	put32(off, uint32(len(env)))
	off += 4
	put32(off, uint32(len(argv)))
	off += 4
	for i := range argv {
		put32(off, strOffsets[i])
		off += 4
	}
	put32(off, 0) // argv NULL terminator
	off += 4
	for i := range env {
		put32(off, strOffsets[len(argv)+i])
		off += 4
	}
	put32(off, 0) // envp NULL terminator
	off += 4
	put32(off, atSysinfo)
	off += 4
	put32(off, pnmodule.BuiltinAddress(int32(irt.Query)))
	off += 4
	put32(off, 0) // auxv terminator: type
	off += 4
	put32(off, 0) // auxv terminator: value
	off += 4

	for i, s := range strs {
		copy(buf[strOffsets[i]:], s)
	}
	return buf, total
}

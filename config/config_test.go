package config

import (
	"testing"

	"github.com/pnacl-run/pnexec/runtime"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]string{"prog.pexe"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PexePath != "prog.pexe" {
		t.Fatalf("PexePath = %q", cfg.PexePath)
	}
	if !cfg.Run || !cfg.DedupePhi {
		t.Fatal("Run and DedupePhi should default true")
	}
	if cfg.RepeatLoad != 1 {
		t.Fatalf("RepeatLoad = %d want 1", cfg.RepeatLoad)
	}
	if len(cfg.Argv) != 1 || cfg.Argv[0] != "prog.pexe" {
		t.Fatalf("Argv = %v", cfg.Argv)
	}
}

func TestParseFlagsAndProgramArgs(t *testing.T) {
	cfg, err := Parse([]string{
		"--memory-size", "1048576",
		"--env", "FOO=bar",
		"--no-dedupe-phi-nodes",
		"--no-run",
		"--trace", "calls,syscalls",
		"prog.pexe",
		"--",
		"a", "b",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MemorySize != 1048576 {
		t.Fatalf("MemorySize = %d", cfg.MemorySize)
	}
	if len(cfg.Env) != 1 || cfg.Env[0] != "FOO=bar" {
		t.Fatalf("Env = %v", cfg.Env)
	}
	if cfg.DedupePhi {
		t.Fatal("DedupePhi should be disabled")
	}
	if cfg.Run {
		t.Fatal("Run should be disabled")
	}
	want := runtime.TraceCalls | runtime.TraceSyscalls
	if cfg.TraceFlags != want {
		t.Fatalf("TraceFlags = %v want %v", cfg.TraceFlags, want)
	}
	if len(cfg.Argv) != 2 || cfg.Argv[0] != "a" || cfg.Argv[1] != "b" {
		t.Fatalf("Argv = %v", cfg.Argv)
	}
}

func TestParseMissingPexePath(t *testing.T) {
	if _, err := Parse(nil); err == nil {
		t.Fatal("expected an error for a missing PEXE path")
	}
}

func TestParseUnrecognizedFlag(t *testing.T) {
	if _, err := Parse([]string{"--bogus", "prog.pexe"}); err == nil {
		t.Fatal("expected an error for an unrecognized flag")
	}
}

func TestParseEnvRequiresKeyValue(t *testing.T) {
	if _, err := Parse([]string{"--env", "NOTKV", "prog.pexe"}); err == nil {
		t.Fatal("expected an error for a non K=V --env value")
	}
}

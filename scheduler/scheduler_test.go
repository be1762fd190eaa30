package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/pnacl-run/pnexec/pnmodule"
	"github.com/pnacl-run/pnexec/runtime"
)

func newTestExecutor(t *testing.T) *runtime.Executor {
	t.Helper()
	globalData := make([]byte, pnmodule.GuardSize+16)
	mem, err := runtime.NewMemory(globalData, 1<<20, 256, 4096)
	if err != nil {
		t.Fatal(err)
	}
	return runtime.NewExecutor(&pnmodule.Module{}, mem)
}

// An empty-framed thread dies on its very first Step (CurrentFrame == nil),
// so Run should return promptly once every thread has been scheduled once.
func TestRunCompletesWithFramelessThreads(t *testing.T) {
	ex := newTestExecutor(t)
	ex.Threads = append(ex.Threads,
		runtime.NewThread(0, ex.Mem.StackEnd, ex.Mem.Size()),
		runtime.NewThread(1, ex.Mem.StackEnd, ex.Mem.Size()),
	)

	sched := New(ex, 10)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sched.Run(ctx); err != nil {
		t.Fatal(err)
	}
	for _, th := range ex.Threads {
		if th.State != runtime.ThreadDead {
			t.Fatalf("thread %d state = %v, want Dead", th.ID, th.State)
		}
	}
}

func TestSetPausedTogglesPaused(t *testing.T) {
	ex := newTestExecutor(t)
	ex.SetPaused(true)
	if !ex.Paused() {
		t.Fatal("Paused() should report true after SetPaused(true)")
	}
	ex.SetPaused(false)
	if ex.Paused() {
		t.Fatal("Paused() should report false after SetPaused(false)")
	}
}

func TestDefaultQuantum(t *testing.T) {
	ex := newTestExecutor(t)
	sched := New(ex, 0)
	if sched.Quantum != 1000 {
		t.Fatalf("Quantum = %d want default 1000", sched.Quantum)
	}
}

// Package scheduler drives runtime.Executor's live thread set: single-
// threaded cooperative interleaving of simulated threads, one real
// goroutine per simulated thread, serialized by a weighted semaphore baton
// (§5). Quantum expiry, thread death, and futex blocking are the only
// points a thread yields the baton.
package scheduler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sys/unix"

	"github.com/pnacl-run/pnexec/runtime"
)

// blockedPollInterval is how often a Blocked thread's goroutine re-checks
// whether it has been woken or its deadline has passed, without holding
// the baton in the meantime.
const blockedPollInterval = 200 * time.Microsecond

// Scheduler runs every thread of an Executor to completion (or until one
// invokes NACL_IRT_BASIC_EXIT / llvm.trap).
type Scheduler struct {
	Ex      *runtime.Executor
	Quantum int // instructions per turn before voluntarily yielding the baton

	baton *semaphore.Weighted
}

func New(ex *runtime.Executor, quantum int) *Scheduler {
	if quantum <= 0 {
		quantum = 1000
	}
	return &Scheduler{Ex: ex, Quantum: quantum, baton: semaphore.NewWeighted(1)}
}

// Run launches a goroutine per currently live thread plus a watcher that
// picks up threads spawned later by NACL_IRT_THREAD_CREATE, and blocks
// until every thread has died or the executor has exited.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, gctx := errgroup.WithContext(ctx)

	launched := make(map[int32]bool)
	launch := func(th *runtime.Thread) {
		launched[th.ID] = true
		eg.Go(func() error {
			err := s.runThread(gctx, th)
			if err != nil || s.Ex.Exited {
				cancel()
			}
			return err
		})
	}
	for _, th := range s.Ex.Threads {
		launch(th)
	}

	eg.Go(func() error {
		ticker := time.NewTicker(blockedPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				allDead := true
				for _, th := range s.Ex.Threads {
					if !launched[th.ID] {
						launch(th)
					}
					if th.State != runtime.ThreadDead {
						allDead = false
					}
				}
				if allDead {
					return nil
				}
			}
		}
	})

	return eg.Wait()
}

// runThread advances th until it dies, the executor exits, or ctx is
// cancelled. It never holds the baton while th is Blocked, so a futex
// wait doesn't stall the rest of the ring.
func (s *Scheduler) runThread(ctx context.Context, th *runtime.Thread) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if th.State == runtime.ThreadDead {
			return nil
		}
		if th.State == runtime.ThreadBlocked {
			if !s.promoteIfExpired(th) {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(blockedPollInterval):
				}
				continue
			}
		}

		if s.Ex.Paused() {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(blockedPollInterval):
			}
			continue
		}

		if err := s.baton.Acquire(ctx, 1); err != nil {
			return nil
		}
		done, err := s.runQuantum(th)
		s.baton.Release(1)
		if err != nil {
			return err
		}
		if done || s.Ex.Exited {
			return nil
		}
	}
}

// runQuantum executes up to s.Quantum runtime instructions on th, stopping
// early if th dies, blocks, or the executor exits.
func (s *Scheduler) runQuantum(th *runtime.Thread) (done bool, err error) {
	for i := 0; i < s.Quantum; i++ {
		d, err := s.Ex.Step(th)
		if err != nil {
			return false, err
		}
		if d || s.Ex.Exited || th.State != runtime.ThreadRunning {
			return d, nil
		}
	}
	return false, nil
}

// promoteIfExpired implements the cancellation/timeout rule (§5): a
// Blocked thread with a deadline is promoted back to Running the first
// time it is scheduled after the host wall clock passes the deadline.
func (s *Scheduler) promoteIfExpired(th *runtime.Thread) bool {
	if th.Futex == runtime.FutexWoken {
		th.State = runtime.ThreadRunning
		return true
	}
	if !th.HasDeadline {
		return false
	}
	if nowNanos() < th.Deadline {
		return false
	}
	th.State = runtime.ThreadRunning
	th.Futex = runtime.FutexTimedOut
	th.HasDeadline = false
	return true
}

func nowNanos() int64 {
	var ts unix.Timespec
	unix.ClockGettime(unix.CLOCK_REALTIME, &ts)
	return ts.Sec*1e9 + ts.Nsec
}

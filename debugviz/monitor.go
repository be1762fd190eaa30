package debugviz

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/pnacl-run/pnexec/runtime"
)

// Monitor is the interactive debug console (`pnexec --monitor`): a small
// fixed vocabulary of single-key commands read in raw mode, mirroring
// debug_monitor.go's MonitorActive command loop, but driving a
// runtime.Executor instead of a CPU/video chip.
//
//	f  freeze (pause every thread at its next instruction boundary)
//	r  resume
//	m  show/hide the visual memory inspector (pnexec_gui builds only)
//	d  dump the current memory band layout
//	q  quit (cancels the run)
type Monitor struct {
	Ex       *runtime.Executor
	Frontend Frontend
}

// Run reads commands from stdin in raw mode until 'q' or ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("debugviz: stdin is not a terminal, --monitor requires one")
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("debugviz: entering raw mode: %w", err)
	}
	defer term.Restore(fd, old)

	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return nil
		}
		switch buf[0] {
		case 'f':
			m.Ex.SetPaused(true)
			fmt.Fprint(os.Stdout, "\r\nfrozen\r\n")
		case 'r':
			m.Ex.SetPaused(false)
			fmt.Fprint(os.Stdout, "\r\nresumed\r\n")
		case 'm':
			if m.Frontend == nil {
				continue
			}
			if m.Frontend.IsVisible() {
				m.Frontend.Close()
			} else {
				m.Frontend.Show()
			}
		case 'd':
			for _, b := range Bands(m.Ex.Mem) {
				fmt.Fprintf(os.Stdout, "\r\n%-10s [0x%x, 0x%x)", b.Name, b.Start, b.End)
			}
			fmt.Fprint(os.Stdout, "\r\n")
		case 'q':
			return nil
		}
	}
}

// refreshInterval is the suggested period between Render calls while the
// visual inspector is open; Run itself never calls Render.
const refreshInterval = 100 * time.Millisecond

// RefreshInterval exposes refreshInterval to callers that drive Render.
func RefreshInterval() time.Duration { return refreshInterval }

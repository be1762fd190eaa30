// Package debugviz is the optional visual memory inspector for pnexec. It
// renders the linear-memory layout (guard / globalvar / startinfo / heap /
// stack bands, §6) as a live scrolling strip. The real ebiten-backed
// renderer only builds under the pnexec_gui tag; the default build links
// the headless stub in headless.go, mirroring the teacher's GUIFrontend split
// between gui_frontend_*.go and gui_frontend_headless.go.
package debugviz

import "github.com/pnacl-run/pnexec/runtime"

// Frontend is the GUIFrontend-shaped interface the teacher's
// gui_interface.go defines (Initialize/Show/Close/IsVisible), narrowed to
// what a memory inspector needs: a Mem snapshot to draw each frame.
type Frontend interface {
	Initialize(title string) error
	Show() error
	Close() error
	IsVisible() bool
	Render(mem *runtime.Memory) error
}

// Band is one labeled region of linear memory, in the order §6 lays them
// out: guard, globalvar, startinfo, heap, stack.
type Band struct {
	Name  string
	Start uint32
	End   uint32
}

// Bands returns the current guard/globalvar/startinfo/heap/stack layout of
// mem as labeled ranges, for a renderer to draw as a scrolling strip.
func Bands(mem *runtime.Memory) []Band {
	return []Band{
		{"guard", 0, mem.GlobalVarStart},
		{"globalvar", mem.GlobalVarStart, mem.StartInfoStart},
		{"startinfo", mem.StartInfoStart, mem.HeapStart},
		{"heap", mem.HeapStart, mem.StackEnd},
		{"stack", mem.StackEnd, mem.Size()},
	}
}

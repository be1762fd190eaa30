//go:build !pnexec_gui

package debugviz

import "github.com/pnacl-run/pnexec/runtime"

// headlessFrontend is the default build's Frontend: it tracks visibility
// state but draws nothing, exactly as gui_frontend_headless.go does for
// the teacher's GUIFrontend.
type headlessFrontend struct {
	visible bool
}

// New returns the headless Frontend. The pnexec_gui-tagged build shadows
// this with the ebiten-backed implementation in frontend_ebiten.go.
func New() Frontend {
	return &headlessFrontend{}
}

func (f *headlessFrontend) Initialize(title string) error { return nil }

func (f *headlessFrontend) Show() error {
	f.visible = true
	return nil
}

func (f *headlessFrontend) Close() error {
	f.visible = false
	return nil
}

func (f *headlessFrontend) IsVisible() bool { return f.visible }

func (f *headlessFrontend) Render(mem *runtime.Memory) error { return nil }

//go:build pnexec_gui

package debugviz

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"github.com/pnacl-run/pnexec/runtime"
)

const (
	windowW = 640
	windowH = 480
	rowH    = 14
)

var bandColor = map[string]color.RGBA{
	"guard":     {80, 80, 80, 255},
	"globalvar": {60, 120, 200, 255},
	"startinfo": {200, 160, 40, 255},
	"heap":      {60, 180, 90, 255},
	"stack":     {200, 60, 60, 255},
}

// ebitenFrontend is the real memory-inspector renderer, built only under
// the pnexec_gui tag so the default build links zero GUI dependencies,
// following the teacher's gui_frontend_gtk4.go/video_backend_ebiten.go
// split between a real backend and gui_frontend_headless.go.
type ebitenFrontend struct {
	title   string
	visible bool
	running bool
	mem     *runtime.Memory
}

func New() Frontend {
	return &ebitenFrontend{}
}

func (f *ebitenFrontend) Initialize(title string) error {
	f.title = title
	return nil
}

func (f *ebitenFrontend) Show() error {
	if f.running {
		return nil
	}
	f.visible = true
	f.running = true
	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowTitle(f.title)
	ebiten.SetRunnableOnUnfocused(true)
	go func() {
		if err := ebiten.RunGame(f); err != nil {
			fmt.Println("pnexec debugviz:", err)
		}
		f.visible = false
	}()
	return nil
}

func (f *ebitenFrontend) Close() error {
	f.visible = false
	return nil
}

func (f *ebitenFrontend) IsVisible() bool { return f.visible }

// Render stores the memory snapshot the next Ebiten frame draws. Monitor
// does not call it; a snapshot appears only once some caller does.
func (f *ebitenFrontend) Render(mem *runtime.Memory) error {
	f.mem = mem
	return nil
}

func (f *ebitenFrontend) Update() error { return nil }

func (f *ebitenFrontend) Layout(outsideWidth, outsideHeight int) (int, int) {
	return windowW, windowH
}

func (f *ebitenFrontend) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{20, 20, 20, 255})
	if f.mem == nil {
		return
	}
	total := float64(f.mem.Size())
	for i, band := range Bands(f.mem) {
		frac0 := float64(band.Start) / total
		frac1 := float64(band.End) / total
		x0 := int(frac0 * windowW)
		x1 := int(frac1 * windowW)
		if x1 <= x0 {
			x1 = x0 + 1
		}
		ebitenutil.DrawRect(screen, float64(x0), 40, float64(x1-x0), 24, bandColor[band.Name])
		label := fmt.Sprintf("%s [0x%x,0x%x)", band.Name, band.Start, band.End)
		text.Draw(screen, label, basicfont.Face7x13, 8, 80+i*rowH, color.White)
	}
}

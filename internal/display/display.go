// Package display renders the VM's 512x256 monochrome framebuffer with
// pixelgl and translates window key events into the keyboard-register
// codes vmdef defines.
package display

import (
	"fmt"

	"github.com/faiface/pixel"
	"github.com/faiface/pixel/imdraw"
	"github.com/faiface/pixel/pixelgl"
	"golang.org/x/image/colornames"

	"github.com/bradford-hamilton/hackvm/internal/vmdef"
)

const scale = 2

// Window embeds a pixelgl window and the keymap used to translate pressed
// keys into the control-key codes written into the keyboard register.
type Window struct {
	*pixelgl.Window
	keyMap map[pixelgl.Button]vmdef.Word
}

// NewWindow opens a window scaled up from the Hack screen's native
// 512x256 resolution, which would otherwise be uncomfortably small.
func NewWindow() (*Window, error) {
	cfg := pixelgl.WindowConfig{
		Title:  "hackvm",
		Bounds: pixel.R(0, 0, vmdef.ScreenWidth*scale, vmdef.ScreenHeight*scale),
		VSync:  true,
	}
	w, err := pixelgl.NewWindow(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating new window: %v", err)
	}
	return &Window{Window: w, keyMap: buildKeyMap()}, nil
}

func buildKeyMap() map[pixelgl.Button]vmdef.Word {
	m := map[pixelgl.Button]vmdef.Word{
		pixelgl.KeyEnter:     vmdef.NewlineKey,
		pixelgl.KeyBackspace: vmdef.BackspaceKey,
		pixelgl.KeyLeft:      vmdef.ArrowLeftKey,
		pixelgl.KeyUp:        vmdef.ArrowUpKey,
		pixelgl.KeyRight:     vmdef.ArrowRightKey,
		pixelgl.KeyDown:      vmdef.ArrowDownKey,
		pixelgl.KeyHome:      vmdef.HomeKey,
		pixelgl.KeyEnd:       vmdef.EndKey,
		pixelgl.KeyPageUp:    vmdef.PageUpKey,
		pixelgl.KeyPageDown:  vmdef.PageDownKey,
		pixelgl.KeyInsert:    vmdef.InsertKey,
		pixelgl.KeyDelete:    vmdef.DeleteKey,
		pixelgl.KeyEscape:    vmdef.EscapeKey,
		pixelgl.KeySpace:     vmdef.Word(' '),
	}
	for i := 0; i < 26; i++ {
		m[pixelgl.KeyA+pixelgl.Button(i)] = vmdef.Word('A' + i)
	}
	for i := 0; i < 10; i++ {
		m[pixelgl.Key0+pixelgl.Button(i)] = vmdef.Word('0' + i)
	}
	return m
}

// PressedKey returns the keyboard-register code for the first recognized
// key currently held down, or 0 if none is. Lowercase letters are
// upper-cased before writing, matching the keyboard contract in vmdef.
func (w *Window) PressedKey() vmdef.Word {
	for btn, code := range w.keyMap {
		if w.Pressed(btn) {
			return code
		}
	}
	return 0
}

// DrawFramebuffer renders the VM's screen segment: one bit per pixel, LSB
// of each word first within its 16-pixel span, rows running top to bottom.
func (w *Window) DrawFramebuffer(screen []vmdef.Word) {
	w.Clear(colornames.White)
	imDraw := imdraw.New(nil)
	imDraw.Color = pixel.RGB(0, 0, 0)

	wordsPerRow := vmdef.ScreenWidth / 16
	for row := 0; row < vmdef.ScreenHeight; row++ {
		for wordCol := 0; wordCol < wordsPerRow; wordCol++ {
			word := screen[row*wordsPerRow+wordCol]
			if word == 0 {
				continue
			}
			for bit := 0; bit < 16; bit++ {
				if word&(1<<uint(bit)) == 0 {
					continue
				}
				x := float64(wordCol*16+bit) * scale
				// Flip vertically: row 0 is the top of the Hack screen but
				// pixel's Y axis grows upward from the window's bottom.
				y := float64(vmdef.ScreenHeight-1-row) * scale
				imDraw.Push(pixel.V(x, y))
				imDraw.Push(pixel.V(x+scale, y+scale))
				imDraw.Rectangle(0)
			}
		}
	}

	imDraw.Draw(w)
	w.Update()
}

package stdlib

import "github.com/bradford-hamilton/hackvm/internal/vmdef"

func screenInit(vm VirtualMachine, _ State, _ []vmdef.Word) (Outcome, error) {
	vm.SetScreenColorBlack(true)
	return Done(0)
}

func screenClearScreen(vm VirtualMachine, _ State, _ []vmdef.Word) (Outcome, error) {
	for a := vmdef.ScreenStart; a <= vmdef.ScreenEnd; a++ {
		_ = vm.SetMem(a, 0)
	}
	return Done(0)
}

func screenSetColor(vm VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	vm.SetScreenColorBlack(args[0] != 0)
	return Done(0)
}

func inScreenBounds(x, y int) bool {
	return x >= 0 && x < vmdef.ScreenWidth && y >= 0 && y < vmdef.ScreenHeight
}

func putPixel(vm VirtualMachine, x, y int) error {
	if !inScreenBounds(x, y) {
		return &Error{Kind: ScreenIllegalCoords}
	}
	word := vmdef.ScreenStart + vmdef.Address((y*vmdef.ScreenWidth+x)>>4)
	bit := vmdef.Word(1 << uint(x&15))
	cur := vm.Mem(word)
	if vm.ScreenColorBlack() {
		_ = vm.SetMem(word, cur|bit)
	} else {
		_ = vm.SetMem(word, cur&^bit)
	}
	return nil
}

func screenDrawPixel(vm VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	if err := putPixel(vm, int(args[0]), int(args[1])); err != nil {
		return Outcome{}, err
	}
	return Done(0)
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// drawLineRaw walks from (x1,y1) to (x2,y2) using a Bresenham stepping
// scheme that always advances along whichever axis has the larger delta,
// emitting exactly one pixel per step.
func drawLineRaw(vm VirtualMachine, x1, y1, x2, y2 int) error {
	dx, dy := x2-x1, y2-y1
	adx, ady := abs(dx), abs(dy)
	sx, sy := sign(dx), sign(dy)

	x, y := x1, y1
	if adx >= ady {
		errAcc := adx / 2
		for i := 0; i <= adx; i++ {
			if err := putPixel(vm, x, y); err != nil {
				return err
			}
			errAcc -= ady
			if errAcc < 0 {
				y += sy
				errAcc += adx
			}
			x += sx
		}
	} else {
		errAcc := ady / 2
		for i := 0; i <= ady; i++ {
			if err := putPixel(vm, x, y); err != nil {
				return err
			}
			errAcc -= adx
			if errAcc < 0 {
				x += sx
				errAcc += ady
			}
			y += sy
		}
	}
	return nil
}

func screenDrawLine(vm VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	if err := drawLineRaw(vm, int(args[0]), int(args[1]), int(args[2]), int(args[3])); err != nil {
		return Outcome{}, err
	}
	return Done(0)
}

// screenDrawRectangle assumes x1<=x2 and y1<=y2 — the reference
// implementation does not normalise, and neither do we; callers must pass
// already-ordered coordinates.
func screenDrawRectangle(vm VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	x1, y1, x2, y2 := int(args[0]), int(args[1]), int(args[2]), int(args[3])
	if !inScreenBounds(x1, y1) || !inScreenBounds(x2, y2) {
		return Outcome{}, &Error{Kind: ScreenIllegalCoords}
	}

	wordsPerRow := vmdef.ScreenWidth >> 4
	firstWord := x1 >> 4
	lastWord := x2 >> 4
	black := vm.ScreenColorBlack()

	for y := y1; y <= y2; y++ {
		rowBase := vmdef.ScreenStart + vmdef.Address(y*wordsPerRow)
		for w := firstWord; w <= lastWord; w++ {
			mask := vmdef.Word(-1)
			if w == firstWord {
				mask &= vmdef.Word(^uint16(0) << uint(x1&15))
			}
			if w == lastWord {
				shift := uint(x2 & 15)
				mask &= vmdef.Word((uint16(1) << (shift + 1)) - 1)
			}
			addr := rowBase + vmdef.Address(w)
			cur := vm.Mem(addr)
			if black {
				_ = vm.SetMem(addr, cur|mask)
			} else {
				_ = vm.SetMem(addr, cur&^mask)
			}
		}
	}
	return Done(0)
}

func intSqrt(v int) int {
	if v <= 0 {
		return 0
	}
	lo, hi := 0, v
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if mid*mid <= v {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// screenDrawCircle uses a midpoint scanline sweep: for each dy from -r to
// r, compute the horizontal half-width via an integer sqrt and draw the
// two symmetric spans (one per iteration, matching the reference).
func screenDrawCircle(vm VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	cx, cy, r := int(args[0]), int(args[1]), int(args[2])

	for dy := -r; dy <= r; dy++ {
		dx := intSqrt(r*r - dy*dy)
		if err := drawLineRaw(vm, cx-dx, cy+dy, cx+dx, cy+dy); err != nil {
			return Outcome{}, err
		}
	}
	return Done(0)
}

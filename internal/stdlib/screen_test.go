package stdlib

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bradford-hamilton/hackvm/internal/vmdef"
)

func TestScreenDrawPixelSetsAndClearsBit(t *testing.T) {
	vm := newFakeVM()
	_, err := screenInit(vm, 0, nil) // color defaults to black

	require.NoError(t, err)

	_, err = screenDrawPixel(vm, 0, []vmdef.Word{3, 0})
	require.NoError(t, err)
	require.Equal(t, vmdef.Word(1<<3), vm.Mem(vmdef.ScreenStart))

	_, err = screenSetColor(vm, 0, []vmdef.Word{0})
	require.NoError(t, err)
	_, err = screenDrawPixel(vm, 0, []vmdef.Word{3, 0})
	require.NoError(t, err)
	require.Equal(t, vmdef.Word(0), vm.Mem(vmdef.ScreenStart))
}

func TestScreenDrawPixelOutOfBoundsErrors(t *testing.T) {
	vm := newFakeVM()
	_, err := screenDrawPixel(vm, 0, []vmdef.Word{vmdef.ScreenWidth, 0})
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, ScreenIllegalCoords, se.Kind)
}

func TestScreenClearScreenZeroesFramebuffer(t *testing.T) {
	vm := newFakeVM()
	_, _ = screenInit(vm, 0, nil)
	_, _ = screenDrawPixel(vm, 0, []vmdef.Word{0, 0})
	_, err := screenClearScreen(vm, 0, nil)
	require.NoError(t, err)
	require.Equal(t, vmdef.Word(0), vm.Mem(vmdef.ScreenStart))
}

func TestScreenDrawLineHorizontal(t *testing.T) {
	vm := newFakeVM()
	_, _ = screenInit(vm, 0, nil)
	_, err := screenDrawLine(vm, 0, []vmdef.Word{0, 0, 4, 0})
	require.NoError(t, err)

	word := vm.Mem(vmdef.ScreenStart)
	for x := 0; x <= 4; x++ {
		require.NotZero(t, word&(1<<uint(x)), "pixel %d should be set", x)
	}
}

func TestScreenDrawRectangleFillsInteriorRow(t *testing.T) {
	vm := newFakeVM()
	_, _ = screenInit(vm, 0, nil)
	_, err := screenDrawRectangle(vm, 0, []vmdef.Word{0, 0, 15, 0})
	require.NoError(t, err)
	require.Equal(t, vmdef.Word(-1), vm.Mem(vmdef.ScreenStart)) // all 16 bits set
}

func TestScreenDrawCircleIsSymmetric(t *testing.T) {
	vm := newFakeVM()
	_, _ = screenInit(vm, 0, nil)
	_, err := screenDrawCircle(vm, 0, []vmdef.Word{10, 10, 3})
	require.NoError(t, err)

	// The topmost scanline (y=7, a single pixel at x=10) should have its
	// bit set, and the bottommost (y=13) should mirror it exactly.
	wordOffset := (7*vmdef.ScreenWidth + 10) >> 4
	topWord := vm.Mem(vmdef.ScreenStart + vmdef.Address(wordOffset))
	require.NotZero(t, topWord)

	bottomOffset := (13*vmdef.ScreenWidth + 10) >> 4
	bottomWord := vm.Mem(vmdef.ScreenStart + vmdef.Address(bottomOffset))
	require.Equal(t, topWord, bottomWord)
}

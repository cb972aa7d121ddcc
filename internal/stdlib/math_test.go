package stdlib

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bradford-hamilton/hackvm/internal/vmdef"
)

// fakeVM is a minimal stdlib.VirtualMachine backed by a plain array, used to
// unit test builtins without going through the interpreter's call/return
// machinery.
type fakeVM struct {
	mem                                             [vmdef.MemSize]vmdef.Word
	sp                                               vmdef.Word
	calls                                            []string
	screenBlack                                      bool
	cursorAddr, cursorWordInLine, cursorFirstInWord int
	// keyQueue, when non-empty, supplies successive "pressed key" values
	// to a simulated Keyboard.readChar so tests can drive a multi-tick
	// caller (e.g. Keyboard.readLine) through a scripted sequence of
	// keystrokes without going through the real interpreter.
	keyQueue []vmdef.Word
}

func newFakeVM() *fakeVM {
	return &fakeVM{sp: vmdef.Word(vmdef.StackStart)}
}

func (f *fakeVM) Mem(addr vmdef.Address) vmdef.Word { return f.mem[addr] }

func (f *fakeVM) SetMem(addr vmdef.Address, v vmdef.Word) error {
	f.mem[addr] = v
	return nil
}

func (f *fakeVM) Push(v vmdef.Word) error {
	f.mem[f.sp] = v
	f.sp++
	return nil
}

func (f *fakeVM) Pop() (vmdef.Word, error) {
	f.sp--
	return f.mem[f.sp], nil
}

func (f *fakeVM) Call(name string, args []vmdef.Word) error {
	f.calls = append(f.calls, name)
	// Only the builtins this package's tests actually call back into need
	// real behaviour here; everything else just records the call.
	switch name {
	case "Memory.alloc":
		out, err := memoryAlloc(f, 0, args)
		if err != nil {
			return err
		}
		return f.Push(out.Value)
	case "Memory.deAlloc":
		out, err := memoryDeAlloc(f, 0, args)
		if err != nil {
			return err
		}
		return f.Push(out.Value)
	case "Keyboard.readChar":
		if len(f.keyQueue) == 0 {
			return f.Push(0)
		}
		k := f.keyQueue[0]
		f.keyQueue = f.keyQueue[1:]
		return f.Push(k)
	}
	return f.Push(0)
}

func (f *fakeVM) ScreenColorBlack() bool      { return f.screenBlack }
func (f *fakeVM) SetScreenColorBlack(b bool)  { f.screenBlack = b }
func (f *fakeVM) Cursor() (int, int, int) {
	return f.cursorAddr, f.cursorWordInLine, f.cursorFirstInWord
}
func (f *fakeVM) SetCursor(a, w, fw int) {
	f.cursorAddr, f.cursorWordInLine, f.cursorFirstInWord = a, w, fw
}

func TestMathDivideByZero(t *testing.T) {
	vm := newFakeVM()
	_, err := mathDivide(vm, 0, []vmdef.Word{10, 0})
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, MathDivideByZero, se.Kind)
	require.Equal(t, "Division by zero", se.Error())
}

func TestMathDivide(t *testing.T) {
	vm := newFakeVM()
	outcome, err := mathDivide(vm, 0, []vmdef.Word{17, 5})
	require.NoError(t, err)
	require.Equal(t, Finished, outcome.Kind)
	require.Equal(t, vmdef.Word(3), outcome.Value)
}

func TestMathSqrt(t *testing.T) {
	vm := newFakeVM()
	outcome, err := mathSqrt(vm, 0, []vmdef.Word{17})
	require.NoError(t, err)
	require.Equal(t, vmdef.Word(4), outcome.Value)

	_, err = mathSqrt(vm, 0, []vmdef.Word{-1})
	require.Error(t, err)
}

func TestMemoryAllocatorRoundTrip(t *testing.T) {
	vm := newFakeVM()
	_, err := memoryInit(vm, 0, nil)
	require.NoError(t, err)

	out1, err := memoryAlloc(vm, 0, []vmdef.Word{10})
	require.NoError(t, err)
	ptr1 := out1.Value

	out2, err := memoryAlloc(vm, 0, []vmdef.Word{20})
	require.NoError(t, err)
	ptr2 := out2.Value
	require.NotEqual(t, ptr1, ptr2)

	_, err = memoryDeAlloc(vm, 0, []vmdef.Word{ptr1})
	require.NoError(t, err)

	// The freed block should be reusable by a subsequent allocation no
	// larger than it was.
	out3, err := memoryAlloc(vm, 0, []vmdef.Word{8})
	require.NoError(t, err)
	require.Equal(t, ptr1, out3.Value)
}

func TestMemoryAllocNonPositiveSize(t *testing.T) {
	vm := newFakeVM()
	_, _ = memoryInit(vm, 0, nil)
	_, err := memoryAlloc(vm, 0, []vmdef.Word{0})
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, MemoryAllocNonPositiveSize, se.Kind)
}

func TestArrayNewAllocatesThroughMemory(t *testing.T) {
	vm := newFakeVM()
	_, _ = memoryInit(vm, 0, nil)

	outcome, err := arrayNew(vm, 0, []vmdef.Word{5})
	require.NoError(t, err)
	require.Equal(t, ContinueInNextStep, outcome.Kind)

	outcome, err = arrayNew(vm, outcome.State, []vmdef.Word{5})
	require.NoError(t, err)
	require.Equal(t, Finished, outcome.Kind)
	require.NotZero(t, outcome.Value)
}

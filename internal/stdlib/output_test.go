package stdlib

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bradford-hamilton/hackvm/internal/vmdef"
)

func TestOutputInitSetsHomeCursor(t *testing.T) {
	vm := newFakeVM()
	_, err := outputInit(vm, 0, nil)
	require.NoError(t, err)

	addr, wordInLine, firstInWord := vm.Cursor()
	require.Equal(t, int(vmdef.ScreenStart), addr)
	require.Equal(t, 0, wordInLine)
	require.Equal(t, 1, firstInWord)
}

func TestOutputPrintCharDrawsGlyphAndAdvancesCursor(t *testing.T) {
	vm := newFakeVM()
	_, _ = outputInit(vm, 0, nil)

	before, _, _ := vm.Cursor()
	outcome, err := outputPrintChar(vm, 0, []vmdef.Word{'A'})
	require.NoError(t, err)
	require.Equal(t, Finished, outcome.Kind)
	require.Equal(t, vmdef.Word('A'), outcome.Value)

	after, _, firstInWord := vm.Cursor()
	require.Equal(t, before, after) // same word, second half now
	require.Equal(t, 0, firstInWord)

	// The glyph should have written something non-zero into the top byte
	// of the first row of the cursor's word.
	require.NotZero(t, vm.Mem(vmdef.Address(before)))
}

func TestOutputMoveCursorRejectsOutOfRangePosition(t *testing.T) {
	vm := newFakeVM()
	_, err := outputMoveCursor(vm, 0, []vmdef.Word{-1, 0})
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, OutputMoveCursorIllegalPosition, se.Kind)
}

func TestOutputPrintCharNewlineMovesToNextRow(t *testing.T) {
	vm := newFakeVM()
	_, _ = outputInit(vm, 0, nil)
	before, _, _ := vm.Cursor()

	_, err := outputPrintChar(vm, 0, []vmdef.Word{vmdef.NewlineKey})
	require.NoError(t, err)

	after, wordInLine, firstInWord := vm.Cursor()
	require.NotEqual(t, before, after)
	require.Equal(t, 0, wordInLine)
	require.Equal(t, 1, firstInWord)
}

func TestOutputPrintlnCallsPrintCharWithNewline(t *testing.T) {
	vm := newFakeVM()
	outcome, err := outputPrintln(vm, 0, nil)
	require.NoError(t, err)
	require.Equal(t, ContinueInNextStep, outcome.Kind)
	require.Contains(t, vm.calls, "Output.printChar")

	outcome, err = outputPrintln(vm, outcome.State, nil)
	require.NoError(t, err)
	require.Equal(t, Finished, outcome.Kind)
}

func TestOutputPrintIntFormatsNegativeNumbers(t *testing.T) {
	vm := newFakeVM()
	state := State(EncodeState(0, 0))
	var err error
	var outcome Outcome
	for i := 0; i < 10; i++ {
		outcome, err = outputPrintInt(vm, state, []vmdef.Word{-42})
		require.NoError(t, err)
		if outcome.Kind == Finished {
			break
		}
		state = outcome.State
		require.NoError(t, err)
		// ticks alternate: one issues an Output.printChar call, the next
		// pops its result and moves to the following character
	}
	require.Equal(t, Finished, outcome.Kind)
	// "-42" is 3 characters; each was printed by one Output.printChar call.
	count := 0
	for _, c := range vm.calls {
		if c == "Output.printChar" {
			count++
		}
	}
	require.Equal(t, 3, count)
}

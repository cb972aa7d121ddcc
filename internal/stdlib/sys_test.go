package stdlib

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bradford-hamilton/hackvm/internal/vmdef"
)

func TestSysInitRunsBootSequenceInOrder(t *testing.T) {
	vm := newFakeVM()
	wantOrder := []string{
		"Memory.init", "Math.init", "Screen.init",
		"Output.init", "Keyboard.init", "Main.main", "Sys.halt",
	}

	state := State(0)
	for i := 0; i < len(wantOrder); i++ {
		outcome, err := sysInit(vm, state, nil)
		require.NoError(t, err)
		if i < len(wantOrder)-1 {
			require.Equal(t, ContinueInNextStep, outcome.Kind)
			state = outcome.State
		} else {
			require.Equal(t, Finished, outcome.Kind)
		}
	}
	require.Equal(t, wantOrder, vm.calls)
}

func TestSysHaltNeverFinishes(t *testing.T) {
	vm := newFakeVM()
	outcome, err := sysHalt(vm, 7, nil)
	require.NoError(t, err)
	require.Equal(t, ContinueInNextStep, outcome.Kind)
	require.Equal(t, State(7), outcome.State)
}

func TestSysErrorRaisesCode(t *testing.T) {
	vm := newFakeVM()
	_, err := sysError(vm, 0, []vmdef.Word{3})
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, SysErrorCode, se.Kind)
	require.Equal(t, vmdef.Word(3), se.Code)
}

func TestSysWaitNegativeDurationErrors(t *testing.T) {
	vm := newFakeVM()
	_, err := sysWait(vm, 0, []vmdef.Word{-1})
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, SysWaitNegativeDuration, se.Kind)
}

func TestSysWaitFinishesOnceDurationElapses(t *testing.T) {
	vm := newFakeVM()

	// duration = 1ms * 1000 = 1000 ticks.
	outcome, err := sysWait(vm, 999, []vmdef.Word{1})
	require.NoError(t, err)
	require.Equal(t, ContinueInNextStep, outcome.Kind)
	require.Equal(t, State(1000), outcome.State)

	outcome, err = sysWait(vm, 1000, []vmdef.Word{1})
	require.NoError(t, err)
	require.Equal(t, Finished, outcome.Kind)
	require.Equal(t, vmdef.Word(1), outcome.Value)
}

func TestSysWaitImmediateForTinyDuration(t *testing.T) {
	vm := newFakeVM()
	outcome, err := sysWait(vm, 0, []vmdef.Word{0})
	require.NoError(t, err)
	require.Equal(t, Finished, outcome.Kind)
}

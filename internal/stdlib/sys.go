package stdlib

import "github.com/bradford-hamilton/hackvm/internal/vmdef"

// sysInit runs the OS boot sequence as a chain of phases, each waiting for
// the previous call's Finished before issuing the next.
func sysInit(vm VirtualMachine, state State, _ []vmdef.Word) (Outcome, error) {
	switch state {
	case 0:
		return callThenContinue(vm, state, "Memory.init", nil)
	case 1:
		if _, err := vm.Pop(); err != nil {
			return Outcome{}, err
		}
		return callThenContinue(vm, state, "Math.init", nil)
	case 2:
		if _, err := vm.Pop(); err != nil {
			return Outcome{}, err
		}
		return callThenContinue(vm, state, "Screen.init", nil)
	case 3:
		if _, err := vm.Pop(); err != nil {
			return Outcome{}, err
		}
		return callThenContinue(vm, state, "Output.init", nil)
	case 4:
		if _, err := vm.Pop(); err != nil {
			return Outcome{}, err
		}
		return callThenContinue(vm, state, "Keyboard.init", nil)
	case 5:
		if _, err := vm.Pop(); err != nil {
			return Outcome{}, err
		}
		return callThenContinue(vm, state, "Main.main", nil)
	default:
		if _, err := vm.Pop(); err != nil {
			return Outcome{}, err
		}
		if err := vm.Call("Sys.halt", nil); err != nil {
			return Outcome{}, err
		}
		return Done(0)
	}
}

// sysHalt idles forever: it is not an error, just a continuation that
// never finishes.
func sysHalt(_ VirtualMachine, state State, _ []vmdef.Word) (Outcome, error) {
	return Again(state)
}

func sysError(_ VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	return Outcome{}, &Error{Kind: SysErrorCode, Code: args[0]}
}

// sysWait yields roughly ms*1000 ticks before finishing, which makes guest
// timing deterministic in step counts instead of wall-clock time.
func sysWait(_ VirtualMachine, state State, args []vmdef.Word) (Outcome, error) {
	ms := args[0]
	if ms < 0 {
		return Outcome{}, &Error{Kind: SysWaitNegativeDuration}
	}

	duration := int64(ms) * 1000

	if state == 0 {
		if duration < 2 {
			return Done(ms)
		}
		return Again(2)
	}

	if duration > int64(state) {
		return Again(state + 1)
	}

	return Done(ms)
}

package stdlib

import "github.com/bradford-hamilton/hackvm/internal/vmdef"

// Array is a thin wrapper over the Memory allocator: a Jack array is just a
// heap pointer with no header of its own.

func arrayNew(vm VirtualMachine, state State, args []vmdef.Word) (Outcome, error) {
	if args[0] <= 0 {
		return Outcome{}, &Error{Kind: ArrayNewNonPositiveSize}
	}
	switch state {
	case 0:
		return callThenContinue(vm, state, "Memory.alloc", args)
	case 1:
		addr, err := vm.Pop()
		if err != nil {
			return Outcome{}, err
		}
		return Done(addr)
	default:
		return Outcome{}, &Error{Kind: ContinuingFinishedFunction}
	}
}

func arrayDispose(vm VirtualMachine, state State, args []vmdef.Word) (Outcome, error) {
	switch state {
	case 0:
		return callThenContinue(vm, state, "Memory.deAlloc", args)
	case 1:
		addr, err := vm.Pop()
		if err != nil {
			return Outcome{}, err
		}
		return Done(addr)
	default:
		return Outcome{}, &Error{Kind: ContinuingFinishedFunction}
	}
}

package stdlib

import "github.com/bradford-hamilton/hackvm/internal/vmdef"

func keyboardInit(_ VirtualMachine, _ State, _ []vmdef.Word) (Outcome, error) {
	return Done(0)
}

func keyboardKeyPressed(vm VirtualMachine, _ State, _ []vmdef.Word) (Outcome, error) {
	return Done(vm.Mem(vmdef.KBD))
}

// keyboardReadChar waits for a key to go down then up before echoing it, so
// holding a key never repeats it. It stashes values across ticks on the
// VM's own execution stack rather than in its continuation state, since
// state is a single integer but more than one word needs to survive to the
// final tick; every push here is balanced by a pop before Finished.
func keyboardReadChar(vm VirtualMachine, state State, _ []vmdef.Word) (Outcome, error) {
	switch state {
	case 0:
		return callThenContinue(vm, state, "Output.printChar", []vmdef.Word{0})
	case 1:
		key := vm.Mem(vmdef.KBD)
		if key == 0 {
			return Again(state)
		}
		if err := vm.Push(key); err != nil {
			return Outcome{}, err
		}
		if err := vm.Push(key); err != nil {
			return Outcome{}, err
		}
		return Again(state + 1)
	case 2:
		if vm.Mem(vmdef.KBD) != 0 {
			return Again(state)
		}
		return Again(state + 1)
	case 3:
		return callThenContinue(vm, state, "Output.printChar", []vmdef.Word{vmdef.BackspaceKey})
	case 4:
		if _, err := vm.Pop(); err != nil {
			return Outcome{}, err
		}
		key, err := vm.Pop()
		if err != nil {
			return Outcome{}, err
		}
		return callThenContinue(vm, state, "Output.printChar", []vmdef.Word{key})
	default:
		if _, err := vm.Pop(); err != nil {
			return Outcome{}, err
		}
		key, err := vm.Pop()
		if err != nil {
			return Outcome{}, err
		}
		if _, err := vm.Pop(); err != nil {
			return Outcome{}, err
		}
		return Done(key)
	}
}

// keyboardReadLine prints a prompt then accumulates characters into a
// freshly allocated 80-character string until newline, honouring
// backspace. The string's address only needs to survive across ticks, not
// be recomputed, so once read off the stack it moves into the high bits of
// the continuation state; phase 0-2 instead pass values on the VM's own
// stack exactly like the nested builtins they call.
func keyboardReadLine(vm VirtualMachine, state State, args []vmdef.Word) (Outcome, error) {
	stringAddr, phase := DecodeState(state)
	line := vmdef.Word(stringAddr)

	switch phase {
	case 0:
		return callThenContinue2(vm, EncodeState(0, 1), "Output.printString", []vmdef.Word{args[0]})
	case 1:
		if _, err := vm.Pop(); err != nil {
			return Outcome{}, err
		}
		const maxLineLength = 80
		return callThenContinue2(vm, EncodeState(0, 2), "String.new", []vmdef.Word{maxLineLength})
	case 2:
		return callThenContinue2(vm, EncodeState(0, 3), "Keyboard.readChar", nil)
	case 3:
		c, err := vm.Pop()
		if err != nil {
			return Outcome{}, err
		}
		str, err := vm.Pop()
		if err != nil {
			return Outcome{}, err
		}
		if err := vm.Push(c); err != nil {
			return Outcome{}, err
		}
		return Again(EncodeState(int32(str), 4))
	case 4:
		c, err := vm.Pop()
		if err != nil {
			return Outcome{}, err
		}
		switch c {
		case vmdef.NewlineKey:
			return Done(line)
		case vmdef.BackspaceKey:
			if err := vm.Call("String.eraseLastChar", []vmdef.Word{line}); err != nil {
				return Outcome{}, err
			}
			return Again(EncodeState(stringAddr, 5))
		default:
			if err := vm.Call("String.appendChar", []vmdef.Word{line, c}); err != nil {
				return Outcome{}, err
			}
			return Again(EncodeState(stringAddr, 5))
		}
	case 5:
		if _, err := vm.Pop(); err != nil {
			return Outcome{}, err
		}
		return callThenContinue2(vm, EncodeState(stringAddr, 4), "Keyboard.readChar", nil)
	default:
		return Outcome{}, &Error{Kind: ContinuingFinishedFunction}
	}
}

func keyboardReadInt(vm VirtualMachine, state State, args []vmdef.Word) (Outcome, error) {
	switch state {
	case 0:
		return callThenContinue(vm, state, "Keyboard.readLine", args)
	case 1:
		line, err := vm.Pop()
		if err != nil {
			return Outcome{}, err
		}
		return callThenContinue(vm, state, "String.intValue", []vmdef.Word{line})
	default:
		val, err := vm.Pop()
		if err != nil {
			return Outcome{}, err
		}
		return Done(val)
	}
}

package stdlib

import (
	"strconv"

	"github.com/bradford-hamilton/hackvm/internal/vmdef"
)

// A Jack string is laid out as [capacity, length, c0, c1, ...] directly in
// the heap: two header words followed by up to capacity character cells.

func stringNew(vm VirtualMachine, state State, args []vmdef.Word) (Outcome, error) {
	maxLen := args[0]
	switch state {
	case 0:
		if maxLen < 0 {
			return Outcome{}, &Error{Kind: StringNewNegativeLength}
		}
		return callThenContinue(vm, state, "Memory.alloc", []vmdef.Word{maxLen + 2})
	case 1:
		addr, err := vm.Pop()
		if err != nil {
			return Outcome{}, err
		}
		_ = vm.SetMem(vmdef.Address(addr), maxLen)
		_ = vm.SetMem(vmdef.Address(addr)+1, 0)
		return Done(addr)
	default:
		return Outcome{}, &Error{Kind: ContinuingFinishedFunction}
	}
}

func stringDispose(vm VirtualMachine, state State, args []vmdef.Word) (Outcome, error) {
	switch state {
	case 0:
		return callThenContinue(vm, state, "Memory.deAlloc", args)
	case 1:
		if _, err := vm.Pop(); err != nil {
			return Outcome{}, err
		}
		return Done(0)
	default:
		return Outcome{}, &Error{Kind: ContinuingFinishedFunction}
	}
}

func stringLength(vm VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	this := vmdef.Address(args[0])
	return Done(vm.Mem(this + 1))
}

func stringCharAt(vm VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	this := vmdef.Address(args[0])
	idx := args[1]
	length := vm.Mem(this + 1)
	if idx < 0 || idx >= length {
		return Outcome{}, &Error{Kind: StringCharAtIllegalIndex}
	}
	return Done(vm.Mem(this + 2 + vmdef.Address(idx)))
}

func stringSetCharAt(vm VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	this := vmdef.Address(args[0])
	idx := args[1]
	c := args[2]
	length := vm.Mem(this + 1)
	if idx < 0 || idx >= length {
		return Outcome{}, &Error{Kind: StringSetCharAtIllegalIndex}
	}
	_ = vm.SetMem(this+2+vmdef.Address(idx), c)
	return Done(0)
}

func stringAppendChar(vm VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	this := vmdef.Address(args[0])
	c := args[1]
	capacity := vm.Mem(this)
	length := vm.Mem(this + 1)
	if length >= capacity {
		return Outcome{}, &Error{Kind: StringAppendCharFull}
	}
	_ = vm.SetMem(this+2+vmdef.Address(length), c)
	_ = vm.SetMem(this+1, length+1)
	return Done(vmdef.Word(this))
}

func stringEraseLastChar(vm VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	this := vmdef.Address(args[0])
	length := vm.Mem(this + 1)
	if length <= 0 {
		return Outcome{}, &Error{Kind: StringEraseLastCharEmpty}
	}
	_ = vm.SetMem(this+1, length-1)
	return Done(0)
}

func stringIntValue(vm VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	this := vmdef.Address(args[0])
	length := int(vm.Mem(this + 1))

	i := 0
	neg := false
	if length > 0 && vm.Mem(this+2) == '-' {
		neg = true
		i = 1
	}

	val := 0
	for ; i < length; i++ {
		c := vm.Mem(this + 2 + vmdef.Address(i))
		if c < '0' || c > '9' {
			break
		}
		val = val*10 + int(c-'0')
	}
	if neg {
		val = -val
	}
	return Done(vmdef.Word(int16(val)))
}

func stringSetInt(vm VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	this := vmdef.Address(args[0])
	val := args[1]
	capacity := int(vm.Mem(this))

	digits := strconv.Itoa(int(val))
	if len(digits) > capacity {
		return Outcome{}, &Error{Kind: StringSetIntInsufficientCapacity}
	}

	for i, ch := range digits {
		_ = vm.SetMem(this+2+vmdef.Address(i), vmdef.Word(ch))
	}
	_ = vm.SetMem(this+1, vmdef.Word(len(digits)))
	return Done(0)
}

func stringBackSpace(_ VirtualMachine, _ State, _ []vmdef.Word) (Outcome, error) {
	return Done(vmdef.BackspaceKey)
}

func stringNewLine(_ VirtualMachine, _ State, _ []vmdef.Word) (Outcome, error) {
	return Done(vmdef.NewlineKey)
}

func stringDoubleQuote(_ VirtualMachine, _ State, _ []vmdef.Word) (Outcome, error) {
	return Done(vmdef.DoubleQuoteKey)
}

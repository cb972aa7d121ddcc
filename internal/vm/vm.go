// Package vm is the interpreter core: it owns the 16-bit memory array, the
// call stack, and the step() loop that advances a loaded program by exactly
// one unit of progress (one bytecode instruction, or one builtin
// continuation tick) per call.
package vm

import (
	"fmt"

	"github.com/bradford-hamilton/hackvm/internal/bytecode"
	"github.com/bradford-hamilton/hackvm/internal/callstack"
	"github.com/bradford-hamilton/hackvm/internal/stdlib"
	"github.com/bradford-hamilton/hackvm/internal/vmdef"
)

// VM is one running emulator instance. Screen color and the output cursor
// live here, not as package globals, so multiple VMs never share state.
type VM struct {
	memory  [vmdef.MemSize]vmdef.Word
	program []bytecode.Instruction
	meta    *bytecode.MetaInfo
	stdlib  *stdlib.Registry
	calls   *callstack.Stack

	pc             int
	pendingSysInit bool
	halted         bool

	screenBlack                                      bool
	cursorAddr, cursorWordInLine, cursorFirstInWord  int
}

// New builds a VM bound to a fixed builtin registry. Call Load before Step.
func New(registry *stdlib.Registry) *VM {
	return &VM{stdlib: registry, calls: callstack.New()}
}

// Load installs a parsed program and resets all machine state: memory is
// zeroed, SP is set to InitSP, and the call stack is rebuilt. If the
// program defines Main.main (ParsedProgram.HasSysInit), the first Step()
// call performs the implicit call to Sys.init instead of starting execution
// at instruction 0 directly.
func (vm *VM) Load(program *bytecode.ParsedProgram) {
	vm.memory = [vmdef.MemSize]vmdef.Word{}
	vm.program = program.Instructions
	vm.meta = program.Meta
	vm.calls = callstack.New()
	vm.pc = 0
	vm.halted = false
	vm.screenBlack = false
	vm.cursorAddr, vm.cursorWordInLine, vm.cursorFirstInWord = int(vmdef.ScreenStart), 0, 1
	vm.memory[vmdef.SP] = vmdef.Word(vmdef.InitSP)
	vm.pendingSysInit = program.HasSysInit

	if !program.HasSysInit {
		vm.calls.Push(callstack.Entry{
			State:  callstack.State{Kind: callstack.VM},
			Return: callstack.ReturnAddress{Kind: callstack.EndOfProgram},
		})
	}
}

// Halted reports whether the program has run to completion (its top-level
// frame returned, or Sys.halt has not been reached because there never was
// one — the loop simply has nowhere left to go).
func (vm *VM) Halted() bool {
	return vm.halted
}

// CallStackNames returns the current call stack, bottom first, for
// diagnostics and trace front-ends.
func (vm *VM) CallStackNames() []string {
	return vm.calls.Names()
}

// Display returns the live screen segment of memory, one word per 16
// horizontal pixels, LSB-first within a row (bit 0 is the leftmost pixel).
func (vm *VM) Display() []vmdef.Word {
	return vm.memory[vmdef.ScreenStart : vmdef.ScreenEnd+1]
}

// SetInputKey writes the code the front-end currently has pressed (or 0)
// into the keyboard register, exactly as a real Hack keyboard peripheral
// would.
func (vm *VM) SetInputKey(code vmdef.Word) {
	vm.memory[vmdef.KBD] = code
}

// Step advances the machine by exactly one unit of progress: the pending
// Sys.init call, one builtin continuation tick, or one bytecode
// instruction. It is a no-op once the program has halted.
func (vm *VM) Step() error {
	if vm.halted {
		return nil
	}

	if vm.pendingSysInit {
		vm.pendingSysInit = false
		// Bytecode overriding Sys.init takes precedence (meta always has an
		// entry for it in that case); otherwise fall back to the native
		// registry, which a parser built without a stdlib descriptor never
		// taught the meta info about.
		addr, ok := vm.meta.AddrOf("Sys.init")
		if !ok {
			addr, ok = vm.stdlib.AddrOf("Sys.init")
		}
		if !ok {
			return &Error{Kind: NonExistingStdlibFunction, Detail: "Sys.init"}
		}
		return vm.performCall(addr, 0, callstack.ReturnAddress{Kind: callstack.EndOfProgram})
	}

	idx := vm.calls.Len() - 1
	if idx < 0 {
		return &Error{Kind: AccessingEmptyCallStack}
	}
	top := vm.calls.EntryAt(idx)

	switch top.State.Kind {
	case callstack.TopLevel:
		vm.halted = true
		return nil
	case callstack.Builtin:
		return vm.tickBuiltin(idx, top)
	case callstack.VM:
		return vm.execute()
	default:
		return &Error{Kind: IllegalCallStackIndex, Detail: "unrecognized frame kind"}
	}
}

// tickBuiltin runs one continuation tick of the builtin frame at idx. idx is
// captured by the caller before dispatch, since the tick itself may push a
// nested frame (a bytecode override, or another builtin it calls through
// Call) that leaves this frame no longer on top of the stack.
func (vm *VM) tickBuiltin(idx int, entry callstack.Entry) error {
	addr, ok := vm.stdlib.AddrOf(entry.State.BuiltinName)
	if !ok {
		return &Error{Kind: NonExistingStdlibFunction, Detail: entry.State.BuiltinName}
	}

	outcome, err, ok := vm.stdlib.Dispatch(addr, vm, stdlib.State(entry.State.BuiltinState), entry.State.BuiltinArgs)
	if !ok {
		return &Error{Kind: NonExistingStdlibFunction, Detail: entry.State.BuiltinName}
	}
	if err != nil {
		return err
	}

	if outcome.Kind == stdlib.ContinueInNextStep {
		vm.calls.SetBuiltinState(idx, int64(outcome.State))
		return nil
	}

	// This tick may itself have pushed a nested frame on top of idx (a
	// tail call into another builtin, e.g. Sys.init finishing by calling
	// Sys.halt, or into bytecode). That is a genuine tail call: the nested
	// frame replaces this one and owns both the eventual result and how
	// control continues, so this frame's own outcome is superseded and
	// must not be pushed, and Return must not fire, when idx's frame is
	// no longer the one on top.
	tailPushed := vm.calls.Len() > idx+1
	popped, ok := vm.calls.RemoveAt(idx)
	if !ok {
		return &Error{Kind: AccessingEmptyCallStack}
	}
	if tailPushed {
		return nil
	}
	if err := vm.Push(outcome.Value); err != nil {
		return err
	}
	vm.resumeAfterPop(popped.Return)
	return nil
}

// execute runs exactly one bytecode instruction from the current top VM
// frame.
func (vm *VM) execute() error {
	if vm.pc < 0 || vm.pc >= len(vm.program) {
		return &Error{Kind: IllegalProgramCounter, Detail: fmt.Sprintf("pc=%d", vm.pc)}
	}
	instr := vm.program[vm.pc]

	switch instr.Op {
	case bytecode.Add:
		return vm.binary(func(a, b int32) int32 { return a + b })
	case bytecode.Sub:
		return vm.binary(func(a, b int32) int32 { return a - b })
	case bytecode.And:
		return vm.binary(func(a, b int32) int32 { return a & b })
	case bytecode.Or:
		return vm.binary(func(a, b int32) int32 { return a | b })
	case bytecode.Eq:
		return vm.compare(func(a, b int32) bool { return a == b })
	case bytecode.Gt:
		return vm.compare(func(a, b int32) bool { return a > b })
	case bytecode.Lt:
		return vm.compare(func(a, b int32) bool { return a < b })
	case bytecode.Not:
		return vm.unary(func(a int32) int32 { return ^a })
	case bytecode.Neg:
		return vm.unary(func(a int32) int32 { return -a })
	case bytecode.Push:
		return vm.execPush(instr)
	case bytecode.Pop:
		return vm.execPop(instr)
	case bytecode.Goto:
		vm.pc = instr.Target
		return nil
	case bytecode.IfGoto:
		return vm.execIfGoto(instr)
	case bytecode.Function:
		return vm.execFunction(instr)
	case bytecode.Call:
		return vm.performCall(instr.FuncAddr, instr.NArgs, callstack.ReturnAddress{Kind: callstack.VMReturn, PC: vm.pc + 1})
	case bytecode.Return:
		return vm.execReturn()
	default:
		return &Error{Kind: IllegalProgramCounter, Detail: fmt.Sprintf("unknown opcode %d", instr.Op)}
	}
}

func (vm *VM) binary(op func(a, b int32) int32) error {
	b, err := vm.Pop()
	if err != nil {
		return err
	}
	a, err := vm.Pop()
	if err != nil {
		return err
	}
	if err := vm.Push(vmdef.Word(int16(op(int32(a), int32(b))))); err != nil {
		return err
	}
	vm.pc++
	return nil
}

func (vm *VM) compare(op func(a, b int32) bool) error {
	b, err := vm.Pop()
	if err != nil {
		return err
	}
	a, err := vm.Pop()
	if err != nil {
		return err
	}
	result := vmdef.Word(0)
	if op(int32(a), int32(b)) {
		result = -1
	}
	if err := vm.Push(result); err != nil {
		return err
	}
	vm.pc++
	return nil
}

func (vm *VM) unary(op func(a int32) int32) error {
	a, err := vm.Pop()
	if err != nil {
		return err
	}
	if err := vm.Push(vmdef.Word(int16(op(int32(a))))); err != nil {
		return err
	}
	vm.pc++
	return nil
}

func (vm *VM) execPush(instr bytecode.Instruction) error {
	v, err := vm.value(instr.Seg, instr.Index)
	if err != nil {
		return err
	}
	if err := vm.Push(v); err != nil {
		return err
	}
	vm.pc++
	return nil
}

func (vm *VM) execPop(instr bytecode.Instruction) error {
	addr, err := vm.address(instr.Seg, instr.Index)
	if err != nil {
		return err
	}
	v, err := vm.Pop()
	if err != nil {
		return err
	}
	if err := vm.SetMem(addr, v); err != nil {
		return err
	}
	vm.pc++
	return nil
}

func (vm *VM) execIfGoto(instr bytecode.Instruction) error {
	v, err := vm.Pop()
	if err != nil {
		return err
	}
	if v != 0 {
		vm.pc = instr.Target
	} else {
		vm.pc++
	}
	return nil
}

func (vm *VM) execFunction(instr bytecode.Instruction) error {
	for i := 0; i < instr.NLocals; i++ {
		if err := vm.Push(0); err != nil {
			return err
		}
	}
	vm.pc++
	return nil
}

// performCall implements both call paths of the interpreter: a stdlib
// virtual address dispatches straight into a builtin frame (args are
// consumed off the stack into a Go slice), while a bytecode address builds
// the classic five-word saved-register frame and jumps pc there. It serves
// three callers: the Call bytecode instruction, the synthesized call to
// Sys.init at boot, and builtin code calling back into the VM via Call.
func (vm *VM) performCall(addr int, nargs int, ret callstack.ReturnAddress) error {
	if stdlib.IsStdlibAddr(addr) {
		args := make([]vmdef.Word, nargs)
		for i := nargs - 1; i >= 0; i-- {
			v, err := vm.Pop()
			if err != nil {
				return err
			}
			args[i] = v
		}
		name, ok := vm.stdlib.NameAt(addr)
		if !ok {
			return &Error{Kind: NonExistingStdlibFunction, Detail: fmt.Sprintf("addr=%d", addr)}
		}
		idx := vm.calls.Len()
		vm.calls.Push(callstack.Entry{
			Return:   ret,
			Function: name,
			State:    callstack.State{Kind: callstack.Builtin, BuiltinName: name, BuiltinArgs: args},
		})
		return vm.tickBuiltin(idx, vm.calls.EntryAt(idx))
	}

	name := ""
	if info, ok := vm.meta.FunctionAt(addr); ok {
		name = info.Name
	}

	// The saved-pc slot matches the classic Hack VM frame layout for
	// fidelity, but nothing reads it back: control resumes via the call
	// stack's own Return field, which stays in lockstep with this frame
	// because every push here is paired with exactly one pop in
	// execReturn/tickBuiltin.
	savedPC := 0
	if ret.Kind == callstack.VMReturn {
		savedPC = ret.PC
	}
	if err := vm.Push(vmdef.Word(savedPC)); err != nil {
		return err
	}
	if err := vm.Push(vm.Mem(vmdef.LCL)); err != nil {
		return err
	}
	if err := vm.Push(vm.Mem(vmdef.ARG)); err != nil {
		return err
	}
	if err := vm.Push(vm.Mem(vmdef.THIS)); err != nil {
		return err
	}
	if err := vm.Push(vm.Mem(vmdef.THAT)); err != nil {
		return err
	}

	sp := int(vm.Mem(vmdef.SP))
	newArg := vmdef.Word(sp - nargs - 5)
	newLcl := vmdef.Word(sp)
	if err := vm.SetMem(vmdef.ARG, newArg); err != nil {
		return err
	}
	if err := vm.SetMem(vmdef.LCL, newLcl); err != nil {
		return err
	}

	vm.calls.Push(callstack.Entry{
		Return:      ret,
		Function:    name,
		State:       callstack.State{Kind: callstack.VM},
		BasePointer: vmdef.Address(newLcl),
		ArgPointer:  vmdef.Address(newArg),
	})
	vm.pc = addr
	return nil
}

func (vm *VM) execReturn() error {
	frame := int(vm.Mem(vmdef.LCL))
	savedArg := vm.Mem(vmdef.ARG)

	retVal, err := vm.Pop()
	if err != nil {
		return err
	}
	if err := vm.SetMem(vmdef.Address(savedArg), retVal); err != nil {
		return err
	}

	that := vm.Mem(vmdef.Address(frame - 1))
	this := vm.Mem(vmdef.Address(frame - 2))
	arg := vm.Mem(vmdef.Address(frame - 3))
	lcl := vm.Mem(vmdef.Address(frame - 4))

	vm.memory[vmdef.SP] = savedArg + 1
	if err := vm.SetMem(vmdef.THAT, that); err != nil {
		return err
	}
	if err := vm.SetMem(vmdef.THIS, this); err != nil {
		return err
	}
	if err := vm.SetMem(vmdef.ARG, arg); err != nil {
		return err
	}
	if err := vm.SetMem(vmdef.LCL, lcl); err != nil {
		return err
	}

	popped, ok := vm.calls.Pop()
	if !ok {
		return &Error{Kind: AccessingEmptyCallStack}
	}
	vm.resumeAfterPop(popped.Return)
	return nil
}

// resumeAfterPop applies the control-transfer side of popping a frame. It
// never touches the stack itself: VM-return frames already left the return
// value in place via execReturn's register arithmetic, and builtin-finish
// frames push it separately in tickBuiltin.
func (vm *VM) resumeAfterPop(ret callstack.ReturnAddress) {
	switch ret.Kind {
	case callstack.EndOfProgram:
		vm.halted = true
	case callstack.VMReturn:
		vm.pc = ret.PC
	case callstack.BuiltinReturn:
		// The builtin that called back into the VM is now on top again;
		// the next Step() resumes its continuation naturally.
	}
}

func (vm *VM) address(seg bytecode.Segment, index int) (vmdef.Address, error) {
	switch seg {
	case bytecode.Constant:
		return 0, &Error{Kind: CannotGetAddressOfConstant}
	case bytecode.Local:
		return vmdef.Address(int(vm.Mem(vmdef.LCL)) + index), nil
	case bytecode.Argument:
		return vmdef.Address(int(vm.Mem(vmdef.ARG)) + index), nil
	case bytecode.This:
		return vmdef.Address(int(vm.Mem(vmdef.THIS)) + index), nil
	case bytecode.That:
		return vmdef.Address(int(vm.Mem(vmdef.THAT)) + index), nil
	case bytecode.Temp:
		return vmdef.TempStart + vmdef.Address(index), nil
	case bytecode.Pointer:
		return vmdef.THIS + vmdef.Address(index), nil
	case bytecode.Static:
		return vmdef.Address(index), nil
	default:
		return 0, &Error{Kind: IllegalMemoryAddress, Detail: fmt.Sprintf("unknown segment %v", seg)}
	}
}

func (vm *VM) value(seg bytecode.Segment, index int) (vmdef.Word, error) {
	if seg == bytecode.Constant {
		return vmdef.Word(index), nil
	}
	addr, err := vm.address(seg, index)
	if err != nil {
		return 0, err
	}
	return vm.Mem(addr), nil
}

// Mem, SetMem, Push and Pop also satisfy stdlib.VirtualMachine, the seam
// builtins use to read and mutate guest state without importing this
// package directly.

func (vm *VM) Mem(addr vmdef.Address) vmdef.Word {
	if addr < 0 || int(addr) >= vmdef.MemSize {
		return 0
	}
	return vm.memory[addr]
}

func (vm *VM) SetMem(addr vmdef.Address, v vmdef.Word) error {
	if addr < 0 || int(addr) >= vmdef.MemSize {
		return &Error{Kind: IllegalMemoryAddress, Detail: fmt.Sprintf("addr=%d", addr)}
	}
	vm.memory[addr] = v
	return nil
}

func (vm *VM) Push(v vmdef.Word) error {
	sp := vm.Mem(vmdef.SP)
	if sp < vmdef.Word(vmdef.StackStart) || sp > vmdef.Word(vmdef.StackEnd) {
		return &Error{Kind: IllegalMemoryAddress, Detail: fmt.Sprintf("stack overflow at sp=%d", sp)}
	}
	if err := vm.SetMem(vmdef.Address(sp), v); err != nil {
		return err
	}
	vm.memory[vmdef.SP] = sp + 1
	return nil
}

func (vm *VM) Pop() (vmdef.Word, error) {
	sp := vm.Mem(vmdef.SP) - 1
	if sp < vmdef.Word(vmdef.StackStart) {
		return 0, &Error{Kind: IllegalMemoryAddress, Detail: fmt.Sprintf("stack underflow at sp=%d", sp+1)}
	}
	v := vm.Mem(vmdef.Address(sp))
	vm.memory[vmdef.SP] = sp
	return v, nil
}

func (vm *VM) Call(name string, args []vmdef.Word) error {
	addr, ok := vm.meta.AddrOf(name)
	if !ok {
		addr, ok = vm.stdlib.AddrOf(name)
	}
	if !ok {
		return &Error{Kind: NonExistingStdlibFunction, Detail: name}
	}
	for _, a := range args {
		if err := vm.Push(a); err != nil {
			return err
		}
	}
	return vm.performCall(addr, len(args), callstack.ReturnAddress{Kind: callstack.BuiltinReturn})
}

func (vm *VM) ScreenColorBlack() bool {
	return vm.screenBlack
}

func (vm *VM) SetScreenColorBlack(black bool) {
	vm.screenBlack = black
}

func (vm *VM) Cursor() (address, wordInLine, firstInWord int) {
	return vm.cursorAddr, vm.cursorWordInLine, vm.cursorFirstInWord
}

func (vm *VM) SetCursor(address, wordInLine, firstInWord int) {
	vm.cursorAddr, vm.cursorWordInLine, vm.cursorFirstInWord = address, wordInLine, firstInWord
}

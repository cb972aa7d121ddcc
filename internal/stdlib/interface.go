// Package stdlib implements the Jack-OS builtins (Math, Memory, String,
// Array, Screen, Output, Keyboard, Sys) as resumable native functions,
// plus the registry that assigns each one a virtual call address.
package stdlib

import "github.com/bradford-hamilton/hackvm/internal/vmdef"

// VirtualMachine is the capability interface builtins receive instead of a
// concrete *vm.VM. It breaks the physical cycle between the interpreter and
// the stdlib (the interpreter dispatches into builtins; builtins call back
// into the interpreter) and makes builtins unit-testable against a fake.
type VirtualMachine interface {
	Mem(addr vmdef.Address) vmdef.Word
	SetMem(addr vmdef.Address, v vmdef.Word) error
	Push(v vmdef.Word) error
	Pop() (vmdef.Word, error)
	// Call invokes another function (bytecode or builtin) by name as if a
	// `call name nargs` instruction had executed, consuming len(args)
	// arguments the caller is responsible for having already pushed is
	// NOT required here — Call pushes args itself. If name resolves to a
	// builtin, only its first tick runs inside Call: if that tick
	// finishes, the result is already on the stack when Call returns; if
	// it continues, the builtin's frame stays on top of the call stack and
	// later steps tick it until it finishes. If name resolves to bytecode,
	// a frame is pushed and Call returns immediately. In both cases the
	// caller must yield (ContinueInNextStep) and pick the result up from
	// the stack on its next tick.
	Call(name string, args []vmdef.Word) error

	// Process-wide stdlib runtime state, owned by the VM instance rather
	// than ambient globals so multiple VMs never interfere.
	ScreenColorBlack() bool
	SetScreenColorBlack(black bool)
	Cursor() (address, wordInLine, firstInWord int)
	SetCursor(address, wordInLine, firstInWord int)
}

// State is the resumable continuation state a builtin's call frame carries
// between ticks. Builtins that need to remember a payload across ticks (a
// string address, a loop counter) pack it into the high 32 bits and keep
// the phase counter in the low 32 bits.
type State int64

// EncodeState packs a payload and a phase into one continuation state.
func EncodeState(payload int32, phase int32) State {
	return State(int64(payload)<<32 | int64(uint32(phase)))
}

// DecodeState unpacks a state produced by EncodeState.
func DecodeState(s State) (payload int32, phase int32) {
	return int32(int64(s) >> 32), int32(int64(s))
}

// OutcomeKind tags what a builtin tick produced.
type OutcomeKind int

const (
	Finished OutcomeKind = iota
	ContinueInNextStep
)

// Outcome is the result of one builtin continuation tick.
type Outcome struct {
	Kind  OutcomeKind
	Value vmdef.Word
	State State
}

// Done builds a Finished outcome carrying the builtin's return value.
func Done(value vmdef.Word) (Outcome, error) {
	return Outcome{Kind: Finished, Value: value}, nil
}

// Again builds a ContinueInNextStep outcome carrying the next tick's state.
func Again(state State) (Outcome, error) {
	return Outcome{Kind: ContinueInNextStep, State: state}, nil
}

// Func is a single Jack-OS routine. state is 0 on the first invocation.
type Func func(vm VirtualMachine, state State, args []vmdef.Word) (Outcome, error)

// Package callstack models the VM's call stack: return addresses, the state
// a frame is executing in, and the stack itself.
package callstack

import "github.com/bradford-hamilton/hackvm/internal/vmdef"

// ReturnAddressKind tags where control resumes once a frame finishes.
type ReturnAddressKind int

const (
	EndOfProgram ReturnAddressKind = iota
	VMReturn
	BuiltinReturn
)

// ReturnAddress records where control flow resumes after a frame pops.
type ReturnAddress struct {
	Kind ReturnAddressKind
	// PC is meaningful when Kind == VMReturn.
	PC int
	// ResumeState is not set or read by the interpreter: when Kind ==
	// BuiltinReturn, the calling builtin's continuation state stays in its
	// own frame's State.BuiltinState underneath this frame.
	ResumeState int64
}

// StateKind tags what a frame is currently doing.
type StateKind int

const (
	// TopLevel is the bottom-of-stack sentinel frame; it never executes
	// anything itself.
	TopLevel StateKind = iota
	// VM means the frame is mid-way through ordinary bytecode.
	VM
	// Builtin means the frame is a native Jack-OS routine awaiting its
	// next continuation tick.
	Builtin
)

// State is a call frame's current execution state. For Builtin frames it
// carries the resumable continuation state and the original argument
// vector, so every tick of the continuation sees the same inputs.
type State struct {
	Kind StateKind

	BuiltinName  string
	BuiltinState int64
	BuiltinArgs  []vmdef.Word
}

// Entry is one call-stack frame.
type Entry struct {
	Return ReturnAddress
	// Function names the running function, empty for the bottom
	// TopLevel frame.
	Function string
	State    State
	// BasePointer is LCL at the time the frame was pushed (and ArgPointer
	// is ARG), recorded so the frame's data can be located without
	// re-deriving it from the live registers once a deeper frame is
	// pushed. The interpreter itself does not read them.
	BasePointer vmdef.Address
	ArgPointer  vmdef.Address
}

// Stack is a simple LIFO of call entries. The bottom entry is always
// TopLevel; step() is only legal while the stack is non-empty.
type Stack struct {
	entries []Entry
}

// New returns a stack with the bottom TopLevel frame already pushed.
func New() *Stack {
	return &Stack{entries: []Entry{{State: State{Kind: TopLevel}, Return: ReturnAddress{Kind: EndOfProgram}}}}
}

func (s *Stack) Push(e Entry) {
	s.entries = append(s.entries, e)
}

func (s *Stack) Pop() (Entry, bool) {
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	e := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return e, true
}

func (s *Stack) Top() (*Entry, bool) {
	if len(s.entries) == 0 {
		return nil, false
	}
	return &s.entries[len(s.entries)-1], true
}

func (s *Stack) Len() int {
	return len(s.entries)
}

// EntryAt returns a copy of the frame at idx. Used by the interpreter to
// read a builtin frame's state before dispatching a tick, since the frame
// may no longer be on top by the time the tick's outcome needs recording
// (the builtin may have pushed a nested call of its own).
func (s *Stack) EntryAt(idx int) Entry {
	return s.entries[idx]
}

// SetBuiltinState overwrites the continuation state of the frame at idx.
// idx is captured before dispatching a tick rather than a *Entry, since a
// pointer into entries can be invalidated if the slice grows (and thus
// reallocates) during that tick.
func (s *Stack) SetBuiltinState(idx int, state int64) {
	s.entries[idx].State.BuiltinState = state
}

// RemoveAt deletes the frame at idx and returns it, shifting any frames
// above it down by one. Used when a builtin finishes after its own tick
// already pushed a nested frame (a tail call into another builtin, or into
// bytecode) — the nested frame, not the finishing one, is left on top.
func (s *Stack) RemoveAt(idx int) (Entry, bool) {
	if idx < 0 || idx >= len(s.entries) {
		return Entry{}, false
	}
	e := s.entries[idx]
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	return e, true
}

// Names returns the function name of every named frame, bottom first, for
// debug display ("call stack trace"). Frames with an empty Function, such as
// the bottom TopLevel frame, are left out.
func (s *Stack) Names() []string {
	names := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Function != "" {
			names = append(names, e.Function)
		}
	}
	return names
}

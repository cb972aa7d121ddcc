package stdlib

import (
	"github.com/bradford-hamilton/hackvm/internal/bytecode"
	"github.com/bradford-hamilton/hackvm/internal/vmdef"
)

// Registry is the linked set of Jack-OS builtins, each assigned a virtual
// address at the top of the 16-bit function-address space so a bytecode
// `call` can target native code exactly like it targets a bytecode
// function.
type Registry struct {
	byName map[string]registered
	byAddr map[int]registered
}

type registered struct {
	name  string
	addr  int
	nargs int
	fn    Func
}

// functionOrder fixes the address assignment: index 0 gets the lowest
// virtual address, the last entry gets MaxFuncAddr. The order itself is
// arbitrary but must be stable across a process so saved addresses never
// drift.
var functionOrder = []struct {
	name  string
	nargs int
	fn    Func
}{
	{"Math.init", 0, mathInit},
	{"Math.abs", 1, mathAbs},
	{"Math.multiply", 2, mathMultiply},
	{"Math.divide", 2, mathDivide},
	{"Math.min", 2, mathMin},
	{"Math.max", 2, mathMax},
	{"Math.sqrt", 1, mathSqrt},

	{"Memory.init", 0, memoryInit},
	{"Memory.peek", 1, memoryPeek},
	{"Memory.poke", 2, memoryPoke},
	{"Memory.alloc", 1, memoryAlloc},
	{"Memory.deAlloc", 1, memoryDeAlloc},

	{"String.new", 1, stringNew},
	{"String.dispose", 1, stringDispose},
	{"String.length", 1, stringLength},
	{"String.charAt", 2, stringCharAt},
	{"String.setCharAt", 3, stringSetCharAt},
	{"String.appendChar", 2, stringAppendChar},
	{"String.eraseLastChar", 1, stringEraseLastChar},
	{"String.intValue", 1, stringIntValue},
	{"String.setInt", 2, stringSetInt},
	{"String.backSpace", 0, stringBackSpace},
	{"String.newLine", 0, stringNewLine},
	{"String.doubleQuote", 0, stringDoubleQuote},

	{"Array.new", 1, arrayNew},
	{"Array.dispose", 1, arrayDispose},

	{"Screen.init", 0, screenInit},
	{"Screen.clearScreen", 0, screenClearScreen},
	{"Screen.setColor", 1, screenSetColor},
	{"Screen.drawPixel", 2, screenDrawPixel},
	{"Screen.drawLine", 4, screenDrawLine},
	{"Screen.drawRectangle", 4, screenDrawRectangle},
	{"Screen.drawCircle", 3, screenDrawCircle},

	{"Output.init", 0, outputInit},
	{"Output.moveCursor", 2, outputMoveCursor},
	{"Output.printChar", 1, outputPrintChar},
	{"Output.printString", 1, outputPrintString},
	{"Output.printInt", 1, outputPrintInt},
	{"Output.println", 0, outputPrintln},
	{"Output.backspace", 0, outputBackspace},

	{"Keyboard.init", 0, keyboardInit},
	{"Keyboard.keyPressed", 0, keyboardKeyPressed},
	{"Keyboard.readChar", 0, keyboardReadChar},
	{"Keyboard.readLine", 1, keyboardReadLine},
	{"Keyboard.readInt", 1, keyboardReadInt},

	{"Sys.init", 0, sysInit},
	{"Sys.halt", 0, sysHalt},
	{"Sys.error", 1, sysError},
	{"Sys.wait", 1, sysWait},
}

// New builds the registry, assigning virtual addresses counting down from
// the top of the address space.
func New() *Registry {
	r := &Registry{byName: make(map[string]registered), byAddr: make(map[int]registered)}
	n := len(functionOrder)
	for i, f := range functionOrder {
		addr := vmdef.MaxFuncAddr - (n - 1) + i
		e := registered{name: f.name, addr: addr, nargs: f.nargs, fn: f.fn}
		r.byName[f.name] = e
		r.byAddr[addr] = e
	}
	return r
}

// Lookup satisfies bytecode.StdlibDescriptor.
func (r *Registry) Lookup(name string) (int, bool) {
	e, ok := r.byName[name]
	if !ok {
		return 0, false
	}
	return e.addr, true
}

// Functions satisfies bytecode.StdlibDescriptor.
func (r *Registry) Functions() []bytecode.StdlibFunctionInfo {
	out := make([]bytecode.StdlibFunctionInfo, 0, len(r.byName))
	for _, e := range r.byName {
		out = append(out, bytecode.StdlibFunctionInfo{Name: e.name, Addr: e.addr})
	}
	return out
}

// IsStdlibAddr reports whether addr falls in the reserved virtual-address
// window.
func IsStdlibAddr(addr int) bool {
	return addr >= vmdef.MaxFuncAddr-(len(functionOrder)-1) && addr <= vmdef.MaxFuncAddr
}

// Dispatch invokes the builtin registered at addr. ok is false if no
// builtin owns that address. state == 0 is when the argument count is
// checked, since later ticks of a multi-tick builtin replay the same args
// slice the dispatcher captured at call time.
func (r *Registry) Dispatch(addr int, vm VirtualMachine, state State, args []vmdef.Word) (Outcome, error, bool) {
	e, ok := r.byAddr[addr]
	if !ok {
		return Outcome{}, nil, false
	}
	if state == 0 && len(args) != e.nargs {
		return Outcome{}, &Error{Kind: IncorrectNumberOfArgs}, true
	}
	outcome, err := e.fn(vm, state, args)
	return outcome, err, true
}

// NameAt returns the builtin name registered at addr.
func (r *Registry) NameAt(addr int) (string, bool) {
	e, ok := r.byAddr[addr]
	if !ok {
		return "", false
	}
	return e.name, true
}

// AddrOf returns the virtual address of a builtin by name.
func (r *Registry) AddrOf(name string) (int, bool) {
	return r.Lookup(name)
}

package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bradford-hamilton/hackvm/internal/bytecode"
	"github.com/bradford-hamilton/hackvm/internal/stdlib"
	"github.com/bradford-hamilton/hackvm/internal/vmdef"
)

func parse(t *testing.T, registry *stdlib.Registry, src string) *bytecode.ParsedProgram {
	t.Helper()
	var parser *bytecode.Parser
	if registry != nil {
		parser = bytecode.NewParserWithStdlib([]bytecode.SourceFile{{Name: "Main.vm", Contents: src}}, registry)
	} else {
		parser = bytecode.NewParser([]bytecode.SourceFile{{Name: "Main.vm", Contents: src}})
	}
	program, err := parser.Parse()
	require.NoError(t, err)
	return program
}

// runUntilMainReturns steps the machine until Main.main's frame has popped
// off the call stack. Every program here boots through Sys.init, which
// hands off to Sys.halt once Main.main returns; Sys.halt idles forever, so
// the machine never reaches Halted(). Stopping the instant Main.main's
// frame is gone instead observes its result on top of the operand stack
// before Sys.init's own continuation absorbs it on the way to Sys.halt.
func runUntilMainReturns(t *testing.T, m *VM, maxSteps int) {
	t.Helper()
	seenMain := false
	for i := 0; i < maxSteps; i++ {
		hasMain := containsName(m.CallStackNames(), "Main.main")
		if hasMain {
			seenMain = true
		}
		if seenMain && !hasMain {
			return
		}
		require.NoError(t, m.Step())
	}
	t.Fatalf("Main.main did not return within %d steps", maxSteps)
}

func containsName(names []string, target string) bool {
	for _, n := range names {
		if n == target {
			return true
		}
	}
	return false
}

func TestSimpleAdd(t *testing.T) {
	program := parse(t, nil, `
function Main.main 0
push constant 7
push constant 8
add
return
`)
	m := New(stdlib.New())
	m.Load(program)
	runUntilMainReturns(t, m, 100)

	result, err := m.Pop()
	require.NoError(t, err)
	require.Equal(t, vmdef.Word(15), result)
}

func TestFibonacciFour(t *testing.T) {
	// fib(n) = n<2 ? n : fib(n-1)+fib(n-2); fib(4) = 3
	program := parse(t, nil, `
function Fib.fib 0
push argument 0
push constant 2
lt
if-goto BASE
push argument 0
push constant 1
sub
call Fib.fib 1
push argument 0
push constant 2
sub
call Fib.fib 1
add
return
label BASE
push argument 0
return
function Main.main 0
push constant 4
call Fib.fib 1
return
`)
	m := New(stdlib.New())
	m.Load(program)
	runUntilMainReturns(t, m, 10000)

	result, err := m.Pop()
	require.NoError(t, err)
	require.Equal(t, vmdef.Word(3), result)
}

func TestReturnRestoresCallerSegments(t *testing.T) {
	program := parse(t, nil, `
function Callee.f 1
push constant 42
pop local 0
push local 0
return
function Main.main 2
push constant 99
pop local 0
push constant 5
call Callee.f 0
pop local 1
push local 0
push local 1
add
return
`)
	m := New(stdlib.New())
	m.Load(program)
	runUntilMainReturns(t, m, 1000)

	result, err := m.Pop()
	require.NoError(t, err)
	// Main's local 0 (99, untouched by the call) plus Callee's return value (42).
	require.Equal(t, vmdef.Word(141), result)
}

func TestIllegalProgramCounterIsReported(t *testing.T) {
	// Hand-built rather than parsed: the parser itself never produces an
	// out-of-range Target, so this exercises execute()'s own bounds check.
	program := &bytecode.ParsedProgram{
		Instructions: []bytecode.Instruction{{Op: bytecode.Goto, Target: 99}},
		Meta:         &bytecode.MetaInfo{},
		HasSysInit:   false,
	}
	m := New(stdlib.New())
	m.Load(program)

	require.NoError(t, m.Step()) // the goto itself just sets pc
	err := m.Step()
	require.Error(t, err)
	var vmErr *Error
	require.ErrorAs(t, err, &vmErr)
	require.Equal(t, IllegalProgramCounter, vmErr.Kind)
}

func TestStdlibCallThroughBytecode(t *testing.T) {
	registry := stdlib.New()
	program := parse(t, registry, `
function Main.main 0
push constant 7
push constant 3
call Math.max 2
return
`)
	m := New(registry)
	m.Load(program)
	runUntilMainReturns(t, m, 1000)

	result, err := m.Pop()
	require.NoError(t, err)
	require.Equal(t, vmdef.Word(7), result)
}

func TestSysInitBootSequenceRunsMainAndHalts(t *testing.T) {
	registry := stdlib.New()
	program := parse(t, registry, `
function Main.main 0
push constant 1
push constant 1
add
return
`)
	m := New(registry)
	m.Load(program)

	for i := 0; i < 100000 && !m.Halted(); i++ {
		require.NoError(t, m.Step())
	}
	// Sys.halt idles forever once Main.main returns, so the machine never
	// actually halts — but the call stack should settle on Sys.halt and
	// stay there instead of erroring.
	require.Contains(t, m.CallStackNames(), "Sys.halt")
}

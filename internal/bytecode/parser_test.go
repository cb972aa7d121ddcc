package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSimpleAdd(t *testing.T) {
	src := `
function Main.main 0
push constant 7
push constant 8
add
return
`
	program, err := NewParser([]SourceFile{{Name: "Main.vm", Contents: src}}).Parse()
	require.NoError(t, err)
	require.True(t, program.HasSysInit)

	require.Len(t, program.Instructions, 5)
	require.Equal(t, Function, program.Instructions[0].Op)
	require.Equal(t, Push, program.Instructions[1].Op)
	require.Equal(t, Constant, program.Instructions[1].Seg)
	require.Equal(t, 7, program.Instructions[1].Index)
	require.Equal(t, Add, program.Instructions[3].Op)
	require.Equal(t, Return, program.Instructions[4].Op)

	addr, ok := program.Meta.AddrOf("Main.main")
	require.True(t, ok)
	require.Equal(t, 0, addr)
}

func TestParseStaticScopingAcrossModules(t *testing.T) {
	// Each module's own `static N` slots get distinct, module-scoped
	// addresses regardless of what index other modules already used,
	// counting up from 16 in file-processing order.
	sources := []SourceFile{
		{Name: "A.vm", Contents: "function A.f 0\npush static 0\npop static 1\nreturn\n"},
		{Name: "B.vm", Contents: "function B.f 0\npush static 0\npop static 1\nreturn\n"},
		{Name: "C.vm", Contents: "function C.f 0\npush static 0\npop static 1\nreturn\n"},
	}
	program, err := NewParser(sources).Parse()
	require.NoError(t, err)

	addrs := func(fromIdx int) (int, int) {
		push := program.Instructions[fromIdx+1]
		pop := program.Instructions[fromIdx+2]
		return push.Index, pop.Index
	}

	a0, a1 := addrs(0)
	require.Equal(t, 16, a0)
	require.Equal(t, 17, a1)

	b0, b1 := addrs(4)
	require.Equal(t, 18, b0)
	require.Equal(t, 19, b1)

	c0, c1 := addrs(8)
	require.Equal(t, 20, c0)
	require.Equal(t, 21, c1)
}

func TestParseUnresolvedSymbolIsFatal(t *testing.T) {
	src := "function Main.main 0\ncall Nowhere.f 0\nreturn\n"
	_, err := NewParser([]SourceFile{{Name: "Main.vm", Contents: src}}).Parse()
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, UnresolvedSymbols, parseErr.Kind)
}

type fakeStdlib struct {
	addrs map[string]int
}

func (f fakeStdlib) Lookup(name string) (int, bool) {
	a, ok := f.addrs[name]
	return a, ok
}

func (f fakeStdlib) Functions() []StdlibFunctionInfo {
	out := make([]StdlibFunctionInfo, 0, len(f.addrs))
	for name, addr := range f.addrs {
		out = append(out, StdlibFunctionInfo{Name: name, Addr: addr})
	}
	return out
}

func TestBytecodeOverridesStdlibOfSameName(t *testing.T) {
	sl := fakeStdlib{addrs: map[string]int{"Math.abs": 65535}}
	src := "function Math.abs 0\npush argument 0\nreturn\nfunction Main.main 0\npush constant 1\ncall Math.abs 1\nreturn\n"
	program, err := NewParserWithStdlib([]SourceFile{{Name: "Main.vm", Contents: src}}, sl).Parse()
	require.NoError(t, err)

	callInstr := program.Instructions[5]
	require.Equal(t, Call, callInstr.Op)
	require.NotEqual(t, 65535, callInstr.FuncAddr)

	addr, ok := program.Meta.AddrOf("Math.abs")
	require.True(t, ok)
	require.Equal(t, 0, addr)
}

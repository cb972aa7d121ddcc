package bytecode

import (
	"fmt"
	"sort"
)

// SourceFile is one named `.vm` module handed to the parser. Name is used
// both for error messages and as the module prefix for static variables.
type SourceFile struct {
	Name     string
	Contents string
}

// StdlibDescriptor lets the parser resolve calls against the native Jack-OS
// without the bytecode package depending on the stdlib package directly —
// the capability the stdlib needs from the VM at runtime has nothing to do
// with what the parser needs from the stdlib at link time, so they stay
// separate interfaces.
type StdlibDescriptor interface {
	// Lookup returns the virtual address of a builtin by name.
	Lookup(name string) (addr int, ok bool)
	// Functions returns every builtin name paired with its virtual
	// address, used to synthesize debug entries for builtins the bytecode
	// doesn't override.
	Functions() []StdlibFunctionInfo
}

// StdlibFunctionInfo describes one registered builtin for debug-info
// synthesis.
type StdlibFunctionInfo struct {
	Name string
	Addr int
}

type deferredGoto struct {
	entryIdx int
	label    string
	fn       *funcScope
	line     int
}

type deferredCall struct {
	entryIdx int
	name     string
	nArgs    int
	line     int
}

type funcScope struct {
	name   string
	labels map[string]int
}

// Parser implements the two-pass bytecode linker described by the
// specification: a first pass tokenizes every module, allocates statics and
// records function entry points, and a second pass resolves every deferred
// label and call.
type Parser struct {
	sources []SourceFile
	stdlib  StdlibDescriptor

	globalFuncs map[string]int
	staticAddrs map[string]int
	nextStatic  int

	instructions []Instruction
	meta         *MetaInfo

	deferredGotos []deferredGoto
	deferredCalls []deferredCall

	hadMainFunction bool
}

// NewParser builds a parser with no stdlib: every call must resolve to
// bytecode.
func NewParser(sources []SourceFile) *Parser {
	return NewParserWithStdlib(sources, nil)
}

// NewParserWithStdlib builds a parser that also resolves calls against the
// supplied stdlib descriptor.
func NewParserWithStdlib(sources []SourceFile, stdlib StdlibDescriptor) *Parser {
	return &Parser{
		sources:     sources,
		stdlib:      stdlib,
		globalFuncs: make(map[string]int),
		staticAddrs: make(map[string]int),
		nextStatic:  int(16),
		meta:        newMetaInfo(),
	}
}

// Parse runs both passes and returns the linked program, or the first fatal
// error encountered.
func (p *Parser) Parse() (*ParsedProgram, error) {
	for _, src := range p.sources {
		if err := p.parseFile(src); err != nil {
			return nil, err
		}
	}

	if err := p.resolveDeferred(); err != nil {
		return nil, err
	}

	p.synthesizeStdlibDebugEntries()

	return &ParsedProgram{
		Instructions: p.instructions,
		Meta:         p.meta,
		HasSysInit:   p.hadMainFunction,
	}, nil
}

func (p *Parser) parseFile(src SourceFile) error {
	tokens, err := scanTokens(src.Contents, src.Name)
	if err != nil {
		return err
	}
	stream := &tokenStream{tokens: tokens, file: src.Name}

	var current *funcScope

	for !stream.atEnd() {
		kw, line, err := stream.expectIdent()
		if err != nil {
			return err
		}

		switch kw {
		case "add":
			p.emit(Instruction{Op: Add})
		case "sub":
			p.emit(Instruction{Op: Sub})
		case "eq":
			p.emit(Instruction{Op: Eq})
		case "gt":
			p.emit(Instruction{Op: Gt})
		case "lt":
			p.emit(Instruction{Op: Lt})
		case "and":
			p.emit(Instruction{Op: And})
		case "or":
			p.emit(Instruction{Op: Or})
		case "not":
			p.emit(Instruction{Op: Not})
		case "neg":
			p.emit(Instruction{Op: Neg})
		case "return":
			p.emit(Instruction{Op: Return})

		case "push", "pop":
			segName, segLine, err := stream.expectIdent()
			if err != nil {
				return err
			}
			seg, ok := ParseSegment(segName)
			if !ok {
				return &ParseError{Kind: UnknownSegment, File: src.Name, Line: segLine, Detail: segName}
			}
			idx, _, err := stream.expectInt()
			if err != nil {
				return err
			}
			if seg == Static {
				idx = p.staticAddr(src.Name, idx)
			}
			op := Push
			if kw == "pop" {
				op = Pop
			}
			p.emit(Instruction{Op: op, Seg: seg, Index: idx})

		case "label":
			name, _, err := stream.expectIdent()
			if err != nil {
				return err
			}
			if current == nil {
				return &ParseError{Kind: UnexpectedCharacter, File: src.Name, Line: line, Detail: "label outside function"}
			}
			current.labels[name] = len(p.instructions)

		case "goto", "if-goto":
			name, gline, err := stream.expectIdent()
			if err != nil {
				return err
			}
			if current == nil {
				return &ParseError{Kind: UnexpectedCharacter, File: src.Name, Line: gline, Detail: "goto outside function"}
			}
			op := Goto
			if kw == "if-goto" {
				op = IfGoto
			}
			idx := len(p.instructions)
			p.emit(Instruction{Op: op})
			if resolved, ok := current.labels[name]; ok {
				p.instructions[idx].Target = resolved
			} else {
				p.deferredGotos = append(p.deferredGotos, deferredGoto{entryIdx: idx, label: name, fn: current, line: gline})
			}

		case "function":
			name, _, err := stream.expectIdent()
			if err != nil {
				return err
			}
			nLocals, _, err := stream.expectInt()
			if err != nil {
				return err
			}
			idx := len(p.instructions)
			p.emit(Instruction{Op: Function, NLocals: nLocals})
			p.globalFuncs[name] = idx
			p.meta.record(idx, FunctionInfo{Name: name, NLocals: nLocals, File: src.Name})
			if name == "Main.main" {
				p.hadMainFunction = true
			}
			current = &funcScope{name: name, labels: make(map[string]int)}

		case "call":
			name, cline, err := stream.expectIdent()
			if err != nil {
				return err
			}
			nArgs, _, err := stream.expectInt()
			if err != nil {
				return err
			}
			idx := len(p.instructions)
			p.emit(Instruction{Op: Call, FuncName: name, NArgs: nArgs})
			if addr, ok := p.globalFuncs[name]; ok {
				p.instructions[idx].FuncAddr = addr
			} else if p.stdlib != nil {
				if addr, ok := p.stdlib.Lookup(name); ok {
					p.instructions[idx].FuncAddr = addr
				} else {
					p.deferredCalls = append(p.deferredCalls, deferredCall{entryIdx: idx, name: name, nArgs: nArgs, line: cline})
				}
			} else {
				p.deferredCalls = append(p.deferredCalls, deferredCall{entryIdx: idx, name: name, nArgs: nArgs, line: cline})
			}

		default:
			return &ParseError{Kind: UnexpectedCharacter, File: src.Name, Line: line, Detail: kw}
		}
	}

	return nil
}

func (p *Parser) emit(instr Instruction) {
	p.instructions = append(p.instructions, instr)
}

func (p *Parser) staticAddr(module string, index int) int {
	key := fmt.Sprintf("%s.%d", module, index)
	if addr, ok := p.staticAddrs[key]; ok {
		return addr
	}
	addr := p.nextStatic
	p.staticAddrs[key] = addr
	p.nextStatic++
	return addr
}

func (p *Parser) resolveDeferred() error {
	unresolved := make(map[string]struct{})

	for _, dc := range p.deferredCalls {
		if addr, ok := p.globalFuncs[dc.name]; ok {
			p.instructions[dc.entryIdx].FuncAddr = addr
			continue
		}
		if p.stdlib != nil {
			if addr, ok := p.stdlib.Lookup(dc.name); ok {
				p.instructions[dc.entryIdx].FuncAddr = addr
				continue
			}
		}
		unresolved[dc.name] = struct{}{}
	}

	for _, dg := range p.deferredGotos {
		if addr, ok := dg.fn.labels[dg.label]; ok {
			p.instructions[dg.entryIdx].Target = addr
			continue
		}
		return &ParseError{Kind: UnresolvedLocalLabel, Line: dg.line, Detail: dg.label}
	}

	if len(unresolved) > 0 {
		names := make([]string, 0, len(unresolved))
		for n := range unresolved {
			names = append(names, n)
		}
		sort.Strings(names)
		return &ParseError{Kind: UnresolvedSymbols, Names: names}
	}

	return nil
}

// synthesizeStdlibDebugEntries adds a FunctionInfo for every builtin the
// bytecode doesn't shadow, so debug/meta lookups work uniformly whether a
// name resolves to bytecode or to native code.
func (p *Parser) synthesizeStdlibDebugEntries() {
	if p.stdlib == nil {
		return
	}
	for _, fn := range p.stdlib.Functions() {
		if _, overridden := p.globalFuncs[fn.Name]; overridden {
			continue
		}
		if _, exists := p.meta.FunctionAt(fn.Addr); exists {
			continue
		}
		p.meta.record(fn.Addr, FunctionInfo{Name: fn.Name, File: "<stdlib>"})
	}
}

package stdlib

import (
	"strconv"

	"github.com/bradford-hamilton/hackvm/internal/vmdef"
)

const (
	wordsPerRow   = vmdef.ScreenWidth >> 4 // 32
	rowsOfGlyphs  = vmdef.ScreenHeight / 11 // 23
	colsOfGlyphs  = vmdef.ScreenWidth / 8   // 64
	glyphRowSpan  = 11 * wordsPerRow
	lastRowAddr   = int(vmdef.ScreenStart) + (rowsOfGlyphs-1)*glyphRowSpan
)

func outputInit(vm VirtualMachine, _ State, _ []vmdef.Word) (Outcome, error) {
	vm.SetCursor(int(vmdef.ScreenStart), 0, 1)
	return Done(0)
}

func outputMoveCursor(vm VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	row, col := int(args[0]), int(args[1])
	if row < 0 || row >= rowsOfGlyphs || col < 0 || col >= colsOfGlyphs {
		return Outcome{}, &Error{Kind: OutputMoveCursorIllegalPosition}
	}
	wordInLine := col >> 1
	firstInWord := 1
	if col&1 != 0 {
		firstInWord = 0
	}
	address := int(vmdef.ScreenStart) + row*glyphRowSpan
	vm.SetCursor(address, wordInLine, firstInWord)
	return Done(0)
}

func drawGlyph(vm VirtualMachine, c vmdef.Word) {
	address, wordInLine, firstInWord := vm.Cursor()
	rows := glyphFor(rune(c))

	for i := 0; i < 11; i++ {
		a := vmdef.Address(address + i*wordsPerRow + wordInLine)
		word := vm.Mem(a)
		value := vmdef.Word(rows[i])
		if firstInWord != 0 {
			word = (word & 0x00FF) | (value << 8)
		} else {
			word = (word & ^vmdef.Word(0x00FF)) | value
		}
		_ = vm.SetMem(a, word)
	}

	advanceCursor(vm)
}

func advanceCursor(vm VirtualMachine) {
	address, wordInLine, firstInWord := vm.Cursor()
	if firstInWord != 0 {
		vm.SetCursor(address, wordInLine, 0)
		return
	}
	wordInLine++
	if wordInLine == wordsPerRow {
		wordInLine = 0
		address += glyphRowSpan
		if address > lastRowAddr {
			address = int(vmdef.ScreenStart)
		}
	}
	vm.SetCursor(address, wordInLine, 1)
}

func newLineImpl(vm VirtualMachine) {
	address, _, _ := vm.Cursor()
	address += glyphRowSpan
	if address > lastRowAddr {
		address = int(vmdef.ScreenStart)
	}
	vm.SetCursor(address, 0, 1)
}

func backspaceImpl(vm VirtualMachine) {
	address, wordInLine, firstInWord := vm.Cursor()
	if firstInWord != 0 {
		wordInLine--
		firstInWord = 0
		if wordInLine < 0 {
			wordInLine = wordsPerRow - 1
			address -= glyphRowSpan
			if address < int(vmdef.ScreenStart) {
				address = lastRowAddr
			}
		}
	} else {
		firstInWord = 1
	}
	vm.SetCursor(address, wordInLine, firstInWord)
	drawGlyph(vm, ' ')
	// drawGlyph already advanced the cursor past the blanked cell; undo
	// that so the next printChar overwrites the same cell again.
	address, wordInLine, firstInWord = vm.Cursor()
	if firstInWord != 0 {
		wordInLine--
		firstInWord = 0
		if wordInLine < 0 {
			wordInLine = wordsPerRow - 1
			address -= glyphRowSpan
		}
	} else {
		firstInWord = 1
	}
	vm.SetCursor(address, wordInLine, firstInWord)
}

func outputPrintChar(vm VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	c := args[0]
	switch c {
	case vmdef.NewlineKey:
		newLineImpl(vm)
	case vmdef.BackspaceKey:
		backspaceImpl(vm)
	case 0:
		// used by Keyboard.readChar to "print nothing" while priming state
	default:
		drawGlyph(vm, c)
	}
	return Done(c)
}

func outputPrintString(vm VirtualMachine, state State, args []vmdef.Word) (Outcome, error) {
	s := args[0]
	index, phase := DecodeState(state)

	switch phase {
	case 0:
		return callThenContinue2(vm, EncodeState(index, 1), "String.length", []vmdef.Word{s})
	case 1:
		length, err := vm.Pop()
		if err != nil {
			return Outcome{}, err
		}
		if vmdef.Word(index) >= length {
			return Done(s)
		}
		return callThenContinue2(vm, EncodeState(index, 2), "String.charAt", []vmdef.Word{s, vmdef.Word(index)})
	case 2:
		c, err := vm.Pop()
		if err != nil {
			return Outcome{}, err
		}
		return callThenContinue2(vm, EncodeState(index, 3), "Output.printChar", []vmdef.Word{c})
	case 3:
		if _, err := vm.Pop(); err != nil {
			return Outcome{}, err
		}
		return Again(EncodeState(index+1, 0))
	default:
		return Outcome{}, &Error{Kind: ContinuingFinishedFunction}
	}
}

func outputPrintInt(vm VirtualMachine, state State, args []vmdef.Word) (Outcome, error) {
	n := args[0]
	digits := strconv.Itoa(int(n))
	index, phase := DecodeState(state)

	switch phase {
	case 0:
		if int(index) >= len(digits) {
			return Done(n)
		}
		return callThenContinue2(vm, EncodeState(index, 1), "Output.printChar", []vmdef.Word{vmdef.Word(digits[index])})
	case 1:
		if _, err := vm.Pop(); err != nil {
			return Outcome{}, err
		}
		return Again(EncodeState(index+1, 0))
	default:
		return Outcome{}, &Error{Kind: ContinuingFinishedFunction}
	}
}

func outputPrintln(vm VirtualMachine, state State, _ []vmdef.Word) (Outcome, error) {
	switch state {
	case 0:
		return callThenContinue(vm, state, "Output.printChar", []vmdef.Word{vmdef.NewlineKey})
	case 1:
		if _, err := vm.Pop(); err != nil {
			return Outcome{}, err
		}
		return Done(0)
	default:
		return Outcome{}, &Error{Kind: ContinuingFinishedFunction}
	}
}

func outputBackspace(vm VirtualMachine, state State, _ []vmdef.Word) (Outcome, error) {
	switch state {
	case 0:
		return callThenContinue(vm, state, "Output.printChar", []vmdef.Word{vmdef.BackspaceKey})
	case 1:
		if _, err := vm.Pop(); err != nil {
			return Outcome{}, err
		}
		return Done(0)
	default:
		return Outcome{}, &Error{Kind: ContinuingFinishedFunction}
	}
}

// callThenContinue2 is callThenContinue with an explicit next-state value
// instead of state+1, needed by the multi-field state encoding printString
// and printInt use.
func callThenContinue2(vm VirtualMachine, nextState State, name string, args []vmdef.Word) (Outcome, error) {
	if err := vm.Call(name, args); err != nil {
		return Outcome{}, err
	}
	return Again(nextState)
}

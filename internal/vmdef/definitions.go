// Package vmdef holds the constants shared by every layer of the emulator:
// the memory map, register indices and the key codes the front-end writes
// into the keyboard register.
package vmdef

// Word is a signed 16-bit Hack machine word. All arithmetic on it is modular
// at 16 bits; comparisons follow the Hack convention of true = -1, false = 0.
type Word int16

// Address indexes into the VM's memory array. The keyboard register sits one
// past the end of the screen, so the addressable range is 0..=KBD.
type Address int

const (
	SP   Address = 0
	LCL  Address = 1
	ARG  Address = 2
	THIS Address = 3
	THAT Address = 4

	TempStart Address = 5
	TempEnd   Address = 12

	R13 Address = 13
	R14 Address = 14
	R15 Address = 15

	StaticStart Address = 16
	StaticEnd   Address = 255

	StackStart Address = 256
	StackEnd   Address = 2047

	HeapStart Address = 2048
	HeapEnd   Address = 16383

	ScreenStart Address = 16384
	ScreenEnd   Address = 24575

	KBD Address = 24576

	// MemSize is the length of the backing memory array: every address in
	// 0..=KBD must be indexable, so it is one word larger than the
	// 24,576-word address space the screen and stack live in.
	MemSize = int(KBD) + 1

	ScreenWidth  = 512
	ScreenHeight = 256

	// InitSP is the stack pointer value load() installs before a program's
	// first instruction runs.
	InitSP Address = StackStart
)

// Key codes written into the keyboard register by the front-end. ASCII
// 32..126 map identity; everything else is a control key in this block.
const (
	NewlineKey    Word = 128
	BackspaceKey  Word = 129
	ArrowLeftKey  Word = 130
	ArrowUpKey    Word = 131
	ArrowRightKey Word = 132
	ArrowDownKey  Word = 133
	HomeKey       Word = 134
	EndKey        Word = 135
	PageUpKey     Word = 136
	PageDownKey   Word = 137
	InsertKey     Word = 138
	DeleteKey     Word = 139
	EscapeKey     Word = 140
	F1Key         Word = 141
	F12Key        Word = 152
	DoubleQuoteKey Word = 34
)

// MaxFuncAddr is the top of the 16-bit function-address space. Stdlib
// builtins are assigned virtual addresses counting down from here so that a
// single Call opcode can target either bytecode or native code.
const MaxFuncAddr = 0xFFFF

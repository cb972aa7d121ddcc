package stdlib

import (
	"fmt"

	"github.com/bradford-hamilton/hackvm/internal/vmdef"
)

// ErrorKind enumerates every way a builtin can fail, mirroring the
// reference implementation's error taxonomy one for one so SysError codes
// map onto the same human-readable messages.
type ErrorKind int

const (
	IncorrectNumberOfArgs ErrorKind = iota
	CallingNonExistingFunction
	ContinuingFinishedFunction

	SysErrorCode
	SysWaitNegativeDuration

	MathDivideByZero
	MathNegativeSqrt

	MemoryAllocNonPositiveSize
	MemoryHeapOverflow

	ArrayNewNonPositiveSize

	ScreenIllegalCoords

	StringNewNegativeLength
	StringCharAtIllegalIndex
	StringSetCharAtIllegalIndex
	StringAppendCharFull
	StringEraseLastCharEmpty
	StringSetIntInsufficientCapacity

	OutputMoveCursorIllegalPosition
)

// Error is the error type every builtin returns. Code is only meaningful
// for SysErrorCode, where it holds the guest-supplied Sys.error code.
type Error struct {
	Kind ErrorKind
	Code vmdef.Word
}

func (e *Error) Error() string {
	if e.Kind == SysErrorCode {
		return sysErrorMessage(int(e.Code))
	}
	if msg, ok := messages[e.Kind]; ok {
		return msg
	}
	return fmt.Sprintf("stdlib error (%d)", int(e.Kind))
}

var messages = map[ErrorKind]string{
	IncorrectNumberOfArgs:            "Incorrect number of arguments",
	CallingNonExistingFunction:       "Trying to call non existing stdlib function",
	ContinuingFinishedFunction:       "Trying to continue finished function",
	SysWaitNegativeDuration:          "Duration must be positive",
	MathDivideByZero:                 "Division by zero",
	MathNegativeSqrt:                 "Cannot compute square root of a negative number",
	MemoryAllocNonPositiveSize:       "Allocated memory size must be positive",
	MemoryHeapOverflow:               "Heap overflow",
	ArrayNewNonPositiveSize:          "Array size must be positive",
	ScreenIllegalCoords:              "Illegal pixel coordinates",
	StringNewNegativeLength:          "Maximum length must be non-negative",
	StringCharAtIllegalIndex:         "String index out of bounds",
	StringSetCharAtIllegalIndex:      "String index out of bounds",
	StringAppendCharFull:             "String is full",
	StringEraseLastCharEmpty:         "String is empty",
	StringSetIntInsufficientCapacity: "Insufficient string capacity",
	OutputMoveCursorIllegalPosition:  "Illegal cursor location",
}

// vmErrors mirrors the reference VM_ERRORS table: Sys.error(code) raises
// one of these canned messages for codes 1..17.
var vmErrors = [18]string{
	"",
	"Duration must be positive",
	"Array size must be positive",
	"Division by zero",
	"Cannot compute square root of a negative number",
	"Allocated memory size must be positive",
	"Heap overflow",
	"Illegal pixel coordinates",
	"Illegal line coordinates",
	"Illegal rectangle coordinates",
	"Illegal center coordinates",
	"Illegal radius",
	"Maximum length must be non-negative",
	"String index out of bounds",
	"String is full",
	"String is empty",
	"Insufficient string capacity",
	"Illegal cursor location",
}

func sysErrorMessage(code int) string {
	if code >= 1 && code < len(vmErrors) {
		return vmErrors[code]
	}
	return fmt.Sprintf("Unknown error code: %d", code)
}

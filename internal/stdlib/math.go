package stdlib

import "github.com/bradford-hamilton/hackvm/internal/vmdef"

func mathInit(_ VirtualMachine, _ State, _ []vmdef.Word) (Outcome, error) {
	return Done(0)
}

func mathAbs(_ VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	x := args[0]
	if x < 0 {
		x = -x
	}
	return Done(x)
}

func mathMultiply(_ VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	a, b := int32(args[0]), int32(args[1])
	return Done(vmdef.Word(int16(a * b)))
}

func mathDivide(_ VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	a, b := int32(args[0]), int32(args[1])
	if b == 0 {
		return Outcome{}, &Error{Kind: MathDivideByZero}
	}
	return Done(vmdef.Word(int16(a / b)))
}

func mathMin(_ VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	if args[0] < args[1] {
		return Done(args[0])
	}
	return Done(args[1])
}

func mathMax(_ VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	if args[0] > args[1] {
		return Done(args[0])
	}
	return Done(args[1])
}

func mathSqrt(_ VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	x := args[0]
	if x < 0 {
		return Outcome{}, &Error{Kind: MathNegativeSqrt}
	}
	// Integer square root via binary search over the 16-bit domain;
	// avoids pulling in math.Sqrt's float rounding behaviour.
	var lo, hi int32 = 0, 181 // 181*181 = 32761, just under the Word ceiling
	target := int32(x)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if mid*mid <= target {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return Done(vmdef.Word(lo))
}

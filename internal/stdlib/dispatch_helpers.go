package stdlib

import "github.com/bradford-hamilton/hackvm/internal/vmdef"

// callThenContinue issues a call back into the VM and advances the
// builtin's phase counter. It is the Go equivalent of the reference
// implementation's call_vm! macro: since bytecode may override any stdlib
// name, every inter-routine call must go through vm.Call and yield a tick
// rather than assume the callee runs synchronously.
func callThenContinue(vm VirtualMachine, state State, name string, args []vmdef.Word) (Outcome, error) {
	if err := vm.Call(name, args); err != nil {
		return Outcome{}, err
	}
	return Again(state + 1)
}

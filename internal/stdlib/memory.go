package stdlib

import "github.com/bradford-hamilton/hackvm/internal/vmdef"

// Memory.vm implements a free-list allocator over the heap. Every block,
// free or used, carries a two-word header `[size, next]` immediately
// before the user pointer; `next` always names the header of the
// following block in address order (or the end-of-heap sentinel), so the
// free list is really just "every block in the heap", and a used block is
// simply one whose size has been zeroed. That lets alloc/deAlloc walk the
// heap starting from a fixed address instead of tracking a separate
// free-list head.

const heapSentinel = int(vmdef.HeapEnd) + 1

func memoryInit(vm VirtualMachine, _ State, _ []vmdef.Word) (Outcome, error) {
	capacity := (int(vmdef.HeapEnd) + 1) - (int(vmdef.HeapStart) + 2)
	_ = vm.SetMem(vmdef.HeapStart, vmdef.Word(capacity))
	_ = vm.SetMem(vmdef.HeapStart+1, vmdef.Word(heapSentinel))
	return Done(0)
}

func memoryPeek(vm VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	return Done(vm.Mem(vmdef.Address(args[0])))
}

func memoryPoke(vm VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	if err := vm.SetMem(vmdef.Address(args[0]), args[1]); err != nil {
		return Outcome{}, err
	}
	return Done(0)
}

func memoryAlloc(vm VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	size := int(args[0])
	if size <= 0 {
		return Outcome{}, &Error{Kind: MemoryAllocNonPositiveSize}
	}

	seg := int(vmdef.HeapStart)
	for seg != heapSentinel {
		capacity := int(vm.Mem(vmdef.Address(seg)))
		next := int(vm.Mem(vmdef.Address(seg + 1)))

		if capacity >= size {
			if capacity > size+2 {
				newAddr := seg + 2 + size
				newCap := capacity - size - 2
				_ = vm.SetMem(vmdef.Address(newAddr), vmdef.Word(newCap))
				_ = vm.SetMem(vmdef.Address(newAddr+1), vmdef.Word(next))
				_ = vm.SetMem(vmdef.Address(seg+1), vmdef.Word(newAddr))
			}
			_ = vm.SetMem(vmdef.Address(seg), 0)
			return Done(vmdef.Word(seg + 2))
		}

		seg = next
	}

	return Outcome{}, &Error{Kind: MemoryHeapOverflow}
}

func memoryDeAlloc(vm VirtualMachine, _ State, args []vmdef.Word) (Outcome, error) {
	ptr := int(args[0])
	header := ptr - 2
	next := int(vm.Mem(vmdef.Address(header + 1)))

	if next != heapSentinel && vm.Mem(vmdef.Address(next)) != 0 {
		nextNext := int(vm.Mem(vmdef.Address(next + 1)))
		_ = vm.SetMem(vmdef.Address(header), vmdef.Word(nextNext-header-2))
		_ = vm.SetMem(vmdef.Address(header+1), vmdef.Word(nextNext))
	} else {
		_ = vm.SetMem(vmdef.Address(header), vmdef.Word(next-header-2))
	}

	return Done(0)
}

package vm

// callClosure pushes a new CallFrame for closure, whose arguments
// (argCount of them) already sit on the stack above the callee value
// itself, per spec.md §4.7's call protocol: "the frame's base pointer
// is stack_top − argc − 1 so that slot 0 = callee, slots 1..argc =
// positional parameters".
func (vm *VM) callClosure(closure *ObjClosure, argCount int) {
	frame := &CallFrame{Closure: closure, Base: len(vm.stack) - argCount - 1}
	vm.frames = append(vm.frames, frame)
}

// callValue dispatches CALL/METHOD_CALL: native functions execute
// immediately and replace their argument window with the return
// value; closures/functions push a frame and let the interpreter loop
// continue into it.
func (vm *VM) callValue(callee Value, argCount int) error {
	if len(vm.frames) >= maxFrames {
		return vm.runtimeError("stack overflow")
	}
	switch callee.Kind {
	case VObjClosure:
		closure := callee.Obj.(*ObjClosure)
		if argCount != closure.Function.Arity {
			return vm.runtimeError("expected %d argument(s) but got %d", closure.Function.Arity, argCount)
		}
		vm.callClosure(closure, argCount)
		return nil
	case VObjNative:
		native := callee.Obj.(*ObjNative)
		args := make([]Value, argCount)
		copy(args, vm.stack[len(vm.stack)-argCount:])
		result, err := native.Fn(vm, args)
		if err != nil {
			return vm.runtimeError("%s", err.Error())
		}
		vm.stack = vm.stack[:len(vm.stack)-argCount-1]
		vm.push(result)
		return nil
	case VObjClass:
		class := callee.Obj.(*ObjClass)
		instance := vm.gc.NewInstance(class)
		if init, ok := class.Proto.Get("init"); ok && init.Kind == VObjClosure {
			vm.stack[len(vm.stack)-argCount-1] = ObjValue(instance)
			return vm.callValue(init, argCount)
		}
		vm.stack = vm.stack[:len(vm.stack)-argCount-1]
		vm.push(ObjValue(instance))
		return nil
	default:
		return vm.runtimeError("'%s' is not callable", callee.String())
	}
}

// captureUpvalue finds-or-creates the open upvalue for the stack slot
// at index idx, keeping the open list sorted by descending slot
// (spec.md §4.8) so multiple closures capturing the same local share
// one cell.
func (vm *VM) captureUpvalue(idx int) *ObjUpvalue {
	var prev *ObjUpvalue
	cur := vm.openUpvalues
	for cur != nil && cur.StackIdx > idx {
		prev = cur
		cur = cur.NextOpen
	}
	if cur != nil && cur.StackIdx == idx {
		return cur
	}
	created := vm.gc.NewUpvalue(&vm.stack[idx], idx)
	created.NextOpen = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above stack slot
// `from`, copying its value into the cell and splicing it out of the
// open list (spec.md §4.8: required on RETURN and on any scope exit
// that pops above an open upvalue's slot).
func (vm *VM) closeUpvalues(from int) {
	for vm.openUpvalues != nil && vm.openUpvalues.StackIdx >= from {
		u := vm.openUpvalues
		u.Close()
		vm.openUpvalues = u.NextOpen
		u.NextOpen = nil
	}
}

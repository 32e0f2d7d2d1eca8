package vm

// run is the VM's central dispatch loop (spec.md §4.7): a switch on
// the opcode byte, one case per OpCode, each manipulating the operand
// stack and the current frame's instruction pointer.
func (vm *VM) run() (InterpretResult, error) {
	for {
		vm.maybeCollect()
		frame := vm.currentFrame()
		chunk := frame.Closure.Function.Chunk
		op := OpCode(chunk.Code[frame.IP])
		frame.IP++

		switch op {
		case OpConstant:
			idx := vm.readByte()
			vm.push(chunk.Constants[idx])
		case OpConstantLong:
			idx := vm.readShort24()
			vm.push(chunk.Constants[idx])
		case OpNil:
			vm.push(Nil())
		case OpTrue:
			vm.push(Bool_(true))
		case OpFalse:
			vm.push(Bool_(false))
		case OpPop:
			vm.pop()
		case OpDup:
			vm.push(vm.peek(0))
		case OpDup2:
			a, b := vm.peek(1), vm.peek(0)
			vm.push(a)
			vm.push(b)
		case OpSwap:
			a := vm.pop()
			b := vm.pop()
			vm.push(a)
			vm.push(b)

		case OpGetLocal:
			slot := vm.readByte()
			vm.push(vm.stack[frame.Base+int(slot)])
		case OpSetLocal:
			slot := vm.readByte()
			vm.stack[frame.Base+int(slot)] = vm.peek(0)

		case OpGetUpvalue:
			idx := vm.readByte()
			vm.push(frame.Closure.Upvalues[idx].Get())
		case OpSetUpvalue:
			idx := vm.readByte()
			frame.Closure.Upvalues[idx].Set(vm.peek(0))

		case OpDefineGlobal:
			name := chunk.Constants[vm.readByte()].Obj.(*ObjString)
			vm.globalsFor(frame).Set(name.Value, vm.pop())
		case OpGetGlobal:
			name := chunk.Constants[vm.readByte()].Obj.(*ObjString)
			v, ok := vm.globalsFor(frame).Get(name.Value)
			if !ok {
				v, ok = vm.Globals.Get(name.Value)
			}
			if !ok {
				return InterpretRuntimeError, vm.runtimeError("undefined variable '%s'", name.Value)
			}
			vm.push(v)
		case OpSetGlobal:
			name := chunk.Constants[vm.readByte()].Obj.(*ObjString)
			table := vm.globalsFor(frame)
			if _, ok := table.Get(name.Value); !ok {
				if _, ok = vm.Globals.Get(name.Value); !ok {
					return InterpretRuntimeError, vm.runtimeError("undefined variable '%s'", name.Value)
				}
				table = vm.Globals
			}
			table.Set(name.Value, vm.peek(0))

		case OpGetProperty:
			name := vm.pop().Obj.(*ObjString).Value
			target := vm.pop()
			v, err := vm.getProperty(target, name)
			if err != nil {
				return InterpretRuntimeError, err
			}
			vm.push(v)
		case OpSetProperty:
			value := vm.pop()
			name := vm.pop().Obj.(*ObjString).Value
			target := vm.pop()
			if err := vm.setProperty(target, name, value); err != nil {
				return InterpretRuntimeError, err
			}
			vm.push(value)

		case OpGetSubscript:
			key := vm.pop()
			target := vm.pop()
			v, err := vm.getSubscript(target, key)
			if err != nil {
				return InterpretRuntimeError, err
			}
			vm.push(v)
		case OpSetSubscript:
			value := vm.pop()
			key := vm.pop()
			target := vm.pop()
			if err := vm.setSubscript(target, key, value); err != nil {
				return InterpretRuntimeError, err
			}
			vm.push(value)

		case OpAdd, OpSub, OpMul, OpDiv, OpMod:
			if err := vm.binaryArith(op); err != nil {
				return InterpretRuntimeError, err
			}
		case OpNeg:
			v := vm.pop()
			if !v.IsNumber() {
				return InterpretRuntimeError, vm.runtimeError("operand of '-' must be a number")
			}
			if v.Kind == VInt {
				vm.push(Int_(-v.Int))
			} else {
				vm.push(Value{Kind: v.Kind, Float: -v.Float})
			}
		case OpNot:
			vm.push(Bool_(!vm.pop().IsTruthy()))

		case OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr:
			if err := vm.binaryBitwise(op); err != nil {
				return InterpretRuntimeError, err
			}
		case OpBitNot:
			v := vm.pop()
			if v.Kind != VInt {
				return InterpretRuntimeError, vm.runtimeError("operand of '~' must be Int")
			}
			vm.push(Int_(^v.Int))

		case OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(Bool_(ValuesEqual(a, b)))
		case OpNotEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(Bool_(!ValuesEqual(a, b)))
		case OpLess, OpGreater, OpLessEqual, OpGreaterEqual:
			if err := vm.compare(op); err != nil {
				return InterpretRuntimeError, err
			}

		case OpJump:
			dist := vm.readShort()
			frame.IP += dist
		case OpJumpIfFalse:
			dist := vm.readShort()
			if !vm.peek(0).IsTruthy() {
				frame.IP += dist
			}
		case OpLoop:
			dist := vm.readShort()
			frame.IP -= dist

		case OpCall:
			argc := int(vm.readByte())
			callee := vm.peek(argc)
			if err := vm.callValue(callee, argc); err != nil {
				return InterpretRuntimeError, err
			}
		case OpMethodCall:
			argc := int(vm.readByte())
			callee := vm.peek(argc)
			if err := vm.callValue(callee, argc); err != nil {
				return InterpretRuntimeError, err
			}

		case OpClosure, OpClosureLong:
			var fnConst Value
			if op == OpClosure {
				fnConst = chunk.Constants[vm.readByte()]
			} else {
				fnConst = chunk.Constants[vm.readShort24()]
			}
			fn := fnConst.Obj.(*ObjFunction)
			closure := vm.gc.NewClosure(fn)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := vm.readByte()
				index := int(vm.readByte())
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.Base + index)
				} else {
					closure.Upvalues[i] = frame.Closure.Upvalues[index]
				}
			}
			vm.push(ObjValue(closure))

		case OpCloseUpvalue:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.pop()

		case OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.Base)
			vm.stack = vm.stack[:frame.Base]
			vm.frames = vm.frames[:len(vm.frames)-1]
			vm.push(result)
			if len(vm.frames) == 0 {
				// Leave the outermost return value on the stack (unused
				// by Interpret/InterpretModule, but lets CallFunction
				// retrieve a host-invoked function's result).
				return InterpretOK, nil
			}

		case OpArray:
			count := int(vm.readByte())
			elems := make([]Value, count)
			copy(elems, vm.stack[len(vm.stack)-count:])
			vm.stack = vm.stack[:len(vm.stack)-count]
			vm.push(ObjValue(vm.gc.NewArray(elems)))

		case OpCreateObject:
			vm.push(ObjValue(vm.gc.NewDict()))

		case OpDefineStruct:
			nameIdx := vm.readByte()
			name := chunk.Constants[nameIdx].Obj.(*ObjString).Value
			fieldCount := int(vm.readByte())
			fields := make([]string, fieldCount)
			for i := range fields {
				fields[i] = chunk.Constants[vm.readByte()].Obj.(*ObjString).Value
			}
			def := vm.gc.NewStructDef(name, fields)
			vm.globalsFor(frame).Set(name, ObjValue(def))

		case OpCreateStruct:
			nameIdx := vm.readByte()
			name := chunk.Constants[nameIdx].Obj.(*ObjString).Value
			defVal, ok := vm.globalsFor(frame).Get(name)
			if !ok {
				defVal, ok = vm.Globals.Get(name)
			}
			if !ok {
				return InterpretRuntimeError, vm.runtimeError("undefined struct '%s'", name)
			}
			def := defVal.Obj.(*ObjStructDef)
			inst := vm.gc.NewStruct(def)
			for i := len(def.Fields) - 1; i >= 0; i-- {
				inst.Fields[def.Fields[i]] = vm.pop()
			}
			vm.push(ObjValue(inst))

		case OpDefineClass:
			nameIdx := vm.readByte()
			name := chunk.Constants[nameIdx].Obj.(*ObjString).Value
			superIdx := vm.readByte()
			class := vm.gc.NewClass(name)
			if superIdx != 0xff {
				superName := chunk.Constants[superIdx].Obj.(*ObjString).Value
				superVal, ok := vm.globalsFor(frame).Get(superName)
				if !ok {
					superVal, ok = vm.Globals.Get(superName)
				}
				if !ok {
					return InterpretRuntimeError, vm.runtimeError("undefined superclass '%s'", superName)
				}
				super, ok := superVal.Obj.(*ObjClass)
				if !ok {
					return InterpretRuntimeError, vm.runtimeError("'%s' is not a class", superName)
				}
				class.Super = super
			}
			vm.globalsFor(frame).Set(name, ObjValue(class))

		case OpGetIter:
			vm.push(vm.peek(0))
			vm.push(Int_(0))
		case OpForIter:
			idx := vm.pop()
			iterable := vm.peek(0)
			arr, ok := iterable.Obj.(*ObjArray)
			if !ok {
				return InterpretRuntimeError, vm.runtimeError("value is not iterable")
			}
			i := idx.Int
			if int(i) >= len(arr.Elements) {
				vm.push(Bool_(false))
				break
			}
			vm.push(Int_(i + 1))
			vm.push(arr.Elements[i])
			vm.push(Bool_(true))

		case OpLoadModule:
			path := chunk.Constants[vm.readByte()].Obj.(*ObjString).Value
			if vm.Loader == nil {
				return InterpretRuntimeError, vm.runtimeError("no module loader configured")
			}
			mod, err := vm.Loader.Load(vm, path)
			if err != nil {
				return InterpretRuntimeError, vm.runtimeError("%s", err.Error())
			}
			vm.push(ObjValue(mod))

		case OpImportFrom:
			name := chunk.Constants[vm.readByte()].Obj.(*ObjString).Value
			mod := vm.pop().Obj.(*ObjModule)
			v, ok := mod.Exports.Get(name)
			if !ok {
				return InterpretRuntimeError, vm.runtimeError("module '%s' has no export '%s'", mod.Path, name)
			}
			vm.push(v)

		case OpImportAllFrom:
			mod := vm.pop().Obj.(*ObjModule)
			for _, k := range mod.Exports.Keys {
				v, _ := mod.Exports.Get(k)
				vm.globalsFor(frame).Set(k, v)
			}

		case OpLoadBuiltin:
			nameV := vm.pop()
			moduleV := vm.pop()
			if vm.Loader == nil {
				return InterpretRuntimeError, vm.runtimeError("no module loader configured")
			}
			v, ok := vm.Loader.LoadBuiltin(moduleV.Obj.(*ObjString).Value, nameV.Obj.(*ObjString).Value)
			if !ok {
				return InterpretRuntimeError, vm.runtimeError("unknown builtin '%s.%s'", moduleV.String(), nameV.String())
			}
			vm.push(v)

		case OpModuleExport:
			name := chunk.Constants[vm.readByte()].Obj.(*ObjString).Value
			value := vm.pop()
			if frame.Module != nil {
				frame.Module.Exports.Set(name, value)
			}
		case OpModuleExportName:
			value := vm.pop()
			name := vm.pop().Obj.(*ObjString).Value
			if frame.Module != nil {
				frame.Module.Exports.Set(name, value)
			}

		case OpToString:
			vm.push(ObjValue(vm.gc.Intern(vm.pop().String())))

		case OpOptionalChain:
			if vm.peek(0).Kind == VNil {
				frame.IP = len(chunk.Code) // unreachable sentinel; compiler emits explicit jumps around chains
			}
		case OpForceUnwrap:
			if vm.peek(0).Kind == VNil {
				return InterpretRuntimeError, vm.runtimeError("unexpectedly found nil while unwrapping")
			}
		case OpAwait:
			// synchronous pass-through (DESIGN.md Open Question (d)): no-op.

		case OpGetObjectProto:
			nameIdx := vm.readByte()
			name := chunk.Constants[nameIdx].Obj.(*ObjString).Value
			v, ok := vm.globalsFor(frame).Get(name)
			if !ok {
				v, ok = vm.Globals.Get(name)
			}
			if !ok {
				return InterpretRuntimeError, vm.runtimeError("undefined type '%s'", name)
			}
			switch def := v.Obj.(type) {
			case *ObjStructDef:
				vm.push(ObjValue(def.Proto))
			case *ObjClass:
				vm.push(ObjValue(def.Proto))
			default:
				return InterpretRuntimeError, vm.runtimeError("'%s' has no prototype", name)
			}
		case OpGetStructProto:
			nameIdx := vm.readByte()
			name := chunk.Constants[nameIdx].Obj.(*ObjString).Value
			v, ok := vm.globalsFor(frame).Get(name)
			if !ok {
				v, ok = vm.Globals.Get(name)
			}
			if !ok {
				return InterpretRuntimeError, vm.runtimeError("undefined struct '%s'", name)
			}
			vm.push(ObjValue(v.Obj.(*ObjStructDef).Proto))

		case OpThrow:
			value := vm.pop()
			if !vm.unwindToHandler(value) {
				return InterpretRuntimeError, vm.runtimeError("uncaught throw: %s", value.String())
			}

		case OpPushTry:
			dist := vm.readShort()
			vm.tryHandlers = append(vm.tryHandlers, tryHandler{
				frameIdx: len(vm.frames) - 1, stackDepth: len(vm.stack), jumpTarget: frame.IP + dist,
			})
		case OpPopTry:
			if len(vm.tryHandlers) > 0 {
				vm.tryHandlers = vm.tryHandlers[:len(vm.tryHandlers)-1]
			}

		case OpSwitchEq:
			caseVal := vm.pop()
			subjectDup := vm.pop()
			vm.push(Bool_(ValuesEqual(subjectDup, caseVal)))

		case OpGuardFail:
			return InterpretRuntimeError, vm.runtimeError("guard condition failed without diverging")

		default:
			return InterpretRuntimeError, vm.runtimeError("unknown opcode %d", op)
		}
	}
}

func (vm *VM) readByte() byte {
	frame := vm.currentFrame()
	b := frame.Closure.Function.Chunk.Code[frame.IP]
	frame.IP++
	return b
}

func (vm *VM) readShort() int {
	hi := vm.readByte()
	lo := vm.readByte()
	return int(hi)<<8 | int(lo)
}

func (vm *VM) readShort24() int {
	a := vm.readByte()
	b := vm.readByte()
	c := vm.readByte()
	return int(a) | int(b)<<8 | int(c)<<16
}

// globalsFor returns the table SET_GLOBAL/GET_GLOBAL consult first: a
// module's own export table while executing module-scoped code, then
// falling back to process-wide globals (spec.md §4.7 "Module
// execution").
func (vm *VM) globalsFor(frame *CallFrame) *ObjDict {
	if frame.Module != nil {
		return frame.Module.Exports
	}
	return vm.Globals
}

// unwindToHandler implements spec.md §4.11's throw search: pop frames
// and the value stack back to the innermost active try, binding value
// via the compiler-emitted catch-name slot (left on the stack for the
// catch block to GET_LOCAL/SET_LOCAL as it pleases).
func (vm *VM) unwindToHandler(value Value) bool {
	if len(vm.tryHandlers) == 0 {
		return false
	}
	h := vm.tryHandlers[len(vm.tryHandlers)-1]
	vm.tryHandlers = vm.tryHandlers[:len(vm.tryHandlers)-1]
	vm.frames = vm.frames[:h.frameIdx+1]
	vm.closeUpvalues(h.stackDepth)
	vm.stack = vm.stack[:h.stackDepth]
	vm.push(value)
	vm.currentFrame().IP = h.jumpTarget
	return true
}

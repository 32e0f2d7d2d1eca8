package vm

// binaryArith implements ADD/SUB/MUL/DIV/MOD (spec.md §4.7): string
// concatenation for `+` on two strings, numeric promotion otherwise,
// integer division-by-zero is a runtime error, double division
// follows IEEE 754.
func (vm *VM) binaryArith(op OpCode) error {
	b := vm.pop()
	a := vm.pop()

	if op == OpAdd && a.Kind == VObjString && b.Kind == VObjString {
		concatenated := a.Obj.(*ObjString).Value + b.Obj.(*ObjString).Value
		vm.push(ObjValue(vm.gc.Intern(concatenated)))
		return nil
	}

	if !a.IsNumber() || !b.IsNumber() {
		return vm.runtimeError("operands of arithmetic must be numbers, got %s and %s", kindName(a), kindName(b))
	}

	if a.Kind == VInt && b.Kind == VInt {
		switch op {
		case OpAdd:
			vm.push(Int_(a.Int + b.Int))
		case OpSub:
			vm.push(Int_(a.Int - b.Int))
		case OpMul:
			vm.push(Int_(a.Int * b.Int))
		case OpDiv:
			if b.Int == 0 {
				return vm.runtimeError("division by zero")
			}
			vm.push(Int_(a.Int / b.Int))
		case OpMod:
			if b.Int == 0 {
				return vm.runtimeError("division by zero")
			}
			vm.push(Int_(a.Int % b.Int))
		}
		return nil
	}

	af, bf := a.AsFloat64(), b.AsFloat64()
	kind := promotedKind(a.Kind, b.Kind)
	switch op {
	case OpAdd:
		vm.push(Value{Kind: kind, Float: af + bf})
	case OpSub:
		vm.push(Value{Kind: kind, Float: af - bf})
	case OpMul:
		vm.push(Value{Kind: kind, Float: af * bf})
	case OpDiv:
		vm.push(Value{Kind: kind, Float: af / bf}) // IEEE 754: a/0 is +-Inf or NaN, per spec.md §4.7
	case OpMod:
		vm.push(Value{Kind: kind, Float: mod64(af, bf)})
	}
	return nil
}

func mod64(a, b float64) float64 {
	for a >= b && b != 0 {
		a -= b
	}
	return a
}

func promotedKind(a, b ValueKind) ValueKind {
	if a == VDouble || b == VDouble {
		return VDouble
	}
	if a == VFloat || b == VFloat {
		return VFloat
	}
	return VInt
}

func kindName(v Value) string {
	switch v.Kind {
	case VNil:
		return "Nil"
	case VBool:
		return "Bool"
	case VInt:
		return "Int"
	case VFloat:
		return "Float"
	case VDouble:
		return "Double"
	case VObjString:
		return "String"
	default:
		return "Object"
	}
}

func (vm *VM) binaryBitwise(op OpCode) error {
	b := vm.pop()
	a := vm.pop()
	if a.Kind != VInt || b.Kind != VInt {
		return vm.runtimeError("bitwise operands must be Int")
	}
	switch op {
	case OpBitAnd:
		vm.push(Int_(a.Int & b.Int))
	case OpBitOr:
		vm.push(Int_(a.Int | b.Int))
	case OpBitXor:
		vm.push(Int_(a.Int ^ b.Int))
	case OpShl:
		vm.push(Int_(a.Int << uint(b.Int)))
	case OpShr:
		vm.push(Int_(a.Int >> uint(b.Int)))
	}
	return nil
}

// compare implements LESS/GREATER/LESS_EQUAL/GREATER_EQUAL: numbers
// compare by value, strings lexicographically (spec.md §4.7).
func (vm *VM) compare(op OpCode) error {
	b := vm.pop()
	a := vm.pop()

	var less, equal bool
	switch {
	case a.IsNumber() && b.IsNumber():
		af, bf := a.AsFloat64(), b.AsFloat64()
		less, equal = af < bf, af == bf
	case a.Kind == VObjString && b.Kind == VObjString:
		as, bs := a.Obj.(*ObjString).Value, b.Obj.(*ObjString).Value
		less, equal = as < bs, as == bs
	default:
		return vm.runtimeError("cannot compare %s and %s", kindName(a), kindName(b))
	}

	switch op {
	case OpLess:
		vm.push(Bool_(less))
	case OpGreater:
		vm.push(Bool_(!less && !equal))
	case OpLessEqual:
		vm.push(Bool_(less || equal))
	case OpGreaterEqual:
		vm.push(Bool_(!less))
	}
	return nil
}

// getProperty implements GET_PROPERTY over dictionaries, struct
// instances, class instances (falling back to the class's method
// prototype chain), and structs' own DEFINE_STRUCT-installed proto.
func (vm *VM) getProperty(target Value, name string) (Value, error) {
	switch target.Kind {
	case VObjDict:
		d := target.Obj.(*ObjDict)
		if v, ok := d.Get(name); ok {
			return v, nil
		}
		if d.Proto != nil {
			return vm.getProperty(ObjValue(d.Proto), name)
		}
		return Nil(), nil
	case VObjStruct:
		s := target.Obj.(*ObjStruct)
		if v, ok := s.Fields[name]; ok {
			return v, nil
		}
		if v, ok := s.Def.Proto.Get(name); ok {
			return v, nil
		}
		return Nil(), vm.runtimeError("'%s' has no field '%s'", s.Def.Name, name)
	case VObjInstance:
		inst := target.Obj.(*ObjInstance)
		if v, ok := inst.Fields.Get(name); ok {
			return v, nil
		}
		for c := inst.Class; c != nil; c = c.Super {
			if v, ok := c.Proto.Get(name); ok {
				return v, nil
			}
		}
		return Nil(), vm.runtimeError("'%s' has no member '%s'", inst.Class.Name, name)
	case VObjClass:
		class := target.Obj.(*ObjClass)
		if v, ok := class.Statics.Get(name); ok {
			return v, nil
		}
		return Nil(), vm.runtimeError("class '%s' has no static member '%s'", class.Name, name)
	case VObjModule:
		mod := target.Obj.(*ObjModule)
		if v, ok := mod.Exports.Get(name); ok {
			return v, nil
		}
		return Nil(), vm.runtimeError("module '%s' has no export '%s'", mod.Path, name)
	case VNil:
		return Nil(), nil // optional chain short-circuit
	default:
		return Nil(), vm.runtimeError("value of type %s has no properties", kindName(target))
	}
}

func (vm *VM) setProperty(target Value, name string, value Value) error {
	switch target.Kind {
	case VObjDict:
		target.Obj.(*ObjDict).Set(name, value)
		return nil
	case VObjStruct:
		target.Obj.(*ObjStruct).Fields[name] = value
		return nil
	case VObjInstance:
		target.Obj.(*ObjInstance).Fields.Set(name, value)
		return nil
	case VObjClass:
		target.Obj.(*ObjClass).Statics.Set(name, value)
		return nil
	default:
		return vm.runtimeError("cannot set a property on a value of type %s", kindName(target))
	}
}

func (vm *VM) getSubscript(target, key Value) (Value, error) {
	switch target.Kind {
	case VObjArray:
		arr := target.Obj.(*ObjArray)
		if key.Kind != VInt || key.Int < 0 || int(key.Int) >= len(arr.Elements) {
			return Nil(), vm.runtimeError("array index out of range")
		}
		return arr.Elements[key.Int], nil
	case VObjDict:
		d := target.Obj.(*ObjDict)
		k := key.String()
		if v, ok := d.Get(k); ok {
			return v, nil
		}
		return Nil(), nil // a missing key surfaces as nil; Optional(Value) has no distinct runtime representation
	default:
		return Nil(), vm.runtimeError("value of type %s is not subscriptable", kindName(target))
	}
}

func (vm *VM) setSubscript(target, key, value Value) error {
	switch target.Kind {
	case VObjArray:
		arr := target.Obj.(*ObjArray)
		if key.Kind != VInt || key.Int < 0 || int(key.Int) >= len(arr.Elements) {
			return vm.runtimeError("array index out of range")
		}
		arr.Elements[key.Int] = value
		return nil
	case VObjDict:
		target.Obj.(*ObjDict).Set(key.String(), value)
		return nil
	default:
		return vm.runtimeError("value of type %s is not subscriptable", kindName(target))
	}
}

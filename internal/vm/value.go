package vm

import "fmt"

// ValueKind tags a Value's active field, giving the VM a small tagged
// union rather than a boxed interface{} for every stack slot (spec.md
// §4.7 "TaggedValue model"). Scalars (Nil/Bool/Int/Float/Double) carry
// their payload inline; everything heap-allocated carries an *Obj
// pointer the GC tracks.
type ValueKind int

const (
	VNil ValueKind = iota
	VBool
	VInt
	VFloat
	VDouble
	VObjString
	VObjArray
	VObjDict
	VObjFunction
	VObjClosure
	VObjNative
	VObjStructDef
	VObjStruct
	VObjInstance
	VObjClass
	VObjModule
	VObjUpvalue
)

// Value is one stack/constant-pool slot.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Float float64 // used for both VFloat and VDouble payloads
	Obj   Obj
}

func Nil() Value           { return Value{Kind: VNil} }
func Bool_(b bool) Value   { return Value{Kind: VBool, Bool: b} }
func Int_(i int64) Value   { return Value{Kind: VInt, Int: i} }
func Float_(f float64) Value  { return Value{Kind: VFloat, Float: f} }
func Double_(f float64) Value { return Value{Kind: VDouble, Float: f} }

func ObjValue(o Obj) Value {
	v := Value{Obj: o}
	switch o.(type) {
	case *ObjString:
		v.Kind = VObjString
	case *ObjArray:
		v.Kind = VObjArray
	case *ObjDict:
		v.Kind = VObjDict
	case *ObjFunction:
		v.Kind = VObjFunction
	case *ObjClosure:
		v.Kind = VObjClosure
	case *ObjNative:
		v.Kind = VObjNative
	case *ObjStructDef:
		v.Kind = VObjStructDef
	case *ObjStruct:
		v.Kind = VObjStruct
	case *ObjInstance:
		v.Kind = VObjInstance
	case *ObjClass:
		v.Kind = VObjClass
	case *ObjModule:
		v.Kind = VObjModule
	case *ObjUpvalue:
		v.Kind = VObjUpvalue
	}
	return v
}

// IsNumber reports whether v participates in arithmetic.
func (v Value) IsNumber() bool { return v.Kind == VInt || v.Kind == VFloat || v.Kind == VDouble }

// IsTruthy implements the VM's truthiness rule: nil and false are
// falsy, every other value (including 0 and "") is truthy.
func (v Value) IsTruthy() bool {
	switch v.Kind {
	case VNil:
		return false
	case VBool:
		return v.Bool
	default:
		return true
	}
}

func (v Value) AsFloat64() float64 {
	switch v.Kind {
	case VInt:
		return float64(v.Int)
	default:
		return v.Float
	}
}

func (v Value) String() string {
	switch v.Kind {
	case VNil:
		return "nil"
	case VBool:
		return fmt.Sprintf("%v", v.Bool)
	case VInt:
		return fmt.Sprintf("%d", v.Int)
	case VFloat, VDouble:
		return fmt.Sprintf("%g", v.Float)
	default:
		if v.Obj != nil {
			return v.Obj.String()
		}
		return "<obj>"
	}
}

// ValuesEqual implements spec.md §4.7's comparison semantics: numbers
// and strings compare by value; mixed non-nil types compare unequal;
// object identity otherwise (reference equality), which is sound for
// a non-moving, interned-string collector.
func ValuesEqual(a, b Value) bool {
	if a.Kind == VNil || b.Kind == VNil {
		return a.Kind == VNil && b.Kind == VNil
	}
	if a.IsNumber() && b.IsNumber() {
		return a.AsFloat64() == b.AsFloat64() && (a.Kind != VInt || b.Kind != VInt || a.Int == b.Int)
	}
	if a.Kind == VBool && b.Kind == VBool {
		return a.Bool == b.Bool
	}
	if a.Kind == VObjString && b.Kind == VObjString {
		// interned strings compare equal by pointer (spec.md §4.9); a
		// defensive value-compare covers any string never run through
		// the intern pool (e.g. built by a native function directly).
		as, bs := a.Obj.(*ObjString), b.Obj.(*ObjString)
		return as == bs || as.Value == bs.Value
	}
	if a.Kind != b.Kind {
		return false
	}
	return a.Obj == b.Obj
}

// Package types implements the nominal type system spec.md §3/§4.5
// describes: a closed set of type tags with subtyping via a class
// supertype chain and protocol conformance, optionality, composite
// member/method lists, and a process-local Type Context registering
// built-ins and user declarations.
//
// Grounded on the teacher repo's internal/typesystem package for the
// shape of the exercise (a Type interface implemented by per-kind
// structs, a string-keyed registry of declared types) — but this
// language is nominal rather than the teacher's Hindley-Milner
// inference system, so there are no type variables or unification;
// assignability (spec.md §4.5) replaces unify.
package types

import (
	"fmt"
	"strings"
)

// Kind is the closed tag set from spec.md §3.
type Kind int

const (
	KVoid Kind = iota
	KBool
	KInt
	KFloat
	KDouble
	KString
	KNil
	KAny
	KArray
	KDictionary
	KOptional
	KFunction
	KTuple
	KStruct
	KClass
	KEnum
	KProtocol
	KGeneric
	KAlias
	KUnresolved
)

func (k Kind) String() string {
	switch k {
	case KVoid:
		return "Void"
	case KBool:
		return "Bool"
	case KInt:
		return "Int"
	case KFloat:
		return "Float"
	case KDouble:
		return "Double"
	case KString:
		return "String"
	case KNil:
		return "Nil"
	case KAny:
		return "Any"
	case KArray:
		return "Array"
	case KDictionary:
		return "Dictionary"
	case KOptional:
		return "Optional"
	case KFunction:
		return "Function"
	case KTuple:
		return "Tuple"
	case KStruct:
		return "Struct"
	case KClass:
		return "Class"
	case KEnum:
		return "Enum"
	case KProtocol:
		return "Protocol"
	case KGeneric:
		return "Generic"
	case KAlias:
		return "Alias"
	default:
		return "Unresolved"
	}
}

// Member is a field or stored property of a composite type.
type Member struct {
	Name    string
	Type    Type
	Mutable bool
	Static  bool
	Private bool
}

// Method describes a function attached to a composite type.
type Method struct {
	Name      string
	Signature *Type
	Static    bool
	Private   bool
	Mutating  bool
}

// Type is one nominal type value. Composite kinds carry Members,
// Methods, Supertype, and Conforms; Optional/Array/Dictionary carry
// Wrapped/Element/Key+Value; Function carries Params/Result/IsAsync/
// IsThrowing; Tuple carries Elements.
type Type struct {
	Kind       Kind
	Name       string // struct/class/enum/protocol/alias/generic name
	IsOptional bool   // convenience flag that coexists with KOptional (spec.md §3)

	Wrapped *Type // Optional
	Element *Type // Array
	Key     *Type // Dictionary
	Value   *Type // Dictionary

	Params      []Type // Function
	Result      *Type  // Function
	IsAsync     bool
	IsThrowing  bool
	Elements    []Type // Tuple

	Members   []Member // Struct/Class
	Methods   []Method // Struct/Class/Protocol
	Supertype *Type    // Class
	Conforms  []string // protocol names this type conforms to

	AliasOf *Type // Alias: underlying type
}

func Void() Type   { return Type{Kind: KVoid, Name: "Void"} }
func Bool() Type   { return Type{Kind: KBool, Name: "Bool"} }
func Int() Type    { return Type{Kind: KInt, Name: "Int"} }
func Float() Type  { return Type{Kind: KFloat, Name: "Float"} }
func Double() Type { return Type{Kind: KDouble, Name: "Double"} }
func String() Type { return Type{Kind: KString, Name: "String"} }
func Nil() Type    { return Type{Kind: KNil, Name: "Nil"} }
func Any() Type    { return Type{Kind: KAny, Name: "Any"} }
func Unresolved() Type { return Type{Kind: KUnresolved, Name: "?"} }

func Optional(wrapped Type) Type {
	w := wrapped
	return Type{Kind: KOptional, Name: wrapped.Name + "?", IsOptional: true, Wrapped: &w}
}

func Array(elem Type) Type {
	e := elem
	return Type{Kind: KArray, Name: "[" + elem.Name + "]", Element: &e}
}

func Dictionary(key, value Type) Type {
	k, v := key, value
	return Type{Kind: KDictionary, Name: "[" + key.Name + ":" + value.Name + "]", Key: &k, Value: &v}
}

func Function(params []Type, result Type, async, throwing bool) Type {
	r := result
	return Type{Kind: KFunction, Params: params, Result: &r, IsAsync: async, IsThrowing: throwing, Name: functionName(params, result)}
}

func functionName(params []Type, result Type) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return "(" + strings.Join(names, ", ") + ") -> " + result.Name
}

func Tuple(elements []Type) Type {
	names := make([]string, len(elements))
	for i, e := range elements {
		names[i] = e.Name
	}
	return Type{Kind: KTuple, Elements: elements, Name: "(" + strings.Join(names, ", ") + ")"}
}

// String renders the type the way diagnostics show it to the user.
func (t Type) String() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Kind.String()
}

// IsNumeric reports whether t participates in arithmetic (Int, Float, Double).
func (t Type) IsNumeric() bool {
	return t.Kind == KInt || t.Kind == KFloat || t.Kind == KDouble
}

// NumericRank orders numeric types for common-type promotion
// (spec.md §4.5: "Double > Float > Int").
func (t Type) NumericRank() int {
	switch t.Kind {
	case KDouble:
		return 3
	case KFloat:
		return 2
	case KInt:
		return 1
	default:
		return 0
	}
}

// CommonNumeric returns the promoted type of two numeric operands, or
// Any if either is Any/Unresolved (spec.md §4.5 operator table).
func CommonNumeric(a, b Type) Type {
	if a.Kind == KAny || b.Kind == KAny || a.Kind == KUnresolved || b.Kind == KUnresolved {
		return Any()
	}
	if a.NumericRank() >= b.NumericRank() {
		return a
	}
	return b
}

// Equal reports structural/nominal equality sufficient for
// assignability's "equal" branch.
func Equal(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KStruct, KClass, KEnum, KProtocol, KGeneric, KAlias:
		return a.Name == b.Name
	case KOptional:
		return Equal(*a.Wrapped, *b.Wrapped)
	case KArray:
		return Equal(*a.Element, *b.Element)
	case KDictionary:
		return Equal(*a.Key, *b.Key) && Equal(*a.Value, *b.Value)
	case KFunction:
		if len(a.Params) != len(b.Params) || a.IsAsync != b.IsAsync || a.IsThrowing != b.IsThrowing {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return Equal(*a.Result, *b.Result)
	case KTuple:
		if len(a.Elements) != len(b.Elements) {
			return false
		}
		for i := range a.Elements {
			if !Equal(a.Elements[i], b.Elements[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// AssignableTo implements spec.md §4.5 assignability: equal types; U
// is Any; T is nil and U is optional; both optional and wrapped types
// assignable; via class supertype chain; via protocol conformance.
func AssignableTo(t, u Type, ctx *Context) bool {
	if Equal(t, u) {
		return true
	}
	if u.Kind == KAny {
		return true
	}
	if t.Kind == KNil && u.Kind == KOptional {
		return true
	}
	if t.Kind == KOptional && u.Kind == KOptional {
		return AssignableTo(*t.Wrapped, *u.Wrapped, ctx)
	}
	if t.Kind == KClass && u.Kind == KClass {
		cur := t.Supertype
		for cur != nil {
			if Equal(*cur, u) {
				return true
			}
			cur = cur.Supertype
		}
	}
	if u.Kind == KProtocol {
		for _, name := range t.Conforms {
			if name == u.Name {
				return true
			}
		}
	}
	return false
}

// Context is the process-local registry of built-in and user-declared
// types (spec.md §3 "Type Context"), scoped to one analyzer instance.
type Context struct {
	byName map[string]*Type
}

// NewContext builds a Context preloaded with the analyzer's built-ins
// (spec.md §4.5: Void, Bool, Int, Float, Double, String, Any).
func NewContext() *Context {
	c := &Context{byName: map[string]*Type{}}
	for _, t := range []Type{Void(), Bool(), Int(), Float(), Double(), String(), Nil(), Any()} {
		t := t
		c.byName[t.Name] = &t
	}
	return c
}

// Declare registers a user type, erroring (via bool) on redeclaration
// in the same context.
func (c *Context) Declare(t Type) bool {
	if _, exists := c.byName[t.Name]; exists {
		return false
	}
	c.byName[t.Name] = &t
	return true
}

// Lookup resolves a type name, returning Unresolved if absent.
func (c *Context) Lookup(name string) (Type, bool) {
	if t, ok := c.byName[name]; ok {
		return *t, true
	}
	return Unresolved(), false
}

// Len reports how many type names this context has registered,
// including the preloaded built-ins — used by the pipeline to
// attribute symbol-table arena usage after analysis.
func (c *Context) Len() int { return len(c.byName) }

func (c *Context) String() string {
	names := make([]string, 0, len(c.byName))
	for n := range c.byName {
		names = append(names, n)
	}
	return fmt.Sprintf("Context(%d types: %s)", len(names), strings.Join(names, ", "))
}

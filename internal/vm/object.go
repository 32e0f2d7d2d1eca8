package vm

import (
	"fmt"
	"strings"
)

// Obj is implemented by every heap-allocated value the GC tracks
// (spec.md §4.9: strings, arrays, objects/instances, closures,
// upvalues, functions, modules). ObjHeader gives each concrete type
// its mark bit and intrusive GC-list link for free.
type Obj interface {
	fmt.Stringer
	header() *ObjHeader
}

// ObjHeader is embedded by every Obj. next links every live object
// into the GC's intrusive allocation list (the same non-moving,
// linked-list-of-all-objects design clox uses), so sweep can walk
// exactly what was allocated without a separate registry.
type ObjHeader struct {
	marked bool
	next   Obj
	size   int // approximate bytes charged against the GC threshold
}

func (h *ObjHeader) header() *ObjHeader { return h }

// ObjString is an interned string; identical text always yields the
// identical *ObjString pointer (spec.md §4.9 intern pool), so equality
// and hashing are both pointer operations.
type ObjString struct {
	ObjHeader
	Value string
	hash  uint32
}

func (s *ObjString) String() string { return s.Value }

// ObjArray is a mutable, growable array of Values.
type ObjArray struct {
	ObjHeader
	Elements []Value
}

func (a *ObjArray) String() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ObjDict is an insertion-ordered string-keyed dictionary (object
// literal / `[K:V]` map).
type ObjDict struct {
	ObjHeader
	Keys   []string
	Values map[string]Value
	Proto  Obj // prototype object for GET_OBJECT_PROTO-installed extension methods
}

func NewObjDict() *ObjDict { return &ObjDict{Values: map[string]Value{}} }

func (d *ObjDict) Get(key string) (Value, bool) {
	v, ok := d.Values[key]
	return v, ok
}

func (d *ObjDict) Set(key string, v Value) {
	if _, exists := d.Values[key]; !exists {
		d.Keys = append(d.Keys, key)
	}
	d.Values[key] = v
}

func (d *ObjDict) String() string {
	parts := make([]string, len(d.Keys))
	for i, k := range d.Keys {
		parts[i] = k + ": " + d.Values[k].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ObjFunction is a compiled, not-yet-closed-over function: its chunk,
// arity, name, and how many upvalues it captures.
type ObjFunction struct {
	ObjHeader
	Name         string
	Arity        int
	Chunk        *Chunk
	UpvalueCount int
	IsAsync      bool
	IsThrowing   bool
}

func (f *ObjFunction) String() string {
	if f.Name == "" {
		return "<script>"
	}
	return "<func " + f.Name + ">"
}

// UpvalueDescriptor is one CLOSURE operand pair (spec.md §4.6/§4.8).
type UpvalueDescriptor struct {
	IsLocal bool
	Index   int
}

// ObjClosure pairs a function with its resolved upvalue cells.
type ObjClosure struct {
	ObjHeader
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) String() string { return c.Function.String() }

// ObjUpvalue is a captured-variable cell. While open, Location points
// into a live VM stack slot; Close copies the value inline and nils
// Location out, matching spec.md §4.8's "close on scope exit" rule so
// closures sharing one upvalue keep seeing the same cell either way.
type ObjUpvalue struct {
	ObjHeader
	Location *Value
	Closed   Value
	NextOpen *ObjUpvalue // intrusive open-upvalue list, sorted by descending stack slot
	StackIdx int
}

func (u *ObjUpvalue) String() string { return "<upvalue>" }

func (u *ObjUpvalue) Get() Value {
	if u.Location != nil {
		return *u.Location
	}
	return u.Closed
}

func (u *ObjUpvalue) Set(v Value) {
	if u.Location != nil {
		*u.Location = v
		return
	}
	u.Closed = v
}

func (u *ObjUpvalue) Close() {
	if u.Location != nil {
		u.Closed = *u.Location
		u.Location = nil
	}
}

// ObjNative is a host function bridged into VM call syntax (spec.md
// §4.10 built-in/native module registries).
type ObjNative struct {
	ObjHeader
	Name string
	Fn   func(vm *VM, args []Value) (Value, error)
}

func (n *ObjNative) String() string { return "<native " + n.Name + ">" }

// ObjStructDef is the shape registered by DEFINE_STRUCT: field order
// for CREATE_STRUCT plus the prototype dictionary extension methods
// install onto (spec.md §4.6 class/struct lowering).
type ObjStructDef struct {
	ObjHeader
	Name   string
	Fields []string
	Proto  *ObjDict
}

func (d *ObjStructDef) String() string { return "<struct " + d.Name + ">" }

// ObjStruct is a value-semantics struct instance: fields by name.
type ObjStruct struct {
	ObjHeader
	Def    *ObjStructDef
	Fields map[string]Value
}

func (s *ObjStruct) String() string {
	parts := make([]string, 0, len(s.Def.Fields))
	for _, f := range s.Def.Fields {
		parts = append(parts, f+": "+s.Fields[f].String())
	}
	return s.Def.Name + "(" + strings.Join(parts, ", ") + ")"
}

// ObjClass is a class's runtime shape: its prototype (methods as
// closures, keyed by name), optional superclass, and static members.
type ObjClass struct {
	ObjHeader
	Name    string
	Super   *ObjClass
	Proto   *ObjDict
	Statics *ObjDict
}

func (c *ObjClass) String() string { return "<class " + c.Name + ">" }

// ObjInstance is a class instance: reference semantics, a pointer to
// its class for method/proto lookup, and its own field dictionary.
type ObjInstance struct {
	ObjHeader
	Class  *ObjClass
	Fields *ObjDict
}

func (i *ObjInstance) String() string { return "<" + i.Class.Name + " instance>" }

// ObjModule is a loaded module's export table plus loader state
// (spec.md §4.10).
type ObjModule struct {
	ObjHeader
	Path    string
	Exports *ObjDict
	State   ModuleState
	// DebugID correlates this module's trace/debug output across a run
	// (internal/modules stamps it with a uuid at load time); empty for
	// modules created without a loader (e.g. ad-hoc tests).
	DebugID string
}

func (m *ObjModule) String() string { return "<module " + m.Path + ">" }

// ModuleState is the loader state machine spec.md §4.10 describes.
type ModuleState int

const (
	ModuleUnloaded ModuleState = iota
	ModuleLoading
	ModuleLoaded
	ModuleFailed
)

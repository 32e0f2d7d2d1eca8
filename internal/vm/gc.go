package vm

import (
	"hash/fnv"
	"time"
)

// GCStats are the collector's observability counters (spec.md §4.9
// Observability).
type GCStats struct {
	Collections     int
	TotalAllocated  int
	ObjectsFreed    int
	PeakAllocated   int
	CurrentAllocated int
	TotalGCTime     time.Duration
}

// GC is the tri-colour mark-sweep collector over every Obj the VM
// allocates. Objects are non-moving and linked into one intrusive
// allocation list (ObjHeader.next) so sweep needs no separate
// registry; strings are additionally deduplicated through an
// open-addressed, FNV-1a-hashed intern table with linear probing
// (spec.md §4.9 Policies).
//
// Grounded on spec.md §4.9 directly; the teacher repo has no GC layer
// of its own (it relies on the host Go runtime), so this is this
// project's own translation of the spec's native mark-sweep design
// into Go, built the way the teacher builds its other hand-rolled
// data structures (explicit structs, no generics, small focused
// methods) rather than by leaning on a third-party GC/arena library —
// no pack example ships one, so there is nothing to wire here; see
// DESIGN.md.
type GC struct {
	head      Obj // head of the intrusive allocation list
	threshold int
	allocated int
	verbose   bool
	stats     GCStats

	strings     []*ObjString // open-addressed bucket array, nil = empty, tombstone via sentinel below
	stringCount int
	tombstone   *ObjString
}

const initialGCThreshold = 1 << 20 // 1 MiB of charged object size before the first collection

func NewGC() *GC {
	g := &GC{threshold: initialGCThreshold, tombstone: &ObjString{}}
	g.strings = make([]*ObjString, 64)
	return g
}

// SetVerbose records the verbose flag. Collect does not read it and
// prints nothing per collection; collection counts are available only
// through Stats.
func (g *GC) SetVerbose(v bool) { g.verbose = v }

func (g *GC) Stats() GCStats { return g.stats }

// track links o onto the allocation list and charges its size against
// the collection threshold, matching spec.md §4.9's "after any
// allocation that would exceed it, a collection is scheduled before
// the next safe point" rule — the actual collection call is made by
// the VM at its interpreter-loop safe point via MaybeCollect.
func (g *GC) track(o Obj, size int) {
	h := o.header()
	h.size = size
	h.next = g.head
	g.head = o
	g.allocated += size
	g.stats.TotalAllocated += size
	g.stats.CurrentAllocated += size
	if g.stats.CurrentAllocated > g.stats.PeakAllocated {
		g.stats.PeakAllocated = g.stats.CurrentAllocated
	}
}

// NewArray allocates and tracks a fresh array object.
func (g *GC) NewArray(elems []Value) *ObjArray {
	a := &ObjArray{Elements: elems}
	g.track(a, 32+len(elems)*16)
	return a
}

func (g *GC) NewDict() *ObjDict {
	d := NewObjDict()
	g.track(d, 48)
	return d
}

func (g *GC) NewFunction(name string, arity int, chunk *Chunk) *ObjFunction {
	f := &ObjFunction{Name: name, Arity: arity, Chunk: chunk}
	g.track(f, 64+len(chunk.Code))
	return f
}

func (g *GC) NewClosure(fn *ObjFunction) *ObjClosure {
	c := &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.UpvalueCount)}
	g.track(c, 32+fn.UpvalueCount*8)
	return c
}

func (g *GC) NewUpvalue(slot *Value, idx int) *ObjUpvalue {
	u := &ObjUpvalue{Location: slot, StackIdx: idx}
	g.track(u, 24)
	return u
}

func (g *GC) NewNative(name string, fn func(*VM, []Value) (Value, error)) *ObjNative {
	n := &ObjNative{Name: name, Fn: fn}
	g.track(n, 24)
	return n
}

func (g *GC) NewStructDef(name string, fields []string) *ObjStructDef {
	d := &ObjStructDef{Name: name, Fields: fields, Proto: NewObjDict()}
	g.track(d, 32+len(fields)*8)
	return d
}

func (g *GC) NewStruct(def *ObjStructDef) *ObjStruct {
	s := &ObjStruct{Def: def, Fields: map[string]Value{}}
	g.track(s, 32+len(def.Fields)*16)
	return s
}

func (g *GC) NewClass(name string) *ObjClass {
	c := &ObjClass{Name: name, Proto: NewObjDict(), Statics: NewObjDict()}
	g.track(c, 48)
	return c
}

func (g *GC) NewInstance(class *ObjClass) *ObjInstance {
	i := &ObjInstance{Class: class, Fields: NewObjDict()}
	g.track(i, 32)
	return i
}

func (g *GC) NewModule(path string) *ObjModule {
	m := &ObjModule{Path: path, Exports: NewObjDict()}
	g.track(m, 48)
	return m
}

// Intern returns the canonical *ObjString for s, allocating and
// inserting it on first sight (spec.md §4.9: "string deduplication is
// done at intern time (FNV-1a hash into a bucketed open-addressed
// table with linear probing and ≤ 0.75 load factor)").
func (g *GC) Intern(s string) *ObjString {
	if g.stringCount*4 >= len(g.strings)*3 { // load factor > 0.75
		g.growStringTable()
	}
	h := fnvHash(s)
	idx := int(h) % len(g.strings)
	firstTombstone := -1
	for {
		entry := g.strings[idx]
		if entry == nil {
			slot := idx
			if firstTombstone != -1 {
				slot = firstTombstone
			}
			obj := &ObjString{Value: s, hash: h}
			g.track(obj, 16+len(s))
			g.strings[slot] = obj
			g.stringCount++
			return obj
		}
		if entry == g.tombstone {
			if firstTombstone == -1 {
				firstTombstone = idx
			}
		} else if entry.hash == h && entry.Value == s {
			return entry
		}
		idx = (idx + 1) % len(g.strings)
	}
}

func (g *GC) growStringTable() {
	old := g.strings
	g.strings = make([]*ObjString, len(old)*2)
	g.stringCount = 0
	for _, s := range old {
		if s == nil || s == g.tombstone {
			continue
		}
		idx := int(s.hash) % len(g.strings)
		for g.strings[idx] != nil {
			idx = (idx + 1) % len(g.strings)
		}
		g.strings[idx] = s
		g.stringCount++
	}
}

func fnvHash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// ShouldCollect reports whether charged allocation has crossed the
// threshold since the last collection.
func (g *GC) ShouldCollect() bool { return g.allocated >= g.threshold }

// Collect runs one full mark-sweep cycle rooted at the given
// snapshots of live VM state (spec.md §4.9 Mark phase roots: stack,
// call-frame closures, globals, open-upvalue list, loading modules,
// and the intern pool itself via reachability, not a blanket keep).
func (g *GC) Collect(roots GCRoots) {
	start := time.Now()
	g.markRoots(roots)
	g.sweep()
	g.sweepStrings()
	g.threshold = g.stats.CurrentAllocated * 2
	if g.threshold < initialGCThreshold {
		g.threshold = initialGCThreshold
	}
	g.allocated = 0
	g.stats.Collections++
	g.stats.TotalGCTime += time.Since(start)
}

// GCRoots is the snapshot of live state Collect marks from.
type GCRoots struct {
	Stack         []Value
	Globals       *ObjDict
	OpenUpvalues  []*ObjUpvalue
	LoadingModules []*ObjModule
	Frames        []*ObjClosure
}

func (g *GC) markRoots(roots GCRoots) {
	var stack []Obj
	markValue := func(v Value) {
		if v.Obj != nil {
			stack = append(stack, v.Obj)
		}
	}
	for _, v := range roots.Stack {
		markValue(v)
	}
	if roots.Globals != nil {
		stack = append(stack, roots.Globals)
	}
	for _, u := range roots.OpenUpvalues {
		stack = append(stack, u)
	}
	for _, m := range roots.LoadingModules {
		stack = append(stack, m)
	}
	for _, c := range roots.Frames {
		if c != nil {
			stack = append(stack, c)
		}
	}

	for len(stack) > 0 {
		o := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if o == nil || o.header().marked {
			continue
		}
		o.header().marked = true
		stack = append(stack, g.references(o)...)
	}
}

// references returns the direct outgoing edges of o (spec.md §4.9's
// "closure→function→chunk-constants, array→elements,
// object→keys+values+prototype, struct→fields, upvalue→its value").
func (g *GC) references(o Obj) []Obj {
	var out []Obj
	switch n := o.(type) {
	case *ObjArray:
		for _, v := range n.Elements {
			if v.Obj != nil {
				out = append(out, v.Obj)
			}
		}
	case *ObjDict:
		for _, k := range n.Keys {
			if v, ok := n.Values[k]; ok && v.Obj != nil {
				out = append(out, v.Obj)
			}
		}
		if n.Proto != nil {
			out = append(out, n.Proto)
		}
	case *ObjClosure:
		out = append(out, n.Function)
		for _, u := range n.Upvalues {
			if u != nil {
				out = append(out, u)
			}
		}
	case *ObjFunction:
		for _, c := range n.Chunk.Constants {
			if c.Obj != nil {
				out = append(out, c.Obj)
			}
		}
	case *ObjUpvalue:
		v := n.Get()
		if v.Obj != nil {
			out = append(out, v.Obj)
		}
	case *ObjStruct:
		out = append(out, n.Def)
		for _, v := range n.Fields {
			if v.Obj != nil {
				out = append(out, v.Obj)
			}
		}
	case *ObjStructDef:
		out = append(out, n.Proto)
	case *ObjClass:
		out = append(out, n.Proto, n.Statics)
		if n.Super != nil {
			out = append(out, n.Super)
		}
	case *ObjInstance:
		out = append(out, n.Class, n.Fields)
	case *ObjModule:
		out = append(out, n.Exports)
	}
	return out
}

func (g *GC) sweep() {
	var prev Obj
	freed := 0
	for o := g.head; o != nil; {
		h := o.header()
		next := h.next
		if h.marked {
			h.marked = false
			prev = o
		} else {
			freed++
			g.stats.CurrentAllocated -= h.size
			if prev == nil {
				g.head = next
			} else {
				prev.header().next = next
			}
		}
		o = next
	}
	g.stats.ObjectsFreed += freed
}

// sweepStrings reclaims unmarked interned strings, matching spec.md
// §4.9's "a separate sweep pass reclaims unmarked interned strings".
// A string is live here if it is still present on the main
// allocation list (swept above); entries whose object was collected
// are replaced with the tombstone sentinel so probing continues past
// the gap.
func (g *GC) sweepStrings() {
	live := map[*ObjString]bool{}
	for o := g.head; o != nil; o = o.header().next {
		if s, ok := o.(*ObjString); ok {
			live[s] = true
		}
	}
	for i, s := range g.strings {
		if s != nil && s != g.tombstone && !live[s] {
			g.strings[i] = g.tombstone
			g.stringCount--
		}
	}
}

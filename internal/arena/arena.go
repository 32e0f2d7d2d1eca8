// Package arena provides tagged allocation counters for the pipeline
// stages (AST, symbol table, compiler). An Arena records allocation
// counts and byte totals per subsystem; it owns no memory, and the
// VM's objects and strings are managed by internal/vm/gc.go, not here.
package arena

import "fmt"

// Tag identifies which subsystem an arena (or an allocation within a
// tracing arena) belongs to.
type Tag string

const (
	TagAST       Tag = "AST"
	TagSymbols   Tag = "SYMBOLS"
	TagCompiler  Tag = "COMPILER"
	TagBytecode  Tag = "BYTECODE"
	TagVM        Tag = "VM"
	TagStrings   Tag = "STRINGS"
	TagObjects   Tag = "OBJECTS"
)

// Stats reports allocator usage for diagnostics and leak tracing.
type Stats struct {
	Tag         Tag
	Allocations int
	LiveBytes   int64
	PeakBytes   int64
	Resets      int
}

// Arena is an allocation counter tagged with a subsystem. It holds no
// slabs: Alloc returns an ordinary Go slice, and Reset and Destroy
// only adjust the recorded statistics.
//
// Arena does not hold Go values directly (Go arrays/structs allocated
// through it still live on the Go heap) — it exists to give the AST
// and symbol-table packages a single place to count allocations and
// to express "reset all nodes from this compilation" as one call,
// matching the pool-per-phase discipline spec.md §4.2 requires of a
// native implementation.
type Arena struct {
	tag   Tag
	stats Stats
}

// New creates an arena tagged for bookkeeping/statistics purposes.
func New(tag Tag) *Arena {
	return &Arena{tag: tag, stats: Stats{Tag: tag}}
}

// Alloc records an allocation of size bytes and returns a freshly
// zeroed byte slice of that size. Callers that need typed values
// allocate them normally in Go and call Track to attribute the bytes
// to this arena. Nothing in this repository calls Alloc at present;
// the pipeline attributes its stages' sizes through Track.
func (a *Arena) Alloc(size int) []byte {
	a.track(int64(size))
	return make([]byte, size)
}

// Track attributes size bytes of an allocation made elsewhere to this
// arena's statistics, without allocating memory itself. AST and symbol
// table construction use this after allocating their typed nodes so
// that Stats stays accurate without requiring every node field to be
// routed through Alloc.
func (a *Arena) Track(size int64) {
	a.stats.Allocations++
	a.stats.LiveBytes += size
	if a.stats.LiveBytes > a.stats.PeakBytes {
		a.stats.PeakBytes = a.stats.LiveBytes
	}
}

// Strdup records an allocation for a string copy and returns it
// unchanged (Go strings are immutable and already owned by the
// runtime; this exists so callers follow the same strdup-then-own
// idiom as the native implementation without double-copying).
func (a *Arena) Strdup(s string) string {
	a.track(int64(len(s)))
	return s
}

func (a *Arena) track(n int64) {
	a.stats.Allocations++
	a.stats.LiveBytes += n
	if a.stats.LiveBytes > a.stats.PeakBytes {
		a.stats.PeakBytes = a.stats.LiveBytes
	}
}

// Reset reclaims all allocations attributed to this arena in O(1):
// it zeroes LiveBytes and counts the reset, leaving Allocations and
// PeakBytes as they were. Individual Go allocations
// become garbage for the Go GC to collect on its own schedule; this
// arena only ever tracked, not owned, their lifetime.
func (a *Arena) Reset() {
	a.stats.LiveBytes = 0
	a.stats.Resets++
}

// Destroy is Reset plus a final accounting snapshot; after Destroy the
// arena must not be used again.
func (a *Arena) Destroy() Stats {
	final := a.stats
	a.stats = Stats{Tag: a.tag}
	return final
}

// Stats returns a snapshot of current usage.
func (a *Arena) Stats() Stats { return a.stats }

func (s Stats) String() string {
	return fmt.Sprintf("%s: %d allocations, %d bytes live (peak %d), %d resets",
		s.Tag, s.Allocations, s.LiveBytes, s.PeakBytes, s.Resets)
}

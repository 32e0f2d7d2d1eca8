package compiler_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/pipeline"
	"github.com/lumen-lang/lumen/internal/vm"
)

func compile(t *testing.T, source string) *pipeline.Context {
	t.Helper()
	diags := diagnostics.New(&bytes.Buffer{})
	gc := vm.NewGC()
	return pipeline.Compile(diags, "<test>", source, gc, false)
}

func TestCompileEmitsNonEmptyChunkForTopLevelCode(t *testing.T) {
	ctx := compile(t, "let x = 1 + 2\n")
	require.False(t, ctx.Diags.HasErrors())
	require.NotNil(t, ctx.Function)
	require.NotEmpty(t, ctx.Function.Chunk.Code)
}

func TestCompileNestedFunctionGetsOwnFunctionObject(t *testing.T) {
	ctx := compile(t, `
func outer() {
	func inner() {
		return 1
	}
	return inner
}
`)
	require.False(t, ctx.Diags.HasErrors())
	require.NotNil(t, ctx.Function)
}

func TestCompileClassDeclarationSucceeds(t *testing.T) {
	ctx := compile(t, `
class Animal {
	var name

	func init(name) {
		self.name = name
	}

	func speak() {
		return self.name
	}
}
let a = Animal("Rex")
`)
	require.False(t, ctx.Diags.HasErrors())
	require.NotNil(t, ctx.Function)
}

func TestCompileModuleEmitsExportOpcodes(t *testing.T) {
	diags := diagnostics.New(&bytes.Buffer{})
	gc := vm.NewGC()
	ctx := pipeline.Compile(diags, "<test>", "export let greeting = \"hi\"\n", gc, true)
	require.False(t, diags.HasErrors())
	require.NotNil(t, ctx.Function)

	found := false
	for _, op := range ctx.Function.Chunk.Code {
		if vm.OpCode(op) == vm.OpModuleExport || vm.OpCode(op) == vm.OpModuleExportName {
			found = true
			break
		}
	}
	require.True(t, found, "module export must lower to an export opcode")
}

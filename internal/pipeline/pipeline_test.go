package pipeline_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/pipeline"
	"github.com/lumen-lang/lumen/internal/vm"
)

func TestRunSimpleProgram(t *testing.T) {
	diags := diagnostics.New(&bytes.Buffer{})
	machine := vm.New()

	ctx := pipeline.Run(machine, diags, "test.lum", "let x = 1 + 2\n")

	require.False(t, diags.HasErrors(), "unexpected diagnostics: %+v", diags.Errors())
	require.Equal(t, vm.InterpretOK, ctx.Result)
	require.NoError(t, ctx.RunErr)
}

func TestRunContinuesPastStageErrors(t *testing.T) {
	diags := diagnostics.New(&bytes.Buffer{})
	machine := vm.New()

	// Unterminated string: the lexer records an error but parsing and
	// later stages must still be attempted best-effort (spec.md §4.11).
	ctx := pipeline.Run(machine, diags, "broken.lum", `let s = "unterminated`)

	require.True(t, diags.HasErrors())
	require.NotNil(t, ctx)
}

func TestCompileWithoutExecuting(t *testing.T) {
	diags := diagnostics.New(&bytes.Buffer{})
	gc := vm.NewGC()

	ctx := pipeline.Compile(diags, "module.lum", "let y = 10\n", gc, true)

	require.False(t, diags.HasErrors())
	require.NotNil(t, ctx.Function)
}

func TestArenaStatsTrackEachCompilationStage(t *testing.T) {
	diags := diagnostics.New(&bytes.Buffer{})
	machine := vm.New()

	ctx := pipeline.Run(machine, diags, "test.lum", "let x = 1 + 2\nlet y = x * 3\n")
	require.False(t, diags.HasErrors())

	stats := ctx.ArenaStats()
	require.Len(t, stats, 3)
	for _, s := range stats {
		require.Positive(t, s.Allocations, "arena %s should have recorded at least one allocation", s.Tag)
	}
}

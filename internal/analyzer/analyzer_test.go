package analyzer_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-lang/lumen/internal/analyzer"
	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/lexer"
	"github.com/lumen-lang/lumen/internal/parser"
)

func analyze(t *testing.T, source string) *diagnostics.Diagnostics {
	t.Helper()
	diags := diagnostics.New(&bytes.Buffer{})
	diags.SetSource("<test>", source)
	lex := lexer.New(source)
	prog, _ := parser.ParseProgram(lex, diags, "<test>")
	require.NotNil(t, prog)
	analyzer.New(diags, "<test>").Analyze(prog)
	return diags
}

func TestAnalyzeAcceptsWellTypedProgram(t *testing.T) {
	diags := analyze(t, "let x = 1\nlet y = x + 2\n")
	require.False(t, diags.HasErrors())
}

func TestAnalyzeRejectsUndeclaredName(t *testing.T) {
	diags := analyze(t, "let y = undefinedThing\n")
	require.True(t, diags.HasErrors())
}

func TestAnalyzeRejectsAssignToLetBinding(t *testing.T) {
	diags := analyze(t, "let x = 1\nx = 2\n")
	require.True(t, diags.HasErrors())
}

func TestAnalyzeAllowsAssignToVarBinding(t *testing.T) {
	diags := analyze(t, "var x = 1\nx = 2\n")
	require.False(t, diags.HasErrors())
}

func TestAnalyzeRejectsUnknownSuperclass(t *testing.T) {
	diags := analyze(t, "class Dog : Ghost {}\n")
	require.True(t, diags.HasErrors())
}

func TestAnalyzeRejectsExportOfUndeclaredName(t *testing.T) {
	diags := analyze(t, "export { doesNotExist }\n")
	require.True(t, diags.HasErrors())
}

func TestAnalyzeAllowsExportOfDeclaredName(t *testing.T) {
	diags := analyze(t, "let greeting = \"hi\"\nexport { greeting }\n")
	require.False(t, diags.HasErrors())
}

package lumen_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-lang/lumen/internal/vm"
	"github.com/lumen-lang/lumen/pkg/lumen"
)

func TestEvalSimpleExpression(t *testing.T) {
	host := lumen.New(t.TempDir())

	_, err := host.Eval("let x = 1 + 2\n")
	require.NoError(t, err)
	require.False(t, host.Diagnostics().HasErrors())
}

func TestBindExposesGoFunctionToScript(t *testing.T) {
	host := lumen.New(t.TempDir())

	called := false
	host.Bind("hostPing", func(args []vm.Value) (vm.Value, error) {
		called = true
		return vm.Int_(7), nil
	})

	_, err := host.Eval("let result = hostPing()\n")
	require.NoError(t, err)
	require.True(t, called)
}

func TestSetAndGetGlobal(t *testing.T) {
	host := lumen.New(t.TempDir())

	host.Set("answer", vm.Int_(42))
	v, ok := host.Get("answer")
	require.True(t, ok)
	require.Equal(t, int64(42), v.Int)
}

func TestCallScriptFunction(t *testing.T) {
	host := lumen.New(t.TempDir())

	_, err := host.Eval("func double(n) { return n * 2 }\n")
	require.NoError(t, err)

	result, err := host.Call("double", vm.Int_(21))
	require.NoError(t, err)
	require.Equal(t, int64(42), result.Int)
}

package modules_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-lang/lumen/internal/modules"
	"github.com/lumen-lang/lumen/internal/vm"
)

func TestLoadBuiltinString(t *testing.T) {
	gc := vm.NewGC()
	loader := modules.New(gc, t.TempDir())

	v, ok := loader.LoadBuiltin("string", "upper")
	require.True(t, ok)
	require.Equal(t, vm.VObjNative, v.Kind)
}

func TestLoadBuiltinUnknownModule(t *testing.T) {
	gc := vm.NewGC()
	loader := modules.New(gc, t.TempDir())

	_, ok := loader.LoadBuiltin("nonexistent", "foo")
	require.False(t, ok)
}

func TestLoadBuiltinModulePath(t *testing.T) {
	gc := vm.NewGC()
	loader := modules.New(gc, t.TempDir())
	machine := vm.New()
	machine.Loader = loader

	mod, err := loader.Load(machine, "string")
	require.NoError(t, err)
	require.Equal(t, vm.ModuleLoaded, mod.State)
	_, ok := mod.Exports.Get("upper")
	require.True(t, ok)
}

func TestLoadFileModule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greeting.lum", "export let greeting = \"hi\"\n")

	gc := vm.NewGC()
	loader := modules.New(gc, dir)
	machine := vm.New()
	machine.Loader = loader

	mod, err := loader.Load(machine, "@/greeting")
	require.NoError(t, err)
	require.Equal(t, vm.ModuleLoaded, mod.State)

	v, ok := mod.Exports.Get("greeting")
	require.True(t, ok)
	require.Equal(t, vm.VObjString, v.Kind)
}

func TestLoadFileModuleCachesByResolvedPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "once.lum", "export let calls = 1\n")

	gc := vm.NewGC()
	loader := modules.New(gc, dir)
	machine := vm.New()
	machine.Loader = loader

	first, err := loader.Load(machine, "@/once")
	require.NoError(t, err)
	second, err := loader.Load(machine, "@/once")
	require.NoError(t, err)

	require.Same(t, first, second)
}

func TestLoadFileModuleMissing(t *testing.T) {
	gc := vm.NewGC()
	loader := modules.New(gc, t.TempDir())
	machine := vm.New()
	machine.Loader = loader

	_, err := loader.Load(machine, "@/does_not_exist")
	require.Error(t, err)
}

package cache_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-lang/lumen/internal/cache"
	"github.com/lumen-lang/lumen/internal/vm"
)

func buildSampleFunction(gc *vm.GC) *vm.ObjFunction {
	chunk := vm.NewChunk()
	chunk.EmitConstant(vm.Int_(42), 1, 1)
	chunk.WriteOp(vm.OpReturn, 1, 1)
	fn := gc.NewFunction("sample", 0, chunk)
	fn.UpvalueCount = 0
	return fn
}

func TestEncodeDecodeFunctionRoundTrip(t *testing.T) {
	gc := vm.NewGC()
	fn := buildSampleFunction(gc)

	data := cache.EncodeFunction(fn)

	decodeGC := vm.NewGC()
	decoded, err := cache.DecodeFunction(data, decodeGC)
	require.NoError(t, err)
	require.Equal(t, fn.Name, decoded.Name)
	require.Equal(t, fn.Arity, decoded.Arity)
	require.Equal(t, fn.Chunk.Code, decoded.Chunk.Code)
	require.Len(t, decoded.Chunk.Constants, 1)
	require.Equal(t, vm.VInt, decoded.Chunk.Constants[0].Kind)
	require.Equal(t, int64(42), decoded.Chunk.Constants[0].Int)
}

func TestDecodeFunctionRejectsWrongVersion(t *testing.T) {
	_, err := cache.DecodeFunction([]byte{0xff, 0xff, 0xff, 0xff}, vm.NewGC())
	require.Error(t, err)
}

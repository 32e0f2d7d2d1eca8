package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lumen-lang/lumen/internal/vm"
)

func TestChunkDebugProtoRoundTripsThroughProtobufWire(t *testing.T) {
	gc := vm.NewGC()
	chunk := vm.NewChunk()
	chunk.EmitConstant(vm.Int_(7), 1, 1)
	chunk.EmitConstant(vm.ObjValue(gc.Intern("hi")), 1, 2)
	chunk.WriteOp(vm.OpAdd, 1, 3)

	blob, err := chunk.DebugProto()
	require.NoError(t, err)
	require.NotEmpty(t, blob)

	var s structpb.Struct
	require.NoError(t, proto.Unmarshal(blob, &s))

	fields := s.AsMap()
	require.Equal(t, float64(len(chunk.Code)), fields["code_length"])
	require.Equal(t, float64(2), fields["constant_count"])
	require.Len(t, fields["constants"], 2)
}

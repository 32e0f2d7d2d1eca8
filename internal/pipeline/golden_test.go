package pipeline_test

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/pipeline"
	"github.com/lumen-lang/lumen/internal/vm"
)

// Golden fixtures bundle a source program with its expected terminal
// global value in one txtar archive (source.lum + expect), the way
// compiler test suites built on golang.org/x/tools keep fixtures as
// one file instead of scattering matching pairs across testdata.
var goldenFixtures = []string{
	`
-- source.lum --
let result = 2 + 3 * 4
-- expect --
result = 14
`,
	`
-- source.lum --
func fib(n) {
	if n < 2 {
		return n
	}
	return fib(n - 1) + fib(n - 2)
}
let result = fib(10)
-- expect --
result = 55
`,
	`
-- source.lum --
let arr = [1, 2, 3]
let result = arr[0] + arr[1] + arr[2]
-- expect --
result = 6
`,
}

func TestGoldenPipelineFixtures(t *testing.T) {
	for i, raw := range goldenFixtures {
		raw := raw
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			archive := txtar.Parse([]byte(raw))
			var source, expect string
			for _, f := range archive.Files {
				switch f.Name {
				case "source.lum":
					source = string(f.Data)
				case "expect":
					expect = string(f.Data)
				}
			}
			require.NotEmpty(t, source)
			require.NotEmpty(t, expect)

			name, wantStr, ok := strings.Cut(strings.TrimSpace(expect), " = ")
			require.True(t, ok, "expect block must be `name = value`")
			want, err := strconv.ParseInt(wantStr, 10, 64)
			require.NoError(t, err)

			machine := vm.New()
			diags := diagnostics.New(&bytes.Buffer{})
			ctx := pipeline.Run(machine, diags, "golden.lum", source)
			require.False(t, diags.HasErrors(), "unexpected diagnostics: %v", diags.Errors())
			require.Equal(t, vm.InterpretOK, ctx.Result)

			got, ok := machine.Globals.Get(name)
			require.True(t, ok, "global %q not found", name)
			require.Equal(t, want, got.Int)
		})
	}
}

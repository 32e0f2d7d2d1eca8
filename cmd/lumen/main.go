// Command lumen is the CLI front end: run/build/bundle/new/cache
// list/repl subcommands, dispatched by hand over os.Args the way the
// teacher's own cmd/funxy/main.go does (a switch over os.Args[1],
// no CLI framework — no pack example reaches for cobra/kingpin/urfave
// for this, so subcommand dispatch stays hand-rolled here too).
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lumen-lang/lumen/internal/cache"
	"github.com/lumen-lang/lumen/internal/config"
	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/modules"
	"github.com/lumen-lang/lumen/internal/pipeline"
	"github.com/lumen-lang/lumen/internal/vm"
)

const (
	exitOK      = 0
	exitError   = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return exitUsage
	}

	switch args[0] {
	case "run":
		return cmdRun(args[1:])
	case "build":
		return cmdBuild(args[1:])
	case "bundle":
		return cmdBundle(args[1:])
	case "new":
		return cmdNew(args[1:])
	case "cache":
		return cmdCache(args[1:])
	case "repl":
		return cmdRepl(args[1:])
	case "-help", "--help", "help":
		usage()
		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "lumen: unknown command %q\n", args[0])
		usage()
		return exitUsage
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: lumen <command> [arguments]

commands:
  run <file>       compile and execute a source file
  build <file>     compile a source file to a bytecode cache entry
  bundle <dir>     compile every source file under a directory
  new <name>       scaffold a new module (manifest + main source)
  cache list       list cached compiled bytecode entries
  repl             start an interactive read-eval-print loop

environment:
  LUMEN_MODULE_PATH   colon-separated module search roots
  LUMEN_DEBUG         enable verbose diagnostic output`)
}

func newDiagnostics() *diagnostics.Diagnostics {
	diags := diagnostics.New(os.Stderr)
	if os.Getenv(config.EnvDebug) != "" {
		diags.EnableColor(true)
	}
	return diags
}

// printDebugStats prints arena and GC usage to stderr when LUMEN_DEBUG
// is set, giving the "optional verbose mode" spec.md §4.9 mentions for
// the collector a matching one for the arena bookkeeping of §4.2.
func printDebugStats(ctx *pipeline.Context, v *vm.VM) {
	for _, s := range ctx.ArenaStats() {
		fmt.Fprintf(os.Stderr, "debug: arena %s\n", s)
	}
	gcStats := v.GC().Stats()
	fmt.Fprintf(os.Stderr, "debug: gc collections=%d freed=%d peak=%d live=%d\n",
		gcStats.Collections, gcStats.ObjectsFreed, gcStats.PeakAllocated, gcStats.CurrentAllocated)

	if ctx.Function != nil {
		if blob, err := ctx.Function.Chunk.DebugProto(); err == nil {
			fmt.Fprintf(os.Stderr, "debug: chunk proto dump %d bytes\n", len(blob))
		}
	}
}

func newVM(projectRoot string) *vm.VM {
	v := vm.New()
	v.Loader = modules.New(v.GC(), projectRoot)
	return v
}

func cmdRun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: lumen run <file>")
		return exitUsage
	}
	path := args[0]
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumen: %s\n", err)
		return exitError
	}

	diags := newDiagnostics()
	v := newVM(filepath.Dir(path))
	ctx := pipeline.Run(v, diags, path, string(source))

	if os.Getenv(config.EnvDebug) != "" {
		printDebugStats(ctx, v)
	}

	if diags.HasErrors() {
		return exitError
	}
	if ctx.RunErr != nil {
		fmt.Fprintf(os.Stderr, "lumen: %s\n", ctx.RunErr)
		return exitError
	}
	if ctx.Result != vm.InterpretOK {
		return exitError
	}
	return exitOK
}

func openCache(projectRoot string) (*cache.Store, error) {
	dir := filepath.Join(projectRoot, ".lumen")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return cache.Open(filepath.Join(dir, "cache.db"))
}

func cmdBuild(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: lumen build <file>")
		return exitUsage
	}
	path := args[0]
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumen: %s\n", err)
		return exitError
	}

	store, err := openCache(filepath.Dir(path))
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumen: %s\n", err)
		return exitError
	}
	defer store.Close()

	hash := cache.HashSource(string(source))
	diags := newDiagnostics()
	gc := vm.NewGC()

	if fn, ok, err := store.Lookup(hash, gc); err == nil && ok {
		fmt.Fprintf(os.Stdout, "%s: cache hit (%s)\n", path, hash[:12])
		_ = fn
		return exitOK
	}

	ctx := pipeline.Compile(diags, path, string(source), gc, false)
	if diags.HasErrors() || ctx.Function == nil {
		return exitError
	}
	if err := store.Store(hash, path, ctx.Function); err != nil {
		fmt.Fprintf(os.Stderr, "lumen: %s\n", err)
		return exitError
	}
	fmt.Fprintf(os.Stdout, "%s: compiled (%s)\n", path, hash[:12])
	return exitOK
}

func cmdBundle(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: lumen bundle <dir>")
		return exitUsage
	}
	root := args[0]
	status := exitOK
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !config.HasSourceExt(path) {
			return err
		}
		if code := cmdBuild([]string{path}); code != exitOK {
			status = code
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumen: %s\n", err)
		return exitError
	}
	return status
}

func cmdNew(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: lumen new <name>")
		return exitUsage
	}
	name := args[0]
	if err := os.MkdirAll(name, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "lumen: %s\n", err)
		return exitError
	}
	manifest := fmt.Sprintf("name: %s\nversion: \"0.1.0\"\ndescription: \"\"\nmain: main.lum\ntype: app\nsources:\n  - main.lum\n", name)
	if err := os.WriteFile(filepath.Join(name, "manifest.yaml"), []byte(manifest), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "lumen: %s\n", err)
		return exitError
	}
	main := "import \"io\"\n\nfunc main() {\n    io.println(\"hello, \" + \"" + name + "\")\n}\n\nmain()\n"
	if err := os.WriteFile(filepath.Join(name, "main.lum"), []byte(main), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "lumen: %s\n", err)
		return exitError
	}
	fmt.Fprintf(os.Stdout, "created %s/\n", name)
	return exitOK
}

func cmdCache(args []string) int {
	if len(args) < 1 || args[0] != "list" {
		fmt.Fprintln(os.Stderr, "usage: lumen cache list")
		return exitUsage
	}
	store, err := openCache(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumen: %s\n", err)
		return exitError
	}
	defer store.Close()

	entries, err := store.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumen: %s\n", err)
		return exitError
	}
	for _, e := range entries {
		fmt.Fprintf(os.Stdout, "%s  %6d bytes  %s  %s\n", e.Hash[:12], e.Size, e.CreatedAt.Format("2006-01-02 15:04:05"), e.Path)
	}
	return exitOK
}

func cmdRepl(args []string) int {
	diags := newDiagnostics()
	diags.SetMaxErrors(1)
	v := newVM(".")
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Fprintln(os.Stdout, "lumen "+config.Version+" — interactive mode, Ctrl-D to exit")
	for {
		fmt.Fprint(os.Stdout, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(os.Stdout)
			return exitOK
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		diags.Clear()
		ctx := pipeline.Run(v, diags, "<repl>", line)
		if ctx.RunErr != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", ctx.RunErr)
		}
	}
}

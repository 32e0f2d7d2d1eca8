// Built-in module registry: the pre-populated export tables spec.md
// §4.10 resolution order checks first ("string", "array", "io", …).
// Each one is a plain *vm.ObjModule whose Exports dictionary holds
// ObjNative closures over vm.Value, grounded the same way as the rest
// of this package's natives (vm.GC.NewNative / runtime errors returned
// as plain Go errors the VM's callValue wraps).
package modules

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lumen-lang/lumen/internal/vm"
)

func newBuiltinModule(gc *vm.GC, path string, natives map[string]func(*vm.VM, []vm.Value) (vm.Value, error)) *vm.ObjModule {
	mod := gc.NewModule(path)
	for name, fn := range natives {
		mod.Exports.Set(name, vm.ObjValue(gc.NewNative(path+"."+name, fn)))
	}
	mod.State = vm.ModuleLoaded
	return mod
}

func argString(args []vm.Value, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %d", i)
	}
	s, ok := args[i].Obj.(*vm.ObjString)
	if !ok {
		return "", fmt.Errorf("argument %d must be a string", i)
	}
	return s.Value, nil
}

func argArray(args []vm.Value, i int) (*vm.ObjArray, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("missing argument %d", i)
	}
	a, ok := args[i].Obj.(*vm.ObjArray)
	if !ok {
		return nil, fmt.Errorf("argument %d must be an array", i)
	}
	return a, nil
}

func newStringModule(gc *vm.GC) *vm.ObjModule {
	return newBuiltinModule(gc, "string", map[string]func(*vm.VM, []vm.Value) (vm.Value, error){
		"upper": func(m *vm.VM, args []vm.Value) (vm.Value, error) {
			s, err := argString(args, 0)
			if err != nil {
				return vm.Nil(), err
			}
			return vm.ObjValue(m.GC().Intern(strings.ToUpper(s))), nil
		},
		"lower": func(m *vm.VM, args []vm.Value) (vm.Value, error) {
			s, err := argString(args, 0)
			if err != nil {
				return vm.Nil(), err
			}
			return vm.ObjValue(m.GC().Intern(strings.ToLower(s))), nil
		},
		"trim": func(m *vm.VM, args []vm.Value) (vm.Value, error) {
			s, err := argString(args, 0)
			if err != nil {
				return vm.Nil(), err
			}
			return vm.ObjValue(m.GC().Intern(strings.TrimSpace(s))), nil
		},
		"split": func(m *vm.VM, args []vm.Value) (vm.Value, error) {
			s, err := argString(args, 0)
			if err != nil {
				return vm.Nil(), err
			}
			sep, err := argString(args, 1)
			if err != nil {
				return vm.Nil(), err
			}
			parts := strings.Split(s, sep)
			elems := make([]vm.Value, len(parts))
			for i, p := range parts {
				elems[i] = vm.ObjValue(m.GC().Intern(p))
			}
			return vm.ObjValue(m.GC().NewArray(elems)), nil
		},
		"contains": func(m *vm.VM, args []vm.Value) (vm.Value, error) {
			s, err := argString(args, 0)
			if err != nil {
				return vm.Nil(), err
			}
			sub, err := argString(args, 1)
			if err != nil {
				return vm.Nil(), err
			}
			return vm.Bool_(strings.Contains(s, sub)), nil
		},
		"len": func(m *vm.VM, args []vm.Value) (vm.Value, error) {
			s, err := argString(args, 0)
			if err != nil {
				return vm.Nil(), err
			}
			return vm.Int_(int64(len(s))), nil
		},
		"parseInt": func(m *vm.VM, args []vm.Value) (vm.Value, error) {
			s, err := argString(args, 0)
			if err != nil {
				return vm.Nil(), err
			}
			n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return vm.Nil(), nil
			}
			return vm.Int_(n), nil
		},
	})
}

func newArrayModule(gc *vm.GC) *vm.ObjModule {
	return newBuiltinModule(gc, "array", map[string]func(*vm.VM, []vm.Value) (vm.Value, error){
		"push": func(m *vm.VM, args []vm.Value) (vm.Value, error) {
			a, err := argArray(args, 0)
			if err != nil {
				return vm.Nil(), err
			}
			if len(args) < 2 {
				return vm.Nil(), fmt.Errorf("array.push expects (array, value)")
			}
			a.Elements = append(a.Elements, args[1])
			return vm.ObjValue(a), nil
		},
		"pop": func(m *vm.VM, args []vm.Value) (vm.Value, error) {
			a, err := argArray(args, 0)
			if err != nil {
				return vm.Nil(), err
			}
			if len(a.Elements) == 0 {
				return vm.Nil(), fmt.Errorf("array.pop: empty array")
			}
			last := a.Elements[len(a.Elements)-1]
			a.Elements = a.Elements[:len(a.Elements)-1]
			return last, nil
		},
		"len": func(m *vm.VM, args []vm.Value) (vm.Value, error) {
			a, err := argArray(args, 0)
			if err != nil {
				return vm.Nil(), err
			}
			return vm.Int_(int64(len(a.Elements))), nil
		},
		"reverse": func(m *vm.VM, args []vm.Value) (vm.Value, error) {
			a, err := argArray(args, 0)
			if err != nil {
				return vm.Nil(), err
			}
			out := make([]vm.Value, len(a.Elements))
			for i, v := range a.Elements {
				out[len(out)-1-i] = v
			}
			return vm.ObjValue(m.GC().NewArray(out)), nil
		},
		"slice": func(m *vm.VM, args []vm.Value) (vm.Value, error) {
			a, err := argArray(args, 0)
			if err != nil {
				return vm.Nil(), err
			}
			if len(args) < 3 {
				return vm.Nil(), fmt.Errorf("array.slice expects (array, start, end)")
			}
			start, end := int(args[1].Int), int(args[2].Int)
			if start < 0 || end > len(a.Elements) || start > end {
				return vm.Nil(), fmt.Errorf("array.slice: index out of range")
			}
			out := make([]vm.Value, end-start)
			copy(out, a.Elements[start:end])
			return vm.ObjValue(m.GC().NewArray(out)), nil
		},
	})
}

func newIOModule(gc *vm.GC) *vm.ObjModule {
	reader := bufio.NewReader(os.Stdin)
	return newBuiltinModule(gc, "io", map[string]func(*vm.VM, []vm.Value) (vm.Value, error){
		"print": func(m *vm.VM, args []vm.Value) (vm.Value, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = a.String()
			}
			fmt.Fprint(os.Stdout, strings.Join(parts, " "))
			return vm.Nil(), nil
		},
		"println": func(m *vm.VM, args []vm.Value) (vm.Value, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = a.String()
			}
			fmt.Fprintln(os.Stdout, strings.Join(parts, " "))
			return vm.Nil(), nil
		},
		"readLine": func(m *vm.VM, args []vm.Value) (vm.Value, error) {
			line, err := reader.ReadString('\n')
			line = strings.TrimRight(line, "\r\n")
			if err != nil && line == "" {
				return vm.Nil(), nil
			}
			return vm.ObjValue(m.GC().Intern(line)), nil
		},
	})
}

// registerBuiltins builds the fixed set of pre-populated built-in
// modules the loader consults before falling through to native `$`
// modules and the file system (spec.md §4.10 resolution order step 1).
func registerBuiltins(gc *vm.GC) map[string]*vm.ObjModule {
	return map[string]*vm.ObjModule{
		"string": newStringModule(gc),
		"array":  newArrayModule(gc),
		"io":     newIOModule(gc),
	}
}

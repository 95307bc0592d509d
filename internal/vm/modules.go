package vm

import (
	"os"

	"github.com/dictu-lang/dictu-go/internal/compiler"
	"github.com/dictu-lang/dictu-go/internal/value"
)

// ModuleBuilder constructs a builtin module's globals table the first
// time it's imported.
type ModuleBuilder func(vm *VM) *value.Table

var builtinModules = map[string]ModuleBuilder{}

// RegisterModule is called from a natives/*mod package's init() to
// install a builtin module under path (SPEC_FULL.md §6.3), mirroring the
// teacher's builtin-registration pattern.
func RegisterModule(path string, builder ModuleBuilder) {
	builtinModules[path] = builder
}

// importModule implements OP_IMPORT/OP_IMPORT_AS (spec.md §4.5): a
// builtin module short-circuits file-based resolution; otherwise the
// path is read as Dictu source, compiled, and executed exactly once, with
// the result cached under path for any later re-import and bound to alias
// in the importer's globals.
func (vm *VM) importModule(path, alias string) error {
	if cached, ok := vm.Modules[path]; ok {
		vm.Globals.Set(vm.Collector.Intern(alias), value.FromObj(cached))
		return nil
	}

	if builder, ok := builtinModules[path]; ok {
		globals := builder(vm)
		mod := &value.ObjModule{Name: path, Globals: globals}
		vm.Collector.Track(mod, 64)
		vm.Modules[path] = mod
		vm.Globals.Set(vm.Collector.Intern(alias), value.FromObj(mod))
		return nil
	}

	return vm.importFile(path, alias)
}

// importFile compiles and runs path as a nested script inside this same
// VM (so the shared collector's single VM root stays valid), with a fresh
// globals table captured afterward as the module's namespace, then
// restores the importing code's own globals.
func (vm *VM) importFile(path, alias string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return vm.throw("could not import '%s': %s", path, err)
	}

	fn, err := compiler.Compile(string(src), vm.Collector)
	if err != nil {
		return vm.throw("could not compile import '%s': %s", path, err)
	}

	savedGlobals := vm.Globals
	moduleGlobals := value.NewTable()
	vm.Globals = moduleGlobals

	// savedGlobals is only reachable through this local while it's
	// displaced; root it explicitly so a GC triggered during the nested
	// run below doesn't un-intern (or reclaim) anything the outer script
	// can only reach through its own globals.
	vm.shadowedGlobals = append(vm.shadowedGlobals, savedGlobals)
	popShadowedGlobals := func() {
		vm.shadowedGlobals = vm.shadowedGlobals[:len(vm.shadowedGlobals)-1]
		vm.Globals = savedGlobals
	}

	closure := &value.ObjClosure{Function: fn}
	vm.Collector.Track(closure, 32)
	vm.push(value.FromObj(closure))
	if err := vm.call(closure, 0); err != nil {
		popShadowedGlobals()
		return err
	}
	if err := vm.run(len(vm.frames) - 1); err != nil {
		popShadowedGlobals()
		return err
	}

	popShadowedGlobals()

	mod := &value.ObjModule{Name: path, Globals: moduleGlobals}
	vm.Collector.Track(mod, 64)
	vm.Modules[path] = mod
	vm.Globals.Set(vm.Collector.Intern(alias), value.FromObj(mod))
	return nil
}

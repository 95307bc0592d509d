package vm

import (
	"os"

	"github.com/dictu-lang/dictu-go/internal/value"
)

// openFile implements OP_OPEN_FILE, mapping Dictu's fopen-style mode
// strings onto os.OpenFile flags (SPEC_FULL.md §9 file methods).
func (vm *VM) openFile(path, mode value.Value) (value.Value, error) {
	pathStr, ok := path.Obj.(*value.ObjString)
	if !ok {
		return value.Value{}, vm.throw("file path must be a string")
	}
	modeStr, ok := mode.Obj.(*value.ObjString)
	if !ok {
		return value.Value{}, vm.throw("file mode must be a string")
	}

	flag, perm, ok := fileFlags(modeStr.Chars)
	if !ok {
		return value.Value{}, vm.throw("unsupported file mode '%s'", modeStr.Chars)
	}
	handle, err := os.OpenFile(pathStr.Chars, flag, perm)
	if err != nil {
		return value.Value{}, vm.throw("could not open file '%s': %s", pathStr.Chars, err)
	}

	f := &value.ObjFile{Path: pathStr.Chars, Mode: modeStr.Chars, Handle: handle}
	vm.Collector.Track(f, 48)
	return value.FromObj(f), nil
}

func fileFlags(mode string) (int, os.FileMode, bool) {
	switch mode {
	case "r":
		return os.O_RDONLY, 0, true
	case "w":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, 0644, true
	case "a":
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, 0644, true
	case "r+":
		return os.O_RDWR, 0, true
	case "w+":
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC, 0644, true
	default:
		return 0, 0, false
	}
}

// closeFile implements OP_CLOSE_FILE: idempotent, since the `with`
// statement's early-return cleanup path may close a file already closed
// by the block's normal exit.
func (vm *VM) closeFile(v value.Value) {
	f, ok := v.Obj.(*value.ObjFile)
	if !ok || f.Closed {
		return
	}
	if h, ok := f.Handle.(*os.File); ok {
		h.Close()
	}
	f.Closed = true
}

// Package filemod fills Dictu's fileMethods table (read, readLine, write,
// writeLine, close) over os.File -- the same object type OP_OPEN_FILE and
// the compiler's `with` lowering produce (SPEC_FULL.md §6.3/§9).
package filemod

import (
	"bufio"
	"io"
	"os"

	"github.com/dictu-lang/dictu-go/internal/value"
	"github.com/dictu-lang/dictu-go/internal/vm"
)

func init() {
	vm.RegisterFileMethod("read", fileRead)
	vm.RegisterFileMethod("readLine", fileReadLine)
	vm.RegisterFileMethod("write", fileWrite)
	vm.RegisterFileMethod("writeLine", fileWriteLine)
	vm.RegisterFileMethod("close", fileClose)
}

func receiverFile(v *vm.VM, argv []value.Value) (*value.ObjFile, bool) {
	f, ok := argv[0].Obj.(*value.ObjFile)
	if !ok {
		v.RuntimeError("receiver is not a file")
		return nil, false
	}
	if f.Closed {
		v.RuntimeError("file '%s' is closed", f.Path)
		return nil, false
	}
	return f, true
}

func fileRead(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	f, ok := receiverFile(v, argv)
	if !ok {
		return value.Empty
	}
	h, ok := f.Handle.(*os.File)
	if !ok {
		return v.RuntimeError("file '%s' has no underlying handle", f.Path)
	}
	data, err := io.ReadAll(h)
	if err != nil {
		return v.RuntimeError("could not read file '%s': %s", f.Path, err)
	}
	return value.FromObj(v.Collector.Intern(string(data)))
}

func fileReadLine(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	f, ok := receiverFile(v, argv)
	if !ok {
		return value.Empty
	}
	h, ok := f.Handle.(*os.File)
	if !ok {
		return v.RuntimeError("file '%s' has no underlying handle", f.Path)
	}
	// f.Reader caches the *bufio.Reader across calls on the ObjFile itself
	// rather than in a side map -- a fresh bufio.Reader per call would read
	// ahead into its internal buffer and discard it, silently skipping
	// lines, and a side map keyed by *ObjFile would outlive the file once
	// it's closed via OP_CLOSE_FILE instead of this package's close().
	br, ok := f.Reader.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(h)
		f.Reader = br
	}
	line, err := br.ReadString('\n')
	if err != nil && line == "" {
		return value.Nil()
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return value.FromObj(v.Collector.Intern(line))
}

func fileWrite(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	f, ok := receiverFile(v, argv)
	if !ok {
		return value.Empty
	}
	if argc != 2 {
		return v.RuntimeError("write() takes 1 argument (%d given)", argc-1)
	}
	h, ok := f.Handle.(*os.File)
	if !ok {
		return v.RuntimeError("file '%s' has no underlying handle", f.Path)
	}
	if _, err := h.WriteString(argv[1].String()); err != nil {
		return v.RuntimeError("could not write to file '%s': %s", f.Path, err)
	}
	return value.Nil()
}

func fileWriteLine(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	f, ok := receiverFile(v, argv)
	if !ok {
		return value.Empty
	}
	if argc != 2 {
		return v.RuntimeError("writeLine() takes 1 argument (%d given)", argc-1)
	}
	h, ok := f.Handle.(*os.File)
	if !ok {
		return v.RuntimeError("file '%s' has no underlying handle", f.Path)
	}
	if _, err := h.WriteString(argv[1].String() + "\n"); err != nil {
		return v.RuntimeError("could not write to file '%s': %s", f.Path, err)
	}
	return value.Nil()
}

func fileClose(rawVM interface{}, argc int, argv []value.Value) value.Value {
	f, ok := argv[0].Obj.(*value.ObjFile)
	if !ok {
		return rawVM.(*vm.VM).RuntimeError("receiver is not a file")
	}
	if !f.Closed {
		if h, ok := f.Handle.(*os.File); ok {
			h.Close()
		}
		f.Closed = true
	}
	return value.Nil()
}

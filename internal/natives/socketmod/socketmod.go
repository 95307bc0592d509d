// Package socketmod implements the built-in Socket module's minimal TCP
// client surface over net (SPEC_FULL.md §6.3); there is no listener.
package socketmod

import (
	"bufio"
	"net"

	"github.com/dictu-lang/dictu-go/internal/value"
	"github.com/dictu-lang/dictu-go/internal/vm"
)

// connHandle wraps a net.Conn as a file-shaped object so send/receive
// reuse the ObjFile plumbing: Handle holds the connection, and filemod's
// write/read natives happen to use the *os.File type assertion, so
// sockets are driven through this module's own functions, which take
// the socket as their first argument, instead of fileMethods.
type connHandle struct {
	conn   net.Conn
	reader *bufio.Reader
}

func init() {
	vm.RegisterModule("Socket", build)
}

func build(v *vm.VM) *value.Table {
	t := value.NewTable()
	set := func(name string, fn value.NativeFn) {
		native := &value.ObjNativeFunc{Name: name, Fn: fn}
		v.Collector.Track(native, 32)
		t.Set(v.Collector.Intern(name), value.FromObj(native))
	}

	set("connect", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 2 {
			return vv.RuntimeError("connect() takes a host and a port")
		}
		host, ok := argv[0].Obj.(*value.ObjString)
		if !ok || argv[1].Kind != value.KindNumber {
			return vv.RuntimeError("connect() takes a host string and a number port")
		}
		conn, err := net.Dial("tcp", net.JoinHostPort(host.Chars, itoa(int(argv[1].Num))))
		if err != nil {
			return vv.RuntimeError("could not connect: %s", err)
		}
		return wrapConn(vv, conn)
	})
	set("send", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		h, ok := handleOf(argv[0])
		if !ok {
			return vv.RuntimeError("send() receiver is not a socket")
		}
		if argc != 2 {
			return vv.RuntimeError("send() takes 1 argument")
		}
		data, ok := argv[1].Obj.(*value.ObjString)
		if !ok {
			return vv.RuntimeError("send() argument must be a string")
		}
		if _, err := h.conn.Write([]byte(data.Chars)); err != nil {
			return vv.RuntimeError("send failed: %s", err)
		}
		return value.Nil()
	})
	set("receiveLine", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		h, ok := handleOf(argv[0])
		if !ok {
			return vv.RuntimeError("receiveLine() receiver is not a socket")
		}
		line, err := h.reader.ReadString('\n')
		if err != nil && line == "" {
			return value.Nil()
		}
		for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
			line = line[:len(line)-1]
		}
		return value.FromObj(vv.Collector.Intern(line))
	})
	set("close", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		h, ok := handleOf(argv[0])
		if !ok {
			return vv.RuntimeError("close() receiver is not a socket")
		}
		h.conn.Close()
		return value.Nil()
	})
	return t
}

func wrapConn(v *vm.VM, conn net.Conn) value.Value {
	h := &connHandle{conn: conn, reader: bufio.NewReader(conn)}
	f := &value.ObjFile{Path: conn.RemoteAddr().String(), Mode: "socket", Handle: h}
	v.Collector.Track(f, 64)
	return value.FromObj(f)
}

func handleOf(v value.Value) (*connHandle, bool) {
	f, ok := v.Obj.(*value.ObjFile)
	if !ok {
		return nil, false
	}
	h, ok := f.Handle.(*connHandle)
	return h, ok
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Package httpmod implements the built-in HTTP module's synchronous
// subset (HTTP.get/post) over net/http (SPEC_FULL.md §6.3): blocking I/O
// blocks the interpreter, matching spec.md §5's resource model.
package httpmod

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dictu-lang/dictu-go/internal/value"
	"github.com/dictu-lang/dictu-go/internal/vm"
)

var client = &http.Client{Timeout: 30 * time.Second}

func init() {
	vm.RegisterModule("HTTP", build)
}

func build(v *vm.VM) *value.Table {
	t := value.NewTable()
	set := func(name string, fn value.NativeFn) {
		native := &value.ObjNativeFunc{Name: name, Fn: fn}
		v.Collector.Track(native, 32)
		t.Set(v.Collector.Intern(name), value.FromObj(native))
	}

	set("get", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 1 {
			return vv.RuntimeError("get() takes 1 argument")
		}
		url, ok := argv[0].Obj.(*value.ObjString)
		if !ok {
			return vv.RuntimeError("get() argument must be a string")
		}
		resp, err := client.Get(url.Chars)
		if err != nil {
			return vv.RuntimeError("HTTP GET failed: %s", err)
		}
		return responseDict(vv, resp)
	})
	set("post", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 2 {
			return vv.RuntimeError("post() takes 2 arguments")
		}
		url, ok := argv[0].Obj.(*value.ObjString)
		if !ok {
			return vv.RuntimeError("post() first argument must be a string")
		}
		body, ok := argv[1].Obj.(*value.ObjString)
		if !ok {
			return vv.RuntimeError("post() second argument must be a string")
		}
		resp, err := client.Post(url.Chars, "application/octet-stream", strings.NewReader(body.Chars))
		if err != nil {
			return vv.RuntimeError("HTTP POST failed: %s", err)
		}
		return responseDict(vv, resp)
	})
	return t
}

func responseDict(v *vm.VM, resp *http.Response) value.Value {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return v.RuntimeError("could not read response body: %s", err)
	}
	entries := value.NewValueTable()
	entries.Set(value.FromObj(v.Collector.Intern("status")), value.Number(float64(resp.StatusCode)))
	entries.Set(value.FromObj(v.Collector.Intern("body")), value.FromObj(v.Collector.Intern(string(data))))
	dict := &value.ObjDict{Entries: entries}
	v.Collector.Track(dict, 96)
	return value.FromObj(dict)
}

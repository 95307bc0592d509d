// Package sqlitemod implements the built-in Sqlite module over
// database/sql and modernc.org/sqlite (SPEC_FULL.md §6.3), grounded on
// chazu-maggie's lib/runtime/persistence.go use of database/sql for
// JSON-backed storage.
package sqlitemod

import (
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/dictu-lang/dictu-go/internal/value"
	"github.com/dictu-lang/dictu-go/internal/vm"
)

// connHandle is the Handle a Sqlite.connect() call stores on the
// *value.ObjFile it returns -- reusing the file object's Path/Mode/Closed
// shape for connection lifecycle rather than inventing a parallel type.
type connHandle struct {
	db *sql.DB
}

func init() {
	vm.RegisterModule("Sqlite", build)
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
		if argc != 1 {
			return vv.RuntimeError("connect() takes 1 argument")
		}
		path, ok := argv[0].Obj.(*value.ObjString)
		if !ok {
			return vv.RuntimeError("connect() argument must be a string")
		}
		db, err := sql.Open("sqlite", path.Chars)
		if err != nil {
			return vv.RuntimeError("could not open database: %s", err)
		}
		f := &value.ObjFile{Path: path.Chars, Mode: "sqlite", Handle: &connHandle{db: db}}
		vv.Collector.Track(f, 64)
		return value.FromObj(f)
	})
	set("execute", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		h, ok := handleOf(argv[0])
		if !ok {
			return vv.RuntimeError("execute() receiver is not a database connection")
		}
		if argc < 2 {
			return vv.RuntimeError("execute() takes a query and optional parameters")
		}
		query, ok := argv[1].Obj.(*value.ObjString)
		if !ok {
			return vv.RuntimeError("execute() query must be a string")
		}
		params, err := bindParams(argv[2:argc])
		if err != nil {
			return vv.RuntimeError("%s", err)
		}
		res, err := h.db.Exec(query.Chars, params...)
		if err != nil {
			return vv.RuntimeError("query failed: %s", err)
		}
		affected, _ := res.RowsAffected()
		return value.Number(float64(affected))
	})
	set("fetchAll", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		h, ok := handleOf(argv[0])
		if !ok {
			return vv.RuntimeError("fetchAll() receiver is not a database connection")
		}
		if argc < 2 {
			return vv.RuntimeError("fetchAll() takes a query and optional parameters")
		}
		query, ok := argv[1].Obj.(*value.ObjString)
		if !ok {
			return vv.RuntimeError("fetchAll() query must be a string")
		}
		params, err := bindParams(argv[2:argc])
		if err != nil {
			return vv.RuntimeError("%s", err)
		}
		rows, err := h.db.Query(query.Chars, params...)
		if err != nil {
			return vv.RuntimeError("query failed: %s", err)
		}
		defer rows.Close()
		cols, err := rows.Columns()
		if err != nil {
			return vv.RuntimeError("could not read columns: %s", err)
		}
		items := []value.Value{}
		for rows.Next() {
			scanned := make([]interface{}, len(cols))
			ptrs := make([]interface{}, len(cols))
			for i := range scanned {
				ptrs[i] = &scanned[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return vv.RuntimeError("scan failed: %s", err)
			}
			entries := value.NewValueTable()
			for i, col := range cols {
				entries.Set(value.FromObj(vv.Collector.Intern(col)), fromSQL(vv, scanned[i]))
			}
			dict := &value.ObjDict{Entries: entries}
			vv.Collector.Track(dict, 64)
			items = append(items, value.FromObj(dict))
		}
		list := &value.ObjList{Items: items}
		vv.Collector.Track(list, 32+16*len(items))
		return value.FromObj(list)
	})
	set("close", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		h, ok := handleOf(argv[0])
		if !ok {
			return vv.RuntimeError("close() receiver is not a database connection")
		}
		if err := h.db.Close(); err != nil {
			return vv.RuntimeError("close failed: %s", err)
		}
		return value.Nil()
	})
	return t
}

func handleOf(v value.Value) (*connHandle, bool) {
	f, ok := v.Obj.(*value.ObjFile)
	if !ok {
		return nil, false
	}
	h, ok := f.Handle.(*connHandle)
	return h, ok
}

func bindParams(args []value.Value) ([]interface{}, error) {
	out := make([]interface{}, len(args))
	for i, a := range args {
		switch a.Kind {
		case value.KindNil:
			out[i] = nil
		case value.KindBool:
			out[i] = a.Bool
		case value.KindNumber:
			out[i] = a.Num
		case value.KindObj:
			if s, ok := a.Obj.(*value.ObjString); ok {
				out[i] = s.Chars
				continue
			}
			return nil, errUnsupportedParam{a}
		}
	}
	return out, nil
}

func fromSQL(v *vm.VM, raw interface{}) value.Value {
	switch n := raw.(type) {
	case nil:
		return value.Nil()
	case int64:
		return value.Number(float64(n))
	case float64:
		return value.Number(n)
	case bool:
		return value.Bool(n)
	case []byte:
		return value.FromObj(v.Collector.Intern(string(n)))
	case string:
		return value.FromObj(v.Collector.Intern(n))
	default:
		return value.Nil()
	}
}

type errUnsupportedParam struct{ v value.Value }

func (e errUnsupportedParam) Error() string {
	return "cannot bind value of type " + value.TypeName(e.v) + " as a query parameter"
}

/*
package dep provides utilities for dependency injection.

okay, just the one.
*/
package dep

import (
	"fmt"
	"reflect"
	"runtime"
)

// Required returns t, or panics naming what was missing and who asked.  Nil
// pointers, interfaces, maps, and funcs all count as missing.
func Required[T any](t T, what string) T {
	if !missing(reflect.ValueOf(t)) {
		return t
	}
	where := "unknown caller"
	if pc, file, line, ok := runtime.Caller(1); ok {
		where = fmt.Sprintf("%s:%d", file, line)
		if fn := runtime.FuncForPC(pc); fn != nil {
			where = fmt.Sprintf("%s (%s)", fn.Name(), where)
		}
	}
	panic(fmt.Sprintf("missing required dependency %s of type %T in %s", what, t, where))
}

func missing(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice:
		return v.IsNil()
	}
	return false
}

package module

import (
	"fmt"
	"reflect"
)

// PortsOf finds T in m.Ports(): the bundle itself, or the first exported
// field of a struct (or pointer to struct) bundle that implements T
func PortsOf[T any](m Module) (T, bool) {
	var zero T
	p := m.Ports()
	if p == nil {
		return zero, false
	}
	if t, ok := p.(T); ok {
		return t, true
	}
	rv := reflect.Indirect(reflect.ValueOf(p))
	if rv.Kind() != reflect.Struct {
		return zero, false
	}
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanInterface() {
			continue
		}
		if t, ok := f.Interface().(T); ok {
			return t, true
		}
	}
	return zero, false
}

// MustPortsOf is PortsOf for startup wiring; a missing port panics
func MustPortsOf[T any](m Module) T {
	if t, ok := PortsOf[T](m); ok {
		return t
	}
	panic(fmt.Sprintf("module %s: requested port %T not found", m.Name(), (*T)(nil)))
}

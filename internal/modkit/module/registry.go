package module

import "sync"

// the registry is filled while main mounts modules; lookups after that are read only
var registry sync.Map

// Register publishes ports under the module name, replacing any earlier entry
func Register(name string, ports any) { registry.Store(name, ports) }

// PortsAs returns the ports registered for name as T
func PortsAs[T any](name string) (T, bool) {
	var zero T
	v, ok := registry.Load(name)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Reset empties the registry; tests call it so mounts do not leak between them
func Reset() { registry.Clear() }

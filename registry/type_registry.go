package registry

import (
	"fmt"
	"reflect"
)

// EntityTypeAttribute is written on every stored item so several entity types can share a
// table and a partition.
const EntityTypeAttribute = "EntityType"

var (
	typeNames = make(map[reflect.Type]string)
	nameTypes = make(map[string]reflect.Type)
)

// RegisterEntityType names T for storage. A name can belong to one type only.
func RegisterEntityType[T any](name string) error {
	t := typeOf[T]()

	mu.Lock()
	defer mu.Unlock()
	if existing, ok := nameTypes[name]; ok && existing != t {
		return fmt.Errorf("entity type %q already registered for %s", name, existing)
	}
	typeNames[t] = name
	nameTypes[name] = t
	return nil
}

// EntityTypeOf returns the storage name registered for T
func EntityTypeOf[T any]() (string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	name, ok := typeNames[typeOf[T]()]
	return name, ok
}

package plugins

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Factory builds a member value from its manifest config. config is nil when
// the manifest gives none.
type Factory func(config *yaml.Node) (any, error)

// Kinds maps the kind and type names used in manifests to Go code. Manifests
// can only build what the binary registered here.
type Kinds struct {
	mu        sync.RWMutex
	factories map[string]Factory
	types     map[string]reflect.Type
}

// NewKinds creates an empty kind registry.
func NewKinds() *Kinds {
	return &Kinds{
		factories: make(map[string]Factory),
		types:     make(map[string]reflect.Type),
	}
}

// Register adds a factory for kind.
func (k *Kinds) Register(kind string, factory Factory) error {
	if kind == "" {
		return fmt.Errorf("cannot register empty kind")
	}
	if factory == nil {
		return fmt.Errorf("cannot register nil factory for kind %s", kind)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, exists := k.factories[kind]; exists {
		return fmt.Errorf("kind already registered: %s", kind)
	}

	k.factories[kind] = factory
	return nil
}

// RegisterType adds a type descriptor under name.
func (k *Kinds) RegisterType(name string, t reflect.Type) error {
	if name == "" {
		return fmt.Errorf("cannot register empty type name")
	}
	if t == nil {
		return fmt.Errorf("cannot register nil type %s", name)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, exists := k.types[name]; exists {
		return fmt.Errorf("type already registered: %s", name)
	}

	k.types[name] = t
	return nil
}

// RegisterKind registers a factory whose manifest config is decoded into a
// value of type C before build is called.
func RegisterKind[C, P any](k *Kinds, kind string, build func(config C) (P, error)) error {
	return k.Register(kind, func(node *yaml.Node) (any, error) {
		var config C
		if node != nil {
			if err := node.Decode(&config); err != nil {
				return nil, fmt.Errorf("failed to decode config for kind %s: %w", kind, err)
			}
		}
		return build(config)
	})
}

// RegisterType registers the type descriptor of X under name.
func RegisterType[X any](k *Kinds, name string) error {
	return k.RegisterType(name, reflect.TypeFor[X]())
}

// Build runs the factory registered for kind.
func (k *Kinds) Build(kind string, config *yaml.Node) (any, error) {
	k.mu.RLock()
	factory, exists := k.factories[kind]
	k.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	v, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("kind %s: %w", kind, err)
	}
	return v, nil
}

// Type returns the type registered under name.
func (k *Kinds) Type(name string) (reflect.Type, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	t, exists := k.types[name]
	if !exists {
		return nil, fmt.Errorf("%w: type %s", ErrUnknownKind, name)
	}
	return t, nil
}

// Has checks if a kind or type is registered under name
func (k *Kinds) Has(name string) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()

	_, isKind := k.factories[name]
	_, isType := k.types[name]
	return isKind || isType
}

// List returns all registered kind and type names, sorted.
func (k *Kinds) List() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()

	names := make([]string, 0, len(k.factories)+len(k.types))
	for name := range k.factories {
		names = append(names, name)
	}
	for name := range k.types {
		if _, dup := k.factories[name]; !dup {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

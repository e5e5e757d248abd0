package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/platinummonkey/plugload/pkg/namespace"
)

// InitFunc builds a unit. It is the unit's top-level code: it runs at most
// once, the first time any loader opens the unit, and is the place to
// construct singleton instances.
type InitFunc func(b *Builder) error

// Package is a compiled-in plugin package. It implements namespace.Namespace.
type Package struct {
	id     string
	module bool

	mu    sync.RWMutex
	units map[string]*unit
}

type unit struct {
	scope  string
	init   InitFunc
	once   sync.Once
	loaded *namespace.Unit
	err    error
}

// Unit declares a unit named name in the package. Declaring a unit does not
// run init. It panics if name is not a valid unit name or is declared twice,
// since both are programming errors.
func (p *Package) Unit(name string, init InitFunc) *Package {
	if !namespace.IsUnitName(name) {
		panic(fmt.Sprintf("catalog: invalid unit name %q in %s", name, p.id))
	}
	if init == nil {
		panic(fmt.Sprintf("catalog: unit %s.%s has no init function", p.id, name))
	}
	if p.module {
		panic(fmt.Sprintf("catalog: %s is a module and cannot hold units", p.id))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.units[name]; exists {
		panic(fmt.Sprintf("catalog: unit %s.%s already declared", p.id, name))
	}
	p.units[name] = &unit{
		scope: namespace.Qualify(p.id, name),
		init:  init,
	}
	return p
}

// ID implements namespace.Namespace.
func (p *Package) ID() string {
	return p.id
}

// Path implements namespace.Namespace. Modules have no path.
func (p *Package) Path() string {
	if p.module {
		return ""
	}
	return "catalog:" + p.id
}

// Units implements namespace.Namespace. Listing never runs init functions.
func (p *Package) Units() ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.units))
	for name := range p.units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Open implements namespace.Namespace. The first Open of a unit runs its init
// function; later calls, from any loader, return the same result, including
// a failed one.
func (p *Package) Open(name string) (*namespace.Unit, error) {
	p.mu.RLock()
	u, exists := p.units[name]
	p.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", namespace.ErrNotFound, namespace.Qualify(p.id, name))
	}

	u.once.Do(u.load)
	if u.err != nil {
		return nil, u.err
	}
	return u.loaded, nil
}

func (u *unit) load() {
	defer func() {
		if r := recover(); r != nil {
			u.loaded = nil
			u.err = fmt.Errorf("catalog: init of %s panicked: %v", u.scope, r)
		}
	}()

	b := &Builder{scope: u.scope}
	if err := u.init(b); err != nil {
		u.err = fmt.Errorf("catalog: init of %s failed: %w", u.scope, err)
		return
	}
	u.loaded = &namespace.Unit{
		Scope:   u.scope,
		Members: b.members,
	}
}

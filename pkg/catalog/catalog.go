package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/platinummonkey/plugload/pkg/namespace"
)

// Default is the process-wide catalog. Loaders use it unless given another
// resolver.
var Default = New()

// Catalog holds plugin packages compiled into the binary, keyed by their
// dotted identifier.
type Catalog struct {
	mu       sync.RWMutex
	packages map[string]*Package
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		packages: make(map[string]*Package),
	}
}

// Declare returns the package registered in Default under id, creating it on
// first use.
func Declare(id string) *Package {
	return Default.Package(id)
}

// Package returns the package registered under id, creating it on first use.
func (c *Catalog) Package(id string) *Package {
	return c.declare(id, false)
}

// Module declares id as a plain module: it resolves, but it is not a package
// and has no units to enumerate.
func (c *Catalog) Module(id string) *Package {
	return c.declare(id, true)
}

func (c *Catalog) declare(id string, module bool) *Package {
	if len(namespace.Split(id)) == 0 {
		panic(fmt.Sprintf("catalog: invalid package id %q", id))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if p, exists := c.packages[id]; exists {
		if p.module != module {
			panic(fmt.Sprintf("catalog: %q already declared with a different kind", id))
		}
		return p
	}

	p := &Package{
		id:     id,
		module: module,
		units:  make(map[string]*unit),
	}
	c.packages[id] = p
	return p
}

// Resolve implements namespace.Resolver.
func (c *Catalog) Resolve(id string) (namespace.Namespace, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, exists := c.packages[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", namespace.ErrNotFound, id)
	}
	return p, nil
}

// IDs returns the identifiers of all declared packages and modules, sorted.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.packages))
	for id := range c.packages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

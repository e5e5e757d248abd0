package loader

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync/atomic"

	"github.com/platinummonkey/plugload/pkg/catalog"
	"github.com/platinummonkey/plugload/pkg/namespace"
)

// Named is the contract shared by the fixtures.
type Named interface {
	GetName() string
}

// Service is a concrete plugin type for instance-mode loaders.
type Service struct {
	name string
}

func (s *Service) GetName() string { return s.name }

// HeirService embeds Service, so it passes for a *Service.
type HeirService struct {
	Service
	extra string
}

type aPlugin struct{}

func (aPlugin) GetName() string { return "a" }

type bPlugin struct{}

func (bPlugin) GetName() string { return "b" }

type cPlugin struct{}

func (*cPlugin) GetName() string { return "c" }

type decoyPlugin struct{}

func (decoyPlugin) GetName() string { return "decoy" }

type dPlugin struct{}

func (dPlugin) GetName() string { return "d" }

var (
	testBases = []string{"tests.primary", "tests.secondary"}

	// decoy is imported into units but declared in tests.base.
	decoy = &Service{name: "decoy"}
)

// newFixture builds a catalog laid out as:
//
//	tests.base       module
//	tests.primary    a, b
//	tests.secondary  b (shadowed by primary), c, d
//
// Every unit declares a type descriptor and an instance, and imports decoys
// whose names sort first.
func newFixture() *catalog.Catalog {
	c := catalog.New()
	c.Module("tests.base")

	c.Package("tests.primary").
		Unit("a", func(b *catalog.Builder) error {
			b.Import("tests.base", "AAImported", decoy).
				Import("tests.base", "AAImportedType", reflect.TypeFor[decoyPlugin]()).
				ExportType("Impl", reflect.TypeFor[aPlugin]()).
				Export("Instance", &Service{name: "a"})
			return nil
		}).
		Unit("b", func(b *catalog.Builder) error {
			b.Import("tests.base", "AAImported", decoy).
				ExportType("Impl", reflect.TypeFor[bPlugin]()).
				Export("Instance", &Service{name: "b"})
			return nil
		})

	c.Package("tests.secondary").
		Unit("b", func(b *catalog.Builder) error {
			b.ExportType("Impl", reflect.TypeFor[decoyPlugin]()).
				Export("Instance", &Service{name: "b-secondary"})
			return nil
		}).
		Unit("c", func(b *catalog.Builder) error {
			b.Import("tests.base", "AAImported", decoy).
				Export("Config", map[string]string{"name": "c"}).
				ExportType("Impl", reflect.TypeFor[*cPlugin]()).
				Export("Instance", &HeirService{Service: Service{name: "c"}, extra: "heir"})
			return nil
		}).
		Unit("d", func(b *catalog.Builder) error {
			b.ExportType("Impl", reflect.TypeFor[dPlugin]()).
				Export("Instance", &Service{name: "d"})
			return nil
		})

	return c
}

// countingUnit declares a unit whose init counts its runs.
func countingUnit(p *catalog.Package, name string, calls *atomic.Int32) {
	p.Unit(name, func(b *catalog.Builder) error {
		calls.Add(1)
		b.Export("Instance", &Service{name: name})
		return nil
	})
}

// fakeNamespace is a hand-built namespace for failure paths.
type fakeNamespace struct {
	id      string
	path    string
	units   map[string]*namespace.Unit
	broken  map[string]error
	listErr error
}

func newFakeNamespace(id string) *fakeNamespace {
	return &fakeNamespace{
		id:     id,
		path:   "fake:" + id,
		units:  make(map[string]*namespace.Unit),
		broken: make(map[string]error),
	}
}

func (f *fakeNamespace) with(name string, members ...namespace.Member) *fakeNamespace {
	scope := namespace.Qualify(f.id, name)
	for i := range members {
		if members[i].Scope == "" {
			members[i].Scope = scope
		}
	}
	f.units[name] = &namespace.Unit{Scope: scope, Members: members}
	return f
}

func (f *fakeNamespace) ID() string   { return f.id }
func (f *fakeNamespace) Path() string { return f.path }

func (f *fakeNamespace) Units() ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	names := make([]string, 0, len(f.units)+len(f.broken))
	for name := range f.units {
		names = append(names, name)
	}
	for name := range f.broken {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeNamespace) Open(name string) (*namespace.Unit, error) {
	if err, ok := f.broken[name]; ok {
		return nil, err
	}
	if u, ok := f.units[name]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("%w: %s", namespace.ErrNotFound, name)
}

// resolverOf resolves ids to the given namespaces.
func resolverOf(spaces ...namespace.Namespace) namespace.Resolver {
	return namespace.ResolverFunc(func(id string) (namespace.Namespace, error) {
		for _, ns := range spaces {
			if ns.ID() == id {
				return ns, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", namespace.ErrNotFound, id)
	})
}

var errBoom = errors.New("boom")

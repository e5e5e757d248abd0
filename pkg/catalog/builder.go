package catalog

import (
	"reflect"

	"github.com/platinummonkey/plugload/pkg/namespace"
)

// Builder collects the members of a unit while its init function runs.
type Builder struct {
	scope   string
	members []namespace.Member
}

// Scope returns the qualified name of the unit being built.
func (b *Builder) Scope() string {
	return b.scope
}

// Export adds a member declared by the unit itself.
func (b *Builder) Export(name string, value any) *Builder {
	b.members = append(b.members, namespace.Member{
		Name:  name,
		Value: value,
		Scope: b.scope,
	})
	return b
}

// ExportType adds a type descriptor declared by the unit, for loaders that
// hand out constructible types rather than instances.
func (b *Builder) ExportType(name string, t reflect.Type) *Builder {
	return b.Export(name, t)
}

// Import adds a member that the unit only brings into scope from another
// scope. Loaders never pick imported members as the unit's plugin.
func (b *Builder) Import(scope, name string, value any) *Builder {
	b.members = append(b.members, namespace.Member{
		Name:  name,
		Value: value,
		Scope: scope,
	})
	return b
}

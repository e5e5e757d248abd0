package namespace

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotFound is returned by Resolver.Resolve when an identifier names no
// namespace, and by Namespace.Open when a namespace holds no unit of the
// requested name. Any other error from those methods means the thing exists
// but could not be loaded.
var ErrNotFound = errors.New("namespace: not found")

// Resolver turns a dotted namespace identifier (e.g. "myapp.plugins") into a
// Namespace.
type Resolver interface {
	Resolve(id string) (Namespace, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(id string) (Namespace, error)

// Resolve calls f(id).
func (f ResolverFunc) Resolve(id string) (Namespace, error) {
	return f(id)
}

// Namespace is a resolved plugin package.
type Namespace interface {
	// ID returns the identifier the namespace was resolved from.
	ID() string

	// Path returns the physical location backing the namespace. An empty
	// path means the namespace is not package-like and has nothing to
	// enumerate.
	Path() string

	// Units lists the names of the units the namespace contains. Listing
	// must not load any unit.
	Units() ([]string, error)

	// Open loads the named unit. Loading may have one-time side effects,
	// such as constructing singleton instances. Returns ErrNotFound if the
	// unit does not exist.
	Open(name string) (*Unit, error)
}

// Unit is a loaded plugin unit and the members it exposes.
type Unit struct {
	// Scope is the qualified name of the unit, "<namespace>.<name>".
	Scope string

	// Members are the top-level named members of the unit.
	Members []Member
}

// Member is a top-level named value found inside a unit.
type Member struct {
	Name  string
	Value any

	// Scope is the qualified name of the unit that declares the member.
	// Members imported from elsewhere carry the scope of their origin.
	Scope string
}

// DeclaredHere reports whether m was declared by the unit itself rather than
// imported from another scope.
func (u *Unit) DeclaredHere(m Member) bool {
	return m.Scope == u.Scope
}

// Sorted returns the unit members ordered by name. The unit is not modified.
func (u *Unit) Sorted() []Member {
	members := make([]Member, len(u.Members))
	copy(members, u.Members)
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Name < members[j].Name
	})
	return members
}

// Qualify joins a namespace identifier and a unit name.
func Qualify(id, name string) string {
	if id == "" {
		return name
	}
	return id + "." + name
}

// Split breaks a dotted identifier into its segments, dropping empty ones.
func Split(id string) []string {
	parts := strings.Split(id, ".")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsUnitName reports whether name can name a unit: a non-empty identifier
// made of letters, digits, '_' and '-', not starting with '_', '.' or a digit.
func IsUnitName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r == '_' || r == '-' || (r >= '0' && r <= '9'):
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

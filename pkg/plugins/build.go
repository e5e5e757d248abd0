package plugins

import (
	"errors"
	"fmt"
	"path/filepath"
	"plugin"
	"reflect"

	"github.com/platinummonkey/plugload/pkg/namespace"
)

// UnitBuilder turns manifests into units.
type UnitBuilder struct {
	Kinds *Kinds

	// Placeholders turns members of unknown kinds or types into
	// *Placeholder values instead of failing the unit.
	Placeholders bool

	// ObjectDir is the directory shared-object members are opened from.
	// Empty means the location cannot hold shared objects.
	ObjectDir string
}

// Unit builds the unit with the given qualified scope.
func (b UnitBuilder) Unit(scope string, manifest *Manifest) (*namespace.Unit, error) {
	members := make([]namespace.Member, 0, len(manifest.Members))
	for _, spec := range manifest.Members {
		m, err := b.member(scope, spec)
		if err != nil {
			return nil, fmt.Errorf("member %s of %s: %w", spec.Name, scope, err)
		}
		members = append(members, m)
	}

	return &namespace.Unit{
		Scope:   scope,
		Members: members,
	}, nil
}

func (b UnitBuilder) member(scope string, spec MemberSpec) (namespace.Member, error) {
	m := namespace.Member{Name: spec.Name, Scope: scope}
	if spec.From != "" {
		m.Scope = spec.From
	}

	var err error
	switch {
	case spec.Kind != "":
		m.Value, err = b.Kinds.Build(spec.Kind, spec.config())
		if errors.Is(err, ErrUnknownKind) && b.Placeholders {
			m.Value, err = newPlaceholder(spec)
		}
	case spec.Type != "":
		m.Value, err = b.Kinds.Type(spec.Type)
		if errors.Is(err, ErrUnknownKind) && b.Placeholders {
			m.Value, err = reflect.TypeFor[Placeholder](), nil
		}
	case spec.Object != "":
		m.Value, err = b.object(spec)
	default:
		err = fmt.Errorf("%w: member has no kind, type or object", ErrInvalidManifest)
	}
	return m, err
}

func (b UnitBuilder) object(spec MemberSpec) (any, error) {
	if b.ObjectDir == "" {
		return nil, ErrObjectsUnsupported
	}

	path := spec.Object
	if !filepath.IsAbs(path) {
		path = filepath.Join(b.ObjectDir, path)
	}
	symbol := spec.Symbol
	if symbol == "" {
		symbol = spec.Name
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shared object %s: %w", path, err)
	}
	sym, err := p.Lookup(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to find symbol %s in %s: %w", symbol, path, err)
	}
	return any(sym), nil
}

func newPlaceholder(spec MemberSpec) (*Placeholder, error) {
	ph := &Placeholder{Kind: spec.Kind}
	if spec.HasConfig() {
		if err := spec.Config.Decode(&ph.Config); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}
	return ph, nil
}

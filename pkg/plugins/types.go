package plugins

import (
	"errors"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownKind is returned when a manifest names a kind or type that
	// was never registered.
	ErrUnknownKind = errors.New("unknown plugin kind")

	// ErrInvalidManifest is returned when a manifest fails validation.
	ErrInvalidManifest = errors.New("invalid plugin manifest")

	// ErrObjectsUnsupported is returned for shared-object members in
	// locations that cannot open them.
	ErrObjectsUnsupported = errors.New("shared object members are not supported here")
)

// Manifest describes one plugin unit: the members it exposes and how to
// build each of them.
type Manifest struct {
	ID          string            `yaml:"id,omitempty"`          // Defaults to the unit name
	Version     string            `yaml:"version,omitempty"`     // Semver
	APIVersion  string            `yaml:"api_version,omitempty"` // Manifest API version
	Description string            `yaml:"description,omitempty"` // Short description
	Author      string            `yaml:"author,omitempty"`      // Author name
	License     string            `yaml:"license,omitempty"`     // License (e.g., MIT, Apache-2.0)
	Metadata    map[string]string `yaml:"metadata,omitempty"`    // Additional metadata
	Members     []MemberSpec      `yaml:"members"`
}

// MemberSpec describes one top-level member of a unit. Exactly one of Kind,
// Type or Object is set.
type MemberSpec struct {
	Name string `yaml:"name"`

	// Kind names a registered factory; Config is decoded into its config.
	Kind   string    `yaml:"kind,omitempty"`
	Config yaml.Node `yaml:"config,omitempty"`

	// Type names a registered type; the member is its type descriptor.
	Type string `yaml:"type,omitempty"`

	// Object is a Go plugin (.so) relative to the unit; Symbol defaults to
	// the member name.
	Object string `yaml:"object,omitempty"`
	Symbol string `yaml:"symbol,omitempty"`

	// From marks the member as imported from another scope. Imported
	// members are visible but never chosen as the unit's plugin.
	From string `yaml:"from,omitempty"`
}

// HasConfig reports whether the manifest gave the member a config block.
func (m MemberSpec) HasConfig() bool {
	return m.Config.Kind != 0
}

// config returns the member's config node, or nil when there is none.
func (m MemberSpec) config() *yaml.Node {
	if !m.HasConfig() {
		return nil
	}
	return &m.Config
}

// Placeholder stands in for members of unknown kinds when a resolver is
// built WithPlaceholders, so manifests can be inspected without the code
// that implements them.
type Placeholder struct {
	Kind   string
	Config map[string]any
}

// ValidationError represents a manifest validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

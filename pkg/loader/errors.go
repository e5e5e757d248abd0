package loader

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every error returned by this package matches exactly one
// of them with errors.Is.
var (
	// ErrConfiguration is returned by New when the loader cannot be built.
	ErrConfiguration = errors.New("invalid loader configuration")

	// ErrExcludedName is returned when a lookup names an excluded plugin.
	ErrExcludedName = errors.New("plugin name is excluded")

	// ErrPluginNotFound is returned by Get when no location provides the
	// plugin.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrBrokenUnit is returned when a unit exists but cannot be opened and
	// the loader was built WithFailOnBrokenUnits.
	ErrBrokenUnit = errors.New("broken plugin unit")
)

// ConfigError describes why New rejected its options.
type ConfigError struct {
	// Base is the offending base identifier, if any.
	Base   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := "loader: " + e.Reason
	if e.Base != "" {
		msg += fmt.Sprintf(" (base %q)", e.Base)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// ExcludedNameError is returned when a lookup names an excluded plugin.
type ExcludedNameError struct {
	Name string
}

func (e *ExcludedNameError) Error() string {
	return fmt.Sprintf("loader: plugin name %q is excluded", e.Name)
}

func (e *ExcludedNameError) Is(target error) bool { return target == ErrExcludedName }

// NotFoundError is returned by Get when no location provides the plugin.
type NotFoundError struct {
	Name  string
	Bases []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("loader: plugin %q not found in %s", e.Name, strings.Join(e.Bases, ", "))
}

func (e *NotFoundError) Is(target error) bool { return target == ErrPluginNotFound }

// UnitError reports a unit that exists but failed to open.
type UnitError struct {
	Location string
	Name     string
	Err      error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("loader: unit %s.%s is broken: %v", e.Location, e.Name, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

func (e *UnitError) Is(target error) bool { return target == ErrBrokenUnit }

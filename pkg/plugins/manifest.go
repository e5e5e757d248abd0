package plugins

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/platinummonkey/plugload/pkg/namespace"
	"gopkg.in/yaml.v3"
)

const (
	// CurrentAPIVersion is the manifest API version this package reads.
	CurrentAPIVersion = "1.0.0"

	// UnitManifest is the manifest file name inside a unit directory.
	UnitManifest = "plugin.yaml"
)

var semverRegex = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)

// LoadManifest loads and parses a plugin manifest from a file
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest parses a plugin manifest
func ParseManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &manifest, nil
}

// SaveManifest saves a plugin manifest to a file
func SaveManifest(manifest *Manifest, path string) error {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// ValidateManifest checks a manifest for the unit named unit.
func ValidateManifest(manifest *Manifest, unit string) []ValidationError {
	var errs []ValidationError

	if manifest.ID != "" && manifest.ID != unit {
		errs = append(errs, ValidationError{
			Field:   "id",
			Message: fmt.Sprintf("Plugin ID %q does not match unit %q", manifest.ID, unit),
		})
	}

	// Validate semver format
	if manifest.Version != "" && !isValidSemver(manifest.Version) {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("Invalid semver format: %s", manifest.Version),
		})
	}

	if manifest.APIVersion != "" {
		switch {
		case !isValidSemver(manifest.APIVersion):
			errs = append(errs, ValidationError{
				Field:   "api_version",
				Message: fmt.Sprintf("Invalid semver format: %s", manifest.APIVersion),
			})
		case !IsCompatibleAPIVersion(manifest.APIVersion, CurrentAPIVersion):
			errs = append(errs, ValidationError{
				Field:   "api_version",
				Message: fmt.Sprintf("Incompatible API version: manifest requires %s, loader is %s", manifest.APIVersion, CurrentAPIVersion),
			})
		}
	}

	seen := make(map[string]bool, len(manifest.Members))
	for i, m := range manifest.Members {
		field := fmt.Sprintf("members[%d]", i)

		if m.Name == "" {
			errs = append(errs, ValidationError{Field: field + ".name", Message: "Member name is required"})
		} else if seen[m.Name] {
			errs = append(errs, ValidationError{Field: field + ".name", Message: fmt.Sprintf("Duplicate member %s", m.Name)})
		}
		seen[m.Name] = true

		sources := 0
		for _, s := range []string{m.Kind, m.Type, m.Object} {
			if s != "" {
				sources++
			}
		}
		if sources != 1 {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "Exactly one of kind, type or object is required",
			})
		}

		if m.HasConfig() && m.Kind == "" {
			errs = append(errs, ValidationError{Field: field + ".config", Message: "Config is only valid with kind"})
		}
		if m.Symbol != "" && m.Object == "" {
			errs = append(errs, ValidationError{Field: field + ".symbol", Message: "Symbol is only valid with object"})
		}
		if m.From != "" && len(namespace.Split(m.From)) == 0 {
			errs = append(errs, ValidationError{Field: field + ".from", Message: fmt.Sprintf("Invalid scope: %q", m.From)})
		}
	}

	return errs
}

// CheckManifest validates manifest for unit and joins every failure into one
// error matching ErrInvalidManifest.
func CheckManifest(manifest *Manifest, unit string) error {
	verrs := ValidateManifest(manifest, unit)
	if len(verrs) == 0 {
		return nil
	}

	errs := make([]error, len(verrs))
	for i, v := range verrs {
		errs[i] = v
	}
	return fmt.Errorf("%w: %w", ErrInvalidManifest, errors.Join(errs...))
}

// isValidSemver checks if a version string follows semantic versioning
func isValidSemver(version string) bool {
	return semverRegex.MatchString(version)
}

// IsCompatibleAPIVersion checks if a manifest API version is compatible with
// the loader's. Only the major version counts: 1.x.x is compatible with 1.y.z.
func IsCompatibleAPIVersion(manifestAPIVersion, loaderAPIVersion string) bool {
	return extractMajorVersion(manifestAPIVersion) == extractMajorVersion(loaderAPIVersion)
}

func extractMajorVersion(version string) string {
	matches := semverRegex.FindStringSubmatch(version)
	if len(matches) > 1 {
		return matches[1]
	}
	return "0"
}

// Package jsrpublish implements the publish pipeline of a source-code
// registry client: preparing, authorizing, uploading, and attaching
// provenance to immutable versioned package artifacts.
package jsrpublish

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/jsr-io/jsr-publish/archive"
)

// PreparedPackage is an immutable, fully-built package ready to be
// authorized and uploaded. It is constructed once, read by every
// downstream component, and dropped once its upload and provenance step
// both complete.
type PreparedPackage struct {
	Scope   string
	Name    string
	Version string

	Tarball archive.Tarball

	// ConfigFilename is the base name of the configuration file at the
	// package root (e.g. "deno.json"), carried separately because the
	// upload URL must echo it.
	ConfigFilename string

	// Exports maps an export specifier ("." , "./sub") to a relative file
	// path. A single string configuration value normalizes to {".": str}
	// before reaching this type; this type always holds the expanded form.
	Exports map[string]string
}

// DisplayName renders the package's registry coordinates the way the
// original CLI logs them: "@scope/name@version".
func (p PreparedPackage) DisplayName() string {
	return fmt.Sprintf("@%s/%s@%s", p.Scope, p.Name, p.Version)
}

// Validate checks that scope and name are non-empty and that the version
// is valid semver. The CLI calls it right after building the package so
// that malformed input is rejected before any network I/O, not discovered
// mid-upload.
func (p PreparedPackage) Validate() error {
	if p.Scope == "" || p.Name == "" {
		return fmt.Errorf("package %s: scope and name must be non-empty", p.DisplayName())
	}
	if _, err := semver.NewVersion(p.Version); err != nil {
		return fmt.Errorf("package %s: version %q is not valid semver: %w", p.DisplayName(), p.Version, err)
	}
	return nil
}

// NormalizeExports implements the single-string-becomes-{".": str}
// promotion the original configuration loader performs, for callers that
// construct PreparedPackage from a raw "exports" value of either shape.
func NormalizeExports(raw interface{}) (map[string]string, error) {
	switch v := raw.(type) {
	case string:
		return map[string]string{".": v}, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		out := make(map[string]string, len(v))
		for k, val := range v {
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("exports[%q]: expected string, got %T", k, val)
			}
			out[k] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("exports: expected string or object, got %T", raw)
	}
}

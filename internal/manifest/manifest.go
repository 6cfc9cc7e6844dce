package manifest

import (
	"encoding/json"
	"fmt"
)

// Manifest is one revision of a dependency manifest document,
// decoded as an unordered mapping of top-level keys to JSON values.
type Manifest map[string]any

// Manifest keys that hold dependency maps. Every other key is opaque.
const (
	KeyDependencies    = "dependencies"
	KeyDevDependencies = "devDependencies"
)

// IsDependencyKey reports whether key is one of the recognized dependency maps.
func IsDependencyKey(key string) bool {
	return key == KeyDependencies || key == KeyDevDependencies
}

// Parse decodes a manifest document from its raw JSON bytes.
func Parse(data []byte) (Manifest, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return Manifest(m), nil
}

// Specifier returns the version specifier stored at [key][name].
// The second return is false when the key is not a dependency map,
// the package is absent, or the stored value is not a string.
func (m Manifest) Specifier(key, name string) (string, bool) {
	deps, ok := m[key].(map[string]any)
	if !ok {
		return "", false
	}
	spec, ok := deps[name].(string)
	return spec, ok
}

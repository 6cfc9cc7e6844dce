package policy

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/Masterminds/semver/v3"
)

// BumpClass is the semantic-versioning severity of a version transition.
type BumpClass string

const (
	BumpMajor BumpClass = "major"
	BumpMinor BumpClass = "minor"
	BumpPatch BumpClass = "patch"
)

// ParseBumpClass validates a bump class name from configuration.
func ParseBumpClass(s string) (BumpClass, error) {
	switch BumpClass(s) {
	case BumpMajor, BumpMinor, BumpPatch:
		return BumpClass(s), nil
	default:
		return "", fmt.Errorf("unknown bump class %q (want major, minor or patch)", s)
	}
}

// specifierPattern is the exact grammar of a version specifier:
// an optional ^ or ~ prefix followed by major.minor.patch and an
// optional prerelease tag. Anything else is not a specifier.
var specifierPattern = regexp.MustCompile(`^([\^~]?)(\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?)$`)

// Specifier is a parsed version specifier: a range prefix (possibly empty)
// and a strict semantic version core.
type Specifier struct {
	Prefix  string
	Version *semver.Version
}

// ParseSpecifier parses s against the specifier grammar. The second return
// is false for anything outside the grammar.
func ParseSpecifier(s string) (Specifier, bool) {
	m := specifierPattern.FindStringSubmatch(s)
	if m == nil {
		return Specifier{}, false
	}
	v, err := semver.StrictNewVersion(m[2])
	if err != nil {
		return Specifier{}, false
	}
	return Specifier{Prefix: m[1], Version: v}, true
}

// Classify reports whether the transition from oldSpec to newSpec is one of
// the allowed bump classes. Every ambiguity resolves to false: unparseable
// specifiers, mismatched prefixes, downgrades, equal versions and
// prerelease-only changes are all rejected.
func Classify(oldSpec, newSpec string, allowed []BumpClass) bool {
	oldV, ok := ParseSpecifier(oldSpec)
	if !ok {
		return false
	}
	newV, ok := ParseSpecifier(newSpec)
	if !ok {
		return false
	}
	// A range-qualified version and an exact version are never comparable;
	// this also blocks pinning or unpinning disguised as a bump.
	if oldV.Prefix != newV.Prefix {
		return false
	}
	if !newV.Version.GreaterThan(oldV.Version) {
		return false
	}
	bump, ok := bumpClassBetween(oldV.Version, newV.Version)
	if !ok {
		return false
	}
	return slices.Contains(allowed, bump)
}

// bumpClassBetween computes the highest-order numeric component that differs.
// A transition confined to the prerelease tag has no bump class.
func bumpClassBetween(oldV, newV *semver.Version) (BumpClass, bool) {
	switch {
	case newV.Major() != oldV.Major():
		return BumpMajor, true
	case newV.Minor() != oldV.Minor():
		return BumpMinor, true
	case newV.Patch() != oldV.Patch():
		return BumpPatch, true
	default:
		return "", false
	}
}

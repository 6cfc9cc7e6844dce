package policy

import (
	"fmt"

	"github.com/moeryomenko/bumpmerge/internal/manifest"
)

// Config maps a dependency-map key to the bump classes allowed for it.
// A key absent from the map allows no bump at all for that dependency map.
type Config map[string][]BumpClass

// AllowedFor returns the bump classes configured for a dependency-map key.
func (c Config) AllowedFor(key string) []BumpClass {
	return c[key]
}

// DenyList is a set of package names that are never auto-merged,
// regardless of bump class.
type DenyList map[string]struct{}

// NewDenyList builds a deny list from package names.
func NewDenyList(names []string) DenyList {
	d := make(DenyList, len(names))
	for _, name := range names {
		d[name] = struct{}{}
	}
	return d
}

// Contains reports whether a package name is denylisted.
func (d DenyList) Contains(name string) bool {
	_, ok := d[name]
	return ok
}

// Engine applies the dependency change policy to a manifest diff.
// It is pure logic over in-memory data and holds no network state.
type Engine struct {
	config   Config
	denylist DenyList
}

// NewEngine creates a policy engine.
func NewEngine(config Config, denylist DenyList) *Engine {
	return &Engine{config: config, denylist: denylist}
}

// Evaluate walks the manifest diff and decides whether every change is an
// allowed dependency bump. The policy is conjunctive: all changed
// dependencies across all changed dependency maps must independently pass,
// and evaluation short-circuits on the first violation.
func (e *Engine) Evaluate(diff manifest.Result, base, head manifest.Manifest) Verdict {
	if len(diff.Added) > 0 || len(diff.Removed) > 0 {
		return Deny(ReasonUnexpectedChanges,
			fmt.Sprintf("%d manifest keys added, %d removed", len(diff.Added), len(diff.Removed)))
	}
	for key, val := range diff.Updated {
		if !manifest.IsDependencyKey(key) {
			return Deny(ReasonUnexpectedPropertyChange,
				fmt.Sprintf("manifest key %q changed", key))
		}
		changed, ok := val.(map[string]any)
		if !ok {
			return Deny(ReasonUnexpectedPropertyChange,
				fmt.Sprintf("manifest key %q is no longer a dependency map", key))
		}
		allowed := e.config.AllowedFor(key)
		for name := range changed {
			if verdict := e.checkDependency(key, name, allowed, base, head); !verdict.Allowed {
				return verdict
			}
		}
	}
	return Allow()
}

func (e *Engine) checkDependency(key, name string, allowed []BumpClass, base, head manifest.Manifest) Verdict {
	if e.denylist.Contains(name) {
		return Deny(ReasonVersionChangeNotAllowed,
			fmt.Sprintf("package %q is denylisted", name))
	}
	oldSpec, ok := base.Specifier(key, name)
	if !ok {
		return Deny(ReasonVersionChangeNotAllowed,
			fmt.Sprintf("package %q has no version specifier in the base %s", name, key))
	}
	newSpec, ok := head.Specifier(key, name)
	if !ok {
		return Deny(ReasonVersionChangeNotAllowed,
			fmt.Sprintf("package %q has no version specifier in the head %s", name, key))
	}
	if !Classify(oldSpec, newSpec, allowed) {
		return Deny(ReasonVersionChangeNotAllowed,
			fmt.Sprintf("package %q: %s -> %s is not an allowed update for %s", name, oldSpec, newSpec, key))
	}
	return Allow()
}

package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moeryomenko/bumpmerge/internal/manifest"
)

func evaluate(t *testing.T, base, head manifest.Manifest, cfg Config, deny []string) Verdict {
	t.Helper()
	engine := NewEngine(cfg, NewDenyList(deny))
	return engine.Evaluate(manifest.Diff(base, head), base, head)
}

func TestEngine_Evaluate(t *testing.T) {
	t.Run("Should allow a configured patch bump in devDependencies", func(t *testing.T) {
		base := manifest.Manifest{"devDependencies": map[string]any{"a": "0.0.1"}}
		head := manifest.Manifest{"devDependencies": map[string]any{"a": "0.0.2"}}
		verdict := evaluate(t, base, head, Config{"devDependencies": {BumpPatch}}, nil)
		assert.True(t, verdict.Allowed)
	})

	t.Run("Should deny a major bump when only minor is allowed", func(t *testing.T) {
		base := manifest.Manifest{"dependencies": map[string]any{"a": "0.0.1"}}
		head := manifest.Manifest{"dependencies": map[string]any{"a": "1.0.0"}}
		verdict := evaluate(t, base, head, Config{"dependencies": {BumpMinor}}, nil)
		require.False(t, verdict.Allowed)
		assert.Equal(t, ReasonVersionChangeNotAllowed, verdict.Reason)
	})

	t.Run("Should deny a prefix introduction regardless of allowed classes", func(t *testing.T) {
		base := manifest.Manifest{"devDependencies": map[string]any{"a": "0.0.1"}}
		head := manifest.Manifest{"devDependencies": map[string]any{"a": "~0.0.2"}}
		verdict := evaluate(t, base, head,
			Config{"devDependencies": {BumpMajor, BumpMinor, BumpPatch}}, nil)
		require.False(t, verdict.Allowed)
		assert.Equal(t, ReasonVersionChangeNotAllowed, verdict.Reason)
	})

	t.Run("Should deny a denylisted package even for an allowed bump", func(t *testing.T) {
		base := manifest.Manifest{"dependencies": map[string]any{"left-pad": "1.0.0"}}
		head := manifest.Manifest{"dependencies": map[string]any{"left-pad": "1.0.1"}}
		verdict := evaluate(t, base, head, Config{"dependencies": {BumpPatch}}, []string{"left-pad"})
		require.False(t, verdict.Allowed)
		assert.Equal(t, ReasonVersionChangeNotAllowed, verdict.Reason)
	})

	t.Run("Should deny when a dependency map has no configured classes", func(t *testing.T) {
		base := manifest.Manifest{"dependencies": map[string]any{"a": "0.0.1"}}
		head := manifest.Manifest{"dependencies": map[string]any{"a": "0.0.2"}}
		verdict := evaluate(t, base, head, Config{"devDependencies": {BumpPatch}}, nil)
		require.False(t, verdict.Allowed)
		assert.Equal(t, ReasonVersionChangeNotAllowed, verdict.Reason)
	})

	t.Run("Should deny added top-level keys", func(t *testing.T) {
		base := manifest.Manifest{"name": "pkg"}
		head := manifest.Manifest{"name": "pkg", "private": true}
		verdict := evaluate(t, base, head, Config{"dependencies": {BumpPatch}}, nil)
		require.False(t, verdict.Allowed)
		assert.Equal(t, ReasonUnexpectedChanges, verdict.Reason)
	})

	t.Run("Should deny removed top-level keys", func(t *testing.T) {
		base := manifest.Manifest{"name": "pkg", "scripts": map[string]any{"test": "jest"}}
		head := manifest.Manifest{"name": "pkg"}
		verdict := evaluate(t, base, head, Config{"dependencies": {BumpPatch}}, nil)
		require.False(t, verdict.Allowed)
		assert.Equal(t, ReasonUnexpectedChanges, verdict.Reason)
	})

	t.Run("Should deny changes to non-dependency keys", func(t *testing.T) {
		base := manifest.Manifest{"name": "pkg", "dependencies": map[string]any{"a": "0.0.1"}}
		head := manifest.Manifest{"name": "pkg2", "dependencies": map[string]any{"a": "0.0.1"}}
		verdict := evaluate(t, base, head, Config{"dependencies": {BumpPatch}}, nil)
		require.False(t, verdict.Allowed)
		assert.Equal(t, ReasonUnexpectedPropertyChange, verdict.Reason)
	})

	t.Run("Should deny a dependency key that turned into a non-object", func(t *testing.T) {
		base := manifest.Manifest{"dependencies": map[string]any{"a": "0.0.1"}}
		head := manifest.Manifest{"dependencies": "oops"}
		verdict := evaluate(t, base, head, Config{"dependencies": {BumpPatch}}, nil)
		require.False(t, verdict.Allowed)
		assert.Equal(t, ReasonUnexpectedPropertyChange, verdict.Reason)
	})

	t.Run("Should deny a package added to a dependency map", func(t *testing.T) {
		base := manifest.Manifest{"dependencies": map[string]any{"a": "0.0.1"}}
		head := manifest.Manifest{"dependencies": map[string]any{"a": "0.0.1", "b": "1.0.0"}}
		verdict := evaluate(t, base, head, Config{"dependencies": {BumpPatch}}, nil)
		require.False(t, verdict.Allowed)
		assert.Equal(t, ReasonVersionChangeNotAllowed, verdict.Reason)
	})

	t.Run("Should deny a package removed from a dependency map", func(t *testing.T) {
		base := manifest.Manifest{"dependencies": map[string]any{"a": "0.0.1", "b": "1.0.0"}}
		head := manifest.Manifest{"dependencies": map[string]any{"a": "0.0.1"}}
		verdict := evaluate(t, base, head, Config{"dependencies": {BumpPatch}}, nil)
		require.False(t, verdict.Allowed)
		assert.Equal(t, ReasonVersionChangeNotAllowed, verdict.Reason)
	})

	t.Run("Should deny a non-string specifier", func(t *testing.T) {
		base := manifest.Manifest{"dependencies": map[string]any{"a": "0.0.1"}}
		head := manifest.Manifest{"dependencies": map[string]any{"a": float64(2)}}
		verdict := evaluate(t, base, head, Config{"dependencies": {BumpMajor}}, nil)
		require.False(t, verdict.Allowed)
		assert.Equal(t, ReasonVersionChangeNotAllowed, verdict.Reason)
	})

	t.Run("Should require every changed dependency to pass", func(t *testing.T) {
		base := manifest.Manifest{
			"dependencies":    map[string]any{"a": "0.0.1"},
			"devDependencies": map[string]any{"b": "1.0.0"},
		}
		head := manifest.Manifest{
			"dependencies":    map[string]any{"a": "0.0.2"},
			"devDependencies": map[string]any{"b": "2.0.0"},
		}
		cfg := Config{"dependencies": {BumpPatch}, "devDependencies": {BumpPatch}}
		verdict := evaluate(t, base, head, cfg, nil)
		require.False(t, verdict.Allowed)
		assert.Equal(t, ReasonVersionChangeNotAllowed, verdict.Reason)
	})

	t.Run("Should allow an identical manifest", func(t *testing.T) {
		m := manifest.Manifest{
			"name":         "pkg",
			"dependencies": map[string]any{"a": "0.0.1"},
		}
		verdict := evaluate(t, m, m, Config{}, nil)
		assert.True(t, verdict.Allowed)
	})
}

func TestReason_ExitCode(t *testing.T) {
	t.Run("Should map every reason to a distinct exit code", func(t *testing.T) {
		reasons := []Reason{
			ReasonUnsupportedTrigger,
			ReasonActorNotAllowed,
			ReasonFileNotAllowed,
			ReasonUnexpectedChanges,
			ReasonUnexpectedPropertyChange,
			ReasonVersionChangeNotAllowed,
			ReasonPRNotOpen,
			ReasonPRHeadChanged,
			ReasonTimedOut,
			ReasonMergeTriggerFailed,
		}
		seen := map[int]Reason{}
		for _, r := range reasons {
			code := r.ExitCode()
			assert.NotEqual(t, 0, code, r)
			prev, dup := seen[code]
			assert.False(t, dup, "reasons %s and %s share exit code %d", prev, r, code)
			seen[code] = r
		}
	})
}

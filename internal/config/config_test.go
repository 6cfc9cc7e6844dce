package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moeryomenko/bumpmerge/internal/models"
	"github.com/moeryomenko/bumpmerge/internal/policy"
)

func TestParseRepository(t *testing.T) {
	t.Run("Should split an owner/name slug", func(t *testing.T) {
		owner, repo, err := ParseRepository("acme/widgets")
		require.NoError(t, err)
		assert.Equal(t, "acme", owner)
		assert.Equal(t, "widgets", repo)
	})
	t.Run("Should reject malformed slugs", func(t *testing.T) {
		for _, slug := range []string{"", "acme", "/widgets", "acme/"} {
			_, _, err := ParseRepository(slug)
			assert.Error(t, err, slug)
		}
	})
}

func TestParseUpdateTypes(t *testing.T) {
	t.Run("Should parse key:class pairs into a policy config", func(t *testing.T) {
		cfg, err := ParseUpdateTypes("dependencies:minor,dependencies:patch,devDependencies:patch")
		require.NoError(t, err)
		assert.Equal(t, policy.Config{
			"dependencies":    {policy.BumpMinor, policy.BumpPatch},
			"devDependencies": {policy.BumpPatch},
		}, cfg)
	})
	t.Run("Should tolerate whitespace around entries", func(t *testing.T) {
		cfg, err := ParseUpdateTypes(" dependencies:patch , devDependencies:minor ")
		require.NoError(t, err)
		assert.Len(t, cfg, 2)
	})
	t.Run("Should yield an empty config for an empty spec", func(t *testing.T) {
		cfg, err := ParseUpdateTypes("")
		require.NoError(t, err)
		assert.Empty(t, cfg)
		assert.Empty(t, cfg.AllowedFor("dependencies"))
	})
	t.Run("Should reject malformed entries", func(t *testing.T) {
		for _, spec := range []string{
			"dependencies",
			"dependencies:",
			":patch",
			"dependencies:huge",
			"dependencies:patch,oops",
		} {
			_, err := ParseUpdateTypes(spec)
			assert.Error(t, err, spec)
		}
	})
}

func TestParseMergeStrategy(t *testing.T) {
	t.Run("Should accept the three strategies", func(t *testing.T) {
		for _, s := range []string{"merge", "squash", "rebase"} {
			strategy, err := ParseMergeStrategy(s)
			require.NoError(t, err)
			assert.Equal(t, models.MergeStrategy(s), strategy)
		}
	})
	t.Run("Should reject anything else", func(t *testing.T) {
		for _, s := range []string{"", "fast-forward", "Squash"} {
			_, err := ParseMergeStrategy(s)
			assert.Error(t, err, s)
		}
	})
}

func TestParseList(t *testing.T) {
	t.Run("Should split, trim and drop empties", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b"}, ParseList("a, b"))
		assert.Equal(t, []string{"bot"}, ParseList("bot,"))
		assert.Nil(t, ParseList(""))
		assert.Nil(t, ParseList(" , "))
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Token:     "token",
			Owner:     "acme",
			Repo:      "widgets",
			PRNumber:  1,
			Strategy:  models.MergeStrategySquash,
			MergeMode: MergeModeAutoMerge,
		}
	}

	t.Run("Should accept a complete config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})
	t.Run("Should require token, repository, PR number and a known mode", func(t *testing.T) {
		c := valid()
		c.Token = ""
		assert.Error(t, c.Validate())

		c = valid()
		c.Owner = ""
		assert.Error(t, c.Validate())

		c = valid()
		c.PRNumber = 0
		assert.Error(t, c.Validate())

		c = valid()
		c.MergeMode = "yolo"
		assert.Error(t, c.Validate())
	})
	t.Run("Should accept the poll mode", func(t *testing.T) {
		c := valid()
		c.MergeMode = MergeModePoll
		assert.NoError(t, c.Validate())
	})
}

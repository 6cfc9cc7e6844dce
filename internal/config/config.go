// Package config turns CLI and environment inputs into validated settings.
// Malformed inputs abort the run before any verdict is computed; they are
// operator errors, not policy outcomes.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"

	"github.com/moeryomenko/bumpmerge/internal/models"
	"github.com/moeryomenko/bumpmerge/internal/policy"
)

// Merge trigger modes.
const (
	MergeModeAutoMerge = "automerge"
	MergeModePoll      = "poll"
)

// Config is the full per-invocation configuration.
type Config struct {
	Token       string
	Owner       string
	Repo        string
	PRNumber    int
	EventName   string
	Actors      []string
	UpdateTypes policy.Config
	Denylist    []string
	Strategy    models.MergeStrategy
	MergeMode   string
	AuthorEmail string
	LocalRepo   string
	DryRun      bool
}

// Validate checks the cross-field requirements.
func (c *Config) Validate() error {
	if c.Token == "" {
		return errors.New("a hosting API token is required (flag --token or GITHUB_TOKEN)")
	}
	if c.Owner == "" || c.Repo == "" {
		return errors.New("a repository is required (flag --repository or GITHUB_REPOSITORY, form owner/name)")
	}
	if c.PRNumber <= 0 {
		return errors.New("a pull request number is required (flag --pr)")
	}
	if c.MergeMode != MergeModeAutoMerge && c.MergeMode != MergeModePoll {
		return fmt.Errorf("unknown merge mode %q (want %s or %s)", c.MergeMode, MergeModeAutoMerge, MergeModePoll)
	}
	return nil
}

// LoadDotEnv loads a local .env when present. Missing files are fine; this
// only serves development runs.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// ParseRepository splits an owner/name repository slug.
func ParseRepository(slug string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("invalid repository %q (want owner/name)", slug)
	}
	return owner, repo, nil
}

// ParseUpdateTypes parses the allowed-update-types specification: a
// comma-separated list of <dependencyKey>:<bumpClass> pairs, e.g.
// "dependencies:minor,devDependencies:patch". Keys absent from the result
// allow no bump at all.
func ParseUpdateTypes(spec string) (policy.Config, error) {
	cfg := policy.Config{}
	for _, entry := range splitList(spec) {
		key, class, ok := strings.Cut(entry, ":")
		if !ok || key == "" || class == "" {
			return nil, fmt.Errorf("invalid allowed-update-types entry %q (want key:class)", entry)
		}
		bump, err := policy.ParseBumpClass(class)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed-update-types entry %q: %w", entry, err)
		}
		cfg[key] = append(cfg[key], bump)
	}
	return cfg, nil
}

// ParseMergeStrategy validates the merge strategy selector.
func ParseMergeStrategy(s string) (models.MergeStrategy, error) {
	switch models.MergeStrategy(s) {
	case models.MergeStrategyMerge, models.MergeStrategySquash, models.MergeStrategyRebase:
		return models.MergeStrategy(s), nil
	default:
		return "", fmt.Errorf("unknown merge strategy %q (want merge, squash or rebase)", s)
	}
}

// ParseList splits a comma-separated list, trimming whitespace and
// dropping empty entries.
func ParseList(s string) []string {
	return splitList(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package steps

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/systemstart/step-runner/pkg/results"
)

type gitConfig struct {
	RepoRoot             string   `mapstructure:"repo-root" validate:"required"`
	ReleaseBranchRegexes []string `mapstructure:"release-branch-regexes"`
}

type gitImplementer struct{}

// NewGitImplementer creates the implementer that reads branch and commit
// metadata from a git repository.
func NewGitImplementer() Implementer {
	return &gitImplementer{}
}

func (g *gitImplementer) Name() string { return "Git" }

func (g *gitImplementer) Defaults() map[string]any {
	return map[string]any{
		"repo-root":              ".",
		"release-branch-regexes": []any{"^main$", "^master$"},
	}
}

func (g *gitImplementer) Run(ctx *StepContext, result *results.StepResult) error {
	var cfg gitConfig
	if err := ctx.Decode(&cfg); err != nil {
		return err
	}

	repo, err := git.PlainOpenWithOptions(cfg.RepoRoot, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return fmt.Errorf("opening repository %s: %w", cfg.RepoRoot, err)
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		result.Fail("repository has no commits")
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolving HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		result.Fail("repository is in a detached HEAD state; a branch is required")
		return nil
	}

	branch := head.Name().Short()
	commit := head.Hash().String()

	isRelease, err := matchesAny(branch, cfg.ReleaseBranchRegexes)
	if err != nil {
		return err
	}

	ctx.Logger().Info("read git metadata", "branch", branch, "commit", commit, "release", isRelease)

	if err := result.AddArtifact("branch", results.String(branch), "Current branch"); err != nil {
		return err
	}
	if err := result.AddArtifact("commit-hash", results.String(commit), "Commit hash of HEAD"); err != nil {
		return err
	}
	if err := result.AddArtifact("is-pre-release", results.Bool(!isRelease), "Whether the branch is not a release branch"); err != nil {
		return err
	}
	return result.AddEvidence("commit-hash", results.String(commit), "Commit hash of HEAD")
}

func matchesAny(s string, patterns []string) (bool, error) {
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return false, fmt.Errorf("compiling release branch regex %q: %w", p, err)
		}
		if re.MatchString(s) {
			return true, nil
		}
	}
	return false, nil
}

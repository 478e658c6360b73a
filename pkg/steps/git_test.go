package steps

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// initRepo creates a repository with one commit on branch and returns its
// directory and the commit hash.
func initRepo(t *testing.T, branch string) (string, string) {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	writeTestFile(t, dir, "README.md", "hello repo")
	if _, err := wt.Add("README.md"); err != nil {
		t.Fatal(err)
	}
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Step Runner",
			Email: "runner@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), hash)
	if err := repo.Storer.SetReference(ref); err != nil {
		t.Fatal(err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, ref.Name())); err != nil {
		t.Fatal(err)
	}
	return dir, hash.String()
}

func TestGitImplementer_Run(t *testing.T) {
	tests := []struct {
		branch         string
		wantPreRelease bool
	}{
		{"main", false},
		{"feature/login", true},
	}

	for _, tt := range tests {
		t.Run(tt.branch, func(t *testing.T) {
			dir, hash := initRepo(t, tt.branch)
			impl := NewGitImplementer()
			ctx := newTestContext(t, impl, "generate-metadata", map[string]any{"repo-root": dir}, nil)

			result := runImplementer(t, impl, ctx)
			if !result.Success {
				t.Fatalf("unexpected failure: %s", result.Message)
			}
			if got := artifactString(t, result, "branch"); got != tt.branch {
				t.Errorf("branch = %q, want %q", got, tt.branch)
			}
			if got := artifactString(t, result, "commit-hash"); got != hash {
				t.Errorf("commit-hash = %q, want %q", got, hash)
			}
			pre, _ := result.GetArtifact("is-pre-release").Value.Bool()
			if pre != tt.wantPreRelease {
				t.Errorf("is-pre-release = %v, want %v", pre, tt.wantPreRelease)
			}
			if result.GetEvidence("commit-hash") == nil {
				t.Error("missing commit-hash evidence")
			}
		})
	}
}

func TestGitImplementer_Subdirectory(t *testing.T) {
	dir, _ := initRepo(t, "main")
	sub := filepath.Join(dir, "service")
	if err := os.MkdirAll(sub, 0o750); err != nil {
		t.Fatal(err)
	}

	impl := NewGitImplementer()
	ctx := newTestContext(t, impl, "generate-metadata", map[string]any{"repo-root": sub}, nil)
	result := runImplementer(t, impl, ctx)
	if got := artifactString(t, result, "branch"); got != "main" {
		t.Errorf("branch = %q, want main", got)
	}
}

func TestGitImplementer_NoCommits(t *testing.T) {
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatal(err)
	}

	impl := NewGitImplementer()
	ctx := newTestContext(t, impl, "generate-metadata", map[string]any{"repo-root": dir}, nil)
	result := runImplementer(t, impl, ctx)
	if result.Success {
		t.Fatal("expected failure for a repository without commits")
	}
}

func TestGitImplementer_NotARepository(t *testing.T) {
	impl := NewGitImplementer()
	ctx := newTestContext(t, impl, "generate-metadata", map[string]any{"repo-root": t.TempDir()}, nil)
	if err := impl.Run(ctx, newStepResult(ctx, impl)); err == nil {
		t.Fatal("expected error outside a repository")
	}
}

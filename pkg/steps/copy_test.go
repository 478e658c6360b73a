package steps

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/systemstart/step-runner/pkg/results"
)

func TestCopyImplementer_Run(t *testing.T) {
	src := t.TempDir()
	writeTestFile(t, src, "app.tar", "package contents")
	sum := sha256.Sum256([]byte("package contents"))
	repo := filepath.Join(t.TempDir(), "releases")

	tests := []struct {
		name    string
		url     string
		wantURL string
	}{
		{"with repository url", "https://repo.example.com/releases/", "https://repo.example.com/releases/app.tar"},
		{"file url", "", "file://" + filepath.ToSlash(filepath.Join(repo, "app.tar"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := results.NewWorkflowResult()
			priorResult(t, w, "package", "", map[string]results.Value{
				"package-path": results.File(filepath.Join(src, "app.tar")),
			})

			impl := NewCopyImplementer()
			cfg := map[string]any{"repository-dir": repo}
			if tt.url != "" {
				cfg["repository-url"] = tt.url
			}
			result := runImplementer(t, impl, newTestContext(t, impl, "push-artifacts", cfg, w))
			if !result.Success {
				t.Fatalf("unexpected failure: %s", result.Message)
			}

			if got := artifactString(t, result, "push-url"); got != tt.wantURL {
				t.Errorf("push-url = %q, want %q", got, tt.wantURL)
			}
			got, _ := result.GetEvidence("sha256").Value.Str()
			if got != hex.EncodeToString(sum[:]) {
				t.Errorf("sha256 = %q", got)
			}

			data, err := os.ReadFile(filepath.Join(repo, "app.tar"))
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != "package contents" {
				t.Errorf("copied content = %q", data)
			}
		})
	}
}

func TestCopyImplementer_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		config map[string]any
	}{
		{"no package", map[string]any{"repository-dir": dir}},
		{"missing package", map[string]any{"package-path": filepath.Join(dir, "absent.tar"), "repository-dir": dir}},
		{"bad url", map[string]any{"package-path": filepath.Join(dir, "a"), "repository-dir": dir, "repository-url": "not a url"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			impl := NewCopyImplementer()
			ctx := newTestContext(t, impl, "push-artifacts", tt.config, nil)
			if err := impl.Run(ctx, newStepResult(ctx, impl)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCopyImplementer_Directory(t *testing.T) {
	impl := NewCopyImplementer()
	ctx := newTestContext(t, impl, "push-artifacts", map[string]any{
		"package-path":   t.TempDir(),
		"repository-dir": t.TempDir(),
	}, nil)

	result := runImplementer(t, impl, ctx)
	if result.Success {
		t.Fatal("expected failure for a directory package")
	}
}

package processing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverConfigFiles_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "z.yml"), "")
	writeFile(t, filepath.Join(dir, "a.yaml"), "")
	writeFile(t, filepath.Join(dir, "env", "prod.yml"), "")
	writeFile(t, filepath.Join(dir, "env", "deep", "extra.yaml"), "")
	writeFile(t, filepath.Join(dir, "README.md"), "")

	files, err := DiscoverConfigFiles(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "z.yml"),
		filepath.Join(dir, "env", "prod.yml"),
		filepath.Join(dir, "env", "deep", "extra.yaml"),
	}
	if len(files) != len(want) {
		t.Fatalf("DiscoverConfigFiles() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestDiscoverConfigFiles_File(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "pipeline.conf")
	writeFile(t, f, "")

	files, err := DiscoverConfigFiles(f, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 || files[0] != f {
		t.Errorf("DiscoverConfigFiles() = %v", files)
	}
}

func TestDiscoverConfigFiles_Errors(t *testing.T) {
	if _, err := DiscoverConfigFiles(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing path")
	}

	_, err := DiscoverConfigFiles(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no configuration files") {
		t.Errorf("unexpected error for empty directory: %v", err)
	}
}

func TestLoadConfig_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.yml"), `
step-runner-config:
  global-defaults:
    organization: acme
  package:
    implementer: Command
    config:
      command: [make]
`)
	writeFile(t, filepath.Join(dir, "envs", "prod.yml"), `
step-runner-config:
  global-environment-defaults:
    PROD:
      repository-dir: /srv/releases
  push-artifacts:
    implementer: Copy
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Files) != 2 {
		t.Errorf("Files = %v", cfg.Files)
	}
	if len(cfg.SubSteps("package")) != 1 || len(cfg.SubSteps("push-artifacts")) != 1 {
		t.Errorf("unexpected steps: %v", cfg.Steps)
	}
}

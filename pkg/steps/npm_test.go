package steps

import (
	"path/filepath"
	"testing"
)

func TestNpmImplementer_Run(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "package.json", `{"name": "web", "version": "2.3.1"}`)

	impl := NewNpmImplementer()
	ctx := newTestContext(t, impl, "generate-metadata", map[string]any{"package-file": filepath.Join(dir, "package.json")}, nil)

	result := runImplementer(t, impl, ctx)
	if !result.Success {
		t.Fatalf("unexpected failure: %s", result.Message)
	}
	if got := artifactString(t, result, "app-version"); got != "2.3.1" {
		t.Errorf("app-version = %q, want 2.3.1", got)
	}
}

func TestNpmImplementer_Errors(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "noversion.json", `{"name": "web"}`)
	writeTestFile(t, dir, "broken.json", `{"name":`)

	tests := []struct {
		name        string
		file        string
		wantErr     bool
		wantSuccess bool
	}{
		{"missing version", "noversion.json", false, false},
		{"invalid json", "broken.json", true, false},
		{"missing file", "absent.json", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			impl := NewNpmImplementer()
			ctx := newTestContext(t, impl, "generate-metadata", map[string]any{"package-file": filepath.Join(dir, tt.file)}, nil)
			result := newStepResult(ctx, impl)

			err := impl.Run(ctx, result)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && result.Success != tt.wantSuccess {
				t.Errorf("Success = %v, want %v", result.Success, tt.wantSuccess)
			}
		})
	}
}

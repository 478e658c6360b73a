package steps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/systemstart/step-runner/pkg/results"
)

func TestTemplateImplementer_Run(t *testing.T) {
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "sub"), 0o750); err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, src, "values.yaml", "image: app:{{ .tag }}\nenv: {{ .environment | lower }}")
	writeTestFile(t, filepath.Join(src, "sub"), "ingress.yaml", "host: {{ .domain }}")
	writeTestFile(t, src, "README.md", "{{ not a template")

	w := results.NewWorkflowResult()
	priorResult(t, w, "generate-metadata", "", map[string]results.Value{"tag": results.String("1.0.0")})

	impl := NewTemplateImplementer()
	ctx := newTestContext(t, impl, "render-templates", map[string]any{
		"source-dir": src,
		"domain":     "example.com",
		"files": map[string]any{
			"include": []any{"**/*.yaml"},
		},
	}, w)
	ctx.Environment = "PROD"

	result := runImplementer(t, impl, ctx)
	if !result.Success {
		t.Fatalf("unexpected failure: %s", result.Message)
	}

	files, _ := result.GetArtifact("rendered-files").Value.Items()
	if len(files) != 2 {
		t.Fatalf("rendered-files = %v", files)
	}

	outDir := artifactString(t, result, "rendered-dir")
	tests := []struct {
		file string
		want string
	}{
		{"values.yaml", "image: app:1.0.0\nenv: prod"},
		{filepath.Join("sub", "ingress.yaml"), "host: example.com"},
	}
	for _, tt := range tests {
		content, err := os.ReadFile(filepath.Join(outDir, tt.file))
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != tt.want {
			t.Errorf("%s = %q, want %q", tt.file, content, tt.want)
		}
	}

	original, err := os.ReadFile(filepath.Join(src, "values.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(original) != "image: app:{{ .tag }}\nenv: {{ .environment | lower }}" {
		t.Error("source templates must not be modified")
	}
}

func TestTemplateImplementer_NoFiles(t *testing.T) {
	impl := NewTemplateImplementer()
	ctx := newTestContext(t, impl, "render-templates", map[string]any{"source-dir": t.TempDir()}, nil)

	result := runImplementer(t, impl, ctx)
	if result.Success {
		t.Fatal("expected failure without templates")
	}
}

func TestTemplateImplementer_InvalidTemplate(t *testing.T) {
	src := t.TempDir()
	writeTestFile(t, src, "bad.yaml", "{{ .unclosed")

	impl := NewTemplateImplementer()
	ctx := newTestContext(t, impl, "render-templates", map[string]any{"source-dir": src}, nil)
	if err := impl.Run(ctx, newStepResult(ctx, impl)); err == nil {
		t.Fatal("expected error for invalid template")
	}
}

func TestFilterFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "a", "b"), 0o750); err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, dir, "root.yaml", "")
	writeTestFile(t, filepath.Join(dir, "a"), "one.yaml", "")
	writeTestFile(t, filepath.Join(dir, "a", "b"), "two.yaml", "")
	writeTestFile(t, filepath.Join(dir, "a"), "skip.txt", "")

	tests := []struct {
		name    string
		include []string
		exclude []string
		want    []string
	}{
		{"default include", nil, nil, []string{"a/b/two.yaml", "a/one.yaml", "a/skip.txt", "root.yaml"}},
		{"yaml only", []string{"**/*.yaml"}, nil, []string{"a/b/two.yaml", "a/one.yaml", "root.yaml"}},
		{"exclude nested", []string{"**/*.yaml"}, []string{"a/b/**"}, []string{"a/one.yaml", "root.yaml"}},
		{"overlapping includes", []string{"*.yaml", "**/*.yaml"}, nil, []string{"a/b/two.yaml", "a/one.yaml", "root.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filterFiles(os.DirFS(dir), tt.include, tt.exclude)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("filterFiles() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("filterFiles()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

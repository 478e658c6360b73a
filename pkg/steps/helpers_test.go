package steps

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/systemstart/step-runner/pkg/results"
)

// writeTestFile writes content to a file in dir, failing the test on error.
func writeTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

// newTestContext builds a StepContext for impl with its defaults overlaid
// by config, the way the engine layers them.
func newTestContext(t *testing.T, impl Implementer, step string, config map[string]any, workflow *results.WorkflowResult) *StepContext {
	t.Helper()
	merged := make(map[string]any)
	for k, v := range impl.Defaults() {
		merged[k] = v
	}
	for k, v := range config {
		merged[k] = v
	}
	if workflow == nil {
		workflow = results.NewWorkflowResult()
	}
	return &StepContext{
		Context:     context.Background(),
		StepName:    step,
		SubStepName: impl.Name(),
		WorkDir:     t.TempDir(),
		Config:      merged,
		Workflow:    workflow,
	}
}

func newStepResult(ctx *StepContext, impl Implementer) *results.StepResult {
	return results.NewStepResult(ctx.StepName, ctx.SubStepName, impl.Name(), ctx.Environment)
}

// runImplementer runs impl and returns its result, failing on a Run error.
func runImplementer(t *testing.T, impl Implementer, ctx *StepContext) *results.StepResult {
	t.Helper()
	result := newStepResult(ctx, impl)
	if err := impl.Run(ctx, result); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	return result
}

func artifactString(t *testing.T, r *results.StepResult, name string) string {
	t.Helper()
	e := r.GetArtifact(name)
	if e == nil {
		t.Fatalf("missing artifact %q (message: %s)", name, r.Message)
	}
	s, ok := e.Value.Str()
	if !ok {
		t.Fatalf("artifact %q is %s, not a string", name, e.Type)
	}
	return s
}

func priorResult(t *testing.T, w *results.WorkflowResult, step, env string, artifacts map[string]results.Value) {
	t.Helper()
	r := results.NewStepResult(step, "Prior", "Prior", env)
	for name, v := range artifacts {
		if err := r.AddArtifact(name, v, ""); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.AddStepResult(r); err != nil {
		t.Fatal(err)
	}
}

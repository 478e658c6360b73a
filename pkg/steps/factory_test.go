package steps

import (
	"testing"

	"github.com/systemstart/step-runner/pkg/api"
)

func TestNewImplementer(t *testing.T) {
	names := []string{
		api.ImplementerGit,
		api.ImplementerNpm,
		api.ImplementerSemanticVersion,
		api.ImplementerCommand,
		api.ImplementerCopy,
		api.ImplementerTemplate,
		api.ImplementerHelm,
		api.ImplementerKustomize,
		api.ImplementerSummary,
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			impl, err := NewImplementer(name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if impl.Name() != name {
				t.Errorf("Name() = %q, want %q", impl.Name(), name)
			}
		})
	}
}

func TestNewImplementer_Unknown(t *testing.T) {
	if _, err := NewImplementer("Maven"); err == nil {
		t.Fatal("expected error for unknown implementer")
	}
}

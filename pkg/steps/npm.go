package steps

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/systemstart/step-runner/pkg/results"
)

type npmConfig struct {
	PackageFile string `mapstructure:"package-file" validate:"required"`
}

type packageJSON struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type npmImplementer struct{}

// NewNpmImplementer creates the implementer that reads the application
// version from package.json.
func NewNpmImplementer() Implementer {
	return &npmImplementer{}
}

func (n *npmImplementer) Name() string { return "Npm" }

func (n *npmImplementer) Defaults() map[string]any {
	return map[string]any{"package-file": "package.json"}
}

func (n *npmImplementer) Run(ctx *StepContext, result *results.StepResult) error {
	var cfg npmConfig
	if err := ctx.Decode(&cfg); err != nil {
		return err
	}

	data, err := os.ReadFile(cfg.PackageFile)
	if err != nil {
		return fmt.Errorf("reading package file: %w", err)
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return fmt.Errorf("parsing package file %s: %w", cfg.PackageFile, err)
	}
	if pkg.Version == "" {
		result.Fail(fmt.Sprintf("%s does not define a version", cfg.PackageFile))
		return nil
	}

	ctx.Logger().Info("read npm package version", "package", pkg.Name, "version", pkg.Version)
	return result.AddArtifact("app-version", results.String(pkg.Version), "Application version from "+cfg.PackageFile)
}

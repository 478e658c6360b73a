package steps

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/systemstart/step-runner/pkg/results"
)

const manifestFilename = "manifest.yaml"

type helmConfig struct {
	Chart       string            `mapstructure:"chart" validate:"required"`
	ReleaseName string            `mapstructure:"release-name" validate:"required"`
	Namespace   string            `mapstructure:"namespace"`
	ValuesFiles []string          `mapstructure:"values-files"`
	Set         map[string]string `mapstructure:"set"`
	SourceDir   string            `mapstructure:"source-dir"`
}

type helmImplementer struct{}

// NewHelmImplementer creates the implementer that renders a Helm chart
// into a deployable manifest.
func NewHelmImplementer() Implementer {
	return &helmImplementer{}
}

func (s *helmImplementer) Name() string { return "Helm" }

func (s *helmImplementer) Defaults() map[string]any {
	return map[string]any{"namespace": "default", "source-dir": "."}
}

func (s *helmImplementer) Run(ctx *StepContext, result *results.StepResult) error {
	var cfg helmConfig
	if err := ctx.Decode(&cfg); err != nil {
		return err
	}

	sourceDir, err := filepath.Abs(cfg.SourceDir)
	if err != nil {
		return fmt.Errorf("resolving source directory: %w", err)
	}
	chart := resolvePath(sourceDir, cfg.Chart)

	args := []string{"template", cfg.ReleaseName, chart, "--namespace", cfg.Namespace}
	for _, vf := range cfg.ValuesFiles {
		args = append(args, "--values", resolvePath(sourceDir, vf))
	}

	data := ctx.TemplateData()
	keys := make([]string, 0, len(cfg.Set))
	for k := range cfg.Set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, err := renderString("set."+k, cfg.Set[k], data)
		if err != nil {
			return err
		}
		args = append(args, "--set", fmt.Sprintf("%s=%s", k, v))
	}

	ctx.Logger().Info("running helm template", "chart", chart, "release", cfg.ReleaseName)

	res, err := runTool(ctx.ctx(), sourceDir, "helm", args, nil)
	if err != nil {
		result.Fail(err.Error())
		return nil
	}
	return writeManifest(ctx, result, res.Stdout)
}

func writeManifest(ctx *StepContext, result *results.StepResult, manifest []byte) error {
	outDir, err := ctx.OutputDir()
	if err != nil {
		return err
	}
	path := filepath.Join(outDir, manifestFilename)
	if err := os.WriteFile(path, manifest, 0o600); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return result.AddArtifact("deployed-manifest", results.File(path), "Rendered deployment manifest")
}

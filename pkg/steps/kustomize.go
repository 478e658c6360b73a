package steps

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/systemstart/step-runner/pkg/results"
	"gopkg.in/yaml.v3"
)

const kustomizationFilename = "kustomization.yaml"

type kustomizeConfig struct {
	Dir        string `mapstructure:"dir" validate:"required"`
	EnableHelm bool   `mapstructure:"enable-helm"`
}

type kustomizeImplementer struct{}

// NewKustomizeImplementer creates the implementer that builds a
// kustomization into a deployable manifest.
func NewKustomizeImplementer() Implementer {
	return &kustomizeImplementer{}
}

func (s *kustomizeImplementer) Name() string { return "Kustomize" }

func (s *kustomizeImplementer) Defaults() map[string]any {
	return map[string]any{"dir": "."}
}

func (s *kustomizeImplementer) Run(ctx *StepContext, result *results.StepResult) error {
	var cfg kustomizeConfig
	if err := ctx.Decode(&cfg); err != nil {
		return err
	}

	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return fmt.Errorf("resolving kustomization directory: %w", err)
	}
	if err := checkKustomization(dir); err != nil {
		result.Fail(err.Error())
		return nil
	}

	args := []string{"build", dir}
	if cfg.EnableHelm {
		args = append(args, "--enable-helm")
	}

	ctx.Logger().Info("running kustomize", "dir", dir, "enableHelm", cfg.EnableHelm)

	res, err := runTool(ctx.ctx(), dir, "kustomize", args, nil)
	if err != nil {
		result.Fail(err.Error())
		return nil
	}
	return writeManifest(ctx, result, res.Stdout)
}

// kustomizationFile is the subset of a kustomization needed to sanity check it.
type kustomizationFile struct {
	Resources  []string `yaml:"resources"`
	HelmCharts []any    `yaml:"helmCharts"`
}

func checkKustomization(dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, kustomizationFilename))
	if err != nil {
		return fmt.Errorf("reading %s: %w", kustomizationFilename, err)
	}

	var kf kustomizationFile
	if err := yaml.Unmarshal(data, &kf); err != nil {
		return fmt.Errorf("parsing %s: %w", kustomizationFilename, err)
	}
	if len(kf.Resources) == 0 && len(kf.HelmCharts) == 0 {
		return fmt.Errorf("%s in %s has no resources", kustomizationFilename, dir)
	}
	return nil
}

package steps

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/systemstart/step-runner/pkg/api"
	"github.com/systemstart/step-runner/pkg/results"
)

// FileFilter selects files by doublestar include and exclude patterns.
type FileFilter struct {
	Include []string `mapstructure:"include"`
	Exclude []string `mapstructure:"exclude"`
}

type templateConfig struct {
	SourceDir string     `mapstructure:"source-dir" validate:"required"`
	Files     FileFilter `mapstructure:"files"`
}

type templateImplementer struct{}

// NewTemplateImplementer creates the implementer that renders sprig
// templates from a source directory into the sub-step output directory.
func NewTemplateImplementer() Implementer {
	return &templateImplementer{}
}

func (s *templateImplementer) Name() string { return "Template" }

func (s *templateImplementer) Defaults() map[string]any {
	return map[string]any{"source-dir": "."}
}

func (s *templateImplementer) Run(ctx *StepContext, result *results.StepResult) error {
	var cfg templateConfig
	if err := ctx.Decode(&cfg); err != nil {
		return err
	}

	files, err := filterFiles(os.DirFS(cfg.SourceDir), cfg.Files.Include, cfg.Files.Exclude)
	if err != nil {
		return fmt.Errorf("filtering files: %w", err)
	}
	if len(files) == 0 {
		result.Fail(fmt.Sprintf("no templates found in %s", cfg.SourceDir))
		return nil
	}

	outDir, err := ctx.OutputDir()
	if err != nil {
		return err
	}

	ctx.Logger().Info("rendering templates", "source", cfg.SourceDir, "count", len(files))

	data := ctx.TemplateData()
	rendered := make([]results.Value, 0, len(files))
	for _, file := range files {
		target := filepath.Join(outDir, filepath.FromSlash(file))
		if err := processFile(filepath.Join(cfg.SourceDir, filepath.FromSlash(file)), target, data); err != nil {
			return fmt.Errorf("processing %s: %w", file, err)
		}
		rendered = append(rendered, results.File(target))
	}

	if err := result.AddArtifact("rendered-dir", results.File(outDir), "Directory holding the rendered templates"); err != nil {
		return err
	}
	return result.AddArtifact("rendered-files", results.List(rendered...), "Rendered template files")
}

func globFS(fsys fs.FS, patterns []string) ([]string, error) {
	var result []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		result = append(result, matches...)
	}
	slices.Sort(result)
	result = slices.Compact(result)
	return result, nil
}

func filterFiles(fsys fs.FS, include, exclude []string) ([]string, error) {
	if len(include) == 0 {
		include = []string{api.DefaultFileInclude}
	}

	included, err := globFS(fsys, include)
	if err != nil {
		return nil, fmt.Errorf("include filter: %w", err)
	}

	excluded, err := globFS(fsys, exclude)
	if err != nil {
		return nil, fmt.Errorf("exclude filter: %w", err)
	}

	var result []string
	for _, f := range included {
		info, err := fs.Stat(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", f, err)
		}
		if info.IsDir() {
			continue
		}
		if slices.Contains(excluded, f) {
			continue
		}
		result = append(result, f)
	}
	return result, nil
}

func processFile(source, target string, data map[string]any) error {
	content, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	tmpl, err := template.New(filepath.Base(source)).Funcs(sprig.FuncMap()).Parse(string(content))
	if err != nil {
		return fmt.Errorf("parsing template: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating parent directories: %w", err)
	}
	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	execErr := tmpl.Execute(out, data)

	if closeErr := out.Close(); closeErr != nil {
		if execErr != nil {
			return fmt.Errorf("executing template: %w", execErr)
		}
		return fmt.Errorf("closing output file: %w", closeErr)
	}
	if execErr != nil {
		return fmt.Errorf("executing template: %w", execErr)
	}

	slog.Debug("template rendered", "file", target)
	return nil
}

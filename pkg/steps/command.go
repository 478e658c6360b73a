package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/systemstart/step-runner/pkg/results"
)

const commandOutputFilename = "command-output.log"

type commandConfig struct {
	Command       []string          `mapstructure:"command" validate:"required,min=1"`
	WorkingDir    string            `mapstructure:"working-dir"`
	ArtifactGlobs []string          `mapstructure:"artifact-globs"`
	Env           map[string]string `mapstructure:"env"`
}

type commandImplementer struct{}

// NewCommandImplementer creates the implementer that runs an arbitrary
// build command and collects the files it produced.
func NewCommandImplementer() Implementer {
	return &commandImplementer{}
}

func (c *commandImplementer) Name() string { return "Command" }

func (c *commandImplementer) Defaults() map[string]any {
	return map[string]any{"working-dir": "."}
}

func (c *commandImplementer) Run(ctx *StepContext, result *results.StepResult) error {
	var cfg commandConfig
	if err := ctx.Decode(&cfg); err != nil {
		return err
	}

	data := ctx.TemplateData()
	args := make([]string, len(cfg.Command))
	for i, arg := range cfg.Command {
		rendered, err := renderString(fmt.Sprintf("command[%d]", i), arg, data)
		if err != nil {
			return err
		}
		args[i] = rendered
	}
	env := make([]string, 0, len(cfg.Env))
	for k, v := range cfg.Env {
		rendered, err := renderString("env."+k, v, data)
		if err != nil {
			return err
		}
		env = append(env, k+"="+rendered)
	}

	outDir, err := ctx.OutputDir()
	if err != nil {
		return err
	}
	workingDir, err := filepath.Abs(cfg.WorkingDir)
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}

	ctx.Logger().Info("running command", "command", args, "dir", workingDir)

	output, runErr := runCommand(ctx.ctx(), workingDir, args, env)

	logPath := filepath.Join(outDir, commandOutputFilename)
	if err := os.WriteFile(logPath, output, 0o600); err != nil {
		return fmt.Errorf("writing command output: %w", err)
	}
	if err := result.AddArtifact("command-output", results.File(logPath), "Combined output of the command"); err != nil {
		return err
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.Fail(fmt.Sprintf("command %v exited with code %d", args, exitErr.ExitCode()))
			return nil
		}
		return fmt.Errorf("running command %v: %w", args, runErr)
	}

	if len(cfg.ArtifactGlobs) == 0 {
		return nil
	}
	return collectPackages(workingDir, cfg.ArtifactGlobs, result)
}

func runCommand(ctx context.Context, dir string, args []string, env []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), env...)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

func collectPackages(dir string, globs []string, result *results.StepResult) error {
	matches, err := filterFiles(os.DirFS(dir), globs, nil)
	if err != nil {
		return fmt.Errorf("collecting artifacts: %w", err)
	}
	if len(matches) == 0 {
		result.Fail(fmt.Sprintf("no files matched artifact globs %v", globs))
		return nil
	}

	packages := make([]results.Value, 0, len(matches))
	for _, m := range matches {
		packages = append(packages, results.File(filepath.Join(dir, filepath.FromSlash(m))))
	}

	if err := result.AddArtifact("packages", results.List(packages...), "Files produced by the command"); err != nil {
		return err
	}
	return result.AddArtifact("package-path", packages[0], "Primary package produced by the command")
}

// renderString executes text as a sprig template against data.
func renderString(name, text string, data map[string]any) (string, error) {
	tmpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}
	return buf.String(), nil
}

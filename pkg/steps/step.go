package steps

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/systemstart/step-runner/pkg/api"
	"github.com/systemstart/step-runner/pkg/results"
)

// StepContext provides the runtime context for one sub-step run.
type StepContext struct {
	Context context.Context

	StepName    string
	SubStepName string
	Environment string

	// WorkDir is the step-runner working directory. Sub-steps write their
	// files below OutputDir.
	WorkDir string

	// Config is the layered static configuration of the sub-step.
	Config map[string]any
	// Runtime holds values given for this invocation only.
	Runtime map[string]any

	// Workflow holds every result recorded so far, including the sub-steps
	// already run for this step.
	Workflow *results.WorkflowResult
}

// Implementer is the interface all sub-step implementers satisfy. Run
// records its outcome on result; a returned error marks the sub-step failed.
type Implementer interface {
	Name() string
	Defaults() map[string]any
	Run(ctx *StepContext, result *results.StepResult) error
}

// GetValue resolves key from, in order: runtime values, artifacts of prior
// results (most recent first, matching the environment), static config.
func (c *StepContext) GetValue(key string) (any, bool) {
	if v, ok := c.Runtime[key]; ok {
		return v, true
	}
	if c.Workflow != nil {
		if v, ok := c.Workflow.GetArtifactValue(key, results.Filter{Environment: c.Environment}); ok {
			return v.Interface(), true
		}
	}
	v, ok := c.Config[key]
	return v, ok
}

// GetString returns the value for key rendered as a string, or "" when unset.
func (c *StepContext) GetString(key string) string {
	v, ok := c.GetValue(key)
	if !ok || v == nil {
		return ""
	}
	if s, isString := v.(string); isString {
		return s
	}
	return fmt.Sprint(v)
}

// Decode resolves every mapstructure field of out through GetValue, decodes
// the values into out and validates the result.
func (c *StepContext) Decode(out any) error {
	input := make(map[string]any)
	for _, key := range fieldKeys(out) {
		if v, ok := c.GetValue(key); ok {
			input[key] = v
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("creating config decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	if err := api.ValidateStruct(out); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// TemplateData returns the values visible to templates: static config,
// every artifact recorded for the environment, then runtime values.
func (c *StepContext) TemplateData() map[string]any {
	data := make(map[string]any, len(c.Config))
	for k, v := range c.Config {
		data[k] = v
	}
	if c.Workflow != nil {
		for _, r := range c.Workflow.StepResults() {
			if r.Environment != "" && c.Environment != "" && r.Environment != c.Environment {
				continue
			}
			for name, entry := range r.Artifacts() {
				data[name] = entry.Value.Interface()
			}
		}
	}
	for k, v := range c.Runtime {
		data[k] = v
	}
	data["environment"] = c.Environment
	return data
}

// OutputDir returns, creating it if needed, the directory reserved for the
// files of this sub-step.
func (c *StepContext) OutputDir() (string, error) {
	parts := []string{c.WorkDir, c.StepName, c.SubStepName}
	if c.Environment != "" {
		parts = append(parts, c.Environment)
	}
	dir := filepath.Join(parts...)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return dir, nil
}

// Logger returns the default logger annotated with the sub-step identity.
func (c *StepContext) Logger() *slog.Logger {
	return slog.With("step", c.StepName, "subStep", c.SubStepName, "environment", c.Environment)
}

func (c *StepContext) ctx() context.Context {
	if c.Context == nil {
		return context.Background()
	}
	return c.Context
}

// resolvePath joins a relative path onto base.
func resolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func fieldKeys(out any) []string {
	t := reflect.TypeOf(out)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		keys = append(keys, name)
	}
	return keys
}

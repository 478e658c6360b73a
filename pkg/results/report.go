package results

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultReportKey is the top-level key of aggregate reports.
	DefaultReportKey = "workflow-results"
	// LegacyReportKey is the key older report consumers expect.
	LegacyReportKey = "tssc-results"

	// ReportBasename is the aggregate report file name without extension.
	ReportBasename = "workflow-results"
	// EvidenceReportBasename is the evidence report file name without extension.
	EvidenceReportBasename = "workflow-evidence"

	// NoEnvironmentKey names environment-agnostic results when a report has
	// to nest a sub-step by environment.
	NoEnvironmentKey = "no-environment"
)

// Format is a textual report format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts yaml, yml and json in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown report format %q", ErrValidation, s)
	}
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	if f == FormatJSON {
		return ".json"
	}
	return ".yml"
}

// Marshal encodes report data in format f.
func (f Format) Marshal(data any) ([]byte, error) {
	switch f {
	case FormatYAML:
		return yaml.Marshal(data)
	case FormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("%w: unknown report format %q", ErrValidation, string(f))
	}
}

// Unmarshal decodes report data written in format f.
func (f Format) Unmarshal(data []byte, out any) error {
	switch f {
	case FormatYAML:
		return yaml.Unmarshal(data, out)
	case FormatJSON:
		return json.Unmarshal(data, out)
	default:
		return fmt.Errorf("%w: unknown report format %q", ErrValidation, string(f))
	}
}

// ReportMap returns the aggregate report: every result's report form under
// key. A step recorded once maps straight to its body. A step recorded for
// several sub-steps nests by sub-step name, and a sub-step recorded for
// several environments nests further by environment.
func (w *WorkflowResult) ReportMap(key string) map[string]any {
	return map[string]any{key: w.nest((*StepResult).body)}
}

// EvidenceReportMap is ReportMap restricted to identity, success and
// evidence, for attestation consumers.
func (w *WorkflowResult) EvidenceReportMap(key string) map[string]any {
	return map[string]any{key: w.nest((*StepResult).evidenceBody)}
}

func (r *StepResult) evidenceBody() map[string]any {
	return map[string]any{
		"step-name":                 r.StepName,
		"sub-step-name":             r.SubStepName,
		"sub-step-implementer-name": r.SubStepImplementerName,
		"environment":               environmentValue(r.Environment),
		"success":                   r.Success,
		"evidence":                  entriesMap(r.evidence),
	}
}

func (w *WorkflowResult) nest(body func(*StepResult) map[string]any) map[string]any {
	byStep := make(map[string][]*StepResult)
	var order []string
	for _, r := range w.results {
		if _, seen := byStep[r.StepName]; !seen {
			order = append(order, r.StepName)
		}
		byStep[r.StepName] = append(byStep[r.StepName], r)
	}

	out := make(map[string]any, len(order))
	for _, step := range order {
		group := byStep[step]
		if len(group) == 1 {
			out[step] = body(group[0])
			continue
		}
		out[step] = nestSubSteps(group, body)
	}
	return out
}

func nestSubSteps(group []*StepResult, body func(*StepResult) map[string]any) map[string]any {
	bySubStep := make(map[string][]*StepResult)
	for _, r := range group {
		bySubStep[r.SubStepName] = append(bySubStep[r.SubStepName], r)
	}

	out := make(map[string]any, len(bySubStep))
	for subStep, rs := range bySubStep {
		if len(rs) == 1 {
			out[subStep] = body(rs[0])
			continue
		}
		envs := make(map[string]any, len(rs))
		for _, r := range rs {
			env := r.Environment
			if env == "" {
				env = NoEnvironmentKey
			}
			envs[env] = body(r)
		}
		out[subStep] = envs
	}
	return out
}

// WriteReport writes the aggregate report to path.
func (w *WorkflowResult) WriteReport(path string, format Format, key string) error {
	return writeReport(path, format, w.ReportMap(key))
}

// WriteEvidenceReport writes the evidence report to path.
func (w *WorkflowResult) WriteEvidenceReport(path string, format Format, key string) error {
	return writeReport(path, format, w.EvidenceReportMap(key))
}

func writeReport(path string, format Format, report map[string]any) error {
	data, err := format.Marshal(report)
	if err != nil {
		return fmt.Errorf("%w: encoding report: %w", ErrPersistence, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("%w: writing report %s: %w", ErrPersistence, path, err)
	}
	return nil
}

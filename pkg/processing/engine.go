package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/systemstart/step-runner/pkg/api"
	"github.com/systemstart/step-runner/pkg/results"
	"github.com/systemstart/step-runner/pkg/steps"
)

// DefaultWorkDir is the working directory used when none is configured.
const DefaultWorkDir = "step-runner-working"

// ErrStepNotConfigured is returned when a step has no sub-steps in the
// configuration.
var ErrStepNotConfigured = errors.New("step not configured")

// ImplementerFactory creates the implementer registered under a name.
type ImplementerFactory func(name string) (steps.Implementer, error)

// Runner runs configured steps against the persisted workflow results.
type Runner struct {
	Config *api.Config

	// WorkDir holds the snapshot and the files written by sub-steps.
	WorkDir string
	// ResultsDir receives the aggregate reports. Defaults to WorkDir.
	ResultsDir string

	ReportFormat results.Format
	ReportKey    string

	// NewImplementer defaults to steps.NewImplementer.
	NewImplementer ImplementerFactory
}

// SnapshotPath returns the location of the workflow snapshot.
func (r *Runner) SnapshotPath() string {
	return filepath.Join(r.workDir(), results.SnapshotFilename)
}

// ReportPath returns the location of the aggregate report.
func (r *Runner) ReportPath() string {
	return filepath.Join(r.resultsDir(), results.ReportBasename+r.reportFormat().Extension())
}

// EvidenceReportPath returns the location of the aggregate evidence report.
func (r *Runner) EvidenceReportPath() string {
	return filepath.Join(r.resultsDir(), results.EvidenceReportBasename+r.reportFormat().Extension())
}

// RunStep runs every sub-step configured for stepName, records their
// results, and persists the snapshot and reports. It reports whether all
// sub-steps that count toward the step succeeded. A failed sub-step stops
// the step unless it continues on failure. Errors are reserved for
// configuration and persistence problems.
func (r *Runner) RunStep(ctx context.Context, stepName, environment string, runtime map[string]any) (bool, error) {
	subSteps := r.Config.SubSteps(stepName)
	if len(subSteps) == 0 {
		return false, fmt.Errorf("%w: %s", ErrStepNotConfigured, stepName)
	}

	implementers := make([]steps.Implementer, len(subSteps))
	for i, sub := range subSteps {
		impl, err := r.factory()(sub.Implementer)
		if err != nil {
			return false, fmt.Errorf("step %q sub-step %q: %w", stepName, sub.Name, err)
		}
		implementers[i] = impl
	}

	workflow, err := results.LoadSnapshot(r.SnapshotPath())
	if err != nil {
		return false, fmt.Errorf("loading workflow results: %w", err)
	}

	slog.Info("running step", "step", stepName, "environment", environment, "subSteps", len(subSteps))

	success := true
	var runErr error
	for i, sub := range subSteps {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("step %q interrupted: %w", stepName, err)
			break
		}

		result := r.runSubStep(ctx, stepName, environment, runtime, sub, implementers[i], workflow)
		if err := workflow.AddStepResult(result); err != nil {
			return false, fmt.Errorf("recording sub-step %q: %w", sub.Name, err)
		}

		if result.Success {
			slog.Info("sub-step succeeded", "step", stepName, "subStep", sub.Name)
			continue
		}
		if sub.ContinueOnFailure {
			slog.Warn("sub-step failed, continuing", "step", stepName, "subStep", sub.Name, "message", result.Message)
			continue
		}
		slog.Error("sub-step failed", "step", stepName, "subStep", sub.Name, "message", result.Message)
		success = false
		break
	}

	if err := r.persist(workflow); err != nil {
		return false, err
	}
	if runErr != nil {
		return false, runErr
	}
	return success, nil
}

func (r *Runner) runSubStep(ctx context.Context, stepName, environment string, runtime map[string]any,
	sub api.SubStepConfig, impl steps.Implementer, workflow *results.WorkflowResult,
) *results.StepResult {
	result := results.NewStepResult(stepName, sub.Name, sub.Implementer, environment)

	sctx := &steps.StepContext{
		Context:     ctx,
		StepName:    stepName,
		SubStepName: sub.Name,
		Environment: environment,
		WorkDir:     r.workDir(),
		Config:      SubStepConfig(r.Config, sub, environment, impl.Defaults()),
		Runtime:     runtime,
		Workflow:    workflow,
	}

	slog.Info("running sub-step", "step", stepName, "subStep", sub.Name, "implementer", sub.Implementer)
	if err := impl.Run(sctx, result); err != nil {
		result.Fail(err.Error())
	}
	return result
}

// WriteReport regenerates the reports from the persisted snapshot.
func (r *Runner) WriteReport() error {
	workflow, err := results.LoadSnapshot(r.SnapshotPath())
	if err != nil {
		return fmt.Errorf("loading workflow results: %w", err)
	}
	return r.writeReports(workflow)
}

// LoadResults returns the persisted workflow results.
func (r *Runner) LoadResults() (*results.WorkflowResult, error) {
	return results.LoadSnapshot(r.SnapshotPath())
}

func (r *Runner) persist(workflow *results.WorkflowResult) error {
	if err := workflow.WriteSnapshot(r.SnapshotPath()); err != nil {
		return fmt.Errorf("saving workflow results: %w", err)
	}
	return r.writeReports(workflow)
}

func (r *Runner) writeReports(workflow *results.WorkflowResult) error {
	format, key := r.reportFormat(), r.reportKey()
	if err := workflow.WriteReport(r.ReportPath(), format, key); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if err := workflow.WriteEvidenceReport(r.EvidenceReportPath(), format, key); err != nil {
		return fmt.Errorf("writing evidence report: %w", err)
	}
	slog.Debug("wrote reports", "report", r.ReportPath(), "evidence", r.EvidenceReportPath())
	return nil
}

func (r *Runner) workDir() string {
	if r.WorkDir == "" {
		return DefaultWorkDir
	}
	return r.WorkDir
}

func (r *Runner) resultsDir() string {
	if r.ResultsDir == "" {
		return r.workDir()
	}
	return r.ResultsDir
}

func (r *Runner) reportFormat() results.Format {
	if r.ReportFormat == "" {
		return results.FormatYAML
	}
	return r.ReportFormat
}

func (r *Runner) reportKey() string {
	if r.ReportKey == "" {
		return results.DefaultReportKey
	}
	return r.ReportKey
}

func (r *Runner) factory() ImplementerFactory {
	if r.NewImplementer == nil {
		return steps.NewImplementer
	}
	return r.NewImplementer
}

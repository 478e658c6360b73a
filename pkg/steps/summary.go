package steps

import (
	"fmt"
	"path/filepath"

	"github.com/systemstart/step-runner/pkg/results"
)

type summaryConfig struct {
	EvidenceFormat string `mapstructure:"evidence-format" validate:"required,oneof=yaml yml json"`
	ReportKey      string `mapstructure:"report-key" validate:"required"`
}

type summaryImplementer struct{}

// NewSummaryImplementer creates the implementer that collects the evidence
// of every recorded result into one attestation file.
func NewSummaryImplementer() Implementer {
	return &summaryImplementer{}
}

func (s *summaryImplementer) Name() string { return "Summary" }

func (s *summaryImplementer) Defaults() map[string]any {
	return map[string]any{
		"evidence-format": string(results.FormatYAML),
		"report-key":      results.DefaultReportKey,
	}
}

func (s *summaryImplementer) Run(ctx *StepContext, result *results.StepResult) error {
	var cfg summaryConfig
	if err := ctx.Decode(&cfg); err != nil {
		return err
	}
	format, err := results.ParseFormat(cfg.EvidenceFormat)
	if err != nil {
		return err
	}

	outDir, err := ctx.OutputDir()
	if err != nil {
		return err
	}
	path := filepath.Join(outDir, results.EvidenceReportBasename+format.Extension())

	workflow := ctx.Workflow
	if workflow == nil {
		workflow = results.NewWorkflowResult()
	}
	if err := workflow.WriteEvidenceReport(path, format, cfg.ReportKey); err != nil {
		return fmt.Errorf("writing evidence report: %w", err)
	}

	ctx.Logger().Info("wrote evidence report", "path", path, "results", workflow.Len())
	return result.AddArtifact("evidence-report", results.File(path), "Evidence collected from every step")
}

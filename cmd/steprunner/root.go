package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/systemstart/step-runner/pkg/logging"
	"github.com/systemstart/step-runner/pkg/processing"
	"github.com/systemstart/step-runner/pkg/results"
)

const envPrefix = "STEPRUNNER"

var persistentSettings = []string{
	"work-dir",
	"results-dir",
	"report-format",
	"report-key",
	"logging-type",
	"log-level",
	"log-file",
}

// app holds the state shared by all subcommands of one invocation.
type app struct {
	v         *viper.Viper
	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	cmd := &cobra.Command{
		Use:           "steprunner",
		Short:         "Run CI/CD workflow steps and record their results",
		Long:          "steprunner runs one workflow step per invocation, persisting artifacts and evidence across invocations.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("work-dir", processing.DefaultWorkDir, "directory holding the workflow snapshot and sub-step files")
	flags.String("results-dir", "", "directory receiving the reports (defaults to --work-dir)")
	flags.String("report-format", string(results.FormatYAML), "report format: yaml or json")
	flags.String("report-key", results.DefaultReportKey, "top-level key of the reports")
	flags.String("logging-type", logging.Tint, "logging type: json, text or tint")
	flags.String("log-level", "info", "logging level: debug, info, warn, error")
	flags.String("log-file", "", "also write logs to this file, rotated by size")

	cmd.AddCommand(newRunCmd(a), newReportCmd(a), newArtifactCmd(a))
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	for _, name := range persistentSettings {
		if err := a.v.BindPFlag(name, cmd.Root().PersistentFlags().Lookup(name)); err != nil {
			return withExitCode(exitInvalidSettings, fmt.Errorf("binding flag %s: %w", name, err))
		}
	}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	usedDotenv, err := includeEnv()
	if err != nil {
		return err
	}

	closer, err := logging.Initialize(a.v.GetString("logging-type"), a.v.GetString("log-level"), a.v.GetString("log-file"))
	if err != nil {
		return withExitCode(exitLoggingSetupFailed, err)
	}
	a.logCloser = closer
	logging.WithInvocationID()

	if usedDotenv {
		slog.Info("using .env file")
	} else {
		slog.Debug("no .env file found")
	}
	return nil
}

// runner builds a Runner from the resolved settings.
func (a *app) runner() (*processing.Runner, error) {
	format, err := results.ParseFormat(a.v.GetString("report-format"))
	if err != nil {
		return nil, withExitCode(exitInvalidSettings, err)
	}

	workDir, err := filepath.Abs(a.v.GetString("work-dir"))
	if err != nil {
		return nil, withExitCode(exitInvalidSettings, fmt.Errorf("resolving work dir: %w", err))
	}
	resultsDir := a.v.GetString("results-dir")
	if resultsDir != "" {
		if resultsDir, err = filepath.Abs(resultsDir); err != nil {
			return nil, withExitCode(exitInvalidSettings, fmt.Errorf("resolving results dir: %w", err))
		}
	}

	return &processing.Runner{
		WorkDir:      workDir,
		ResultsDir:   resultsDir,
		ReportFormat: format,
		ReportKey:    a.v.GetString("report-key"),
	}, nil
}

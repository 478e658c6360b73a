package main

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/spf13/cobra"
	"github.com/systemstart/step-runner/pkg/processing"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		step        string
		environment string
		configPaths []string
		stepConfig  []string
		runtimeFile string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one configured step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime := make(map[string]any)
			if runtimeFile != "" {
				values, err := processing.LoadRuntimeFile(runtimeFile)
				if err != nil {
					return withExitCode(exitInvalidSettings, err)
				}
				maps.Copy(runtime, values)
			}
			overrides, err := processing.ParseRuntimeValues(stepConfig)
			if err != nil {
				return withExitCode(exitInvalidSettings, err)
			}
			maps.Copy(runtime, overrides)

			cfg, err := processing.LoadConfig(configPaths...)
			if err != nil {
				return withExitCode(exitLoadConfigurationFailed, err)
			}

			r, err := a.runner()
			if err != nil {
				return err
			}
			r.Config = cfg

			ok, err := r.RunStep(cmd.Context(), step, environment, runtime)
			if err != nil {
				return withExitCode(exitToolErrors, err)
			}
			if !ok {
				return withExitCode(exitStepFailed, fmt.Errorf("step %q failed, see %s", step, r.ReportPath()))
			}

			slog.Info("step succeeded", "step", step, "environment", environment, "report", r.ReportPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&step, "step", "", "name of the step to run")
	cmd.Flags().StringVar(&environment, "environment", "", "environment to run the step for")
	cmd.Flags().StringArrayVar(&configPaths, "config", nil, "configuration file or directory (repeatable)")
	cmd.Flags().StringArrayVar(&stepConfig, "step-config", nil, "runtime value as key=value (repeatable)")
	cmd.Flags().StringVar(&runtimeFile, "runtime-file", "", "YAML file of runtime values")
	_ = cmd.MarkFlagRequired("step")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

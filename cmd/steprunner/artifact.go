package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systemstart/step-runner/pkg/results"
	"gopkg.in/yaml.v3"
)

func newArtifactCmd(a *app) *cobra.Command {
	var (
		verbose bool
		filter  results.Filter
	)

	cmd := &cobra.Command{
		Use:   "artifact NAME",
		Short: "Print a recorded artifact",
		Long: "Print the value of a recorded artifact as YAML. Without filters the first\n" +
			"artifact with that name is printed; with filters the most recent match is.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			r, err := a.runner()
			if err != nil {
				return err
			}
			workflow, err := r.LoadResults()
			if err != nil {
				return withExitCode(exitToolErrors, err)
			}

			var out any
			switch {
			case verbose:
				if report := workflow.SearchForArtifactVerbose(name); report != nil {
					out = report
				}
			case filter != (results.Filter{}):
				if v, ok := workflow.GetArtifactValue(name, filter); ok {
					out = v.Interface()
				}
			default:
				if e := workflow.SearchForArtifact(name); e != nil {
					out = e.Value.Interface()
				}
			}
			if out == nil {
				return withExitCode(exitArtifactNotFound, fmt.Errorf("artifact %q not found", name))
			}

			data, err := yaml.Marshal(out)
			if err != nil {
				return withExitCode(exitToolErrors, fmt.Errorf("encoding artifact: %w", err))
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "print the whole result that recorded the artifact")
	cmd.Flags().StringVar(&filter.StepName, "step", "", "only consider results of this step")
	cmd.Flags().StringVar(&filter.SubStepName, "sub-step", "", "only consider results of this sub-step")
	cmd.Flags().StringVar(&filter.Environment, "environment", "", "only consider results of this environment")
	return cmd
}

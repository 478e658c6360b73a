package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Regenerate the reports from the workflow snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.runner()
			if err != nil {
				return err
			}
			if err := r.WriteReport(); err != nil {
				return withExitCode(exitToolErrors, err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), r.ReportPath())
			return err
		},
	}
}

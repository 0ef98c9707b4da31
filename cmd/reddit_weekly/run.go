package main

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect, summarize and publish once (default)",
	RunE:  runOnce,
}

func runOnce(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	_, err = a.runner.Run(ctx)
	return err
}

package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose   bool
	configPath string
	storeKind  string
	table      string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "orchestrator",
		Short:         "Drives the pipeline state machine over configured source/stage/target triples",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to the pipeline configuration file")
	cmd.PersistentFlags().StringVar(&flags.storeKind, "store", "memory", "Record store backend: memory or dynamodb")
	cmd.PersistentFlags().StringVar(&flags.table, "table", "PIPELINE_RECORDS", "DynamoDB table name, when --store=dynamodb")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newSweepCmd(flags))
	cmd.AddCommand(newDashboardCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

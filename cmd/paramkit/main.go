package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	// Initialize logging
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	logrus.SetOutput(os.Stderr)

	rootCmd := &cobra.Command{
		Use:   "paramkit",
		Short: "Parameter file utilities",
		Long:  "Utilities for combining and rewriting JSON, YAML, TOML and INI parameter files.",
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			quiet, _ := cmd.Flags().GetBool("quiet")
			if quiet {
				logrus.SetLevel(logrus.ErrorLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress merge warnings")

	rootCmd.AddCommand(
		CombineJSONCmd(),
		CombineYAMLCmd(),
		CombineTOMLCmd(),
		CombineINICmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

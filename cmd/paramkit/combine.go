package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/paramkit/paramkit"
)

// CombineJSONCmd returns the JSON file combiner command
func CombineJSONCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "combine-json sources... dest",
		Short: "Combine JSON files into one",
		Long:  "Merge the source JSON files left to right and write the result to dest. Later values clobber earlier ones unless --nested merges mappings recursively.",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runCombineJSON,
	}

	cmd.Flags().Bool("nested", false, "Merge colliding mappings recursively instead of clobbering")
	cmd.Flags().Bool("compact", false, "Write the result without indentation")
	cmd.Flags().StringArray("set", nil, "Override as key.path=value, applied after merging (repeatable)")

	return cmd
}

// CombineYAMLCmd returns the YAML file combiner command
func CombineYAMLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "combine-yaml sources... dest",
		Short: "Combine YAML files into one",
		Long:  "Merge the source YAML files left to right and write the result to dest. Later values clobber earlier ones unless --nested merges mappings recursively.",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runCombineYAML,
	}

	cmd.Flags().Bool("nested", false, "Merge colliding mappings recursively instead of clobbering")
	cmd.Flags().StringArray("set", nil, "Override as key.path=value, applied after merging (repeatable)")

	return cmd
}

// CombineTOMLCmd returns the TOML file combiner command
func CombineTOMLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "combine-toml sources... dest",
		Short: "Combine TOML files into one",
		Long:  "Merge the source TOML files left to right and write the result to dest. Later values clobber earlier ones unless --nested merges tables recursively.",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runCombineTOML,
	}

	cmd.Flags().Bool("nested", false, "Merge colliding tables recursively instead of clobbering")
	cmd.Flags().StringArray("set", nil, "Override as key.path=value, applied after merging (repeatable)")

	return cmd
}

// CombineINICmd returns the INI file combiner command
func CombineINICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "combine-ini sources... dest",
		Short: "Combine INI files into one",
		Long:  "Merge the source INI files at the (section, key) level, later values clobbering earlier ones, and write the result to dest.",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runCombineINI,
	}

	cmd.Flags().StringArray("set", nil, "Override as section.key=value, applied after merging (repeatable)")

	return cmd
}

func combineFileOptions(cmd *cobra.Command) paramkit.CombineFilesOptions {
	nested, _ := cmd.Flags().GetBool("nested")
	compact, _ := cmd.Flags().GetBool("compact")
	overrides, _ := cmd.Flags().GetStringArray("set")
	return paramkit.CombineFilesOptions{
		Nested:    nested,
		Compact:   compact,
		Overrides: overrides,
		Warn:      logrus.Warnf,
	}
}

func runCombineJSON(cmd *cobra.Command, args []string) error {
	n := len(args)
	return paramkit.CombineJSONFiles(args[:n-1], args[n-1], combineFileOptions(cmd))
}

func runCombineYAML(cmd *cobra.Command, args []string) error {
	n := len(args)
	return paramkit.CombineYAMLFiles(args[:n-1], args[n-1], combineFileOptions(cmd))
}

func runCombineTOML(cmd *cobra.Command, args []string) error {
	n := len(args)
	return paramkit.CombineTOMLFiles(args[:n-1], args[n-1], combineFileOptions(cmd))
}

func runCombineINI(cmd *cobra.Command, args []string) error {
	n := len(args)
	overrides, _ := cmd.Flags().GetStringArray("set")
	return paramkit.CombineINIFiles(args[:n-1], args[n-1], overrides)
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Manage flexdb configuration",
	Long:        `Read and write settings in config.toml, such as database.path and database.table.`,
	Annotations: map[string]string{annotationNoStore: "true"},
}

var configGetCmd = &cobra.Command{
	Use:         "get [key]",
	Short:       "Print a configuration value",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNoStore: "true"},
	RunE:        runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:         "set [key] [value]",
	Short:       "Set a configuration value",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationNoStore: "true"},
	RunE:        runConfigSet,
}

var configListCmd = &cobra.Command{
	Use:         "list",
	Short:       "Print every configuration value",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoStore: "true"},
	RunE:        runConfigList,
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print the configuration file path",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoStore: "true"},
	RunE:        runConfigPath,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	val, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("config key %q is not set", args[0])
	}
	fmt.Fprintln(cmd.OutOrStdout(), val)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	if err := configStore.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	for _, key := range configStore.Keys() {
		val, _ := configStore.Get(key)
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, val)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	fmt.Fprintln(cmd.OutOrStdout(), configStore.Path())
	return nil
}

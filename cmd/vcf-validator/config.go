package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configKeys lists every key vcf-validator config get/set recognizes. set
// rejects anything else, the way viper's bound flags would if this tool
// used cobra flag binding instead of a dedicated subcommand.
var configKeys = map[string]bool{
	"report-both-on-conflict": true,
	"stop-on-first-error":     true,
	"default-format":          true,
	"reference.assembly":      true,
	"reference.cache-dir":     true,
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vcf-validator configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.vcf-validator.yaml.",
		Example: `  vcf-validator config                             # show all config
  vcf-validator config set default-format json     # always emit JSON
  vcf-validator config get default-format           # read a value back`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !configKeys[args[0]] {
				return usageError(fmt.Errorf("unknown config key %q", args[0]))
			}
			return runConfigSet(args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(args[0])
		},
	}
}

func runConfigShow() error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Println("# No configuration set. Config file: ~/.vcf-validator.yaml")
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return runError(fmt.Errorf("marshaling config: %w", err))
	}
	fmt.Print(string(out))
	return nil
}

func runConfigSet(key, value string) error {
	switch value {
	case "true", "yes", "on":
		viper.Set(key, true)
	case "false", "no", "off":
		viper.Set(key, false)
	default:
		viper.Set(key, value)
	}

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return runError(fmt.Errorf("cannot determine home directory: %w", err))
		}
		cfgFile = filepath.Join(home, ".vcf-validator.yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return runError(fmt.Errorf("writing config: %w", err))
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(key string) error {
	val := viper.Get(key)
	if val == nil {
		return runError(fmt.Errorf("key %q is not set", key))
	}
	fmt.Println(val)
	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kairyu/notionctl/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show configuration values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := ""
		if len(args) == 1 {
			key = args[0]
		}
		return runConfigGet(key)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigSet(args[0], args[1])
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigFilePath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigGet(key string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if key != "" {
		setting, err := config.LookupSetting(key)
		if err != nil {
			return err
		}
		fmt.Println(settingValue(setting, cfg))
		return nil
	}

	for i := range config.Settings {
		s := &config.Settings[i]
		fmt.Printf("%s = %s\n", s.Key, settingValue(s, cfg))
	}
	return nil
}

func settingValue(s *config.Setting, cfg *config.Config) string {
	value := s.Get(cfg)
	if value == "" {
		value = s.Default
	}
	if value != "" && s.Secret {
		return "(set)"
	}
	return value
}

func runConfigSet(key, value string) error {
	if err := config.WriteSetting(key, value); err != nil {
		return err
	}
	fmt.Printf("%s updated\n", key)
	return nil
}

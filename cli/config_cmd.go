package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/binhbb2204/nocturne/cli/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Create, view and modify the Nocturne CLI configuration.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(forceInit); err != nil {
			return err
		}
		path, _ := config.GetConfigPath()
		printSuccess("Configuration written to " + path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			printError("Configuration not initialized")
			fmt.Println("Run: nocturne config init")
			return err
		}
		shown := *cfg
		if shown.User.Token != "" {
			shown.User.Token = "(set)"
		}
		out, err := yaml.Marshal(&shown)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long:  `Set a configuration value. Key should be in format 'section.key' (e.g., reader.width).`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			printError("Configuration not initialized")
			return err
		}
		if err := setConfigValue(cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		printSuccess(fmt.Sprintf("Updated %s to %s", args[0], args[1]))
		return nil
	},
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "server.host":
		cfg.Server.Host = value
	case "server.http_port":
		v, err := strconv.Atoi(value)
		if err != nil || v <= 0 {
			return fmt.Errorf("invalid port for server.http_port")
		}
		cfg.Server.HTTPPort = v
	case "server.tls":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for server.tls")
		}
		cfg.Server.TLS = v
	case "reader.width":
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 {
			return fmt.Errorf("invalid integer for reader.width")
		}
		cfg.Reader.Width = v
	case "reader.fine_pointer":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for reader.fine_pointer")
		}
		cfg.Reader.FinePointer = v
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

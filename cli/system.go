package cli

import (
	"fmt"
	"runtime"

	"github.com/binhbb2204/nocturne/cli/config"
	"github.com/spf13/cobra"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "System information",
	Long:  `Display client information and server diagnostics.`,
}

var systemInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show system info",
	Long:  `Display OS details, configuration and server readiness.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("System Information:")
		fmt.Println("-------------------")
		fmt.Printf("OS: %s\n", runtime.GOOS)
		fmt.Printf("Architecture: %s\n", runtime.GOARCH)
		fmt.Printf("Go Version: %s\n", runtime.Version())

		cfg, err := config.Load()
		if err != nil {
			fmt.Println("\nConfiguration: Not initialized")
			return nil
		}
		path, _ := config.GetConfigPath()
		fmt.Println("\nConfiguration:")
		fmt.Printf("  Config Path: %s\n", path)
		fmt.Printf("  Server: %s\n", cfg.ServerURL())
		if cfg.User.Token != "" {
			fmt.Printf("  Signed in: %s\n", cfg.User.Email)
		}

		fmt.Println("\nServer Readiness:")
		var ready struct {
			Status  string `json:"status"`
			Gateway string `json:"gateway"`
		}
		err = newClientFor(cfg).get(cmd.Context(), "/readyz", &ready)
		switch {
		case err == nil && ready.Status == "ready":
			fmt.Printf("  Status: ✓ Ready (gateway %s)\n", ready.Gateway)
		case err == nil:
			fmt.Printf("  Status: ⚠ %s (gateway %s)\n", ready.Status, ready.Gateway)
		default:
			fmt.Printf("  Status: ✗ %v\n", err)
		}
		return nil
	},
}

func init() {
	systemCmd.AddCommand(systemInfoCmd)
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nocturne",
	Short: "Nocturne web novel client",
	Long: `Browse, read and write web novels on a Nocturne server.

Run "nocturne config init" once, then "nocturne auth login".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(homeCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(novelCmd)
	rootCmd.AddCommand(libraryCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(systemCmd)
}

func printError(msg string) {
	fmt.Fprintf(os.Stderr, "✗ %s\n", msg)
}

func printSuccess(msg string) {
	fmt.Printf("✓ %s\n", msg)
}

func printInfo(msg string) {
	fmt.Printf("ℹ %s\n", msg)
}

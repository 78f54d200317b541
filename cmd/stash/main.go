package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "stash",
	Short:         "multi-tenant resource storage API",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          serveF,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(createSuperuserCmd)
}

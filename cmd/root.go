package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global output flags only
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vbgpt",
	Short: "ChromeOS verified-boot GPT and kernel image tool",
	Long: `vbgpt inspects and repairs the GUID Partition Table of a disk image,
manages the ChromeOS boot attributes (priority, tries, successful) of
kernel partitions, and verifies signed kernel images.

Commands:
  show          Show GPT headers, entries and boot attributes
  repair        Repair a damaged primary or secondary GPT copy
  prioritize    Raise one kernel partition to the highest boot priority
  verify-kernel Verify a signed kernel image`,
	Version: "0.1.0-dev",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

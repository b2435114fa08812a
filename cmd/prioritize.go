package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-vboot/internal/device"
	"github.com/deploymenttheory/go-vboot/internal/gpt"
)

var (
	prioritizeIndex    uint32
	prioritizeTries    int
	prioritizePriority int
)

var prioritizeCmd = &cobra.Command{
	Use:   "prioritize [image]",
	Short: "Raise one kernel partition to the highest boot priority",
	Long: `Prioritize gives the chosen kernel partition the highest boot priority
and compacts every other kernel partition's priority downward while
preserving their relative order. Optionally it also resets the
tries-remaining counter so firmware will attempt the partition.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := LoadConfig()
		if err != nil {
			return err
		}
		maxPriority := prioritizePriority
		if maxPriority == 0 {
			maxPriority = config.MaxPriority
		}

		dev, err := device.OpenFile(args[0])
		if err != nil {
			return err
		}

		d, err := gpt.Open(dev)
		if err != nil {
			dev.Close()
			return err
		}

		if err := d.CheckValid(); err != nil {
			d.Close(false)
			return fmt.Errorf("refusing to modify %s: %w (run repair first)", args[0], err)
		}

		if err := gpt.Reprioritize(d, prioritizeIndex, maxPriority); err != nil {
			d.Close(false)
			return err
		}
		if prioritizeTries >= 0 {
			if err := gpt.SetTries(d, false, prioritizeIndex, prioritizeTries); err != nil {
				d.Close(false)
				return err
			}
			gpt.UpdateAllEntries(d)
		}

		if err := d.Close(true); err != nil {
			return fmt.Errorf("failed to write updated GPT: %w", err)
		}
		fmt.Printf("Partition %d now has priority %d\n", prioritizeIndex, maxPriority)
		return nil
	},
}

func init() {
	prioritizeCmd.Flags().Uint32VarP(&prioritizeIndex, "index", "i", 0, "entry index of the kernel partition")
	prioritizeCmd.Flags().IntVarP(&prioritizeTries, "tries", "t", -1, "also set tries remaining (0-15, -1 leaves unchanged)")
	prioritizeCmd.Flags().IntVarP(&prioritizePriority, "priority", "P", 0, "priority to assign (default from config, max 15)")
	prioritizeCmd.MarkFlagRequired("index")
	rootCmd.AddCommand(prioritizeCmd)
}

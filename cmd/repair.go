package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-vboot/internal/device"
	"github.com/deploymenttheory/go-vboot/internal/gpt"
)

var repairDryRun bool

var repairCmd = &cobra.Command{
	Use:   "repair [image]",
	Short: "Repair a damaged primary or secondary GPT copy",
	Long: `Repair rebuilds an invalid GPT header or entry array copy from its
valid peer. With both copies of either structure invalid the table is
unrecoverable and nothing is written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, err := device.OpenFile(args[0])
		if err != nil {
			return err
		}

		d, err := gpt.Open(dev)
		if err != nil {
			dev.Close()
			return err
		}

		if d.ValidHeaders == gpt.MaskNone || d.ValidEntries == gpt.MaskNone {
			d.Close(false)
			return fmt.Errorf("cannot repair %s: %w", args[0], gpt.ErrUnrecoverableCorruption)
		}

		changed := gpt.RepairHeader(d, d.ValidHeaders)
		changed |= gpt.RepairEntries(d, d.ValidEntries)

		if changed == 0 {
			fmt.Println("Both GPT copies are valid and synonymous; nothing to repair.")
			return d.Close(false)
		}
		if repairDryRun {
			fmt.Printf("Would rewrite: %s (dry run, not written)\n", modifiedString(changed))
			return d.Close(false)
		}

		if err := d.Close(true); err != nil {
			return fmt.Errorf("failed to write repaired GPT: %w", err)
		}
		fmt.Printf("Repaired: rewrote %s\n", modifiedString(changed))
		return nil
	},
}

func modifiedString(mask uint8) string {
	names := []struct {
		bit  uint8
		name string
	}{
		{gpt.ModifiedHeader1, "primary header"},
		{gpt.ModifiedHeader2, "secondary header"},
		{gpt.ModifiedEntries1, "primary entries"},
		{gpt.ModifiedEntries2, "secondary entries"},
	}
	out := ""
	for _, n := range names {
		if mask&n.bit == 0 {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += n.name
	}
	return out
}

func init() {
	repairCmd.Flags().BoolVar(&repairDryRun, "dry-run", false, "report what would be repaired without writing")
	rootCmd.AddCommand(repairCmd)
}

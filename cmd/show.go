package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-vboot/internal/device"
	"github.com/deploymenttheory/go-vboot/internal/gpt"
)

var showAll bool

var showCmd = &cobra.Command{
	Use:   "show [image]",
	Short: "Show GPT headers, entries and boot attributes",
	Long: `Show reads both GPT copies of a disk image, reports their validity,
and lists the partition entries with their ChromeOS boot attributes.`,
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
		defer d.Close(false)

		if err := d.CheckValid(); err != nil {
			fmt.Printf("WARNING: %v (headers %s, entries %s)\n\n",
				err, maskString(d.ValidHeaders), maskString(d.ValidEntries))
		}

		printHeaders(d)
		return printEntries(d)
	},
}

func maskString(mask uint8) string {
	switch mask {
	case gpt.MaskBoth:
		return "both valid"
	case gpt.MaskPrimary:
		return "primary only"
	case gpt.MaskSecondary:
		return "secondary only"
	}
	return "none valid"
}

func printHeaders(d *gpt.Drive) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tPRIMARY\tSECONDARY")
	for _, row := range []struct {
		name string
		get  func(i int) interface{}
	}{
		{"my_lba", func(i int) interface{} { return d.Headers[i].MyLBA }},
		{"alternate_lba", func(i int) interface{} { return d.Headers[i].AlternateLBA }},
		{"first_usable_lba", func(i int) interface{} { return d.Headers[i].FirstUsableLBA }},
		{"last_usable_lba", func(i int) interface{} { return d.Headers[i].LastUsableLBA }},
		{"entries_lba", func(i int) interface{} { return d.Headers[i].EntriesLBA }},
		{"number_of_entries", func(i int) interface{} { return d.Headers[i].NumberOfEntries }},
		{"size_of_entry", func(i int) interface{} { return d.Headers[i].SizeOfEntry }},
		{"disk_guid", func(i int) interface{} { return gpt.GuidToUUID(d.Headers[i].DiskGuid) }},
	} {
		fmt.Fprintf(w, "%s\t%v\t%v\n", row.name, row.get(0), row.get(1))
	}
	w.Flush()
	fmt.Println()
}

func printEntries(d *gpt.Drive) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tTYPE\tFIRST\tLAST\tPRI\tTRIES\tOK")
	for i := uint32(0); i < d.NumberOfEntries(); i++ {
		e, err := d.GetEntry(false, i)
		if err != nil {
			return err
		}
		if e.IsUnused() && !showAll {
			continue
		}

		kernel, err := gpt.IsKernel(d, false, i)
		if err != nil {
			return err
		}
		pri, tries, ok := "-", "-", "-"
		if kernel {
			pri = fmt.Sprintf("%d", e.Priority())
			tries = fmt.Sprintf("%d", e.Tries())
			ok = fmt.Sprintf("%t", e.Successful())
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%s\t%s\n",
			i, gpt.GuidToUUID(e.Type), e.FirstLBA, e.LastLBA, pri, tries, ok)
	}
	return w.Flush()
}

func init() {
	showCmd.Flags().BoolVarP(&showAll, "all", "a", false, "include unused entry slots")
	rootCmd.AddCommand(showCmd)
}

// Copyright © 2026 The ti99-dskimg-lib Authors

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/miriki/ti99-dskimg-lib-sub001/ti99"
)

var listPreset string

// listCmd represents the list command, used to catalog a disk.
var listCmd = &cobra.Command{
	Use:     "list disk-image",
	Aliases: []string{"ls", "catalog"},
	Short:   "print a list of files",
	Long:    `List every file in a TI-99 disk image's directory.`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(args[0])
	},
}

func init() {
	RootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listPreset, "preset", "", "geometry preset hint, if the image can't be auto-detected")
}

func runList(path string) error {
	h, err := openHandle(path, listPreset)
	if err != nil {
		return err
	}
	files, err := h.ListFiles()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', 0)
	fmt.Fprintln(w, "Name\tType\tRecord\tLength\tBytes")
	fmt.Fprintln(w, "----\t----\t------\t------\t-----")
	for _, f := range files {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", f.Name, typeLabel(f.Type), recordLabel(f.RecordFormat), f.RecordLength, f.SizeBytes)
	}
	return w.Flush()
}

func typeLabel(t ti99.FileType) string {
	switch t {
	case ti99.TypeDisplay:
		return "DIS"
	case ti99.TypeInternal:
		return "INT"
	default:
		return "PGM"
	}
}

func recordLabel(r ti99.RecordFormat) string {
	switch r {
	case ti99.RecordFixed:
		return "FIX"
	case ti99.RecordVariable:
		return "VAR"
	default:
		return "-"
	}
}

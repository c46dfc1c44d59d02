// Copyright © 2026 The ti99-dskimg-lib Authors

package cmd

import (
	"github.com/spf13/cobra"
)

var getPreset string
var getForce bool

// getCmd reads one file's contents out of a disk image.
var getCmd = &cobra.Command{
	Use:   "get disk-image filename [output-file]",
	Short: "read the contents of a file",
	Long: `Get the normalized contents of a file from a disk image.

get disk-image.dsk HELLO hello.bin
get disk-image.dsk HELLO -   # write to stdout
`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := "-"
		if len(args) == 3 {
			out = args[2]
		}
		return runGet(args[0], args[1], out)
	},
}

func init() {
	RootCmd.AddCommand(getCmd)
	getCmd.Flags().StringVar(&getPreset, "preset", "", "geometry preset hint, if the image can't be auto-detected")
	getCmd.Flags().BoolVarP(&getForce, "force", "f", false, "overwrite output-file if it exists")
}

func runGet(path, name, out string) error {
	h, err := openHandle(path, getPreset)
	if err != nil {
		return err
	}
	data, err := h.ReadFile(name)
	if err != nil {
		return err
	}
	return writeOutput(out, data, getForce)
}

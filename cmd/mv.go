// Copyright © 2026 The ti99-dskimg-lib Authors

package cmd

import (
	"github.com/spf13/cobra"
)

var mvPreset string

// mvCmd renames a file in place within a disk image.
var mvCmd = &cobra.Command{
	Use:     "mv disk-image old-name new-name",
	Aliases: []string{"rename"},
	Short:   "rename a file",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMv(args[0], args[1], args[2])
	},
}

func init() {
	RootCmd.AddCommand(mvCmd)
	mvCmd.Flags().StringVar(&mvPreset, "preset", "", "geometry preset hint, if the image can't be auto-detected")
}

func runMv(path, oldName, newName string) error {
	h, err := openHandle(path, mvPreset)
	if err != nil {
		return err
	}
	if err := h.RenameFile(oldName, newName); err != nil {
		return err
	}
	return saveHandle(path, h)
}

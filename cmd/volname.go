// Copyright © 2026 The ti99-dskimg-lib Authors

package cmd

import (
	"github.com/spf13/cobra"
)

var volnamePreset string

// volnameCmd renames the volume.
var volnameCmd = &cobra.Command{
	Use:   "volname disk-image new-name",
	Short: "rename the volume",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVolname(args[0], args[1])
	},
}

func init() {
	RootCmd.AddCommand(volnameCmd)
	volnameCmd.Flags().StringVar(&volnamePreset, "preset", "", "geometry preset hint, if the image can't be auto-detected")
}

func runVolname(path, name string) error {
	h, err := openHandle(path, volnamePreset)
	if err != nil {
		return err
	}
	if err := h.SetVolumeName(name); err != nil {
		return err
	}
	return saveHandle(path, h)
}

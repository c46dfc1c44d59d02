// Copyright © 2026 The ti99-dskimg-lib Authors

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/miriki/ti99-dskimg-lib-sub001/ti99"
)

var formatPreset string
var formatVolumeName string
var formatForce bool

// formatCmd creates or reinitializes a disk image as a fresh, empty
// volume.
var formatCmd = &cobra.Command{
	Use:   "format disk-image",
	Short: "create or reinitialize a disk image",
	Long: `Format a new, empty disk image.

format newdisk.dsk --preset SSSD40 --name MYDISK
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFormat(args[0])
	},
}

func init() {
	RootCmd.AddCommand(formatCmd)
	formatCmd.Flags().StringVar(&formatPreset, "preset", "", "geometry preset (defaults to the configured default, or SSSD40)")
	formatCmd.Flags().StringVar(&formatVolumeName, "name", "", "volume name")
	formatCmd.Flags().BoolVarP(&formatForce, "force", "f", false, "overwrite an existing file at disk-image")
}

func runFormat(path string) error {
	preset := formatPreset
	if preset == "" {
		preset = defaultPreset()
	}
	h, err := ti99.Create(preset)
	if err != nil {
		return err
	}
	if formatVolumeName != "" {
		if err := h.SetVolumeName(formatVolumeName); err != nil {
			return err
		}
	}
	return writeOutput(path, h.Bytes(), formatForce)
}

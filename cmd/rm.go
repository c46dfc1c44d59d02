// Copyright © 2026 The ti99-dskimg-lib Authors

package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var rmPreset string
var rmMissingOK bool
var rmUnsafe bool

// rmCmd deletes a file from a disk image.
var rmCmd = &cobra.Command{
	Use:     "rm disk-image filename",
	Aliases: []string{"delete"},
	Short:   "delete a file",
	Long: `Delete a file from a disk image.

rm disk-image.dsk HELLO
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRm(args[0], args[1])
	},
}

func init() {
	RootCmd.AddCommand(rmCmd)
	rmCmd.Flags().StringVar(&rmPreset, "preset", "", "geometry preset hint, if the image can't be auto-detected")
	rmCmd.Flags().BoolVarP(&rmMissingOK, "missingok", "m", false, "don't error if the file doesn't exist")
	rmCmd.Flags().BoolVar(&rmUnsafe, "unsafe", false, "free the file's sectors without zeroing their contents first")
}

func runRm(path, name string) error {
	h, err := openHandle(path, rmPreset)
	if err != nil {
		return err
	}
	exists, err := h.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		if rmMissingOK {
			return nil
		}
		return errors.Errorf("file %q not found", name)
	}
	safe := defaultSafeDelete() && !rmUnsafe
	if err := h.DeleteFile(name, safe); err != nil {
		return err
	}
	return saveHandle(path, h)
}

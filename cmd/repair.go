// Copyright © 2026 The ti99-dskimg-lib Authors

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/miriki/ti99-dskimg-lib-sub001/check"
)

var repairPreset string

// repairCmd plans and, when safe, applies repairs to a disk image's
// filesystem consistency issues.
var repairCmd = &cobra.Command{
	Use:   "repair disk-image",
	Short: "repair a disk image's filesystem consistency issues",
	Long: `Repair runs the consistency checkers, then applies every safe
automatic repair it finds (ABM re-sync, FDI re-sort and dedup,
dropping blank-name FDI entries). Cross-link issues are never
auto-repaired; repair reports them and exits non-zero instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRepair(args[0])
	},
}

func init() {
	RootCmd.AddCommand(repairCmd)
	repairCmd.Flags().StringVar(&repairPreset, "preset", "", "geometry preset hint, if the image can't be auto-detected")
}

func runRepair(path string) error {
	h, err := openHandle(path, repairPreset)
	if err != nil {
		return err
	}
	plan, err := h.Repair()
	if err != nil {
		return err
	}
	fmt.Printf("Status: %s\n", plan.Status)
	for _, action := range plan.Actions {
		fmt.Printf("  %s\n", action.Description)
	}
	switch plan.Status {
	case check.StatusReady, check.StatusNothingToDo:
		return saveHandle(path, h)
	case check.StatusPartial:
		if err := saveHandle(path, h); err != nil {
			return err
		}
		fmt.Println("Cross-link issues require explicit user intent; safe actions above were applied, the rest were not.")
		os.Exit(1)
	case check.StatusUnsafe:
		fmt.Println("Cross-link issues require explicit user intent; nothing was applied.")
		os.Exit(1)
	}
	return nil
}

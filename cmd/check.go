// Copyright © 2026 The ti99-dskimg-lib Authors

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/miriki/ti99-dskimg-lib-sub001/check"
)

var checkPreset string

// checkCmd runs the consistency checkers over a disk image and
// reports every issue found.
var checkCmd = &cobra.Command{
	Use:   "check disk-image",
	Short: "check a disk image's filesystem consistency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := runCheck(args[0])
		if err != nil {
			return err
		}
		if result.Health != check.Good {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkPreset, "preset", "", "geometry preset hint, if the image can't be auto-detected")
}

func runCheck(path string) (check.CheckResult, error) {
	h, err := openHandle(path, checkPreset)
	if err != nil {
		return check.CheckResult{}, err
	}
	result, err := h.Check()
	if err != nil {
		return check.CheckResult{}, err
	}
	fmt.Printf("Health: %s\n", result.Health)
	for _, issue := range result.Issues {
		fmt.Printf("  [%s] sector %d: %s (%s)\n", issue.Kind, issue.Sector, issue.Message, issue.Health)
	}
	return result, nil
}

// Copyright © 2026 The ti99-dskimg-lib Authors

package cmd

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/miriki/ti99-dskimg-lib-sub001/ti99"
)

var putPreset string
var putType string
var putRecordFormat string
var putRecordLength int
var putOverwrite bool

// putCmd writes the raw contents of a host file into a disk image as
// a new TI-99 file.
var putCmd = &cobra.Command{
	Use:   "put disk-image target-filename source-file",
	Short: "write a file into a disk image",
	Long: `Put the contents of a host file into a disk image.

put disk-image.dsk HELLO hello.bin
put disk-image.dsk DATA - --type DIS --format FIX --reclen 80
`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPut(args[0], args[1], args[2])
	},
}

func init() {
	RootCmd.AddCommand(putCmd)
	putCmd.Flags().StringVar(&putPreset, "preset", "", "geometry preset hint, if the image can't be auto-detected")
	putCmd.Flags().StringVarP(&putType, "type", "t", "PGM", "file type: PGM, DIS, or INT")
	putCmd.Flags().StringVar(&putRecordFormat, "format", "", "record format for DIS/INT files: FIX or VAR")
	putCmd.Flags().IntVar(&putRecordLength, "reclen", 80, "record length for DIS/INT files")
	putCmd.Flags().BoolVarP(&putOverwrite, "overwrite", "f", false, "replace an existing file of the same name")
}

func parseFileType(s string) (ti99.FileType, error) {
	switch strings.ToUpper(s) {
	case "PGM", "PROGRAM", "":
		return ti99.TypeProgram, nil
	case "DIS", "DISPLAY":
		return ti99.TypeDisplay, nil
	case "INT", "INTERNAL":
		return ti99.TypeInternal, nil
	default:
		return 0, errors.Errorf("unknown file type %q (want PGM, DIS, or INT)", s)
	}
}

func parseRecordFormat(s string) (ti99.RecordFormat, error) {
	switch strings.ToUpper(s) {
	case "", "FIX", "FIXED":
		return ti99.RecordFixed, nil
	case "VAR", "VARIABLE":
		return ti99.RecordVariable, nil
	default:
		return 0, errors.Errorf("unknown record format %q (want FIX or VAR)", s)
	}
}

func runPut(path, name, source string) error {
	h, err := openHandle(path, putPreset)
	if err != nil {
		return err
	}

	fileType, err := parseFileType(putType)
	if err != nil {
		return err
	}
	recordFormat := ti99.RecordNone
	if fileType != ti99.TypeProgram {
		if recordFormat, err = parseRecordFormat(putRecordFormat); err != nil {
			return err
		}
	}

	contents, err := fileContentsOrStdin(source)
	if err != nil {
		return err
	}

	if putOverwrite {
		if exists, err := h.Exists(name); err != nil {
			return err
		} else if exists {
			if err := h.DeleteFile(name, true); err != nil {
				return err
			}
		}
	}

	if err := h.WriteFile(name, contents, fileType, recordFormat, putRecordLength); err != nil {
		return err
	}
	return saveHandle(path, h)
}

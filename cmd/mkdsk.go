// Copyright © 2026 The ti99-dskimg-lib Authors

package cmd

import (
	"github.com/alecthomas/kong"
	"github.com/spf13/cobra"

	"github.com/miriki/ti99-dskimg-lib-sub001/ti99"
)

// Globals holds flags shared across the kong-parsed subcommands.
type Globals struct {
	Debug bool `kong:"help='Print extra diagnostic output.'"`
}

// MkdskCmd is the kong `mkdsk` command: a script-friendly, one-shot
// way to build a preformatted image from flags, alongside the more
// interactive cobra subcommands.
type MkdskCmd struct {
	Preset     string `kong:"default='SSSD40',enum='SSSD40,DSSD40,DSDD40,DSSD80,DSDD80',help='Disk geometry preset.'"`
	VolumeName string `kong:"help='Volume name to stamp into the VIB.'"`
	Force      bool   `kong:"short='f',help='Overwrite an existing file at the output path.'"`

	DiskImage string `kong:"arg,required,type='path',help='Disk image to write.'"`
}

// Run builds a fresh, empty image per the flags.
func (m *MkdskCmd) Run(globals *Globals) error {
	h, err := ti99.Create(m.Preset)
	if err != nil {
		return err
	}
	if m.VolumeName != "" {
		if err := h.SetVolumeName(m.VolumeName); err != nil {
			return err
		}
	}
	return writeOutput(m.DiskImage, h.Bytes(), m.Force)
}

// mkdskCmd is the cobra shim that hands its remaining arguments to
// kong, so `mkdsk` can be flag-parsed with kong's struct-tag style
// while still nesting under the same RootCmd as every other
// subcommand.
var mkdskCmd = &cobra.Command{
	Use:                "mkdsk",
	Short:              "build a preformatted disk image in one shot",
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var mkdsk MkdskCmd
		parser, err := kong.New(&mkdsk, kong.Name("mkdsk"), kong.Bind(&Globals{Debug: debug}))
		if err != nil {
			return err
		}
		ctx, err := parser.Parse(args)
		if err != nil {
			return err
		}
		return ctx.Run(&Globals{Debug: debug})
	},
}

func init() {
	RootCmd.AddCommand(mkdskCmd)
}

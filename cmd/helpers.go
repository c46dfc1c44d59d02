// Copyright © 2026 The ti99-dskimg-lib Authors

package cmd

import (
	"io"
	"io/fs"
	"os"

	"github.com/pkg/errors"

	"github.com/miriki/ti99-dskimg-lib-sub001/ti99"
)

// fileContentsOrStdin returns the contents of a file, unless s is "-",
// in which case it reads from stdin. Host file I/O stays in the CLI
// layer; the core library only ever sees byte slices.
func fileContentsOrStdin(s string) ([]byte, error) {
	if s == "-" {
		return io.ReadAll(os.Stdin)
	}
	b, err := os.ReadFile(s)
	return b, errors.Wrapf(err, "reading %q", s)
}

// writeOutput writes contents to filename, unless filename is "-", in
// which case it writes to stdout. Refuses to clobber an existing file
// unless force is set.
func writeOutput(filename string, contents []byte, force bool) error {
	if filename == "-" {
		_, err := os.Stdout.Write(contents)
		return err
	}
	if !force {
		if _, err := os.Stat(filename); !errors.Is(err, fs.ErrNotExist) {
			return errors.Errorf("cannot overwrite file %q without --force (-f)", filename)
		}
	}
	return errors.Wrapf(os.WriteFile(filename, contents, 0666), "writing %q", filename)
}

// openHandle loads the image at path and detects its geometry,
// optionally aided by an explicit preset hint.
func openHandle(path, presetHint string) (*ti99.Handle, error) {
	data, err := fileContentsOrStdin(path)
	if err != nil {
		return nil, err
	}
	return ti99.Open(data, presetHint)
}

// saveHandle writes h's current buffer back to path.
func saveHandle(path string, h *ti99.Handle) error {
	return writeOutput(path, h.Bytes(), true)
}

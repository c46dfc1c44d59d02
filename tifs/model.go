// Copyright © 2026 The ti99-dskimg-lib Authors

// Package tifs is the in-memory filesystem aggregate and mutator for
// a TI-99 disk image: it loads VIB/ABM/FDI/FDR state from an
// image.View, maintains the cross-structure invariants between them,
// and writes back only the sectors a mutation touches. State is
// always rebuilt from the buffer on load, never cached across calls.
package tifs

import (
	"strings"

	"github.com/miriki/ti99-dskimg-lib-sub001/abm"
	"github.com/miriki/ti99-dskimg-lib-sub001/errs"
	"github.com/miriki/ti99-dskimg-lib-sub001/fdi"
	"github.com/miriki/ti99-dskimg-lib-sub001/fdr"
	"github.com/miriki/ti99-dskimg-lib-sub001/geometry"
	"github.com/miriki/ti99-dskimg-lib-sub001/image"
	"github.com/miriki/ti99-dskimg-lib-sub001/vib"
)

// KnownFDR pairs a decoded FDR with the sector it lives in, since FDR
// itself doesn't know its own sector number.
type KnownFDR struct {
	Sector int
	FDR    fdr.FDR
}

// Filesystem is the in-memory aggregate: image view + geometry + VIB +
// ABM + FDI + known FDRs, keyed by lowercased name.
type Filesystem struct {
	view *image.View
	geo  geometry.Geometry
	vib  vib.VIB
	abm  *abm.Bitmap
	fdi  []fdi.Entry
	fdrs map[string]KnownFDR
}

// Load constructs a Filesystem aggregate from an already-opened
// image.View. Construction is idempotent: calling Load twice on the
// same bytes yields equivalent (though distinct) aggregates.
func Load(view *image.View) (*Filesystem, error) {
	fs := &Filesystem{view: view, geo: view.Geometry()}
	if err := fs.reload(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Format zeroes every sector of view's underlying buffer, then primes
// a fresh VIB (with volumeName and an all-free bitmap), an empty FDI,
// and marks sectors 0 and 1 used. The allocator must reserve these
// up-front, since clusters run over the whole image starting at
// sector 0.
func Format(view *image.View, volumeName string) (*Filesystem, error) {
	geo := view.Geometry()
	buf := view.Bytes()
	for i := range buf {
		buf[i] = 0
	}

	v := vib.New(geo, volumeName)
	vibSector, err := view.Sector(geometry.VIBSector)
	if err != nil {
		return nil, err
	}
	if err := vib.Write(v, vibSector); err != nil {
		return nil, err
	}

	fdiSector, err := view.Sector(geometry.FDISector)
	if err != nil {
		return nil, err
	}
	if err := fdi.Write(nil, fdiSector); err != nil {
		return nil, err
	}

	fs := &Filesystem{view: view, geo: geo}
	if err := fs.reload(); err != nil {
		return nil, err
	}
	fs.abm.SetUsed(geometry.VIBSector, true)
	fs.abm.SetUsed(geometry.FDISector, true)
	if err := fs.writeVIB(); err != nil {
		return nil, err
	}
	return fs, nil
}

// reload rebuilds every in-memory structure from the underlying
// buffer. No state survives a reload except the image.View pointer
// itself — the buffer is always authoritative.
func (fs *Filesystem) reload() error {
	vibSector, err := fs.view.Sector(geometry.VIBSector)
	if err != nil {
		return err
	}
	v, err := vib.Read(vibSector)
	if err != nil {
		return err
	}
	fs.vib = v
	fs.abm = abm.New(fs.vib.AllocationBitmap[:], fs.geo)

	fdiSector, err := fs.view.Sector(geometry.FDISector)
	if err != nil {
		return err
	}

	fs.fdrs = make(map[string]KnownFDR)
	nameFor := func(ptr uint16) (string, error) {
		f, err := fs.readFDRAt(int(ptr))
		if err != nil {
			return "", err
		}
		fs.fdrs[strings.ToLower(f.FileName)] = KnownFDR{Sector: int(ptr), FDR: f}
		return f.FileName, nil
	}
	entries, err := fdi.Read(fdiSector, nameFor)
	if err != nil {
		return err
	}
	fs.fdi = entries
	return nil
}

func (fs *Filesystem) readFDRAt(sector int) (fdr.FDR, error) {
	b, err := fs.view.Sector(sector)
	if err != nil {
		return fdr.FDR{}, err
	}
	return fdr.Read(b)
}

// View returns the underlying image view this filesystem was loaded
// from, for callers (the ti99 Handle, the checker/repair planner)
// that need to re-Load after an out-of-band sector edit.
func (fs *Filesystem) View() *image.View { return fs.view }

// RawSector exposes one sector's raw bytes directly, for callers that
// need to hand-edit a structure the Filesystem API doesn't mutate
// directly (e.g. the checker's test fixtures, or a future repair
// action operating below the FDI/FDR level).
func (fs *Filesystem) RawSector(i int) ([]byte, error) { return fs.view.Sector(i) }

// Geometry returns the filesystem's geometry.
func (fs *Filesystem) Geometry() geometry.Geometry { return fs.geo }

// VIB returns a copy of the currently-loaded VIB.
func (fs *Filesystem) VIB() vib.VIB { return fs.vib }

// ABM exposes the allocation bitmap, linked to the loaded VIB's
// embedded bitmap bytes.
func (fs *Filesystem) ABM() *abm.Bitmap { return fs.abm }

// FDIEntries returns the currently-loaded, sorted FDI entries.
func (fs *Filesystem) FDIEntries() []fdi.Entry { return fs.fdi }

// FDRs returns every currently-known FDR, keyed by lowercase filename.
func (fs *Filesystem) FDRs() map[string]KnownFDR { return fs.fdrs }

// Lookup finds a file's FDR (and the sector it lives in) by
// case-insensitive name.
func (fs *Filesystem) Lookup(name string) (KnownFDR, bool) {
	kf, ok := fs.fdrs[strings.ToLower(name)]
	return kf, ok
}

// writeVIB serializes the current VIB (including its embedded ABM,
// which shares backing bytes with fs.abm) back to sector 0.
func (fs *Filesystem) writeVIB() error {
	sector, err := fs.view.Sector(geometry.VIBSector)
	if err != nil {
		return err
	}
	return vib.Write(fs.vib, sector)
}

// writeFDI serializes fs.fdi back to the FDI sector.
func (fs *Filesystem) writeFDI() error {
	sector, err := fs.view.Sector(geometry.FDISector)
	if err != nil {
		return err
	}
	return fdi.Write(fs.fdi, sector)
}

// ReplaceFDI overwrites the in-memory and on-disk FDI wholesale, for
// callers (the check/repair planner) that recompute the entire entry
// list rather than inserting/removing one name at a time. Any known
// FDR whose name is no longer present in entries is dropped from the
// in-memory index too.
func (fs *Filesystem) ReplaceFDI(entries []fdi.Entry) error {
	keep := make(map[string]bool, len(entries))
	for _, e := range entries {
		keep[strings.ToLower(e.Name)] = true
	}
	for name := range fs.fdrs {
		if !keep[name] {
			delete(fs.fdrs, name)
		}
	}
	fs.fdi = entries
	return fs.writeFDI()
}

// writeFDR serializes f to the given sector and refreshes the
// in-memory fdrs index.
func (fs *Filesystem) writeFDR(sector int, f fdr.FDR) error {
	b, err := fs.view.Sector(sector)
	if err != nil {
		return err
	}
	if err := fdr.Write(f, b); err != nil {
		return err
	}
	fs.fdrs[strings.ToLower(f.FileName)] = KnownFDR{Sector: sector, FDR: f}
	return nil
}

// ValidateName enforces the filename rule: 1..10 ASCII-printable
// characters, no '.' or '/'.
func ValidateName(name string) error {
	if len(name) < 1 || len(name) > 10 {
		return errs.NameInvalidf("tifs: filename %q must be 1..10 characters", name)
	}
	for _, r := range name {
		if r < 0x20 || r > 0x7E {
			return errs.NameInvalidf("tifs: filename %q contains non-printable-ASCII character", name)
		}
		if r == '.' || r == '/' {
			return errs.NameInvalidf("tifs: filename %q may not contain '.' or '/'", name)
		}
	}
	return nil
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

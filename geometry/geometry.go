// Copyright © 2026 The ti99-dskimg-lib Authors

// Package geometry resolves TI-99/4A disk-image geometry presets and
// the fixed sector indices that depend on them.
package geometry

import (
	"github.com/miriki/ti99-dskimg-lib-sub001/errs"
)

// SectorSize is the fixed size of a single sector, in bytes. TI-99
// controllers never use any other sector size.
const SectorSize = 256

// Fixed sector indices, the same on every recognized preset.
const (
	VIBSector = 0
	FDISector = 1
)

// Preset names recognized by Resolve and Detect.
const (
	SSSD40 = "SSSD40"
	DSSD40 = "DSSD40"
	DSDD40 = "DSDD40"
	DSSD80 = "DSSD80"
	DSDD80 = "DSDD80"
)

// Geometry describes the fixed shape of a disk image: how many
// sectors it has, how they're grouped into tracks, and how many
// sectors make up one allocation cluster.
type Geometry struct {
	Preset           string
	Sides            int
	TracksPerSide    int
	SectorsPerTrack  int
	Density          byte
	SectorsPerCluster int
}

// TotalSectors returns the number of 256-byte sectors in an image with
// this geometry.
func (g Geometry) TotalSectors() int {
	return g.Sides * g.TracksPerSide * g.SectorsPerTrack
}

// TotalClusters returns the number of allocation clusters spanning the
// entire image (clusters run from sector 0).
func (g Geometry) TotalClusters() int {
	return (g.TotalSectors() + g.SectorsPerCluster - 1) / g.SectorsPerCluster
}

// FirstDataSector is the first sector not reserved for VIB/FDI. The
// allocator does not use it (clusters run from sector 0 over the whole
// image); the file writer starts its search for a free FDR sector here.
func (g Geometry) FirstDataSector() int {
	return 2
}

// presets is the table of recognized geometry presets.
var presets = map[string]Geometry{
	SSSD40: {Preset: SSSD40, Sides: 1, TracksPerSide: 40, SectorsPerTrack: 9, Density: 1, SectorsPerCluster: 1},
	DSSD40: {Preset: DSSD40, Sides: 2, TracksPerSide: 40, SectorsPerTrack: 9, Density: 1, SectorsPerCluster: 1},
	DSDD40: {Preset: DSDD40, Sides: 2, TracksPerSide: 40, SectorsPerTrack: 18, Density: 2, SectorsPerCluster: 2},
	DSSD80: {Preset: DSSD80, Sides: 2, TracksPerSide: 80, SectorsPerTrack: 9, Density: 1, SectorsPerCluster: 1},
	DSDD80: {Preset: DSDD80, Sides: 2, TracksPerSide: 80, SectorsPerTrack: 18, Density: 2, SectorsPerCluster: 2},
}

// PresetNames returns the recognized preset identifiers, in a stable
// order.
func PresetNames() []string {
	return []string{SSSD40, DSSD40, DSDD40, DSSD80, DSDD80}
}

// Resolve returns the Geometry for a named preset.
func Resolve(preset string) (Geometry, error) {
	g, ok := presets[preset]
	if !ok {
		return Geometry{}, errs.UnrecognizedGeometryf("geometry: preset %q", preset)
	}
	return g, nil
}

// resolveByShape matches a preset by (sides, tracks/side,
// sectors/track), for the DSDD case where 16 or 18 sectors/track are
// both in use. sectorsPerTrack must already be known (e.g. read from a
// VIB) when more than one preset shares the same (sides, tracks) pair.
func resolveByShape(sides, tracksPerSide, sectorsPerTrack int) (Geometry, bool) {
	for _, name := range PresetNames() {
		g := presets[name]
		if g.Sides == sides && g.TracksPerSide == tracksPerSide && g.SectorsPerTrack == sectorsPerTrack {
			return g, true
		}
	}
	// DSDD with 16 sectors/track (HFDC variant) isn't in the table
	// verbatim; fall back to the DSDD cluster size for any 2-sided
	// shape with 16 sectors/track.
	if sides == 2 && sectorsPerTrack == 16 {
		g := presets[DSDD40]
		g.SectorsPerTrack = 16
		g.TracksPerSide = tracksPerSide
		return g, true
	}
	return Geometry{}, false
}

// ByShape resolves a Geometry from its raw (sides, tracks, sectors per
// track) triple, as read from a VIB. Returns an error if no preset (or
// preset variant) matches.
func ByShape(sides, tracksPerSide, sectorsPerTrack int) (Geometry, error) {
	g, ok := resolveByShape(sides, tracksPerSide, sectorsPerTrack)
	if !ok {
		return Geometry{}, errs.UnrecognizedGeometryf("geometry: shape sides=%d tracks=%d sectors/track=%d", sides, tracksPerSide, sectorsPerTrack)
	}
	return g, nil
}

// byteLengthPresets maps a total image byte length to a preset, used
// when the VIB signature can't be trusted (e.g. a freshly zeroed
// image). DSDD40 and DSSD80 both have 1440 sectors; that length
// resolves to DSDD40.
var byteLengthPresets = map[int]string{
	360 * SectorSize:  SSSD40,
	720 * SectorSize:  DSSD40,
	1440 * SectorSize: DSDD40,
	1600 * SectorSize: DSSD80,
	2880 * SectorSize: DSDD80,
}

// DetectByLength infers a preset from an image's total byte length
// alone.
func DetectByLength(length int) (Geometry, error) {
	name, ok := byteLengthPresets[length]
	if !ok {
		return Geometry{}, errs.UnrecognizedGeometryf("geometry: length %d bytes doesn't match any known preset", length)
	}
	return Resolve(name)
}

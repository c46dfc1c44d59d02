// Copyright © 2026 The ti99-dskimg-lib Authors

// Package vib decodes and encodes the Volume Information Block: sector
// 0 of a TI-99 disk image, holding volume-level metadata, the three
// root directory slots, and the embedded allocation bitmap. Fields are
// copied to/from a 256-byte buffer at literal byte offsets, and
// unknown/reserved bytes are preserved verbatim on round-trip.
package vib

import (
	"encoding/binary"
	"fmt"

	"github.com/miriki/ti99-dskimg-lib-sub001/errs"
	"github.com/miriki/ti99-dskimg-lib-sub001/geometry"
)

// Signature is the fixed 3-byte marker every valid VIB must carry.
const Signature = "DSK"

// Byte offsets within the 256-byte VIB sector.
const (
	offVolumeName       = 0
	offTotalSectors     = 10
	offSectorsPerTrack  = 12
	offSignature        = 13
	offTracksPerSide    = 16
	offSides            = 17
	offDensity          = 18
	offDirSlots         = 20
	dirSlotSize         = 12 // 10-byte name + u16 FDR sector
	offAllocationBitmap = 56
)

// DirSlot advertises one of the three root "child" catalog slots a VIB
// may name. A zero FDRSector means the slot is empty.
type DirSlot struct {
	Name      string
	FDRSector uint16
}

// VIB is the decoded contents of sector 0.
type VIB struct {
	VolumeName      string
	TotalSectors    uint16
	SectorsPerTrack byte
	TracksPerSide   byte
	Sides           byte
	Density         byte
	DirSlots        [3]DirSlot
	// AllocationBitmap is the raw bitmap region (offset 56 to end of
	// sector), exposed verbatim for the abm package to interpret. Bit k
	// of byte b corresponds to sector 8b+k; bit 1 = used.
	AllocationBitmap [256 - offAllocationBitmap]byte
}

// Read decodes a 256-byte VIB sector.
func Read(sector []byte) (VIB, error) {
	if len(sector) != geometry.SectorSize {
		return VIB{}, fmt.Errorf("vib: sector must be %d bytes; got %d", geometry.SectorSize, len(sector))
	}
	if string(sector[offSignature:offSignature+3]) != Signature {
		return VIB{}, errs.InvalidVIBSignaturef("vib: got %q", sector[offSignature:offSignature+3])
	}

	var v VIB
	v.VolumeName = trimSpacePadded(sector[offVolumeName : offVolumeName+10])
	v.TotalSectors = binary.BigEndian.Uint16(sector[offTotalSectors : offTotalSectors+2])
	v.SectorsPerTrack = sector[offSectorsPerTrack]
	v.TracksPerSide = sector[offTracksPerSide]
	v.Sides = sector[offSides]
	v.Density = sector[offDensity]

	for i := range v.DirSlots {
		base := offDirSlots + i*dirSlotSize
		v.DirSlots[i] = DirSlot{
			Name:      trimSpacePadded(sector[base : base+10]),
			FDRSector: binary.BigEndian.Uint16(sector[base+10 : base+12]),
		}
	}

	copy(v.AllocationBitmap[:], sector[offAllocationBitmap:])
	return v, nil
}

// Write encodes v into a 256-byte sector buffer, which must already be
// exactly 256 bytes long; the caller owns allocation.
func Write(v VIB, sector []byte) error {
	if len(sector) != geometry.SectorSize {
		return fmt.Errorf("vib: sector must be %d bytes; got %d", geometry.SectorSize, len(sector))
	}

	spacePad(sector[offVolumeName:offVolumeName+10], v.VolumeName)
	binary.BigEndian.PutUint16(sector[offTotalSectors:offTotalSectors+2], v.TotalSectors)
	sector[offSectorsPerTrack] = v.SectorsPerTrack
	copy(sector[offSignature:offSignature+3], Signature)
	sector[offTracksPerSide] = v.TracksPerSide
	sector[offSides] = v.Sides
	sector[offDensity] = v.Density

	for i, slot := range v.DirSlots {
		base := offDirSlots + i*dirSlotSize
		spacePad(sector[base:base+10], slot.Name)
		binary.BigEndian.PutUint16(sector[base+10:base+12], slot.FDRSector)
	}

	copy(sector[offAllocationBitmap:], v.AllocationBitmap[:])
	return nil
}

// New builds a fresh VIB for a freshly formatted volume with the given
// geometry and name, with all directory slots empty and an
// all-zero (all-free) bitmap. Callers still need to mark sectors 0, 1,
// and the FDI sector used via the abm package.
func New(geo geometry.Geometry, volumeName string) VIB {
	return VIB{
		VolumeName:      volumeName,
		TotalSectors:    uint16(geo.TotalSectors()),
		SectorsPerTrack: byte(geo.SectorsPerTrack),
		TracksPerSide:   byte(geo.TracksPerSide),
		Sides:           byte(geo.Sides),
		Density:         geo.Density,
	}
}

func trimSpacePadded(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == ' ' {
		end--
	}
	return string(b[:end])
}

func spacePad(dst []byte, s string) {
	for i := range dst {
		dst[i] = ' '
	}
	copy(dst, s)
}

// Copyright © 2026 The ti99-dskimg-lib Authors

// Package fdr decodes and encodes a File Descriptor Record: the
// per-file metadata sector, including its embedded Data Chain Pointer
// (DCP) chain, using a fixed byte-offset marshal/unmarshal table.
package fdr

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/miriki/ti99-dskimg-lib-sub001/geometry"
)

// MaxDCPEntries is the number of 3-byte DCP slots in the dcp_block
// field (228 bytes / 3).
const MaxDCPEntries = 76

// Byte offsets within the 256-byte FDR sector.
const (
	offFileName             = 0
	offExtendedRecordLength = 10
	offFileStatus           = 12
	offRecordsPerSector     = 13
	offTotalSectorsAlloc    = 14
	offEOFOffset            = 16
	offLogicalRecordLength  = 17
	offLevel3RecordsUsed    = 18
	offTimestampCreated     = 20
	offTimestampUpdated     = 24
	offDCPBlock             = 28
)

// Format is the logical type/format code stored in the low nibble of
// file_status.
type Format byte

const (
	FormatProgram Format = 0x01
	FormatDISFix  Format = 0x02
	FormatDISVar  Format = 0x03
	FormatINTFix  Format = 0x04
	FormatINTVar  Format = 0x05
)

// Status flag bits, the upper nibble of file_status. These are opaque
// to the core beyond "preserve verbatim", but named here since every
// caller needs to test/set PROTECTED.
const (
	FlagProtected byte = 0x80
	FlagBackup    byte = 0x40
	FlagEmulate   byte = 0x20
)

// FDR is the decoded contents of one File Descriptor Record sector.
type FDR struct {
	FileName              string
	ExtendedRecordLength  uint16
	FileStatus            byte // full byte: flags (high nibble) | Format (low nibble)
	RecordsPerSector      byte
	TotalSectorsAllocated uint16
	EOFOffset             byte
	LogicalRecordLength   byte
	Level3RecordsUsed     uint16 // little-endian, unlike every other FDR u16 field
	TimestampCreated      [4]byte
	TimestampUpdated      [4]byte
	DCPChain              []DCP // up to MaxDCPEntries non-empty entries, in chain order
}

// Format returns the low-nibble type/format code.
func (f FDR) Format() Format {
	return Format(f.FileStatus & 0x0F)
}

// SetFormat replaces the low-nibble type/format code, preserving flags.
func (f *FDR) SetFormat(fmt_ Format) {
	f.FileStatus = (f.FileStatus &^ 0x0F) | byte(fmt_)
}

// HasFlag reports whether the given upper-nibble flag bit is set.
func (f FDR) HasFlag(flag byte) bool {
	return f.FileStatus&flag != 0
}

// Read decodes a 256-byte FDR sector. Unknown/reserved bytes aren't
// tracked explicitly, but every named field round-trips byte-exactly.
func Read(sector []byte) (FDR, error) {
	if len(sector) != geometry.SectorSize {
		return FDR{}, fmt.Errorf("fdr: sector must be %d bytes; got %d", geometry.SectorSize, len(sector))
	}

	var f FDR
	f.FileName = trimSpacePadded(sector[offFileName : offFileName+10])
	f.ExtendedRecordLength = binary.BigEndian.Uint16(sector[offExtendedRecordLength : offExtendedRecordLength+2])
	f.FileStatus = sector[offFileStatus]
	f.RecordsPerSector = sector[offRecordsPerSector]
	f.TotalSectorsAllocated = binary.BigEndian.Uint16(sector[offTotalSectorsAlloc : offTotalSectorsAlloc+2])
	f.EOFOffset = sector[offEOFOffset]
	f.LogicalRecordLength = sector[offLogicalRecordLength]
	f.Level3RecordsUsed = binary.LittleEndian.Uint16(sector[offLevel3RecordsUsed : offLevel3RecordsUsed+2])
	copy(f.TimestampCreated[:], sector[offTimestampCreated:offTimestampCreated+4])
	copy(f.TimestampUpdated[:], sector[offTimestampUpdated:offTimestampUpdated+4])

	for i := 0; i < MaxDCPEntries; i++ {
		base := offDCPBlock + i*3
		d := DecodeDCP(sector[base], sector[base+1], sector[base+2])
		if d.Empty() {
			break
		}
		f.DCPChain = append(f.DCPChain, d)
	}
	return f, nil
}

// Write encodes f into a 256-byte sector buffer. sector must already
// be exactly 256 bytes; DCP slots beyond len(f.DCPChain) are zeroed
// (the empty sentinel).
func Write(f FDR, sector []byte) error {
	if len(sector) != geometry.SectorSize {
		return fmt.Errorf("fdr: sector must be %d bytes; got %d", geometry.SectorSize, len(sector))
	}
	if len(f.DCPChain) > MaxDCPEntries {
		return fmt.Errorf("fdr: %d DCP entries exceeds the %d-entry limit", len(f.DCPChain), MaxDCPEntries)
	}

	spacePad(sector[offFileName:offFileName+10], f.FileName)
	binary.BigEndian.PutUint16(sector[offExtendedRecordLength:offExtendedRecordLength+2], f.ExtendedRecordLength)
	sector[offFileStatus] = f.FileStatus
	sector[offRecordsPerSector] = f.RecordsPerSector
	binary.BigEndian.PutUint16(sector[offTotalSectorsAlloc:offTotalSectorsAlloc+2], f.TotalSectorsAllocated)
	sector[offEOFOffset] = f.EOFOffset
	sector[offLogicalRecordLength] = f.LogicalRecordLength
	binary.LittleEndian.PutUint16(sector[offLevel3RecordsUsed:offLevel3RecordsUsed+2], f.Level3RecordsUsed)
	copy(sector[offTimestampCreated:offTimestampCreated+4], f.TimestampCreated[:])
	copy(sector[offTimestampUpdated:offTimestampUpdated+4], f.TimestampUpdated[:])

	for i := 0; i < MaxDCPEntries; i++ {
		base := offDCPBlock + i*3
		var packed [3]byte
		if i < len(f.DCPChain) {
			d := f.DCPChain[i]
			var err error
			if d.SectorCount == 0 {
				// Preserve the caller's explicit use of the zero-count
				// quirk on round-trip, rather than always normalizing to
				// count_field==1.
				packed, err = EncodeDCPQuirked(d.FirstSector)
			} else {
				packed, err = EncodeDCP(d.FirstSector, d.SectorCount)
			}
			if err != nil {
				return fmt.Errorf("fdr: DCP entry %d: %w", i, err)
			}
		}
		sector[base], sector[base+1], sector[base+2] = packed[0], packed[1], packed[2]
	}
	return nil
}

// GetDataChain walks the DCP chain and returns the ordered list of
// sector numbers it covers.
func (f FDR) GetDataChain() []int {
	var sectors []int
	for _, d := range f.DCPChain {
		sectors = append(sectors, d.Sectors()...)
	}
	return sectors
}

// ChainIsConsistent reports whether the chain's total sector count
// matches TotalSectorsAllocated. A reader should check this before
// trusting a chain.
func (f FDR) ChainIsConsistent() bool {
	return len(f.GetDataChain()) == int(f.TotalSectorsAllocated)
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

// NameMatches reports whether a and b are the same TI-99 filename,
// case-insensitively.
func NameMatches(a, b string) bool {
	return strings.EqualFold(a, b)
}

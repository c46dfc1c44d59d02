// Copyright © 2026 The ti99-dskimg-lib Authors

package tifs

import (
	"github.com/miriki/ti99-dskimg-lib-sub001/geometry"
)

// RecordFormat is the FIX/VAR axis orthogonal to fdr.Format's PGM/DIS/INT
// axis; the two combine into one of the five fdr.Format codes.
type RecordFormat int

const (
	RecordFormatNone RecordFormat = iota // PROGRAM has no record structure
	RecordFormatFixed
	RecordFormatVariable
)

// packed is the result of packing a file's logical content into
// sector-aligned bytes.
type packed struct {
	bytes               []byte
	recordsPerSector    byte
	totalSectors        int
	eofOffset           byte
	logicalRecordLength byte
}

// packProgram packs a PROGRAM file: raw bytes, no record structure.
func packProgram(data []byte) packed {
	n := len(data)
	sectors := ceilDiv(n, geometry.SectorSize)
	buf := make([]byte, sectors*geometry.SectorSize)
	copy(buf, data)
	eof := byte(n % geometry.SectorSize)
	return packed{
		bytes:               buf,
		recordsPerSector:    0,
		totalSectors:        sectors,
		eofOffset:           eof,
		logicalRecordLength: 0,
	}
}

// packFixed packs DIS/FIX or INT/FIX records: records do not straddle
// sectors, and each sector's tail is zero-padded.
func packFixed(records [][]byte, recLen int) packed {
	recordsPerSector := geometry.SectorSize / recLen
	if recordsPerSector < 1 {
		recordsPerSector = 1
	}
	totalSectors := ceilDiv(len(records), recordsPerSector)
	buf := make([]byte, totalSectors*geometry.SectorSize)
	for i, rec := range records {
		sec := i / recordsPerSector
		slot := i % recordsPerSector
		off := sec*geometry.SectorSize + slot*recLen
		copy(buf[off:off+recLen], rec)
	}
	return packed{
		bytes:               buf,
		recordsPerSector:    byte(recordsPerSector),
		totalSectors:        totalSectors,
		eofOffset:            0,
		logicalRecordLength: byte(recLen),
	}
}

// packVariable packs DIS/VAR or INT/VAR records: each record is
// length-prefixed; a record that doesn't fit in the remaining sector
// space is deferred to the next sector with a 0xFF end-of-sector
// marker in its place.
func packVariable(records [][]byte, maxRecLen int) packed {
	var buf []byte
	curLen := 0
	flushSector := func() {
		for curLen < geometry.SectorSize {
			buf = append(buf, 0)
			curLen++
		}
		curLen = 0
	}
	buf = make([]byte, 0, geometry.SectorSize)
	for _, rec := range records {
		need := 1 + len(rec)
		if curLen+need > geometry.SectorSize {
			if curLen < geometry.SectorSize {
				buf = append(buf, 0xFF)
				curLen++
			}
			flushSector()
		}
		buf = append(buf, byte(len(rec)))
		buf = append(buf, rec...)
		curLen += 1 + len(rec)
	}
	if curLen < geometry.SectorSize {
		buf = append(buf, 0xFF)
		curLen++
	}
	eofOffset := curLen % geometry.SectorSize
	// Pad the final sector to a sector boundary.
	for len(buf)%geometry.SectorSize != 0 {
		buf = append(buf, 0)
	}
	totalSectors := len(buf) / geometry.SectorSize
	return packed{
		bytes:               buf,
		recordsPerSector:    0,
		totalSectors:        totalSectors,
		eofOffset:            byte(eofOffset),
		logicalRecordLength: byte(maxRecLen),
	}
}

// unpackProgram reverses packProgram, given the stored eofOffset.
func unpackProgram(data []byte, eofOffset byte, sectors int) []byte {
	if eofOffset == 0 || sectors == 0 {
		return data
	}
	n := (sectors-1)*geometry.SectorSize + int(eofOffset)
	if n > len(data) {
		n = len(data)
	}
	return data[:n]
}

// unpackFixed reverses packFixed: split each sector into
// recordsPerSector fixed-length slots, ignoring the zero-padded tail
// of a partially-filled final sector. totalRecords (the FDR's
// level3_records_used) bounds how many records actually exist.
func unpackFixed(data []byte, recLen int, recordsPerSector int, totalRecords int) [][]byte {
	if recordsPerSector < 1 {
		recordsPerSector = 1
	}
	var out [][]byte
	for i := 0; i < totalRecords; i++ {
		sec := i / recordsPerSector
		slot := i % recordsPerSector
		off := sec*geometry.SectorSize + slot*recLen
		if off+recLen > len(data) {
			break
		}
		rec := make([]byte, recLen)
		copy(rec, data[off:off+recLen])
		out = append(out, rec)
	}
	return out
}

// unpackVariable reverses packVariable: walk length-prefixed records,
// treating a 0xFF length byte as an end-of-sector marker that advances
// to the next sector boundary, and stopping at eofOffset in the final
// sector.
func unpackVariable(data []byte, eofOffset byte, totalSectors int) [][]byte {
	limit := len(data)
	if totalSectors > 0 && eofOffset > 0 {
		limit = (totalSectors-1)*geometry.SectorSize + int(eofOffset)
	}
	var out [][]byte
	pos := 0
	for pos < limit {
		sectorEnd := ((pos / geometry.SectorSize) + 1) * geometry.SectorSize
		if sectorEnd > limit {
			sectorEnd = limit
		}
		lenByte := data[pos]
		if lenByte == 0xFF {
			pos = sectorEnd
			continue
		}
		recLen := int(lenByte)
		start := pos + 1
		end := start + recLen
		if end > sectorEnd {
			pos = sectorEnd
			continue
		}
		rec := make([]byte, recLen)
		copy(rec, data[start:end])
		out = append(out, rec)
		pos = end
	}
	return out
}

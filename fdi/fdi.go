// Copyright © 2026 The ti99-dskimg-lib Authors

// Package fdi decodes and encodes the File Descriptor Index: the
// sorted array of FDR-sector pointers that forms a TI-99 volume's
// directory, stored as a single sorted u16 array terminated by a zero
// sentinel and zero-padded on write.
package fdi

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/miriki/ti99-dskimg-lib-sub001/geometry"
)

// MaxEntries is the number of u16 slots in one FDI sector.
const MaxEntries = geometry.SectorSize / 2 // 128

// Entry names one file in the directory: its FDR sector and the name
// read from that FDR, carried alongside for sorting/lookup without
// re-reading every FDR.
type Entry struct {
	Name      string
	FDRSector uint16
}

// Read decodes an FDI sector into the ordered list of live entries,
// stopping at the first zero pointer. name is a lookup function
// (typically backed by reading each referenced FDR sector) used to
// label each pointer with its filename.
func Read(sector []byte, name func(fdrSector uint16) (string, error)) ([]Entry, error) {
	if len(sector) != geometry.SectorSize {
		return nil, fmtErrorfSize(len(sector))
	}
	var entries []Entry
	for i := 0; i < MaxEntries; i++ {
		ptr := binary.BigEndian.Uint16(sector[i*2 : i*2+2])
		if ptr == 0 {
			break
		}
		n, err := name(ptr)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Name: n, FDRSector: ptr})
	}
	return entries, nil
}

// ReadPointers decodes only the raw FDR-sector pointers, without
// resolving names. Useful for structural checks that don't need (or
// can't trust) the pointed-to FDRs.
func ReadPointers(sector []byte) ([]uint16, error) {
	if len(sector) != geometry.SectorSize {
		return nil, fmtErrorfSize(len(sector))
	}
	var ptrs []uint16
	for i := 0; i < MaxEntries; i++ {
		ptr := binary.BigEndian.Uint16(sector[i*2 : i*2+2])
		if ptr == 0 {
			break
		}
		ptrs = append(ptrs, ptr)
	}
	return ptrs, nil
}

// Write encodes entries into a 256-byte sector, sorted by
// case-insensitive filename and zero-padded after the last entry.
func Write(entries []Entry, sector []byte) error {
	if len(sector) != geometry.SectorSize {
		return fmtErrorfSize(len(sector))
	}
	if len(entries) > MaxEntries {
		return fmt.Errorf("fdi: %d entries exceeds the %d-entry limit", len(entries), MaxEntries)
	}
	sorted := SortEntries(entries)
	for i := range sector {
		sector[i] = 0
	}
	for i, e := range sorted {
		binary.BigEndian.PutUint16(sector[i*2:i*2+2], e.FDRSector)
	}
	return nil
}

// SortEntries returns a new slice sorted by case-insensitive ASCII
// filename, without mutating the input.
func SortEntries(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToUpper(sorted[i].Name) < strings.ToUpper(sorted[j].Name)
	})
	return sorted
}

// IsSorted reports whether entries are already in case-insensitive
// ASCII order with no duplicate names.
func IsSorted(entries []Entry) bool {
	for i := 1; i < len(entries); i++ {
		a, b := strings.ToUpper(entries[i-1].Name), strings.ToUpper(entries[i].Name)
		if a >= b {
			return false
		}
	}
	return true
}

// Insert returns a new entry list with e inserted in sorted order. It
// returns an error if an entry with the same case-insensitive name
// already exists.
func Insert(entries []Entry, e Entry) ([]Entry, error) {
	for _, existing := range entries {
		if strings.EqualFold(existing.Name, e.Name) {
			return nil, fmt.Errorf("fdi: name %q already present", e.Name)
		}
	}
	out := append(append([]Entry{}, entries...), e)
	return SortEntries(out), nil
}

// Remove returns a new entry list with the entry named name removed
// (case-insensitively). ok is false if no such entry existed.
func Remove(entries []Entry, name string) (out []Entry, ok bool) {
	for _, e := range entries {
		if strings.EqualFold(e.Name, name) {
			ok = true
			continue
		}
		out = append(out, e)
	}
	return out, ok
}

// Find looks up an entry by case-insensitive name.
func Find(entries []Entry, name string) (Entry, bool) {
	for _, e := range entries {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}

func fmtErrorfSize(got int) error {
	return fmt.Errorf("fdi: sector must be %d bytes; got %d", geometry.SectorSize, got)
}

// Copyright © 2026 The ti99-dskimg-lib Authors

// Package abm implements the Allocation Bitmap: one bit per sector,
// embedded in the VIB, sized to cover the whole image, with
// cluster-grained queries layered on top of the per-sector bits.
package abm

import "github.com/miriki/ti99-dskimg-lib-sub001/geometry"

// Bitmap presents used/free queries over a VIB's embedded allocation
// bitmap region, scoped to a specific geometry so out-of-range sectors
// are correctly treated as permanently used.
type Bitmap struct {
	bits  []byte
	total int
}

// New wraps a bitmap byte region (VIB.AllocationBitmap[:]) for a disk
// with the given geometry. bits is retained, not copied: mutations
// through Bitmap are visible in the caller's VIB.
func New(bits []byte, geo geometry.Geometry) *Bitmap {
	return &Bitmap{bits: bits, total: geo.TotalSectors()}
}

// IsUsed reports whether sector s is marked used. Sectors at or beyond
// the disk's total sector count are always reported used.
func (b *Bitmap) IsUsed(s int) bool {
	if s < 0 || s >= b.total {
		return true
	}
	byteIndex := s / 8
	if byteIndex >= len(b.bits) {
		return true
	}
	bit := byte(1) << uint(s%8)
	return b.bits[byteIndex]&bit != 0
}

// SetUsed sets or clears the used bit for sector s. Out-of-range
// sectors are silently ignored: they are permanently used regardless
// of the stored bits.
func (b *Bitmap) SetUsed(s int, used bool) {
	if s < 0 || s >= b.total {
		return
	}
	byteIndex := s / 8
	if byteIndex >= len(b.bits) {
		return
	}
	bit := byte(1) << uint(s%8)
	if used {
		b.bits[byteIndex] |= bit
	} else {
		b.bits[byteIndex] &^= bit
	}
}

// ClusterFree reports whether every sector in the span of cluster c is
// free. sectors is the list of sector indices that make up cluster c
// (see image.View.SectorsInCluster).
func (b *Bitmap) ClusterFree(sectors []int) bool {
	for _, s := range sectors {
		if b.IsUsed(s) {
			return false
		}
	}
	return true
}

// SetClusterUsed marks every sector in the span of a cluster used (or
// free).
func (b *Bitmap) SetClusterUsed(sectors []int, used bool) {
	for _, s := range sectors {
		b.SetUsed(s, used)
	}
}

// FreeSectorCount returns the number of free sectors within the bitmap's
// range.
func (b *Bitmap) FreeSectorCount() int {
	n := 0
	for s := 0; s < b.total; s++ {
		if !b.IsUsed(s) {
			n++
		}
	}
	return n
}

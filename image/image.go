// Copyright © 2026 The ti99-dskimg-lib Authors

// Package image provides zero-copy sector and cluster views over a raw
// TI-99 disk-image byte buffer: a fixed 256-byte sector size, with a
// variable, geometry-dependent number of sectors per cluster.
package image

import (
	"fmt"

	"github.com/miriki/ti99-dskimg-lib-sub001/geometry"
)

// View is a mutable, zero-copy window over a disk-image buffer, scoped
// to one geometry.
type View struct {
	buf []byte
	geo geometry.Geometry
}

// New wraps buf in a View using geo. buf's length must equal
// geo.TotalSectors()*geometry.SectorSize.
func New(buf []byte, geo geometry.Geometry) (*View, error) {
	want := geo.TotalSectors() * geometry.SectorSize
	if len(buf) != want {
		return nil, fmt.Errorf("image: buffer is %d bytes, geometry %s wants %d", len(buf), geo.Preset, want)
	}
	return &View{buf: buf, geo: geo}, nil
}

// Geometry returns the geometry this view was constructed with.
func (v *View) Geometry() geometry.Geometry {
	return v.geo
}

// Bytes returns the entire underlying buffer, still owned by the View
// (mutations through Sector/Cluster views are visible in it, and vice
// versa).
func (v *View) Bytes() []byte {
	return v.buf
}

// Sectors returns the number of sectors in the image.
func (v *View) Sectors() int {
	return v.geo.TotalSectors()
}

// Sector returns a mutable 256-byte view of sector i.
func (v *View) Sector(i int) ([]byte, error) {
	if i < 0 || i >= v.geo.TotalSectors() {
		return nil, fmt.Errorf("image: sector %d out of range [0,%d)", i, v.geo.TotalSectors())
	}
	start := i * geometry.SectorSize
	return v.buf[start : start+geometry.SectorSize : start+geometry.SectorSize], nil
}

// ClusterToSector returns the first sector index of cluster c.
// Clusters run over the whole image starting at sector 0: cluster 0
// covers sectors 0..SectorsPerCluster-1, which includes the VIB and
// FDI sectors, so allocators must mark those sectors used up-front.
func (v *View) ClusterToSector(c int) int {
	return c * v.geo.SectorsPerCluster
}

// Cluster returns a mutable view over cluster c: SectorsPerCluster
// consecutive sectors concatenated.
func (v *View) Cluster(c int) ([]byte, error) {
	first := v.ClusterToSector(c)
	last := first + v.geo.SectorsPerCluster - 1
	if first < 0 || last >= v.geo.TotalSectors() {
		return nil, fmt.Errorf("image: cluster %d out of range", c)
	}
	start := first * geometry.SectorSize
	end := (last + 1) * geometry.SectorSize
	return v.buf[start:end:end], nil
}

// SectorsInCluster returns the sector indices spanned by cluster c.
func (v *View) SectorsInCluster(c int) []int {
	first := v.ClusterToSector(c)
	sectors := make([]int, v.geo.SectorsPerCluster)
	for i := range sectors {
		sectors[i] = first + i
	}
	return sectors
}

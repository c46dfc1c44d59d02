// Copyright © 2026 The ti99-dskimg-lib Authors

package tifs

import (
	"sort"
	"strings"
	"time"

	"github.com/miriki/ti99-dskimg-lib-sub001/errs"
	"github.com/miriki/ti99-dskimg-lib-sub001/fdi"
	"github.com/miriki/ti99-dskimg-lib-sub001/fdr"
)

// FileSpec describes the logical content to write, ahead of packing.
type FileSpec struct {
	Name         string
	Format       fdr.Format
	RecordFormat RecordFormat
	RecordLength int      // for FIX/VAR; ignored for PROGRAM
	Data         []byte   // for PROGRAM: raw bytes
	Records      [][]byte // for FIX/VAR: pre-split records
	Flags        byte     // upper-nibble status flags to set (PROTECTED, etc.)
	Time         time.Time // creation/update stamp; zero value defaults to time.Now()
}

// stampOrNow returns t if it's set, else the current time.
func stampOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// CreateFile validates the name, packs the content, allocates
// clusters, writes the data sectors, claims an FDR sector, and links
// the new file into the FDI.
func (fs *Filesystem) CreateFile(spec FileSpec) error {
	if err := ValidateName(spec.Name); err != nil {
		return err
	}
	if _, exists := fs.Lookup(spec.Name); exists {
		return errs.NameExistsf("tifs: %q already exists", spec.Name)
	}

	p := fs.packSpec(spec)

	neededClusters := ceilDiv(p.totalSectors, fs.geo.SectorsPerCluster)
	clusters, err := fs.allocate(neededClusters)
	if err != nil {
		return err
	}

	sectors := fs.clustersToSectors(clusters)
	if err := fs.writeDataSectors(sectors, p.bytes); err != nil {
		return err
	}

	fdrSector, err := fs.chooseFDRSector()
	if err != nil {
		return err
	}
	fs.abm.SetUsed(fdrSector, true)

	dcpChain, err := runLengthEncodeDCP(sectors)
	if err != nil {
		return err
	}

	stamp := fdr.PackTiClock(stampOrNow(spec.Time))
	f := fdr.FDR{
		FileName:              strings.ToUpper(spec.Name),
		FileStatus:            spec.Flags | byte(spec.Format),
		RecordsPerSector:      p.recordsPerSector,
		TotalSectorsAllocated: uint16(p.totalSectors),
		EOFOffset:             p.eofOffset,
		LogicalRecordLength:   p.logicalRecordLength,
		Level3RecordsUsed:     uint16(len(spec.Records)),
		TimestampCreated:      stamp,
		TimestampUpdated:      stamp,
		DCPChain:              dcpChain,
	}

	if err := fs.writeFDR(fdrSector, f); err != nil {
		return err
	}

	entries, err := fdi.Insert(fs.fdi, fdi.Entry{Name: f.FileName, FDRSector: uint16(fdrSector)})
	if err != nil {
		return err
	}
	fs.fdi = entries
	if err := fs.writeFDI(); err != nil {
		return err
	}
	return fs.writeVIB()
}

func (fs *Filesystem) packSpec(spec FileSpec) packed {
	switch spec.RecordFormat {
	case RecordFormatFixed:
		return packFixed(spec.Records, spec.RecordLength)
	case RecordFormatVariable:
		return packVariable(spec.Records, spec.RecordLength)
	default:
		return packProgram(spec.Data)
	}
}

// clustersToSectors expands an ascending cluster-index list into its
// full sector list, via the image view's cluster-to-sector mapping.
func (fs *Filesystem) clustersToSectors(clusters []int) []int {
	var sectors []int
	for _, c := range clusters {
		sectors = append(sectors, fs.view.SectorsInCluster(c)...)
	}
	return sectors
}

// writeDataSectors writes data across the given sector list in order,
// zero-padding the tail of the final sector if data is shorter than
// len(sectors)*sectorSize.
func (fs *Filesystem) writeDataSectors(sectors []int, data []byte) error {
	pos := 0
	for _, s := range sectors {
		b, err := fs.view.Sector(s)
		if err != nil {
			return err
		}
		for i := range b {
			b[i] = 0
		}
		if pos < len(data) {
			n := copy(b, data[pos:])
			pos += n
		}
	}
	return nil
}

// chooseFDRSector picks the lowest sector at or after
// fs.geo.FirstDataSector() that's free in the ABM and not already an
// FDI target. FDR sectors share the same pool as data sectors: clusters
// run over the whole image, so there's no separately reserved FDR zone.
func (fs *Filesystem) chooseFDRSector() (int, error) {
	taken := make(map[int]bool)
	for _, e := range fs.fdi {
		taken[int(e.FDRSector)] = true
	}
	for s := fs.geo.FirstDataSector(); s < fs.geo.TotalSectors(); s++ {
		if !fs.abm.IsUsed(s) && !taken[s] {
			return s, nil
		}
	}
	return 0, errs.OutOfSpacef("tifs: no free FDR sector available")
}

// runLengthEncodeDCP collapses an ascending sector list into at most
// fdr.MaxDCPEntries contiguous runs.
func runLengthEncodeDCP(sectors []int) ([]fdr.DCP, error) {
	if len(sectors) == 0 {
		return nil, nil
	}
	sorted := append([]int{}, sectors...)
	sort.Ints(sorted)

	var chain []fdr.DCP
	runStart := sorted[0]
	runLen := 1
	flush := func() {
		chain = append(chain, fdr.DCP{FirstSector: runStart, SectorCount: runLen})
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1]+1 {
			runLen++
			continue
		}
		flush()
		runStart = sorted[i]
		runLen = 1
	}
	flush()

	if len(chain) > fdr.MaxDCPEntries {
		return nil, errs.FragmentationExceededf(
			"tifs: file needs %d DCP runs, only %d available", len(chain), fdr.MaxDCPEntries)
	}
	return chain, nil
}

// DeleteFile removes a file's FDI entry and frees its sectors in the
// ABM. When safe is true, data sectors are zeroed before being freed.
func (fs *Filesystem) DeleteFile(name string, safe bool) error {
	kf, ok := fs.Lookup(name)
	if !ok {
		return errs.FileNotFoundf("tifs: %q not found", name)
	}

	if safe {
		for _, s := range kf.FDR.GetDataChain() {
			b, err := fs.view.Sector(s)
			if err != nil {
				return err
			}
			for i := range b {
				b[i] = 0
			}
		}
	}

	fs.free(kf.FDR)
	fs.abm.SetUsed(kf.Sector, false)

	entries, _ := fdi.Remove(fs.fdi, name)
	fs.fdi = entries
	delete(fs.fdrs, strings.ToLower(name))

	if err := fs.writeFDI(); err != nil {
		return err
	}
	return fs.writeVIB()
}

// RenameFile mutates the FDR's filename field in place and restamps
// timestamp_updated, preserving every other byte (including the status
// flags), then re-sorts the FDI; the FDR is therefore not byte-identical
// to the one before the rename. The ABM is untouched. at is an optional
// caller-supplied timestamp for timestamp_updated; omit it to stamp the
// current time.
func (fs *Filesystem) RenameFile(oldName, newName string, at ...time.Time) error {
	kf, ok := fs.Lookup(oldName)
	if !ok {
		return errs.FileNotFoundf("tifs: %q not found", oldName)
	}
	if err := ValidateName(newName); err != nil {
		return err
	}
	if _, exists := fs.Lookup(newName); exists {
		return errs.NameExistsf("tifs: %q already exists", newName)
	}

	var stampAt time.Time
	if len(at) > 0 {
		stampAt = at[0]
	}

	f := kf.FDR
	f.FileName = strings.ToUpper(newName)
	f.TimestampUpdated = fdr.PackTiClock(stampOrNow(stampAt))
	if err := fs.writeFDR(kf.Sector, f); err != nil {
		return err
	}
	delete(fs.fdrs, strings.ToLower(oldName))

	entries, _ := fdi.Remove(fs.fdi, oldName)
	entries, err := fdi.Insert(entries, fdi.Entry{Name: f.FileName, FDRSector: uint16(kf.Sector)})
	if err != nil {
		return err
	}
	fs.fdi = entries
	return fs.writeFDI()
}

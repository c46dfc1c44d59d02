// Copyright © 2026 The ti99-dskimg-lib Authors

// Package ti99 is the public entry point to the core library: a
// Handle wraps one disk-image byte buffer and exposes the file- and
// volume-level operations, orchestrating the
// geometry/image/vib/abm/fdi/fdr/tifs/check layers underneath. A
// Handle is a thin façade over a reconstructed-on-demand aggregate,
// not a long-lived object graph: it never keeps a persistent
// cross-owning reference to its Filesystem.
package ti99

import (
	"strings"
	"time"

	"github.com/miriki/ti99-dskimg-lib-sub001/check"
	"github.com/miriki/ti99-dskimg-lib-sub001/errs"
	"github.com/miriki/ti99-dskimg-lib-sub001/fdr"
	"github.com/miriki/ti99-dskimg-lib-sub001/geometry"
	"github.com/miriki/ti99-dskimg-lib-sub001/image"
	"github.com/miriki/ti99-dskimg-lib-sub001/tifs"
	"github.com/miriki/ti99-dskimg-lib-sub001/vib"
)

// FileType is the PGM/DIS/INT axis of a file's logical type.
type FileType int

const (
	TypeProgram FileType = iota
	TypeDisplay
	TypeInternal
)

// RecordFormat is the FIX/VAR axis, meaningless for TypeProgram.
type RecordFormat int

const (
	RecordNone RecordFormat = iota
	RecordFixed
	RecordVariable
)

// toFDRFormat maps (FileType, RecordFormat) onto the single byte
// format code stored in an FDR.
func toFDRFormat(t FileType, r RecordFormat) fdr.Format {
	switch t {
	case TypeProgram:
		return fdr.FormatProgram
	case TypeDisplay:
		if r == RecordVariable {
			return fdr.FormatDISVar
		}
		return fdr.FormatDISFix
	case TypeInternal:
		if r == RecordVariable {
			return fdr.FormatINTVar
		}
		return fdr.FormatINTFix
	default:
		return fdr.FormatProgram
	}
}

func fromFDRFormat(f fdr.Format) (FileType, RecordFormat) {
	switch f {
	case fdr.FormatDISFix:
		return TypeDisplay, RecordFixed
	case fdr.FormatDISVar:
		return TypeDisplay, RecordVariable
	case fdr.FormatINTFix:
		return TypeInternal, RecordFixed
	case fdr.FormatINTVar:
		return TypeInternal, RecordVariable
	default:
		return TypeProgram, RecordNone
	}
}

// FileEntry is one row of a directory listing.
type FileEntry struct {
	Name         string
	Type         FileType
	RecordFormat RecordFormat
	RecordLength int
	SizeBytes    int
	Flags        byte
	CreatedAt    [4]byte
	UpdatedAt    [4]byte
}

// VibDescriptor is the read-only projection of the volume header.
type VibDescriptor struct {
	VolumeName      string
	TotalSectors    int
	SectorsPerTrack int
	TracksPerSide   int
	Sides           int
	Density         byte
	DirSlots        [3]vib.DirSlot
}

// AbmDescriptor is the read-only projection of the allocation bitmap.
type AbmDescriptor struct {
	TotalSectors int
	FreeSectors  int
	UsedSectors  int
}

// FdrDescriptor is the read-only projection of one file's descriptor
// record, independent of whether it's also reachable via FDI.
type FdrDescriptor struct {
	Sector                int
	FileName              string
	Format                fdr.Format
	Flags                 byte
	TotalSectorsAllocated int
	EOFOffset             byte
	LogicalRecordLength   byte
	Level3RecordsUsed     int
	DataChain             []int
}

// Handle wraps one disk-image byte buffer and the geometry it was
// opened or created with. A Handle owns its buffer for the duration
// of the process; no background state survives across calls.
type Handle struct {
	buf  []byte
	geo  geometry.Geometry
	view *image.View
}

// Open loads an existing image. If hint is non-empty, it names the
// preset and is used as-is, without consulting the image's VIB;
// otherwise geometry is detected from the VIB signature, falling back
// to byte length.
func Open(bytes []byte, hint string) (*Handle, error) {
	geo, err := detectGeometry(bytes, hint)
	if err != nil {
		return nil, err
	}
	view, err := image.New(bytes, geo)
	if err != nil {
		return nil, err
	}
	return &Handle{buf: bytes, geo: geo, view: view}, nil
}

func detectGeometry(data []byte, hint string) (geometry.Geometry, error) {
	if hint != "" {
		return geometry.Resolve(hint)
	}
	if len(data) >= geometry.SectorSize {
		if sig := string(data[13:16]); sig == vib.Signature {
			sides := int(data[17])
			tracks := int(data[16])
			sectorsPerTrack := int(data[12])
			if g, err := geometry.ByShape(sides, tracks, sectorsPerTrack); err == nil {
				return g, nil
			}
		}
	}
	return geometry.DetectByLength(len(data))
}

// Create allocates and formats a brand-new image for preset.
func Create(preset string) (*Handle, error) {
	geo, err := geometry.Resolve(preset)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, geo.TotalSectors()*geometry.SectorSize)
	view, err := image.New(buf, geo)
	if err != nil {
		return nil, err
	}
	if _, err := tifs.Format(view, ""); err != nil {
		return nil, err
	}
	return &Handle{buf: buf, geo: geo, view: view}, nil
}

// Bytes returns the handle's raw image buffer.
func (h *Handle) Bytes() []byte { return h.buf }

// FormatPreset returns the preset name the handle was opened/created
// with.
func (h *Handle) FormatPreset() string { return h.geo.Preset }

// Geometry returns the handle's geometry.
func (h *Handle) Geometry() geometry.Geometry { return h.geo }

// Format re-initializes the handle's buffer in place as a fresh,
// empty volume of preset (which may differ in size from the current
// geometry; the buffer is reallocated when it does).
func (h *Handle) Format(preset string) error {
	geo, err := geometry.Resolve(preset)
	if err != nil {
		return err
	}
	volumeName := ""
	if fs, err := h.load(); err == nil {
		volumeName = fs.VIB().VolumeName
	}

	want := geo.TotalSectors() * geometry.SectorSize
	if len(h.buf) != want {
		h.buf = make([]byte, want)
	}
	view, err := image.New(h.buf, geo)
	if err != nil {
		return err
	}
	if _, err := tifs.Format(view, volumeName); err != nil {
		return err
	}
	h.geo = geo
	h.view = view
	return nil
}

// SetVolumeName renames the volume in place.
func (h *Handle) SetVolumeName(name string) error {
	fs, err := h.load()
	if err != nil {
		return err
	}
	v := fs.VIB()
	v.VolumeName = strings.ToUpper(name)
	return h.writeVIBDirect(v)
}

// writeVIBDirect writes v to the VIB sector directly — used by
// SetVolumeName, which mutates a field the tifs.Filesystem API
// doesn't expose a dedicated setter for.
func (h *Handle) writeVIBDirect(v vib.VIB) error {
	sector, err := h.view.Sector(geometry.VIBSector)
	if err != nil {
		return err
	}
	return vib.Write(v, sector)
}

// load reconstructs the filesystem aggregate from the current buffer.
// No aggregate is cached across public calls.
func (h *Handle) load() (*tifs.Filesystem, error) {
	return tifs.Load(h.view)
}

// ListFiles returns every file currently in the directory.
func (h *Handle) ListFiles() ([]FileEntry, error) {
	fs, err := h.load()
	if err != nil {
		return nil, err
	}
	entries := fs.FDIEntries()
	out := make([]FileEntry, 0, len(entries))
	for _, e := range entries {
		kf, ok := fs.Lookup(e.Name)
		if !ok {
			continue
		}
		out = append(out, descriptorFromFDR(kf.FDR))
	}
	return out, nil
}

func descriptorFromFDR(f fdr.FDR) FileEntry {
	t, r := fromFDRFormat(f.Format())
	recLen := int(f.LogicalRecordLength)
	if f.ExtendedRecordLength > 0 {
		recLen = int(f.ExtendedRecordLength)
	}
	sizeBytes := int(f.TotalSectorsAllocated) * geometry.SectorSize
	if f.EOFOffset > 0 {
		sizeBytes = (int(f.TotalSectorsAllocated)-1)*geometry.SectorSize + int(f.EOFOffset)
	}
	return FileEntry{
		Name:         f.FileName,
		Type:         t,
		RecordFormat: r,
		RecordLength: recLen,
		SizeBytes:    sizeBytes,
		Flags:        f.FileStatus & 0xF0,
		CreatedAt:    f.TimestampCreated,
		UpdatedAt:    f.TimestampUpdated,
	}
}

// Exists reports whether name is present in the directory.
func (h *Handle) Exists(name string) (bool, error) {
	fs, err := h.load()
	if err != nil {
		return false, err
	}
	_, ok := fs.Lookup(name)
	return ok, nil
}

// WriteFile packs data per (fileType, recordFormat, recordLength) and
// creates it. For PROGRAM files recordFormat and recordLength are
// ignored. For FIX/VAR files, data is chunked into records of at most
// recordLength bytes: FIX pads the final record to recordLength, VAR
// leaves a short final record as-is. at is an optional caller-supplied
// creation timestamp; omit it to stamp the current time.
func (h *Handle) WriteFile(name string, data []byte, fileType FileType, recordFormat RecordFormat, recordLength int, at ...time.Time) error {
	fs, err := h.load()
	if err != nil {
		return err
	}

	spec := tifs.FileSpec{Name: strings.ToUpper(name), Format: toFDRFormat(fileType, recordFormat)}
	if len(at) > 0 {
		spec.Time = at[0]
	}
	switch {
	case fileType == TypeProgram:
		spec.Data = data
	case recordFormat == RecordVariable:
		spec.RecordFormat = tifs.RecordFormatVariable
		spec.RecordLength = recordLength
		spec.Records = chunkRecords(data, recordLength, false)
	default:
		spec.RecordFormat = tifs.RecordFormatFixed
		spec.RecordLength = recordLength
		spec.Records = chunkRecords(data, recordLength, true)
	}

	return fs.CreateFile(spec)
}

func chunkRecords(data []byte, recLen int, pad bool) [][]byte {
	if recLen <= 0 {
		recLen = 1
	}
	var out [][]byte
	for i := 0; i < len(data); i += recLen {
		end := i + recLen
		if end > len(data) {
			end = len(data)
		}
		chunk := data[i:end]
		if pad && len(chunk) < recLen {
			padded := make([]byte, recLen)
			copy(padded, chunk)
			chunk = padded
		} else {
			c := make([]byte, len(chunk))
			copy(c, chunk)
			chunk = c
		}
		out = append(out, chunk)
	}
	return out
}

// ReadFile returns a file's normalized byte content: raw bytes for
// PROGRAM, or the concatenation of its unpacked records for FIX/VAR.
func (h *Handle) ReadFile(name string) ([]byte, error) {
	fs, err := h.load()
	if err != nil {
		return nil, err
	}
	kf, ok := fs.Lookup(name)
	if !ok {
		return nil, errs.FileNotFoundf("ti99: %q not found", name)
	}
	if kf.FDR.Format() == fdr.FormatProgram {
		return fs.ReadFile(name)
	}
	records, err := fs.ReadRecords(name)
	if err != nil {
		return nil, err
	}
	var out []byte
	for _, r := range records {
		out = append(out, r...)
	}
	return out, nil
}

// RenameFile renames a file in place. at is an optional caller-supplied
// timestamp for timestamp_updated; omit it to stamp the current time.
func (h *Handle) RenameFile(oldName, newName string, at ...time.Time) error {
	fs, err := h.load()
	if err != nil {
		return err
	}
	return fs.RenameFile(oldName, newName, at...)
}

// DeleteFile removes a file. When safe is true, its data sectors are
// zeroed before being freed.
func (h *Handle) DeleteFile(name string, safe bool) error {
	fs, err := h.load()
	if err != nil {
		return err
	}
	return fs.DeleteFile(name, safe)
}

// VIB returns a read-only projection of the volume header.
func (h *Handle) VIB() (VibDescriptor, error) {
	fs, err := h.load()
	if err != nil {
		return VibDescriptor{}, err
	}
	v := fs.VIB()
	return VibDescriptor{
		VolumeName:      v.VolumeName,
		TotalSectors:    int(v.TotalSectors),
		SectorsPerTrack: int(v.SectorsPerTrack),
		TracksPerSide:   int(v.TracksPerSide),
		Sides:           int(v.Sides),
		Density:         v.Density,
		DirSlots:        v.DirSlots,
	}, nil
}

// ABM returns a read-only summary of the allocation bitmap.
func (h *Handle) ABM() (AbmDescriptor, error) {
	fs, err := h.load()
	if err != nil {
		return AbmDescriptor{}, err
	}
	total := fs.Geometry().TotalSectors()
	free := fs.ABM().FreeSectorCount()
	return AbmDescriptor{TotalSectors: total, FreeSectors: free, UsedSectors: total - free}, nil
}

// AllFDRs returns a descriptor for every FDR reachable from the
// directory.
func (h *Handle) AllFDRs() ([]FdrDescriptor, error) {
	fs, err := h.load()
	if err != nil {
		return nil, err
	}
	var out []FdrDescriptor
	for _, kf := range fs.FDRs() {
		out = append(out, FdrDescriptor{
			Sector:                kf.Sector,
			FileName:              kf.FDR.FileName,
			Format:                kf.FDR.Format(),
			Flags:                 kf.FDR.FileStatus & 0xF0,
			TotalSectorsAllocated: int(kf.FDR.TotalSectorsAllocated),
			EOFOffset:             kf.FDR.EOFOffset,
			LogicalRecordLength:   kf.FDR.LogicalRecordLength,
			Level3RecordsUsed:     int(kf.FDR.Level3RecordsUsed),
			DataChain:             kf.FDR.GetDataChain(),
		})
	}
	return out, nil
}

// Check runs the four consistency checkers and returns the aggregate.
func (h *Handle) Check() (check.CheckResult, error) {
	fs, err := h.load()
	if err != nil {
		return check.CheckResult{}, err
	}
	return check.Check(fs), nil
}

// Repair plans and applies repairs to the current image. Safe actions
// run even when the plan is PARTIAL (unresolved cross-links alongside
// other, independently safe fixes); nothing is applied when the plan
// is UNSAFE (cross-links and nothing else) or NOTHING_TO_DO.
func (h *Handle) Repair() (check.RepairPlan, error) {
	fs, err := h.load()
	if err != nil {
		return check.RepairPlan{}, err
	}
	result := check.Check(fs)
	plan := check.Plan(fs, result)
	if plan.Status == check.StatusReady || plan.Status == check.StatusPartial {
		if err := check.Apply(fs, plan); err != nil {
			return plan, err
		}
	}
	return plan, nil
}

// DirectorySlots returns the VIB's three root directory slot
// advertisements: a supplemented accessor alongside the core's
// primary FDI-based directory.
func (h *Handle) DirectorySlots() ([3]vib.DirSlot, error) {
	fs, err := h.load()
	if err != nil {
		return [3]vib.DirSlot{}, err
	}
	return fs.VIB().DirSlots, nil
}

// SetDirectorySlot sets one of the three root directory slot
// advertisements directly in the VIB; slot 1 is conventionally treated
// as the root if non-zero. i must be in [0,3).
func (h *Handle) SetDirectorySlot(i int, name string, fdrSector uint16) error {
	if i < 0 || i > 2 {
		return errs.NameInvalidf("ti99: directory slot index %d out of range [0,3)", i)
	}
	fs, err := h.load()
	if err != nil {
		return err
	}
	v := fs.VIB()
	v.DirSlots[i] = vib.DirSlot{Name: strings.ToUpper(name), FDRSector: fdrSector}
	return h.writeVIBDirect(v)
}

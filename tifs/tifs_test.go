package tifs

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kr/pretty"

	"github.com/miriki/ti99-dskimg-lib-sub001/errs"
	"github.com/miriki/ti99-dskimg-lib-sub001/fdr"
	"github.com/miriki/ti99-dskimg-lib-sub001/geometry"
	"github.com/miriki/ti99-dskimg-lib-sub001/image"
)

func newFormattedFS(t *testing.T, preset string) (*Filesystem, *image.View) {
	t.Helper()
	geo, err := geometry.Resolve(preset)
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, geo.TotalSectors()*geometry.SectorSize)
	view, err := image.New(buf, geo)
	if err != nil {
		t.Fatal(err)
	}
	fs, err := Format(view, "TESTDISK")
	if err != nil {
		t.Fatal(err)
	}
	return fs, view
}

func TestFormatEmpty(t *testing.T) {
	fs, _ := newFormattedFS(t, geometry.SSSD40)
	if got := fs.VIB().TotalSectors; got != 360 {
		t.Errorf("TotalSectors = %d, want 360", got)
	}
	if len(fs.FDIEntries()) != 0 {
		t.Errorf("fresh FDI should be empty")
	}
	if !fs.abm.IsUsed(0) || !fs.abm.IsUsed(1) {
		t.Error("VIB and FDI sectors should be marked used after Format")
	}
	if fs.abm.FreeSectorCount() != 358 {
		t.Errorf("FreeSectorCount = %d, want 358", fs.abm.FreeSectorCount())
	}
}

func TestCreateSmallProgram(t *testing.T) {
	fs, _ := newFormattedFS(t, geometry.SSSD40)
	data := bytes.Repeat([]byte{0x55}, 1000)
	err := fs.CreateFile(FileSpec{
		Name:   "HELLO",
		Format: fdr.FormatProgram,
		Data:   data,
	})
	if err != nil {
		t.Fatal(err)
	}

	if !fs.abm.IsUsed(0) {
		t.Fatal("sector 0 should remain used")
	}

	kf, ok := fs.Lookup("hello")
	if !ok {
		t.Fatal("HELLO should be found case-insensitively")
	}
	if kf.FDR.TotalSectorsAllocated != 4 {
		t.Errorf("TotalSectorsAllocated = %d, want 4", kf.FDR.TotalSectorsAllocated)
	}
	if kf.FDR.EOFOffset != 1000%256 {
		t.Errorf("EOFOffset = %d, want %d", kf.FDR.EOFOffset, 1000%256)
	}

	got, err := fs.ReadFile("HELLO")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("ReadFile returned %d bytes, want %d matching original", len(got), len(data))
	}
}

func TestCreateDuplicateNameFails(t *testing.T) {
	fs, _ := newFormattedFS(t, geometry.SSSD40)
	spec := FileSpec{Name: "DUP", Format: fdr.FormatProgram, Data: []byte("x")}
	if err := fs.CreateFile(spec); err != nil {
		t.Fatal(err)
	}
	if err := fs.CreateFile(spec); !errs.IsNameExists(err) {
		t.Fatalf("expected ErrNameExists, got %v", err)
	}
}

func TestCreateInvalidNameFails(t *testing.T) {
	fs, _ := newFormattedFS(t, geometry.SSSD40)
	for _, name := range []string{"", "TOOLONGNAME", "BAD.NAME", "BAD/NAME"} {
		err := fs.CreateFile(FileSpec{Name: name, Format: fdr.FormatProgram, Data: []byte("x")})
		if !errs.IsNameInvalid(err) {
			t.Errorf("name %q: expected ErrNameInvalid, got %v", name, err)
		}
	}
}

func TestDeleteThenReuseBestTightFit(t *testing.T) {
	fs, _ := newFormattedFS(t, geometry.SSSD40)

	mk := func(name string, n int) FileSpec {
		return FileSpec{Name: name, Format: fdr.FormatProgram, Data: bytes.Repeat([]byte{0x01}, n)}
	}
	if err := fs.CreateFile(mk("A", 256)); err != nil {
		t.Fatal(err)
	}
	if err := fs.CreateFile(mk("B", 256)); err != nil {
		t.Fatal(err)
	}
	if err := fs.CreateFile(mk("C", 256)); err != nil {
		t.Fatal(err)
	}

	before := fs.abm.FreeSectorCount()

	if err := fs.DeleteFile("B", false); err != nil {
		t.Fatal(err)
	}
	if err := fs.CreateFile(mk("D", 256)); err != nil {
		t.Fatal(err)
	}

	after := fs.abm.FreeSectorCount()
	if before != after {
		t.Errorf("FreeSectorCount after delete+reuse = %d, want %d (same as before)", after, before)
	}
}

func TestDeleteMissingFails(t *testing.T) {
	fs, _ := newFormattedFS(t, geometry.SSSD40)
	if err := fs.DeleteFile("NOPE", false); !errs.IsFileNotFound(err) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestRenamePreservesFlags(t *testing.T) {
	fs, _ := newFormattedFS(t, geometry.SSSD40)
	err := fs.CreateFile(FileSpec{
		Name:   "OLD",
		Format: fdr.FormatProgram,
		Data:   []byte("hello"),
		Flags:  fdr.FlagProtected,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.RenameFile("OLD", "NEW"); err != nil {
		t.Fatal(err)
	}
	if _, ok := fs.Lookup("OLD"); ok {
		t.Error("OLD should no longer be found")
	}
	kf, ok := fs.Lookup("NEW")
	if !ok {
		t.Fatal("NEW should be found")
	}
	if !kf.FDR.HasFlag(fdr.FlagProtected) {
		t.Error("rename should preserve PROTECTED flag")
	}
}

func TestRenameToExistingFails(t *testing.T) {
	fs, _ := newFormattedFS(t, geometry.SSSD40)
	mk := func(name string) FileSpec { return FileSpec{Name: name, Format: fdr.FormatProgram, Data: []byte("x")} }
	if err := fs.CreateFile(mk("A")); err != nil {
		t.Fatal(err)
	}
	if err := fs.CreateFile(mk("B")); err != nil {
		t.Fatal(err)
	}
	if err := fs.RenameFile("A", "B"); !errs.IsNameExists(err) {
		t.Fatalf("expected ErrNameExists, got %v", err)
	}
}

func TestFIXRecordPackAndRead(t *testing.T) {
	fs, _ := newFormattedFS(t, geometry.DSSD40)
	records := make([][]byte, 10)
	for i := range records {
		rec := bytes.Repeat([]byte{0xAA}, 80)
		records[i] = rec
	}
	err := fs.CreateFile(FileSpec{
		Name:         "FIXED",
		Format:       fdr.FormatDISFix,
		RecordFormat: RecordFormatFixed,
		RecordLength: 80,
		Records:      records,
	})
	if err != nil {
		t.Fatal(err)
	}
	kf, _ := fs.Lookup("FIXED")
	if kf.FDR.RecordsPerSector != 3 {
		t.Errorf("RecordsPerSector = %d, want 3", kf.FDR.RecordsPerSector)
	}
	if kf.FDR.TotalSectorsAllocated != 4 {
		t.Errorf("TotalSectorsAllocated = %d, want 4", kf.FDR.TotalSectorsAllocated)
	}
	if kf.FDR.Format() != fdr.FormatDISFix {
		t.Errorf("file_status format = %v, want FormatDISFix", kf.FDR.Format())
	}

	got, err := fs.ReadRecords("FIXED")
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(got, records); len(diff) > 0 {
		t.Fatalf("ReadRecords mismatch: %s", strings.Join(diff, "; "))
	}
}

func TestVARRecordSectorBoundary(t *testing.T) {
	fs, _ := newFormattedFS(t, geometry.SSSD40)
	records := [][]byte{
		bytes.Repeat([]byte{1}, 80),
		bytes.Repeat([]byte{2}, 80),
		bytes.Repeat([]byte{3}, 150),
	}
	err := fs.CreateFile(FileSpec{
		Name:         "VAR",
		Format:       fdr.FormatDISVar,
		RecordFormat: RecordFormatVariable,
		RecordLength: 80,
		Records:      records,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := fs.ReadRecords("VAR")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("ReadRecords returned %d records, want 3", len(got))
	}
	for i := range records {
		if !bytes.Equal(got[i], records[i]) {
			t.Fatalf("record %d mismatch: got %v want %v", i, got[i], records[i])
		}
	}
}

func TestZeroByteFile(t *testing.T) {
	fs, _ := newFormattedFS(t, geometry.SSSD40)
	if err := fs.CreateFile(FileSpec{Name: "EMPTY", Format: fdr.FormatProgram, Data: nil}); err != nil {
		t.Fatal(err)
	}
	got, err := fs.ReadFile("EMPTY")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("ReadFile(EMPTY) = %d bytes, want 0", len(got))
	}
}

func TestOutOfSpace(t *testing.T) {
	fs, _ := newFormattedFS(t, geometry.SSSD40)
	big := bytes.Repeat([]byte{0x11}, fs.geo.TotalSectors()*geometry.SectorSize*2)
	err := fs.CreateFile(FileSpec{Name: "TOOBIG", Format: fdr.FormatProgram, Data: big})
	if !errs.IsOutOfSpace(err) {
		t.Fatalf("expected ErrOutOfSpace, got %v", err)
	}
}

// forceFreeRunCount reformats fs's ABM so that exactly n clusters from
// fs.geo.FirstDataSector() onward are free, each isolated from its
// neighbors (every other cluster used), leaving exactly n maximal
// single-cluster free runs for the allocator to see. Used to construct
// the DCP-fragmentation boundary deterministically, rather than
// hoping an ad hoc create/delete sequence happens to land on it.
func forceFreeRunCount(t *testing.T, fs *Filesystem, n int) {
	t.Helper()
	first := fs.geo.FirstDataSector()
	total := fs.geo.TotalClusters()
	if need := first + (n-1)*2 + 1; need > total {
		t.Fatalf("geometry has only %d clusters, needs %d to host %d isolated free runs", total, need, n)
	}
	for c := first; c < total; c++ {
		fs.abm.SetClusterUsed(fs.view.SectorsInCluster(c), true)
	}
	for i := 0; i < n; i++ {
		c := first + i*2
		fs.abm.SetClusterUsed(fs.view.SectorsInCluster(c), false)
	}
}

func TestFragmentationBoundary(t *testing.T) {
	t.Run("76 runs exactly fits", func(t *testing.T) {
		fs, _ := newFormattedFS(t, geometry.SSSD40)
		// One extra isolated free run beyond the 76 the file needs,
		// reserved for the file's own FDR sector.
		forceFreeRunCount(t, fs, fdr.MaxDCPEntries+1)

		data := bytes.Repeat([]byte{0x22}, fdr.MaxDCPEntries*geometry.SectorSize)
		if err := fs.CreateFile(FileSpec{Name: "HUGE76", Format: fdr.FormatProgram, Data: data}); err != nil {
			t.Fatalf("a 76-run allocation should fit exactly; got %v", err)
		}
		kf, ok := fs.Lookup("HUGE76")
		if !ok {
			t.Fatal("HUGE76 should be found after creation")
		}
		if len(kf.FDR.DCPChain) != fdr.MaxDCPEntries {
			t.Errorf("DCPChain has %d entries, want exactly %d", len(kf.FDR.DCPChain), fdr.MaxDCPEntries)
		}
	})

	t.Run("77 runs exceeds the DCP limit", func(t *testing.T) {
		fs, _ := newFormattedFS(t, geometry.SSSD40)
		forceFreeRunCount(t, fs, fdr.MaxDCPEntries+2)

		data := bytes.Repeat([]byte{0x22}, (fdr.MaxDCPEntries+1)*geometry.SectorSize)
		err := fs.CreateFile(FileSpec{Name: "HUGE77", Format: fdr.FormatProgram, Data: data})
		if !errs.IsFragmentationExceeded(err) {
			t.Fatalf("a 77-run allocation should fail with FragmentationExceeded; got %v", err)
		}
		if _, ok := fs.Lookup("HUGE77"); ok {
			t.Error("HUGE77 should not be linked into the FDI after a failed create")
		}
	})
}

func TestCorruptChainDetected(t *testing.T) {
	fs, _ := newFormattedFS(t, geometry.SSSD40)
	if err := fs.CreateFile(FileSpec{Name: "HELLO", Format: fdr.FormatProgram, Data: bytes.Repeat([]byte{1}, 1000)}); err != nil {
		t.Fatal(err)
	}
	kf, _ := fs.Lookup("HELLO")
	kf.FDR.TotalSectorsAllocated = 999 // deliberately inconsistent with the DCP chain's covered sector count
	if _, err := fs.readFDRContent(kf.FDR); !errs.IsCorruptChain(err) {
		t.Fatalf("expected ErrCorruptChain, got %v", err)
	}
}

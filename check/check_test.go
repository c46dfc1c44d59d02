package check

import (
	"bytes"
	"testing"

	"github.com/miriki/ti99-dskimg-lib-sub001/fdr"
	"github.com/miriki/ti99-dskimg-lib-sub001/geometry"
	"github.com/miriki/ti99-dskimg-lib-sub001/image"
	"github.com/miriki/ti99-dskimg-lib-sub001/tifs"
)

func newFormattedFS(t *testing.T) *tifs.Filesystem {
	t.Helper()
	geo, err := geometry.Resolve(geometry.SSSD40)
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, geo.TotalSectors()*geometry.SectorSize)
	view, err := image.New(buf, geo)
	if err != nil {
		t.Fatal(err)
	}
	fs, err := tifs.Format(view, "TESTDISK")
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestCheckFreshFormatIsGood(t *testing.T) {
	fs := newFormattedFS(t)
	result := Check(fs)
	if result.Health != Good {
		t.Errorf("Health = %v, want Good; issues: %+v", result.Health, result.Issues)
	}
	if len(result.Issues) != 0 {
		t.Errorf("expected 0 issues on a fresh format, got %d", len(result.Issues))
	}
}

func TestCheckOneFileIsGood(t *testing.T) {
	fs := newFormattedFS(t)
	if err := fs.CreateFile(tifs.FileSpec{
		Name:   "HELLO",
		Format: fdr.FormatProgram,
		Data:   bytes.Repeat([]byte{1}, 1000),
	}); err != nil {
		t.Fatal(err)
	}
	result := Check(fs)
	if result.Health != Good {
		t.Errorf("Health = %v, want Good; issues: %+v", result.Health, result.Issues)
	}
}

func TestCrossLinkDetected(t *testing.T) {
	fs := newFormattedFS(t)
	if err := fs.CreateFile(tifs.FileSpec{Name: "A", Format: fdr.FormatProgram, Data: bytes.Repeat([]byte{1}, 500)}); err != nil {
		t.Fatal(err)
	}
	if err := fs.CreateFile(tifs.FileSpec{Name: "B", Format: fdr.FormatProgram, Data: bytes.Repeat([]byte{2}, 500)}); err != nil {
		t.Fatal(err)
	}

	kfA, _ := fs.Lookup("A")
	kfB, _ := fs.Lookup("B")
	if len(kfA.FDR.DCPChain) == 0 || len(kfB.FDR.DCPChain) == 0 {
		t.Fatal("both files should have at least one DCP entry")
	}
	// Force a cross-link: point B's first DCP entry at A's first sector.
	kfB.FDR.DCPChain[0].FirstSector = kfA.FDR.DCPChain[0].FirstSector
	sector, err := mustSectorForFDR(fs, kfB.Sector)
	if err != nil {
		t.Fatal(err)
	}
	if err := fdr.Write(kfB.FDR, sector); err != nil {
		t.Fatal(err)
	}
	fresh, err := tifs.Load(mustView(fs))
	if err != nil {
		t.Fatal(err)
	}

	result := Check(fresh)
	if result.Health != Broken {
		t.Errorf("Health = %v, want Broken; issues: %+v", result.Health, result.Issues)
	}
	if len(result.PerKind[IssueCrossLink]) == 0 {
		t.Error("expected at least one CROSS_LINK issue")
	}
}

func TestRepairPlanNothingToDo(t *testing.T) {
	fs := newFormattedFS(t)
	result := Check(fs)
	plan := Plan(fs, result)
	if plan.Status != StatusNothingToDo {
		t.Errorf("Status = %v, want NOTHING_TO_DO", plan.Status)
	}
}

func TestRepairPlanUnsafeOnCrossLink(t *testing.T) {
	fs := newFormattedFS(t)
	if err := fs.CreateFile(tifs.FileSpec{Name: "A", Format: fdr.FormatProgram, Data: bytes.Repeat([]byte{1}, 500)}); err != nil {
		t.Fatal(err)
	}
	if err := fs.CreateFile(tifs.FileSpec{Name: "B", Format: fdr.FormatProgram, Data: bytes.Repeat([]byte{2}, 500)}); err != nil {
		t.Fatal(err)
	}
	kfA, _ := fs.Lookup("A")
	kfB, _ := fs.Lookup("B")
	kfB.FDR.DCPChain[0].FirstSector = kfA.FDR.DCPChain[0].FirstSector
	sector, err := mustSectorForFDR(fs, kfB.Sector)
	if err != nil {
		t.Fatal(err)
	}
	if err := fdr.Write(kfB.FDR, sector); err != nil {
		t.Fatal(err)
	}
	fresh, err := tifs.Load(mustView(fs))
	if err != nil {
		t.Fatal(err)
	}

	result := Check(fresh)
	plan := Plan(fresh, result)
	if plan.Status != StatusUnsafe {
		t.Errorf("Status = %v, want UNSAFE", plan.Status)
	}
	if len(plan.Actions) != 0 {
		t.Errorf("a pure cross-link plan should propose no actions, got %d", len(plan.Actions))
	}
	// Apply runs whatever safe actions the plan queued (none here); it
	// never auto-resolves the cross-link itself.
	if err := Apply(fresh, plan); err != nil {
		t.Errorf("Apply of an UNSAFE plan with no safe actions should be a no-op, got %v", err)
	}
	after := Check(fresh)
	if len(after.PerKind[IssueCrossLink]) == 0 {
		t.Error("cross-link issue should still be present after Apply")
	}
}

func TestRepairPlanPartialOnMixedIssues(t *testing.T) {
	fs := newFormattedFS(t)
	if err := fs.CreateFile(tifs.FileSpec{Name: "A", Format: fdr.FormatProgram, Data: bytes.Repeat([]byte{1}, 500)}); err != nil {
		t.Fatal(err)
	}
	if err := fs.CreateFile(tifs.FileSpec{Name: "B", Format: fdr.FormatProgram, Data: bytes.Repeat([]byte{2}, 500)}); err != nil {
		t.Fatal(err)
	}
	kfA, _ := fs.Lookup("A")
	kfB, _ := fs.Lookup("B")
	kfB.FDR.DCPChain[0].FirstSector = kfA.FDR.DCPChain[0].FirstSector
	sector, err := mustSectorForFDR(fs, kfB.Sector)
	if err != nil {
		t.Fatal(err)
	}
	if err := fdr.Write(kfB.FDR, sector); err != nil {
		t.Fatal(err)
	}

	// Also desync the ABM for a third file, so the plan has an
	// independently safe action alongside the unresolved cross-link.
	if err := fs.CreateFile(tifs.FileSpec{Name: "C", Format: fdr.FormatProgram, Data: bytes.Repeat([]byte{3}, 500)}); err != nil {
		t.Fatal(err)
	}
	kfC, _ := fs.Lookup("C")

	fresh, err := tifs.Load(mustView(fs))
	if err != nil {
		t.Fatal(err)
	}
	fresh.ABM().SetUsed(kfC.FDR.DCPChain[0].FirstSector, false)

	result := Check(fresh)
	plan := Plan(fresh, result)
	if plan.Status != StatusPartial {
		t.Errorf("Status = %v, want PARTIAL", plan.Status)
	}
	if len(plan.Actions) == 0 {
		t.Fatal("a mixed plan should still propose the safe ABM-resync action")
	}

	if err := Apply(fresh, plan); err != nil {
		t.Fatalf("Apply of a PARTIAL plan should run its safe actions: %v", err)
	}
	if !fresh.ABM().IsUsed(kfC.FDR.DCPChain[0].FirstSector) {
		t.Error("Apply should have resynced the ABM for C's sector despite the unresolved cross-link")
	}

	after := Check(fresh)
	if len(after.PerKind[IssueCrossLink]) == 0 {
		t.Error("cross-link issue should remain after a PARTIAL apply")
	}
}

// mustSectorForFDR and mustView exist only to let this test directly
// poke at sector bytes via the package's public Filesystem API
// surface, which intentionally hides the underlying image.View.
func mustSectorForFDR(fs *tifs.Filesystem, sector int) ([]byte, error) {
	return fs.RawSector(sector)
}

func mustView(fs *tifs.Filesystem) *image.View {
	return fs.View()
}

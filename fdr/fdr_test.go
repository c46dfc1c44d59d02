package fdr

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kr/pretty"
)

func TestFDRRoundTrip(t *testing.T) {
	f := FDR{
		FileName:              "HELLO",
		FileStatus:            FlagProtected | byte(FormatProgram),
		RecordsPerSector:      0,
		TotalSectorsAllocated: 4,
		EOFOffset:             232,
		LogicalRecordLength:   0,
		Level3RecordsUsed:     99,
		DCPChain: []DCP{
			{FirstSector: 10, SectorCount: 4},
		},
	}
	copy(f.TimestampCreated[:], []byte{1, 2, 3, 4})
	copy(f.TimestampUpdated[:], []byte{5, 6, 7, 8})

	buf := make([]byte, 256)
	if err := Write(f, buf); err != nil {
		t.Fatal(err)
	}
	got, err := Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.FileName != "HELLO" {
		t.Errorf("FileName = %q, want HELLO", got.FileName)
	}
	if got.Format() != FormatProgram {
		t.Errorf("Format() = %v, want FormatProgram", got.Format())
	}
	if !got.HasFlag(FlagProtected) {
		t.Errorf("expected FlagProtected to survive round-trip")
	}
	if got.TotalSectorsAllocated != 4 {
		t.Errorf("TotalSectorsAllocated = %d, want 4", got.TotalSectorsAllocated)
	}
	if got.Level3RecordsUsed != 99 {
		t.Errorf("Level3RecordsUsed = %d, want 99 (little-endian field)", got.Level3RecordsUsed)
	}
	wantChain := []DCP{{FirstSector: 10, SectorCount: 4}}
	if diff := pretty.Diff(got.DCPChain, wantChain); len(diff) > 0 {
		t.Fatalf("DCPChain differs: %s", strings.Join(diff, "; "))
	}

	buf2 := make([]byte, 256)
	if err := Write(got, buf2); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, buf2) {
		t.Errorf("round trip isn't byte exact")
	}
}

func TestGetDataChainAndConsistency(t *testing.T) {
	f := FDR{
		TotalSectorsAllocated: 7,
		DCPChain: []DCP{
			{FirstSector: 10, SectorCount: 4},
			{FirstSector: 20, SectorCount: 3},
		},
	}
	chain := f.GetDataChain()
	want := []int{10, 11, 12, 13, 20, 21, 22}
	if len(chain) != len(want) {
		t.Fatalf("GetDataChain() = %v, want %v", chain, want)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Fatalf("GetDataChain() = %v, want %v", chain, want)
		}
	}
	if !f.ChainIsConsistent() {
		t.Error("chain should be consistent with TotalSectorsAllocated=7")
	}

	f.TotalSectorsAllocated = 8
	if f.ChainIsConsistent() {
		t.Error("chain should be inconsistent with TotalSectorsAllocated=8")
	}
}

func TestSetFormatPreservesFlags(t *testing.T) {
	f := FDR{FileStatus: FlagProtected | byte(FormatDISFix)}
	f.SetFormat(FormatDISVar)
	if f.Format() != FormatDISVar {
		t.Errorf("Format() = %v, want FormatDISVar", f.Format())
	}
	if !f.HasFlag(FlagProtected) {
		t.Error("SetFormat must preserve upper-nibble flags")
	}
}

func TestTooManyDCPEntries(t *testing.T) {
	f := FDR{}
	for i := 0; i <= MaxDCPEntries; i++ {
		f.DCPChain = append(f.DCPChain, DCP{FirstSector: i, SectorCount: 1})
	}
	if err := Write(f, make([]byte, 256)); err == nil {
		t.Error("Write with too many DCP entries should fail")
	}
}

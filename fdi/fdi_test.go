package fdi

import (
	"testing"
)

func namesFor(m map[uint16]string) func(uint16) (string, error) {
	return func(ptr uint16) (string, error) { return m[ptr], nil }
}

func TestWriteReadRoundTrip(t *testing.T) {
	entries := []Entry{
		{Name: "ZEBRA", FDRSector: 5},
		{Name: "alpha", FDRSector: 3},
		{Name: "Mango", FDRSector: 9},
	}
	sector := make([]byte, 256)
	if err := Write(entries, sector); err != nil {
		t.Fatal(err)
	}

	ptrs, err := ReadPointers(sector)
	if err != nil {
		t.Fatal(err)
	}
	wantPtrs := []uint16{3, 9, 5} // alpha, Mango, ZEBRA
	if len(ptrs) != len(wantPtrs) {
		t.Fatalf("ReadPointers() = %v, want %v", ptrs, wantPtrs)
	}
	for i := range wantPtrs {
		if ptrs[i] != wantPtrs[i] {
			t.Fatalf("ReadPointers() = %v, want %v", ptrs, wantPtrs)
		}
	}

	names := map[uint16]string{3: "alpha", 5: "ZEBRA", 9: "Mango"}
	got, err := Read(sector, namesFor(names))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].Name != "alpha" || got[1].Name != "Mango" || got[2].Name != "ZEBRA" {
		t.Fatalf("Read() = %+v", got)
	}
}

func TestReadStopsAtZeroEntry(t *testing.T) {
	sector := make([]byte, 256)
	sector[0], sector[1] = 0, 7 // one live pointer (7), then all zero
	ptrs, err := ReadPointers(sector)
	if err != nil {
		t.Fatal(err)
	}
	if len(ptrs) != 1 || ptrs[0] != 7 {
		t.Fatalf("ReadPointers() = %v, want [7]", ptrs)
	}
}

func TestSortEntriesCaseInsensitive(t *testing.T) {
	entries := []Entry{{Name: "banana"}, {Name: "Apple"}, {Name: "cherry"}}
	sorted := SortEntries(entries)
	want := []string{"Apple", "banana", "cherry"}
	for i, w := range want {
		if sorted[i].Name != w {
			t.Fatalf("SortEntries() = %+v, want order %v", sorted, want)
		}
	}
	if !IsSorted(sorted) {
		t.Error("IsSorted() should be true for a sorted list")
	}
	if IsSorted(entries) {
		t.Error("IsSorted() should be false for the unsorted input")
	}
}

func TestInsertPreservesOrderAndRejectsDuplicate(t *testing.T) {
	entries := []Entry{{Name: "alpha", FDRSector: 1}, {Name: "gamma", FDRSector: 3}}
	out, err := Insert(entries, Entry{Name: "beta", FDRSector: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 || out[0].Name != "alpha" || out[1].Name != "beta" || out[2].Name != "gamma" {
		t.Fatalf("Insert() = %+v", out)
	}

	if _, err := Insert(out, Entry{Name: "BETA", FDRSector: 9}); err == nil {
		t.Error("Insert of a case-insensitive duplicate name should fail")
	}
}

func TestRemoveCompacts(t *testing.T) {
	entries := []Entry{
		{Name: "alpha", FDRSector: 1},
		{Name: "beta", FDRSector: 2},
		{Name: "gamma", FDRSector: 3},
	}
	out, ok := Remove(entries, "BETA")
	if !ok {
		t.Fatal("Remove should find a case-insensitive match")
	}
	if len(out) != 2 || out[0].Name != "alpha" || out[1].Name != "gamma" {
		t.Fatalf("Remove() = %+v", out)
	}

	if _, ok := Remove(entries, "nonexistent"); ok {
		t.Error("Remove of a missing name should report ok=false")
	}
}

func TestFind(t *testing.T) {
	entries := []Entry{{Name: "alpha", FDRSector: 1}}
	e, ok := Find(entries, "ALPHA")
	if !ok || e.FDRSector != 1 {
		t.Fatalf("Find() = %+v, %v", e, ok)
	}
	if _, ok := Find(entries, "missing"); ok {
		t.Error("Find of a missing name should report ok=false")
	}
}

func TestWriteTooManyEntries(t *testing.T) {
	entries := make([]Entry, MaxEntries+1)
	for i := range entries {
		entries[i] = Entry{Name: string(rune('a' + i%26)), FDRSector: uint16(i + 1)}
	}
	if err := Write(entries, make([]byte, 256)); err == nil {
		t.Error("Write with more than MaxEntries should fail")
	}
}

func TestWrongSectorLength(t *testing.T) {
	if _, err := ReadPointers(make([]byte, 10)); err == nil {
		t.Error("ReadPointers with wrong sector length should fail")
	}
	if err := Write(nil, make([]byte, 10)); err == nil {
		t.Error("Write with wrong sector length should fail")
	}
}

// Copyright © 2026 The ti99-dskimg-lib Authors

package tifs

import (
	"github.com/miriki/ti99-dskimg-lib-sub001/errs"
	"github.com/miriki/ti99-dskimg-lib-sub001/fdr"
)

// ReadFile resolves name, expands its DCP chain, concatenates the
// covered sectors, and trims the result per eof_offset.
func (fs *Filesystem) ReadFile(name string) ([]byte, error) {
	kf, ok := fs.Lookup(name)
	if !ok {
		return nil, errs.FileNotFoundf("tifs: %q not found", name)
	}
	return fs.readFDRContent(kf.FDR)
}

// readFDRContent reassembles a file's raw (still record-packed) bytes
// from its DCP chain, applying the eof_offset trim. It does not
// unpack FIX/VAR records — callers wanting logical records use
// ReadRecords.
func (fs *Filesystem) readFDRContent(f fdr.FDR) ([]byte, error) {
	if !f.ChainIsConsistent() {
		return nil, errs.CorruptChainf(
			"tifs: %q's DCP chain covers %d sectors, but total_sectors_allocated=%d",
			f.FileName, len(f.GetDataChain()), f.TotalSectorsAllocated)
	}

	chain := f.GetDataChain()
	if len(chain) == 0 {
		return []byte{}, nil
	}

	buf := make([]byte, 0, len(chain)*256)
	for _, s := range chain {
		b, err := fs.view.Sector(s)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}

	if f.EOFOffset > 0 && int(f.EOFOffset) <= 256 {
		n := (len(chain)-1)*256 + int(f.EOFOffset)
		if n <= len(buf) {
			buf = buf[:n]
		}
	}
	return buf, nil
}

// ReadRecords reassembles a DIS/INT FIX or VAR file's logical records,
// reversing the C10 packing per the FDR's stored format and record
// length.
func (fs *Filesystem) ReadRecords(name string) ([][]byte, error) {
	kf, ok := fs.Lookup(name)
	if !ok {
		return nil, errs.FileNotFoundf("tifs: %q not found", name)
	}
	raw, err := fs.readFDRContent(kf.FDR)
	if err != nil {
		return nil, err
	}

	switch kf.FDR.Format() {
	case fdr.FormatDISFix, fdr.FormatINTFix:
		return unpackFixed(raw, int(kf.FDR.LogicalRecordLength), int(kf.FDR.RecordsPerSector), int(kf.FDR.Level3RecordsUsed)), nil
	case fdr.FormatDISVar, fdr.FormatINTVar:
		return unpackVariable(raw, kf.FDR.EOFOffset, int(kf.FDR.TotalSectorsAllocated)), nil
	default:
		return nil, errs.NameInvalidf("tifs: %q is not a FIX/VAR record file", name)
	}
}

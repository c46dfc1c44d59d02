// Copyright © 2026 The ti99-dskimg-lib Authors

package tifs

import (
	"sort"

	"github.com/miriki/ti99-dskimg-lib-sub001/errs"
	"github.com/miriki/ti99-dskimg-lib-sub001/fdr"
)

// run is a maximal span of contiguous free clusters.
type run struct {
	start  int
	length int
}

// freeClusterRuns scans the ABM once and returns the maximal
// contiguous free-cluster runs, in ascending start order. A cluster is
// free iff every sector in its span is free.
func (fs *Filesystem) freeClusterRuns() []run {
	total := fs.geo.TotalClusters()
	var runs []run
	inRun := false
	var start int
	for c := 0; c < total; c++ {
		free := fs.abm.ClusterFree(fs.view.SectorsInCluster(c))
		switch {
		case free && !inRun:
			inRun, start = true, c
		case !free && inRun:
			runs = append(runs, run{start: start, length: c - start})
			inRun = false
		}
	}
	if inRun {
		runs = append(runs, run{start: start, length: total - start})
	}
	return runs
}

// allocate reserves needed contiguous-where-possible clusters using a
// best-tight-fit, then best-fit, then fragmenting first-fit strategy,
// marking every chosen sector used in the ABM, and returns the chosen
// cluster indices in ascending order.
func (fs *Filesystem) allocate(needed int) ([]int, error) {
	if needed <= 0 {
		return nil, nil
	}
	runs := fs.freeClusterRuns()

	// Best-tight-fit: exact-length run, smallest start among ties.
	var tight *run
	for i := range runs {
		if runs[i].length == needed && (tight == nil || runs[i].start < tight.start) {
			tight = &runs[i]
		}
	}
	if tight != nil {
		return fs.takeRun(*tight, needed), nil
	}

	// Best-fit: smallest run strictly larger than needed, ties by
	// smallest start.
	var best *run
	for i := range runs {
		if runs[i].length > needed {
			if best == nil || runs[i].length < best.length ||
				(runs[i].length == best.length && runs[i].start < best.start) {
				best = &runs[i]
			}
		}
	}
	if best != nil {
		return fs.takeRun(*best, needed), nil
	}

	// First-fit fragmenting fallback: take clusters one at a time in
	// ascending cluster-index order.
	total := 0
	for _, r := range runs {
		total += r.length
	}
	if total < needed {
		return nil, errs.OutOfSpacef("tifs: need %d clusters, only %d free", needed, total)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].start < runs[j].start })
	var chosen []int
	for _, r := range runs {
		for c := r.start; c < r.start+r.length && len(chosen) < needed; c++ {
			chosen = append(chosen, c)
		}
		if len(chosen) == needed {
			break
		}
	}
	for _, c := range chosen {
		fs.abm.SetClusterUsed(fs.view.SectorsInCluster(c), true)
	}
	sort.Ints(chosen)
	return chosen, nil
}

// takeRun marks the first `needed` clusters of r used and returns
// them as a contiguous ascending slice.
func (fs *Filesystem) takeRun(r run, needed int) []int {
	chosen := make([]int, needed)
	for i := 0; i < needed; i++ {
		c := r.start + i
		chosen[i] = c
		fs.abm.SetClusterUsed(fs.view.SectorsInCluster(c), true)
	}
	return chosen
}

// free clears the ABM bits for every sector in f's data chain, reading
// the chain from its DCP entries rather than recomputing it.
func (fs *Filesystem) free(f fdr.FDR) {
	for _, s := range f.GetDataChain() {
		fs.abm.SetUsed(s, false)
	}
}

// Copyright © 2026 The ti99-dskimg-lib Authors

// Package check implements the four independent filesystem checkers
// and the repair planner, covering cross-links, orphaned clusters,
// ABM/chain inconsistency, and directory anomalies. Each checker is a
// plain function value rather than a method on a deep type hierarchy.
package check

import (
	"fmt"
	"sort"
	"strings"

	"github.com/miriki/ti99-dskimg-lib-sub001/fdi"
	"github.com/miriki/ti99-dskimg-lib-sub001/geometry"
	"github.com/miriki/ti99-dskimg-lib-sub001/tifs"
	"github.com/miriki/ti99-dskimg-lib-sub001/vib"
)

// Health is the severity verdict a single checker (or the aggregate)
// reports.
type Health int

const (
	Good Health = iota
	Warn
	Broken
)

func (h Health) String() string {
	switch h {
	case Good:
		return "GOOD"
	case Warn:
		return "WARN"
	case Broken:
		return "BROKEN"
	default:
		return "UNKNOWN"
	}
}

// worse returns the more severe of two healths.
func worse(a, b Health) Health {
	if b > a {
		return b
	}
	return a
}

// IssueKind names one of the structural anomalies a checker can
// report.
type IssueKind string

const (
	IssueOrphanCluster    IssueKind = "ORPHAN_CLUSTER"
	IssueCrossLink        IssueKind = "CROSS_LINK"
	IssueAbmInconsistency IssueKind = "ABM_INCONSISTENCY"
	IssueInvalidFDIEntry  IssueKind = "INVALID_FDI_ENTRY"
	IssueDuplicateFDI     IssueKind = "DUPLICATE_FDI_ENTRY"
	IssueUnsortedFDI      IssueKind = "UNSORTED_FDI"
	IssueOrphanFDR        IssueKind = "ORPHAN_FDR"
)

// Issue is one finding from a checker.
type Issue struct {
	Kind    IssueKind
	Health  Health
	Sector  int // the sector the issue concerns, -1 if not sector-specific
	Message string
}

// Result is one checker's verdict.
type Result struct {
	Health Health
	Issues []Issue
}

// Checker is the common capability every checker implements: inspect
// a loaded filesystem and report a verdict.
type Checker func(fs *tifs.Filesystem) Result

// chainUnion returns the set of sectors reachable from any known
// FDR's data chain.
func chainUnion(fs *tifs.Filesystem) map[int]bool {
	union := make(map[int]bool)
	for _, kf := range fs.FDRs() {
		for _, s := range kf.FDR.GetDataChain() {
			union[s] = true
		}
	}
	return union
}

// fdrSectors returns the set of sectors that hold an FDI-referenced
// FDR.
func fdrSectors(fs *tifs.Filesystem) map[int]bool {
	set := make(map[int]bool)
	for _, e := range fs.FDIEntries() {
		set[int(e.FDRSector)] = true
	}
	return set
}

// OrphanClusterChecker reports sectors marked used in the ABM that
// belong to no known file's chain and aren't VIB/FDI/an FDR sector.
// Severity WARN.
func OrphanClusterChecker(fs *tifs.Filesystem) Result {
	union := chainUnion(fs)
	known := fdrSectors(fs)
	geo := fs.Geometry()

	var issues []Issue
	for s := 0; s < geo.TotalSectors(); s++ {
		if s == 0 || s == 1 || union[s] || known[s] {
			continue
		}
		if fs.ABM().IsUsed(s) {
			issues = append(issues, Issue{
				Kind:    IssueOrphanCluster,
				Health:  Warn,
				Sector:  s,
				Message: fmt.Sprintf("sector %d is marked used but belongs to no known file, VIB, FDI, or FDR", s),
			})
		}
	}
	return resultFor(issues, Warn)
}

// CrossLinkChecker reports any sector claimed by more than one FDR's
// data chain. Severity BROKEN.
func CrossLinkChecker(fs *tifs.Filesystem) Result {
	owner := make(map[int]string)
	var issues []Issue
	for name, kf := range fs.FDRs() {
		for _, s := range kf.FDR.GetDataChain() {
			if other, seen := owner[s]; seen && other != name {
				issues = append(issues, Issue{
					Kind:    IssueCrossLink,
					Health:  Broken,
					Sector:  s,
					Message: fmt.Sprintf("sector %d is claimed by both %q and %q", s, other, name),
				})
				continue
			}
			owner[s] = name
		}
	}
	return resultFor(issues, Broken)
}

// AbmConsistencyChecker reports any sector referenced by a file's
// chain but marked free in the ABM. Severity ERROR, surfaced as WARN
// overall.
func AbmConsistencyChecker(fs *tifs.Filesystem) Result {
	union := chainUnion(fs)
	var issues []Issue
	for s := range union {
		if !fs.ABM().IsUsed(s) {
			issues = append(issues, Issue{
				Kind:    IssueAbmInconsistency,
				Health:  Warn,
				Sector:  s,
				Message: fmt.Sprintf("sector %d is part of a file's chain but marked free in the ABM", s),
			})
		}
	}
	return resultFor(issues, Warn)
}

// DirectoryConsistencyChecker reports FDI/FDR structural anomalies:
// duplicate FDI entries, an unsorted FDI, FDI entries pointing at a
// blank-name or otherwise invalid FDR, and physically-present FDRs
// with no FDI entry pointing to them.
func DirectoryConsistencyChecker(fs *tifs.Filesystem) Result {
	var issues []Issue
	entries := fs.FDIEntries()

	seen := make(map[string]bool)
	for _, e := range entries {
		key := strings.ToLower(e.Name)
		if seen[key] {
			issues = append(issues, Issue{
				Kind:    IssueDuplicateFDI,
				Health:  Warn,
				Sector:  int(e.FDRSector),
				Message: fmt.Sprintf("duplicate FDI entry for name %q", e.Name),
			})
		}
		seen[key] = true
	}

	if !fdi.IsSorted(entries) {
		issues = append(issues, Issue{
			Kind:    IssueUnsortedFDI,
			Health:  Warn,
			Sector:  -1,
			Message: "FDI is not sorted by case-insensitive filename",
		})
	}

	for _, e := range entries {
		kf, ok := fs.Lookup(e.Name)
		if !ok || strings.TrimSpace(kf.FDR.FileName) == "" {
			issues = append(issues, Issue{
				Kind:    IssueInvalidFDIEntry,
				Health:  Broken,
				Sector:  int(e.FDRSector),
				Message: fmt.Sprintf("FDI entry %q points to sector %d, which has a blank or unreadable FDR", e.Name, e.FDRSector),
			})
		}
	}

	referenced := fdrSectors(fs)
	for name, kf := range fs.FDRs() {
		if !referenced[kf.Sector] {
			issues = append(issues, Issue{
				Kind:    IssueOrphanFDR,
				Health:  Warn,
				Sector:  kf.Sector,
				Message: fmt.Sprintf("FDR for %q at sector %d has no FDI entry pointing to it", name, kf.Sector),
			})
		}
	}

	return resultFor(issues, Warn)
}

// AllCheckers lists the four checkers, in a fixed running order.
var AllCheckers = []Checker{
	OrphanClusterChecker,
	CrossLinkChecker,
	AbmConsistencyChecker,
	DirectoryConsistencyChecker,
}

// CheckResult is the aggregate of running every checker.
type CheckResult struct {
	Health  Health
	Issues  []Issue
	PerKind map[IssueKind][]Issue
}

// Check runs every checker and aggregates: overall health is the
// worst of the four.
func Check(fs *tifs.Filesystem) CheckResult {
	var all []Issue
	health := Good
	for _, c := range AllCheckers {
		r := c(fs)
		all = append(all, r.Issues...)
		health = worse(health, r.Health)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Sector < all[j].Sector })
	perKind := make(map[IssueKind][]Issue)
	for _, i := range all {
		perKind[i.Kind] = append(perKind[i.Kind], i)
	}
	return CheckResult{Health: health, Issues: all, PerKind: perKind}
}

func resultFor(issues []Issue, severityIfAny Health) Result {
	if len(issues) == 0 {
		return Result{Health: Good}
	}
	return Result{Health: severityIfAny, Issues: issues}
}

// RepairStatus describes how a RepairPlan can be applied.
type RepairStatus string

const (
	StatusReady          RepairStatus = "READY"
	StatusNothingToDo    RepairStatus = "NOTHING_TO_DO"
	StatusUnsafe         RepairStatus = "UNSAFE"
	StatusPartial        RepairStatus = "PARTIAL"
)

// Action is one concrete repair step a RepairPlan proposes.
type Action struct {
	Description string
	Safe        bool
	apply       func(fs *tifs.Filesystem) error
}

// RepairPlan is the result of planning repairs for a checked
// filesystem: every issue found, the actions proposed to fix the safe
// ones, and an overall status.
type RepairPlan struct {
	Issues  []Issue
	Actions []Action
	Status  RepairStatus
}

// Plan builds a RepairPlan from a CheckResult. Safe auto-repairs: sync
// ABM bits to match known chains, re-sort the FDI, and drop FDI
// entries pointing at blank-name FDRs. Cross-links are left for the
// caller to resolve explicitly: the status is UNSAFE when they are the
// only thing to fix, and PARTIAL when safe actions are queued alongside
// them.
func Plan(fs *tifs.Filesystem, result CheckResult) RepairPlan {
	if len(result.Issues) == 0 {
		return RepairPlan{Status: StatusNothingToDo}
	}

	var actions []Action
	unsafe := false

	for _, i := range result.PerKind[IssueAbmInconsistency] {
		sector := i.Sector
		actions = append(actions, Action{
			Description: fmt.Sprintf("mark sector %d used in the ABM to match its file's chain", sector),
			Safe:        true,
			apply: func(fs *tifs.Filesystem) error {
				fs.ABM().SetUsed(sector, true)
				vibSector, err := fs.RawSector(geometry.VIBSector)
				if err != nil {
					return err
				}
				return vib.Write(fs.VIB(), vibSector)
			},
		})
	}

	if len(result.PerKind[IssueUnsortedFDI]) > 0 || len(result.PerKind[IssueDuplicateFDI]) > 0 {
		actions = append(actions, Action{
			Description: "re-sort the FDI by case-insensitive filename and drop exact duplicates",
			Safe:        true,
			apply:       resortFDI,
		})
	}

	for _, i := range result.PerKind[IssueInvalidFDIEntry] {
		sector := i.Sector
		actions = append(actions, Action{
			Description: fmt.Sprintf("drop FDI entry pointing at blank-name FDR sector %d", sector),
			Safe:        true,
			apply:       func(fs *tifs.Filesystem) error { return dropFDIEntry(fs, sector) },
		})
	}

	if len(result.PerKind[IssueCrossLink]) > 0 {
		unsafe = true
	}

	status := StatusReady
	switch {
	case unsafe && len(actions) > 0:
		// Cross-links coexist with other, independently safe fixes:
		// the safe actions can still be applied, but the plan as a
		// whole can't be called fully READY.
		status = StatusPartial
	case unsafe:
		status = StatusUnsafe
	case len(actions) == 0:
		status = StatusNothingToDo
	}

	return RepairPlan{Issues: result.Issues, Actions: actions, Status: status}
}

// Apply runs every safe action in plan against fs, write-through.
// Cross-link issues (status UNSAFE or PARTIAL) are never auto-applied
// and are left for the caller to resolve explicitly, but Apply still
// runs whatever safe actions the plan did queue rather than refusing
// outright.
func Apply(fs *tifs.Filesystem, plan RepairPlan) error {
	for _, a := range plan.Actions {
		if !a.Safe {
			continue
		}
		if err := a.apply(fs); err != nil {
			return err
		}
	}
	return nil
}

func resortFDI(fs *tifs.Filesystem) error {
	sorted := fdi.SortEntries(dedupeFDI(fs.FDIEntries()))
	return fs.ReplaceFDI(sorted)
}

func dedupeFDI(entries []fdi.Entry) []fdi.Entry {
	seen := make(map[string]bool)
	var out []fdi.Entry
	for _, e := range entries {
		key := strings.ToLower(e.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

func dropFDIEntry(fs *tifs.Filesystem, fdrSector int) error {
	var kept []fdi.Entry
	for _, e := range fs.FDIEntries() {
		if int(e.FDRSector) != fdrSector {
			kept = append(kept, e)
		}
	}
	return fs.ReplaceFDI(kept)
}

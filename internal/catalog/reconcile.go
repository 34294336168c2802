package catalog

import (
	"log/slog"
	"time"
)

// Plan is the scan required to bring a catalog up to date with its archive
type Plan int

const (
	PlanUpToDate Plan = iota
	PlanResume
	PlanFullScan
)

func (p Plan) String() string {
	switch p {
	case PlanResume:
		return "resume"
	case PlanFullScan:
		return "full"
	}
	return "up-to-date"
}

// Reconcile checks a loaded catalog against the archive's current state. A
// catalog built against a different modification time, or holding no entries,
// is cleared and needs a full scan. A catalog that stops short of the last slot
// is resumed from its coverage.
func Reconcile(x *Index, modTime time.Time, slotCount int) Plan {
	if x.Len() == 0 || !x.ArchiveModTime().Equal(modTime) {
		if x.Len() > 0 {
			slog.Info("Catalog is stale, rescanning archive",
				"catalog_mod_time", x.ArchiveModTime(),
				"archive_mod_time", modTime)
		}
		x.Clear()
		x.SetArchiveModTime(modTime)
		return PlanFullScan
	}

	if x.HighestCovered() < slotCount-1 {
		slog.Info("Catalog is incomplete, resuming scan",
			"highest_covered", x.HighestCovered(),
			"slots", slotCount)
		return PlanResume
	}

	return PlanUpToDate
}

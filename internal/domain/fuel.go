// Package domain holds the pure fleet logic: the fuel-average recalculation
// walk and the usage state machine. Everything here operates on ordered
// slices and returns derived records, so it is unit-testable without a
// datastore; persistence is a thin adapter around these functions.
package domain

import (
	"sort"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/model"
)

// AverageUpdate carries the recomputed average for one fuel supply record.
// Average is nil when no consumption figure applies to the record.
type AverageUpdate struct {
	SupplyID string
	Average  *float64
}

// RecalculateAverages recomputes the km-per-liter average for every full-tank
// record in a vehicle's fill-up history. The whole history is walked on every
// call: edits and deletes can land anywhere in the past and shift which
// records are full-tank boundaries, so an incremental update cannot be
// trusted. Histories are bounded by a vehicle's lifetime of fill-ups, which
// keeps the full walk cheap.
//
// The walk orders records by (supplied_at, created_at) — creation order
// breaks timestamp ties deterministically. Between two full-tank records the
// liters of every record are accumulated, including the closing full-tank
// record itself: the fuel bought to reach this full tank counts toward this
// interval. An average is only recorded when both the distance and the
// accumulated liters are positive; corrected or backfilled odometer entries
// otherwise produce zero or negative artifacts.
//
// An update is returned for every record, nil average included, so no stale
// value survives the recompute.
func RecalculateAverages(supplies []model.FuelSupply) []AverageUpdate {
	ordered := sortSupplies(supplies)

	updates := make([]AverageUpdate, 0, len(ordered))
	var lastFull *model.FuelSupply
	var liters float64

	for i := range ordered {
		cur := &ordered[i]
		update := AverageUpdate{SupplyID: cur.UUID}

		if lastFull != nil {
			liters += cur.Liters
		}

		if cur.FullTank {
			if lastFull != nil {
				km := cur.Km - lastFull.Km
				if km > 0 && liters > 0 {
					avg := km / liters
					update.Average = &avg
				}
			}
			lastFull = cur
			liters = 0
		}

		updates = append(updates, update)
	}

	return updates
}

// LatestSupply returns the chronologically last fill-up of a history, or nil
// when the history is empty. The vehicle's displayed odometer is synced to
// this record after every fuel mutation, which keeps it consistent even when
// an out-of-order historical record was edited or removed.
func LatestSupply(supplies []model.FuelSupply) *model.FuelSupply {
	if len(supplies) == 0 {
		return nil
	}
	ordered := sortSupplies(supplies)
	return &ordered[len(ordered)-1]
}

func sortSupplies(supplies []model.FuelSupply) []model.FuelSupply {
	ordered := make([]model.FuelSupply, len(supplies))
	copy(ordered, supplies)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].SuppliedAt.Equal(ordered[j].SuppliedAt) {
			return ordered[i].SuppliedAt.Before(ordered[j].SuppliedAt)
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	return ordered
}

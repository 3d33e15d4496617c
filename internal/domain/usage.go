package domain

import (
	"sort"
	"time"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/model"
)

// Trip is a matched ENTRY/EXIT pair for a vehicle.
type Trip struct {
	VehicleID string    `json:"vehicle_id"`
	UserID    string    `json:"user_id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	StartKm   float64   `json:"start_km"`
	EndKm     float64   `json:"end_km"`
	KmDriven  float64   `json:"km_driven"`
}

// IsOpenEntry reports whether the latest event of a vehicle or user is an
// unmatched ENTRY, i.e. the entity is currently occupied.
func IsOpenEntry(latest *model.UsageEvent) bool {
	return latest != nil && latest.Type == model.UsageEntry
}

// CanEnter validates the FREE -> IN_USE transition. Both sides of the
// occupancy must be free: the vehicle's latest event and the acting user's
// latest event (across any vehicle) may not be open ENTRYs.
func CanEnter(vehicleLatest, userLatest *model.UsageEvent) error {
	if IsOpenEntry(vehicleLatest) {
		return OccupancyConflict("vehicle", "vehicle already in use")
	}
	if IsOpenEntry(userLatest) {
		return OccupancyConflict("user", "user already using a vehicle")
	}
	return nil
}

// CanExit validates the IN_USE -> FREE transition. The vehicle and the acting
// user must both have an open ENTRY, and the EXIT must be strictly after the
// ENTRY it closes.
func CanExit(vehicleLatest, userLatest *model.UsageEvent, at time.Time) error {
	if !IsOpenEntry(vehicleLatest) {
		return OccupancyConflict("vehicle", "vehicle has no open entry")
	}
	if !IsOpenEntry(userLatest) {
		return OccupancyConflict("user", "user has no open entry")
	}
	if !at.After(vehicleLatest.OccurredAt) {
		return InvalidEventOrdering("exit must be after the matching entry")
	}
	return nil
}

// ReplayTrips walks a vehicle's full event log once, pairing each ENTRY with
// the next EXIT that follows it. An ENTRY arriving while another is still
// open supersedes it; the superseded events are returned separately so the
// caller can surface the data anomaly. Trips come back most-recent-first.
func ReplayTrips(events []model.UsageEvent) ([]Trip, []model.UsageEvent) {
	ordered := sortEvents(events)

	var trips []Trip
	var superseded []model.UsageEvent
	var open *model.UsageEvent

	for i := range ordered {
		cur := &ordered[i]
		switch cur.Type {
		case model.UsageEntry:
			if open != nil {
				superseded = append(superseded, *open)
			}
			open = cur
		case model.UsageExit:
			if open == nil {
				continue
			}
			trips = append(trips, pairTrip(open, cur))
			open = nil
		}
	}

	// Most recent first.
	for i, j := 0, len(trips)-1; i < j; i, j = i+1, j-1 {
		trips[i], trips[j] = trips[j], trips[i]
	}

	return trips, superseded
}

// LastTrip finds the most recent EXIT of a vehicle and the nearest ENTRY
// strictly before it. Returns nil when no EXIT exists or no ENTRY precedes it.
func LastTrip(events []model.UsageEvent) *Trip {
	ordered := sortEvents(events)

	var exit *model.UsageEvent
	for i := len(ordered) - 1; i >= 0; i-- {
		if ordered[i].Type == model.UsageExit {
			exit = &ordered[i]
			break
		}
	}
	if exit == nil {
		return nil
	}

	for i := len(ordered) - 1; i >= 0; i-- {
		cur := &ordered[i]
		if cur.Type == model.UsageEntry && cur.OccurredAt.Before(exit.OccurredAt) {
			trip := pairTrip(cur, exit)
			return &trip
		}
	}
	return nil
}

func pairTrip(entry, exit *model.UsageEvent) Trip {
	return Trip{
		VehicleID: entry.VehicleID,
		UserID:    entry.UserID,
		StartedAt: entry.OccurredAt,
		EndedAt:   exit.OccurredAt,
		StartKm:   entry.Km,
		EndKm:     exit.Km,
		KmDriven:  exit.Km - entry.Km,
	}
}

func sortEvents(events []model.UsageEvent) []model.UsageEvent {
	ordered := make([]model.UsageEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].OccurredAt.Equal(ordered[j].OccurredAt) {
			return ordered[i].OccurredAt.Before(ordered[j].OccurredAt)
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	return ordered
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/model"
)

func usage(id string, typ model.UsageEventType, at time.Time, km float64) model.UsageEvent {
	return model.UsageEvent{
		Base:       model.Base{UUID: id, CreatedAt: at},
		VehicleID:  "vehicle-a",
		UserID:     "user-u",
		Type:       typ,
		OccurredAt: at,
		Km:         km,
	}
}

func TestCanEnter(t *testing.T) {
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	openEntry := usage("e1", model.UsageEntry, at, 100)
	closedExit := usage("x1", model.UsageExit, at, 150)

	require.NoError(t, CanEnter(nil, nil))
	require.NoError(t, CanEnter(&closedExit, &closedExit))

	err := CanEnter(&openEntry, nil)
	require.Equal(t, KindOccupancyConflict, KindOf(err))

	err = CanEnter(nil, &openEntry)
	require.Equal(t, KindOccupancyConflict, KindOf(err))
}

func TestCanExit(t *testing.T) {
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	openEntry := usage("e1", model.UsageEntry, at, 100)
	closedExit := usage("x1", model.UsageExit, at, 150)

	require.NoError(t, CanExit(&openEntry, &openEntry, at.Add(time.Hour)))

	err := CanExit(nil, &openEntry, at.Add(time.Hour))
	require.Equal(t, KindOccupancyConflict, KindOf(err))

	err = CanExit(&closedExit, &openEntry, at.Add(time.Hour))
	require.Equal(t, KindOccupancyConflict, KindOf(err))

	err = CanExit(&openEntry, &closedExit, at.Add(time.Hour))
	require.Equal(t, KindOccupancyConflict, KindOf(err))

	// Exit timestamp must be strictly after the entry.
	err = CanExit(&openEntry, &openEntry, at)
	require.Equal(t, KindInvalidEventOrdering, KindOf(err))

	err = CanExit(&openEntry, &openEntry, at.Add(-time.Minute))
	require.Equal(t, KindInvalidEventOrdering, KindOf(err))
}

func TestLastTrip(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(2 * time.Hour)

	require.Nil(t, LastTrip(nil))

	entryOnly := []model.UsageEvent{usage("e1", model.UsageEntry, t1, 100)}
	require.Nil(t, LastTrip(entryOnly))

	exitOnly := []model.UsageEvent{usage("x1", model.UsageExit, t2, 150)}
	require.Nil(t, LastTrip(exitOnly))

	events := []model.UsageEvent{
		usage("e1", model.UsageEntry, t1, 100),
		usage("x1", model.UsageExit, t2, 150),
	}
	trip := LastTrip(events)
	require.NotNil(t, trip)
	require.Equal(t, t1, trip.StartedAt)
	require.Equal(t, t2, trip.EndedAt)
	require.Equal(t, 50.0, trip.KmDriven)
}

func TestReplayTripsPairsEntriesWithNextExit(t *testing.T) {
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	events := []model.UsageEvent{
		usage("e1", model.UsageEntry, base, 100),
		usage("x1", model.UsageExit, base.Add(time.Hour), 150),
		usage("e2", model.UsageEntry, base.Add(2*time.Hour), 150),
		usage("x2", model.UsageExit, base.Add(3*time.Hour), 230),
	}

	trips, superseded := ReplayTrips(events)
	require.Len(t, trips, 2)
	require.Empty(t, superseded)

	// Most recent first.
	require.Equal(t, 80.0, trips[0].KmDriven)
	require.Equal(t, 50.0, trips[1].KmDriven)
}

func TestReplayTripsSupersedesDanglingEntries(t *testing.T) {
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	events := []model.UsageEvent{
		usage("e1", model.UsageEntry, base, 100),
		usage("e2", model.UsageEntry, base.Add(time.Hour), 120),
		usage("x1", model.UsageExit, base.Add(2*time.Hour), 150),
	}

	trips, superseded := ReplayTrips(events)
	require.Len(t, trips, 1)
	require.Equal(t, 120.0, trips[0].StartKm)

	require.Len(t, superseded, 1)
	require.Equal(t, "e1", superseded[0].UUID)
}

func TestReplayTripsIgnoresExitWithoutEntry(t *testing.T) {
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	events := []model.UsageEvent{
		usage("x0", model.UsageExit, base, 90),
		usage("e1", model.UsageEntry, base.Add(time.Hour), 100),
		usage("x1", model.UsageExit, base.Add(2*time.Hour), 150),
	}

	trips, superseded := ReplayTrips(events)
	require.Len(t, trips, 1)
	require.Empty(t, superseded)
	require.Equal(t, 100.0, trips[0].StartKm)
}

func TestIsOpenEntry(t *testing.T) {
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	entry := usage("e1", model.UsageEntry, at, 100)
	exit := usage("x1", model.UsageExit, at, 150)

	require.False(t, IsOpenEntry(nil))
	require.True(t, IsOpenEntry(&entry))
	require.False(t, IsOpenEntry(&exit))
}

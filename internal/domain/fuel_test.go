package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/model"
)

func supply(id string, at time.Time, km, liters float64, full bool) model.FuelSupply {
	return model.FuelSupply{
		Base:     model.Base{UUID: id, CreatedAt: at},
		SuppliedAt: at,
		Km:       km,
		Liters:   liters,
		FullTank: full,
	}
}

func TestRecalculateAveragesFullTankPairing(t *testing.T) {
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	history := []model.FuelSupply{
		supply("a", base, 1000, 40, true),
		supply("b", base.Add(24*time.Hour), 1200, 30, false),
		supply("c", base.Add(48*time.Hour), 1400, 20, true),
	}

	updates := RecalculateAverages(history)
	require.Len(t, updates, 3)

	require.Equal(t, "a", updates[0].SupplyID)
	require.Nil(t, updates[0].Average)
	require.Nil(t, updates[1].Average)

	// (1400-1000) / (30+20) — the closing full tank's own liters count.
	require.NotNil(t, updates[2].Average)
	require.InDelta(t, 8.0, *updates[2].Average, 1e-9)
}

func TestRecalculateAveragesIdempotent(t *testing.T) {
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	history := []model.FuelSupply{
		supply("a", base, 500, 35, true),
		supply("b", base.Add(time.Hour), 700, 25, true),
		supply("c", base.Add(2*time.Hour), 750, 10, false),
		supply("d", base.Add(3*time.Hour), 900, 15, true),
	}

	first := RecalculateAverages(history)
	second := RecalculateAverages(history)
	require.Equal(t, first, second)
}

func TestRecalculateAveragesGuardsDegenerateIntervals(t *testing.T) {
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("zero distance", func(t *testing.T) {
		history := []model.FuelSupply{
			supply("a", base, 1000, 40, true),
			supply("b", base.Add(time.Hour), 1000, 20, true),
		}
		updates := RecalculateAverages(history)
		require.Nil(t, updates[1].Average)
	})

	t.Run("negative distance from corrected entry", func(t *testing.T) {
		history := []model.FuelSupply{
			supply("a", base, 1000, 40, true),
			supply("b", base.Add(time.Hour), 900, 20, true),
		}
		updates := RecalculateAverages(history)
		require.Nil(t, updates[1].Average)
	})

	t.Run("zero liters", func(t *testing.T) {
		history := []model.FuelSupply{
			supply("a", base, 1000, 40, true),
			supply("b", base.Add(time.Hour), 1100, 0, true),
		}
		updates := RecalculateAverages(history)
		require.Nil(t, updates[1].Average)
	})
}

func TestRecalculateAveragesRelinksAfterMiddleDeletion(t *testing.T) {
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	full := []model.FuelSupply{
		supply("a", base, 1000, 40, true),
		supply("b", base.Add(time.Hour), 1200, 25, true),
		supply("c", base.Add(2*time.Hour), 1500, 30, true),
	}

	before := RecalculateAverages(full)
	require.InDelta(t, 200.0/25.0, *before[1].Average, 1e-9)
	require.InDelta(t, 300.0/30.0, *before[2].Average, 1e-9)

	// Deleting the middle boundary re-links the remaining two: the new
	// interval spans the gap and carries only the closing record's liters.
	remaining := []model.FuelSupply{full[0], full[2]}
	after := RecalculateAverages(remaining)
	require.Len(t, after, 2)
	require.Nil(t, after[0].Average)
	require.InDelta(t, 500.0/30.0, *after[1].Average, 1e-9)
}

func TestRecalculateAveragesTimestampTieBreak(t *testing.T) {
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	first := supply("a", at, 1000, 40, true)
	second := supply("b", at, 1100, 10, true)
	second.CreatedAt = at.Add(time.Minute)

	// Regardless of input order, creation order decides the walk.
	updates := RecalculateAverages([]model.FuelSupply{second, first})
	require.Equal(t, "a", updates[0].SupplyID)
	require.Nil(t, updates[0].Average)
	require.Equal(t, "b", updates[1].SupplyID)
	require.InDelta(t, 10.0, *updates[1].Average, 1e-9)
}

func TestLatestSupply(t *testing.T) {
	require.Nil(t, LatestSupply(nil))

	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	history := []model.FuelSupply{
		supply("b", base.Add(time.Hour), 1200, 25, false),
		supply("a", base, 1000, 40, true),
	}
	latest := LatestSupply(history)
	require.NotNil(t, latest)
	require.Equal(t, "b", latest.UUID)
	require.Equal(t, 1200.0, latest.Km)
}

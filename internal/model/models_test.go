package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePlate(t *testing.T) {
	require.Equal(t, "ABC1234", NormalizePlate("abc-1234"))
	require.Equal(t, "ABC1D23", NormalizePlate("abc 1d23"))
	require.Equal(t, "ABC1234", NormalizePlate("ABC1234"))
	require.Equal(t, "", NormalizePlate("--- ..."))
}

func TestEnumFromString(t *testing.T) {
	require.Equal(t, FuelTypeDiesel, FuelTypeFromString("diesel"))
	require.Equal(t, FuelType(""), FuelTypeFromString("kerosene"))

	require.Equal(t, StationInternal, StationKindFromString("internal"))
	require.Equal(t, StationKind(""), StationKindFromString("orbital"))

	require.Equal(t, UsageEntry, UsageEventTypeFromString("entry"))
	require.Equal(t, UsageExit, UsageEventTypeFromString("Exit"))
	require.Equal(t, UsageEventType(""), UsageEventTypeFromString("pause"))
}

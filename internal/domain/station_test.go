package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2025, time.December, 18, 0, 0, 0, 0, time.UTC)

func pollutantsOf(t *testing.T, subIndices map[string]int) map[string]Pollutant {
	t.Helper()
	out := make(map[string]Pollutant, len(subIndices))
	for code, idx := range subIndices {
		ref, ok := DefaultReferenceTable().Lookup(code)
		require.True(t, ok, "unknown code %s", code)
		out[code] = NewPollutant(ref, idx)
	}
	return out
}

func TestAggregate(t *testing.T) {
	reading, err := Aggregate("3", testDate, 16, pollutantsOf(t, map[string]int{
		"O3": 25, "NO2": 30, "PM2.5": 57,
	}))
	require.NoError(t, err)

	assert.Equal(t, "3", reading.StationID)
	assert.Equal(t, 16, reading.Hour)
	assert.Equal(t, 57, reading.OverallAQI())
	assert.Equal(t, "PM2.5", reading.Dominant().Code)
	assert.Equal(t, reading.OverallAQI(), reading.Dominant().SubIndex)
	assert.Len(t, reading.Pollutants(), 3)
}

func TestAggregate_Empty(t *testing.T) {
	_, err := Aggregate("3", testDate, 16, nil)
	require.ErrorIs(t, err, ErrNoPollutants)

	_, err = Aggregate("3", testDate, 16, map[string]Pollutant{})
	require.ErrorIs(t, err, ErrNoPollutants)
}

func TestAggregate_TieGoesToLowestCode(t *testing.T) {
	input := pollutantsOf(t, map[string]int{"O3": 50, "NO2": 50, "SO2": 50, "CO": 10})

	for range 50 {
		reading, err := Aggregate("3", testDate, 16, input)
		require.NoError(t, err)
		assert.Equal(t, "NO2", reading.Dominant().Code)
		assert.Equal(t, 50, reading.OverallAQI())
	}
}

func TestAggregate_SinglePollutant(t *testing.T) {
	reading, err := Aggregate("7", testDate, 0, pollutantsOf(t, map[string]int{"CO": 4}))
	require.NoError(t, err)
	assert.Equal(t, 4, reading.OverallAQI())
	assert.Equal(t, "CO", reading.Dominant().Code)
}

func TestAggregate_OwnsPollutants(t *testing.T) {
	input := pollutantsOf(t, map[string]int{"O3": 25})
	reading, err := Aggregate("3", testDate, 16, input)
	require.NoError(t, err)

	input["NO2"] = NewPollutant(ReferenceEntry{Code: "NO2", DisplayName: "NO2", Reference: 400}, 99)
	assert.Equal(t, 25, reading.OverallAQI(), "caller map changes must not leak into the reading")

	view := reading.Pollutants()
	delete(view, "O3")
	assert.Len(t, reading.Pollutants(), 1)
}

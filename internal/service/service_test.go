package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/montreal-aqi/internal/adapter/opendata"
	"github.com/couchcryptid/montreal-aqi/internal/domain"
	"github.com/couchcryptid/montreal-aqi/internal/service"
)

// --- mocks ---

type stubFetcher struct {
	byResource map[string][]domain.Record
	err        error
}

func (s *stubFetcher) FetchRecords(_ context.Context, resourceID string) ([]domain.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byResource[resourceID], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(f domain.RecordFetcher) *service.Service {
	return service.New(f, service.Resources{Readings: "readings", Stations: "stations"}, domain.DefaultReferenceTable(), discardLogger())
}

// --- tests ---

func TestStationAQI(t *testing.T) {
	f := &stubFetcher{byResource: map[string][]domain.Record{
		"readings": {
			{"stationId": "3", "polluant": "O3", "valeur": "40", "date": "2025-12-18", "heure": "15"},
			{"stationId": "3", "polluant": "O3", "valeur": "25", "date": "2025-12-18", "heure": "16"},
			{"stationId": "3", "polluant": "NO2", "valeur": "30", "date": "2025-12-18", "heure": "16"},
			{"stationId": "3", "polluant": "PM", "valeur": "57", "date": "2025-12-18", "heure": "16"},
			{"stationId": "6", "polluant": "PM", "valeur": "99", "date": "2025-12-18", "heure": "16"},
		},
	}}

	reading, err := newService(f).StationAQI(context.Background(), "3")
	require.NoError(t, err)

	assert.Equal(t, "3", reading.StationID)
	assert.Equal(t, time.Date(2025, time.December, 18, 0, 0, 0, 0, time.UTC), reading.Date)
	assert.Equal(t, 16, reading.Hour)
	assert.Equal(t, 57, reading.OverallAQI())
	assert.Equal(t, "PM2.5", reading.Dominant().Code)
	assert.Equal(t, 25, reading.Pollutants()["O3"].SubIndex)
}

func TestStationAQI_NoData(t *testing.T) {
	tests := map[string][]domain.Record{
		"unknown station": {
			{"stationId": "6", "polluant": "O3", "valeur": "20", "date": "2025-12-18", "heure": "14"},
		},
		"no usable pollutant": {
			{"stationId": "3", "polluant": "ZZZ", "valeur": "20", "date": "2025-12-18", "heure": "14"},
		},
		"bad hour": {
			{"stationId": "3", "polluant": "O3", "valeur": "20", "date": "2025-12-18", "heure": "n/a"},
		},
		"fractional hour": {
			{"stationId": "3", "polluant": "O3", "valeur": "20", "date": "2025-12-18", "heure": "12.5"},
		},
		"negative hour": {
			{"stationId": "3", "polluant": "O3", "valeur": "20", "date": "2025-12-18", "heure": "-1"},
		},
		"bad date": {
			{"stationId": "3", "polluant": "O3", "valeur": "20", "date": "18 Dec", "heure": "14"},
		},
	}

	for name, records := range tests {
		t.Run(name, func(t *testing.T) {
			f := &stubFetcher{byResource: map[string][]domain.Record{"readings": records}}
			_, err := newService(f).StationAQI(context.Background(), "3")
			require.ErrorIs(t, err, service.ErrNoData)
			assert.EqualError(t, err, "station 3: no data available")
		})
	}
}

func TestStationAQI_FetchError(t *testing.T) {
	f := &stubFetcher{err: opendata.ErrUnreachable}
	_, err := newService(f).StationAQI(context.Background(), "3")

	require.ErrorIs(t, err, opendata.ErrUnreachable)
	assert.False(t, errors.Is(err, service.ErrNoData))
}

func TestOpenStations(t *testing.T) {
	f := &stubFetcher{byResource: map[string][]domain.Record{
		"stations": {
			{"numero_station": "1", "nom": "Station A", "arrondissement_ville": "A", "statut": "ouvert"},
			{"numero_station": "2", "nom": "Station B", "arrondissement_ville": "B", "statut": "fermé"},
		},
	}}

	stations, err := newService(f).OpenStations(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, "1", stations[0].StationID)
	assert.Equal(t, "Station A", stations[0].Name)
}

func TestOpenStations_FetchError(t *testing.T) {
	f := &stubFetcher{err: opendata.ErrInvalidResponse}
	_, err := newService(f).OpenStations(context.Background())
	require.ErrorIs(t, err, opendata.ErrInvalidResponse)
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("station 3: %w", service.ErrNoData), service.CodeNoData},
		{fmt.Errorf("fetch readings: %w", opendata.ErrUnreachable), service.CodeAPIUnreachable},
		{fmt.Errorf("fetch readings: %w", opendata.ErrInvalidResponse), service.CodeAPIInvalidResponse},
		{errors.New("boom"), service.CodeAPIError},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, service.ErrorCode(tt.err))
		})
	}
}

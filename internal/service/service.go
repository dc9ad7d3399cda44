// Package service assembles station readings from open-data records.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/montreal-aqi/internal/domain"
)

// ErrNoData is returned when a station has no usable readings.
var ErrNoData = errors.New("no data available")

// Resources names the open-data resources the service reads.
type Resources struct {
	Readings string
	Stations string
}

// Service answers station AQI and station list queries.
type Service struct {
	fetcher   domain.RecordFetcher
	resources Resources
	table     domain.ReferenceTable
	logger    *slog.Logger
}

// New creates a Service.
func New(fetcher domain.RecordFetcher, resources Resources, table domain.ReferenceTable, logger *slog.Logger) *Service {
	return &Service{
		fetcher:   fetcher,
		resources: resources,
		table:     table,
		logger:    logger,
	}
}

// StationAQI returns the latest reading of a station. It returns an error
// wrapping ErrNoData when the station has no records at its latest hour, none
// of them is usable, or their timestamp cannot be read.
func (s *Service) StationAQI(ctx context.Context, stationID string) (domain.StationReading, error) {
	records, err := s.fetcher.FetchRecords(ctx, s.resources.Readings)
	if err != nil {
		return domain.StationReading{}, fmt.Errorf("fetch readings: %w", err)
	}

	latest := domain.LatestStationRecords(records, stationID)
	if len(latest) == 0 {
		s.logger.Warn("no records found for station", "station_id", stationID)
		return domain.StationReading{}, fmt.Errorf("station %s: %w", stationID, ErrNoData)
	}
	s.logger.Debug("selected latest station records", "station_id", stationID, "records", len(latest))

	pollutants := domain.ParsePollutants(latest, s.table, s.logger)
	if len(pollutants) == 0 {
		s.logger.Warn("no usable pollutant records", "station_id", stationID)
		return domain.StationReading{}, fmt.Errorf("station %s: %w", stationID, ErrNoData)
	}

	date, hour, err := domain.ObservationTime(latest)
	if err != nil {
		s.logger.Warn("unreadable observation time", "station_id", stationID, "error", err)
		return domain.StationReading{}, fmt.Errorf("station %s: %w", stationID, ErrNoData)
	}

	reading, err := domain.Aggregate(stationID, date, hour, pollutants)
	if err != nil {
		return domain.StationReading{}, fmt.Errorf("station %s: %w: %w", stationID, ErrNoData, err)
	}

	s.logger.Info("station reading",
		"station_id", stationID,
		"aqi", reading.OverallAQI(),
		"dominant", reading.Dominant().Code,
	)
	return reading, nil
}

// OpenStations lists the monitoring stations currently open.
func (s *Service) OpenStations(ctx context.Context) ([]domain.Station, error) {
	records, err := s.fetcher.FetchRecords(ctx, s.resources.Stations)
	if err != nil {
		return nil, fmt.Errorf("fetch stations: %w", err)
	}
	stations := domain.ParseOpenStations(records)
	s.logger.Info("found open stations", "count", len(stations))
	return stations, nil
}

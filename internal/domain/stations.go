package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Station-list resource fields.
const (
	fieldStationNumber  = "numero_station"
	fieldStationName    = "nom"
	fieldStationAddress = "adresse"
	fieldStationBorough = "arrondissement_ville"
	fieldStationStatus  = "statut"

	stationStatusOpen = "ouvert"
)

// Station is an open air-quality monitoring station.
type Station struct {
	StationID string `json:"station_id" validate:"required"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Borough   string `json:"borough"`
}

// ParseOpenStations keeps the records of stations whose status is open.
func ParseOpenStations(records []Record) []Station {
	stations := make([]Station, 0, len(records))
	for _, rec := range records {
		if status, _ := rec.String(fieldStationStatus); status != stationStatusOpen {
			continue
		}
		id := textValue(rec[fieldStationNumber])
		if id == "" {
			continue
		}
		stations = append(stations, Station{
			StationID: id,
			Name:      textValue(rec[fieldStationName]),
			Address:   textValue(rec[fieldStationAddress]),
			Borough:   textValue(rec[fieldStationBorough]),
		})
	}
	return stations
}

// LatestStationRecords returns the records of one station at its most recent
// hour. It returns nil when the station has no records or when any of its
// records has an unreadable hour.
func LatestStationRecords(records []Record, stationID string) []Record {
	var station []Record
	for _, rec := range records {
		if id, ok := rec.String(fieldStationID); ok && id == stationID {
			station = append(station, rec)
		}
	}
	if len(station) == 0 {
		return nil
	}

	hours := make([]int, len(station))
	latest := 0
	for i, rec := range station {
		h, ok := rec.Hour(fieldHour)
		if !ok {
			return nil
		}
		hours[i] = h
		if i == 0 || h > latest {
			latest = h
		}
	}

	var out []Record
	for i, rec := range station {
		if hours[i] == latest {
			out = append(out, rec)
		}
	}
	return out
}

// ObservationTime reads the observation date and hour of a batch from its
// first record.
func ObservationTime(records []Record) (time.Time, int, error) {
	if len(records) == 0 {
		return time.Time{}, 0, errors.New("no records")
	}
	first := records[0]

	raw, ok := first.String(fieldDate)
	if !ok {
		return time.Time{}, 0, fmt.Errorf("record field %q is missing", fieldDate)
	}
	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("record field %q: %w", fieldDate, err)
	}

	hour, ok := first.Hour(fieldHour)
	if !ok {
		return time.Time{}, 0, fmt.Errorf("record field %q is not a whole hour", fieldHour)
	}
	return date, hour, nil
}

// textValue renders string and numeric values; anything else is empty.
func textValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

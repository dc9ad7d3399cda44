package domain

import (
	"errors"
	"maps"
	"slices"
	"time"
)

// ErrNoPollutants is returned when a station reading is requested for an
// empty pollutant set.
var ErrNoPollutants = errors.New("no pollutants to aggregate")

// StationReading is the air quality of one station at one observation hour.
type StationReading struct {
	StationID string
	Date      time.Time
	Hour      int

	pollutants map[string]Pollutant
}

// Aggregate builds a station reading from parsed pollutants. The reading keeps
// its own copy of the map.
func Aggregate(stationID string, date time.Time, hour int, pollutants map[string]Pollutant) (StationReading, error) {
	if len(pollutants) == 0 {
		return StationReading{}, ErrNoPollutants
	}
	return StationReading{
		StationID:  stationID,
		Date:       date,
		Hour:       hour,
		pollutants: maps.Clone(pollutants),
	}, nil
}

// Pollutants returns a copy of the reading's pollutants.
func (r StationReading) Pollutants() map[string]Pollutant {
	return maps.Clone(r.pollutants)
}

// OverallAQI is the highest sub-index across the reading's pollutants.
func (r StationReading) OverallAQI() int {
	return r.Dominant().SubIndex
}

// Dominant returns the pollutant with the highest sub-index. Ties go to the
// lowest canonical code.
func (r StationReading) Dominant() Pollutant {
	var best Pollutant
	for i, code := range slices.Sorted(maps.Keys(r.pollutants)) {
		p := r.pollutants[code]
		if i == 0 || p.SubIndex > best.SubIndex {
			best = p
		}
	}
	return best
}

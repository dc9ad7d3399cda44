package domain

import "log/slog"

// Field names used by the open-data resources. Each value has a current name
// and a fallback that older datasets still publish.
const (
	fieldCode         = "polluant"
	fieldCodeFallback = "pollutant"

	fieldIndex         = "indice"
	fieldIndexFallback = "valeur"

	fieldStationID = "stationId"
	fieldDate      = "date"
	fieldHour      = "heure"
)

// ParsePollutants converts raw station records into pollutants keyed by
// canonical code. Records with a missing or mistyped code or sub-index, or
// with a code absent from the reference table, are dropped. When a code
// appears more than once the last record wins. The result is empty when no
// record is usable.
func ParsePollutants(records []Record, table ReferenceTable, logger *slog.Logger) map[string]Pollutant {
	pollutants := make(map[string]Pollutant)

	for i, rec := range records {
		rawCode, ok := rec.first(fieldCode, fieldCodeFallback).(string)
		if !ok {
			logger.Debug("skipping record without pollutant code", "index", i)
			continue
		}

		subIndex, ok := toInt(rec.first(fieldIndex, fieldIndexFallback))
		if !ok {
			logger.Debug("skipping record without numeric index", "index", i, "pollutant", rawCode)
			continue
		}

		code := NormalizeCode(rawCode)
		ref, ok := table.Lookup(code)
		if !ok {
			logger.Debug("skipping unsupported pollutant", "index", i, "pollutant", code)
			continue
		}

		p := NewPollutant(ref, subIndex)
		pollutants[code] = p

		logger.Debug("parsed pollutant",
			"pollutant", code,
			"aqi", p.SubIndex,
			"concentration", p.Concentration,
			"unit", p.Unit,
		)
	}

	return pollutants
}

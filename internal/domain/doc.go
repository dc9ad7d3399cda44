// Package domain models air-quality readings published by the City of
// Montreal open-data portal.
//
// # Data Source
//
// The portal exposes CKAN datastore resources. The real-time resource lists
// one record per station, pollutant and hour:
//
//	{"stationId": "3", "polluant": "PM", "valeur": "57", "date": "2025-12-18", "heure": "16"}
//
// Pollutant codes and sub-index values have been published under two field
// names over the life of the dataset ("polluant"/"pollutant" and
// "indice"/"valeur"). Values arrive as strings or numbers. The legacy code
// "PM" denotes fine particulate matter and is normalized to "PM2.5".
//
// # Sub-indices and AQI
//
// Each record carries the upstream sub-index of one pollutant. A sub-index of
// 100 corresponds to the pollutant's reference concentration, so
//
//	concentration = sub_index / 100 * reference
//
// The station AQI is the highest sub-index at the latest hour and the
// pollutant that reaches it is the main pollutant. Ties go to the lowest
// canonical code so that identical input always names the same pollutant.
// This is a linear index, not the US EPA breakpoint AQI.
//
// # Reference Table
//
//	SO2    sulfur dioxide               500 µg/m3
//	CO     carbon monoxide               35 mg/m3
//	O3     ozone                        160 µg/m3
//	NO2    nitrogen dioxide             400 µg/m3
//	PM2.5  particulate matter, PM2.5     35 µg/m3
//
// The table is embedded as JSON and may be replaced at start-up with a file
// of the same shape, see [LoadReferenceTable].
package domain

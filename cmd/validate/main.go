// Command validate replays saved datastore_search responses through the
// station pipeline and checks every produced document against the output
// contract. Use it to vet an upstream schema change before it reaches the
// exporter.
//
// Usage:
//
//	curl -s "$AQI_API_URL?resource_id=$AQI_RESOURCE_READINGS&limit=1000" > readings.json
//	curl -s "$AQI_API_URL?resource_id=$AQI_RESOURCE_STATIONS&limit=1000" > stations.json
//	go run ./cmd/validate -readings readings.json -stations stations.json
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/couchcryptid/montreal-aqi/internal/adapter/opendata"
	"github.com/couchcryptid/montreal-aqi/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	readingsPath := flag.String("readings", "", "saved datastore_search response for the real-time readings resource")
	stationsPath := flag.String("stations", "", "saved datastore_search response for the station list resource (optional)")
	referencePath := flag.String("reference", "", "reference table JSON replacing the embedded one (optional)")
	flag.Parse()

	if *readingsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*readingsPath, *stationsPath, *referencePath, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(readingsPath, stationsPath, referencePath string, out io.Writer) int {
	fmt.Fprintln(out, "=== Station Payload Validation ===")
	fmt.Fprintln(out)

	table := domain.DefaultReferenceTable()
	if referencePath != "" {
		loaded, err := loadReferenceTable(referencePath)
		if err != nil {
			fmt.Fprintf(out, "FATAL: load reference table: %v\n", err)
			return 1
		}
		table = loaded
	}

	readings, err := loadRecords(readingsPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load readings: %v\n", err)
		return 1
	}

	var stations []domain.Record
	if stationsPath != "" {
		stations, err = loadRecords(stationsPath)
		if err != nil {
			fmt.Fprintf(out, "FATAL: load stations: %v\n", err)
			return 1
		}
	}

	ids := stationIDs(readings)
	payloads, skipped := buildPayloads(readings, ids, table)

	phases := []*phase{
		validateContract(payloads),
		validateAggregation(payloads),
	}
	if stationsPath != "" {
		phases = append(phases, validateStations(stations, ids))
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d readings, %d stations with data, %d skipped, %d station list entries\n",
		len(readings), len(payloads), len(skipped), len(stations))
	for _, id := range skipped {
		fmt.Fprintf(out, "  skipped station %s: no usable readings\n", id)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadRecords(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return opendata.DecodeRecords(f)
}

func loadReferenceTable(path string) (domain.ReferenceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.ReferenceTable{}, err
	}
	defer f.Close()
	return domain.LoadReferenceTable(f)
}

// stationIDs returns the distinct station ids of the readings in order.
func stationIDs(records []domain.Record) []string {
	var ids []string
	for _, rec := range records {
		if id, ok := rec.String("stationId"); ok && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// buildPayloads runs every station through selection, parsing, and
// aggregation. Stations without usable readings are returned as skipped.
func buildPayloads(records []domain.Record, ids []string, table domain.ReferenceTable) ([]domain.StationPayload, []string) {
	logger := slog.New(slog.DiscardHandler)
	var (
		payloads []domain.StationPayload
		skipped  []string
	)
	for _, id := range ids {
		latest := domain.LatestStationRecords(records, id)
		pollutants := domain.ParsePollutants(latest, table, logger)
		date, hour, err := domain.ObservationTime(latest)
		if err != nil {
			skipped = append(skipped, id)
			continue
		}
		reading, err := domain.Aggregate(id, date, hour, pollutants)
		if err != nil {
			skipped = append(skipped, id)
			continue
		}
		payloads = append(payloads, reading.Payload())
	}
	return payloads, skipped
}

// ── Phase 1: Contract ──
// Every station document satisfies the versioned output contract.

func validateContract(payloads []domain.StationPayload) *phase {
	p := &phase{name: "Phase 1: Output Contract"}
	for _, payload := range payloads {
		env := domain.StationEnvelope{Version: domain.ContractVersion, Type: domain.TypeStation, StationPayload: payload}
		if err := domain.Validate(env); err != nil {
			p.errorf("station %s: %v", payload.StationID, err)
		}
	}
	return p
}

// ── Phase 2: Aggregation ──
// The overall AQI is the largest sub-index and the main pollutant carries it.

func validateAggregation(payloads []domain.StationPayload) *phase {
	p := &phase{name: "Phase 2: Aggregation Invariants"}
	for _, payload := range payloads {
		maxAQI, found := 0, false
		for _, pol := range payload.Pollutants {
			if !found || pol.AQI > maxAQI {
				maxAQI, found = pol.AQI, true
			}
		}
		if payload.AQI != maxAQI {
			p.errorf("station %s: aqi %d, max sub-index %d", payload.StationID, payload.AQI, maxAQI)
		}
		if main, ok := payload.Pollutants[payload.MainPollutant]; !ok || main.AQI != payload.AQI {
			p.errorf("station %s: main pollutant %q does not carry the aqi", payload.StationID, payload.MainPollutant)
		}
	}
	return p
}

// ── Phase 3: Station list ──
// The station list parses into a valid document and covers every station
// reporting readings.

func validateStations(records []domain.Record, readingIDs []string) *phase {
	p := &phase{name: "Phase 3: Station List"}

	open := domain.ParseOpenStations(records)
	if err := domain.Validate(domain.NewStationsEnvelope(open)); err != nil {
		p.errorf("stations document: %v", err)
	}

	known := make(map[string]bool, len(open))
	for _, s := range open {
		known[s.StationID] = true
	}
	for _, id := range readingIDs {
		if !known[id] {
			p.errorf("station %s reports readings but is not listed as open", id)
		}
	}
	return p
}

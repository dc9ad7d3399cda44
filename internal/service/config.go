package service

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/montreal-aqi/internal/adapter/opendata"
	"github.com/couchcryptid/montreal-aqi/internal/config"
	"github.com/couchcryptid/montreal-aqi/internal/domain"
	"github.com/couchcryptid/montreal-aqi/internal/observability"
)

// NewFromConfig wires the open-data client, the optional record cache, and
// the reference table described by cfg.
func NewFromConfig(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*Service, error) {
	table := domain.DefaultReferenceTable()
	if cfg.ReferenceTablePath != "" {
		loaded, err := loadReferenceTable(cfg.ReferenceTablePath)
		if err != nil {
			return nil, err
		}
		table = loaded
		logger.Info("loaded reference table", "path", cfg.ReferenceTablePath, "codes", table.Codes())
	}

	var fetcher domain.RecordFetcher = opendata.NewClient(cfg.APIURL, cfg.RequestLimit, cfg.APITimeout, metrics, logger)
	if cfg.CacheTTL > 0 {
		fetcher = opendata.NewCachedFetcher(fetcher, opendata.NewTTLCache(nil), cfg.CacheTTL, metrics, logger)
	}

	return New(fetcher, Resources{
		Readings: cfg.ReadingsResource,
		Stations: cfg.StationsResource,
	}, table, logger), nil
}

func loadReferenceTable(path string) (domain.ReferenceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.ReferenceTable{}, fmt.Errorf("open reference table: %w", err)
	}
	defer f.Close()
	return domain.LoadReferenceTable(f)
}

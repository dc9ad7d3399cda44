// Command montreal-aqi prints the current air quality of a Montreal
// monitoring station, or the list of open stations, as a versioned JSON
// document.
//
// Usage:
//
//	montreal-aqi --station 3 --pretty
//	montreal-aqi --list
//
// Settings such as the API URL and cache TTL come from the same AQI_*
// environment variables as the exporter.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/montreal-aqi/internal/config"
	"github.com/couchcryptid/montreal-aqi/internal/domain"
	"github.com/couchcryptid/montreal-aqi/internal/observability"
	"github.com/couchcryptid/montreal-aqi/internal/service"
	"github.com/couchcryptid/montreal-aqi/internal/version"
)

// Exit statuses.
const (
	exitOK              = 0
	exitError           = 1
	exitUnreachable     = 2
	exitInvalidResponse = 3
)

// stationService is the part of service.Service the command uses.
type stationService interface {
	StationAQI(ctx context.Context, stationID string) (domain.StationReading, error)
	OpenStations(ctx context.Context) ([]domain.Station, error)
}

type serviceOpener func(logger *slog.Logger) (stationService, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, openService)
	stop()
	os.Exit(code)
}

func openService(logger *slog.Logger) (stationService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return service.NewFromConfig(cfg, observability.NewMetrics(), logger)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, open serviceOpener) int {
	fs := flag.NewFlagSet("montreal-aqi", flag.ContinueOnError)
	fs.SetOutput(stderr)
	station := fs.String("station", "", "station ID")
	list := fs.Bool("list", false, "list open stations")
	pretty := fs.Bool("pretty", false, "pretty print JSON output")
	debug := fs.Bool("debug", false, "enable debug logging")
	showVersion := fs.Bool("version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		out := &printer{w: stdout, pretty: *pretty, logger: observability.NewLogger(stderr, slog.LevelInfo, "text")}
		return out.fail(service.CodeAPIError, err.Error(), exitError)
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.String())
		return exitOK
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := observability.NewLogger(stderr, level, "text")
	out := &printer{w: stdout, pretty: *pretty, logger: logger}

	if *station == "" && !*list {
		logger.Error("no arguments provided")
		return out.fail(service.CodeNoArguments, "No arguments provided", exitOK)
	}

	svc, err := open(logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		return out.fail(service.CodeAPIError, err.Error(), exitError)
	}

	if *list {
		stations, err := svc.OpenStations(ctx)
		if err != nil {
			return out.failWith(err)
		}
		return out.print(domain.NewStationsEnvelope(stations))
	}

	reading, err := svc.StationAQI(ctx, *station)
	if err != nil {
		return out.failWith(err)
	}
	return out.print(domain.NewStationEnvelope(reading))
}

// printer writes exactly one JSON document to stdout.
type printer struct {
	w      io.Writer
	pretty bool
	logger *slog.Logger
}

func (p *printer) print(v any) int {
	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)
	if p.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		p.logger.Error("write output", "error", err)
		return exitError
	}
	return exitOK
}

func (p *printer) fail(code, message string, status int) int {
	if rc := p.print(domain.NewErrorEnvelope(code, message)); rc != exitOK {
		return rc
	}
	return status
}

func (p *printer) failWith(err error) int {
	code := service.ErrorCode(err)
	switch code {
	case service.CodeNoData:
		p.logger.Warn("no data available", "error", err)
		return p.fail(code, "No data available for this station", exitOK)
	case service.CodeAPIUnreachable:
		p.logger.Error("API unreachable", "error", err)
		return p.fail(code, "Montreal open data API is unreachable", exitUnreachable)
	case service.CodeAPIInvalidResponse:
		p.logger.Error("invalid API response", "error", err)
		return p.fail(code, "Unexpected response from Montreal open data API", exitInvalidResponse)
	default:
		p.logger.Error("request failed", "error", err)
		return p.fail(code, err.Error(), exitError)
	}
}

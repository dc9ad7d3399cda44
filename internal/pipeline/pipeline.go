package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/montreal-aqi/internal/domain"
	"github.com/couchcryptid/montreal-aqi/internal/observability"
	"github.com/couchcryptid/montreal-aqi/internal/service"
)

// StationSource builds station readings and lists open stations.
type StationSource interface {
	StationAQI(ctx context.Context, stationID string) (domain.StationReading, error)
	OpenStations(ctx context.Context) ([]domain.Station, error)
}

// BatchLoader writes the payloads of one poll cycle to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, payloads []domain.StationPayload) error
}

const (
	publishAttempts = 3
	initialBackoff  = 200 * time.Millisecond
	maxBackoff      = 5 * time.Second
)

// Pipeline polls station readings, exports them as metrics and publishes them.
type Pipeline struct {
	source   StationSource
	loader   BatchLoader
	stations []string
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool

	mu     sync.RWMutex
	latest map[string]domain.StationReading
}

// New creates a Pipeline. A nil loader disables publishing; an empty station
// list polls every open station.
func New(source StationSource, loader BatchLoader, stations []string, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:   source,
		loader:   loader,
		stations: stations,
		logger:   logger,
		metrics:  metrics,
		latest:   make(map[string]domain.StationReading),
	}
}

// CheckReadiness returns nil once a poll cycle has produced a reading,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not produced any reading yet")
	}
	return nil
}

// Latest returns the most recent reading polled for a station.
func (p *Pipeline) Latest(stationID string) (domain.StationReading, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.latest[stationID]
	return r, ok
}

// Run polls every interval until the context is cancelled. The first cycle
// starts immediately.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	_, err := s.Every(interval).Do(func() {
		if err := p.RunOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("poll cycle failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule poll job: %w", err)
	}

	p.logger.Info("pipeline started", "interval", interval, "stations", len(p.stations))
	p.metrics.PollerRunning.Set(1)
	defer p.metrics.PollerRunning.Set(0)

	s.StartAsync()
	<-ctx.Done()
	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	s.Stop()
	return nil
}

// RunOnce polls every configured station once, updates the gauges and the
// latest readings, and publishes the cycle's payloads.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	start := time.Now()
	defer func() { p.metrics.PollDuration.Observe(time.Since(start).Seconds()) }()

	stations, err := p.stationIDs(ctx)
	if err != nil {
		p.metrics.PollCycles.WithLabelValues("error").Inc()
		return err
	}

	payloads := make([]domain.StationPayload, 0, len(stations))
	for _, id := range stations {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		reading, err := p.source.StationAQI(ctx, id)
		if err != nil {
			p.recordStationError(id, err)
			continue
		}
		p.observe(reading)
		payloads = append(payloads, reading.Payload())
	}

	if len(payloads) == 0 {
		p.metrics.PollCycles.WithLabelValues("empty").Inc()
		p.logger.Warn("poll cycle produced no readings", "stations", len(stations))
		return nil
	}
	p.ready.Store(true)

	if err := p.publish(ctx, payloads); err != nil {
		p.metrics.PollCycles.WithLabelValues("error").Inc()
		return err
	}
	p.metrics.PollCycles.WithLabelValues("success").Inc()
	p.logger.Info("poll cycle complete", "readings", len(payloads), "duration", time.Since(start))
	return nil
}

func (p *Pipeline) stationIDs(ctx context.Context) ([]string, error) {
	if len(p.stations) > 0 {
		return p.stations, nil
	}
	open, err := p.source.OpenStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open stations: %w", err)
	}
	ids := make([]string, len(open))
	for i, s := range open {
		ids[i] = s.StationID
	}
	return ids, nil
}

func (p *Pipeline) recordStationError(stationID string, err error) {
	if errors.Is(err, service.ErrNoData) {
		p.metrics.StationErrors.WithLabelValues("no_data").Inc()
		p.logger.Debug("station has no data", "station_id", stationID)
		p.forget(stationID)
		return
	}
	p.metrics.StationErrors.WithLabelValues("fetch").Inc()
	p.logger.Error("station reading failed", "station_id", stationID, "error", err)
}

func (p *Pipeline) observe(r domain.StationReading) {
	p.metrics.PollutantSubIndex.DeletePartialMatch(prometheus.Labels{"station": r.StationID})
	p.metrics.StationAQI.WithLabelValues(r.StationID).Set(float64(r.OverallAQI()))
	for code, pol := range r.Pollutants() {
		p.metrics.PollutantSubIndex.WithLabelValues(r.StationID, code).Set(float64(pol.SubIndex))
	}

	p.mu.Lock()
	p.latest[r.StationID] = r
	p.mu.Unlock()
}

// forget drops the gauges and the latest reading of a station that stopped
// reporting.
func (p *Pipeline) forget(stationID string) {
	p.metrics.StationAQI.DeleteLabelValues(stationID)
	p.metrics.PollutantSubIndex.DeletePartialMatch(prometheus.Labels{"station": stationID})

	p.mu.Lock()
	delete(p.latest, stationID)
	p.mu.Unlock()
}

// publish hands the payloads to the loader, retrying with exponential backoff.
func (p *Pipeline) publish(ctx context.Context, payloads []domain.StationPayload) error {
	if p.loader == nil {
		return nil
	}

	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		if err = p.loader.LoadBatch(ctx, payloads); err == nil {
			p.metrics.ReadingsPublished.Add(float64(len(payloads)))
			return nil
		}
		p.metrics.PublishErrors.Inc()
		p.logger.Error("publish readings failed", "error", err, "attempt", attempt, "batch_size", len(payloads))
		if attempt == publishAttempts || !sleepWithContext(ctx, backoff) {
			break
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	return fmt.Errorf("publish readings: %w", err)
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

package opendata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/couchcryptid/montreal-aqi/internal/domain"
	"github.com/couchcryptid/montreal-aqi/internal/observability"
)

var (
	// ErrUnreachable reports a transport failure, a non-2xx status, or an
	// open circuit breaker.
	ErrUnreachable = errors.New("open data API unreachable")

	// ErrInvalidResponse reports a body that is not a datastore_search
	// result with a list of records.
	ErrInvalidResponse = errors.New("invalid open data API response")
)

// Client implements domain.RecordFetcher using the CKAN datastore_search
// endpoint of the Montreal open-data portal.
type Client struct {
	baseURL    string
	limit      int
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an open-data client. Requests time out after timeout and
// run through a circuit breaker that opens after five consecutive failures.
func NewClient(baseURL string, limit int, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		limit:      limit,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    newBreaker(metrics, logger),
		metrics:    metrics,
		logger:     logger,
	}
}

func newBreaker(metrics *observability.Metrics, logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "montreal-open-data",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.Set(float64(to))
		},
	})
}

// FetchRecords returns every record of a datastore resource, up to the
// configured limit.
func (c *Client) FetchRecords(ctx context.Context, resourceID string) ([]domain.Record, error) {
	params := url.Values{
		"resource_id": {resourceID},
		"limit":       {strconv.Itoa(c.limit)},
	}
	fullURL := c.baseURL + "?" + params.Encode()

	c.logger.Info("fetching open data resource", "resource_id", resourceID)
	start := time.Now()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, fullURL)
	})
	c.metrics.FetchDuration.WithLabelValues(resourceID).Observe(time.Since(start).Seconds())
	c.logger.Debug("open data request finished", "resource_id", resourceID, "duration", time.Since(start))

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
		outcome := "unreachable"
		if errors.Is(err, ErrInvalidResponse) {
			outcome = "invalid"
		}
		c.metrics.FetchRequests.WithLabelValues(resourceID, outcome).Inc()
		c.logger.Error("open data request failed", "resource_id", resourceID, "error", err)
		return nil, err
	}

	c.metrics.FetchRequests.WithLabelValues(resourceID, "success").Inc()
	records, _ := result.([]domain.Record)
	return records, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]domain.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnreachable, resp.StatusCode, body)
	}

	return DecodeRecords(resp.Body)
}

// DecodeRecords reads the records of a datastore_search response body.
// Errors wrap ErrInvalidResponse.
func DecodeRecords(r io.Reader) ([]domain.Record, error) {
	var payload response
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", ErrInvalidResponse, err)
	}
	if payload.Result == nil || len(payload.Result.Records) == 0 || string(payload.Result.Records) == "null" {
		return nil, fmt.Errorf("%w: result.records is missing", ErrInvalidResponse)
	}

	var records []domain.Record
	if err := json.Unmarshal(payload.Result.Records, &records); err != nil {
		return nil, fmt.Errorf("%w: result.records is not a list of objects: %v", ErrInvalidResponse, err)
	}
	if records == nil {
		records = []domain.Record{}
	}
	return records, nil
}

// CKAN datastore_search response types.

type response struct {
	Success bool    `json:"success"`
	Result  *result `json:"result"`
}

type result struct {
	Records json.RawMessage `json:"records"`
}

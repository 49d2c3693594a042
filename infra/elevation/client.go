// Package elevation looks up ground elevations from an open-elevation
// compatible service.
package elevation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/config"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/logger"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
)

type location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type lookupRequest struct {
	Locations []location `json:"locations"`
}

type lookupResponse struct {
	Results []struct {
		Latitude  float64  `json:"latitude"`
		Longitude float64  `json:"longitude"`
		Elevation *float64 `json:"elevation"`
	} `json:"results"`
}

// statusError is returned for non-200 answers. 4xx other than 429 are not
// retried.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// Client batches lookups and paces them with a token bucket.
type Client struct {
	url        string
	http       *http.Client
	limiter    *rate.Limiter
	batchSize  int
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

// NewClient builds a client from cfg. The caller applies cfg defaults.
func NewClient(cfg config.ElevationConfig, log logger.Logger) *Client {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	batch := cfg.BatchSize
	if batch < 1 {
		batch = 1
	}
	return &Client{
		url:        cfg.URL,
		http:       &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		batchSize:  batch,
		maxRetries: cfg.MaxRetries,
		backoff:    500 * time.Millisecond,
		log:        logger.OrNop(log),
	}
}

// Elevations returns one elevation in meters per point, in input order.
func (c *Client) Elevations(ctx context.Context, pts []model.Coordinate) ([]float64, error) {
	out := make([]float64, 0, len(pts))
	for start := 0; start < len(pts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(pts) {
			end = len(pts)
		}
		elev, err := c.batch(ctx, pts[start:end])
		if err != nil {
			return nil, fmt.Errorf("points %d-%d: %w", start, end-1, err)
		}
		out = append(out, elev...)
	}
	return out, nil
}

// Elevation looks up a single point.
func (c *Client) Elevation(ctx context.Context, lat, lng float64) (float64, error) {
	elev, err := c.Elevations(ctx, []model.Coordinate{{Lat: lat, Lng: lng}})
	if err != nil {
		return 0, err
	}
	return elev[0], nil
}

func (c *Client) batch(ctx context.Context, pts []model.Coordinate) ([]float64, error) {
	var lastErr error
	delay := c.backoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.log.Warnf("elevation lookup failed (attempt %d/%d): %v", attempt, c.maxRetries+1, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		elev, err := c.lookup(ctx, pts)
		if err == nil {
			return elev, nil
		}
		lastErr = err
		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (c *Client) lookup(ctx context.Context, pts []model.Coordinate) ([]float64, error) {
	body := lookupRequest{Locations: make([]location, len(pts))}
	for i, p := range pts {
		body.Locations[i] = location{Latitude: p.Lat, Longitude: p.Lng}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &statusError{code: resp.StatusCode, body: string(b)}
	}
	var lr lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(lr.Results) != len(pts) {
		return nil, fmt.Errorf("expected %d results, got %d", len(pts), len(lr.Results))
	}
	out := make([]float64, len(pts))
	for i, r := range lr.Results {
		if r.Elevation == nil {
			return nil, fmt.Errorf("no elevation for (%g, %g)", pts[i].Lat, pts[i].Lng)
		}
		out[i] = *r.Elevation
	}
	return out, nil
}

package elevation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/config"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
)

// lookupServer answers with latitude*10 as elevation. The first failures
// requests get status.
func lookupServer(t *testing.T, failures int32, status int) (*httptest.Server, *atomic.Int32, func() []int) {
	t.Helper()
	var calls atomic.Int32
	var mu sync.Mutex
	var sizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if n <= failures {
			w.WriteHeader(status)
			return
		}
		var req lookupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		mu.Lock()
		sizes = append(sizes, len(req.Locations))
		mu.Unlock()
		type result struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Elevation float64 `json:"elevation"`
		}
		res := struct {
			Results []result `json:"results"`
		}{}
		for _, l := range req.Locations {
			res.Results = append(res.Results, result{l.Latitude, l.Longitude, l.Latitude * 10})
		}
		_ = json.NewEncoder(w).Encode(res)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls, func() []int {
		mu.Lock()
		defer mu.Unlock()
		return append([]int(nil), sizes...)
	}
}

func newTestClient(url string, batch, retries int) *Client {
	c := NewClient(config.ElevationConfig{
		URL: url, BatchSize: batch, MaxRetries: retries, Timeout: 5 * time.Second,
	}, nil)
	c.backoff = time.Millisecond
	return c
}

func TestElevationsAreBatchedInOrder(t *testing.T) {
	srv, calls, sizes := lookupServer(t, 0, 0)
	c := newTestClient(srv.URL, 2, 0)
	pts := []model.Coordinate{{Lat: 1}, {Lat: 2}, {Lat: 3}, {Lat: 4}, {Lat: 5}}
	elev, err := c.Elevations(context.Background(), pts)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30, 40, 50}, elev)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []int{2, 2, 1}, sizes())
}

func TestServerErrorsAreRetried(t *testing.T) {
	srv, calls, _ := lookupServer(t, 2, http.StatusServiceUnavailable)
	c := newTestClient(srv.URL, 10, 3)
	elev, err := c.Elevation(context.Background(), 3.5, -6)
	require.NoError(t, err)
	assert.Equal(t, 35.0, elev)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	srv, calls, _ := lookupServer(t, 10, http.StatusBadRequest)
	c := newTestClient(srv.URL, 10, 3)
	_, err := c.Elevation(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetriesAreBounded(t *testing.T) {
	srv, calls, _ := lookupServer(t, 10, http.StatusTooManyRequests)
	c := newTestClient(srv.URL, 10, 2)
	_, err := c.Elevation(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRateLimitHonoursContext(t *testing.T) {
	srv, _, _ := lookupServer(t, 0, 0)
	c := NewClient(config.ElevationConfig{URL: srv.URL, BatchSize: 1, RatePerSecond: 0.001, Burst: 1, Timeout: time.Second}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := c.Elevations(ctx, []model.Coordinate{{Lat: 1}, {Lat: 2}})
	assert.Error(t, err)
}

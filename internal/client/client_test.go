package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScoringServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /clients", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[100002,100003,100004]`)
	})
	mux.HandleFunc("POST /predict", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		switch string(body) {
		case `{"SK_ID_CURR":100002}`:
			_, _ = io.WriteString(w, `{"client_id":100002,"probabilité_defaut":0.05,"décision":"accepté"}`)
		case `{"SK_ID_CURR":100003}`:
			_, _ = io.WriteString(w, `{"client_id":100003,"probabilité_defaut":0.7,"décision":"refusé"}`)
		case `{"SK_ID_CURR":100004}`:
			_, _ = io.WriteString(w, `{"oops":true}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"999 not found"}`)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_ValidatesURL(t *testing.T) {
	for _, raw := range []string{"localhost:8000", "ftp://host", "http://", "://bad"} {
		_, err := New(raw)
		assert.Error(t, err, raw)
	}

	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	c, err = New("http://example.test:8000/")
	require.NoError(t, err)
	assert.Equal(t, "http://example.test:8000", c.BaseURL())
}

func TestNew_LeavesCallerHTTPClientAlone(t *testing.T) {
	srv := newScoringServer(t, nil)
	base := &http.Client{Timeout: time.Hour}

	for range 2 {
		c, err := New(srv.URL, WithHTTPClient(base), WithTimeout(time.Second))
		require.NoError(t, err)
		_, err = c.Clients(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, time.Hour, base.Timeout)
	assert.Nil(t, base.Transport)
}

func TestClient_Clients(t *testing.T) {
	var hits atomic.Int32
	srv := newScoringServer(t, &hits)
	c, err := New(srv.URL, WithCacheTTL(time.Minute))
	require.NoError(t, err)
	ctx := context.Background()

	ids, err := c.Clients(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{100002, 100003, 100004}, ids)

	ids[0] = 1
	again, err := c.Clients(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100002), again[0], "cached list must not be aliased")
	assert.Equal(t, int32(1), hits.Load())

	c.Refresh()
	_, err = c.Clients(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_Predict(t *testing.T) {
	srv := newScoringServer(t, nil)
	c, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	res, err := c.Predict(ctx, 100003)
	require.NoError(t, err)
	assert.Equal(t, int64(100003), res.Prediction.ClientID)
	assert.InDelta(t, 0.7, res.Prediction.Probability, 1e-9)
	assert.Equal(t, "refusé", res.Prediction.Decision)
	assert.Contains(t, string(res.Raw), `"décision":"refusé"`)

	_, err = c.Predict(ctx, 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "999 not found", apiErr.Detail)

	_, err = c.Predict(ctx, 100004)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestClient_ServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "boom")
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.Clients(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "boom", apiErr.Body)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, WithTimeout(time.Second))
	require.NoError(t, err)

	_, err = c.Clients(context.Background())
	assert.True(t, errors.Is(err, ErrConnection))
	assert.Contains(t, err.Error(), url)
}

func TestLoggingRoundTripper_SetsRequestID(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get(RequestIDHeader))
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithDebug(true))
	require.NoError(t, err)

	ids, err := c.Clients(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NotEmpty(t, got.Load())
}

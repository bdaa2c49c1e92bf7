package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domrepo "FlowICT/internal/domain/repository"
)

var fetchStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestClient_FetchCandles_ParsesColumnArrays(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"symbol":     q.Get("symbol"),
			"resolution": q.Get("resolution"),
			"from":       q.Get("from"),
			"to":         q.Get("to"),
			"token":      q.Get("token"),
		}
		fmt.Fprint(w, `{
			"s": "ok",
			"t": [1709251200, 1709254800, 1709258400],
			"o": [100.0, 101.0, 102.0],
			"h": [100.5, 101.5, 102.5],
			"l": [99.5, 100.5, 101.5],
			"c": [101.0, 102.0, 103.0],
			"v": [10, 20, 30]
		}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", time.Second, nil, 0, 0)
	out, err := c.FetchCandles(context.Background(), "XAUUSD", domrepo.TF1h, fetchStart, fetchStart.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, out, 3)

	require.Equal(t, "XAUUSD", gotQuery["symbol"])
	require.Equal(t, "60", gotQuery["resolution"])
	require.Equal(t, strconv.FormatInt(fetchStart.Unix(), 10), gotQuery["from"])
	require.Equal(t, "test-key", gotQuery["token"])

	require.Equal(t, fetchStart, out[0].Timestamp)
	require.Equal(t, "XAUUSD", out[0].Symbol)
	require.Equal(t, 100.0, out[0].Open)
	require.Equal(t, 103.0, out[2].Close)
	require.Equal(t, 30.0, out[2].Volume)
	for i := 1; i < len(out); i++ {
		require.True(t, out[i].Timestamp.After(out[i-1].Timestamp))
	}
}

func TestClient_FetchCandles_DrainsWindowAcrossCalls(t *testing.T) {
	// Serves at most two rows per request so one logical window needs
	// several round trips.
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		q := r.URL.Query()
		from, _ := strconv.ParseInt(q.Get("from"), 10, 64)
		to, _ := strconv.ParseInt(q.Get("to"), 10, 64)

		resp := candleResponse{Status: "ok"}
		for ts := from; ts < to && len(resp.Times) < 2; ts += 3600 {
			resp.Times = append(resp.Times, ts)
			resp.Open = append(resp.Open, 100)
			resp.High = append(resp.High, 101)
			resp.Low = append(resp.Low, 99)
			resp.Close = append(resp.Close, 100)
			resp.Volume = append(resp.Volume, 1)
		}
		if len(resp.Times) == 0 {
			resp.Status = "no_data"
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", time.Second, nil, 0, 0)
	out, err := c.FetchCandles(context.Background(), "XAUUSD", domrepo.TF1h, fetchStart, fetchStart.Add(5*time.Hour))
	require.NoError(t, err)
	require.Len(t, out, 5)
	require.Equal(t, 3, requests)
	require.Equal(t, fetchStart.Add(4*time.Hour), out[4].Timestamp)
}

func TestClient_FetchCandles_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"s":"no_data"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", time.Second, nil, 0, 0)
	out, err := c.FetchCandles(context.Background(), "XAUUSD", domrepo.TF1h, fetchStart, fetchStart.Add(time.Hour))
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestClient_FetchCandles_ErrorStatusSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "rate limit exceeded")
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", time.Second, nil, 0, 0)
	_, err := c.FetchCandles(context.Background(), "XAUUSD", domrepo.TF1h, fetchStart, fetchStart.Add(time.Hour))
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 429")
}

func TestClient_FetchCandles_ColumnMismatchRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"s":"ok","t":[1709251200,1709254800],"o":[100.0],"h":[101.0,102.0],"l":[99.0,100.0],"c":[100.5,101.5],"v":[1,2]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", time.Second, nil, 0, 0)
	_, err := c.FetchCandles(context.Background(), "XAUUSD", domrepo.TF1h, fetchStart, fetchStart.Add(2*time.Hour))
	require.Error(t, err)
	require.Contains(t, err.Error(), "column length mismatch")
}

func TestClient_FetchCandles_UnsupportedTimeframe(t *testing.T) {
	c := New("http://localhost:0", "test-key", time.Second, nil, 0, 0)
	_, err := c.FetchCandles(context.Background(), "XAUUSD", domrepo.Timeframe("2h"), fetchStart, fetchStart.Add(time.Hour))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported timeframe")
}

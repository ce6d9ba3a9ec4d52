package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		w.Write([]byte(`{"name":"ok"}`))
	}))
	defer server.Close()

	c := New(time.Second, WithHeader("apikey", "secret"), WithHTTPClient(server.Client()))

	var out struct{ Name string }
	require.NoError(t, c.GetJSON(context.Background(), server.URL, &out))
	assert.Equal(t, "ok", out.Name)
}

func TestGetJSON_RetriesTransient(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(time.Second, WithRetry(3, time.Millisecond), WithHTTPClient(server.Client()))

	var out map[string]any
	require.NoError(t, c.GetJSON(context.Background(), server.URL, &out))
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestGetJSON_NoRetryOnClientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	c := New(time.Second, WithRetry(3, time.Millisecond), WithHTTPClient(server.Client()))

	var out map[string]any
	err := c.GetJSON(context.Background(), server.URL, &out)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, "bad key", se.Body)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGetJSON_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	c := New(time.Second, WithHTTPClient(server.Client()))
	var out map[string]any
	assert.Error(t, c.GetJSON(context.Background(), server.URL, &out))
}

func TestGetJSON_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(20 * time.Millisecond)
	var out map[string]any
	err := c.GetJSON(context.Background(), server.URL, &out)
	require.Error(t, err)
	assert.True(t, Retryable(err), "timeouts are transient: %v", err)
}

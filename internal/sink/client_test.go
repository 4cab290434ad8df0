package sink

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/actionsum/focuswatch/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type receivedHeartbeat struct {
	Bucket    string
	Pulsetime string
	Body      heartbeatRequest
	Raw       []byte
}

// fakeServer mimics the parts of aw-server the watcher uses.
type fakeServer struct {
	mu             sync.Mutex
	buckets        map[string]bucketRequest
	creates        int
	heartbeats     []receivedHeartbeat
	heartbeatError int
}

func newFakeServer() *fakeServer {
	return &fakeServer{buckets: make(map[string]bucketRequest)}
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Method != http.MethodPost || !strings.HasPrefix(r.URL.Path, "/api/0/buckets/") {
		http.NotFound(w, r)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/0/buckets/")
	if bucket, ok := strings.CutSuffix(rest, "/heartbeat"); ok {
		if f.heartbeatError != 0 {
			http.Error(w, "unavailable", f.heartbeatError)
			return
		}
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var body heartbeatRequest
		if err := json.Unmarshal(raw, &body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.heartbeats = append(f.heartbeats, receivedHeartbeat{
			Bucket:    bucket,
			Pulsetime: r.URL.Query().Get("pulsetime"),
			Body:      body,
			Raw:       raw,
		})
		w.WriteHeader(http.StatusOK)
		return
	}

	if _, exists := f.buckets[rest]; exists {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	var body bucketRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.buckets[rest] = body
	f.creates++
	w.WriteHeader(http.StatusOK)
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Sink.Host = u.Hostname()
	cfg.Sink.Port = port
	cfg.Sink.Hostname = "testhost"
	cfg.Sink.RetryMax = 0
	cfg.Sink.Timeout = 2 * time.Second

	return NewClient(cfg, zap.NewNop())
}

func TestEnsureBucketIdempotent(t *testing.T) {
	fake := newFakeServer()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client := newTestClient(t, srv)
	ctx := context.Background()

	require.NoError(t, client.EnsureBucket(ctx, "aw-watcher-window_testhost", BucketTypeWindow))
	require.NoError(t, client.EnsureBucket(ctx, "aw-watcher-window_testhost", BucketTypeWindow))

	assert.Equal(t, 1, fake.creates)
	require.Len(t, fake.buckets, 1)

	bucket := fake.buckets["aw-watcher-window_testhost"]
	assert.Equal(t, "aw-watcher-sway", bucket.Client)
	assert.Equal(t, BucketTypeWindow, bucket.Type)
	assert.Equal(t, "testhost", bucket.Hostname)
}

func TestEnsureBucketServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newTestClient(t, srv).EnsureBucket(context.Background(), "b", BucketTypeAFK)
	assert.Error(t, err)
}

func TestHeartbeat(t *testing.T) {
	fake := newFakeServer()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client := newTestClient(t, srv)
	ts := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)

	err := client.Heartbeat(context.Background(), "aw-watcher-window_testhost", Event{
		Timestamp: ts,
		Duration:  6,
		Data:      map[string]string{"app": "Firefox", "title": "Example"},
	}, 6)
	require.NoError(t, err)

	require.Len(t, fake.heartbeats, 1)
	hb := fake.heartbeats[0]
	assert.Equal(t, "aw-watcher-window_testhost", hb.Bucket)
	assert.Equal(t, "6", hb.Pulsetime)
	assert.Equal(t, "2025-03-01T12:30:00+00:00", hb.Body.Timestamp)
	assert.Equal(t, 6.0, hb.Body.Duration)
	assert.Equal(t, "Firefox", hb.Body.Data["app"])
	assert.Equal(t, "Example", hb.Body.Data["title"])
}

func TestHeartbeatFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"client error", http.StatusBadRequest},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeServer()
			fake.heartbeatError = tt.status
			srv := httptest.NewServer(fake)
			defer srv.Close()

			err := newTestClient(t, srv).Heartbeat(context.Background(), "b", Event{Timestamp: time.Now()}, 0)
			assert.Error(t, err)
		})
	}
}

func TestHeartbeatUnreachable(t *testing.T) {
	srv := httptest.NewServer(newFakeServer())
	client := newTestClient(t, srv)
	srv.Close()

	err := client.Heartbeat(context.Background(), "b", Event{Timestamp: time.Now()}, 120)
	assert.Error(t, err)
}

func TestHeartbeatInvalidUTF8Title(t *testing.T) {
	fake := newFakeServer()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client := newTestClient(t, srv)

	err := client.Heartbeat(context.Background(), "aw-watcher-window_testhost", Event{
		Timestamp: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		Data:      map[string]string{"app": "kitty", "title": "a\xffb"},
	}, 0)
	require.NoError(t, err)

	require.Len(t, fake.heartbeats, 1)
	assert.True(t, utf8.Valid(fake.heartbeats[0].Raw), "body %q", fake.heartbeats[0].Raw)
	assert.Equal(t, "a\ufffdb", fake.heartbeats[0].Body.Data["title"])
}

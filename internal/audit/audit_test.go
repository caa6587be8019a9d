package audit

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Schera-ole/obsmetrics/internal/config"
	models "github.com/Schera-ole/obsmetrics/internal/model"
)

func testEvent() models.AuditEvent {
	return models.AuditEvent{
		TS:        time.Now().Format(time.RFC3339),
		Action:    config.ActionMetricCreate,
		Metrics:   []string{"testMetric"},
		IPAddress: "127.0.0.1",
	}
}

func TestAuditLogger_Log(t *testing.T) {
	events := make(chan models.AuditEvent, 1)
	logger := NewAuditLogger(events, zap.NewNop().Sugar())

	logger.Log(config.ActionMetricUpdate, []string{"requests"}, "10.0.0.1")

	evt := <-events
	assert.Equal(t, config.ActionMetricUpdate, evt.Action)
	assert.Equal(t, []string{"requests"}, evt.Metrics)
	assert.Equal(t, "10.0.0.1", evt.IPAddress)
	assert.NotEmpty(t, evt.TS)
}

func TestAuditLogger_DropsWhenFull(t *testing.T) {
	events := make(chan models.AuditEvent)
	logger := NewAuditLogger(events, zap.NewNop().Sugar())

	done := make(chan struct{})
	go func() {
		logger.Log(config.ActionMetricCreate, []string{"m"}, "127.0.0.1")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Log blocked on a full channel")
	}
}

func TestBroadcaster(t *testing.T) {
	source := make(chan models.AuditEvent)
	// Create buffered channels to ensure events can be received
	sub1 := make(chan models.AuditEvent, 1)
	sub2 := make(chan models.AuditEvent, 1)

	go Broadcaster(source, zap.NewNop().Sugar(), sub1, sub2)

	event := testEvent()
	go func() {
		source <- event
		close(source)
	}()

	assert.Equal(t, event, <-sub1)
	assert.Equal(t, event, <-sub2)

	// Subscribers are closed once the source is drained
	_, open := <-sub1
	assert.False(t, open)
}

func TestFileSubscriber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	events := make(chan models.AuditEvent, 2)

	event := testEvent()
	events <- event
	events <- event
	close(events)

	FileSubscriber(events, path, zap.NewNop().Sugar())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var written models.AuditEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &written))
		assert.Equal(t, event, written)
		lines++
	}
	assert.Equal(t, 2, lines)
}

func TestFileSubscriber_BadPath(t *testing.T) {
	events := make(chan models.AuditEvent, 1)
	events <- testEvent()
	close(events)

	// Must not panic when the file cannot be opened
	FileSubscriber(events, filepath.Join(t.TempDir(), "missing", "audit.log"), zap.NewNop().Sugar())
}

func TestURLSubscriber(t *testing.T) {
	var (
		mu       sync.Mutex
		received models.AuditEvent
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	events := make(chan models.AuditEvent, 1)
	event := testEvent()
	events <- event
	close(events)

	URLSubscriber(events, server.URL, server.Client(), zap.NewNop().Sugar())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, event, received)
}

func TestStart_NoSinks(t *testing.T) {
	logger, stop := Start(&config.ServerConfig{}, zap.NewNop().Sugar())
	defer stop()

	_, isNop := logger.(nopLogger)
	assert.True(t, isNop)
	logger.Log(config.ActionAgentDelete, []string{"a"}, "127.0.0.1")
}

func TestStart_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	logger, stop := Start(&config.ServerConfig{AuditFile: path}, zap.NewNop().Sugar())

	logger.Log(config.ActionAgentRegister, []string{"waiter-1"}, "127.0.0.1")
	stop()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"action":"agent.register"`)
	assert.Contains(t, string(content), "waiter-1")
}

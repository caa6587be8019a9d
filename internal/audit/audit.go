// Package audit provides audit logging of mutating API calls.
//
// It implements a publish-subscribe pattern for distributing audit events to
// multiple destinations including files and HTTP endpoints.
package audit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Schera-ole/obsmetrics/internal/config"
	models "github.com/Schera-ole/obsmetrics/internal/model"
)

const bufferSize = 100

// AuditLogger is an interface for logging audit events.
type AuditLogger interface {
	// Log sends an audit event for action with the affected names and client IP address.
	Log(action string, names []string, ipAddress string)
}

// auditLogger is a concrete implementation of AuditLogger that sends events to a channel.
type auditLogger struct {
	eventChan chan<- models.AuditEvent
	logger    *zap.SugaredLogger
}

// NewAuditLogger creates a new AuditLogger that sends events to the provided channel.
func NewAuditLogger(eventChan chan<- models.AuditEvent, logger *zap.SugaredLogger) AuditLogger {
	return &auditLogger{
		eventChan: eventChan,
		logger:    logger,
	}
}

// Log sends an audit event without blocking the caller.
func (a *auditLogger) Log(action string, names []string, ipAddress string) {
	event := models.AuditEvent{
		TS:        time.Now().Format(time.RFC3339),
		Action:    action,
		Metrics:   names,
		IPAddress: ipAddress,
	}

	select {
	case a.eventChan <- event:
	default:
		// Channel is full, drop the event to prevent blocking
		a.logger.Warnw("audit: dropped event, channel is full", "action", action)
	}
}

type nopLogger struct{}

// NewNopLogger returns an AuditLogger that discards every event.
func NewNopLogger() AuditLogger {
	return nopLogger{}
}

func (nopLogger) Log(string, []string, string) {}

// Broadcaster distributes audit events to multiple subscriber channels.
//
// It receives events from a source channel and sends them to all provided subscriber channels
// using select with default case to prevent blocking. Subscriber channels are closed
// once source is drained.
func Broadcaster(source <-chan models.AuditEvent, logger *zap.SugaredLogger, subs ...chan<- models.AuditEvent) {
	defer func() {
		for _, subChan := range subs {
			close(subChan)
		}
	}()
	for evt := range source {
		for _, subChan := range subs {
			select {
			case subChan <- evt:
			default:
				logger.Warn("audit: dropped event for blocked subscriber channel")
			}
		}
	}
}

// FileSubscriber appends audit events to a file as JSON lines.
func FileSubscriber(events <-chan models.AuditEvent, path string, logger *zap.SugaredLogger) {
	for evt := range events {
		data, err := json.Marshal(evt)
		if err != nil {
			logger.Errorf("audit: failed to marshal event: %v", err)
			continue
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			logger.Errorf("audit: failed to open file %s: %v", path, err)
			continue
		}
		if _, err = f.Write(append(data, '\n')); err != nil {
			logger.Errorf("audit: failed to write file %s: %v", path, err)
		}
		f.Close()
	}
}

// URLSubscriber posts audit events to an HTTP endpoint.
func URLSubscriber(events <-chan models.AuditEvent, url string, client *http.Client, logger *zap.SugaredLogger) {
	for evt := range events {
		data, err := json.Marshal(evt)
		if err != nil {
			logger.Errorf("audit: failed to marshal event: %v", err)
			continue
		}
		resp, err := client.Post(url, "application/json", bytes.NewReader(data))
		if err != nil {
			logger.Errorf("audit: failed to send event to %s: %v", url, err)
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}

// Start wires the configured subscribers behind a broadcaster and returns the
// logger feeding it. The returned stop function closes the pipeline and waits
// for subscribers to drain. Without any configured sink a no-op logger is returned.
func Start(cfg *config.ServerConfig, logger *zap.SugaredLogger) (AuditLogger, func()) {
	if cfg.AuditFile == "" && cfg.AuditURL == "" {
		return NewNopLogger(), func() {}
	}

	source := make(chan models.AuditEvent, bufferSize)
	var (
		subs []chan<- models.AuditEvent
		wg   sync.WaitGroup
	)

	if cfg.AuditFile != "" {
		ch := make(chan models.AuditEvent, bufferSize)
		subs = append(subs, ch)
		wg.Add(1)
		go func() {
			defer wg.Done()
			FileSubscriber(ch, cfg.AuditFile, logger)
		}()
	}
	if cfg.AuditURL != "" {
		ch := make(chan models.AuditEvent, bufferSize)
		subs = append(subs, ch)
		wg.Add(1)
		go func() {
			defer wg.Done()
			URLSubscriber(ch, cfg.AuditURL, &http.Client{Timeout: 5 * time.Second}, logger)
		}()
	}

	go Broadcaster(source, logger, subs...)

	stop := func() {
		close(source)
		wg.Wait()
	}
	return NewAuditLogger(source, logger), stop
}

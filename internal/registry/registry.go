// Package registry holds the authoritative set of named gauges.
//
// Every gauge lives in memory for the lifetime of the process. Its value is an
// atomic owned by the registry; backends receive an accessor and read it when
// they export. Creation is an atomic check-and-insert under the registry lock,
// so racing creates of the same name produce exactly one gauge.
package registry

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Schera-ole/obsmetrics/internal/backend"
	"github.com/Schera-ole/obsmetrics/internal/config"
	internalerrors "github.com/Schera-ole/obsmetrics/internal/errors"
)

// Result is the outcome of a registry mutation.
type Result int

const (
	Failed Result = iota
	Created
	AlreadyExists
	Updated
	NotFound
	Deleted
)

var resultMessages = map[Result]string{
	Failed:        "Metric operation failed",
	Created:       "Metric created",
	AlreadyExists: "Metric already exists",
	Updated:       "Metric updated",
	NotFound:      "Metric not found",
	Deleted:       "Metric deleted",
}

func (r Result) String() string {
	if msg, ok := resultMessages[r]; ok {
		return msg
	}
	return "Result(" + strconv.Itoa(int(r)) + ")"
}

type gauge struct {
	value        atomic.Int64
	registration backend.Registration
}

// MetricRegistry maps metric names to live gauges.
type MetricRegistry struct {
	mu      sync.RWMutex
	gauges  map[string]*gauge
	backend backend.Backend
	origin  string
}

// New creates an empty registry registering gauges with b, each labelled with origin.
func New(b backend.Backend, origin string) *MetricRegistry {
	return &MetricRegistry{
		gauges:  make(map[string]*gauge),
		backend: b,
		origin:  origin,
	}
}

// Create registers a new gauge named name with the initial value.
// An existing name yields AlreadyExists and leaves its value untouched.
// Names are checked by the backend; a name any backend rejects yields
// ErrInvalidMetricName.
func (r *MetricRegistry) Create(name string, value int64) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.gauges[name]; exists {
		return AlreadyExists, nil
	}

	g := &gauge{}
	g.value.Store(value)

	registration, err := r.backend.Register(backend.Descriptor{
		Name:   name,
		Help:   "Metric " + name,
		Labels: map[string]string{config.OriginLabel: r.origin},
	}, g.value.Load)
	if err != nil {
		if errors.Is(err, internalerrors.ErrInvalidMetricName) {
			return Failed, err
		}
		return Failed, fmt.Errorf("%w: %w", internalerrors.ErrBackendRegister, err)
	}
	g.registration = registration

	r.gauges[name] = g
	return Created, nil
}

// Update overwrites the value of an existing gauge. Unknown names are not created.
func (r *MetricRegistry) Update(name string, value int64) Result {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, exists := r.gauges[name]
	if !exists {
		return NotFound
	}
	g.value.Store(value)
	return Updated
}

// Delete unregisters the gauge from the backend and forgets it.
func (r *MetricRegistry) Delete(name string) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, exists := r.gauges[name]
	if !exists {
		return NotFound, nil
	}
	delete(r.gauges, name)

	if err := g.registration.Unregister(); err != nil {
		return Deleted, fmt.Errorf("unregister gauge %q: %w", name, err)
	}
	return Deleted, nil
}

// Get returns the current value of a gauge.
func (r *MetricRegistry) Get(name string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, exists := r.gauges[name]
	if !exists {
		return 0, false
	}
	return g.value.Load(), true
}

// ReadAll returns every gauge with its value rendered as a decimal string.
func (r *MetricRegistry) ReadAll() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]string, len(r.gauges))
	for name, g := range r.gauges {
		result[name] = strconv.FormatInt(g.value.Load(), 10)
	}
	return result
}

// Len returns the number of gauges.
func (r *MetricRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.gauges)
}

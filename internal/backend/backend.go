// Package backend adapts external metrics systems to the gauge registry.
//
// A backend is handed a descriptor and a value accessor for every gauge. The
// registry keeps ownership of the value; backends read it whenever they export,
// on scrape for Prometheus or on each push interval for OTLP.
package backend

// ValueFunc returns the current value of a gauge.
type ValueFunc func() int64

// Descriptor identifies a gauge towards a backend.
type Descriptor struct {
	// Name is the gauge name, unique per backend
	Name string

	// Help is the human readable description
	Help string

	// Labels are constant labels attached to every sample
	Labels map[string]string
}

// Registration is a live gauge inside a backend.
type Registration interface {
	// Unregister removes the gauge from the backend.
	Unregister() error
}

// Backend registers gauges with an external metrics system.
type Backend interface {
	// Register exposes a gauge whose value is read through value.
	Register(desc Descriptor, value ValueFunc) (Registration, error)
}

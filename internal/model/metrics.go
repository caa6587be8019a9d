// Package models defines the data structures used throughout the metrics API.
package models

// Metric represents a single gauge with its name and current value.
type Metric struct {
	// Name is the unique identifier for the metric
	Name string `json:"name"`

	// Value is the current gauge value
	Value int64 `json:"value"`
}

// Agent is a remote peer that receives kicks.
type Agent struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
}

// Valid reports whether the agent carries a usable address.
func (a Agent) Valid() bool {
	return a.IP != "" && a.Port > 0 && a.Port <= 65535
}

// KickRequest is the body of a kick, both received and forwarded to agents.
type KickRequest struct {
	// Count is the number of remaining hops; nil means the default
	Count *int `json:"count,omitempty"`

	// Sender names the peer that sent the kick; nil for the initial one
	Sender *string `json:"sender,omitempty"`
}

// AuditEvent represents an audit log entry for a mutating operation.
type AuditEvent struct {
	// TS is the timestamp of the event in ISO 8601 format
	TS string `json:"ts"`

	// Action is the operation that produced the event, e.g. "metric.create"
	Action string `json:"action"`

	// Metrics is a list of metric or agent names affected by the operation
	Metrics []string `json:"metrics"`

	// IPAddress is the IP address of the client that initiated the operation
	IPAddress string `json:"ip_address"`
}

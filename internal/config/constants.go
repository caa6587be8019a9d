// Package config provides configuration for the metrics API server.
package config

const (
	// OriginLabel is the label attached to every gauge to identify where it was created.
	OriginLabel = "metricOrigin"

	// DefaultOrigin is the origin label value used when none is configured.
	DefaultOrigin = "src"

	// DefaultKickCount is the number of hops a kick travels when the caller omits it.
	DefaultKickCount = 3

	// InitialKickSender names the sender of a kick that did not come from another agent.
	InitialKickSender = "INITIAL KICK"
)

// Audit actions.
const (
	ActionMetricCreate  = "metric.create"
	ActionMetricUpdate  = "metric.update"
	ActionMetricDelete  = "metric.delete"
	ActionAgentRegister = "agent.register"
	ActionAgentDelete   = "agent.delete"
)

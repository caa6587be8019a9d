package errors

import "errors"

var (
	// Metric errors
	ErrMetricNotFound    = errors.New("metric not found")
	ErrInvalidMetricName = errors.New("invalid metric name")
	ErrBackendRegister   = errors.New("gauge registration failed")

	// Agent errors
	ErrAgentNotFound = errors.New("agent not found")
	ErrInvalidAgent  = errors.New("valid IP and port required")
	ErrKickFailed    = errors.New("kick failed")

	// Database errors
	ErrDatabaseConnection = errors.New("database connection failed")
	ErrQueryExecution     = errors.New("query execution failed")
)

// Package repository persists metrics and agents so they survive a restart.
package repository

import (
	"context"

	models "github.com/Schera-ole/obsmetrics/internal/model"
)

// Repository is the write-through store behind the in-memory registries.
type Repository interface {
	SetMetric(ctx context.Context, name string, value int64) error
	DeleteMetric(ctx context.Context, name string) error
	ListMetrics(ctx context.Context) ([]models.Metric, error)
	SetAgent(ctx context.Context, id string, agent models.Agent) error
	DeleteAgent(ctx context.Context, id string) error
	ListAgents(ctx context.Context) (map[string]models.Agent, error)
	Ping(ctx context.Context) error
	Close() error
}

// Package service provides the business logic layer for the metrics API.
package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"go.uber.org/zap"

	"github.com/Schera-ole/obsmetrics/internal/agent"
	internalerrors "github.com/Schera-ole/obsmetrics/internal/errors"
	models "github.com/Schera-ole/obsmetrics/internal/model"
	"github.com/Schera-ole/obsmetrics/internal/registry"
	"github.com/Schera-ole/obsmetrics/internal/repository"
)

// MetricsService coordinates the in-memory registries with the repository.
//
// The registries are authoritative. Every successful mutation is written through
// to the repository while a per-key lock is held, so the store sees mutations of
// one key in the same order as memory. A repository failure is logged and does
// not fail the call.
type MetricsService struct {
	// metrics holds the live gauges
	metrics *registry.MetricRegistry

	// agents holds the registered agents
	agents *agent.Registry

	// kicker forwards kicks to agents
	kicker *agent.Kicker

	// repository is the underlying data storage implementation
	repository repository.Repository

	// metricLocks and agentLocks order the in-memory change and its write-through per key
	metricLocks keyLocks
	agentLocks  keyLocks

	logger *zap.SugaredLogger
}

const lockStripes = 64

// keyLocks is a fixed set of mutexes; a key always maps to the same one.
type keyLocks [lockStripes]sync.Mutex

func (l *keyLocks) lock(key string) func() {
	h := fnv.New32a()
	h.Write([]byte(key))
	m := &l[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}

// NewMetricsService creates a new MetricsService.
func NewMetricsService(
	metrics *registry.MetricRegistry,
	agents *agent.Registry,
	kicker *agent.Kicker,
	repo repository.Repository,
	logger *zap.SugaredLogger,
) *MetricsService {

	return &MetricsService{
		metrics:    metrics,
		agents:     agents,
		kicker:     kicker,
		repository: repo,
		logger:     logger,
	}
}

// CreateMetric registers a new gauge and persists its initial value.
func (ms *MetricsService) CreateMetric(ctx context.Context, name string, value int64) (registry.Result, error) {
	defer ms.metricLocks.lock(name)()

	result, err := ms.metrics.Create(name, value)
	if err != nil {
		return result, err
	}
	if result == registry.Created {
		ms.persist("save metric", name, ms.repository.SetMetric(ctx, name, value))
	}
	return result, nil
}

// UpdateMetric overwrites the value of an existing gauge.
func (ms *MetricsService) UpdateMetric(ctx context.Context, name string, value int64) registry.Result {
	defer ms.metricLocks.lock(name)()

	result := ms.metrics.Update(name, value)
	if result == registry.Updated {
		ms.persist("save metric", name, ms.repository.SetMetric(ctx, name, value))
	}
	return result
}

// DeleteMetric removes a gauge from the registry, its backends and the repository.
func (ms *MetricsService) DeleteMetric(ctx context.Context, name string) (registry.Result, error) {
	defer ms.metricLocks.lock(name)()

	result, err := ms.metrics.Delete(name)
	if result == registry.Deleted {
		ms.persist("delete metric", name, ms.repository.DeleteMetric(ctx, name))
	}
	return result, err
}

// GetMetric returns the current value of a gauge.
func (ms *MetricsService) GetMetric(name string) (int64, error) {

	value, ok := ms.metrics.Get(name)
	if !ok {
		return 0, internalerrors.ErrMetricNotFound
	}
	return value, nil
}

// ListMetrics returns every gauge name with its value as a string.
func (ms *MetricsService) ListMetrics() map[string]string {

	return ms.metrics.ReadAll()
}

// RegisterAgent validates and stores an agent.
func (ms *MetricsService) RegisterAgent(ctx context.Context, id string, a models.Agent) error {

	if id == "" || !a.Valid() {
		return internalerrors.ErrInvalidAgent
	}
	defer ms.agentLocks.lock(id)()
	ms.agents.Register(id, a)
	ms.persist("save agent", id, ms.repository.SetAgent(ctx, id, a))
	return nil
}

// DeleteAgent removes an agent.
func (ms *MetricsService) DeleteAgent(ctx context.Context, id string) error {
	defer ms.agentLocks.lock(id)()

	if !ms.agents.Delete(id) {
		return internalerrors.ErrAgentNotFound
	}
	ms.persist("delete agent", id, ms.repository.DeleteAgent(ctx, id))
	return nil
}

// ListAgents returns every registered agent keyed by id.
func (ms *MetricsService) ListAgents() map[string]models.Agent {

	return ms.agents.All()
}

// Kick forwards a kick to all registered agents.
func (ms *MetricsService) Kick(ctx context.Context, req models.KickRequest) error {

	return ms.kicker.Kick(ctx, req)
}

// Ping checks the repository connection.
func (ms *MetricsService) Ping(ctx context.Context) error {

	return ms.repository.Ping(ctx)
}

// Restore loads persisted metrics and agents into the registries.
func (ms *MetricsService) Restore(ctx context.Context) error {

	metrics, err := ms.repository.ListMetrics(ctx)
	if err != nil {
		return fmt.Errorf("error restoring metrics: %w", err)
	}
	for _, m := range metrics {
		if _, err := ms.metrics.Create(m.Name, m.Value); err != nil {
			ms.logger.Warnf("skipping stored metric %s: %v", m.Name, err)
		}
	}

	agents, err := ms.repository.ListAgents(ctx)
	if err != nil {
		return fmt.Errorf("error restoring agents: %w", err)
	}
	for id, a := range agents {
		ms.agents.Register(id, a)
	}

	ms.logger.Infof("restored %d metrics and %d agents", ms.metrics.Len(), len(agents))
	return nil
}

func (ms *MetricsService) persist(op, name string, err error) {
	if err != nil {
		ms.logger.Errorw("repository write failed", "op", op, "name", name, "error", err)
	}
}

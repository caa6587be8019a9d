package repository

import (
	"context"
	"sort"
	"sync"

	models "github.com/Schera-ole/obsmetrics/internal/model"
)

// MemStorage implements the Repository interface using in-memory storage.
type MemStorage struct {
	// mu provides thread-safe access to the storage maps
	mu sync.RWMutex

	// metrics stores metric values by name
	metrics map[string]int64

	// agents stores agent addresses by id
	agents map[string]models.Agent
}

// NewMemStorage creates a new in-memory storage instance.
func NewMemStorage() *MemStorage {

	return &MemStorage{
		metrics: make(map[string]int64),
		agents:  make(map[string]models.Agent),
	}
}

// SetMetric stores the value of a metric, creating it if needed.
func (ms *MemStorage) SetMetric(ctx context.Context, name string, value int64) error {

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.metrics[name] = value
	return nil
}

// DeleteMetric removes a metric from memory storage.
func (ms *MemStorage) DeleteMetric(ctx context.Context, name string) error {

	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.metrics, name)
	return nil
}

// ListMetrics returns all metrics stored in memory, sorted by name.
func (ms *MemStorage) ListMetrics(ctx context.Context) ([]models.Metric, error) {

	ms.mu.RLock()
	result := make([]models.Metric, 0, len(ms.metrics))
	for name, value := range ms.metrics {
		result = append(result, models.Metric{Name: name, Value: value})
	}
	ms.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// SetAgent stores the address of an agent.
func (ms *MemStorage) SetAgent(ctx context.Context, id string, agent models.Agent) error {

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.agents[id] = agent
	return nil
}

// DeleteAgent removes an agent from memory storage.
func (ms *MemStorage) DeleteAgent(ctx context.Context, id string) error {

	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.agents, id)
	return nil
}

// ListAgents returns a copy of all stored agents.
func (ms *MemStorage) ListAgents(ctx context.Context) (map[string]models.Agent, error) {

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	result := make(map[string]models.Agent, len(ms.agents))
	for id, agent := range ms.agents {
		result[id] = agent
	}
	return result, nil
}

// Close releases any resources held by the memory storage.
func (ms *MemStorage) Close() error {

	return nil
}

// Ping checks the health of the memory storage.
//
// For MemStorage, this always returns nil since there are no external dependencies.
func (ms *MemStorage) Ping(ctx context.Context) error {
	return nil
}

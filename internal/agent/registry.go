// Package agent keeps the set of registered agents and kicks them.
//
// A kick is a hop-counted notification: every receiver forwards it to all of
// its own agents with the count decreased by one, until it reaches zero.
package agent

import (
	"sync"

	models "github.com/Schera-ole/obsmetrics/internal/model"
)

// Registry stores agents by id.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]models.Agent
}

// NewRegistry creates an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]models.Agent)}
}

// Register stores the agent under id, replacing any previous address.
func (r *Registry) Register(id string, agent models.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[id] = agent
}

// Delete removes the agent and reports whether it was present.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[id]; !exists {
		return false
	}
	delete(r.agents, id)
	return true
}

// All returns a copy of every registered agent keyed by id.
func (r *Registry) All() map[string]models.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]models.Agent, len(r.agents))
	for id, agent := range r.agents {
		result[id] = agent
	}
	return result
}

package agent

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/Schera-ole/obsmetrics/internal/model"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register("waiter-1", models.Agent{IP: "10.0.0.1", Port: 8080})

	agent, ok := r.All()["waiter-1"]
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1", agent.IP)
	assert.Equal(t, 8080, agent.Port)

	// re-registering replaces the address
	r.Register("waiter-1", models.Agent{IP: "10.0.0.2", Port: 9090})
	agent = r.All()["waiter-1"]
	assert.Equal(t, "10.0.0.2", agent.IP)
}

func TestRegistry_Delete(t *testing.T) {
	r := NewRegistry()
	r.Register("cook-1", models.Agent{IP: "1.1.1.1", Port: 8080})

	assert.True(t, r.Delete("cook-1"))
	assert.False(t, r.Delete("cook-1"))
	_, ok := r.All()["cook-1"]
	assert.False(t, ok)
}

func TestRegistry_AllReturnsCopy(t *testing.T) {
	r := NewRegistry()
	r.Register("a", models.Agent{IP: "1.1.1.1", Port: 1})

	all := r.All()
	delete(all, "a")

	_, ok := r.All()["a"]
	assert.True(t, ok)
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(port int) {
			defer wg.Done()
			r.Register("agent", models.Agent{IP: "1.1.1.1", Port: port})
			_ = r.All()
		}(i + 1)
	}
	wg.Wait()
	assert.Len(t, r.All(), 1)
}

func TestAgent_Valid(t *testing.T) {
	assert.True(t, models.Agent{IP: "1.1.1.1", Port: 8080}.Valid())
	assert.False(t, models.Agent{IP: "", Port: 8080}.Valid())
	assert.False(t, models.Agent{IP: "1.1.1.1", Port: 0}.Valid())
	assert.False(t, models.Agent{IP: "1.1.1.1", Port: 70000}.Valid())
}

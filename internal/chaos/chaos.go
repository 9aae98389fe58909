// Package chaos holds the test-only fault injection state. An armed endpoint
// fails roughly half of its requests with a 500 until it is disarmed again.
package chaos

import (
	"math/rand"
	"sync"
)

type rule struct {
	armed  bool
	method string
}

// Manager tracks which endpoints have chaos armed. The zero value is not
// usable; construct with NewManager. Safe for concurrent use.
type Manager struct {
	mu    sync.RWMutex
	rules map[string]rule
}

func NewManager() *Manager {
	return &Manager{rules: map[string]rule{}}
}

// SetChaos arms or disarms chaos for an endpoint. An empty method matches
// every method.
func (m *Manager) SetChaos(endpoint string, armed bool, method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[endpoint] = rule{armed: armed, method: method}
}

// HasChaos reports whether chaos is armed for the endpoint and method.
func (m *Manager) HasChaos(endpoint, method string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rules[endpoint]
	if !ok || !r.armed {
		return false
	}
	if r.method == "" {
		return true
	}
	return r.method == method
}

// Strike reports whether an armed endpoint should fail this request.
func Strike() bool {
	return rand.Float64() < 0.5
}

package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/aristath/fxrisk/internal/domain"
)

// MockSimulationSource is a thread-safe mock implementation of
// domain.SimulationSource for testing. Results are keyed by exposure and
// horizon; calls are counted so tests can assert cache behavior.
type MockSimulationSource struct {
	mu      sync.RWMutex
	results map[string]*domain.SimulationResult
	calls   int
	err     error
}

// NewMockSimulationSource creates a new mock simulation source
func NewMockSimulationSource() *MockSimulationSource {
	return &MockSimulationSource{
		results: make(map[string]*domain.SimulationResult),
	}
}

func mockSimulationKey(exposureID string, horizonDays int) string {
	return fmt.Sprintf("%s:%d", exposureID, horizonDays)
}

// SetResult sets the result to return for an exposure and horizon
func (m *MockSimulationSource) SetResult(result *domain.SimulationResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[mockSimulationKey(result.ExposureID, result.TimeHorizonDays)] = result
}

// SetError sets the error to return
func (m *MockSimulationSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times GetSimulation has been invoked
func (m *MockSimulationSource) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// GetSimulation implements domain.SimulationSource
func (m *MockSimulationSource) GetSimulation(ctx context.Context, exposureID string, horizonDays int) (*domain.SimulationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	result, ok := m.results[mockSimulationKey(exposureID, horizonDays)]
	if !ok {
		return nil, fmt.Errorf("no simulation configured for %s over %d days", exposureID, horizonDays)
	}
	return result, nil
}

// Verify interface implementation
var _ domain.SimulationSource = (*MockSimulationSource)(nil)

package mocks

import (
	"github.com/mcdonaldj/docswap/internal/config"
	"github.com/mcdonaldj/docswap/internal/ports"
)

// MockTUIService implements ports.TUIService for testing.
type MockTUIService struct {
	// ConfigResult is the config to return from LoadConfig
	ConfigResult *config.Config
	// ConfigError is the error to return from LoadConfig
	ConfigError error

	// RunResults maps input paths to run results
	RunResults map[string]ports.TUIRunResult

	// Call tracking
	LoadConfigCalls int
	RunCalls        []RunCall
}

// RunCall records parameters of a Run call.
type RunCall struct {
	Path string
	Sub  ports.Substitution
}

// NewMockTUIService creates a new mock TUI service.
func NewMockTUIService() *MockTUIService {
	return &MockTUIService{
		ConfigResult: &config.Config{},
		RunResults:   make(map[string]ports.TUIRunResult),
	}
}

// LoadConfig loads the application configuration.
func (m *MockTUIService) LoadConfig() (*config.Config, error) {
	m.LoadConfigCalls++
	if m.ConfigError != nil {
		return nil, m.ConfigError
	}
	return m.ConfigResult, nil
}

// Run returns the configured result for path, or an empty success.
func (m *MockTUIService) Run(cfg *config.Config, path string, sub ports.Substitution) ports.TUIRunResult {
	m.RunCalls = append(m.RunCalls, RunCall{Path: path, Sub: sub})
	if result, ok := m.RunResults[path]; ok {
		return result
	}
	return ports.TUIRunResult{}
}

// Compile-time check that MockTUIService implements ports.TUIService.
var _ ports.TUIService = (*MockTUIService)(nil)

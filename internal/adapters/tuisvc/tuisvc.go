// Package tuisvc provides the real implementation of ports.TUIService.
package tuisvc

import (
	"go.uber.org/zap"

	"github.com/mcdonaldj/docswap/internal/batch"
	"github.com/mcdonaldj/docswap/internal/config"
	"github.com/mcdonaldj/docswap/internal/metrics"
	"github.com/mcdonaldj/docswap/internal/ports"
)

// Service implements ports.TUIService using the batch processor.
type Service struct {
	logger *zap.Logger
}

// New creates a new TUI service. Logs are discarded so they cannot
// corrupt the alternate screen.
func New() *Service {
	return &Service{logger: zap.NewNop()}
}

// LoadConfig loads the application configuration.
func (s *Service) LoadConfig() (*config.Config, error) {
	return config.Load()
}

// Run applies sub to the file or archive at path.
func (s *Service) Run(cfg *config.Config, path string, sub ports.Substitution) ports.TUIRunResult {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return ports.TUIRunResult{Error: err}
	}

	res, err := batch.NewDefault(cfg, s.logger, metrics.NopRecorder{}).Run(expanded, sub)
	if err != nil {
		return ports.TUIRunResult{Error: err}
	}

	result := ports.TUIRunResult{
		Output:  res.Output,
		Archive: res.Archive,
	}
	for _, o := range res.Outcomes {
		result.Files = append(result.Files, ports.TUIFileResult{
			Source: o.Source,
			Output: o.Output,
			Error:  o.Err,
		})
	}
	return result
}

// Compile-time check that Service implements ports.TUIService.
var _ ports.TUIService = (*Service)(nil)

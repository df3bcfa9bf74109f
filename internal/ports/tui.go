package ports

import "github.com/mcdonaldj/docswap/internal/config"

// TUIFileResult describes what happened to one file during a run.
type TUIFileResult struct {
	Source string
	Output string
	Error  error
}

// TUIRunResult contains the result of a substitution run.
type TUIRunResult struct {
	Output  string // produced file or archive, empty when nothing was produced
	Archive bool
	Files   []TUIFileResult
	Error   error
}

// TUIService provides operations needed by the TUI.
// This abstraction allows the TUI to be tested without touching real documents.
type TUIService interface {
	// LoadConfig loads the application configuration.
	LoadConfig() (*config.Config, error)

	// Run applies sub to the file or archive at path.
	Run(cfg *config.Config, path string, sub Substitution) TUIRunResult
}

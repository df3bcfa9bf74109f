// Package cli provides the command-line interface with injectable io.Writer for testing.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/mcdonaldj/docswap/internal/batch"
	"github.com/mcdonaldj/docswap/internal/config"
	"github.com/mcdonaldj/docswap/internal/dispatch"
	"github.com/mcdonaldj/docswap/internal/logging"
	"github.com/mcdonaldj/docswap/internal/metrics"
	"github.com/mcdonaldj/docswap/internal/ports"
	"github.com/mcdonaldj/docswap/internal/verify"
)

// ConfigService provides configuration operations for the CLI.
type ConfigService interface {
	Load() (*config.Config, error)
	Save(cfg *config.Config) error
	ConfigPath() (string, error)
	DefaultConfig() (*config.Config, error)
}

// ReplaceService runs substitutions for the CLI.
type ReplaceService interface {
	Run(cfg *config.Config, logger *zap.Logger, recorder metrics.Recorder, path string, sub ports.Substitution) (*batch.Result, error)
	Extensions(cfg *config.Config) []string
}

// VerifyService checks run reports for the CLI.
type VerifyService interface {
	Verify(reportPath string) (*verify.Result, error)
}

// CLI represents the command-line interface with injectable dependencies.
type CLI struct {
	Out     io.Writer // Standard output
	Err     io.Writer // Standard error
	Version string    // Application version
	Args    []string  // Command arguments (like os.Args)

	// Exit function for testability (defaults to os.Exit)
	Exit func(code int)

	// Injectable dependencies (nil means use defaults)
	ConfigSvc  ConfigService
	ReplaceSvc ReplaceService
	VerifySvc  VerifyService

	// Color functions (can be disabled for testing)
	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	gray   func(a ...interface{}) string
	red    func(a ...interface{}) string
}

// New creates a new CLI with default settings.
func New(version string) *CLI {
	return &CLI{
		Out:     os.Stdout,
		Err:     os.Stderr,
		Version: version,
		Args:    os.Args,
		Exit:    os.Exit,
		green:   color.New(color.FgGreen, color.Bold).SprintFunc(),
		yellow:  color.New(color.FgYellow).SprintFunc(),
		cyan:    color.New(color.FgCyan).SprintFunc(),
		gray:    color.New(color.FgHiBlack).SprintFunc(),
		red:     color.New(color.FgRed).SprintFunc(),
	}
}

// NewForTesting creates a CLI configured for testing (no colors, captured output).
func NewForTesting(out, errOut io.Writer, args []string) *CLI {
	noColor := func(a ...interface{}) string { return fmt.Sprint(a...) }
	return &CLI{
		Out:     out,
		Err:     errOut,
		Version: "test",
		Args:    args,
		Exit:    func(int) {},
		green:   noColor,
		yellow:  noColor,
		cyan:    noColor,
		gray:    noColor,
		red:     noColor,
	}
}

// defaultConfigService wraps the config package functions.
type defaultConfigService struct{}

func (d *defaultConfigService) Load() (*config.Config, error)          { return config.Load() }
func (d *defaultConfigService) Save(cfg *config.Config) error          { return cfg.Save() }
func (d *defaultConfigService) ConfigPath() (string, error)            { return config.ConfigPath() }
func (d *defaultConfigService) DefaultConfig() (*config.Config, error) { return config.DefaultConfig() }

// defaultReplaceService wraps the batch processor.
type defaultReplaceService struct{}

func (d *defaultReplaceService) Run(cfg *config.Config, logger *zap.Logger, recorder metrics.Recorder, path string, sub ports.Substitution) (*batch.Result, error) {
	return batch.NewDefault(cfg, logger, recorder).Run(path, sub)
}

func (d *defaultReplaceService) Extensions(cfg *config.Config) []string {
	return dispatch.NewDefault(cfg, nil).Extensions()
}

// Helper methods to get the service or default
func (c *CLI) configSvc() ConfigService {
	if c.ConfigSvc != nil {
		return c.ConfigSvc
	}
	return &defaultConfigService{}
}

func (c *CLI) replaceSvc() ReplaceService {
	if c.ReplaceSvc != nil {
		return c.ReplaceSvc
	}
	return &defaultReplaceService{}
}

func (c *CLI) verifySvc() VerifyService {
	if c.VerifySvc != nil {
		return c.VerifySvc
	}
	return verify.NewDefaultService()
}

// Run executes the CLI with the configured arguments.
func (c *CLI) Run() {
	if len(c.Args) < 2 {
		// No command - would launch TUI, but we skip that for CLI testing
		fmt.Fprintln(c.Out, "No command specified. Use 'docswap help' for usage.")
		return
	}

	switch c.Args[1] {
	case "run":
		c.RunReplace()
	case "verify":
		c.RunVerify()
	case "formats":
		c.ListFormats()
	case "init":
		c.InitConfig()
	case "version", "-v", "--version":
		fmt.Fprintf(c.Out, "docswap v%s\n", c.Version)
	case "help", "-h", "--help":
		c.PrintUsage()
	default:
		fmt.Fprintf(c.Err, "Unknown command: %s\n", c.Args[1])
		c.PrintUsage()
		c.Exit(1)
	}
}

// PrintUsage prints the help message.
func (c *CLI) PrintUsage() {
	fmt.Fprintln(c.Out, `docswap - Literal text substitution for PDF, CSV, XML and XPT files

Usage:
  docswap                                  Launch interactive TUI
  docswap ui                               Launch interactive TUI
  docswap run <path> <old> <new> [--report] [--cleanup]
                                           Replace text in a file, or in every
                                           supported file of a .zip archive
  docswap verify <report.json>             Check a run report against the files on disk
  docswap formats                          List supported file extensions
  docswap init                             Create default config file
  docswap version, -v                      Show version
  docswap help, -h                         Show this help

Config: ~/.docswap/config.yaml (override with DOCSWAP_CONFIG)`)
}

// InitConfig creates the default config file.
func (c *CLI) InitConfig() {
	svc := c.configSvc()
	cfg, err := svc.DefaultConfig()
	if err != nil {
		c.fail("Error: %v", err)
		return
	}
	if err := svc.Save(cfg); err != nil {
		c.fail("Error saving config: %v", err)
		return
	}
	path, err := svc.ConfigPath()
	if err != nil {
		c.fail("Error: %v", err)
		return
	}
	fmt.Fprintf(c.Out, "Created config at %s\n", path)
}

// ListFormats prints the extensions the dispatcher accepts.
func (c *CLI) ListFormats() {
	cfg, err := c.configSvc().Load()
	if err != nil {
		c.fail("Error loading config: %v", err)
		return
	}
	fmt.Fprintln(c.Out, "Supported formats:")
	for _, ext := range c.replaceSvc().Extensions(cfg) {
		fmt.Fprintf(c.Out, "  %s\n", ext)
	}
	fmt.Fprintf(c.Out, "  %s %s\n", ".zip", c.gray("(archive of the above)"))
}

// RunReplace runs the substitution command.
func (c *CLI) RunReplace() {
	var positional []string
	report, cleanup := false, false
	for _, arg := range c.Args[2:] {
		switch arg {
		case "--report":
			report = true
		case "--cleanup":
			cleanup = true
		default:
			positional = append(positional, arg)
		}
	}
	if len(positional) != 3 {
		fmt.Fprintln(c.Err, "Usage: docswap run <path> <old> <new> [--report] [--cleanup]")
		c.Exit(1)
		return
	}

	sub := ports.Substitution{Old: positional[1], New: positional[2]}
	if err := sub.Validate(); err != nil {
		c.fail("Error: %v", err)
		return
	}

	cfg, err := c.configSvc().Load()
	if err != nil {
		c.fail("Error loading config: %v", err)
		return
	}
	cfg.Report = cfg.Report || report
	cfg.Cleanup.ExtractionDir = cfg.Cleanup.ExtractionDir || cleanup

	path, err := config.ExpandPath(positional[0])
	if err != nil {
		c.fail("Error: %v", err)
		return
	}

	logger, err := logging.New(cfg.Log, c.Err)
	if err != nil {
		c.fail("Error: %v", err)
		return
	}
	defer func() { _ = logger.Sync() }()

	var recorder metrics.Recorder = metrics.NopRecorder{}
	var prom *metrics.PrometheusRecorder
	if cfg.MetricsTextfile != "" {
		prom = metrics.NewPrometheusRecorder()
		recorder = prom
	}

	fmt.Fprintf(c.Out, "%s Replacing %q with %q in %s\n", c.cyan("=>"), sub.Old, sub.New, path)
	res, runErr := c.replaceSvc().Run(cfg, logger, recorder, path, sub)

	if prom != nil {
		textfile, err := config.ExpandPath(cfg.MetricsTextfile)
		if err == nil {
			err = prom.WriteTextfile(textfile)
		}
		if err != nil {
			logger.Warn("metrics not written", zap.Error(err))
		}
	}

	if runErr != nil {
		c.fail("Error: %v", runErr)
		return
	}

	if res.Archive {
		c.printArchive(res)
	} else {
		c.printFile(res)
	}
}

// RunVerify checks a run report.
func (c *CLI) RunVerify() {
	if len(c.Args) != 3 {
		fmt.Fprintln(c.Err, "Usage: docswap verify <report.json>")
		c.Exit(1)
		return
	}

	path, err := config.ExpandPath(c.Args[2])
	if err != nil {
		c.fail("Error: %v", err)
		return
	}

	res, err := c.verifySvc().Verify(path)
	if err != nil {
		c.fail("Error: %v", err)
		return
	}

	for _, p := range res.Problems {
		fmt.Fprintf(c.Err, "  %s %s\n", c.red("x"), p)
	}
	if res.Missing > 0 {
		fmt.Fprintf(c.Out, "  %s %d output(s) no longer on disk\n", c.gray("-"), res.Missing)
	}
	if res.Failed > 0 {
		fmt.Fprintf(c.Out, "  %s %d file(s) failed during the run\n", c.yellow("!"), res.Failed)
	}
	if !res.OK() {
		c.fail("Verification failed: %d problem(s)", len(res.Problems))
		return
	}
	fmt.Fprintf(c.Out, "%s %s verified (%d checksum(s))\n", c.green("*"), path, res.Checked)
}

func (c *CLI) printFile(res *batch.Result) {
	if res.Output == "" {
		fmt.Fprintf(c.Out, "  %s %s %s\n", c.gray("-"), res.Input, c.gray("(unsupported format, nothing written)"))
		return
	}
	fmt.Fprintf(c.Out, "  %s %s%s\n", c.green("*"), res.Output, c.sizeOf(res.Output))
}

func (c *CLI) printArchive(res *batch.Result) {
	written, skipped, failed := 0, 0, 0

	fmt.Fprintln(c.Out)
	for _, o := range res.Outcomes {
		name := c.relative(res.ExtractDir, o.Source)
		switch {
		case o.Failed():
			fmt.Fprintf(c.Err, "  %s %s: %v\n", c.red("x"), name, o.Err)
			failed++
		case o.Skipped():
			fmt.Fprintf(c.Out, "  %s %s\n", c.gray("-"), c.gray(name))
			skipped++
		default:
			fmt.Fprintf(c.Out, "  %s %s -> %s\n", c.green("*"), name, c.relative(res.ExtractDir, o.Output))
			written++
		}
	}

	fmt.Fprintln(c.Out)
	fmt.Fprintf(c.Out, "Done: %s written, %s skipped",
		c.green(fmt.Sprintf("%d", written)),
		c.gray(fmt.Sprintf("%d", skipped)))
	if failed > 0 {
		fmt.Fprintf(c.Out, ", %s failed", c.red(fmt.Sprintf("%d", failed)))
	}
	fmt.Fprintln(c.Out)

	if res.Output != "" {
		fmt.Fprintf(c.Out, "Archive: %s%s\n", res.Output, c.sizeOf(res.Output))
	} else {
		fmt.Fprintf(c.Out, "%s No output produced, no archive written\n", c.yellow("!"))
	}
	if res.Report != "" {
		fmt.Fprintf(c.Out, "Report:  %s\n", res.Report)
	}
}

func (c *CLI) sizeOf(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return " " + c.yellow(batch.FormatSize(info.Size()))
}

func (c *CLI) relative(base, path string) string {
	if base == "" {
		return path
	}
	return strings.TrimPrefix(strings.TrimPrefix(path, base), string(os.PathSeparator))
}

func (c *CLI) fail(format string, args ...interface{}) {
	fmt.Fprintln(c.Err, c.red(fmt.Sprintf(format, args...)))
	c.Exit(1)
}

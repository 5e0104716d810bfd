package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/labelbench/pkg/archive"
	"github.com/matzehuels/labelbench/pkg/buildinfo"
	"github.com/matzehuels/labelbench/pkg/config"
	"github.com/matzehuels/labelbench/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "labelbench"

	// defaultListLimit is the number of runs shown by "runs list".
	defaultListLimit = 20
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output. Defaults to os.Stdout.
	Out io.Writer

	// configPath is set by the persistent --config flag.
	configPath string

	// logOut is the writer the logger was created with.
	logOut io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
		logOut: w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "labelbench checks and benchmarks connected components labeling algorithms",
		Long:          `labelbench verifies labeling algorithms against a reference implementation, measures their execution time over image datasets and writes result tables, LaTeX tables and gnuplot scripts.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "configuration file (default: ./"+config.DefaultFile+" if present)")

	// Register all subcommands
	root.AddCommand(c.runCommand())
	root.AddCommand(c.testCommand(pipeline.TestCheck, "check", "Check algorithms against the reference labeler"))
	root.AddCommand(c.testCommand(pipeline.TestAverages, "averages", "Measure average execution time per dataset"))
	root.AddCommand(c.testCommand(pipeline.TestDensity, "density", "Measure execution time by image density and size"))
	root.AddCommand(c.testCommand(pipeline.TestMemory, "memory", "Count memory accesses per algorithm"))
	root.AddCommand(c.algorithmsCommand())
	root.AddCommand(c.runsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the --config file, or ./labelbench.toml when present,
// or falls back to the built-in defaults.
func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultFile); err != nil {
			c.Logger.Debug("no config file, using defaults")
			return config.Default(), nil
		}
		path = config.DefaultFile
	}
	c.Logger.Debug("loading config", "path", path)
	return config.Load(path)
}

// =============================================================================
// Archive
// =============================================================================

// openArchive opens the configured run archive. The file backend defaults to
// the user data directory.
func (c *CLI) openArchive(ctx context.Context, cfg *config.Config, disabled bool) (archive.Store, error) {
	if disabled {
		return archive.NewNullStore(), nil
	}
	opts := cfg.Archive.Options()
	if (opts.Backend == "" || opts.Backend == archive.BackendFile) && opts.Dir == "" {
		dir, err := dataDir()
		if err != nil {
			return archive.NewNullStore(), nil
		}
		opts.Dir = filepath.Join(dir, "runs")
	}
	return archive.Open(ctx, opts)
}

// =============================================================================
// Paths
// =============================================================================

// dataDir returns the data directory using XDG standard (~/.local/share/labelbench/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

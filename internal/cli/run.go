package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/labelbench/pkg/archive"
	"github.com/matzehuels/labelbench/pkg/buildinfo"
	"github.com/matzehuels/labelbench/pkg/config"
	"github.com/matzehuels/labelbench/pkg/observability"
	"github.com/matzehuels/labelbench/pkg/pipeline"
)

// runFlags are the configuration overrides shared by every test command.
type runFlags struct {
	input     string
	output    string
	trials    int
	workers   int
	datasets  []string
	noArchive bool
	progress  bool
}

func (f *runFlags) register(cmd *cobra.Command, withDatasets bool) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "input directory holding the datasets")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output directory for results")
	cmd.Flags().IntVarP(&f.trials, "trials", "n", 0, "number of trials for timed tests (overrides config)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", -1, "parallel workers for the memory test (overrides config)")
	cmd.Flags().BoolVar(&f.noArchive, "no-archive", false, "do not archive the run")
	cmd.Flags().BoolVar(&f.progress, "progress", true, "show a live progress view on terminals")
	if withDatasets {
		cmd.Flags().StringSliceVarP(&f.datasets, "datasets", "d", nil, "datasets to run on (overrides config)")
	}
}

// apply overrides cfg with the flags that were set.
func (f *runFlags) apply(cfg *config.Config, tests []pipeline.Test) {
	if f.input != "" {
		cfg.InputPath = f.input
	}
	if f.output != "" {
		cfg.OutputPath = f.output
	}
	if f.trials > 0 {
		cfg.Averages.Trials = f.trials
		cfg.DensitySize.Trials = f.trials
	}
	if f.workers >= 0 {
		cfg.Workers = f.workers
	}
	if len(f.datasets) == 0 {
		return
	}
	for _, t := range tests {
		switch t {
		case pipeline.TestCheck:
			cfg.Check.Datasets = f.datasets
		case pipeline.TestAverages:
			cfg.Averages.Datasets = f.datasets
		case pipeline.TestDensity:
			cfg.DensitySize.Datasets = f.datasets
		case pipeline.TestMemory:
			cfg.Memory.Datasets = f.datasets
		}
	}
}

// runCommand creates the run command executing every configured test.
func (c *CLI) runCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [test...]",
		Short: "Run the configured tests",
		Long: `Run the tests enabled in the configuration file, in order:
check, averages, density_size and memory.

The check always runs first while at least one algorithm resolves. Naming
tests as arguments runs only those after it, regardless of the perform flags
in the configuration. Each test writes its tables and scripts to the output
directory, and the run summary is archived unless --no-archive is given.`,
		Example: `  labelbench run
  labelbench run averages memory --trials 10
  labelbench run -c bench.toml --no-archive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tests := make([]pipeline.Test, 0, len(args))
			for _, a := range args {
				t, err := pipeline.ParseTest(a)
				if err != nil {
					return err
				}
				tests = append(tests, t)
			}
			return c.runTests(cmd.Context(), flags, tests...)
		},
	}
	flags.register(cmd, false)
	return cmd
}

// testCommand creates a command running a single test.
func (c *CLI) testCommand(test pipeline.Test, use, short string) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
	}
	if test != pipeline.TestCheck {
		cmd.Long = short + ".\n\nThe check runs first on the datasets listed under [check]."
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return c.runTests(cmd.Context(), flags, test)
	}
	flags.register(cmd, true)
	return cmd
}

// runTests loads the configuration, applies flags and executes tests.
func (c *CLI) runTests(ctx context.Context, flags runFlags, tests ...pipeline.Test) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	flags.apply(cfg, tests)
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := c.openArchive(ctx, cfg, flags.noArchive)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer store.Close()

	runner := pipeline.NewRunner(store, c.Logger)
	runner.Version = buildinfo.Version

	counter := &artifactCounter{}
	observability.SetArtifactHooks(counter)
	defer observability.SetArtifactHooks(observability.NoopArtifactHooks{})

	execute := func(ctx context.Context) (*pipeline.Result, error) {
		return runner.Execute(ctx, cfg, tests...)
	}

	var res *pipeline.Result
	if flags.progress && isatty.IsTerminal(os.Stderr.Fd()) {
		res, err = c.runWithProgress(ctx, execute)
	} else {
		prog := newProgress(loggerFromContext(ctx))
		res, err = execute(ctx)
		if err == nil {
			prog.done("Run finished", "tests", len(res.Tests), "failed", len(res.Failed()))
		}
	}
	if err != nil {
		return err
	}

	printResult(c.Out, res)
	printSuccess(c.Out, "Wrote %d files", counter.written.Load())
	printFile(c.Out, cfg.OutputPath)
	if n := counter.failed.Load(); n > 0 {
		printWarning(c.Out, "%d files could not be written", n)
	}
	if failed := res.Failed(); len(failed) > 0 {
		printWarning(c.Out, "%d tests failed", len(failed))
	}
	if _, ok := store.(*archive.NullStore); !ok {
		printNextStep(c.Out, "Show this run", appName+" runs show "+res.ID)
	}
	return nil
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/labelbench/pkg/archive"
	"github.com/matzehuels/labelbench/pkg/pipeline"
)

// runsCommand creates the archive browsing command.
func (c *CLI) runsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Browse archived runs",
	}

	cmd.AddCommand(c.runsListCommand())
	cmd.AddCommand(c.runsShowCommand())

	return cmd
}

// runsListCommand creates the "runs list" subcommand.
func (c *CLI) runsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.archiveFromConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if len(recs) == 0 {
				printInfo(c.Out, "No archived runs")
				return nil
			}
			fmt.Fprintln(c.Out, runsTable(recs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", defaultListLimit, "maximum number of runs to list (0 for all)")
	return cmd
}

// runsShowCommand creates the "runs show" subcommand.
func (c *CLI) runsShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.archiveFromConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.Get(cmd.Context(), args[0])
			if errors.Is(err, archive.ErrNotFound) {
				return fmt.Errorf("run %s not found", args[0])
			}
			if err != nil {
				return fmt.Errorf("get run: %w", err)
			}
			res, err := pipeline.DecodeRecord(rec)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(c.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printKeyValue(c.Out, "Created", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			printKeyValue(c.Out, "Version", rec.Version)
			printKeyValue(c.Out, "Summary", rec.Summary)
			printResult(c.Out, res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run as JSON")
	return cmd
}

// archiveFromConfig opens the archive named in the configuration, showing a
// spinner while remote backends connect.
func (c *CLI) archiveFromConfig(ctx context.Context) (archive.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if b := cfg.Archive.Backend; b == archive.BackendRedis || b == archive.BackendMongo {
		spinner := newSpinner(ctx, os.Stderr, "Connecting to "+b+"...")
		spinner.Start()
		store, err := c.openArchive(ctx, cfg, false)
		if err != nil {
			spinner.StopWithError("Cannot reach " + b)
			return nil, fmt.Errorf("open archive: %w", err)
		}
		spinner.Stop()
		return store, nil
	}
	store, err := c.openArchive(ctx, cfg, false)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return store, nil
}

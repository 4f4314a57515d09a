// Package cli implements the footprintctl command tree.
package cli

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/footprint/internal/app"
	"github.com/dukerupert/footprint/internal/database"
	"github.com/dukerupert/footprint/internal/footprint"
	"github.com/dukerupert/footprint/internal/logging"
	"github.com/dukerupert/footprint/internal/model"
)

// env is the state shared by every subcommand once the root pre-run has
// opened the database.
type env struct {
	dbPath     string
	configPath string
	logLevel   string
	jsonOut    bool
	now        func() time.Time

	db     *sql.DB
	cfg    *footprint.Config
	engine *footprint.Engine
	logger *slog.Logger
}

// NewRootCmd creates the footprintctl root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(time.Now)
}

func newRootCmd(now func() time.Time) *cobra.Command {
	e := &env{now: now}

	defaultDB := os.Getenv("FOOTPRINT_DB_PATH")
	if defaultDB == "" {
		defaultDB = "footprint.db"
	}

	cmd := &cobra.Command{
		Use:           "footprintctl",
		Short:         "Household carbon footprint administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.open(cmd.ErrOrStderr())
		},
		Example: `  # Load the default emission factors and tip catalog
  footprintctl seed

  # Compute today's footprint for household 3
  footprintctl compute --household 3

  # Recompute every household with 8 workers
  footprintctl recompute --all --concurrency 8`,
	}

	cmd.SetOut(os.Stdout)

	cmd.PersistentFlags().StringVar(&e.dbPath, "db", defaultDB, "path to the SQLite database")
	cmd.PersistentFlags().StringVar(&e.configPath, "config", os.Getenv("FOOTPRINT_ENGINE_CONFIG"), "engine configuration overlay (YAML)")
	cmd.PersistentFlags().StringVar(&e.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&e.jsonOut, "json", false, "print results as JSON")

	cmd.AddCommand(
		newSeedCmd(e),
		newComputeCmd(e),
		newRecomputeCmd(e),
		newRecommendCmd(e),
		newTipsCmd(e),
		newImpactCmd(e),
		newSummaryCmd(e),
		newBaselinesCmd(e),
	)
	return cmd
}

func (e *env) open(stderr io.Writer) error {
	e.logger = logging.New(stderr, e.logLevel, "text")

	cfg, err := footprint.LoadConfig(e.configPath)
	if err != nil {
		return err
	}
	e.cfg = cfg

	db, err := database.Open(e.dbPath)
	if err != nil {
		return err
	}
	e.db = db
	e.engine = app.NewEngine(db, cfg, e.logger, footprint.WithClock(e.now))
	return nil
}

func (e *env) close() error {
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	return err
}

// run wraps a subcommand so the database is closed however it exits.
func (e *env) run(fn func(cmd *cobra.Command) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		err := fn(cmd)
		if cerr := e.close(); err == nil {
			err = cerr
		}
		return err
	}
}

func (e *env) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireHousehold(id int64) error {
	if id <= 0 {
		return fmt.Errorf("--household is required")
	}
	return nil
}

func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(model.DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// Package app wires the footprint engine to the SQLite stores.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukerupert/footprint/internal/footprint"
	"github.com/dukerupert/footprint/internal/store"
)

// NewEngine builds an engine whose collaborators are the stores over db.
func NewEngine(db *sql.DB, cfg *footprint.Config, logger *slog.Logger, opts ...footprint.Option) *footprint.Engine {
	return footprint.New(cfg, footprint.Deps{
		Households: store.NewHouseholdStore(db),
		Activities: store.NewActivityStore(db),
		Snapshots:  store.NewFootprintStore(db),
		Tips:       store.NewTipStore(db),
		Factors:    store.NewEmissionFactorStore(db),
	}, logger.With("component", "engine"), opts...)
}

type SeedResult struct {
	Factors int
	Tips    int
}

// Seed inserts the configured emission factors and the tip catalog. Rows
// that already exist are left untouched, so it is safe to run repeatedly.
func Seed(db *sql.DB, cfg *footprint.Config) (SeedResult, error) {
	var res SeedResult
	var err error

	res.Factors, err = store.NewEmissionFactorStore(db).Seed(cfg.SeedFactors())
	if err != nil {
		return res, fmt.Errorf("seed emission factors: %w", err)
	}
	res.Tips, err = store.NewTipStore(db).Seed(footprint.SeedTips())
	if err != nil {
		return res, fmt.Errorf("seed tips: %w", err)
	}
	return res, nil
}

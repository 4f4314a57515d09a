// Package footprint computes household carbon footprints from activity
// records and ranks reduction advice against the result.
package footprint

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dukerupert/footprint/internal/model"
)

var (
	ErrHouseholdNotFound = errors.New("household not found")
	ErrTipNotFound       = errors.New("tip not found")
)

// HouseholdSource is satisfied by store.HouseholdStore.
type HouseholdSource interface {
	GetByID(id int64) (*model.Household, error)
}

// ActivitySource is satisfied by store.ActivityStore.
type ActivitySource interface {
	ListEnergy(householdID int64, from, to time.Time) ([]model.EnergyUsage, error)
	ListTransportation(householdID int64, from, to time.Time) ([]model.Transportation, error)
	ListDiet(householdID int64, from, to time.Time) ([]model.DietEntry, error)
}

// SnapshotStore is satisfied by store.FootprintStore.
type SnapshotStore interface {
	Upsert(fp model.CarbonFootprint) (*model.CarbonFootprint, error)
	Latest(householdID int64) (*model.CarbonFootprint, error)
	List(householdID int64, from, to time.Time) ([]model.CarbonFootprint, error)
}

// TipSource is satisfied by store.TipStore.
type TipSource interface {
	GetByID(id int64) (*model.ReductionTip, error)
	ListActiveByCategory(category string, limit int) ([]model.ReductionTip, error)
}

// Observer is notified after every footprint computation.
type Observer interface {
	ObserveCompute(householdID int64, fp *model.CarbonFootprint, elapsed time.Duration, err error)
}

type Deps struct {
	Households HouseholdSource
	Activities ActivitySource
	Snapshots  SnapshotStore
	Tips       TipSource
	// Factors holds override factors consulted before the built-in table.
	// It may be nil.
	Factors FactorSource
}

type Engine struct {
	cfg        *Config
	households HouseholdSource
	activities ActivitySource
	snapshots  SnapshotStore
	tips       TipSource
	factors    FactorChain
	observers  []Observer
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Engine)

// WithClock sets the source of "today" for computations without an
// explicit date.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

func New(cfg *Config, deps Deps, logger *slog.Logger, opts ...Option) *Engine {
	var chain FactorChain
	if deps.Factors != nil {
		chain = append(chain, NewOverrideFactors(deps.Factors))
	}
	chain = append(chain, cfg.FactorTable())

	e := &Engine{
		cfg:        cfg,
		households: deps.Households,
		activities: deps.Activities,
		snapshots:  deps.Snapshots,
		tips:       deps.Tips,
		factors:    chain,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Config() *Config {
	return e.cfg
}

// Today returns the engine's current calendar date in UTC.
func (e *Engine) Today() time.Time {
	return truncateDay(e.now())
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ResolveFactor returns the kg CO2e per unit for (category, name), or 0 when
// no source defines it. Only a failed override lookup is an error.
func (e *Engine) ResolveFactor(category, name string) (float64, error) {
	return e.factors.Resolve(category, name)
}

func (e *Engine) household(id int64) (*model.Household, error) {
	h, err := e.households.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	if h == nil {
		return nil, ErrHouseholdNotFound
	}
	return h, nil
}

// ComputeFootprint aggregates the household's activity over the year ending
// on date and stores the result as that date's snapshot, replacing any
// earlier snapshot for the same date. A zero date means today.
func (e *Engine) ComputeFootprint(householdID int64, date time.Time) (*model.CarbonFootprint, error) {
	start := time.Now()
	fp, err := e.computeFootprint(householdID, date)
	for _, o := range e.observers {
		o.ObserveCompute(householdID, fp, time.Since(start), err)
	}
	return fp, err
}

func (e *Engine) computeFootprint(householdID int64, date time.Time) (*model.CarbonFootprint, error) {
	h, err := e.household(householdID)
	if err != nil {
		return nil, err
	}

	if date.IsZero() {
		date = e.Today()
	} else {
		date = truncateDay(date)
	}
	w := window{from: date.AddDate(0, 0, -e.cfg.WindowDays), to: date}

	energy, err := e.activities.ListEnergy(h.ID, w.from, w.to)
	if err != nil {
		return nil, fmt.Errorf("list energy usage: %w", err)
	}
	transport, err := e.activities.ListTransportation(h.ID, w.from, w.to)
	if err != nil {
		return nil, fmt.Errorf("list transportation: %w", err)
	}
	diet, err := e.activities.ListDiet(h.ID, w.from, w.to)
	if err != nil {
		return nil, fmt.Errorf("list diet entries: %w", err)
	}

	energyTotal, err := energyEmissions(energy, w, e.factors)
	if err != nil {
		return nil, fmt.Errorf("energy emissions: %w", err)
	}
	transportTotal, err := transportationEmissions(transport, w, e.factors, e.cfg)
	if err != nil {
		return nil, fmt.Errorf("transportation emissions: %w", err)
	}
	dietTotal, err := dietEmissions(diet, w, e.factors, e.cfg)
	if err != nil {
		return nil, fmt.Errorf("diet emissions: %w", err)
	}

	national, global := e.cfg.Baselines.National, e.cfg.Baselines.Global
	fp := model.CarbonFootprint{
		HouseholdID:             h.ID,
		CalculationDate:         date,
		EnergyEmissions:         energyTotal,
		TransportationEmissions: transportTotal,
		DietEmissions:           dietTotal,
		NationalAverage:         &national,
		GlobalAverage:           &global,
	}
	fp.TotalEmissions = fp.EnergyEmissions + fp.TransportationEmissions + fp.DietEmissions
	fp.PerCapitaEmissions = perCapita(fp.TotalEmissions, h.Size)

	saved, err := e.snapshots.Upsert(fp)
	if err != nil {
		return nil, fmt.Errorf("save footprint: %w", err)
	}

	e.logger.Debug("footprint computed",
		"household_id", h.ID,
		"date", date.Format(model.DateLayout),
		"total", saved.TotalEmissions,
	)
	return saved, nil
}

func perCapita(total float64, size int) float64 {
	if size <= 0 {
		return 0
	}
	return total / float64(size)
}

// Latest returns the household's most recent snapshot, computing today's
// when none exists yet.
func (e *Engine) Latest(householdID int64) (*model.CarbonFootprint, error) {
	if _, err := e.household(householdID); err != nil {
		return nil, err
	}
	fp, err := e.snapshots.Latest(householdID)
	if err != nil {
		return nil, fmt.Errorf("latest footprint: %w", err)
	}
	if fp != nil {
		return fp, nil
	}
	return e.ComputeFootprint(householdID, time.Time{})
}

// History returns the household's snapshots dated within [from, to], newest
// first.
func (e *Engine) History(householdID int64, from, to time.Time) ([]model.CarbonFootprint, error) {
	if _, err := e.household(householdID); err != nil {
		return nil, err
	}
	list, err := e.snapshots.List(householdID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list footprints: %w", err)
	}
	return list, nil
}

// Baselines returns the per-person reference emissions.
func (e *Engine) Baselines() Baselines {
	return e.cfg.Baselines
}

// Recommend returns the advice for every category whose emissions exceed
// its threshold, in rule order.
func (e *Engine) Recommend(fp *model.CarbonFootprint) []string {
	recs := []string{}
	if fp == nil {
		return recs
	}
	for _, rule := range e.cfg.Advice {
		v, ok := fp.CategoryEmissions(rule.Category)
		if ok && v > rule.Threshold {
			recs = append(recs, rule.Messages...)
		}
	}
	return recs
}

// rankedCategories orders the categories by the snapshot's emissions,
// highest first. Ties keep energy, transportation, diet order.
func rankedCategories(fp *model.CarbonFootprint) []string {
	cats := []string{model.CategoryEnergy, model.CategoryTransportation, model.CategoryDiet}
	sort.SliceStable(cats, func(i, j int) bool {
		a, _ := fp.CategoryEmissions(cats[i])
		b, _ := fp.CategoryEmissions(cats[j])
		return a > b
	})
	return cats
}

// PersonalizedTips returns active tips from the household's highest
// emitting categories, best savings first within each category.
func (e *Engine) PersonalizedTips(householdID int64) ([]model.ReductionTip, error) {
	fp, err := e.Latest(householdID)
	if err != nil {
		return nil, err
	}

	cats := rankedCategories(fp)
	if n := e.cfg.Ranking.TopCategories; n < len(cats) {
		cats = cats[:n]
	}

	tips := []model.ReductionTip{}
	for _, cat := range cats {
		found, err := e.tips.ListActiveByCategory(cat, e.cfg.Ranking.TipsPerCategory)
		if err != nil {
			return nil, fmt.Errorf("list tips for %s: %w", cat, err)
		}
		tips = append(tips, found...)
	}
	return tips, nil
}

// Impact is the projected effect of adopting a tip.
type Impact struct {
	Tip                 model.ReductionTip `json:"tip"`
	CurrentTotal        float64            `json:"current_total"`
	CategoryEmissions   float64            `json:"category_emissions"`
	Reduction           float64            `json:"potential_reduction"`
	ReductionPercentage float64            `json:"reduction_percentage"`
	ProjectedTotal      float64            `json:"projected_total"`

	// Snapshot is the footprint the estimate was computed from.
	Snapshot *model.CarbonFootprint `json:"-"`
}

// EstimateImpact recomputes today's footprint and estimates how much the tip
// would reduce it. The reduction is capped at a share of the tip's category
// emissions.
func (e *Engine) EstimateImpact(householdID, tipID int64) (*Impact, error) {
	if _, err := e.household(householdID); err != nil {
		return nil, err
	}
	tip, err := e.tips.GetByID(tipID)
	if err != nil {
		return nil, fmt.Errorf("get tip: %w", err)
	}
	if tip == nil {
		return nil, ErrTipNotFound
	}

	fp, err := e.ComputeFootprint(householdID, time.Time{})
	if err != nil {
		return nil, err
	}
	return e.impact(fp, tip), nil
}

func (e *Engine) impact(fp *model.CarbonFootprint, tip *model.ReductionTip) *Impact {
	catEmissions, _ := fp.CategoryEmissions(tip.Category)
	reduction := min(tip.PotentialSavings, catEmissions*e.cfg.Ranking.ImpactCap)

	var pct float64
	if fp.TotalEmissions > 0 {
		pct = reduction / fp.TotalEmissions * 100
	}
	return &Impact{
		Tip:                 *tip,
		CurrentTotal:        fp.TotalEmissions,
		CategoryEmissions:   catEmissions,
		Reduction:           reduction,
		ReductionPercentage: pct,
		ProjectedTotal:      fp.TotalEmissions - reduction,
		Snapshot:            fp,
	}
}

package footprint

import (
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/dukerupert/footprint/internal/model"
)

type fakeHouseholds map[int64]*model.Household

func (f fakeHouseholds) GetByID(id int64) (*model.Household, error) {
	return f[id], nil
}

type fakeActivities struct {
	energy    []model.EnergyUsage
	transport []model.Transportation
	diet      []model.DietEntry
	err       error
}

// The fake ignores the date range so the engine's own window filter is
// exercised.
func (f *fakeActivities) ListEnergy(householdID int64, _, _ time.Time) ([]model.EnergyUsage, error) {
	var out []model.EnergyUsage
	for _, r := range f.energy {
		if r.HouseholdID == householdID {
			out = append(out, r)
		}
	}
	return out, f.err
}

func (f *fakeActivities) ListTransportation(householdID int64, _, _ time.Time) ([]model.Transportation, error) {
	var out []model.Transportation
	for _, r := range f.transport {
		if r.HouseholdID == householdID {
			out = append(out, r)
		}
	}
	return out, f.err
}

func (f *fakeActivities) ListDiet(householdID int64, _, _ time.Time) ([]model.DietEntry, error) {
	var out []model.DietEntry
	for _, r := range f.diet {
		if r.HouseholdID == householdID {
			out = append(out, r)
		}
	}
	return out, f.err
}

type snapshotKey struct {
	householdID int64
	date        string
}

type fakeSnapshots struct {
	rows   map[snapshotKey]model.CarbonFootprint
	nextID int64
	err    error
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{rows: make(map[snapshotKey]model.CarbonFootprint)}
}

func (f *fakeSnapshots) Upsert(fp model.CarbonFootprint) (*model.CarbonFootprint, error) {
	if f.err != nil {
		return nil, f.err
	}
	key := snapshotKey{fp.HouseholdID, fp.CalculationDate.Format(model.DateLayout)}
	if existing, ok := f.rows[key]; ok {
		fp.ID = existing.ID
	} else {
		f.nextID++
		fp.ID = f.nextID
	}
	f.rows[key] = fp
	return &fp, nil
}

func (f *fakeSnapshots) Latest(householdID int64) (*model.CarbonFootprint, error) {
	list, _ := f.List(householdID, time.Time{}, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (f *fakeSnapshots) List(householdID int64, from, to time.Time) ([]model.CarbonFootprint, error) {
	var out []model.CarbonFootprint
	for _, fp := range f.rows {
		if fp.HouseholdID != householdID {
			continue
		}
		if fp.CalculationDate.Before(from) || fp.CalculationDate.After(to) {
			continue
		}
		out = append(out, fp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CalculationDate.After(out[j].CalculationDate) })
	return out, nil
}

func (f *fakeSnapshots) count() int {
	return len(f.rows)
}

type fakeTips []model.ReductionTip

func (f fakeTips) GetByID(id int64) (*model.ReductionTip, error) {
	for i := range f {
		if f[i].ID == id {
			return &f[i], nil
		}
	}
	return nil, nil
}

func (f fakeTips) ListActiveByCategory(category string, limit int) ([]model.ReductionTip, error) {
	var out []model.ReductionTip
	for _, t := range f {
		if t.Active && t.Category == category {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PotentialSavings > out[j].PotentialSavings })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeFactors struct {
	rows map[string]float64
	err  error
}

func (f *fakeFactors) GetActive(category, name string) (*model.EmissionFactor, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.rows[category+"/"+name]
	if !ok {
		return nil, nil
	}
	return &model.EmissionFactor{Category: category, Name: name, Value: v, Active: true}, nil
}

type recordingObserver struct {
	calls int
	last  *model.CarbonFootprint
	err   error
}

func (r *recordingObserver) ObserveCompute(_ int64, fp *model.CarbonFootprint, _ time.Duration, err error) {
	r.calls++
	r.last = fp
	r.err = err
}

var errStore = errors.New("store unavailable")

type fixture struct {
	households fakeHouseholds
	activities *fakeActivities
	snapshots  *fakeSnapshots
	tips       fakeTips
	factors    *fakeFactors
	engine     *Engine
}

const testHousehold int64 = 1

var testToday = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		households: fakeHouseholds{testHousehold: {ID: testHousehold, Name: "Test", Size: 2}},
		activities: &fakeActivities{},
		snapshots:  newFakeSnapshots(),
		factors:    &fakeFactors{rows: map[string]float64{}},
	}
	f.build(opts...)
	return f
}

// build (re)creates the engine so tests can swap fakes first.
func (f *fixture) build(opts ...Option) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithClock(func() time.Time { return testToday.Add(15 * time.Hour) })}, opts...)
	f.engine = New(DefaultConfig(), Deps{
		Households: f.households,
		Activities: f.activities,
		Snapshots:  f.snapshots,
		Tips:       f.tips,
		Factors:    f.factors,
	}, logger, opts...)
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

package footprint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/footprint/internal/model"
)

func TestComputeFootprintEnergy(t *testing.T) {
	f := newFixture(t)
	f.activities.energy = []model.EnergyUsage{
		{HouseholdID: testHousehold, EnergyType: "electricity", Amount: 1000, DateRecorded: day(t, "2024-05-01")},
		{HouseholdID: testHousehold, EnergyType: "gas", Amount: 100, DateRecorded: day(t, "2024-04-01")},
	}

	fp, err := f.engine.ComputeFootprint(testHousehold, testToday)
	require.NoError(t, err)

	assert.InDelta(t, 1000*0.4+100*2.0, fp.EnergyEmissions, 1e-9)
	assert.Zero(t, fp.TransportationEmissions)
	assert.Zero(t, fp.DietEmissions)
}

func TestComputeFootprintWeeklyTrip(t *testing.T) {
	f := newFixture(t)
	f.activities.transport = []model.Transportation{
		{HouseholdID: testHousehold, TransportType: "car_gasoline", Distance: 10, Frequency: "weekly", DateRecorded: day(t, "2024-06-01")},
	}

	fp, err := f.engine.ComputeFootprint(testHousehold, testToday)
	require.NoError(t, err)

	assert.InDelta(t, 208, fp.TransportationEmissions, 1e-9)
}

func TestComputeFootprintFrequencies(t *testing.T) {
	tests := []struct {
		frequency string
		want      float64
	}{
		{"daily", 365 * 0.1},
		{"weekly", 52 * 0.1},
		{"monthly", 12 * 0.1},
		{"yearly", 0.1},
		{"fortnightly", 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.frequency, func(t *testing.T) {
			f := newFixture(t)
			f.activities.transport = []model.Transportation{
				{HouseholdID: testHousehold, TransportType: "bus", Distance: 1, Frequency: tt.frequency, DateRecorded: day(t, "2024-06-01")},
			}

			fp, err := f.engine.ComputeFootprint(testHousehold, testToday)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, fp.TransportationEmissions, 1e-9)
		})
	}
}

func TestComputeFootprintDietSourcing(t *testing.T) {
	f := newFixture(t)
	f.activities.diet = []model.DietEntry{
		{HouseholdID: testHousehold, FoodCategory: "meat_beef", WeeklyServings: 2, LocalPct: 50, OrganicPct: 0, DateRecorded: day(t, "2024-06-01")},
	}

	fp, err := f.engine.ComputeFootprint(testHousehold, testToday)
	require.NoError(t, err)

	assert.InDelta(t, 561.6, fp.DietEmissions, 1e-9)
}

func TestComputeFootprintDietOrganicPremium(t *testing.T) {
	f := newFixture(t)
	f.activities.diet = []model.DietEntry{
		{HouseholdID: testHousehold, FoodCategory: "vegetables", WeeklyServings: 10, LocalPct: 0, OrganicPct: 100, DateRecorded: day(t, "2024-06-01")},
	}

	fp, err := f.engine.ComputeFootprint(testHousehold, testToday)
	require.NoError(t, err)

	// 10 × 0.1 × 1.1 × 52
	assert.InDelta(t, 57.2, fp.DietEmissions, 1e-9)
}

// Percentages outside [0, 100] are stored as entered; the sourcing
// multiplier is applied without clamping.
func TestComputeFootprintDietExtremePercentages(t *testing.T) {
	tests := []struct {
		name    string
		local   float64
		organic float64
		want    float64
	}{
		{"local 500 cancels the factor", 500, 0, 0},
		{"local 1000 goes negative", 1000, 0, -312},
		{"organic 1000 doubles", 0, 1000, 624},
		{"negative local raises", -100, 0, 374.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.activities.diet = []model.DietEntry{
				{HouseholdID: testHousehold, FoodCategory: "meat_beef", WeeklyServings: 1, LocalPct: tt.local, OrganicPct: tt.organic, DateRecorded: day(t, "2024-06-01")},
			}

			fp, err := f.engine.ComputeFootprint(testHousehold, testToday)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, fp.DietEmissions, 1e-9)
		})
	}
}

func TestComputeFootprintMissingFactorIsZero(t *testing.T) {
	f := newFixture(t)
	f.activities.energy = []model.EnergyUsage{
		{HouseholdID: testHousehold, EnergyType: "geothermal", Amount: 1000, DateRecorded: day(t, "2024-06-01")},
	}
	f.activities.diet = []model.DietEntry{
		{HouseholdID: testHousehold, FoodCategory: "insects", WeeklyServings: 3, DateRecorded: day(t, "2024-06-01")},
	}

	fp, err := f.engine.ComputeFootprint(testHousehold, testToday)
	require.NoError(t, err)

	assert.Zero(t, fp.EnergyEmissions)
	assert.Zero(t, fp.DietEmissions)
	assert.Zero(t, fp.TotalEmissions)
}

func TestComputeFootprintWindowInclusive(t *testing.T) {
	f := newFixture(t)
	// testToday is 2024-06-15; 365 days earlier is 2023-06-16.
	f.activities.energy = []model.EnergyUsage{
		{HouseholdID: testHousehold, EnergyType: "electricity", Amount: 1, DateRecorded: day(t, "2023-06-15")},
		{HouseholdID: testHousehold, EnergyType: "electricity", Amount: 10, DateRecorded: day(t, "2023-06-16")},
		{HouseholdID: testHousehold, EnergyType: "electricity", Amount: 100, DateRecorded: day(t, "2024-06-15")},
		{HouseholdID: testHousehold, EnergyType: "electricity", Amount: 1000, DateRecorded: day(t, "2024-06-16")},
	}

	fp, err := f.engine.ComputeFootprint(testHousehold, testToday)
	require.NoError(t, err)

	assert.InDelta(t, 110*0.4, fp.EnergyEmissions, 1e-9)
}

func TestComputeFootprintTotalsAndPerCapita(t *testing.T) {
	f := newFixture(t)
	f.activities.energy = []model.EnergyUsage{
		{HouseholdID: testHousehold, EnergyType: "electricity", Amount: 2500, DateRecorded: day(t, "2024-06-01")},
	}
	f.activities.transport = []model.Transportation{
		{HouseholdID: testHousehold, TransportType: "car_gasoline", Distance: 10, Frequency: "weekly", DateRecorded: day(t, "2024-06-01")},
	}
	f.activities.diet = []model.DietEntry{
		{HouseholdID: testHousehold, FoodCategory: "meat_beef", WeeklyServings: 2, LocalPct: 50, DateRecorded: day(t, "2024-06-01")},
	}

	fp, err := f.engine.ComputeFootprint(testHousehold, testToday)
	require.NoError(t, err)

	assert.InDelta(t, fp.EnergyEmissions+fp.TransportationEmissions+fp.DietEmissions, fp.TotalEmissions, 1e-9)
	assert.InDelta(t, 1000+208+561.6, fp.TotalEmissions, 1e-9)
	assert.InDelta(t, fp.TotalEmissions/2, fp.PerCapitaEmissions, 1e-9)
	require.NotNil(t, fp.NationalAverage)
	require.NotNil(t, fp.GlobalAverage)
	assert.Equal(t, 16000.0, *fp.NationalAverage)
	assert.Equal(t, 4800.0, *fp.GlobalAverage)
}

func TestComputeFootprintZeroSizeHousehold(t *testing.T) {
	f := newFixture(t)
	f.households[testHousehold].Size = 0
	f.activities.energy = []model.EnergyUsage{
		{HouseholdID: testHousehold, EnergyType: "electricity", Amount: 1000, DateRecorded: day(t, "2024-06-01")},
	}

	fp, err := f.engine.ComputeFootprint(testHousehold, testToday)
	require.NoError(t, err)

	assert.Greater(t, fp.TotalEmissions, 0.0)
	assert.Zero(t, fp.PerCapitaEmissions)
}

func TestComputeFootprintIdempotent(t *testing.T) {
	f := newFixture(t)
	f.activities.energy = []model.EnergyUsage{
		{HouseholdID: testHousehold, EnergyType: "electricity", Amount: 1000, DateRecorded: day(t, "2024-06-01")},
	}

	first, err := f.engine.ComputeFootprint(testHousehold, testToday)
	require.NoError(t, err)
	second, err := f.engine.ComputeFootprint(testHousehold, testToday)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.TotalEmissions, second.TotalEmissions)
	assert.Equal(t, 1, f.snapshots.count())
}

func TestComputeFootprintDefaultsToToday(t *testing.T) {
	f := newFixture(t)

	fp, err := f.engine.ComputeFootprint(testHousehold, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, testToday, fp.CalculationDate)
}

func TestComputeFootprintTruncatesTime(t *testing.T) {
	f := newFixture(t)

	fp, err := f.engine.ComputeFootprint(testHousehold, time.Date(2024, 3, 2, 18, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, day(t, "2024-03-02"), fp.CalculationDate)
}

func TestComputeFootprintHouseholdNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.ComputeFootprint(999, testToday)
	assert.ErrorIs(t, err, ErrHouseholdNotFound)
	assert.Zero(t, f.snapshots.count())
}

func TestComputeFootprintStoreFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.activities.err = errStore

	_, err := f.engine.ComputeFootprint(testHousehold, testToday)
	assert.ErrorIs(t, err, errStore)
	assert.Zero(t, f.snapshots.count())
}

func TestComputeFootprintNotifiesObserver(t *testing.T) {
	obs := &recordingObserver{}
	f := newFixture(t, WithObserver(obs))

	fp, err := f.engine.ComputeFootprint(testHousehold, testToday)
	require.NoError(t, err)
	assert.Equal(t, 1, obs.calls)
	assert.Equal(t, fp, obs.last)

	_, err = f.engine.ComputeFootprint(999, testToday)
	require.Error(t, err)
	assert.Equal(t, 2, obs.calls)
	assert.ErrorIs(t, obs.err, ErrHouseholdNotFound)
}

func TestFactorOverrideTakesPrecedence(t *testing.T) {
	f := newFixture(t)
	f.factors.rows["energy/electricity"] = 0.25

	tests := []struct {
		name string
		want float64
	}{
		{"electricity", 0.25},
		{"gas", 2.0},
		{"fusion", 0},
	}
	for _, tt := range tests {
		got, err := f.engine.ResolveFactor("energy", tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestFactorOverrideErrorFailsCompute(t *testing.T) {
	f := newFixture(t)
	f.factors.rows["energy/electricity"] = 0.25
	f.factors.err = errStore
	f.activities.energy = []model.EnergyUsage{
		{HouseholdID: testHousehold, EnergyType: "electricity", Amount: 1000, DateRecorded: day(t, "2024-05-01")},
	}

	_, err := f.engine.ResolveFactor("energy", "electricity")
	assert.ErrorIs(t, err, errStore)

	fp, err := f.engine.ComputeFootprint(testHousehold, testToday)
	assert.ErrorIs(t, err, errStore)
	assert.Nil(t, fp)
	assert.Zero(t, f.snapshots.count(), "no snapshot from default factors")
}

func TestFactorOverrideErrorWithoutRecords(t *testing.T) {
	f := newFixture(t)
	f.factors.err = errStore

	fp, err := f.engine.ComputeFootprint(testHousehold, testToday)
	require.NoError(t, err, "no factor is resolved when no record needs one")
	assert.Zero(t, fp.TotalEmissions)
}

func TestFactorChainOrder(t *testing.T) {
	chain := FactorChain{
		StaticFactors{"a": 1},
		StaticFactors{"a": 2, "b": 3},
	}

	tests := []struct {
		chain FactorChain
		name  string
		want  float64
	}{
		{chain, "a", 1},
		{chain, "b", 3},
		{chain, "c", 0},
		{nil, "a", 0},
	}
	for _, tt := range tests {
		got, err := tt.chain.Resolve("x", tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestFactorChainStopsAtError(t *testing.T) {
	chain := FactorChain{
		NewOverrideFactors(&fakeFactors{err: errStore}),
		StaticFactors{"a": 1},
	}

	v, err := chain.Resolve("x", "a")
	assert.ErrorIs(t, err, errStore)
	assert.Zero(t, v)
}

func TestRecommend(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		fp    model.CarbonFootprint
		count int
		first string
	}{
		{"nothing exceeds", model.CarbonFootprint{EnergyEmissions: 100, TransportationEmissions: 100, DietEmissions: 100}, 0, ""},
		{"exactly at thresholds", model.CarbonFootprint{EnergyEmissions: 5000, TransportationEmissions: 3000, DietEmissions: 2000}, 0, ""},
		{"energy just above", model.CarbonFootprint{EnergyEmissions: 5000.01}, 4, "Switch to LED light bulbs"},
		{"transportation only", model.CarbonFootprint{TransportationEmissions: 3001}, 4, "Use public transportation more often"},
		{"diet only", model.CarbonFootprint{DietEmissions: 2001}, 4, "Reduce meat consumption, especially beef"},
		{"all exceed", model.CarbonFootprint{EnergyEmissions: 9000, TransportationEmissions: 9000, DietEmissions: 9000}, 12, "Switch to LED light bulbs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := f.engine.Recommend(&tt.fp)
			require.NotNil(t, recs)
			assert.Len(t, recs, tt.count)
			if tt.count > 0 {
				assert.Equal(t, tt.first, recs[0])
			}
		})
	}
}

func TestRecommendOrder(t *testing.T) {
	f := newFixture(t)

	recs := f.engine.Recommend(&model.CarbonFootprint{EnergyEmissions: 9000, TransportationEmissions: 9000, DietEmissions: 9000})
	require.Len(t, recs, 12)
	assert.Equal(t, "Consider renewable energy sources", recs[3])
	assert.Equal(t, "Use public transportation more often", recs[4])
	assert.Equal(t, "Reduce meat consumption, especially beef", recs[8])
	assert.Equal(t, "Consider plant-based alternatives", recs[11])
}

func TestRecommendNilSnapshot(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.engine.Recommend(nil))
}

func TestBaselines(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, Baselines{National: 16000, Global: 4800}, f.engine.Baselines())
}

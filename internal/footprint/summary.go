package footprint

import (
	"time"

	"github.com/dukerupert/footprint/internal/equivalency"
	"github.com/dukerupert/footprint/internal/model"
)

// trendMonths is how many calendar months the summary trend covers,
// counting the current one.
const trendMonths = 12

type TrendPoint struct {
	Month                   string  `json:"date"`
	TotalEmissions          float64 `json:"total_emissions"`
	EnergyEmissions         float64 `json:"energy_emissions"`
	TransportationEmissions float64 `json:"transportation_emissions"`
	DietEmissions           float64 `json:"diet_emissions"`
}

type Summary struct {
	HouseholdID             int64              `json:"household_id"`
	CalculationDate         string             `json:"calculation_date"`
	TotalEmissions          float64            `json:"total_emissions"`
	TotalTons               float64            `json:"total_tons"`
	PerCapitaEmissions      float64            `json:"per_capita_emissions"`
	PerCapitaTons           float64            `json:"per_capita_tons"`
	EnergyEmissions         float64            `json:"energy_emissions"`
	TransportationEmissions float64            `json:"transportation_emissions"`
	DietEmissions           float64            `json:"diet_emissions"`
	Comparison              Baselines          `json:"comparison_data"`
	Recommendations         []string           `json:"recommendations"`
	Trend                   []TrendPoint       `json:"trend_data"`
	Equivalencies           equivalency.Output `json:"equivalencies"`
	Display                 map[string]string  `json:"display"`
}

// Summary reports the household's latest snapshot, computing one when none
// exists, together with baselines, advice, a monthly trend and everyday
// equivalents of the total.
func (e *Engine) Summary(householdID int64) (*Summary, error) {
	fp, err := e.Latest(householdID)
	if err != nil {
		return nil, err
	}

	today := e.Today()
	firstMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(trendMonths - 1), 0)
	history, err := e.History(householdID, firstMonth, today)
	if err != nil {
		return nil, err
	}

	eq, err := equivalency.Calculate(fp.TotalEmissions)
	if err != nil {
		e.logger.Warn("equivalency calculation failed", "household_id", householdID, "error", err)
		eq = equivalency.Output{IsEmpty: true}
	}

	return &Summary{
		HouseholdID:             fp.HouseholdID,
		CalculationDate:         fp.CalculationDate.Format(model.DateLayout),
		TotalEmissions:          fp.TotalEmissions,
		TotalTons:               equivalency.Tons(fp.TotalEmissions),
		PerCapitaEmissions:      fp.PerCapitaEmissions,
		PerCapitaTons:           equivalency.Tons(fp.PerCapitaEmissions),
		EnergyEmissions:         fp.EnergyEmissions,
		TransportationEmissions: fp.TransportationEmissions,
		DietEmissions:           fp.DietEmissions,
		Comparison:              e.Baselines(),
		Recommendations:         e.Recommend(fp),
		Trend:                   monthlyTrend(history),
		Equivalencies:           eq,
		Display: map[string]string{
			"total":      equivalency.FormatKg(fp.TotalEmissions),
			"per_capita": equivalency.FormatKg(fp.PerCapitaEmissions),
		},
	}, nil
}

// monthlyTrend keeps the newest snapshot of each calendar month. history
// must be ordered newest first.
func monthlyTrend(history []model.CarbonFootprint) []TrendPoint {
	points := []TrendPoint{}
	seen := make(map[string]bool)
	for _, fp := range history {
		month := fp.CalculationDate.Format("2006-01")
		if seen[month] {
			continue
		}
		seen[month] = true
		points = append(points, TrendPoint{
			Month:                   month,
			TotalEmissions:          fp.TotalEmissions,
			EnergyEmissions:         fp.EnergyEmissions,
			TransportationEmissions: fp.TransportationEmissions,
			DietEmissions:           fp.DietEmissions,
		})
	}
	return points
}

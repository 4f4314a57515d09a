package footprint

import (
	"time"

	"github.com/dukerupert/footprint/internal/model"
)

// window is an inclusive range of calendar dates.
type window struct {
	from, to time.Time
}

func (w window) contains(d time.Time) bool {
	return !d.Before(w.from) && !d.After(w.to)
}

// energyEmissions sums amount × factor over records dated inside w.
func energyEmissions(records []model.EnergyUsage, w window, factors FactorChain) (float64, error) {
	var total float64
	for _, r := range records {
		if !w.contains(r.DateRecorded) {
			continue
		}
		f, err := factors.Resolve(model.CategoryEnergy, r.EnergyType)
		if err != nil {
			return 0, err
		}
		total += r.Amount * f
	}
	return total, nil
}

// transportationEmissions annualizes each trip by its frequency.
func transportationEmissions(records []model.Transportation, w window, factors FactorChain, cfg *Config) (float64, error) {
	var total float64
	for _, r := range records {
		if !w.contains(r.DateRecorded) {
			continue
		}
		f, err := factors.Resolve(model.CategoryTransportation, r.TransportType)
		if err != nil {
			return 0, err
		}
		total += r.Distance * cfg.Multiplier(r.Frequency) * f
	}
	return total, nil
}

// dietEmissions adjusts each food factor for local and organic sourcing and
// annualizes weekly servings. The sourcing multiplier is not clamped, so
// percentages outside [0, 100] can push it below zero.
func dietEmissions(records []model.DietEntry, w window, factors FactorChain, cfg *Config) (float64, error) {
	var total float64
	for _, r := range records {
		if !w.contains(r.DateRecorded) {
			continue
		}
		base, err := factors.Resolve(model.CategoryDiet, r.FoodCategory)
		if err != nil {
			return 0, err
		}
		adjusted := base * sourcingMultiplier(r.LocalPct, r.OrganicPct, cfg.Diet)
		total += r.WeeklyServings * adjusted * cfg.Diet.WeeksPerYear
	}
	return total, nil
}

func sourcingMultiplier(localPct, organicPct float64, d DietConfig) float64 {
	return 1 - localPct/100*d.LocalReduction + organicPct/100*d.OrganicPremium
}

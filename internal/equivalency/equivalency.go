// Package equivalency expresses kg CO2e as everyday quantities using the
// EPA greenhouse gas equivalency factors.
package equivalency

import (
	"errors"
	"fmt"
	"math"
)

// EPA equivalency divisors (2024 edition): equivalency = kg CO2e / factor.
const (
	// MilesDrivenFactor is kg CO2e per mile for an average passenger vehicle.
	MilesDrivenFactor = 0.192

	// TreeSeedlingFactor is kg CO2e absorbed by one tree seedling grown for 10 years.
	TreeSeedlingFactor = 60.0

	// HomeDayFactor is kg CO2e per day of average US home electricity use.
	HomeDayFactor = 18.3

	// MinThresholdKg is the smallest value worth translating.
	MinThresholdKg = 1.0
)

var (
	ErrNegativeValue = errors.New("negative carbon value")
	ErrOverflow      = errors.New("equivalency overflow")
)

type Kind string

const (
	MilesDriven   Kind = "miles_driven"
	TreeSeedlings Kind = "tree_seedlings"
	HomeDays      Kind = "home_days"
)

type Result struct {
	Kind           Kind    `json:"kind"`
	Value          float64 `json:"value"`
	FormattedValue string  `json:"formatted_value"`
	Label          string  `json:"label"`
}

type Output struct {
	InputKg     float64  `json:"input_kg"`
	Results     []Result `json:"results"`
	DisplayText string   `json:"display_text"`
	IsEmpty     bool     `json:"is_empty"`
}

// Calculate converts kg CO2e into miles driven, tree seedlings needed to
// offset it, and days of home electricity. Values below MinThresholdKg
// produce an empty output.
func Calculate(kg float64) (Output, error) {
	if math.IsNaN(kg) || math.IsInf(kg, 0) {
		return Output{IsEmpty: true}, ErrOverflow
	}
	if kg < 0 {
		return Output{IsEmpty: true}, ErrNegativeValue
	}
	if kg < MinThresholdKg {
		return Output{InputKg: kg, IsEmpty: true}, nil
	}

	results := []Result{
		result(MilesDriven, kg/MilesDrivenFactor, "miles driven"),
		result(TreeSeedlings, kg/TreeSeedlingFactor, "tree seedlings grown for 10 years"),
		result(HomeDays, kg/HomeDayFactor, "days of home electricity"),
	}
	for _, r := range results {
		if math.IsInf(r.Value, 0) || math.IsNaN(r.Value) {
			return Output{IsEmpty: true}, ErrOverflow
		}
	}

	return Output{
		InputKg: kg,
		Results: results,
		DisplayText: fmt.Sprintf("Equivalent to driving ~%s miles, or the carbon absorbed by ~%s tree seedlings over 10 years",
			results[0].FormattedValue, results[1].FormattedValue),
	}, nil
}

func result(kind Kind, v float64, label string) Result {
	return Result{Kind: kind, Value: v, FormattedValue: formatValue(v), Label: label}
}

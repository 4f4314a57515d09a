package model

import "time"

// Emission categories shared by factors, snapshots and tips.
const (
	CategoryEnergy         = "energy"
	CategoryTransportation = "transportation"
	CategoryDiet           = "diet"
)

type EmissionFactor struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Value       float64   `json:"factor_value"`
	Unit        string    `json:"unit"`
	Source      string    `json:"source"`
	Active      bool      `json:"is_active"`
	LastUpdated time.Time `json:"last_updated"`
}

// CarbonFootprint is a dated emissions snapshot for one household.
// All emission values are kg CO2e per year.
type CarbonFootprint struct {
	ID                      int64     `json:"id"`
	HouseholdID             int64     `json:"household_id"`
	CalculationDate         time.Time `json:"calculation_date"`
	EnergyEmissions         float64   `json:"energy_emissions"`
	TransportationEmissions float64   `json:"transportation_emissions"`
	DietEmissions           float64   `json:"diet_emissions"`
	TotalEmissions          float64   `json:"total_emissions"`
	PerCapitaEmissions      float64   `json:"per_capita_emissions"`
	NationalAverage         *float64  `json:"national_average"`
	GlobalAverage           *float64  `json:"global_average"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// CategoryEmissions returns the snapshot value for category and whether
// the category is recognized.
func (f *CarbonFootprint) CategoryEmissions(category string) (float64, bool) {
	switch category {
	case CategoryEnergy:
		return f.EnergyEmissions, true
	case CategoryTransportation:
		return f.TransportationEmissions, true
	case CategoryDiet:
		return f.DietEmissions, true
	}
	return 0, false
}

type ReductionTip struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	Difficulty       string    `json:"difficulty"`
	PotentialSavings float64   `json:"potential_savings"`
	CostEstimate     string    `json:"cost_estimate"`
	Active           bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

type ReductionGoal struct {
	ID             int64      `json:"id"`
	HouseholdID    int64      `json:"household_id"`
	TipID          int64      `json:"reduction_tip_id"`
	TargetDate     time.Time  `json:"target_date"`
	Completed      bool       `json:"is_completed"`
	CompletionDate *time.Time `json:"completion_date"`
	Notes          string     `json:"notes"`
	CreatedBy      *int64     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
}

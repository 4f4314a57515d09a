package footprint

import "github.com/dukerupert/footprint/internal/model"

const defaultFactorSource = "EPA / IPCC averages"

// SeedFactors returns the configured default factors as emission factor
// rows suitable for seeding the override table.
func (c *Config) SeedFactors() []model.EmissionFactor {
	factors := make([]model.EmissionFactor, 0, len(c.Factors))
	for _, f := range c.Factors {
		factors = append(factors, model.EmissionFactor{
			Name:     f.Name,
			Category: f.Category,
			Value:    f.Value,
			Unit:     f.Unit,
			Source:   defaultFactorSource,
			Active:   true,
		})
	}
	return factors
}

// SeedTips returns the standard reduction tip catalog.
func SeedTips() []model.ReductionTip {
	return []model.ReductionTip{
		{
			Title:            "Switch to LED Light Bulbs",
			Description:      "Replace incandescent and CFL bulbs with LEDs, which use up to 75% less energy and last around 25 times longer.",
			Category:         model.CategoryEnergy,
			Difficulty:       "easy",
			PotentialSavings: 200,
			CostEstimate:     "$20-50",
		},
		{
			Title:            "Improve Home Insulation",
			Description:      "Insulate the attic, walls and basement to cut heating and cooling losses by up to 15%.",
			Category:         model.CategoryEnergy,
			Difficulty:       "medium",
			PotentialSavings: 800,
			CostEstimate:     "$500-2000",
		},
		{
			Title:            "Install a Programmable Thermostat",
			Description:      "Let the thermostat lower the temperature automatically while you are away or asleep.",
			Category:         model.CategoryEnergy,
			Difficulty:       "medium",
			PotentialSavings: 300,
			CostEstimate:     "$100-250",
		},
		{
			Title:            "Use Public Transportation",
			Description:      "Take the bus, train or subway instead of driving alone; emissions per passenger mile are far lower.",
			Category:         model.CategoryTransportation,
			Difficulty:       "easy",
			PotentialSavings: 1200,
			CostEstimate:     "Varies by location",
		},
		{
			Title:            "Work from Home When Possible",
			Description:      "Every remote day removes a commute. Two days a week already makes a visible difference.",
			Category:         model.CategoryTransportation,
			Difficulty:       "easy",
			PotentialSavings: 800,
			CostEstimate:     "Free",
		},
		{
			Title:            "Consider an Electric Vehicle",
			Description:      "EVs have no tailpipe emissions and usually lower lifetime emissions even after counting electricity generation.",
			Category:         model.CategoryTransportation,
			Difficulty:       "hard",
			PotentialSavings: 2000,
			CostEstimate:     "$25,000-50,000",
		},
		{
			Title:            "Reduce Meat Consumption",
			Description:      "Livestock is a major greenhouse gas source. Eating less meat, beef in particular, lowers diet emissions considerably.",
			Category:         model.CategoryDiet,
			Difficulty:       "medium",
			PotentialSavings: 600,
			CostEstimate:     "May save money",
		},
		{
			Title:            "Buy Local and Seasonal Produce",
			Description:      "Local seasonal food needs less transport and cold storage. Farmers markets are a good place to start.",
			Category:         model.CategoryDiet,
			Difficulty:       "easy",
			PotentialSavings: 150,
			CostEstimate:     "Similar to regular groceries",
		},
		{
			Title:            "Reduce Food Waste",
			Description:      "Plan meals, store food properly and compost scraps. Food rotting in landfills releases methane.",
			Category:         model.CategoryDiet,
			Difficulty:       "easy",
			PotentialSavings: 300,
			CostEstimate:     "Saves money",
		},
		{
			Title:            "Install Solar Panels",
			Description:      "Generate renewable electricity at home to reduce or eliminate electricity-related emissions.",
			Category:         model.CategoryEnergy,
			Difficulty:       "hard",
			PotentialSavings: 3000,
			CostEstimate:     "$15,000-25,000",
		},
		{
			Title:            "Reduce Water Heating Temperature",
			Description:      "Set the water heater to 120°F (49°C) to cut water heating costs by 6-10%.",
			Category:         model.CategoryEnergy,
			Difficulty:       "easy",
			PotentialSavings: 150,
			CostEstimate:     "Free",
		},
		{
			Title:            "Carpool or Use Ride-Sharing",
			Description:      "Sharing rides takes cars off the road and can halve commuting emissions.",
			Category:         model.CategoryTransportation,
			Difficulty:       "easy",
			PotentialSavings: 400,
			CostEstimate:     "May save money",
		},
	}
}

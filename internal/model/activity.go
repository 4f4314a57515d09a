package model

import "time"

// DateLayout is the storage and wire format for calendar dates.
const DateLayout = "2006-01-02"

type EnergyUsage struct {
	ID           int64     `json:"id"`
	HouseholdID  int64     `json:"household_id"`
	EnergyType   string    `json:"energy_type"`
	Amount       float64   `json:"usage_amount"`
	Unit         string    `json:"unit"`
	BillAmount   *float64  `json:"bill_amount"`
	DateRecorded time.Time `json:"date_recorded"`
	CreatedBy    *int64    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

type Transportation struct {
	ID             int64     `json:"id"`
	HouseholdID    int64     `json:"household_id"`
	TransportType  string    `json:"transport_type"`
	Distance       float64   `json:"distance"`
	Frequency      string    `json:"frequency"`
	FuelEfficiency *float64  `json:"fuel_efficiency"`
	DateRecorded   time.Time `json:"date_recorded"`
	CreatedBy      *int64    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

type DietEntry struct {
	ID             int64     `json:"id"`
	HouseholdID    int64     `json:"household_id"`
	DietType       string    `json:"diet_type"`
	FoodCategory   string    `json:"food_category"`
	WeeklyServings float64   `json:"weekly_consumption"`
	LocalPct       float64   `json:"local_sourced_percentage"`
	OrganicPct     float64   `json:"organic_percentage"`
	DateRecorded   time.Time `json:"date_recorded"`
	CreatedBy      *int64    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

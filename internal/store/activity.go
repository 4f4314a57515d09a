package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/footprint/internal/model"
)

// ActivityStore persists the three kinds of household activity records.
type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// --- Energy ---

const energyCols = `id, household_id, energy_type, usage_amount, unit, bill_amount, date_recorded, created_by, created_at`

func scanEnergy(scanner interface{ Scan(...any) error }) (*model.EnergyUsage, error) {
	var e model.EnergyUsage
	var bill sql.NullFloat64
	var date string
	var createdBy sql.NullInt64

	err := scanner.Scan(&e.ID, &e.HouseholdID, &e.EnergyType, &e.Amount, &e.Unit, &bill, &date, &createdBy, &e.CreatedAt)
	if err != nil {
		return nil, err
	}

	if bill.Valid {
		e.BillAmount = &bill.Float64
	}
	if createdBy.Valid {
		e.CreatedBy = &createdBy.Int64
	}
	if e.DateRecorded, err = parseDate(date); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *ActivityStore) CreateEnergy(e model.EnergyUsage) (*model.EnergyUsage, error) {
	if e.Unit == "" {
		e.Unit = "kWh"
	}
	result, err := s.db.Exec(
		`INSERT INTO energy_usage (household_id, energy_type, usage_amount, unit, bill_amount, date_recorded, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.HouseholdID, e.EnergyType, e.Amount, e.Unit, nullFloat64(e.BillAmount), formatDate(e.DateRecorded), nullInt64(e.CreatedBy),
	)
	if err != nil {
		return nil, fmt.Errorf("insert energy usage: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+energyCols+` FROM energy_usage WHERE id = ?`, id)
	return scanEnergy(row)
}

// ListEnergy returns the household's energy records dated within [from, to].
func (s *ActivityStore) ListEnergy(householdID int64, from, to time.Time) ([]model.EnergyUsage, error) {
	return s.queryEnergy(
		`SELECT `+energyCols+` FROM energy_usage
		 WHERE household_id = ? AND date_recorded BETWEEN ? AND ?
		 ORDER BY date_recorded ASC, id ASC`,
		householdID, formatDate(from), formatDate(to),
	)
}

// RecentEnergy returns the latest limit energy records, newest first.
func (s *ActivityStore) RecentEnergy(householdID int64, limit int) ([]model.EnergyUsage, error) {
	return s.queryEnergy(
		`SELECT `+energyCols+` FROM energy_usage WHERE household_id = ?
		 ORDER BY date_recorded DESC, id DESC LIMIT ?`,
		householdID, limit,
	)
}

func (s *ActivityStore) queryEnergy(query string, args ...any) ([]model.EnergyUsage, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list energy usage: %w", err)
	}
	defer rows.Close()

	var records []model.EnergyUsage
	for rows.Next() {
		e, err := scanEnergy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan energy usage: %w", err)
		}
		records = append(records, *e)
	}
	return records, rows.Err()
}

// --- Transportation ---

const transportationCols = `id, household_id, transport_type, distance, frequency, fuel_efficiency, date_recorded, created_by, created_at`

func scanTransportation(scanner interface{ Scan(...any) error }) (*model.Transportation, error) {
	var t model.Transportation
	var efficiency sql.NullFloat64
	var date string
	var createdBy sql.NullInt64

	err := scanner.Scan(&t.ID, &t.HouseholdID, &t.TransportType, &t.Distance, &t.Frequency, &efficiency, &date, &createdBy, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	if efficiency.Valid {
		t.FuelEfficiency = &efficiency.Float64
	}
	if createdBy.Valid {
		t.CreatedBy = &createdBy.Int64
	}
	if t.DateRecorded, err = parseDate(date); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *ActivityStore) CreateTransportation(t model.Transportation) (*model.Transportation, error) {
	if t.Frequency == "" {
		t.Frequency = "daily"
	}
	result, err := s.db.Exec(
		`INSERT INTO transportation (household_id, transport_type, distance, frequency, fuel_efficiency, date_recorded, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.HouseholdID, t.TransportType, t.Distance, t.Frequency, nullFloat64(t.FuelEfficiency), formatDate(t.DateRecorded), nullInt64(t.CreatedBy),
	)
	if err != nil {
		return nil, fmt.Errorf("insert transportation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+transportationCols+` FROM transportation WHERE id = ?`, id)
	return scanTransportation(row)
}

// ListTransportation returns the household's transportation records dated within [from, to].
func (s *ActivityStore) ListTransportation(householdID int64, from, to time.Time) ([]model.Transportation, error) {
	return s.queryTransportation(
		`SELECT `+transportationCols+` FROM transportation
		 WHERE household_id = ? AND date_recorded BETWEEN ? AND ?
		 ORDER BY date_recorded ASC, id ASC`,
		householdID, formatDate(from), formatDate(to),
	)
}

func (s *ActivityStore) RecentTransportation(householdID int64, limit int) ([]model.Transportation, error) {
	return s.queryTransportation(
		`SELECT `+transportationCols+` FROM transportation WHERE household_id = ?
		 ORDER BY date_recorded DESC, id DESC LIMIT ?`,
		householdID, limit,
	)
}

func (s *ActivityStore) queryTransportation(query string, args ...any) ([]model.Transportation, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transportation: %w", err)
	}
	defer rows.Close()

	var records []model.Transportation
	for rows.Next() {
		t, err := scanTransportation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transportation: %w", err)
		}
		records = append(records, *t)
	}
	return records, rows.Err()
}

// --- Diet ---

const dietCols = `id, household_id, diet_type, food_category, weekly_consumption, local_sourced_percentage, organic_percentage, date_recorded, created_by, created_at`

func scanDiet(scanner interface{ Scan(...any) error }) (*model.DietEntry, error) {
	var d model.DietEntry
	var date string
	var createdBy sql.NullInt64

	err := scanner.Scan(&d.ID, &d.HouseholdID, &d.DietType, &d.FoodCategory, &d.WeeklyServings, &d.LocalPct, &d.OrganicPct, &date, &createdBy, &d.CreatedAt)
	if err != nil {
		return nil, err
	}

	if createdBy.Valid {
		d.CreatedBy = &createdBy.Int64
	}
	if d.DateRecorded, err = parseDate(date); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *ActivityStore) CreateDiet(d model.DietEntry) (*model.DietEntry, error) {
	result, err := s.db.Exec(
		`INSERT INTO diet_entries (household_id, diet_type, food_category, weekly_consumption, local_sourced_percentage, organic_percentage, date_recorded, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.HouseholdID, d.DietType, d.FoodCategory, d.WeeklyServings, d.LocalPct, d.OrganicPct, formatDate(d.DateRecorded), nullInt64(d.CreatedBy),
	)
	if err != nil {
		return nil, fmt.Errorf("insert diet entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+dietCols+` FROM diet_entries WHERE id = ?`, id)
	return scanDiet(row)
}

// ListDiet returns the household's diet records dated within [from, to].
func (s *ActivityStore) ListDiet(householdID int64, from, to time.Time) ([]model.DietEntry, error) {
	return s.queryDiet(
		`SELECT `+dietCols+` FROM diet_entries
		 WHERE household_id = ? AND date_recorded BETWEEN ? AND ?
		 ORDER BY date_recorded ASC, id ASC`,
		householdID, formatDate(from), formatDate(to),
	)
}

func (s *ActivityStore) RecentDiet(householdID int64, limit int) ([]model.DietEntry, error) {
	return s.queryDiet(
		`SELECT `+dietCols+` FROM diet_entries WHERE household_id = ?
		 ORDER BY date_recorded DESC, id DESC LIMIT ?`,
		householdID, limit,
	)
}

func (s *ActivityStore) queryDiet(query string, args ...any) ([]model.DietEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list diet entries: %w", err)
	}
	defer rows.Close()

	var records []model.DietEntry
	for rows.Next() {
		d, err := scanDiet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan diet entry: %w", err)
		}
		records = append(records, *d)
	}
	return records, rows.Err()
}

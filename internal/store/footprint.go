package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/footprint/internal/model"
)

// FootprintStore persists carbon footprint snapshots. There is at most one
// snapshot per (household, calculation date).
type FootprintStore struct {
	db *sql.DB
}

func NewFootprintStore(db *sql.DB) *FootprintStore {
	return &FootprintStore{db: db}
}

const footprintCols = `id, household_id, calculation_date, energy_emissions, transportation_emissions, diet_emissions,
	total_emissions, per_capita_emissions, national_average, global_average, created_at, updated_at`

func scanFootprint(scanner interface{ Scan(...any) error }) (*model.CarbonFootprint, error) {
	var f model.CarbonFootprint
	var date string
	var national, global sql.NullFloat64

	err := scanner.Scan(
		&f.ID, &f.HouseholdID, &date, &f.EnergyEmissions, &f.TransportationEmissions, &f.DietEmissions,
		&f.TotalEmissions, &f.PerCapitaEmissions, &national, &global, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if national.Valid {
		f.NationalAverage = &national.Float64
	}
	if global.Valid {
		f.GlobalAverage = &global.Float64
	}
	if f.CalculationDate, err = parseDate(date); err != nil {
		return nil, err
	}
	return &f, nil
}

// Upsert writes fp as the snapshot for its household and calculation date.
// An existing snapshot for that key is overwritten in place; the write is a
// single statement backed by the unique constraint, so concurrent callers
// never create a second row and the last writer wins.
func (s *FootprintStore) Upsert(fp model.CarbonFootprint) (*model.CarbonFootprint, error) {
	date := formatDate(fp.CalculationDate)
	_, err := s.db.Exec(
		`INSERT INTO carbon_footprints (household_id, calculation_date, energy_emissions, transportation_emissions,
		     diet_emissions, total_emissions, per_capita_emissions, national_average, global_average)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (household_id, calculation_date) DO UPDATE SET
		     energy_emissions = excluded.energy_emissions,
		     transportation_emissions = excluded.transportation_emissions,
		     diet_emissions = excluded.diet_emissions,
		     total_emissions = excluded.total_emissions,
		     per_capita_emissions = excluded.per_capita_emissions,
		     national_average = excluded.national_average,
		     global_average = excluded.global_average,
		     updated_at = CURRENT_TIMESTAMP`,
		fp.HouseholdID, date, fp.EnergyEmissions, fp.TransportationEmissions,
		fp.DietEmissions, fp.TotalEmissions, fp.PerCapitaEmissions,
		nullFloat64(fp.NationalAverage), nullFloat64(fp.GlobalAverage),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert footprint: %w", err)
	}
	return s.GetByDate(fp.HouseholdID, fp.CalculationDate)
}

func (s *FootprintStore) GetByDate(householdID int64, date time.Time) (*model.CarbonFootprint, error) {
	row := s.db.QueryRow(
		`SELECT `+footprintCols+` FROM carbon_footprints WHERE household_id = ? AND calculation_date = ?`,
		householdID, formatDate(date),
	)
	f, err := scanFootprint(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get footprint: %w", err)
	}
	return f, nil
}

// Latest returns the snapshot with the most recent calculation date, or nil.
func (s *FootprintStore) Latest(householdID int64) (*model.CarbonFootprint, error) {
	row := s.db.QueryRow(
		`SELECT `+footprintCols+` FROM carbon_footprints WHERE household_id = ?
		 ORDER BY calculation_date DESC, id DESC LIMIT 1`,
		householdID,
	)
	f, err := scanFootprint(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest footprint: %w", err)
	}
	return f, nil
}

// List returns the household's snapshots dated within [from, to], newest first.
func (s *FootprintStore) List(householdID int64, from, to time.Time) ([]model.CarbonFootprint, error) {
	rows, err := s.db.Query(
		`SELECT `+footprintCols+` FROM carbon_footprints
		 WHERE household_id = ? AND calculation_date BETWEEN ? AND ?
		 ORDER BY calculation_date DESC, id DESC`,
		householdID, formatDate(from), formatDate(to),
	)
	if err != nil {
		return nil, fmt.Errorf("list footprints: %w", err)
	}
	defer rows.Close()

	var footprints []model.CarbonFootprint
	for rows.Next() {
		f, err := scanFootprint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan footprint: %w", err)
		}
		footprints = append(footprints, *f)
	}
	return footprints, rows.Err()
}

func (s *FootprintStore) Count(householdID int64) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM carbon_footprints WHERE household_id = ?`, householdID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count footprints: %w", err)
	}
	return n, nil
}

package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/footprint/internal/model"
)

type EmissionFactorStore struct {
	db *sql.DB
}

func NewEmissionFactorStore(db *sql.DB) *EmissionFactorStore {
	return &EmissionFactorStore{db: db}
}

func scanEmissionFactor(scanner interface{ Scan(...any) error }) (*model.EmissionFactor, error) {
	var f model.EmissionFactor
	var active int

	err := scanner.Scan(&f.ID, &f.Name, &f.Category, &f.Value, &f.Unit, &f.Source, &active, &f.LastUpdated)
	if err != nil {
		return nil, err
	}

	f.Active = active != 0
	return &f, nil
}

const emissionFactorCols = `id, name, category, factor_value, unit, source, is_active, last_updated`

func (s *EmissionFactorStore) Create(f model.EmissionFactor) (*model.EmissionFactor, error) {
	result, err := s.db.Exec(
		`INSERT INTO emission_factors (name, category, factor_value, unit, source, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
		f.Name, f.Category, f.Value, f.Unit, f.Source, boolInt(f.Active),
	)
	if err != nil {
		return nil, fmt.Errorf("insert emission factor: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *EmissionFactorStore) GetByID(id int64) (*model.EmissionFactor, error) {
	row := s.db.QueryRow(`SELECT `+emissionFactorCols+` FROM emission_factors WHERE id = ?`, id)
	f, err := scanEmissionFactor(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get emission factor: %w", err)
	}
	return f, nil
}

// Supersede deactivates any active factor with the same category and name
// and inserts f as the active one, in a single transaction.
func (s *EmissionFactorStore) Supersede(f model.EmissionFactor) (*model.EmissionFactor, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE emission_factors SET is_active = 0, last_updated = CURRENT_TIMESTAMP
		 WHERE category = ? AND name = ? AND is_active = 1`,
		f.Category, f.Name,
	); err != nil {
		return nil, fmt.Errorf("deactivate emission factors: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO emission_factors (name, category, factor_value, unit, source, is_active) VALUES (?, ?, ?, ?, ?, 1)`,
		f.Name, f.Category, f.Value, f.Unit, f.Source,
	)
	if err != nil {
		return nil, fmt.Errorf("insert emission factor: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit emission factor: %w", err)
	}
	return s.GetByID(id)
}

// GetActive returns the first active factor matching category and name,
// or nil when there is none.
func (s *EmissionFactorStore) GetActive(category, name string) (*model.EmissionFactor, error) {
	row := s.db.QueryRow(
		`SELECT `+emissionFactorCols+` FROM emission_factors
		 WHERE category = ? AND name = ? AND is_active = 1
		 ORDER BY id ASC LIMIT 1`,
		category, name,
	)
	f, err := scanEmissionFactor(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active emission factor: %w", err)
	}
	return f, nil
}

// ListActive returns active factors ordered by category, then name.
func (s *EmissionFactorStore) ListActive() ([]model.EmissionFactor, error) {
	rows, err := s.db.Query(`SELECT ` + emissionFactorCols + ` FROM emission_factors WHERE is_active = 1 ORDER BY category ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list emission factors: %w", err)
	}
	defer rows.Close()

	var factors []model.EmissionFactor
	for rows.Next() {
		f, err := scanEmissionFactor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan emission factor: %w", err)
		}
		factors = append(factors, *f)
	}
	return factors, rows.Err()
}

func (s *EmissionFactorStore) SetActive(id int64, active bool) error {
	_, err := s.db.Exec(
		`UPDATE emission_factors SET is_active = ?, last_updated = CURRENT_TIMESTAMP WHERE id = ?`,
		boolInt(active), id,
	)
	if err != nil {
		return fmt.Errorf("set emission factor active: %w", err)
	}
	return nil
}

// Seed inserts each factor whose (category, name) pair is not present yet and
// reports how many rows were added.
func (s *EmissionFactorStore) Seed(factors []model.EmissionFactor) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, f := range factors {
		result, err := tx.Exec(
			`INSERT INTO emission_factors (name, category, factor_value, unit, source, is_active)
			 SELECT ?, ?, ?, ?, ?, 1
			 WHERE NOT EXISTS (SELECT 1 FROM emission_factors WHERE category = ? AND name = ?)`,
			f.Name, f.Category, f.Value, f.Unit, f.Source, f.Category, f.Name,
		)
		if err != nil {
			return 0, fmt.Errorf("seed emission factor %q: %w", f.Name, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return added, nil
}

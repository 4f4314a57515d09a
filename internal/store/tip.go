package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/footprint/internal/model"
)

type TipStore struct {
	db *sql.DB
}

func NewTipStore(db *sql.DB) *TipStore {
	return &TipStore{db: db}
}

const tipCols = `id, title, description, category, difficulty, potential_savings, cost_estimate, is_active, created_at`

func scanTip(scanner interface{ Scan(...any) error }) (*model.ReductionTip, error) {
	var t model.ReductionTip
	var active int

	err := scanner.Scan(&t.ID, &t.Title, &t.Description, &t.Category, &t.Difficulty, &t.PotentialSavings, &t.CostEstimate, &active, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	t.Active = active != 0
	return &t, nil
}

func (s *TipStore) Create(t model.ReductionTip) (*model.ReductionTip, error) {
	if t.Difficulty == "" {
		t.Difficulty = "easy"
	}
	result, err := s.db.Exec(
		`INSERT INTO reduction_tips (title, description, category, difficulty, potential_savings, cost_estimate, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Description, t.Category, t.Difficulty, t.PotentialSavings, t.CostEstimate, boolInt(t.Active),
	)
	if err != nil {
		return nil, fmt.Errorf("insert tip: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TipStore) GetByID(id int64) (*model.ReductionTip, error) {
	row := s.db.QueryRow(`SELECT `+tipCols+` FROM reduction_tips WHERE id = ?`, id)
	t, err := scanTip(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tip: %w", err)
	}
	return t, nil
}

// ListActive returns all active tips, highest potential savings first.
func (s *TipStore) ListActive() ([]model.ReductionTip, error) {
	return s.query(
		`SELECT ` + tipCols + ` FROM reduction_tips WHERE is_active = 1
		 ORDER BY potential_savings DESC, id ASC`,
	)
}

// ListActiveByCategory returns at most limit active tips in category,
// highest potential savings first.
func (s *TipStore) ListActiveByCategory(category string, limit int) ([]model.ReductionTip, error) {
	return s.query(
		`SELECT `+tipCols+` FROM reduction_tips WHERE category = ? AND is_active = 1
		 ORDER BY potential_savings DESC, id ASC LIMIT ?`,
		category, limit,
	)
}

func (s *TipStore) SetActive(id int64, active bool) error {
	_, err := s.db.Exec(`UPDATE reduction_tips SET is_active = ? WHERE id = ?`, boolInt(active), id)
	if err != nil {
		return fmt.Errorf("set tip active: %w", err)
	}
	return nil
}

// Seed inserts tips whose title is not present yet and reports how many
// rows were added.
func (s *TipStore) Seed(tips []model.ReductionTip) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, t := range tips {
		result, err := tx.Exec(
			`INSERT INTO reduction_tips (title, description, category, difficulty, potential_savings, cost_estimate, is_active)
			 VALUES (?, ?, ?, ?, ?, ?, 1)
			 ON CONFLICT (title) DO NOTHING`,
			t.Title, t.Description, t.Category, t.Difficulty, t.PotentialSavings, t.CostEstimate,
		)
		if err != nil {
			return 0, fmt.Errorf("seed tip %q: %w", t.Title, err)
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

func (s *TipStore) query(query string, args ...any) ([]model.ReductionTip, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tips: %w", err)
	}
	defer rows.Close()

	var tips []model.ReductionTip
	for rows.Next() {
		t, err := scanTip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tip: %w", err)
		}
		tips = append(tips, *t)
	}
	return tips, rows.Err()
}

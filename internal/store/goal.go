package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/footprint/internal/model"
)

type GoalStore struct {
	db *sql.DB
}

func NewGoalStore(db *sql.DB) *GoalStore {
	return &GoalStore{db: db}
}

const goalCols = `id, household_id, reduction_tip_id, target_date, is_completed, completion_date, notes, created_by, created_at`

func scanGoal(scanner interface{ Scan(...any) error }) (*model.ReductionGoal, error) {
	var g model.ReductionGoal
	var target string
	var completed int
	var completion sql.NullString
	var createdBy sql.NullInt64

	err := scanner.Scan(&g.ID, &g.HouseholdID, &g.TipID, &target, &completed, &completion, &g.Notes, &createdBy, &g.CreatedAt)
	if err != nil {
		return nil, err
	}

	g.Completed = completed != 0
	if createdBy.Valid {
		g.CreatedBy = &createdBy.Int64
	}
	if g.TargetDate, err = parseDate(target); err != nil {
		return nil, err
	}
	if g.CompletionDate, err = parseNullDate(completion); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *GoalStore) Create(g model.ReductionGoal) (*model.ReductionGoal, error) {
	result, err := s.db.Exec(
		`INSERT INTO reduction_goals (household_id, reduction_tip_id, target_date, notes, created_by) VALUES (?, ?, ?, ?, ?)`,
		g.HouseholdID, g.TipID, formatDate(g.TargetDate), g.Notes, nullInt64(g.CreatedBy),
	)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *GoalStore) GetByID(id int64) (*model.ReductionGoal, error) {
	row := s.db.QueryRow(`SELECT `+goalCols+` FROM reduction_goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

// List returns the household's goals, open goals first, then by target date.
func (s *GoalStore) List(householdID int64) ([]model.ReductionGoal, error) {
	rows, err := s.db.Query(
		`SELECT `+goalCols+` FROM reduction_goals WHERE household_id = ?
		 ORDER BY is_completed ASC, target_date ASC, id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []model.ReductionGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// Complete marks the goal done on the given date. Completing an already
// completed goal keeps its original completion date.
func (s *GoalStore) Complete(id int64, on time.Time) (*model.ReductionGoal, error) {
	_, err := s.db.Exec(
		`UPDATE reduction_goals SET is_completed = 1, completion_date = COALESCE(completion_date, ?) WHERE id = ?`,
		formatDate(on), id,
	)
	if err != nil {
		return nil, fmt.Errorf("complete goal: %w", err)
	}
	return s.GetByID(id)
}

func (s *GoalStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM reduction_goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

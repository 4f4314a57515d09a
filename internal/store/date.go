package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/footprint/internal/model"
)

// Calendar dates are stored as TEXT in model.DateLayout so that range
// filters compare lexically.
func formatDate(t time.Time) string {
	return t.Format(model.DateLayout)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(model.DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func parseNullDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullFloat64(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package referencedata

import (
	"context"
	"database/sql"
	"fmt"
)

// Store reads reference rows in display order, ties broken by id.
type Store struct {
	db *sql.DB
}

// NewStore wraps a database/sql handle.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		panic("referencedata: sql db required")
	}
	return &Store{db: db}
}

// ListBudgetRanges returns every budget range.
func (s *Store) ListBudgetRanges(ctx context.Context) ([]BudgetRange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, range_label, min_amount, max_amount, display_order
		FROM budget_ranges
		ORDER BY display_order ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("referencedata: query budget ranges: %w", err)
	}
	defer rows.Close()

	out := []BudgetRange{}
	for rows.Next() {
		var b BudgetRange
		if err := rows.Scan(&b.ID, &b.CreatedAt, &b.RangeLabel, &b.MinAmount, &b.MaxAmount, &b.DisplayOrder); err != nil {
			return nil, fmt.Errorf("referencedata: scan budget range: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("referencedata: iterate budget ranges: %w", err)
	}
	return out, nil
}

// ListProjectTimelines returns every project timeline.
func (s *Store) ListProjectTimelines(ctx context.Context) ([]ProjectTimeline, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, timeline_label, duration_weeks, display_order
		FROM project_timelines
		ORDER BY display_order ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("referencedata: query project timelines: %w", err)
	}
	defer rows.Close()

	out := []ProjectTimeline{}
	for rows.Next() {
		var p ProjectTimeline
		if err := rows.Scan(&p.ID, &p.CreatedAt, &p.TimelineLabel, &p.DurationWeeks, &p.DisplayOrder); err != nil {
			return nil, fmt.Errorf("referencedata: scan project timeline: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("referencedata: iterate project timelines: %w", err)
	}
	return out, nil
}

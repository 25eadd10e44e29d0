// Package referencedata serves the read-only budget range and project
// timeline lookups that leads reference by id.
package referencedata

import "time"

// BudgetRange is one selectable budget bracket.
type BudgetRange struct {
	ID           int64     `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	RangeLabel   string    `json:"range_label"`
	MinAmount    *int64    `json:"min_amount"`
	MaxAmount    *int64    `json:"max_amount"`
	DisplayOrder int       `json:"display_order"`
}

// ProjectTimeline is one selectable project start window.
type ProjectTimeline struct {
	ID            int64     `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	TimelineLabel string    `json:"timeline_label"`
	DurationWeeks *int      `json:"duration_weeks"`
	DisplayOrder  int       `json:"display_order"`
}

package referencedata

import (
	"context"

	"github.com/dmanzer2/lead-gen/internal/observability/metrics"
	"github.com/dmanzer2/lead-gen/pkg/logging"
)

// Lister is the storage side of the gateway.
type Lister interface {
	ListBudgetRanges(ctx context.Context) ([]BudgetRange, error)
	ListProjectTimelines(ctx context.Context) ([]ProjectTimeline, error)
}

// Gateway hides storage failures from callers: a failed lookup yields an
// empty set, which callers treat as "no valid options".
type Gateway struct {
	lister  Lister
	metrics *metrics.LeadMetrics
	logger  *logging.Logger
}

// NewGateway builds a gateway over lister.
func NewGateway(lister Lister, logger *logging.Logger) *Gateway {
	if lister == nil {
		panic("referencedata: lister required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Gateway{lister: lister, logger: logger}
}

// WithMetrics counts lookups that fell back to an empty set.
func (g *Gateway) WithMetrics(m *metrics.LeadMetrics) *Gateway {
	g.metrics = m
	return g
}

// BudgetRanges returns the ordered budget ranges or an empty slice.
func (g *Gateway) BudgetRanges(ctx context.Context) []BudgetRange {
	ranges, err := g.lister.ListBudgetRanges(ctx)
	if err != nil {
		g.logger.Error("failed to list budget ranges", "error", err)
		g.metrics.ObserveReferenceFailure("budget_ranges")
		return []BudgetRange{}
	}
	return ranges
}

// ProjectTimelines returns the ordered project timelines or an empty slice.
func (g *Gateway) ProjectTimelines(ctx context.Context) []ProjectTimeline {
	timelines, err := g.lister.ListProjectTimelines(ctx)
	if err != nil {
		g.logger.Error("failed to list project timelines", "error", err)
		g.metrics.ObserveReferenceFailure("project_timelines")
		return []ProjectTimeline{}
	}
	return timelines
}

// ValidIDs returns the ids a lead may currently reference.
func (g *Gateway) ValidIDs(ctx context.Context) (budgetIDs, timelineIDs []int64) {
	for _, b := range g.BudgetRanges(ctx) {
		budgetIDs = append(budgetIDs, b.ID)
	}
	for _, p := range g.ProjectTimelines(ctx) {
		timelineIDs = append(timelineIDs, p.ID)
	}
	return budgetIDs, timelineIDs
}

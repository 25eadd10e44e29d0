package leads

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	GetByID(ctx context.Context, id int64) (*Lead, error)
}

// InMemoryRepository keeps leads in memory for tests and local runs.
type InMemoryRepository struct {
	mu        sync.RWMutex
	nextID    int64
	leads     map[int64]*Lead
	budgets   []int64
	timelines []int64
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[int64]*Lead),
	}
}

// WithReferences makes Create enforce the given foreign keys the way the
// contacts table does.
func (r *InMemoryRepository) WithReferences(budgetIDs, timelineIDs []int64) *InMemoryRepository {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.budgets = slices.Clone(budgetIDs)
	r.timelines = slices.Clone(timelineIDs)
	return r
}

// Create creates a new lead in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.budgets != nil && !slices.Contains(r.budgets, req.EstimatedBudgetID) {
		return nil, &StorageConstraintError{Code: "23503", Constraint: "contacts_estimated_budget_id_fkey", Err: ErrStorage}
	}
	if r.timelines != nil && !slices.Contains(r.timelines, req.ProjectTimelineID) {
		return nil, &StorageConstraintError{Code: "23503", Constraint: "contacts_project_timeline_id_fkey", Err: ErrStorage}
	}

	r.nextID++
	lead := &Lead{
		ID:                r.nextID,
		CreatedAt:         time.Now().UTC(),
		ContactType:       req.ContactType,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		CompanyName:       req.CompanyName,
		Email:             req.Email,
		PhoneNumber:       req.PhoneNumber,
		City:              req.City,
		ZipCode:           req.ZipCode,
		AZCounty:          req.AZCounty,
		Comments:          req.Comments,
		EstimatedBudgetID: req.EstimatedBudgetID,
		ProjectTimelineID: req.ProjectTimelineID,
	}
	r.leads[lead.ID] = lead

	out := *lead
	return &out, nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id int64) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	out := *lead
	return &out, nil
}

// Count returns the number of stored leads.
func (r *InMemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.leads)
}

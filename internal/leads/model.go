package leads

import (
	"strings"
	"time"

	"github.com/dmanzer2/lead-gen/internal/leadform"
)

// Lead is a stored contact form submission. Leads are never updated.
type Lead struct {
	ID                int64     `json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	ContactType       string    `json:"contact_type"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	CompanyName       *string   `json:"company_name"`
	Email             string    `json:"email"`
	PhoneNumber       string    `json:"phone_number"`
	City              string    `json:"city"`
	ZipCode           string    `json:"zip_code"`
	AZCounty          string    `json:"az_county"`
	Comments          string    `json:"comments"`
	EstimatedBudgetID int64     `json:"estimated_budget_id"`
	ProjectTimelineID int64     `json:"project_timeline_id"`
}

// FullName joins first and last name.
func (l *Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// CreateLeadRequest is a validated, normalized lead ready for insert.
type CreateLeadRequest struct {
	ContactType       string
	FirstName         string
	LastName          string
	CompanyName       *string
	Email             string
	PhoneNumber       string
	City              string
	ZipCode           string
	AZCounty          string
	Comments          string
	EstimatedBudgetID int64
	ProjectTimelineID int64
}

// NewCreateLeadRequest converts a form that already passed validation.
func NewCreateLeadRequest(n leadform.Normalized) *CreateLeadRequest {
	return &CreateLeadRequest{
		ContactType:       n.ContactType,
		FirstName:         n.FirstName,
		LastName:          n.LastName,
		CompanyName:       n.CompanyName,
		Email:             n.Email,
		PhoneNumber:       n.PhoneNumber,
		City:              n.City,
		ZipCode:           n.ZipCode,
		AZCounty:          n.AZCounty,
		Comments:          n.Comments,
		EstimatedBudgetID: n.EstimatedBudgetID,
		ProjectTimelineID: n.ProjectTimelineID,
	}
}

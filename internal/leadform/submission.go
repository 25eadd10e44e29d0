// Package leadform holds the contact form rules shared by the submission API
// and its clients. Everything here is a pure function of its input.
package leadform

import (
	"bytes"
	"encoding/json"
	"strings"
)

// JSON field names of the contact form.
const (
	PathContactType       = "contact_type"
	PathFirstName         = "first_name"
	PathLastName          = "last_name"
	PathCompanyName       = "company_name"
	PathEmail             = "email"
	PathPhoneNumber       = "phone_number"
	PathCity              = "city"
	PathZipCode           = "zip_code"
	PathCounty            = "az_county"
	PathComments          = "comments"
	PathEstimatedBudgetID = "estimated_budget_id"
	PathProjectTimelineID = "project_timeline_id"
	PathWebsite           = "website"
)

// Contact types. Submissions are matched case-insensitively and stored in this form.
const (
	ContactTypeBusiness = "Business"
	ContactTypePersonal = "Personal"
)

// Submission is the raw form body as posted by a browser or client.
type Submission struct {
	ContactType       string `json:"contact_type"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	CompanyName       string `json:"company_name,omitempty"`
	Email             string `json:"email"`
	PhoneNumber       string `json:"phone_number"`
	City              string `json:"city"`
	ZipCode           string `json:"zip_code"`
	AZCounty          string `json:"az_county"`
	Comments          string `json:"comments"`
	EstimatedBudgetID RefID  `json:"estimated_budget_id"`
	ProjectTimelineID RefID  `json:"project_timeline_id"`
	Website           string `json:"website,omitempty"`
}

// RefID is a select-box value. Browsers post it as a string; numeric JSON is
// accepted too and kept in its textual form until validation coerces it.
type RefID string

// UnmarshalJSON accepts "2", 2 and null.
func (r *RefID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RefID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = RefID(n.String())
	return nil
}

// Normalized is a submission that passed every field rule.
type Normalized struct {
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

func (s Submission) value(path string) string {
	var v string
	switch path {
	case PathContactType:
		v = s.ContactType
	case PathFirstName:
		v = s.FirstName
	case PathLastName:
		v = s.LastName
	case PathCompanyName:
		v = s.CompanyName
	case PathEmail:
		v = s.Email
	case PathPhoneNumber:
		v = s.PhoneNumber
	case PathCity:
		v = s.City
	case PathZipCode:
		v = s.ZipCode
	case PathCounty:
		v = s.AZCounty
	case PathComments:
		v = s.Comments
	case PathEstimatedBudgetID:
		v = string(s.EstimatedBudgetID)
	case PathProjectTimelineID:
		v = string(s.ProjectTimelineID)
	case PathWebsite:
		v = s.Website
	}
	return strings.TrimSpace(v)
}

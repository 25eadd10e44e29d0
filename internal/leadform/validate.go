package leadform

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate applies every field rule to s and returns the normalized lead.
// All failing fields are reported together as Errors.
func Validate(s Submission) (Normalized, error) {
	var errs Errors
	for _, r := range rules {
		if fe := checkField(r, s.value(r.path)); fe != nil {
			errs = append(errs, *fe)
		}
	}
	if len(errs) > 0 {
		return Normalized{}, errs
	}
	return normalize(s), nil
}

// ValidateField checks a single raw value and returns its normalized form:
// trimmed text, canonical contact type casing, or the decimal form of a
// reference id. Clients use it for per-field feedback before submitting.
// The honeypot has no rule and is reported as an unknown field.
func ValidateField(path, raw string) (string, error) {
	r, ok := lookupRule(path)
	if !ok {
		return "", fmt.Errorf("leadform: unknown field %q", path)
	}
	value := strings.TrimSpace(raw)
	if fe := checkField(r, value); fe != nil {
		return "", *fe
	}
	switch path {
	case PathContactType:
		value, _ = canonicalContactType(value)
	case PathEstimatedBudgetID, PathProjectTimelineID:
		id, _ := parseRefID(value)
		value = strconv.FormatInt(id, 10)
	}
	return value, nil
}

// CheckHoneypot rejects submissions whose decoy field was filled in. Any
// content counts, whitespace included. It must run before Validate.
func CheckHoneypot(s Submission) error {
	if s.Website != "" {
		return ErrSpamDetected
	}
	return nil
}

// CheckReferences verifies that the selected budget range and timeline are
// among the currently valid ids. An empty valid set rejects every selection.
func CheckReferences(n Normalized, budgetIDs, timelineIDs []int64) error {
	var errs Errors
	if !slices.Contains(budgetIDs, n.EstimatedBudgetID) {
		errs = append(errs, FieldError{Path: PathEstimatedBudgetID, Message: "Please select a valid budget range."})
	}
	if !slices.Contains(timelineIDs, n.ProjectTimelineID) {
		errs = append(errs, FieldError{Path: PathProjectTimelineID, Message: "Please select a valid project timeline."})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func checkField(r rule, value string) *FieldError {
	err := fieldChecker.Var(value, r.tags)
	if err == nil {
		return nil
	}
	msg := "Invalid value"
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if m, ok := r.messages[verrs[0].Tag()]; ok {
			msg = m
		}
	}
	return &FieldError{Path: r.path, Message: msg}
}

func normalize(s Submission) Normalized {
	contactType, _ := canonicalContactType(s.value(PathContactType))
	budgetID, _ := parseRefID(s.value(PathEstimatedBudgetID))
	timelineID, _ := parseRefID(s.value(PathProjectTimelineID))

	n := Normalized{
		ContactType:       contactType,
		FirstName:         s.value(PathFirstName),
		LastName:          s.value(PathLastName),
		Email:             s.value(PathEmail),
		PhoneNumber:       s.value(PathPhoneNumber),
		City:              s.value(PathCity),
		ZipCode:           s.value(PathZipCode),
		AZCounty:          s.value(PathCounty),
		Comments:          s.value(PathComments),
		EstimatedBudgetID: budgetID,
		ProjectTimelineID: timelineID,
	}
	if company := s.value(PathCompanyName); company != "" {
		n.CompanyName = &company
	}
	return n
}

package leadform

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	phoneE164    = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	phoneNANP    = regexp.MustCompile(`^\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}$`)
	fieldChecker = newValidator()
)

// rule binds one form field to validator tags and the message shown for each
// failing tag. The first failing tag wins for a given field.
type rule struct {
	path     string
	tags     string
	messages map[string]string
}

const (
	msgContactType = "Contact type must be Business or Personal"
	msgEmail       = "Please enter a valid email address"
	msgPhone       = "Please enter a valid phone number"
	msgPhoneDigits = "Phone number must be at least 10 digits"
	msgZip         = "Please enter a valid ZIP code (12345 or 12345-6789)"
	msgBudget      = "Please select a budget range"
	msgTimeline    = "Please select a timeline"
)

var rules = []rule{
	{
		path: PathContactType,
		tags: "required,contacttype",
		messages: map[string]string{
			"required":    msgContactType,
			"contacttype": msgContactType,
		},
	},
	nameRule(PathFirstName, "First name"),
	nameRule(PathLastName, "Last name"),
	{
		path: PathCompanyName,
		tags: "omitempty,max=100",
		messages: map[string]string{
			"max": "Company name must be less than 100 characters",
		},
	},
	{
		path: PathEmail,
		tags: "required,min=5,max=100,email",
		messages: map[string]string{
			"required": msgEmail,
			"min":      "Email must be at least 5 characters",
			"max":      "Email must be less than 100 characters",
			"email":    msgEmail,
		},
	},
	{
		path: PathPhoneNumber,
		tags: "required,phone,mindigits=10",
		messages: map[string]string{
			"required":  msgPhone,
			"phone":     msgPhone,
			"mindigits": msgPhoneDigits,
		},
	},
	{
		path: PathCity,
		tags: "required,min=2,max=50,letters",
		messages: map[string]string{
			"required": "City must be at least 2 characters",
			"min":      "City must be at least 2 characters",
			"max":      "City must be less than 50 characters",
			"letters":  "City can only contain letters, spaces, hyphens, and apostrophes",
		},
	},
	{
		path: PathZipCode,
		tags: "required,zip",
		messages: map[string]string{
			"required": msgZip,
			"zip":      msgZip,
		},
	},
	{
		path: PathCounty,
		tags: "required,min=2,max=50",
		messages: map[string]string{
			"required": "County must be at least 2 characters",
			"min":      "County must be at least 2 characters",
			"max":      "County must be less than 50 characters",
		},
	},
	{
		path: PathComments,
		tags: "required,min=10,max=1000",
		messages: map[string]string{
			"required": "Please provide at least 10 characters describing your needs",
			"min":      "Please provide at least 10 characters describing your needs",
			"max":      "Comments must be less than 1000 characters",
		},
	},
	{
		path: PathEstimatedBudgetID,
		tags: "required,refid",
		messages: map[string]string{
			"required": msgBudget,
			"refid":    msgBudget,
		},
	},
	{
		path: PathProjectTimelineID,
		tags: "required,refid",
		messages: map[string]string{
			"required": msgTimeline,
			"refid":    msgTimeline,
		},
	},
}

func nameRule(path, label string) rule {
	return rule{
		path: path,
		tags: "required,min=2,max=50,letters",
		messages: map[string]string{
			"required": label + " must be at least 2 characters",
			"min":      label + " must be at least 2 characters",
			"max":      label + " must be less than 50 characters",
			"letters":  label + " can only contain letters, spaces, hyphens, and apostrophes",
		},
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	mustRegister(v, "letters", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "zip", func(fl validator.FieldLevel) bool {
		return zipPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return phoneE164.MatchString(s) || phoneNANP.MatchString(s)
	})
	mustRegister(v, "mindigits", func(fl validator.FieldLevel) bool {
		min, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return countDigits(fl.Field().String()) >= min
	})
	mustRegister(v, "contacttype", func(fl validator.FieldLevel) bool {
		_, ok := canonicalContactType(fl.Field().String())
		return ok
	})
	mustRegister(v, "refid", func(fl validator.FieldLevel) bool {
		_, err := parseRefID(fl.Field().String())
		return err == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("leadform: register " + tag + ": " + err.Error())
	}
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func canonicalContactType(s string) (string, bool) {
	switch strings.ToLower(s) {
	case "business":
		return ContactTypeBusiness, true
	case "personal":
		return ContactTypePersonal, true
	default:
		return "", false
	}
}

func parseRefID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}

func lookupRule(path string) (rule, bool) {
	for _, r := range rules {
		if r.path == path {
			return r, true
		}
	}
	return rule{}, false
}

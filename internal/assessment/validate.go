package assessment

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a form field to a message for the agent.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for k, v := range fe {
		parts = append(parts, k+": "+v)
	}
	return "invalid assessment: " + strings.Join(parts, "; ")
}

var phoneRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// phoneDigits drops the punctuation people type in phone numbers.
var phoneDigits = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// Validator checks submissions.
type Validator struct {
	v *validator.Validate
}

// NewValidator registers the custom rules used by Submission.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("registering %s validation: %v", tag, err))
		}
	}
	must("date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.DateOnly, fl.Field().String())
		return err == nil
	})
	must("clock", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("15:04", fl.Field().String())
		return err == nil
	})
	must("phone", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(phoneDigits.Replace(fl.Field().String()))
	})
	must("recommendation", func(fl validator.FieldLevel) bool {
		return Recommendation(fl.Field().String()).Valid()
	})

	return &Validator{v: v}
}

var messages = map[string]string{
	"required":       "is required",
	"date":           "must be a date (YYYY-MM-DD)",
	"clock":          "must be a time (HH:MM)",
	"phone":          "must be a valid phone number",
	"email":          "must be a valid email address",
	"url":            "must be a URL",
	"recommendation": "must be approve, maybe or hell-no",
	"gt":             "is required",
	"max":            "is too long",
}

// Validate returns FieldErrors describing every problem with s, or nil.
func (v *Validator) Validate(s *Submission) error {
	s.Agent = strings.TrimSpace(s.Agent)
	s.ProspectName = strings.TrimSpace(s.ProspectName)
	s.ProspectPhone = strings.TrimSpace(s.ProspectPhone)
	s.ProspectEmail = strings.TrimSpace(s.ProspectEmail)

	fe := FieldErrors{}
	if err := v.v.Struct(s); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return fmt.Errorf("validating assessment: %w", err)
		}
		for _, e := range ve {
			msg, ok := messages[e.Tag()]
			if !ok {
				msg = "is invalid"
			}
			fe[e.Field()] = msg
		}
	}

	allowed := allowedOptions()
	for group, values := range s.Observations {
		opts, ok := allowed[group]
		if !ok {
			fe["observations."+group] = "is not a known section"
			continue
		}
		for _, val := range values {
			if !opts[val] {
				fe["observations."+group] = fmt.Sprintf("unknown option %q", val)
				break
			}
		}
	}
	fields := notesFields()
	for k := range s.Notes {
		if !fields[k] {
			fe["notes."+k] = "is not a known notes field"
		}
	}

	if len(fe) > 0 {
		return fe
	}
	return nil
}

package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/newsroom-publishing-api/internal/models"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	tagRegex   = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 _-]*$`)
)

const (
	maxTitleLength = 200
	maxTagCount    = 10
	maxTagLength   = 50
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// InvalidPayloadError wraps the validation errors of one request payload
type InvalidPayloadError struct {
	Errors []ValidationError
}

func (e *InvalidPayloadError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		fields = append(fields, ve.Field)
	}
	return fmt.Sprintf("invalid payload: %s", strings.Join(fields, ", "))
}

// ValidateDraftUpdate checks an autosave/create payload
func ValidateDraftUpdate(upd *models.DraftUpdate) []ValidationError {
	var errors []ValidationError

	if upd.Title != nil && len(*upd.Title) > maxTitleLength {
		errors = append(errors, ValidationError{
			Field:   "title",
			Message: fmt.Sprintf("must be at most %d characters", maxTitleLength),
		})
	}

	if upd.Tags != nil {
		if len(upd.Tags) > maxTagCount {
			errors = append(errors, ValidationError{
				Field:   "tags",
				Message: fmt.Sprintf("at most %d tags allowed", maxTagCount),
				Value:   len(upd.Tags),
			})
		}
		for _, tag := range upd.Tags {
			if tag == "" || len(tag) > maxTagLength || !tagRegex.MatchString(tag) {
				errors = append(errors, ValidationError{
					Field:   "tags",
					Message: "invalid tag",
					Value:   tag,
				})
			}
		}
	}

	if upd.ReadTime != nil && *upd.ReadTime < 0 {
		errors = append(errors, ValidationError{
			Field:   "read_time",
			Message: "must not be negative",
			Value:   *upd.ReadTime,
		})
	}
	if upd.WordCount != nil && *upd.WordCount < 0 {
		errors = append(errors, ValidationError{
			Field:   "word_count",
			Message: "must not be negative",
			Value:   *upd.WordCount,
		})
	}

	return errors
}

// ValidateInvite checks a writer invite payload
func ValidateInvite(email, name string, roles []string) []ValidationError {
	var errors []ValidationError

	if !emailRegex.MatchString(email) {
		errors = append(errors, ValidationError{
			Field:   "email",
			Message: "invalid email format",
			Value:   email,
		})
	}
	if strings.TrimSpace(name) == "" {
		errors = append(errors, ValidationError{
			Field:   "name",
			Message: "is required",
		})
	}
	for _, role := range roles {
		if !models.ValidRoles[role] {
			errors = append(errors, ValidationError{
				Field:   "roles",
				Message: "unknown role",
				Value:   role,
			})
		}
	}

	return errors
}

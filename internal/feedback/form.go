package feedback

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Categories accepted by the API, default first.
var Categories = []string{"bug", "feature", "improvement", "question"}

// Priorities accepted by the API, default first.
var Priorities = []string{"low", "medium", "high", "urgent"}

var (
	ErrTitleRequired   = errors.New("title must be between 3 and 255 characters")
	ErrMessageRequired = errors.New("message is required")
	ErrInvalidEmail    = errors.New("please enter a valid email address")
	ErrInvalidChoice   = errors.New("invalid choice")
)

// Form holds what the user typed into the feedback form.
type Form struct {
	Title    string
	Category string
	Priority string
	Message  string
	Email    string
}

// NewForm returns a form with the default category and priority selected.
func NewForm() Form {
	return Form{Category: Categories[0], Priority: Priorities[0]}
}

// Validate mirrors the constraints the form enforces before submitting.
func (f Form) Validate() error {
	n := utf8.RuneCountInString(strings.TrimSpace(f.Title))
	if n < 3 || n > 255 {
		return ErrTitleRequired
	}
	if strings.TrimSpace(f.Message) == "" {
		return ErrMessageRequired
	}
	if !contains(Categories, f.Category) {
		return fmt.Errorf("%w: category %q", ErrInvalidChoice, f.Category)
	}
	if !contains(Priorities, f.Priority) {
		return fmt.Errorf("%w: priority %q", ErrInvalidChoice, f.Priority)
	}
	if !ValidEmail(f.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidEmail applies the same loose check the upgrade request uses.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && strings.Contains(s, "@")
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

package experiment

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxTitleLength bounds experiment titles, counted in characters.
const MaxTitleLength = 100

// ValidateTitle checks a title after trimming surrounding whitespace.
func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n == 0 {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if n > MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, MaxTitleLength)
	}
	return nil
}

// ValidateCreateInput validates fields required to create an experiment.
func ValidateCreateInput(req CreateRequest) error {
	if err := ValidateTitle(req.Title); err != nil {
		return err
	}
	if strings.TrimSpace(req.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if req.Status != "" && !req.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, req.Status)
	}
	if req.Category != nil && !req.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, *req.Category)
	}
	return validateLinks(req.Links)
}

// ValidateUpdateInput validates the fields present in a patch.
func ValidateUpdateInput(req UpdateRequest) error {
	if req.Title != nil {
		if err := ValidateTitle(*req.Title); err != nil {
			return err
		}
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) == "" {
		return fmt.Errorf("%w: description cannot be empty", ErrInvalidInput)
	}
	if req.Status != nil && !req.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *req.Status)
	}
	if req.Category != nil && !req.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, *req.Category)
	}
	return validateLinks(req.Links)
}

// ValidateProgressContent rejects blank progress notes.
func ValidateProgressContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: progress content is required", ErrInvalidInput)
	}
	return nil
}

func validateLinks(links []LinkInput) error {
	for i, l := range links {
		if strings.TrimSpace(l.URL) == "" {
			return fmt.Errorf("%w: link %d has no url", ErrInvalidInput, i)
		}
	}
	return nil
}

package errors

import (
	"math"
	"strings"
	"unicode"
)

// maxIDLength bounds element and line identifiers in scene files.
const maxIDLength = 128

// ValidateID validates an element or line identifier from a scene file.
// IDs end up in SVG id attributes and cache keys, so the rules are
// conservative:
//   - No empty IDs
//   - No control characters or whitespace
//   - No quotes or angle brackets
//   - Maximum length of 128 characters
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "%s id cannot be empty", kind)
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidID, "%s id too long (max %d characters)", kind, maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidID, "%s id %q contains whitespace or control characters", kind, id)
		}
	}

	if strings.ContainsAny(id, `"'<>&`) {
		return New(ErrCodeInvalidID, "%s id %q contains markup characters", kind, id)
	}

	return nil
}

// ValidateFinite checks that every value is a finite number.
// Coordinates arriving from decoded files or HTTP bodies may carry NaN or
// Inf, which would poison every derived geometry value.
func ValidateFinite(what string, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidInput, "%s must be finite, got %v", what, v)
		}
	}
	return nil
}

// ValidateNonNegative checks that every value is finite and >= 0.
func ValidateNonNegative(what string, values ...float64) error {
	if err := ValidateFinite(what, values...); err != nil {
		return err
	}
	for _, v := range values {
		if v < 0 {
			return New(ErrCodeInvalidInput, "%s must be non-negative, got %v", what, v)
		}
	}
	return nil
}

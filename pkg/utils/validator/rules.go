package validator

import (
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Custom validation tags
const (
	TagCollectionName = "collectionname" // Collection/table/index identifier
	TagNoWhitespace   = "nowhitespace"   // No whitespace characters
)

// collectionNameRegex limits identifiers that are interpolated into queries
// (SQL table names, Mongo collections, vector collection/index names).
// Letters, digits, underscore, and dot only.
var collectionNameRegex = regexp.MustCompile(`^[A-Za-z0-9_.]{1,255}$`)

// registerCustomRules registers all custom validation rules.
func (v *Validator) registerCustomRules() {
	_ = v.validate.RegisterValidation(TagCollectionName, validateCollectionName)
	_ = v.validate.RegisterValidation(TagNoWhitespace, validateNoWhitespace)
}

// validateCollectionName validates collection/table/index identifiers.
func validateCollectionName(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	return collectionNameRegex.MatchString(value)
}

// validateNoWhitespace validates that string contains no whitespace.
func validateNoWhitespace(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}

	for _, char := range value {
		if unicode.IsSpace(char) {
			return false
		}
	}

	return true
}

// IsValidCollectionName reports whether the identifier is safe to interpolate
// into a query. Exposed for call sites that validate outside struct binding.
func IsValidCollectionName(name string) bool {
	return collectionNameRegex.MatchString(name)
}

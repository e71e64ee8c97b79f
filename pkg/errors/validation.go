package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateElementID validates an element id supplied by a caller or an imported document.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No whitespace or control characters
//   - Maximum length of 256 characters
func ValidateElementID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "element id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "element id too long (max 256 characters)").WithElement(id)
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "element id contains whitespace or control characters: %q", id).WithElement(id)
		}
	}

	return nil
}

// hexColorRegex matches #rgb and #rrggbb colors.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// colorNameRegex matches CSS named colors.
var colorNameRegex = regexp.MustCompile(`^[a-zA-Z]{3,24}$`)

// ValidateColor validates a fill or stroke color.
// Empty strings are valid and mean "reset to default".
func ValidateColor(color string) error {
	if color == "" {
		return nil
	}
	if strings.HasPrefix(color, "#") {
		if !hexColorRegex.MatchString(color) {
			return New(ErrCodeInvalidInput, "invalid hex color: %q", color)
		}
		return nil
	}
	if !colorNameRegex.MatchString(color) {
		return New(ErrCodeInvalidInput, "invalid color name: %q", color)
	}
	return nil
}

// ValidateDocumentName validates a stored document name for safety.
// It ensures the name is a simple basename without path components.
func ValidateDocumentName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "document name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "document name too long (max 128 characters)")
	}

	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return New(ErrCodeInvalidInput, "document name cannot contain path separators")
	}

	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidInput, "document name cannot be a hidden file")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "document name contains invalid control characters")
		}
	}

	return nil
}

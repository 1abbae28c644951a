package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Limits enforced by the validators.
const (
	MaxLayoutNameLen = 128 // runes
	MinDPI           = 36
	MaxDPI           = 1200 // an A4 page is ~550 MB of RGBA here
)

// ValidateLayoutName checks a layout title that is used as a registry key
// and as a file stem. Names must be non-blank, at most MaxLayoutNameLen
// runes, free of control characters, and must not contain a path separator
// or "..".
func ValidateLayoutName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return New(ErrCodeInvalidInput, "layout name cannot be empty")
	case utf8.RuneCountInString(name) > MaxLayoutNameLen:
		return New(ErrCodeInvalidInput, "layout name too long (max %d characters)", MaxLayoutNameLen)
	case strings.ContainsFunc(name, unicode.IsControl):
		return New(ErrCodeInvalidInput, "layout name contains control characters")
	case strings.ContainsAny(name, `/\`), strings.Contains(name, ".."):
		return New(ErrCodeInvalidInput, "layout name %q must not contain a path", name)
	}
	return nil
}

// ValidateDPI checks that a raster resolution lies in [MinDPI, MaxDPI].
func ValidateDPI(dpi int) error {
	if dpi < MinDPI || dpi > MaxDPI {
		return New(ErrCodeInvalidInput, "dpi must be between %d and %d, got %d", MinDPI, MaxDPI, dpi)
	}
	return nil
}

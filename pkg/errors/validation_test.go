package errors

import (
	"strings"
	"testing"
)

func TestValidateLayoutName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "名票", false},
		{"with spaces", "6年 名簿 2025", false},
		{"ascii", "class_list", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", strings.Repeat("名", 129), true},
		{"separator", "a/b", true},
		{"traversal", "..", true},
		{"backslash", "a\\b", true},
		{"control", "a\x01b", true},
		{"null", "a\x00b", true},
		{"max length", strings.Repeat("名", MaxLayoutNameLen), false},
		{"dotted", "v1.2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLayoutName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLayoutName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateLayoutName(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateDPI(t *testing.T) {
	for _, dpi := range []int{MinDPI, 72, 150, 300, 600, MaxDPI} {
		if err := ValidateDPI(dpi); err != nil {
			t.Errorf("ValidateDPI(%d) = %v, want nil", dpi, err)
		}
	}
	for _, dpi := range []int{0, -1, MinDPI - 1, MaxDPI + 1} {
		if err := ValidateDPI(dpi); err == nil {
			t.Errorf("ValidateDPI(%d) = nil, want error", dpi)
		}
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeFormat,
		ErrCodeReference,
		ErrCodeResource,
		ErrCodeData,
		ErrCodeInvalidInput,
		ErrCodeInvalidPath,
		ErrCodeNotFound,
		ErrCodeFileNotFound,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}

package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCountryCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"upper", "JP", "JP", nil},
		{"lower", "jp", "JP", nil},
		{"trimmed", "  fr ", "FR", nil},
		{"empty", "", "", ErrCodeRequired},
		{"whitespace", "   ", "", ErrCodeRequired},
		{"three letters", "JPN", "", ErrCodeMalformed},
		{"one letter", "J", "", ErrCodeMalformed},
		{"digits", "J1", "", ErrCodeMalformed},
		{"non-ascii", "Jé", "", ErrCodeMalformed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateCountryCode(tc.input)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidateCountryName_EmptyAndWhitespace(t *testing.T) {
	for _, in := range []string{"", "   ", "\t"} {
		_, err := ValidateCountryName(in, 1, 100)
		if !errors.Is(err, ErrNameRequired) {
			t.Errorf("ValidateCountryName(%q) error = %v, want ErrNameRequired", in, err)
		}
	}
}

func TestValidateCountryName_Bounds(t *testing.T) {
	if _, err := ValidateCountryName("x", 2, 100); !errors.Is(err, ErrNameTooShort) {
		t.Errorf("error = %v, want ErrNameTooShort", err)
	}
	if _, err := ValidateCountryName(strings.Repeat("a", 101), 1, 100); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("error = %v, want ErrNameTooLong", err)
	}
}

func TestValidateCountryName_InvalidChars(t *testing.T) {
	for _, in := range []string{"fr/ance", "japan?", "spain;drop", "1234"} {
		if _, err := ValidateCountryName(in, 1, 100); !errors.Is(err, ErrNameInvalidChars) {
			t.Errorf("ValidateCountryName(%q) error = %v, want ErrNameInvalidChars", in, err)
		}
	}
}

func TestValidateCountryName_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{" Spain ", "Spain"},
		{"Côte d'Ivoire", "Côte d'Ivoire"},
		{"Côte d’Ivoire", "Côte d’Ivoire"},
		{"Bosnia & Herzegovina", "Bosnia & Herzegovina"},
		{"Trinidad & Tobago", "Trinidad & Tobago"},
		{"Guinea-Bissau", "Guinea-Bissau"},
		{"St. Lucia", "St. Lucia"},
		{"Korea (Republic of)", "Korea (Republic of)"},
		{"日本", "日本"},
	}
	for _, tt := range tests {
		got, err := ValidateCountryName(tt.in, 1, 100)
		if err != nil {
			t.Errorf("ValidateCountryName(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidateCountryName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

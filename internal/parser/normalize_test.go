package parser

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		cell   any
		want   float64
		wantOK bool
	}{
		{"nil cell", nil, 0, false},
		{"empty string", "", 0, false},
		{"whitespace only", "   \t", 0, false},
		{"na token", "na", 0, false},
		{"N/A token upper case", "N/A", 0, false},
		{"none token mixed case", "None", 0, false},
		{"single dash", "-", 0, false},
		{"double dash", " -- ", 0, false},
		{"units only", "ml", 0, false},
		{"plain integer", "120", 120, true},
		{"thousands separator with unit", "1,200 ml", 1200, true},
		{"negative decimal with unit", "-3.5 units", -3.5, true},
		{"number after text", "approx 45ml", 45, true},
		{"first of several numbers", "60 then 30", 60, true},
		{"trailing dot is not a decimal", "7.", 7, true},
		{"float cell", 80.5, 80.5, true},
		{"int cell", 42, 42, true},
		{"NaN cell", math.NaN(), 0, false},
		{"bool cell", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.cell)
			if ok != tt.wantOK {
				t.Fatalf("Normalize(%#v) ok = %v, want %v", tt.cell, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Normalize(%#v) = %v, want %v", tt.cell, got, tt.want)
			}
		})
	}
}

func TestNormalize_NullTokensOnlyWhenWhole(t *testing.T) {
	// A null token inside longer text does not hide a number.
	if v, ok := Normalize("none after 30"); !ok || v != 30 {
		t.Errorf("expected 30, got %v (ok=%v)", v, ok)
	}
	// "-5" is a negative number, not the dash token.
	if v, ok := Normalize("-5"); !ok || v != -5 {
		t.Errorf("expected -5, got %v (ok=%v)", v, ok)
	}
}

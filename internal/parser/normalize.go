package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// numberRegex finds the first optionally negative integer or decimal.
	numberRegex = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

	nullTokens = map[string]struct{}{
		"na":   {},
		"n/a":  {},
		"none": {},
		"-":    {},
		"--":   {},
	}
)

// Normalize extracts a numeric value from a raw cell. It returns false for
// absent cells, blank text, null tokens ("NA", "n/a", "none", "-", "--") and
// text without any digits. Thousands-separator commas are ignored, so
// "1,200 ml" yields 1200.
func Normalize(cell any) (float64, bool) {
	switch v := cell.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case string:
		return NormalizeText(v)
	default:
		// bools and anything exotic carry no quantity
		return 0, false
	}
}

// NormalizeText is Normalize for a text cell.
func NormalizeText(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if _, ok := nullTokens[strings.ToLower(s)]; ok {
		return 0, false
	}

	s = strings.ReplaceAll(s, ",", "")
	m := numberRegex.FindString(s)
	if m == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

package parser

import (
	"regexp"
	"strings"

	"github.com/intake-tracker/backend/internal/models"
)

// IntakeMatcher matches column names containing an intake keyword as a
// whole word, case-insensitively. "NG (ml)" matches "ng"; "King" and
// "NGO Fund" do not.
type IntakeMatcher struct {
	re *regexp.Regexp
}

// NewIntakeMatcher compiles a matcher for the given keywords.
// With no keywords nothing matches.
func NewIntakeMatcher(keywords []string) *IntakeMatcher {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			quoted = append(quoted, regexp.QuoteMeta(k))
		}
	}
	if len(quoted) == 0 {
		return &IntakeMatcher{}
	}
	return &IntakeMatcher{
		re: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
	}
}

// Match reports whether the column name is an intake column by name.
func (m *IntakeMatcher) Match(column string) bool {
	if m == nil || m.re == nil {
		return false
	}
	return m.re.MatchString(column)
}

// IsPlottable reports whether at least one cell of the column normalizes to
// a number.
func IsPlottable(t *models.Table, column string) bool {
	for _, rec := range t.Records {
		if _, ok := Normalize(rec[column]); ok {
			return true
		}
	}
	return false
}

// Classify tags every column of the table in column order.
func (m *IntakeMatcher) Classify(t *models.Table) []models.ClassifiedColumn {
	out := make([]models.ClassifiedColumn, 0, len(t.Columns))
	for _, col := range t.Columns {
		class := models.ColumnClassOther
		if m.Match(col) {
			class = models.ColumnClassIntake
		}
		out = append(out, models.ClassifiedColumn{
			Name:      col,
			Class:     class,
			Plottable: IsPlottable(t, col),
		})
	}
	return out
}

// Candidates returns the plottable columns other than the time column.
func Candidates(classified []models.ClassifiedColumn, timeColumn string) []string {
	var out []string
	for _, c := range classified {
		if c.Plottable && c.Name != timeColumn {
			out = append(out, c.Name)
		}
	}
	return out
}

// DefaultSelection picks the columns charted before the user chooses:
// name-matched intake columns that are also plottable, otherwise the first
// fallback plottable candidates, otherwise nothing.
func DefaultSelection(classified []models.ClassifiedColumn, timeColumn string, fallback int) []string {
	var named []string
	for _, c := range classified {
		if c.Class == models.ColumnClassIntake && c.Plottable && c.Name != timeColumn {
			named = append(named, c.Name)
		}
	}
	if len(named) > 0 {
		return named
	}

	candidates := Candidates(classified, timeColumn)
	if len(candidates) > fallback {
		candidates = candidates[:fallback]
	}
	return candidates
}

package models

// Rules defines the YAML configuration for column detection and the append form.
type Rules struct {
	TimeColumn     string   `json:"timeColumn" yaml:"time_column"`
	IntakeKeywords []string `json:"intakeKeywords" yaml:"intake_keywords"`
	FallbackSeries int      `json:"fallbackSeries" yaml:"fallback_series"` // plottable columns picked when no name matches
	DefaultColumns []string `json:"defaultColumns" yaml:"default_columns"` // form columns for a sheet without a header
}

// DefaultRules returns the rules used when no rules file is configured.
func DefaultRules() *Rules {
	return &Rules{
		TimeColumn:     "Time start",
		IntakeKeywords: []string{"bottle", "ng"},
		FallbackSeries: 2,
		DefaultColumns: []string{"Time start", "Bottle (ml)", "NG (ml)", "Notes"},
	}
}

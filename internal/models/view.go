package models

// NoticeLevel is the severity of a message rendered in place of the chart.
type NoticeLevel string

const (
	NoticeWarning NoticeLevel = "warning"
	NoticeInfo    NoticeLevel = "info"
)

// Notice explains why the chart is not shown.
type Notice struct {
	Level   NoticeLevel `json:"level" msgpack:"level"`
	Message string      `json:"message" msgpack:"message"`
}

// View is the output of one render pass.
type View struct {
	Columns    []string           `json:"columns" msgpack:"columns"`
	Rows       [][]string         `json:"rows" msgpack:"rows"`
	Classified []ClassifiedColumn `json:"classified" msgpack:"classified"`
	TimeColumn string             `json:"timeColumn" msgpack:"timeColumn"`
	Candidates []string           `json:"candidates" msgpack:"candidates"`
	Defaults   []string           `json:"defaults" msgpack:"defaults"`
	Selected   []string           `json:"selected" msgpack:"selected"`
	Points     []SeriesPoint      `json:"points" msgpack:"points"`
	Slices     []TimeSlice        `json:"slices" msgpack:"slices"`
	Unresolved int                `json:"unresolved" msgpack:"unresolved"`
	Notice     *Notice            `json:"notice,omitempty" msgpack:"notice,omitempty"`
}

// HasChart reports whether the view carries points to plot.
func (v *View) HasChart() bool {
	return v != nil && v.Notice == nil && len(v.Points) > 0
}

// FormField describes one input of the append form.
type FormField struct {
	Column  string `json:"column"`
	Numeric bool   `json:"numeric"`
}

package models

import "time"

// ColumnClass tags a column as a numeric intake series or anything else.
type ColumnClass string

const (
	ColumnClassIntake ColumnClass = "numeric-intake"
	ColumnClassOther  ColumnClass = "other"
)

// ClassifiedColumn is a column name with its derived class.
type ClassifiedColumn struct {
	Name      string      `json:"name" msgpack:"name"`
	Class     ColumnClass `json:"class" msgpack:"class"`
	Plottable bool        `json:"plottable" msgpack:"plottable"`
}

// Resolution is the outcome of resolving one record's time cell.
type Resolution struct {
	Row  int       `json:"row"`
	Time time.Time `json:"time"`
	OK   bool      `json:"ok"`
}

// SeriesPoint is one (time, series, value) datum feeding the chart.
type SeriesPoint struct {
	Time   time.Time `json:"time" msgpack:"time"`
	Series string    `json:"series" msgpack:"series"`
	Value  float64   `json:"value" msgpack:"value"`
	Row    int       `json:"row" msgpack:"row"` // index into Table.Records
}

// TimeSlice holds every series value recorded at one timestamp.
type TimeSlice struct {
	Time   time.Time          `json:"time" msgpack:"time"`
	Values map[string]float64 `json:"values" msgpack:"values"`
}

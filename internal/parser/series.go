package parser

import (
	"sort"

	"github.com/intake-tracker/backend/internal/models"
)

// BuildSeries joins resolved timestamps with the selected columns into a
// long-form sequence of points sorted by time. Unresolved records and cells
// without a numeric value are skipped. Points sharing a timestamp keep record
// order, then selection order. An empty result is valid.
func BuildSeries(t *models.Table, resolved []models.Resolution, selected []string) []models.SeriesPoint {
	points := make([]models.SeriesPoint, 0, len(resolved)*len(selected))
	for _, res := range resolved {
		if !res.OK || res.Row < 0 || res.Row >= len(t.Records) {
			continue
		}
		rec := t.Records[res.Row]
		for _, col := range selected {
			v, ok := Normalize(rec[col])
			if !ok {
				continue
			}
			points = append(points, models.SeriesPoint{
				Time:   res.Time,
				Series: col,
				Value:  v,
				Row:    res.Row,
			})
		}
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})
	return points
}

// GroupByTime collapses sorted points into one slice per distinct timestamp,
// the shape of a unified hover. A series recorded twice at the same instant
// keeps its last value.
func GroupByTime(points []models.SeriesPoint) []models.TimeSlice {
	var slices []models.TimeSlice
	for _, p := range points {
		n := len(slices)
		if n == 0 || !slices[n-1].Time.Equal(p.Time) {
			slices = append(slices, models.TimeSlice{
				Time:   p.Time,
				Values: make(map[string]float64),
			})
			n++
		}
		slices[n-1].Values[p.Series] = p.Value
	}
	return slices
}

// SeriesNames lists the distinct series of the points in first-appearance order.
func SeriesNames(points []models.SeriesPoint) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, p := range points {
		if _, ok := seen[p.Series]; ok {
			continue
		}
		seen[p.Series] = struct{}{}
		names = append(names, p.Series)
	}
	return names
}

// Package chart draws the intake series as a line chart.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/intake-tracker/backend/internal/models"
	"github.com/intake-tracker/backend/internal/parser"
)

// ErrNoPoints is returned when there is nothing to draw.
var ErrNoPoints = errors.New("no points to plot")

// Format selects the output encoding.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ParseFormat maps a file extension or name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png", "":
		return PNG, nil
	case "svg":
		return SVG, nil
	default:
		return "", fmt.Errorf("unsupported chart format %q", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Options controls the canvas.
type Options struct {
	Title    string
	Width    int
	Height   int
	Location *time.Location
}

// DefaultOptions returns the size used by the dashboard page.
func DefaultOptions() Options {
	return Options{Width: 960, Height: 420, Location: time.Local}
}

// Render writes one line per series, in first-appearance order, with
// markers and a legend.
func Render(w io.Writer, points []models.SeriesPoint, format Format, opts Options) error {
	if len(points) == 0 {
		return ErrNoPoints
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	lines := timeSeries(points)
	minT, maxT, minV, maxV := bounds(lines)

	// Widen degenerate ranges so the axes never collapse.
	if !maxT.After(minT) {
		minT, maxT = minT.Add(-30*time.Minute), maxT.Add(30*time.Minute)
	}
	if maxV <= minV {
		pad := math.Max(1, math.Abs(minV)*0.1)
		minV, maxV = minV-pad, maxV+pad
	}

	series := make([]gochart.Series, len(lines))
	for i, l := range lines {
		series[i] = l
	}

	ch := gochart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 20, Left: 16, Right: 12, Bottom: 12}},
		XAxis: gochart.XAxis{
			Name: "Time",
			Range: &gochart.ContinuousRange{
				Min: gochart.TimeToFloat64(minT),
				Max: gochart.TimeToFloat64(maxT),
			},
			ValueFormatter: timeFormatter(loc, maxT.Sub(minT)),
		},
		YAxis: gochart.YAxis{
			Name:  "ml",
			Range: &gochart.ContinuousRange{Min: minV, Max: maxV},
		},
		Series: series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	provider := gochart.PNG
	if format == SVG {
		provider = gochart.SVG
	}
	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func timeFormatter(loc *time.Location, span time.Duration) gochart.ValueFormatter {
	layout := "15:04"
	if span > 24*time.Hour {
		layout = "02 Jan 15:04"
	}
	return func(v interface{}) string {
		f, ok := v.(float64)
		if !ok {
			return ""
		}
		return gochart.TimeFromFloat64(f).In(loc).Format(layout)
	}
}

// timeSeries builds one styled line per series name.
func timeSeries(points []models.SeriesPoint) []gochart.TimeSeries {
	var out []gochart.TimeSeries
	for i, name := range parser.SeriesNames(points) {
		var xs []time.Time
		var ys []float64
		for _, p := range points {
			if p.Series == name {
				xs = append(xs, p.Time)
				ys = append(ys, p.Value)
			}
		}
		// A lone point is drawn as a zero-length segment.
		if len(xs) == 1 {
			xs = append(xs, xs[0])
			ys = append(ys, ys[0])
		}
		color := gochart.GetDefaultColor(i)
		out = append(out, gochart.TimeSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeWidth: 2,
				StrokeColor: color,
				DotWidth:    4,
				DotColor:    color,
			},
		})
	}
	return out
}

// bounds spans every value that will be drawn.
func bounds(lines []gochart.TimeSeries) (minT, maxT time.Time, minV, maxV float64) {
	first := true
	for _, l := range lines {
		for i, x := range l.XValues {
			y := l.YValues[i]
			if first {
				minT, maxT, minV, maxV = x, x, y, y
				first = false
				continue
			}
			if x.Before(minT) {
				minT = x
			}
			if x.After(maxT) {
				maxT = x
			}
			minV = math.Min(minV, y)
			maxV = math.Max(maxV, y)
		}
	}
	return minT, maxT, minV, maxV
}

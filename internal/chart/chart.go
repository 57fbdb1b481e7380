// Package chart renders bar, line and pie charts of a category/value column pair as PNG.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/insightloom/internal/analysis"
)

// Kind names a chart type.
type Kind string

const (
	Bar  Kind = "bar"
	Line Kind = "line"
	Pie  Kind = "pie"
)

// Kinds lists the supported chart types in menu order.
func Kinds() []Kind { return []Kind{Bar, Line, Pie} }

// ParseKind accepts a chart type name case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown chart type %q (want bar, line or pie)", s)
}

const (
	width  = 800
	height = 480
)

// RenderError reports why a chart could not be drawn.
type RenderError struct {
	Kind Kind
	Err  error
}

func (e *RenderError) Error() string { return e.Err.Error() }

func (e *RenderError) Unwrap() error { return e.Err }

// Render draws valueColumn against column. Any failure, including one raised inside the
// drawing library, comes back as *RenderError.
func Render(kind Kind, ds *analysis.Dataset, column, valueColumn string) (png []byte, err error) {
	fail := func(e error) ([]byte, error) { return nil, &RenderError{Kind: kind, Err: e} }

	cat, ok := ds.Column(column)
	if !ok {
		return fail(fmt.Errorf("column '%s' does not exist", column))
	}
	val, ok := ds.Column(valueColumn)
	if !ok {
		return fail(fmt.Errorf("column '%s' does not exist", valueColumn))
	}
	if val.Kind != analysis.KindNumeric {
		return fail(fmt.Errorf("column '%s' is not numeric", valueColumn))
	}
	points := collect(cat, val)
	if len(points) == 0 {
		return fail(fmt.Errorf("column '%s' has no values to plot", valueColumn))
	}

	defer func() {
		if rec := recover(); rec != nil {
			png, err = fail(fmt.Errorf("%v", rec))
		}
	}()

	var buf bytes.Buffer
	title := fmt.Sprintf("%s by %s", valueColumn, column)
	switch kind {
	case Bar:
		err = barChart(title, valueColumn, points).Render(gochart.PNG, &buf)
	case Line:
		err = lineChart(title, column, valueColumn, points).Render(gochart.PNG, &buf)
	case Pie:
		var pc *gochart.PieChart
		pc, err = pieChart(title, points)
		if err == nil {
			err = pc.Render(gochart.PNG, &buf)
		}
	default:
		err = fmt.Errorf("unknown chart type %q", kind)
	}
	if err != nil {
		return fail(err)
	}
	return buf.Bytes(), nil
}

type point struct {
	label string
	value float64
}

// collect pairs category labels with present values in row order.
func collect(cat, val *analysis.Column) []point {
	out := make([]point, 0, len(val.Nums))
	for i, v := range val.Nums {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, point{label: cat.Raw[i], value: v})
	}
	return out
}

func barChart(title, valueColumn string, points []point) *gochart.BarChart {
	bars := make([]gochart.Value, len(points))
	for i, p := range points {
		bars[i] = gochart.Value{Value: p.value, Label: p.label}
	}
	spacing := 10
	barWidth := (width-120)/len(points) - spacing
	if barWidth < 4 {
		barWidth, spacing = 4, 1
	}
	return &gochart.BarChart{
		Title:      title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40}},
		BarWidth:   barWidth,
		BarSpacing: spacing,
		YAxis:      gochart.YAxis{Name: valueColumn, Range: flatRange(points)},
		Bars:       bars,
	}
}

func lineChart(title, column, valueColumn string, points []point) *gochart.Chart {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	ticks := make([]gochart.Tick, len(points))
	for i, p := range points {
		xs[i] = float64(i)
		ys[i] = p.value
		ticks[i] = gochart.Tick{Value: float64(i), Label: p.label}
	}
	if len(points) == 1 {
		// a single point needs a non-empty x range
		xs = append(xs, 1)
		ys = append(ys, ys[0])
		ticks = append(ticks, gochart.Tick{Value: 1})
	}
	return &gochart.Chart{
		Title:  title,
		Width:  width,
		Height: height,
		XAxis:  gochart.XAxis{Name: column, Ticks: ticks},
		YAxis:  gochart.YAxis{Name: valueColumn, Range: flatRange(points)},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    valueColumn,
				Style:   gochart.Style{StrokeWidth: 2, DotWidth: 4},
				XValues: xs,
				YValues: ys,
			},
		},
	}
}

// flatRange pads the y axis when every value is equal; nil leaves the range to the library.
func flatRange(points []point) gochart.Range {
	lo, hi := points[0].value, points[0].value
	for _, p := range points[1:] {
		lo, hi = math.Min(lo, p.value), math.Max(hi, p.value)
	}
	if lo != hi {
		return nil
	}
	pad := math.Max(math.Abs(lo)*0.1, 1)
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// pieChart sums values per category in first-seen order.
func pieChart(title string, points []point) (*gochart.PieChart, error) {
	var order []string
	sums := map[string]float64{}
	var total float64
	for _, p := range points {
		if p.value < 0 {
			return nil, errors.New("pie chart values must not be negative")
		}
		if _, seen := sums[p.label]; !seen {
			order = append(order, p.label)
		}
		sums[p.label] += p.value
		total += p.value
	}
	if total <= 0 {
		return nil, errors.New("pie chart values sum to zero")
	}
	values := make([]gochart.Value, 0, len(order))
	for _, label := range order {
		share := sums[label] / total * 100
		values = append(values, gochart.Value{Value: sums[label], Label: fmt.Sprintf("%s (%.1f%%)", label, share)})
	}
	return &gochart.PieChart{Title: title, Width: height, Height: height, Values: values}, nil
}

// Package trend fits an ordinary least squares line to yearly incident counts.
package trend

import (
	"errors"
	"sort"
)

// ErrInsufficientData is returned when fewer than two distinct years are present.
var ErrInsufficientData = errors.New("at least two distinct years are required to fit a trend")

// Point is one (year, count) observation.
type Point struct {
	Year  int     `json:"year"`
	Count float64 `json:"count"`
}

// Line is a fitted y = Slope·x + Intercept.
type Line struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// At evaluates the line at year.
func (l Line) At(year int) float64 {
	return l.Slope*float64(year) + l.Intercept
}

// Fit computes the closed-form least squares line through points.
func Fit(points []Point) (Line, error) {
	if distinctYears(points) < 2 {
		return Line{}, ErrInsufficientData
	}

	n := float64(len(points))
	var sx, sy, sxy, sxx float64
	for _, p := range points {
		x := float64(p.Year)
		sx += x
		sy += p.Count
		sxy += x * p.Count
		sxx += x * x
	}

	denom := n*sxx - sx*sx
	if denom == 0 {
		return Line{}, ErrInsufficientData
	}
	slope := (n*sxy - sx*sy) / denom
	intercept := (sy - slope*sx) / n
	return Line{Slope: slope, Intercept: intercept}, nil
}

// Prediction is an extrapolated count for a future year.
type Prediction struct {
	Year  int     `json:"year"`
	Count float64 `json:"count"`
}

// Result is the outcome of a trend extrapolation.
// When Sufficient is false, Line and Predictions are empty.
type Result struct {
	Historical  []Point      `json:"historical"`
	Sufficient  bool         `json:"sufficient"`
	Line        *Line        `json:"line,omitempty"`
	Predictions []Prediction `json:"predictions,omitempty"`
}

// Extrapolate fits points and predicts each of the future years.
// Points are returned sorted by year in Historical.
func Extrapolate(points []Point, future ...int) (Result, error) {
	sorted := append([]Point(nil), points...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })
	res := Result{Historical: sorted}

	line, err := Fit(sorted)
	if err != nil {
		return res, err
	}

	res.Sufficient = true
	res.Line = &line
	for _, y := range future {
		res.Predictions = append(res.Predictions, Prediction{Year: y, Count: line.At(y)})
	}
	return res, nil
}

func distinctYears(points []Point) int {
	seen := make(map[int]struct{}, len(points))
	for _, p := range points {
		seen[p.Year] = struct{}{}
	}
	return len(seen)
}

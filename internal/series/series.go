// Package series reshapes per-period cost sequences into chart-ready points.
package series

import (
	"math"
	"sort"
)

// Point is one period of a reshaped cost sequence. Period is 1-based.
type Point struct {
	Period         int     `json:"period"`
	PeriodCost     float64 `json:"period_cost"`
	CumulativeCost float64 `json:"cumulative_cost"`
}

// Reshape turns per-period costs into points carrying the running total.
func Reshape(costs []float64) []Point {
	points := make([]Point, len(costs))
	total := 0.0
	for i, c := range costs {
		total += c
		points[i] = Point{
			Period:         i + 1,
			PeriodCost:     c,
			CumulativeCost: total,
		}
	}
	return points
}

// Crossover returns the first period in which the cumulative buy cost is at or
// below the cumulative rent cost. Only the common prefix of both series is
// considered. ok is false when renting stays cheaper for the whole horizon.
func Crossover(buy, rent []float64) (period int, ok bool) {
	n := min(len(buy), len(rent))
	var cumBuy, cumRent float64
	for i := 0; i < n; i++ {
		cumBuy += buy[i]
		cumRent += rent[i]
		if cumBuy <= cumRent {
			return i + 1, true
		}
	}
	return 0, false
}

// Chart is the break-even comparison of one buy scenario against renting.
type Chart struct {
	Buy       []Point `json:"buy"`
	Rent      []Point `json:"rent"`
	Horizon   int     `json:"horizon"`
	Truncated bool    `json:"truncated"`
	Crossover *int    `json:"crossover,omitempty"`
}

// BreakEven reshapes both series up to the shorter one and locates the crossover.
func BreakEven(buy, rent []float64) Chart {
	n := min(len(buy), len(rent))
	chart := Chart{
		Buy:       Reshape(buy[:n]),
		Rent:      Reshape(rent[:n]),
		Horizon:   n,
		Truncated: len(buy) != len(rent),
	}
	if p, ok := Crossover(buy, rent); ok {
		chart.Crossover = &p
	}
	return chart
}

// NamedChart is a Chart for one of several buy scenarios.
type NamedChart struct {
	Name string `json:"name"`
	Chart
}

// BreakEvenMulti compares every buy scenario against the same rent series.
// Scenarios are never compared with each other. Output is ordered by name.
func BreakEvenMulti(buys map[string][]float64, rent []float64) []NamedChart {
	names := make([]string, 0, len(buys))
	for name := range buys {
		names = append(names, name)
	}
	sort.Strings(names)

	charts := make([]NamedChart, 0, len(names))
	for _, name := range names {
		charts = append(charts, NamedChart{Name: name, Chart: BreakEven(buys[name], rent)})
	}
	return charts
}

// Year returns the 1-based year a 1-based month falls in.
func Year(period int) int {
	if period <= 0 {
		return 0
	}
	return int(math.Ceil(float64(period) / 12))
}

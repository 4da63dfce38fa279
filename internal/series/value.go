package series

// ValuePoint is one row of the vehicle value chart.
type ValuePoint struct {
	Year           int     `json:"year"`
	Value          float64 `json:"value"`
	Lower          float64 `json:"lower"`
	Upper          float64 `json:"upper"`
	IsPurchaseYear bool    `json:"is_purchase_year"`
}

// ValuePoints labels each estimated value with its calendar year and builds
// the confidence band from the per-year standard deviation. A missing
// deviation collapses the band onto the value; the lower bound never goes below zero.
func ValuePoints(yearValues, stdDev []float64, registrationYear, purchaseYearIndex int) []ValuePoint {
	points := make([]ValuePoint, len(yearValues))
	for i, v := range yearValues {
		p := ValuePoint{
			Year:           registrationYear + i,
			Value:          v,
			Lower:          v,
			Upper:          v,
			IsPurchaseYear: i == purchaseYearIndex,
		}
		if i < len(stdDev) {
			p.Upper = v + stdDev[i]
			p.Lower = max(0, v-stdDev[i])
		}
		points[i] = p
	}
	return points
}

// HasBand reports whether any deviation is positive, i.e. whether a band is worth drawing.
func HasBand(stdDev []float64) bool {
	for _, d := range stdDev {
		if d > 0 {
			return true
		}
	}
	return false
}

package geo

import (
	"github.com/mazznoer/colorgrad"

	"github.com/bharath-k9/Analytics-dashboard/internal/models"
)

// ramp runs light yellow to dark red.
var ramp = colorgrad.YlOrRd()

type scale struct {
	min, max float64
}

func newScale(analysis []models.StateAnalysis) scale {
	if len(analysis) == 0 {
		return scale{}
	}
	s := scale{min: float64(analysis[0].TotalCustomers), max: float64(analysis[0].TotalCustomers)}
	for _, a := range analysis[1:] {
		v := float64(a.TotalCustomers)
		s.min = min(s.min, v)
		s.max = max(s.max, v)
	}
	return s
}

// color maps v onto the ramp. A degenerate domain maps to the midpoint.
func (s scale) color(v float64) string {
	if s.max <= 0 {
		return NoDataFill
	}
	t := 0.5
	if s.max != s.min {
		t = (v - s.min) / (s.max - s.min)
	}
	t = min(1, max(0, t))
	return ramp.At(t).Hex()
}

package chartgeom

import (
	"math"
	"time"

	"github.com/abhineetsingh10/aml2practice/src/progress"
)

// TimeScale maps dates linearly onto a pixel range.
type TimeScale struct {
	Domain [2]time.Time `json:"domain"`
	Range  [2]float64   `json:"range"`
}

// NewTimeScale returns a scale from domain onto rng.
func NewTimeScale(domain [2]time.Time, rng [2]float64) TimeScale {
	return TimeScale{Domain: domain, Range: rng}
}

// Map returns the pixel for t. A degenerate domain maps everything to the
// middle of the range.
func (s TimeScale) Map(t time.Time) float64 {
	span := s.Domain[1].Sub(s.Domain[0])
	if span <= 0 {
		return (s.Range[0] + s.Range[1]) / 2
	}
	f := float64(t.Sub(s.Domain[0])) / float64(span)
	return s.Range[0] + f*(s.Range[1]-s.Range[0])
}

// Invert returns the date at pixel x.
func (s TimeScale) Invert(x float64) time.Time {
	span := s.Domain[1].Sub(s.Domain[0])
	width := s.Range[1] - s.Range[0]
	if span <= 0 || width == 0 {
		return s.Domain[0]
	}
	f := (x - s.Range[0]) / width
	return s.Domain[0].Add(time.Duration(f * float64(span)))
}

// LinearScale maps values linearly onto a pixel range.
type LinearScale struct {
	Domain [2]float64 `json:"domain"`
	Range  [2]float64 `json:"range"`
}

// NewLinearScale returns a scale from domain onto rng.
func NewLinearScale(domain, rng [2]float64) LinearScale {
	return LinearScale{Domain: domain, Range: rng}
}

// Map returns the pixel for v. A degenerate domain maps everything to the
// middle of the range.
func (s LinearScale) Map(v float64) float64 {
	span := s.Domain[1] - s.Domain[0]
	if span == 0 {
		return (s.Range[0] + s.Range[1]) / 2
	}
	return s.Range[0] + (v-s.Domain[0])/span*(s.Range[1]-s.Range[0])
}

// Invert returns the value at pixel p.
func (s LinearScale) Invert(p float64) float64 {
	width := s.Range[1] - s.Range[0]
	if width == 0 {
		return s.Domain[0]
	}
	return s.Domain[0] + (p-s.Range[0])/width*(s.Domain[1]-s.Domain[0])
}

// BuildScales fits both scales to the full series, whatever part of it the
// actual line ends up drawing. The time domain is the series' week extent and
// the value domain runs from zero to the larger of the two cumulative columns.
// Non-finite values are ignored.
func BuildScales(records []progress.WeeklyRecord, l Layout) (TimeScale, LinearScale) {
	var lo, hi time.Time
	maxV := 0.0
	for _, r := range records {
		if r.ValidWeek() {
			if lo.IsZero() || r.Week.Before(lo) {
				lo = r.Week
			}
			if hi.IsZero() || r.Week.After(hi) {
				hi = r.Week
			}
		}
		for _, v := range []float64{r.CumulativeActual, r.ClassroomBenchmark} {
			if !math.IsNaN(v) && !math.IsInf(v, 0) && v > maxV {
				maxV = v
			}
		}
	}
	return NewTimeScale([2]time.Time{lo, hi}, l.XRange()),
		NewLinearScale([2]float64{0, maxV}, l.YRange())
}

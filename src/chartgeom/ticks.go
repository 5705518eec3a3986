package chartgeom

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Tick is one labelled axis position.
type Tick struct {
	Pos   float64   `json:"pos"`
	Value float64   `json:"value"`
	Label string    `json:"label"`
	Time  time.Time `json:"time,omitempty"`
}

// WeekTickLayout formats week tick labels ("Jun 08").
const WeekTickLayout = "Jan 02"

// epochSunday is the first Sunday of the Unix epoch; week numbers count from it.
var epochSunday = time.Date(1970, 1, 4, 0, 0, 0, 0, time.UTC)

// maxWeekTicks caps tick generation for absurd domains.
const maxWeekTicks = 520

// WeekTicks places a tick on every Sunday (UTC) inside the scale's domain.
// every > 1 keeps only weeks whose number since the epoch is a multiple of
// every, so biweekly ticks stay put when the domain shifts by a week.
func WeekTicks(s TimeScale, every int) []Tick {
	if every < 1 {
		every = 1
	}
	lo, hi := s.Domain[0], s.Domain[1]
	if lo.IsZero() || hi.Before(lo) {
		return nil
	}
	start := startOfWeek(lo)
	if start.Before(lo) {
		start = start.AddDate(0, 0, 7)
	}
	var out []Tick
	for t := start; !t.After(hi) && len(out) < maxWeekTicks; t = t.AddDate(0, 0, 7) {
		if weekNumber(t)%every != 0 {
			continue
		}
		out = append(out, Tick{Pos: s.Map(t), Value: float64(t.Unix()), Label: t.Format(WeekTickLayout), Time: t})
	}
	return out
}

func startOfWeek(t time.Time) time.Time {
	t = t.UTC()
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func weekNumber(t time.Time) int {
	return int(math.Round(t.Sub(epochSunday).Hours() / (24 * 7)))
}

// ValueTicks returns about n ticks inside the scale's domain on a 1/2/2.5/5
// step, labelled with thousands grouping.
func ValueTicks(s LinearScale, n int) []Tick {
	lo, hi := s.Domain[0], s.Domain[1]
	if hi <= lo {
		return []Tick{{Pos: s.Map(lo), Value: lo, Label: FormatCount(lo)}}
	}
	vals, step := niceTicks(lo, hi, n)
	prec := decimalsFor(step)
	var out []Tick
	for _, v := range vals {
		if v < lo-step*1e-6 || v > hi+step*1e-6 {
			continue
		}
		out = append(out, Tick{Pos: s.Map(v), Value: v, Label: formatFixed(v, prec)})
	}
	return out
}

// niceTicks spans [min,max] with the step from {1,2,2.5,5,10}x10^k whose tick
// count is closest to n.
func niceTicks(min, max float64, n int) ([]float64, float64) {
	if n < 2 {
		n = 2
	}
	span := max - min
	mag := math.Pow(10, math.Floor(math.Log10(span/float64(n-1))))
	bestStep := mag
	bestScore := math.MaxFloat64
	for _, c := range []float64{1, 2, 2.5, 5, 10} {
		step := c * mag
		count := math.Ceil(span/step) + 1
		if diff := math.Abs(count - float64(n)); diff < bestScore {
			bestScore = diff
			bestStep = step
		}
	}
	start := math.Floor(min/bestStep) * bestStep
	end := math.Ceil(max/bestStep) * bestStep
	var out []float64
	for i := 0; ; i++ {
		v := round6(start + float64(i)*bestStep)
		if v > end+bestStep*0.5 {
			break
		}
		out = append(out, v)
	}
	return out, bestStep
}

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }

func decimalsFor(step float64) int {
	for p := 0; p < 6; p++ {
		scaled := step * math.Pow(10, float64(p))
		if math.Abs(scaled-math.Round(scaled)) < 1e-9 {
			return p
		}
	}
	return 6
}

var printer = message.NewPrinter(language.English)

// FormatCount renders a question count with thousands separators: 1234 -> "1,234",
// 12.5 -> "12.5".
func FormatCount(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return printer.Sprintf("%d", int64(v))
	}
	return formatFixed(v, decimalsFor(v))
}

func formatFixed(v float64, prec int) string {
	if prec == 0 {
		return printer.Sprintf("%d", int64(math.Round(v)))
	}
	return printer.Sprintf(fmt.Sprintf("%%.%df", prec), v)
}

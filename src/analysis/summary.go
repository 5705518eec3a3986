package analysis

import (
	"strconv"
	"time"

	"github.com/abhineetsingh10/aml2practice/src/progress"
)

// NotAvailable is shown instead of a percentage when the benchmark is zero.
const NotAvailable = "n/a"

// PercentAdditional is how far the actual count is above (or below) the
// benchmark, in percent. ok is false when the benchmark is zero or either
// value is not a finite number.
func PercentAdditional(actual, benchmark float64) (pct float64, ok bool) {
	if benchmark == 0 || !finite(actual) || !finite(benchmark) {
		return 0, false
	}
	return 100 * (actual - benchmark) / benchmark, true
}

// FormatPercent renders a percentage with one decimal, or NotAvailable.
func FormatPercent(pct float64, ok bool) string {
	if !ok {
		return NotAvailable
	}
	return strconv.FormatFloat(pct, 'f', 1, 64)
}

// Headline returns the formatted percent-additional for the last active week.
func Headline(last progress.WeeklyRecord) string {
	return FormatPercent(PercentAdditional(last.CumulativeActual, last.ClassroomBenchmark))
}

// Summary condenses one subject's series for reports and the API.
type Summary struct {
	SubjectID   string       `json:"subject_id"`
	Weeks       int          `json:"weeks"`
	ActiveWeeks int          `json:"active_weeks"`
	Window      ActiveWindow `json:"window"`
	FirstWeek   *time.Time   `json:"first_week,omitempty"`
	LastWeek    *time.Time   `json:"last_week,omitempty"`
	// Values at the last active week; zero when the window is undefined.
	Actual    float64 `json:"actual"`
	Benchmark float64 `json:"benchmark"`
	// PercentAdditional is nil when the headline is NotAvailable.
	PercentAdditional *float64 `json:"percent_additional,omitempty"`
	Headline          string   `json:"headline"`
	Issues            int      `json:"issues"`
}

// Summarize computes the summary for one series.
func Summarize(s SubjectSeries) Summary {
	sum := Summary{SubjectID: s.SubjectID, Weeks: s.Len(), Headline: NotAvailable}
	for _, r := range s.Records {
		if r.Active() {
			sum.ActiveWeeks++
		}
	}
	sum.Issues = len(CheckIntegrity(s))
	w := FindActiveWindow(s)
	sum.Window = w
	first, ok := w.FirstRecord(s)
	if !ok {
		return sum
	}
	last, _ := w.LastRecord(s)
	fw, lw := first.Week, last.Week
	sum.FirstWeek, sum.LastWeek = &fw, &lw
	if finite(last.CumulativeActual) {
		sum.Actual = last.CumulativeActual
	}
	if finite(last.ClassroomBenchmark) {
		sum.Benchmark = last.ClassroomBenchmark
	}
	if pct, ok := PercentAdditional(last.CumulativeActual, last.ClassroomBenchmark); ok {
		sum.PercentAdditional = &pct
		sum.Headline = FormatPercent(pct, true)
	}
	return sum
}

// SummarizeAll summarizes every subject in first-seen order.
func SummarizeAll(records []progress.WeeklyRecord) []Summary {
	defer progress.TimeTrack(time.Now(), "summarize")
	groups := GroupBySubject(records)
	out := make([]Summary, 0, len(groups))
	for _, g := range groups {
		out = append(out, Summarize(g))
	}
	return out
}

package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/abhineetsingh10/aml2practice/src/progress"
)

// IssueKind classifies a data problem found in a series.
type IssueKind string

const (
	IssueDuplicateWeek   IssueKind = "duplicate_week"
	IssueActualDecrease  IssueKind = "actual_decreased"
	IssueBenchDecrease   IssueKind = "benchmark_decreased"
	IssueDeltaMismatch   IssueKind = "delta_mismatch"
	IssueNonFinite       IssueKind = "non_finite"
	IssueNegativeWeekly  IssueKind = "negative_weekly"
	IssueInvalidWeekDate IssueKind = "invalid_week"
)

// Issue is one integrity finding. Issues are diagnostics; they never stop a
// chart from being drawn.
type Issue struct {
	SubjectID string    `json:"subject_id"`
	Kind      IssueKind `json:"kind"`
	Week      time.Time `json:"week,omitempty"`
	Line      int       `json:"line,omitempty"`
	Detail    string    `json:"detail"`
}

func (i Issue) String() string {
	loc := ""
	if i.Line > 0 {
		loc = fmt.Sprintf(" (line %d)", i.Line)
	}
	return fmt.Sprintf("%s %s%s: %s", i.SubjectID, i.Kind, loc, i.Detail)
}

// deltaTolerance absorbs rounding in exported spreadsheets.
const deltaTolerance = 1e-6

// CheckIntegrity reports records that break the table's expected shape: weeks
// must be unique, cumulative columns must not decrease, and the weekly count
// should equal the first difference of the cumulative actual count.
func CheckIntegrity(s SubjectSeries) []Issue {
	var out []Issue
	add := func(r progress.WeeklyRecord, k IssueKind, format string, a ...interface{}) {
		out = append(out, Issue{SubjectID: s.SubjectID, Kind: k, Week: r.Week, Line: r.Line, Detail: fmt.Sprintf(format, a...)})
	}
	var prev *progress.WeeklyRecord
	for i := range s.Records {
		r := s.Records[i]
		if !r.ValidWeek() {
			add(r, IssueInvalidWeekDate, "week could not be parsed")
			continue
		}
		if !r.Finite() || !finite(r.WeeklyDelta) {
			add(r, IssueNonFinite, "non-numeric value")
			prev = nil
			continue
		}
		if r.WeeklyDelta < 0 {
			add(r, IssueNegativeWeekly, "weekly count %g is negative", r.WeeklyDelta)
		}
		if prev != nil {
			if r.Week.Equal(prev.Week) {
				add(r, IssueDuplicateWeek, "week %s appears more than once", r.Week.Format("2006-01-02"))
			}
			if r.CumulativeActual < prev.CumulativeActual {
				add(r, IssueActualDecrease, "cumulative actual fell from %g to %g", prev.CumulativeActual, r.CumulativeActual)
			}
			if r.ClassroomBenchmark < prev.ClassroomBenchmark {
				add(r, IssueBenchDecrease, "benchmark fell from %g to %g", prev.ClassroomBenchmark, r.ClassroomBenchmark)
			}
			if diff := r.CumulativeActual - prev.CumulativeActual; math.Abs(diff-r.WeeklyDelta) > deltaTolerance {
				add(r, IssueDeltaMismatch, "weekly count %g but cumulative grew by %g", r.WeeklyDelta, diff)
			}
		}
		prev = &s.Records[i]
	}
	return out
}

// CheckAll runs CheckIntegrity over every subject.
func CheckAll(records []progress.WeeklyRecord) []Issue {
	var out []Issue
	for _, g := range GroupBySubject(records) {
		out = append(out, CheckIntegrity(g)...)
	}
	// invalid weeks are dropped by SelectSeries, so report them from the raw rows
	for _, r := range records {
		if !r.ValidWeek() {
			out = append(out, Issue{SubjectID: r.SubjectID, Kind: IssueInvalidWeekDate, Line: r.Line, Detail: "week could not be parsed"})
		}
	}
	return out
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

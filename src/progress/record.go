package progress

import (
	"math"
	"time"
)

// Column names expected in the weekly practice table.
const (
	ColSubject   = "User_Name"
	ColWeek      = "Week"
	ColActual    = "Cumulative_Actual"
	ColBenchmark = "Classroom_Benchmark"
	ColWeekly    = "Weekly_Questions"
)

// Columns lists the required header names in canonical order.
var Columns = []string{ColSubject, ColWeek, ColActual, ColBenchmark, ColWeekly}

// BenchmarkPerWeek is the fixed classroom rate the benchmark column is built from.
const BenchmarkPerWeek = 50

// WeeklyRecord is one row of the source table: one subject in one calendar week.
type WeeklyRecord struct {
	SubjectID          string    `json:"subject_id"`
	Week               time.Time `json:"week"`
	CumulativeActual   float64   `json:"cumulative_actual"`
	ClassroomBenchmark float64   `json:"classroom_benchmark"`
	WeeklyDelta        float64   `json:"weekly_questions"`
	// Line is the 1-based source line (header is line 1); 0 when not loaded from text.
	Line int `json:"line,omitempty"`
}

// ValidWeek reports whether the week parsed to a real date.
func (r WeeklyRecord) ValidWeek() bool { return !r.Week.IsZero() }

// Active reports whether the subject solved at least one question that week.
func (r WeeklyRecord) Active() bool { return r.WeeklyDelta > 0 }

// Finite reports whether both cumulative values are usable for geometry.
func (r WeeklyRecord) Finite() bool {
	return isFinite(r.CumulativeActual) && isFinite(r.ClassroomBenchmark)
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

package analysis

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/abhineetsingh10/aml2practice/src/progress"
)

var w0 = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func week(i int) time.Time { return w0.AddDate(0, 0, 7*i) }

// makeSeries builds a consistent series from weekly counts; the benchmark grows by 50 per week.
func makeSeries(id string, deltas ...float64) SubjectSeries {
	s := SubjectSeries{SubjectID: id}
	cum := 0.0
	for i, d := range deltas {
		cum += d
		s.Records = append(s.Records, progress.WeeklyRecord{
			SubjectID: id, Week: week(i), CumulativeActual: cum,
			ClassroomBenchmark: float64((i + 1) * progress.BenchmarkPerWeek), WeeklyDelta: d,
		})
	}
	return s
}

func TestSubjects_FirstSeenOrder(t *testing.T) {
	recs := []progress.WeeklyRecord{{SubjectID: "b"}, {SubjectID: "a"}, {SubjectID: "b"}, {SubjectID: "c"}}
	got := Subjects(recs)
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestSelectSeries_SortedSingleSubject(t *testing.T) {
	recs := []progress.WeeklyRecord{
		{SubjectID: "a", Week: week(2)},
		{SubjectID: "b", Week: week(0)},
		{SubjectID: "a", Week: week(0)},
		{SubjectID: "a"}, // invalid date
		{SubjectID: "a", Week: week(1)},
	}
	s := SelectSeries(recs, "a")
	if s.Len() != 3 {
		t.Fatalf("expected 3 records got %d", s.Len())
	}
	for i, r := range s.Records {
		if r.SubjectID != "a" {
			t.Fatalf("foreign record %+v", r)
		}
		if i > 0 && !r.Week.After(s.Records[i-1].Week) {
			t.Fatalf("not strictly ascending at %d", i)
		}
	}
	if !SelectSeries(recs, "zzz").Empty() {
		t.Fatalf("unknown subject must give an empty series")
	}
}

func TestFindActiveWindow_Example(t *testing.T) {
	s := makeSeries("x", 0, 3, 0, 2, 0)
	w := FindActiveWindow(s)
	if !w.Defined() || w.First != 1 || w.Last != 3 {
		t.Fatalf("window = %+v want First=1 Last=3", w)
	}
	first, _ := w.FirstRecord(s)
	last, _ := w.LastRecord(s)
	if first.Week.After(last.Week) {
		t.Fatalf("first after last")
	}
	trimmed := Trim(s, w, TrimActual)
	if len(trimmed) != 3 || !trimmed[0].Week.Equal(week(1)) || !trimmed[2].Week.Equal(week(3)) {
		t.Fatalf("trimmed = %+v want W2..W4", trimmed)
	}
	if full := Trim(s, w, TrimNone); len(full) != 5 {
		t.Fatalf("TrimNone should keep all 5, got %d", len(full))
	}
}

func TestFindActiveWindow_AllZero(t *testing.T) {
	s := makeSeries("idle", 0, 0, 0)
	w := FindActiveWindow(s)
	if w.Defined() {
		t.Fatalf("expected undefined window, got %+v", w)
	}
	for _, p := range []TrimPolicy{TrimActual, TrimNone} {
		if got := Trim(s, w, p); got != nil {
			t.Fatalf("%s: inactive subject must have no actual line, got %d", p, len(got))
		}
	}
	if _, ok := w.LastRecord(s); ok {
		t.Fatalf("LastRecord must be guarded")
	}
	if FindActiveWindow(SubjectSeries{}).Defined() {
		t.Fatalf("empty series must not have a window")
	}
}

func TestFindActiveWindow_SingleActive(t *testing.T) {
	w := FindActiveWindow(makeSeries("one", 0, 0, 7, 0))
	if w.First != 2 || w.Last != 2 {
		t.Fatalf("window = %+v", w)
	}
}

func TestParseTrimPolicy(t *testing.T) {
	cases := map[string]TrimPolicy{"actual": TrimActual, "NONE": TrimNone, "full": TrimNone, "": TrimActual}
	for in, want := range cases {
		got, err := ParseTrimPolicy(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %v,%v want %v", in, got, err, want)
		}
	}
	if _, err := ParseTrimPolicy("sideways"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPercentAdditional(t *testing.T) {
	cases := []struct {
		actual, bench float64
		want          string
	}{
		{500, 250, "100.0"},
		{250, 250, "0.0"},
		{100, 400, "-75.0"},
		{333, 300, "11.0"},
		{10, 0, NotAvailable},
		{math.NaN(), 100, NotAvailable},
	}
	for _, c := range cases {
		if got := FormatPercent(PercentAdditional(c.actual, c.bench)); got != c.want {
			t.Fatalf("%v/%v: got %q want %q", c.actual, c.bench, got, c.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := makeSeries("x", 0, 300, 0, 200, 0)
	sum := Summarize(s)
	if sum.Weeks != 5 || sum.ActiveWeeks != 2 {
		t.Fatalf("counts wrong: %+v", sum)
	}
	// last active is week index 3: actual 500, benchmark 200
	if sum.Actual != 500 || sum.Benchmark != 200 || sum.Headline != "150.0" {
		t.Fatalf("headline wrong: %+v", sum)
	}
	if sum.FirstWeek == nil || !sum.FirstWeek.Equal(week(1)) {
		t.Fatalf("first week wrong: %v", sum.FirstWeek)
	}
	if sum.Issues != 0 {
		t.Fatalf("consistent series reported %d issues", sum.Issues)
	}
	if _, err := json.Marshal(sum); err != nil {
		t.Fatalf("summary must marshal: %v", err)
	}

	idle := Summarize(makeSeries("idle", 0, 0))
	if idle.Headline != NotAvailable || idle.PercentAdditional != nil || idle.LastWeek != nil {
		t.Fatalf("idle summary: %+v", idle)
	}
}

func TestSummarizeAll(t *testing.T) {
	a := makeSeries("a", 5, 5)
	b := makeSeries("b", 0, 0)
	recs := append(append([]progress.WeeklyRecord{}, a.Records...), b.Records...)
	out := SummarizeAll(recs)
	if len(out) != 2 || out[0].SubjectID != "a" || out[1].SubjectID != "b" {
		t.Fatalf("unexpected summaries %+v", out)
	}
}

func TestCheckIntegrity(t *testing.T) {
	s := makeSeries("x", 10, 10, 10)
	if issues := CheckIntegrity(s); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	// W2 count disagrees with the cumulative growth
	s.Records[1].WeeklyDelta = 4
	// W3 cumulative falls below W2
	s.Records[2].CumulativeActual = 5
	// W3 again, consistent with itself but a duplicate week
	s.Records = append(s.Records, s.Records[2])
	s.Records[3].CumulativeActual = 5
	s.Records[3].WeeklyDelta = 0
	s.Records = append(s.Records, progress.WeeklyRecord{SubjectID: "x", Week: week(5), CumulativeActual: math.NaN()})

	kinds := map[IssueKind]int{}
	for _, is := range CheckIntegrity(s) {
		kinds[is.Kind]++
	}
	for _, k := range []IssueKind{IssueDeltaMismatch, IssueActualDecrease, IssueDuplicateWeek, IssueNonFinite} {
		if kinds[k] == 0 {
			t.Fatalf("missing %s in %v", k, kinds)
		}
	}
}

func TestCheckAll_ReportsInvalidWeeks(t *testing.T) {
	recs := append(makeSeries("a", 1).Records, progress.WeeklyRecord{SubjectID: "a", Line: 9})
	issues := CheckAll(recs)
	if len(issues) != 1 || issues[0].Kind != IssueInvalidWeekDate || issues[0].Line != 9 {
		t.Fatalf("unexpected issues %v", issues)
	}
}

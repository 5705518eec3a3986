package chartgeom

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/abhineetsingh10/aml2practice/src/analysis"
	"github.com/abhineetsingh10/aml2practice/src/progress"
)

// Role ties a drawn element to one of the two series; back ends pick colours by role.
type Role string

const (
	RoleActual    Role = "actual"
	RoleBenchmark Role = "benchmark"
	RoleNeutral   Role = "neutral"
)

// Legend and axis texts.
const (
	LegendActual    = "Actual Practice (AXL)"
	LegendBenchmark = "Traditional Class (50 Qs per Week)"
	TitleValueAxis  = "Cumulative Questions Solved"
	titleWeekAxis   = "Calendar Week"
	CalloutDate     = "Jan 02, 2006"
)

// Point is a vertex in pixel space together with the data it came from.
type Point struct {
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	Week  time.Time `json:"week"`
	Value float64   `json:"value"`
}

// Marker is a filled circle at a data point.
type Marker struct {
	Point
	Radius float64 `json:"radius"`
	Role   Role    `json:"role"`
}

// Text is a positioned label. Rotation is in degrees, counter-clockwise negative.
type Text struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize float64 `json:"font_size"`
	Bold     bool    `json:"bold,omitempty"`
	Rotation float64 `json:"rotation,omitempty"`
	Anchor   string  `json:"anchor,omitempty"`
	Role     Role    `json:"role"`
}

// LegendEntry is one swatch and caption.
type LegendEntry struct {
	Text string `json:"text"`
	Role Role   `json:"role"`
}

// LegendBox is the legend panel in the top right corner.
type LegendBox struct {
	X       float64       `json:"x"`
	Y       float64       `json:"y"`
	Width   float64       `json:"width"`
	Height  float64       `json:"height"`
	Entries []LegendEntry `json:"entries"`
}

// Headline carries the percent-additional figure.
type Headline struct {
	Value     string `json:"value"`
	Available bool   `json:"available"`
	Text
}

// Frame is everything needed to paint one chart.
type Frame struct {
	SubjectID string      `json:"subject_id"`
	Viewport  Viewport    `json:"viewport"`
	Layout    Layout      `json:"layout"`
	X         TimeScale   `json:"x"`
	Y         LinearScale `json:"y"`
	XTicks    []Tick      `json:"x_ticks"`
	YTicks    []Tick      `json:"y_ticks"`
	// TickRotation applies to week tick labels, in degrees.
	TickRotation float64               `json:"tick_rotation"`
	Benchmark    Polyline              `json:"benchmark"`
	Actual       Polyline              `json:"actual"`
	Markers      []Marker              `json:"markers,omitempty"`
	Callouts     []Text                `json:"callouts,omitempty"`
	Headline     *Headline             `json:"headline,omitempty"`
	Legend       LegendBox             `json:"legend"`
	XTitle       Text                  `json:"x_title"`
	YTitle       Text                  `json:"y_title"`
	Window       analysis.ActiveWindow `json:"window"`
	// Empty is set when the subject has no plottable weeks.
	Empty bool `json:"empty"`
	// Revealed is false for intermediate animation frames.
	Revealed bool `json:"revealed"`

	weeks []progress.WeeklyRecord
}

// Build lays out one subject's chart. It never fails: an empty series yields an
// Empty frame with axes only, and a subject without any active week gets the
// benchmark line alone.
func Build(s analysis.SubjectSeries, vp Viewport, opts Options) Frame {
	if opts.TickEvery < 1 {
		opts.TickEvery = 1
	}
	l := ComputeLayout(vp, opts.Layout)
	f := Frame{
		SubjectID:    s.SubjectID,
		Viewport:     vp,
		Layout:       l,
		TickRotation: -45,
		Legend:       legendBox(l),
		YTitle: Text{
			Text: TitleValueAxis, X: l.Margin.Left * 0.45, Y: l.Height / 2,
			FontSize: l.Height * 0.028, Bold: true, Rotation: -90, Anchor: "middle", Role: RoleNeutral,
		},
		Window:   analysis.NoWindow,
		Revealed: true,
		weeks:    s.Records,
	}
	f.X, f.Y = BuildScales(s.Records, l)
	f.XTitle = Text{
		Text: weekAxisTitle(f.X), X: l.Width / 2, Y: l.Height - 20,
		FontSize: l.Height * 0.025, Bold: true, Anchor: "middle", Role: RoleNeutral,
	}
	if s.Empty() {
		f.Empty = true
		return f
	}
	f.XTicks = WeekTicks(f.X, opts.TickEvery)
	f.YTicks = ValueTicks(f.Y, 10)

	w := analysis.FindActiveWindow(s)
	f.Window = w
	f.Benchmark = f.polyline(s.Records, func(r progress.WeeklyRecord) float64 { return r.ClassroomBenchmark })
	f.Actual = f.polyline(analysis.Trim(s, w, opts.Trim), func(r progress.WeeklyRecord) float64 { return r.CumulativeActual })

	first, ok := w.FirstRecord(s)
	if !ok {
		return f
	}
	last, _ := w.LastRecord(s)
	f.annotate(first, last, opts.Annotations)
	return f
}

func (f *Frame) point(r progress.WeeklyRecord, v float64) Point {
	return Point{X: f.X.Map(r.Week), Y: f.Y.Map(v), Week: r.Week, Value: v}
}

func (f *Frame) polyline(recs []progress.WeeklyRecord, value func(progress.WeeklyRecord) float64) Polyline {
	var p Polyline
	for _, r := range recs {
		v := value(r)
		if !r.ValidWeek() || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		p.Points = append(p.Points, f.point(r, v))
	}
	return p
}

func (f *Frame) annotate(first, last progress.WeeklyRecord, a Annotations) {
	if a.Has(AnnotateFirst) && finiteValue(first.CumulativeActual) {
		f.Markers = append(f.Markers, Marker{Point: f.point(first, first.CumulativeActual), Radius: 8, Role: RoleActual})
	}
	if a.Has(AnnotateLast) && finiteValue(last.CumulativeActual) {
		p := f.point(last, last.CumulativeActual)
		f.Markers = append(f.Markers, Marker{Point: p, Radius: 9, Role: RoleActual})
		f.Callouts = append(f.Callouts,
			Text{Text: "Last: " + last.Week.Format(CalloutDate), X: p.X + 15, Y: p.Y - 15, FontSize: 16, Bold: true, Role: RoleActual},
			Text{Text: "Solved: " + FormatCount(last.CumulativeActual), X: p.X + 15, Y: p.Y + 5, FontSize: 15, Role: RoleActual},
		)
	}
	if a.Has(AnnotateExpected) && finiteValue(last.ClassroomBenchmark) {
		p := f.point(last, last.ClassroomBenchmark)
		f.Markers = append(f.Markers, Marker{Point: p, Radius: 9, Role: RoleBenchmark})
		f.Callouts = append(f.Callouts,
			Text{Text: "Expected: " + FormatCount(last.ClassroomBenchmark), X: p.X + 15, Y: p.Y + 25, FontSize: 15, Bold: true, Role: RoleBenchmark})
	}
	if a.Has(AnnotateHeadline) {
		pct, ok := analysis.PercentAdditional(last.CumulativeActual, last.ClassroomBenchmark)
		value := analysis.FormatPercent(pct, ok)
		f.Headline = &Headline{
			Value:     value,
			Available: ok,
			Text: Text{
				Text: HeadlineText(pct, ok), X: f.Layout.Margin.Left, Y: f.Layout.Margin.Top * 0.55,
				FontSize: math.Max(14, f.Layout.Height*0.04), Bold: true, Role: RoleActual,
			},
		}
	}
}

// HeadlineText phrases the percent-additional figure for display.
func HeadlineText(pct float64, ok bool) string {
	if !ok {
		return "Practice vs classroom pace: " + analysis.NotAvailable
	}
	sign := ""
	if pct > 0 {
		sign = "+"
	}
	return fmt.Sprintf("Practice vs classroom pace: %s%s%%", sign, analysis.FormatPercent(pct, true))
}

func legendBox(l Layout) LegendBox {
	w := l.Width * 0.32
	x := l.Width - w - 100
	if x < 0 {
		x = 0
	}
	return LegendBox{
		X: x, Y: 0, Width: w, Height: 100,
		Entries: []LegendEntry{{Text: LegendActual, Role: RoleActual}, {Text: LegendBenchmark, Role: RoleBenchmark}},
	}
}

func weekAxisTitle(s TimeScale) string {
	if s.Domain[0].IsZero() {
		return titleWeekAxis
	}
	from, to := s.Domain[0].Format("January 2006"), s.Domain[1].Format("January 2006")
	if from == to {
		return fmt.Sprintf("%s (%s)", titleWeekAxis, from)
	}
	return fmt.Sprintf("%s (%s – %s)", titleWeekAxis, from, to)
}

func finiteValue(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// AtReveal returns the frame as it looks while the lines are drawn in. actual
// and benchmark are the reveal fractions in [0,1]. Markers, callouts and the
// headline only exist once the actual line is complete.
func (f Frame) AtReveal(actual, benchmark float64) Frame {
	out := f
	out.Actual = f.Actual.Reveal(actual)
	out.Benchmark = f.Benchmark.Reveal(benchmark)
	if actual < 1 {
		out.Markers, out.Callouts, out.Headline = nil, nil, nil
		out.Revealed = false
	}
	return out
}

// NearestRecord returns the full-series record whose week is closest to pixel x.
func (f Frame) NearestRecord(x float64) (progress.WeeklyRecord, bool) {
	if len(f.weeks) == 0 {
		return progress.WeeklyRecord{}, false
	}
	t := f.X.Invert(x)
	i := sort.Search(len(f.weeks), func(i int) bool { return !f.weeks[i].Week.Before(t) })
	switch {
	case i == 0:
		return f.weeks[0], true
	case i == len(f.weeks):
		return f.weeks[len(f.weeks)-1], true
	}
	if t.Sub(f.weeks[i-1].Week) <= f.weeks[i].Week.Sub(t) {
		return f.weeks[i-1], true
	}
	return f.weeks[i], true
}

// Records returns the full series the frame was built from.
func (f Frame) Records() []progress.WeeklyRecord { return f.weeks }

// Summary is a one-line description for logs.
func (f Frame) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d weeks, actual %d pts, benchmark %d pts", f.SubjectID, len(f.weeks), len(f.Actual.Points), len(f.Benchmark.Points))
	if f.Headline != nil {
		fmt.Fprintf(&b, ", headline %s", f.Headline.Value)
	}
	return b.String()
}

package chartgeom

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/abhineetsingh10/aml2practice/src/analysis"
)

// Annotations selects which extras are drawn once the actual line has been
// revealed.
type Annotations uint8

const (
	// AnnotateFirst marks the first active week.
	AnnotateFirst Annotations = 1 << iota
	// AnnotateLast marks the last active week with "Last" and "Solved" callouts.
	AnnotateLast
	// AnnotateExpected marks the benchmark at the last active week.
	AnnotateExpected
	// AnnotateHeadline adds the percent-additional headline.
	AnnotateHeadline

	AnnotateMarkers = AnnotateFirst | AnnotateLast | AnnotateExpected
	AnnotateAll     = AnnotateMarkers | AnnotateHeadline
)

// Has reports whether every bit of a is set.
func (x Annotations) Has(a Annotations) bool { return x&a == a }

var annotationNames = []struct {
	name string
	bit  Annotations
}{
	{"first", AnnotateFirst},
	{"last", AnnotateLast},
	{"expected", AnnotateExpected},
	{"headline", AnnotateHeadline},
}

func (x Annotations) String() string {
	var parts []string
	for _, n := range annotationNames {
		if x.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, ",")
}

// ParseAnnotations reads names such as "first", "last", "expected",
// "headline", "markers" or "all".
func ParseAnnotations(names []string) (Annotations, error) {
	var out Annotations
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case "":
			continue
		case "markers":
			out |= AnnotateMarkers
			continue
		case "all":
			out |= AnnotateAll
			continue
		case "none":
			continue
		}
		found := false
		for _, n := range annotationNames {
			if n.name == name {
				out |= n.bit
				found = true
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown annotation %q", raw)
		}
	}
	return out, nil
}

// Options parameterise one chart. The two presets reproduce the trimmed
// weekly chart and the headline biweekly chart.
type Options struct {
	TickEvery         int                 `json:"tick_every"`
	Trim              analysis.TrimPolicy `json:"trim"`
	ActualDuration    time.Duration       `json:"actual_duration"`
	BenchmarkDuration time.Duration       `json:"benchmark_duration"`
	Annotations       Annotations         `json:"annotations"`
	// ReloadOnResize refetches the data on every resize instead of only
	// recomputing the layout.
	ReloadOnResize bool        `json:"reload_on_resize"`
	Layout         LayoutRules `json:"layout"`
}

var (
	PresetTrimmed = Options{
		TickEvery:         1,
		Trim:              analysis.TrimActual,
		ActualDuration:    2 * time.Second,
		BenchmarkDuration: 3 * time.Second,
		Annotations:       AnnotateMarkers,
		ReloadOnResize:    true,
		Layout:            DefaultLayoutRules,
	}
	PresetHeadline = Options{
		TickEvery:         2,
		Trim:              analysis.TrimNone,
		ActualDuration:    2 * time.Second,
		BenchmarkDuration: 3 * time.Second,
		Annotations:       AnnotateAll,
		ReloadOnResize:    false,
		Layout:            DefaultLayoutRules,
	}
)

// Preset returns the named preset: "trimmed" or "headline".
func Preset(name string) (Options, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trimmed", "weekly", "":
		return PresetTrimmed, nil
	case "headline", "biweekly":
		return PresetHeadline, nil
	}
	return Options{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// Validate checks the fields Build relies on.
func (o Options) Validate() error {
	if o.TickEvery != 1 && o.TickEvery != 2 {
		return fmt.Errorf("%w: got %d", ErrBadTickInterval, o.TickEvery)
	}
	if o.ActualDuration < 0 || o.BenchmarkDuration < 0 {
		return fmt.Errorf("negative animation duration")
	}
	return nil
}

// Progress returns how far each line is revealed after elapsed, with a cubic
// ease-out. A zero duration is revealed immediately.
func (o Options) Progress(elapsed time.Duration) (actual, benchmark float64) {
	return easeProgress(elapsed, o.ActualDuration), easeProgress(elapsed, o.BenchmarkDuration)
}

// Settled reports whether both reveals have finished at elapsed.
func (o Options) Settled(elapsed time.Duration) bool {
	return elapsed >= o.ActualDuration && elapsed >= o.BenchmarkDuration
}

func easeProgress(elapsed, d time.Duration) float64 {
	if d <= 0 || elapsed >= d {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	return EaseCubicOut(float64(elapsed) / float64(d))
}

// EaseCubicOut eases t in [0,1].
func EaseCubicOut(t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	u := 1 - t
	return 1 - u*u*u
}

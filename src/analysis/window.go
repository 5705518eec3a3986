package analysis

import (
	"fmt"
	"strings"

	"github.com/abhineetsingh10/aml2practice/src/progress"
)

// ActiveWindow bounds the weeks in which a subject actually practised.
// First and Last index into the series; both are -1 when no week was active.
type ActiveWindow struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// NoWindow is the undefined window.
var NoWindow = ActiveWindow{First: -1, Last: -1}

// Defined reports whether at least one active week exists.
func (w ActiveWindow) Defined() bool { return w.First >= 0 && w.Last >= w.First }

// FirstRecord returns the first active record.
func (w ActiveWindow) FirstRecord(s SubjectSeries) (progress.WeeklyRecord, bool) {
	if !w.Defined() || w.First >= len(s.Records) {
		return progress.WeeklyRecord{}, false
	}
	return s.Records[w.First], true
}

// LastRecord returns the last active record.
func (w ActiveWindow) LastRecord(s SubjectSeries) (progress.WeeklyRecord, bool) {
	if !w.Defined() || w.Last >= len(s.Records) {
		return progress.WeeklyRecord{}, false
	}
	return s.Records[w.Last], true
}

// FindActiveWindow locates the earliest and latest weeks with a positive
// weekly count.
func FindActiveWindow(s SubjectSeries) ActiveWindow {
	w := NoWindow
	for i, r := range s.Records {
		if !r.Active() {
			continue
		}
		if w.First < 0 {
			w.First = i
		}
		w.Last = i
	}
	return w
}

// TrimPolicy decides which part of the series the actual line covers.
type TrimPolicy int

const (
	// TrimActual restricts the actual line to the active window.
	TrimActual TrimPolicy = iota
	// TrimNone draws the full series for both lines.
	TrimNone
)

func (p TrimPolicy) String() string {
	switch p {
	case TrimActual:
		return "actual"
	case TrimNone:
		return "none"
	}
	return fmt.Sprintf("TrimPolicy(%d)", int(p))
}

// ParseTrimPolicy accepts "actual" or "none" (case-insensitive).
func ParseTrimPolicy(s string) (TrimPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "actual", "window", "":
		return TrimActual, nil
	case "none", "full":
		return TrimNone, nil
	}
	return TrimActual, fmt.Errorf("unknown trim policy %q", s)
}

// Trim returns the records the actual line is drawn through. Under TrimActual
// that is the contiguous slice bounded by the window, inclusive. A subject that
// was never active has no actual line under either policy.
func Trim(s SubjectSeries, w ActiveWindow, p TrimPolicy) []progress.WeeklyRecord {
	if !w.Defined() || w.Last >= len(s.Records) {
		return nil
	}
	if p == TrimNone {
		return s.Records
	}
	return s.Records[w.First : w.Last+1]
}

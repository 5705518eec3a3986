package analysis

import (
	"sort"

	"github.com/abhineetsingh10/aml2practice/src/progress"
)

// SubjectSeries is one subject's records ordered by week. It is derived on
// demand and never stored.
type SubjectSeries struct {
	SubjectID string                  `json:"subject_id"`
	Records   []progress.WeeklyRecord `json:"records"`
}

// Len returns the number of weeks in the series.
func (s SubjectSeries) Len() int { return len(s.Records) }

// Empty reports whether the series has no records.
func (s SubjectSeries) Empty() bool { return len(s.Records) == 0 }

// Subjects returns the distinct subject ids in first-seen order.
func Subjects(records []progress.WeeklyRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		if _, ok := seen[r.SubjectID]; ok {
			continue
		}
		seen[r.SubjectID] = struct{}{}
		out = append(out, r.SubjectID)
	}
	return out
}

// SelectSeries returns the records of one subject sorted ascending by week.
// Records with an invalid week cannot be placed on the time axis and are left
// out. An unknown subject yields an empty series.
func SelectSeries(records []progress.WeeklyRecord, subjectID string) SubjectSeries {
	s := SubjectSeries{SubjectID: subjectID}
	dropped := 0
	for _, r := range records {
		if r.SubjectID != subjectID {
			continue
		}
		if !r.ValidWeek() {
			dropped++
			continue
		}
		s.Records = append(s.Records, r)
	}
	if dropped > 0 {
		progress.Warnf("subject %q: skipped %d record(s) with invalid week", subjectID, dropped)
	}
	sort.SliceStable(s.Records, func(i, j int) bool {
		return s.Records[i].Week.Before(s.Records[j].Week)
	})
	return s
}

// GroupBySubject splits records into series, one per subject, in first-seen order.
func GroupBySubject(records []progress.WeeklyRecord) []SubjectSeries {
	ids := Subjects(records)
	out := make([]SubjectSeries, 0, len(ids))
	for _, id := range ids {
		out = append(out, SelectSeries(records, id))
	}
	return out
}

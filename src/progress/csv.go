package progress

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// weekLayouts are tried in order when coercing the Week column.
var weekLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseWeek coerces a week string into a date. Unparseable input yields the zero
// time, which callers treat as an invalid date.
func ParseWeek(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range weekLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseNumber coerces a numeric cell. Blank cells are 0; anything else that is not
// a number is NaN.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// LoadFile reads a weekly practice CSV from disk.
func LoadFile(path string) ([]WeeklyRecord, error) {
	defer TimeTrack(time.Now(), "load "+path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}
	defer f.Close()
	return ParseWeeklyCSV(f)
}

// ParseWeeklyCSV parses a delimited weekly practice table. Columns are matched by
// header name; extra columns are ignored. A missing column or a row with the wrong
// number of fields fails the whole table. Bad numbers and dates are coerced, not
// rejected, and reported at WARN level.
func ParseWeeklyCSV(r io.Reader) ([]WeeklyRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedRow, err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}
	cr.FieldsPerRecord = len(header)

	var out []WeeklyRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRow, err)
		}
		line, _ := cr.FieldPos(0)
		rec := WeeklyRecord{
			SubjectID:          row[idx[ColSubject]],
			Week:               ParseWeek(row[idx[ColWeek]]),
			CumulativeActual:   ParseNumber(row[idx[ColActual]]),
			ClassroomBenchmark: ParseNumber(row[idx[ColBenchmark]]),
			WeeklyDelta:        ParseNumber(row[idx[ColWeekly]]),
			Line:               line,
		}
		if !rec.ValidWeek() {
			Warnf("line %d: invalid week %q for %q", line, row[idx[ColWeek]], rec.SubjectID)
		}
		if !rec.Finite() || math.IsNaN(rec.WeeklyDelta) {
			Warnf("line %d: non-numeric value for %q", line, rec.SubjectID)
		}
		out = append(out, rec)
	}
	Debugf("parsed %d weekly records", len(out))
	return out, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return idx, nil
}

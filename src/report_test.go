package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abhineetsingh10/aml2practice/src/config"
	"github.com/abhineetsingh10/aml2practice/src/progress"
)

const weeklyCSV = `User_Name,Week,Cumulative_Actual,Classroom_Benchmark,Weekly_Questions
Alice Smith,2025-06-01,0,50,0
Alice Smith,2025-06-08,100,100,100
Alice Smith,2025-06-15,300,150,200
bob,2025-06-01,0,50,0
bob,2025-06-08,0,100,0
bob,2025-06-08,0,100,0
`

func testJob(t *testing.T, frames int) *job {
	t.Helper()
	cfg, err := config.LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Chart.Width, cfg.Chart.Height = 400, 300
	j, err := newJob(cfg, filepath.Join(t.TempDir(), "out"), frames, 2, 0)
	if err != nil {
		t.Fatalf("job: %v", err)
	}
	return j
}

func parse(t *testing.T) []progress.WeeklyRecord {
	t.Helper()
	recs, err := progress.ParseWeeklyCSV(strings.NewReader(weeklyCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return recs
}

// TestRenderAllWritesChartsAndReport checks one chart per subject plus the
// report's summaries and integrity issues.
func TestRenderAllWritesChartsAndReport(t *testing.T) {
	j := testJob(t, 0)
	rep := j.renderAll(parse(t), "")
	if len(rep.Subjects) != 2 {
		t.Fatalf("expected 2 subjects got %d", len(rep.Subjects))
	}
	alice := rep.Subjects[0]
	if alice.SubjectID != "Alice Smith" || alice.Headline != "100.0" || alice.Error != "" {
		t.Fatalf("alice result: %+v", alice)
	}
	want := filepath.Join(j.outDir, "alice-smith.png")
	if len(alice.Files) != 1 || alice.Files[0] != want {
		t.Fatalf("files %v want %s", alice.Files, want)
	}
	if fi, err := os.Stat(want); err != nil || fi.Size() == 0 {
		t.Fatalf("chart not written: %v", err)
	}
	// bob has a duplicated week
	found := false
	for _, is := range rep.Issues {
		if is.SubjectID == "bob" && is.Kind == "duplicate_week" {
			found = true
		}
	}
	if !found {
		t.Fatalf("duplicate week not reported: %+v", rep.Issues)
	}

	path := filepath.Join(t.TempDir(), "report.json")
	if err := writeReport(path, rep); err != nil {
		t.Fatalf("write report: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(b, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	subs, ok := parsed["subjects"].([]interface{})
	if !ok || len(subs) != 2 {
		t.Fatalf("subjects missing: %s", string(b))
	}
	first := subs[0].(map[string]interface{})
	if first["subject_id"] != "Alice Smith" || first["headline"] != "100.0" {
		t.Fatalf("summary fields not flattened into subject entry: %v", first)
	}
}

func TestRenderAll_RevealFramesAndUnknownSubject(t *testing.T) {
	j := testJob(t, 4)
	rep := j.renderAll(parse(t), "Alice Smith")
	if len(rep.Subjects) != 1 || len(rep.Subjects[0].Files) != 5 {
		t.Fatalf("expected chart + 4 reveal frames: %+v", rep.Subjects)
	}
	if !strings.HasSuffix(rep.Subjects[0].Files[4], "alice-smith_reveal_003.png") {
		t.Fatalf("frame naming: %v", rep.Subjects[0].Files)
	}

	rep = j.renderAll(parse(t), "zed")
	if len(rep.Subjects) != 1 || rep.Subjects[0].SubjectID != "zed" || rep.Subjects[0].Headline != "n/a" {
		t.Fatalf("unknown subject: %+v", rep.Subjects)
	}
	if len(rep.Subjects[0].Files) != 1 {
		t.Fatalf("unknown subject should still get an empty chart: %+v", rep.Subjects[0])
	}
}

func TestNewJobRejectsUnsupportedFormat(t *testing.T) {
	cfg, err := config.LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Chart.Backend = "canvas"
	cfg.Chart.Format = "pdf"
	if _, err := newJob(cfg, t.TempDir(), 0, 1, 0); err == nil {
		t.Fatalf("canvas cannot write pdf")
	}
}

func TestDeriveDefaultReportPath(t *testing.T) {
	p := deriveDefaultReportPath(time.Date(2025, 6, 22, 10, 30, 0, 0, time.UTC))
	if filepath.Base(p) != "report_20250622_103000.json" {
		t.Fatalf("report path %s", p)
	}
}

// TestRenderAll_DistinctFilesForSimilarNames checks that subjects whose names
// fold to the same file name still get one chart each.
func TestRenderAll_DistinctFilesForSimilarNames(t *testing.T) {
	csv := "User_Name,Week,Cumulative_Actual,Classroom_Benchmark,Weekly_Questions\n"
	ids := []string{"张伟", "李娜", "Ann Lee", "ann-lee", "ann lee"}
	for _, id := range ids {
		csv += id + ",2025-06-01,0,50,0\n" + id + ",2025-06-08,60,100,60\n"
	}
	recs, err := progress.ParseWeeklyCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	j := testJob(t, 0)
	rep := j.renderAll(recs, "")
	if len(rep.Subjects) != len(ids) {
		t.Fatalf("expected %d subjects got %d", len(ids), len(rep.Subjects))
	}
	owner := map[string]string{}
	for _, s := range rep.Subjects {
		if s.Error != "" || len(s.Files) != 1 {
			t.Fatalf("%q: %+v", s.SubjectID, s)
		}
		if prev, ok := owner[s.Files[0]]; ok {
			t.Fatalf("subjects %q and %q share %s", prev, s.SubjectID, s.Files[0])
		}
		owner[s.Files[0]] = s.SubjectID
	}
	entries, err := os.ReadDir(j.outDir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != len(ids) {
		t.Fatalf("expected %d files on disk got %d", len(ids), len(entries))
	}
	if rep.Subjects[0].Files[0] != filepath.Join(j.outDir, "张伟.png") {
		t.Fatalf("non-latin names should be kept: %s", rep.Subjects[0].Files[0])
	}
}

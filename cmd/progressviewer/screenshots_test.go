package main

import (
	"image"
	_ "image/png" // register PNG decoder
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abhineetsingh10/aml2practice/src/analysis"
	"github.com/abhineetsingh10/aml2practice/src/chartgeom"
	"github.com/abhineetsingh10/aml2practice/src/config"
)

const screenshotCSV = `User_Name,Week,Cumulative_Actual,Classroom_Benchmark,Weekly_Questions
Alice Smith,2025-06-01,0,50,0
Alice Smith,2025-06-08,30,100,30
Alice Smith,2025-06-15,120,150,90
bob,2025-06-01,0,50,0
bob,2025-06-08,0,100,0
`

func screenshotConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "weekly.csv")
	if err := os.WriteFile(path, []byte(screenshotCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Data.URI = path
	cfg.Chart.Backend = backend
	cfg.Chart.Width, cfg.Chart.Height = 800, 600
	return cfg
}

func TestScreenshots_AllSubjectsSameSize(t *testing.T) {
	for _, backend := range []string{"canvas", "chart", "plot"} {
		cfg := screenshotConfig(t, backend)
		outDir := t.TempDir()
		if err := RunScreenshotsMode(cfg, outDir); err != nil {
			t.Fatalf("%s: screenshots: %v", backend, err)
		}
		wantW, wantH := chartgeom.ComputeLayout(cfg.Chart.Viewport(), cfg.Chart.Layout).PixelSize()
		for _, name := range []string{"alice-smith.png", "alice-smith_mid.png", "bob.png"} {
			f, err := os.Open(filepath.Join(outDir, name))
			if err != nil {
				t.Fatalf("%s: missing %s: %v", backend, name, err)
			}
			img, _, err := image.Decode(f)
			f.Close()
			if err != nil {
				t.Fatalf("%s: decode %s: %v", backend, name, err)
			}
			if img.Bounds().Dx() != wantW || img.Bounds().Dy() != wantH {
				t.Fatalf("%s: %s is %v, want %dx%d", backend, name, img.Bounds(), wantW, wantH)
			}
		}
	}
}

func TestScreenshots_BadSource(t *testing.T) {
	cfg := screenshotConfig(t, "canvas")
	cfg.Data.URI = filepath.Join(t.TempDir(), "missing.csv")
	if err := RunScreenshotsMode(cfg, t.TempDir()); err == nil {
		t.Fatalf("expected an error for a missing source")
	}
}

func TestCrosshairLabel_SnapsToWeek(t *testing.T) {
	cfg := screenshotConfig(t, "canvas")
	opts, err := cfg.Chart.Options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	recs := testRecords()
	f := chartgeom.Build(analysis.SelectSeries(recs, "alice"), cfg.Chart.Viewport(), opts)
	x := f.X.Map(week(1))
	lines, lineX, ok := crosshairLabel(f, x+3)
	if !ok {
		t.Fatalf("no label")
	}
	if lineX != x {
		t.Fatalf("line not snapped: got %v want %v", lineX, x)
	}
	if lines[0] != "Week of Jun 08, 2025" || lines[1] != "Actual: 30" {
		t.Fatalf("unexpected label: %q", strings.Join(lines, " | "))
	}

	empty := chartgeom.Build(analysis.SelectSeries(recs, "zed"), cfg.Chart.Viewport(), opts)
	if _, _, ok := crosshairLabel(empty, 100); ok {
		t.Fatalf("empty frame should have no label")
	}
}

// aml2practice batch entrypoint.
//
// Loads the weekly practice table from any supported source, renders one chart
// per subject with the selected back end and writes a JSON report with the
// per-subject summaries and integrity issues.
//
//   - -subject limits rendering to one subject; otherwise every subject is
//     rendered by a small worker pool.
//   - -reveal-frames N additionally writes N intermediate animation frames per
//     subject (name_reveal_000.png ...), useful for checking the draw-in.
//   - -watch keeps running and re-renders when a file-backed source changes.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/abhineetsingh10/aml2practice/src/analysis"
	"github.com/abhineetsingh10/aml2practice/src/chartgeom"
	"github.com/abhineetsingh10/aml2practice/src/config"
	"github.com/abhineetsingh10/aml2practice/src/progress"
	"github.com/abhineetsingh10/aml2practice/src/render"
)

type job struct {
	cfg      *config.Config
	opts     chartgeom.Options
	backend  render.Backend
	format   render.Format
	viewport chartgeom.Viewport
	outDir   string
	frames   int
	parallel int
	interval time.Duration
}

func main() {
	configPath := flag.String("config", ".", "Config file or directory containing config.yaml")
	source := flag.String("source", "", "Override data.uri (path, http(s)://, s3://bucket/key, postgres://)")
	subject := flag.String("subject", "", "Render only this subject")
	outDir := flag.String("out", "charts", "Output directory for rendered charts")
	preset := flag.String("preset", "", "Chart preset: trimmed or headline (default from config)")
	backendName := flag.String("backend", "", "Renderer: canvas, chart or plot (default from config)")
	formatName := flag.String("format", "", "Output format: png, svg or pdf (default from config)")
	paletteName := flag.String("palette", "", "Palette: light or dark")
	width := flag.Int("width", 0, "Viewport width in pixels (default from config)")
	height := flag.Int("height", 0, "Viewport height in pixels (default from config)")
	revealFrames := flag.Int("reveal-frames", 0, "If >0 also write this many intermediate reveal frames per subject")
	parallel := flag.Int("parallel", 4, "Maximum concurrent renders")
	progressInterval := flag.Duration("progress-interval", 5*time.Second, "Interval for progress logging of the render pool (0 disables)")
	reportPath := flag.String("report", "", "Path of the JSON report (default report_<timestamp>.json at the repo root)")
	logLevel := flag.String("log-level", "", "Log level (debug|info|warn|error)")
	watch := flag.Bool("watch", false, "Re-render whenever a file-backed source changes")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *source != "" {
		cfg.Data.URI = *source
	}
	if *preset != "" {
		cfg.Chart.Preset = *preset
	}
	if *backendName != "" {
		cfg.Chart.Backend = *backendName
	}
	if *formatName != "" {
		cfg.Chart.Format = *formatName
	}
	if *paletteName != "" {
		cfg.Chart.Palette = *paletteName
	}
	if *width > 0 {
		cfg.Chart.Width = *width
	}
	if *height > 0 {
		cfg.Chart.Height = *height
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	progress.InitLogger(cfg.Log)
	defer progress.Sync()

	j, err := newJob(cfg, *outDir, *revealFrames, *parallel, *progressInterval)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	loader, err := progress.NewLoader(cfg.Data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	ds := progress.NewDataset(loader)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := func() error {
		if err := ds.Reload(ctx); err != nil {
			return err
		}
		snap, err := ds.Snapshot()
		if err != nil {
			return err
		}
		rep := j.renderAll(snap.Records, *subject)
		rep.Source = ds.Source()
		path := *reportPath
		if path == "" {
			path = deriveDefaultReportPath(time.Now())
		}
		return writeReport(path, rep)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if !*watch {
		return
	}
	path, ok := ds.LocalPath()
	if !ok {
		fmt.Fprintf(os.Stderr, "error: -watch needs a file source, have %s\n", ds.Source())
		os.Exit(1)
	}
	progress.Infof("watching %s for changes", path)
	err = progress.WatchFile(ctx, path, cfg.Server.WatchDebounce, func() {
		if err := run(); err != nil {
			progress.Errorf("re-render after change: %v", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newJob(cfg *config.Config, outDir string, frames, parallel int, interval time.Duration) (*job, error) {
	opts, err := cfg.Chart.Options()
	if err != nil {
		return nil, err
	}
	format, err := render.ParseFormat(cfg.Chart.Format)
	if err != nil {
		return nil, err
	}
	b, err := render.New(cfg.Chart.Backend, render.PaletteByName(cfg.Chart.Palette))
	if err != nil {
		return nil, err
	}
	if !b.Supports(format) {
		return nil, fmt.Errorf("%w: %s cannot write %s", render.ErrUnsupportedFormat, b.Name(), format)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", outDir, err)
	}
	if parallel < 1 {
		parallel = 1
	}
	return &job{
		cfg: cfg, opts: opts, backend: b, format: format, viewport: cfg.Chart.Viewport(),
		outDir: outDir, frames: frames, parallel: parallel, interval: interval,
	}, nil
}

type subjectResult struct {
	analysis.Summary
	Files []string `json:"files,omitempty"`
	Error string   `json:"error,omitempty"`
}

type report struct {
	GeneratedAt string           `json:"generated_at"`
	Source      string           `json:"source"`
	Backend     string           `json:"backend"`
	Format      string           `json:"format"`
	Preset      string           `json:"preset"`
	Subjects    []subjectResult  `json:"subjects"`
	Issues      []analysis.Issue `json:"issues"`
}

// renderAll renders every selected subject with a bounded worker pool. Failures
// are recorded per subject and do not stop the others.
func (j *job) renderAll(records []progress.WeeklyRecord, only string) report {
	defer progress.TimeTrack(time.Now(), "render all subjects")
	groups := analysis.GroupBySubject(records)
	if only != "" {
		// an unknown subject still gets its (empty) chart
		groups = []analysis.SubjectSeries{analysis.SelectSeries(records, only)}
		groups[0].SubjectID = only
	}
	results := make([]subjectResult, len(groups))
	names := render.NewFileNames()
	bases := make([]string, len(groups))
	for i, g := range groups {
		bases[i] = names.Name(g.SubjectID)
	}

	workCh := make(chan int)
	var wg sync.WaitGroup
	var inFlight, completed int32
	stopProgress := make(chan struct{})
	if j.interval > 0 {
		go func() {
			ticker := time.NewTicker(j.interval)
			defer ticker.Stop()
			for {
				select {
				case <-stopProgress:
					return
				case <-ticker.C:
					progress.Infof("[render progress] workers_busy=%d/%d done=%d/%d",
						atomic.LoadInt32(&inFlight), j.parallel, atomic.LoadInt32(&completed), len(groups))
				}
			}
		}()
	}
	for w := 0; w < j.parallel; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				atomic.AddInt32(&inFlight, 1)
				results[i] = j.renderSubject(groups[i], bases[i])
				atomic.AddInt32(&inFlight, -1)
				atomic.AddInt32(&completed, 1)
			}
		}()
	}
	for i := range groups {
		workCh <- i
	}
	close(workCh)
	wg.Wait()
	close(stopProgress)

	issues := analysis.CheckAll(records)
	if issues == nil {
		issues = []analysis.Issue{}
	}
	return report{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Backend:     j.backend.Name(),
		Format:      string(j.format),
		Preset:      j.cfg.Chart.Preset,
		Subjects:    results,
		Issues:      issues,
	}
}

// renderSubject writes the chart of s as <name>.<ext>; name must be unique
// within the output directory.
func (j *job) renderSubject(s analysis.SubjectSeries, name string) subjectResult {
	res := subjectResult{Summary: analysis.Summarize(s)}
	frame := chartgeom.Build(s, j.viewport, j.opts)
	base := filepath.Join(j.outDir, name)

	path := base + j.format.Ext()
	if err := j.write(path, frame, s.SubjectID); err != nil {
		res.Error = err.Error()
		progress.Errorf("render %s: %v", s.SubjectID, err)
		return res
	}
	res.Files = append(res.Files, path)

	if j.frames > 0 && !frame.Empty {
		longest := j.opts.ActualDuration
		if j.opts.BenchmarkDuration > longest {
			longest = j.opts.BenchmarkDuration
		}
		for i := 0; i < j.frames; i++ {
			elapsed := longest * time.Duration(i) / time.Duration(j.frames)
			a, b := j.opts.Progress(elapsed)
			p := fmt.Sprintf("%s_reveal_%03d%s", base, i, j.format.Ext())
			if err := j.write(p, frame.AtReveal(a, b), s.SubjectID); err != nil {
				res.Error = err.Error()
				return res
			}
			res.Files = append(res.Files, p)
		}
	}
	progress.Debugf("rendered %s (%d files)", s.SubjectID, len(res.Files))
	return res
}

func (j *job) write(path string, frame chartgeom.Frame, subject string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = j.backend.Render(f, frame, j.format)
	if errors.Is(err, render.ErrEmptyFrame) {
		if _, serr := f.Seek(0, 0); serr == nil {
			_ = f.Truncate(0)
		}
		w, h := frame.Layout.PixelSize()
		err = render.Notice(f, w, h, "No data for "+subject, j.format, render.PaletteByName(j.cfg.Chart.Palette))
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
	}
	return err
}

func writeReport(path string, rep report) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	progress.Infof("wrote report %s (%d subjects, %d issues)", path, len(rep.Subjects), len(rep.Issues))
	return nil
}

// deriveDefaultReportPath returns report_<timestamp>.json; if CWD is src/, the
// report goes to the parent repo root.
func deriveDefaultReportPath(now time.Time) string {
	name := fmt.Sprintf("report_%s.json", now.UTC().Format("20060102_150405"))
	cwd, err := os.Getwd()
	if err != nil {
		return name
	}
	if filepath.Base(cwd) == "src" {
		return filepath.Join(filepath.Dir(cwd), name)
	}
	return filepath.Join(cwd, name)
}

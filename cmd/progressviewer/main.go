package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	png "image/png"
	"os"
	"strings"
	"time"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/abhineetsingh10/aml2practice/cmd/progressviewer/uihelpers"
	"github.com/abhineetsingh10/aml2practice/src/chartgeom"
	"github.com/abhineetsingh10/aml2practice/src/config"
	"github.com/abhineetsingh10/aml2practice/src/progress"
	"github.com/abhineetsingh10/aml2practice/src/render"
)

type uiState struct {
	app    fyne.App
	window fyne.Window
	cfg    *config.Config

	ds      *progress.Dataset
	model   *viewModel
	backend render.Backend
	palette render.Palette

	// widgets
	img         *canvas.Image
	overlay     *crosshairOverlay
	subjectSel  *widget.Select
	statusLabel *widget.Label
	sourceLabel *widget.Label

	// frame currently on screen at full reveal; the crosshair reads it
	frame    chartgeom.Frame
	anim     *fyne.Animation
	lastTick time.Time

	presetName       string
	backendName      string
	crosshairEnabled bool
	showHints        bool
	darkMode         bool
}

// dark theme wrapper
type darkTheme struct{}

func (d *darkTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}
func (d *darkTheme) Font(style fyne.TextStyle) fyne.Resource { return theme.DefaultTheme().Font(style) }
func (d *darkTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}
func (d *darkTheme) Size(name fyne.ThemeSizeName) float32 { return theme.DefaultTheme().Size(name) }

func main() {
	var configPath, source, screenshotsDir, preset, backendName string
	flag.StringVar(&configPath, "config", ".", "Config file or directory containing config.yaml")
	flag.StringVar(&source, "source", "", "Data source (path, http(s)://, s3://bucket/key, postgres://)")
	flag.StringVar(&screenshotsDir, "screenshots", "", "Render every subject to PNGs in this directory and exit (no window)")
	flag.StringVar(&preset, "preset", "", "Chart preset: trimmed or headline")
	flag.StringVar(&backendName, "backend", "", "Renderer: canvas, chart or plot")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if source != "" {
		cfg.Data.URI = source
	}
	if preset != "" {
		cfg.Chart.Preset = preset
	}
	if backendName != "" {
		cfg.Chart.Backend = backendName
	}
	progress.InitLogger(cfg.Log)
	defer progress.Sync()

	if screenshotsDir != "" {
		if err := RunScreenshotsMode(cfg, screenshotsDir); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	a := app.NewWithID("com.aml2practice.viewer")
	w := a.NewWindow("Practice Progress")
	w.Resize(fyne.NewSize(1280, 860))

	opts, err := cfg.Chart.Options()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	state := &uiState{
		app:         a,
		window:      w,
		cfg:         cfg,
		model:       newViewModel(opts),
		presetName:  cfg.Chart.Preset,
		backendName: cfg.Chart.Backend,
	}
	loadPrefs(state)
	// explicit flags win over saved preferences
	if preset != "" {
		state.presetName = preset
	}
	if backendName != "" {
		state.backendName = backendName
	}
	if state.darkMode {
		a.Settings().SetTheme(&darkTheme{})
	}
	if err := state.setBackend(state.backendName); err != nil {
		progress.Warnf("saved renderer %q: %v", state.backendName, err)
		if err := state.setBackend(cfg.Chart.Backend); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
	if state.presetName != cfg.Chart.Preset {
		if o, err := chartgeom.Preset(state.presetName); err == nil {
			state.model.setOptions(o)
		} else {
			state.presetName = cfg.Chart.Preset
		}
	}

	state.sourceLabel = widget.NewLabel(uihelpers.TruncatePath(cfg.Data.URI, 60))
	state.statusLabel = widget.NewLabel("")
	state.subjectSel = widget.NewSelect(nil, nil)
	state.subjectSel.PlaceHolder = "Subject"

	presetSel := widget.NewSelect([]string{"trimmed", "headline"}, nil)
	presetSel.Selected = state.presetName
	backendSel := widget.NewSelect(render.Backends, nil)
	backendSel.Selected = state.backendName
	crosshairChk := widget.NewCheck("Crosshair", nil)
	crosshairChk.SetChecked(state.crosshairEnabled)
	hintsChk := widget.NewCheck("Hints", nil)
	hintsChk.SetChecked(state.showHints)
	darkChk := widget.NewCheck("Dark", nil)
	darkChk.SetChecked(state.darkMode)

	state.img = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 100, 60)))
	state.img.FillMode = canvas.ImageFillContain
	state.img.SetMinSize(fyne.NewSize(640, 400))
	state.overlay = newCrosshairOverlay(state)

	top := container.NewHBox(
		widget.NewButton("Open…", func() { openFileDialog(state) }),
		widget.NewButton("Reload", func() { reload(state) }),
		widget.NewLabel("Subject:"), state.subjectSel,
		widget.NewLabel("Chart:"), presetSel,
		widget.NewLabel("Renderer:"), backendSel,
		crosshairChk, hintsChk, darkChk,
		state.statusLabel,
	)
	bottom := container.NewHBox(widget.NewLabel("Source:"), state.sourceLabel)
	w.SetContent(container.NewBorder(top, bottom, nil, nil, container.NewStack(state.img, state.overlay)))

	// callbacks once every widget exists
	state.subjectSel.OnChanged = func(v string) {
		state.model.selectSubject(v)
		savePrefs(state)
		redraw(state, true)
	}
	presetSel.OnChanged = func(v string) {
		o, err := chartgeom.Preset(v)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		state.presetName = v
		state.model.setOptions(o)
		savePrefs(state)
		redraw(state, true)
	}
	backendSel.OnChanged = func(v string) {
		if err := state.setBackend(v); err != nil {
			dialog.ShowError(err, w)
			return
		}
		savePrefs(state)
		redraw(state, false)
	}
	crosshairChk.OnChanged = func(b bool) {
		state.crosshairEnabled = b
		state.overlay.enabled = b
		savePrefs(state)
		state.overlay.Refresh()
	}
	hintsChk.OnChanged = func(b bool) {
		state.showHints = b
		savePrefs(state)
		redraw(state, false)
	}
	darkChk.OnChanged = func(b bool) {
		state.darkMode = b
		if b {
			a.Settings().SetTheme(&darkTheme{})
		} else {
			a.Settings().SetTheme(theme.DefaultTheme())
		}
		state.palette = render.PaletteByName(paletteName(b))
		_ = state.setBackend(state.backendName)
		savePrefs(state)
		redraw(state, false)
	}

	// Redraw on window resize; the trimmed preset refetches the data as well
	done := make(chan struct{})
	w.SetOnClosed(func() {
		savePrefs(state)
		close(done)
	})
	go func() {
		var prev fyne.Size
		t := time.NewTicker(300 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				c := w.Canvas()
				if c == nil {
					continue
				}
				sz := c.Size()
				if sz == prev {
					continue
				}
				first := prev == fyne.Size{}
				prev = sz
				if first {
					continue
				}
				fyne.Do(func() { onResize(state) })
			}
		}
	}()

	buildMenus(state)
	reload(state)
	w.ShowAndRun()
}

func paletteName(dark bool) string {
	if dark {
		return "dark"
	}
	return "light"
}

func (s *uiState) setBackend(name string) error {
	if s.palette == (render.Palette{}) {
		s.palette = render.PaletteByName(paletteName(s.darkMode))
	}
	b, err := render.New(name, s.palette)
	if err != nil {
		return err
	}
	if !b.Supports(render.PNG) {
		return fmt.Errorf("%s cannot rasterise", name)
	}
	s.backend = b
	s.backendName = name
	return nil
}

func onResize(state *uiState) {
	_, _, opts, _ := state.model.snapshot()
	if opts.ReloadOnResize {
		reload(state)
		return
	}
	state.model.invalidate()
	redraw(state, false)
}

// reload refetches the data in the background. Results from a superseded
// request are dropped.
func reload(state *uiState) {
	if state.ds == nil || state.ds.Source() != state.cfg.Data.URI {
		loader, err := progress.NewLoader(state.cfg.Data)
		if err != nil {
			state.statusLabel.SetText("No data source")
			showNotice(state, "Open a weekly practice CSV to begin")
			return
		}
		state.ds = progress.NewDataset(loader)
	}
	gen := state.model.beginLoad()
	state.statusLabel.SetText("Loading…")
	ds := state.ds
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), state.cfg.Data.Timeout)
		defer cancel()
		err := ds.Reload(ctx)
		var recs []progress.WeeklyRecord
		if err == nil {
			snap, serr := ds.Snapshot()
			recs, err = snap.Records, serr
		}
		fyne.Do(func() {
			if !state.model.finishLoad(gen, recs, err) {
				return
			}
			if err != nil {
				state.statusLabel.SetText("Load failed")
				progress.Errorf("viewer load: %v", err)
			} else {
				progress.Debugf("viewer loaded %d rows", len(recs))
			}
			updateSubjects(state)
			redraw(state, true)
		})
	}()
}

func updateSubjects(state *uiState) {
	subjects := state.model.subjects()
	_, current, _, _ := state.model.snapshot()
	state.subjectSel.Options = subjects
	// set without firing OnChanged; redraw follows
	state.subjectSel.Selected = current
	state.subjectSel.Refresh()
}

// redraw rebuilds the frame for the current window size. With animate set the
// lines are drawn in over the preset's durations.
func redraw(state *uiState, animate bool) {
	if state.anim != nil {
		state.anim.Stop()
		state.anim = nil
	}
	gen := state.model.invalidate()
	st, subject, opts, lastErr := state.model.snapshot()
	vp := uihelpers.ComputeViewport(state.window.Canvas().Size().Width, state.window.Canvas().Size().Height)

	switch {
	case st == stateUninitialized || (st == stateLoading && len(state.model.subjects()) == 0):
		showNotice(state, "Loading…")
		return
	case st == stateFailed && len(state.model.subjects()) == 0:
		showNotice(state, "Failed to load data: "+errString(lastErr))
		return
	case subject == "":
		showNotice(state, "No subjects in data")
		return
	}

	f := state.model.frame(vp)
	state.frame = f
	if st != stateFailed {
		state.statusLabel.SetText(state.model.statusText())
	}
	if !animate || f.Empty || opts.Settled(0) {
		showFrame(state, f)
		return
	}
	longest := opts.ActualDuration
	if opts.BenchmarkDuration > longest {
		longest = opts.BenchmarkDuration
	}
	state.lastTick = time.Time{}
	var anim *fyne.Animation
	anim = fyne.NewAnimation(longest, func(p float32) {
		if !state.model.current(gen) {
			anim.Stop()
			return
		}
		now := time.Now()
		done := p >= 1
		if !uihelpers.ShouldRenderTick(state.lastTick, now, done) {
			return
		}
		state.lastTick = now
		a, b := opts.Progress(time.Duration(float64(longest) * float64(p)))
		showFrame(state, f.AtReveal(a, b))
	})
	anim.Curve = fyne.AnimationLinear
	state.anim = anim
	anim.Start()
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

func showFrame(state *uiState, f chartgeom.Frame) {
	img, err := render.Image(state.backend, f)
	if errors.Is(err, render.ErrEmptyFrame) {
		w, h := f.Layout.PixelSize()
		img, err = noticeImage(w, h, "No data for "+f.SubjectID, state.palette)
	}
	if err != nil {
		progress.Errorf("render %s: %v", f.SubjectID, err)
		w, h := f.Layout.PixelSize()
		img = render.Blank(w, h, state.palette)
	}
	if state.showHints && f.Revealed {
		img = render.DrawHint(img, f.Summary())
	}
	setImage(state, img)
}

func showNotice(state *uiState, msg string) {
	vp := uihelpers.ComputeViewport(state.window.Canvas().Size().Width, state.window.Canvas().Size().Height)
	l := chartgeom.ComputeLayout(vp, chartgeom.DefaultLayoutRules)
	w, h := l.PixelSize()
	img, err := noticeImage(w, h, msg, state.palette)
	if err != nil {
		img = render.Blank(w, h, state.palette)
	}
	state.frame = chartgeom.Frame{}
	setImage(state, img)
}

func noticeImage(w, h int, msg string, p render.Palette) (image.Image, error) {
	var buf bytes.Buffer
	if err := render.Notice(&buf, w, h, msg, render.PNG, p); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

func setImage(state *uiState, img image.Image) {
	state.img.Image = img
	state.img.Refresh()
	if state.overlay != nil {
		state.overlay.Refresh()
	}
}

// menus and dialogs
func buildMenus(state *uiState) {
	var items []*fyne.MenuItem
	for _, f := range recentFiles(state) {
		f := f
		items = append(items, fyne.NewMenuItem(uihelpers.TruncatePath(f, 60), func() { openSource(state, f) }))
	}
	clearRecent := fyne.NewMenuItem("Clear Recent", func() { clearRecentFiles(state); buildMenus(state) })
	recentMenu := fyne.NewMenu("Open Recent", append(items, clearRecent)...)
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open…", func() { openFileDialog(state) }),
		fyne.NewMenuItem("Reload", func() { reload(state) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Chart…", func() { exportChartPNG(state) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { state.window.Close() }),
	)
	state.window.SetMainMenu(fyne.NewMainMenu(fileMenu, recentMenu))

	canv := state.window.Canvas()
	if canv == nil {
		return
	}
	for _, mod := range []fyne.KeyModifier{fyne.KeyModifierSuper, fyne.KeyModifierControl} {
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: mod}, func(fyne.Shortcut) { openFileDialog(state) })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyR, Modifier: mod}, func(fyne.Shortcut) { reload(state) })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyE, Modifier: mod}, func(fyne.Shortcut) { exportChartPNG(state) })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyW, Modifier: mod}, func(fyne.Shortcut) { state.window.Close() })
	}
}

func openFileDialog(state *uiState) {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		openSource(state, rc.URI().Path())
	}, state.window)
	d.Show()
}

func openSource(state *uiState, path string) {
	state.cfg.Data.URI = path
	state.sourceLabel.SetText(uihelpers.TruncatePath(path, 60))
	addRecentFile(state, path)
	savePrefs(state)
	buildMenus(state)
	reload(state)
}

func exportChartPNG(state *uiState) {
	if state.img == nil || state.img.Image == nil || state.frame.SubjectID == "" {
		dialog.ShowInformation("Export", "No chart to export.", state.window)
		return
	}
	// export the fully revealed chart even mid-animation
	img, err := render.Image(state.backend, state.frame)
	if err != nil {
		img = state.img.Image
	}
	fs := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		if err := png.Encode(wc, img); err != nil {
			dialog.ShowError(err, state.window)
		}
	}, state.window)
	fs.SetFileName(render.FileName(state.frame.SubjectID) + ".png")
	fs.Show()
}

// recent files helpers
func recentFiles(state *uiState) []string {
	raw := state.app.Preferences().StringWithFallback("recentFiles", "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, "\n") {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func addRecentFile(state *uiState, path string) {
	filtered := []string{path}
	for _, f := range recentFiles(state) {
		if f != path && len(filtered) < 10 {
			filtered = append(filtered, f)
		}
	}
	state.app.Preferences().SetString("recentFiles", strings.Join(filtered, "\n"))
}

func clearRecentFiles(state *uiState) {
	state.app.Preferences().SetString("recentFiles", "")
}

// prefs
func savePrefs(state *uiState) {
	if state == nil || state.app == nil {
		return
	}
	prefs := state.app.Preferences()
	_, subject, _, _ := state.model.snapshot()
	prefs.SetString("lastSource", state.cfg.Data.URI)
	prefs.SetString("lastSubject", subject)
	prefs.SetString("preset", state.presetName)
	prefs.SetString("backend", state.backendName)
	prefs.SetBool("crosshair", state.crosshairEnabled)
	prefs.SetBool("showHints", state.showHints)
	prefs.SetBool("darkMode", state.darkMode)
}

func loadPrefs(state *uiState) {
	prefs := state.app.Preferences()
	if state.cfg.Data.URI == "" {
		state.cfg.Data.URI = prefs.StringWithFallback("lastSource", "")
	}
	if s := prefs.StringWithFallback("lastSubject", ""); s != "" {
		state.model.selectSubject(s)
	}
	state.presetName = prefs.StringWithFallback("preset", state.presetName)
	state.backendName = prefs.StringWithFallback("backend", state.backendName)
	state.crosshairEnabled = prefs.BoolWithFallback("crosshair", false)
	state.showHints = prefs.BoolWithFallback("showHints", false)
	state.darkMode = prefs.BoolWithFallback("darkMode", false)
}

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/abhineetsingh10/aml2practice/src/analysis"
	"github.com/abhineetsingh10/aml2practice/src/chartgeom"
	"github.com/abhineetsingh10/aml2practice/src/config"
	"github.com/abhineetsingh10/aml2practice/src/progress"
	"github.com/abhineetsingh10/aml2practice/src/render"
)

// RunScreenshotsMode renders every subject at the configured size and writes
// <subject>.png plus <subject>_mid.png (halfway through the reveal) under
// outDir. It runs headlessly without creating a UI window.
func RunScreenshotsMode(cfg *config.Config, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}
	opts, err := cfg.Chart.Options()
	if err != nil {
		return err
	}
	palette := render.PaletteByName(cfg.Chart.Palette)
	b, err := render.New(cfg.Chart.Backend, palette)
	if err != nil {
		return err
	}
	loader, err := progress.NewLoader(cfg.Data)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Data.Timeout)
	defer cancel()
	recs, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	vp := cfg.Chart.Viewport()
	names := render.NewFileNames()
	for _, s := range analysis.GroupBySubject(recs) {
		f := chartgeom.Build(s, vp, opts)
		name := names.Name(s.SubjectID)
		if err := writeScreenshot(filepath.Join(outDir, name+".png"), b, f, palette); err != nil {
			return err
		}
		if f.Empty {
			continue
		}
		a, bm := opts.Progress(opts.ActualDuration / 2)
		if err := writeScreenshot(filepath.Join(outDir, name+"_mid.png"), b, f.AtReveal(a, bm), palette); err != nil {
			return err
		}
	}
	return nil
}

func writeScreenshot(path string, b render.Backend, f chartgeom.Frame, p render.Palette) error {
	var buf bytes.Buffer
	err := b.Render(&buf, f, render.PNG)
	if errors.Is(err, render.ErrEmptyFrame) {
		buf.Reset()
		w, h := f.Layout.PixelSize()
		err = render.Notice(&buf, w, h, "No data for "+f.SubjectID, render.PNG, p)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", f.SubjectID, err)
	}
	// round-trip through the decoder so a broken back end fails here, not later
	if _, err := png.DecodeConfig(bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("png %s: %w", f.SubjectID, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhineetsingh10/aml2practice/src/analysis"
	"github.com/abhineetsingh10/aml2practice/src/chartgeom"
	"github.com/abhineetsingh10/aml2practice/src/progress"
	"github.com/abhineetsingh10/aml2practice/src/render"
)

const maxDimension = 8000

// snapshot returns the dataset, reloading first when reload_on_render is set.
// A failed reload keeps serving the previous snapshot.
func (s *Server) snapshot(c *gin.Context) (progress.Snapshot, bool) {
	if s.cfg.Server.ReloadOnRender {
		_ = s.Load(c.Request.Context(), "render")
	}
	snap, err := s.data.Snapshot()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, progress.ErrNotLoaded) {
			status = http.StatusServiceUnavailable
		}
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
		return progress.Snapshot{}, false
	}
	return snap, true
}

func (s *Server) options(c *gin.Context) (chartgeom.Options, bool) {
	name := c.Query("preset")
	if name == "" {
		return s.opts, true
	}
	opts, err := chartgeom.Preset(name)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return chartgeom.Options{}, false
	}
	return opts, true
}

func dimension(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 || v > maxDimension {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + key + ": " + raw})
		return 0, false
	}
	return v, true
}

func (s *Server) viewport(c *gin.Context) (chartgeom.Viewport, bool) {
	w, ok := dimension(c, "width", s.cfg.Chart.Width)
	if !ok {
		return chartgeom.Viewport{}, false
	}
	h, ok := dimension(c, "height", s.cfg.Chart.Height)
	if !ok {
		return chartgeom.Viewport{}, false
	}
	return chartgeom.Viewport{Width: w, Height: h}, true
}

func (s *Server) health(c *gin.Context) {
	snap, err := s.data.Snapshot()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading", "source": s.data.Source(), "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"source":     s.data.Source(),
		"records":    len(snap.Records),
		"generation": snap.Generation,
		"loaded_at":  snap.LoadedAt.Format(time.RFC3339),
	})
}

func (s *Server) subjects(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subjects":   analysis.Subjects(snap.Records),
		"generation": snap.Generation,
	})
}

func (s *Server) summary(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	series := analysis.SelectSeries(snap.Records, c.Param("id"))
	if series.Empty() {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown subject " + c.Param("id")})
		return
	}
	c.JSON(http.StatusOK, analysis.Summarize(series))
}

func (s *Server) issues(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	issues := analysis.CheckAll(snap.Records)
	if issues == nil {
		issues = []analysis.Issue{}
	}
	c.JSON(http.StatusOK, gin.H{"issues": issues})
}

// frame returns the fully revealed geometry for a subject. Unknown subjects
// get an empty frame, not an error.
func (s *Server) frame(c *gin.Context) {
	vp, ok := s.viewport(c)
	if !ok {
		return
	}
	opts, ok := s.options(c)
	if !ok {
		return
	}
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	series := analysis.SelectSeries(snap.Records, c.Param("id"))
	c.JSON(http.StatusOK, chartgeom.Build(series, vp, opts))
}

func (s *Server) chart(c *gin.Context) {
	subject := c.Query("subject")
	if subject == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "subject is required"})
		return
	}
	vp, ok := s.viewport(c)
	if !ok {
		return
	}
	opts, ok := s.options(c)
	if !ok {
		return
	}
	format, err := render.ParseFormat(c.DefaultQuery("format", s.cfg.Chart.Format))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	palette := s.palette
	if name := c.Query("palette"); name != "" {
		palette = render.PaletteByName(name)
	}
	backend, err := render.New(c.DefaultQuery("backend", s.cfg.Chart.Backend), palette)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !backend.Supports(format) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": backend.Name() + " cannot render " + string(format)})
		return
	}
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}

	frame := chartgeom.Build(analysis.SelectSeries(snap.Records, subject), vp, opts)
	if frame.Empty {
		c.Header("X-Chart-Empty", "true")
	}
	var buf bytes.Buffer
	start := time.Now()
	err = backend.Render(&buf, frame, format)
	if errors.Is(err, render.ErrEmptyFrame) {
		buf.Reset()
		w, h := frame.Layout.PixelSize()
		err = render.Notice(&buf, w, h, "No data for "+subject, format, palette)
		if errors.Is(err, render.ErrUnsupportedFormat) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no data for " + subject})
			return
		}
	}
	s.metrics.RenderDuration.WithLabelValues(backend.Name(), string(format)).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.RenderErrors.WithLabelValues(backend.Name(), string(format)).Inc()
		progress.Errorf("render %s with %s: %v", subject, backend.Name(), err)
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

package server

import (
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhineetsingh10/aml2practice/src/config"
	"github.com/abhineetsingh10/aml2practice/src/progress"
)

const testCSV = `User_Name,Week,Cumulative_Actual,Classroom_Benchmark,Weekly_Questions
alice,2025-06-01,0,50,0
alice,2025-06-08,30,100,30
alice,2025-06-15,120,150,90
alice,2025-06-22,200,200,80
bob,2025-06-01,0,50,0
bob,2025-06-08,0,100,0
`

func init() { gin.SetMode(gin.TestMode) }

type fixture struct {
	srv  *Server
	path string
}

func newFixture(t *testing.T, load bool, mutate func(*config.Config)) fixture {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "weekly.csv")
	if err := os.WriteFile(path, []byte(testCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Chart.Width, cfg.Chart.Height = 640, 480
	if mutate != nil {
		mutate(cfg)
	}
	srv, err := New(cfg, progress.NewDataset(&progress.FileLoader{Path: path}))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if load {
		if err := srv.Load(context.Background(), "test"); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	return fixture{srv: srv, path: path}
}

func (f fixture) get(t *testing.T, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	req.RemoteAddr = "10.0.0.1:5000"
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth_BeforeAndAfterLoad(t *testing.T) {
	f := newFixture(t, false, nil)
	if w := f.get(t, "/health"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("unloaded health: %d", w.Code)
	}
	if w := f.get(t, "/api/subjects"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("unloaded subjects: %d", w.Code)
	}
	if err := f.srv.Load(context.Background(), "test"); err != nil {
		t.Fatalf("load: %v", err)
	}
	w := f.get(t, "/health")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"records":6`) {
		t.Fatalf("health after load: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("security headers missing")
	}
}

func TestSubjectsAndSummary(t *testing.T) {
	f := newFixture(t, true, nil)
	w := f.get(t, "/api/subjects")
	var body struct {
		Subjects []string `json:"subjects"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Join(body.Subjects, ",") != "alice,bob" {
		t.Fatalf("subjects %v", body.Subjects)
	}

	w = f.get(t, "/api/subjects/alice/summary")
	if w.Code != http.StatusOK {
		t.Fatalf("summary: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"headline":"0.0"`) {
		t.Fatalf("alice caught up with the benchmark, want 0.0: %s", w.Body.String())
	}
	if w := f.get(t, "/api/subjects/zed/summary"); w.Code != http.StatusNotFound {
		t.Fatalf("unknown subject summary: %d", w.Code)
	}
	if w := f.get(t, "/api/issues"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"issues":[]`) {
		t.Fatalf("issues: %d %s", w.Code, w.Body.String())
	}
}

func TestFrameEndpoint(t *testing.T) {
	f := newFixture(t, true, nil)
	w := f.get(t, "/api/subjects/alice/frame?width=1000&height=700")
	if w.Code != http.StatusOK {
		t.Fatalf("frame: %d", w.Code)
	}
	var fr struct {
		Empty  bool `json:"empty"`
		Actual struct {
			Points []json.RawMessage `json:"points"`
		} `json:"actual"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &fr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fr.Empty || len(fr.Actual.Points) != 3 {
		t.Fatalf("expected three active weeks, got %+v", fr)
	}
	w = f.get(t, "/api/subjects/zed/frame")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"empty":true`) {
		t.Fatalf("unknown subject frame: %d %s", w.Code, w.Body.String())
	}
}

func TestChart_PNG(t *testing.T) {
	f := newFixture(t, true, nil)
	for _, backend := range []string{"canvas", "chart", "plot"} {
		w := f.get(t, "/chart?subject=alice&width=800&height=600&backend="+backend)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: %d %s", backend, w.Code, w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); ct != "image/png" {
			t.Fatalf("%s content type %q", backend, ct)
		}
		img, err := png.Decode(w.Body)
		if err != nil {
			t.Fatalf("%s decode: %v", backend, err)
		}
		if img.Bounds().Dx() != 760 || img.Bounds().Dy() != 510 {
			t.Fatalf("%s size %v", backend, img.Bounds())
		}
	}
}

func TestChart_EmptyAndInactiveSubjects(t *testing.T) {
	f := newFixture(t, true, nil)
	w := f.get(t, "/chart?subject=zed")
	if w.Code != http.StatusOK || w.Header().Get("X-Chart-Empty") != "true" {
		t.Fatalf("canvas empty chart: %d %v", w.Code, w.Header())
	}
	w = f.get(t, "/chart?subject=zed&backend=chart")
	if w.Code != http.StatusOK {
		t.Fatalf("chart backend should fall back to a notice: %d", w.Code)
	}
	w = f.get(t, "/chart?subject=zed&backend=plot&format=pdf")
	if w.Code != http.StatusNotFound {
		t.Fatalf("pdf notice is unsupported, want 404 got %d", w.Code)
	}
	// bob never practised: benchmark only, still a chart
	w = f.get(t, "/chart?subject=bob&preset=headline")
	if w.Code != http.StatusOK || w.Header().Get("X-Chart-Empty") != "" {
		t.Fatalf("inactive subject: %d %v", w.Code, w.Header())
	}
}

func TestChart_BadRequests(t *testing.T) {
	f := newFixture(t, true, nil)
	cases := []string{
		"/chart",
		"/chart?subject=alice&width=abc",
		"/chart?subject=alice&height=0",
		"/chart?subject=alice&width=90000",
		"/chart?subject=alice&format=gif",
		"/chart?subject=alice&backend=ascii",
		"/chart?subject=alice&backend=canvas&format=pdf",
		"/chart?subject=alice&preset=sparkline",
	}
	for _, url := range cases {
		if w := f.get(t, url); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: want 400 got %d", url, w.Code)
		}
	}
}

func TestChart_RateLimit(t *testing.T) {
	f := newFixture(t, true, func(c *config.Config) {
		c.Server.RateLimit.PerSecond = 0.001
		c.Server.RateLimit.Burst = 2
	})
	for i := 0; i < 2; i++ {
		if w := f.get(t, "/chart?subject=alice"); w.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
	if w := f.get(t, "/chart?subject=alice"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request should be limited, got %d", w.Code)
	}
	// other endpoints are not limited
	if w := f.get(t, "/api/subjects"); w.Code != http.StatusOK {
		t.Fatalf("subjects limited: %d", w.Code)
	}
}

func TestMetricsAndIndex(t *testing.T) {
	f := newFixture(t, true, nil)
	f.get(t, "/chart?subject=alice")
	w := f.get(t, "/metrics")
	body := w.Body.String()
	for _, name := range []string{"progress_chart_render_seconds", "http_requests_total", "progress_dataset_reloads_total"} {
		if !strings.Contains(body, name) {
			t.Fatalf("metrics missing %s", name)
		}
	}
	w = f.get(t, "/")
	if !strings.Contains(w.Body.String(), `<option value="alice">alice</option>`) {
		t.Fatalf("index page lacks subject options: %s", w.Body.String())
	}
}

func TestReloadOnRender(t *testing.T) {
	f := newFixture(t, true, func(c *config.Config) { c.Server.ReloadOnRender = true })
	extra := testCSV + "carol,2025-06-01,5,50,5\n"
	if err := os.WriteFile(f.path, []byte(extra), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	w := f.get(t, "/api/subjects")
	if !strings.Contains(w.Body.String(), "carol") {
		t.Fatalf("reload_on_render did not pick up the new subject: %s", w.Body.String())
	}
	// a broken file keeps the previous snapshot
	if err := os.WriteFile(f.path, []byte("nope\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	w = f.get(t, "/api/subjects")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "carol") {
		t.Fatalf("failed reload should keep the last data: %d %s", w.Code, w.Body.String())
	}
}

func TestLimiterStore_Prunes(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newLimiterStore(1, 1)
	s.now = func() time.Time { return now }
	s.allow("a")
	now = now.Add(10 * time.Minute)
	s.allow("b")
	if _, ok := s.visitors["a"]; ok {
		t.Fatalf("idle visitor not pruned")
	}
	if !s.allow("a") {
		t.Fatalf("new visitor should be allowed")
	}
}

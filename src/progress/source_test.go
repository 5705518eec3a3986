package progress

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewLoader_Dispatch(t *testing.T) {
	cases := []struct {
		uri  string
		want string
	}{
		{"data/weekly.csv", "*progress.FileLoader"},
		{`C:\data\weekly.csv`, "*progress.FileLoader"},
		{"file:///srv/weekly.csv", "*progress.FileLoader"},
		{"https://example.org/weekly.csv", "*progress.HTTPLoader"},
		{"s3://bucket/path/weekly.csv", "*progress.ObjectLoader"},
		{"postgres://u:p@db/practice", "*progress.SQLLoader"},
	}
	for _, c := range cases {
		l, err := NewLoader(SourceConfig{URI: c.uri})
		if err != nil {
			t.Fatalf("%s: %v", c.uri, err)
		}
		if got := fmt.Sprintf("%T", l); got != c.want {
			t.Fatalf("%s: got %s want %s", c.uri, got, c.want)
		}
	}
}

func TestNewLoader_Errors(t *testing.T) {
	if _, err := NewLoader(SourceConfig{}); !errors.Is(err, ErrSourceNotConfig) {
		t.Fatalf("empty uri: %v", err)
	}
	if _, err := NewLoader(SourceConfig{URI: "ftp://host/x.csv"}); !errors.Is(err, ErrUnsupportedURI) {
		t.Fatalf("ftp: %v", err)
	}
	if _, err := NewLoader(SourceConfig{URI: "s3://bucket"}); !errors.Is(err, ErrUnsupportedURI) {
		t.Fatalf("s3 without key: %v", err)
	}
}

func TestNewLoader_DefaultQuery(t *testing.T) {
	l, err := NewLoader(SourceConfig{URI: "postgres://db/practice"})
	if err != nil {
		t.Fatalf("postgres: %v", err)
	}
	if l.(*SQLLoader).Query != DefaultQuery {
		t.Fatalf("expected default query")
	}
}

func TestDescribe_StripsCredentials(t *testing.T) {
	l := &SQLLoader{DSN: "postgres://user:secret@db:5432/practice?sslmode=disable"}
	if d := l.Describe(); strings.Contains(d, "secret") || strings.Contains(d, "sslmode") {
		t.Fatalf("credentials leaked: %s", d)
	}
	h := &HTTPLoader{URL: "https://u:pw@example.org/w.csv?token=abc"}
	if d := h.Describe(); strings.Contains(d, "pw") || strings.Contains(d, "token") {
		t.Fatalf("credentials leaked: %s", d)
	}
}

func TestHTTPLoader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.csv" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	l := &HTTPLoader{URL: srv.URL + "/weekly.csv", Client: &http.Client{Timeout: 2 * time.Second}}
	recs, err := l.Load(context.Background())
	if err != nil || len(recs) != 4 {
		t.Fatalf("load: %v (%d)", err, len(recs))
	}
	bad := &HTTPLoader{URL: srv.URL + "/missing.csv"}
	if _, err := bad.Load(context.Background()); !errors.Is(err, ErrSourceFetch) {
		t.Fatalf("404 should be ErrSourceFetch, got %v", err)
	}
}

func TestFileLoader_CancelledContext(t *testing.T) {
	p := filepath.Join(t.TempDir(), "w.csv")
	if err := os.WriteFile(p, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&FileLoader{Path: p}).Load(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled got %v", err)
	}
}

func TestObjectLoader_NeedsEndpoint(t *testing.T) {
	l := &ObjectLoader{Bucket: "b", Key: "k.csv"}
	if _, err := l.Load(context.Background()); !errors.Is(err, ErrSourceNotConfig) {
		t.Fatalf("expected ErrSourceNotConfig got %v", err)
	}
	if l.Describe() != "s3://b/k.csv" {
		t.Fatalf("describe: %s", l.Describe())
	}
}

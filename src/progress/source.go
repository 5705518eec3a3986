package progress

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Loader fetches the full weekly table from one source.
type Loader interface {
	Load(ctx context.Context) ([]WeeklyRecord, error)
	// Describe returns a short, credential-free name for logs.
	Describe() string
}

// ObjectStoreConfig holds S3/MinIO access settings for s3:// sources.
type ObjectStoreConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	Secure    bool   `mapstructure:"secure"`
}

// SourceConfig selects and configures a data source by URI scheme:
// a plain path or file://, http(s)://, s3://bucket/key, or postgres://.
type SourceConfig struct {
	URI     string            `mapstructure:"uri"`
	Timeout time.Duration     `mapstructure:"timeout"`
	Object  ObjectStoreConfig `mapstructure:"object"`
	Query   string            `mapstructure:"query"`
}

// DefaultQuery is used for postgres sources when no query is configured.
const DefaultQuery = `SELECT user_name, week, cumulative_actual, classroom_benchmark, weekly_questions
FROM weekly_practice ORDER BY user_name, week`

// NewLoader returns the Loader for cfg.URI.
func NewLoader(cfg SourceConfig) (Loader, error) {
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, ErrSourceNotConfig
	}
	u, err := url.Parse(uri)
	// single-letter schemes are Windows drive letters
	if err != nil || len(u.Scheme) <= 1 {
		return &FileLoader{Path: uri}, nil
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		return &FileLoader{Path: u.Path}, nil
	case "http", "https":
		return &HTTPLoader{URL: uri, Client: &http.Client{Timeout: cfg.Timeout}}, nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("%w: %s needs bucket and key", ErrUnsupportedURI, uri)
		}
		return &ObjectLoader{Bucket: u.Host, Key: key, Config: cfg.Object}, nil
	case "postgres", "postgresql":
		q := cfg.Query
		if strings.TrimSpace(q) == "" {
			q = DefaultQuery
		}
		return &SQLLoader{DSN: uri, Query: q}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedURI, u.Scheme)
}

// FileLoader reads a CSV from the local filesystem.
type FileLoader struct {
	Path string
}

func (l *FileLoader) Load(ctx context.Context) ([]WeeklyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadFile(l.Path)
}

func (l *FileLoader) Describe() string { return l.Path }

// HTTPLoader fetches a CSV over HTTP(S).
type HTTPLoader struct {
	URL    string
	Client *http.Client
}

func (l *HTTPLoader) Load(ctx context.Context) ([]WeeklyRecord, error) {
	defer TimeTrack(time.Now(), "fetch "+l.Describe())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", ErrSourceFetch, l.Describe(), resp.Status)
	}
	return ParseWeeklyCSV(resp.Body)
}

func (l *HTTPLoader) Describe() string {
	u, err := url.Parse(l.URL)
	if err != nil {
		return "http"
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}

// ObjectLoader reads a CSV object from S3-compatible storage.
type ObjectLoader struct {
	Bucket string
	Key    string
	Config ObjectStoreConfig
}

func (l *ObjectLoader) Load(ctx context.Context) ([]WeeklyRecord, error) {
	defer TimeTrack(time.Now(), "fetch "+l.Describe())
	if l.Config.Endpoint == "" {
		return nil, fmt.Errorf("%w: object storage endpoint", ErrSourceNotConfig)
	}
	client, err := minio.New(l.Config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(l.Config.AccessKey, l.Config.SecretKey, ""),
		Secure: l.Config.Secure,
		Region: l.Config.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}
	obj, err := client.GetObject(ctx, l.Bucket, l.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}
	defer obj.Close()
	// GetObject is lazy; Stat surfaces missing objects and auth failures up front.
	if _, err := obj.Stat(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}
	return ParseWeeklyCSV(obj)
}

func (l *ObjectLoader) Describe() string { return "s3://" + l.Bucket + "/" + l.Key }

// SQLLoader runs a query against PostgreSQL. The query must return the five
// weekly columns in order: subject, week, cumulative actual, benchmark, weekly count.
type SQLLoader struct {
	DSN   string
	Query string
}

type sqlRow struct {
	Subject   string
	Week      sql.NullTime
	Actual    sql.NullFloat64
	Benchmark sql.NullFloat64
	Weekly    sql.NullFloat64
}

func (l *SQLLoader) Load(ctx context.Context) ([]WeeklyRecord, error) {
	defer TimeTrack(time.Now(), "query "+l.Describe())
	db, err := sqlx.ConnectContext(ctx, "postgres", l.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}
	defer db.Close()
	rows, err := db.QueryxContext(ctx, l.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}
	defer rows.Close()
	var out []WeeklyRecord
	for rows.Next() {
		var r sqlRow
		if err := rows.Scan(&r.Subject, &r.Week, &r.Actual, &r.Benchmark, &r.Weekly); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRow, err)
		}
		out = append(out, r.record(len(out)+1))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}
	Debugf("queried %d weekly records", len(out))
	return out, nil
}

func (r sqlRow) record(n int) WeeklyRecord {
	rec := WeeklyRecord{
		SubjectID:          r.Subject,
		CumulativeActual:   nullZero(r.Actual),
		ClassroomBenchmark: nullZero(r.Benchmark),
		WeeklyDelta:        nullZero(r.Weekly),
		Line:               n,
	}
	if r.Week.Valid {
		rec.Week = r.Week.Time.UTC()
	}
	return rec
}

// nullZero mirrors the CSV rule that a blank cell counts as 0.
func nullZero(v sql.NullFloat64) float64 {
	if !v.Valid {
		return 0
	}
	return v.Float64
}

func (l *SQLLoader) Describe() string {
	u, err := url.Parse(l.DSN)
	if err != nil {
		return "postgres"
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}

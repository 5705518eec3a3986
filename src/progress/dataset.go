package progress

import (
	"context"
	"sync"
	"time"
)

// Snapshot is an immutable view of the dataset at one load.
type Snapshot struct {
	Records    []WeeklyRecord
	LoadedAt   time.Time
	Generation uint64
}

// Dataset holds the most recent successful load of a Loader. Records are never
// mutated after load; a reload swaps the whole slice.
type Dataset struct {
	loader Loader

	// reloadMu serialises Load and the swap so an older fetch never lands
	// after a newer one
	reloadMu sync.Mutex

	mu       sync.RWMutex
	records  []WeeklyRecord
	loadedAt time.Time
	gen      uint64
}

// NewDataset returns an empty dataset backed by l.
func NewDataset(l Loader) *Dataset { return &Dataset{loader: l} }

// Reload fetches the table again. On failure the previous records stay in place
// and the error is returned.
func (d *Dataset) Reload(ctx context.Context) error {
	d.reloadMu.Lock()
	defer d.reloadMu.Unlock()
	recs, err := d.loader.Load(ctx)
	if err != nil {
		Errorf("load %s failed: %v", d.loader.Describe(), err)
		return err
	}
	d.mu.Lock()
	d.records = recs
	d.loadedAt = time.Now()
	d.gen++
	gen := d.gen
	d.mu.Unlock()
	Infof("loaded %d records from %s (generation %d)", len(recs), d.loader.Describe(), gen)
	return nil
}

// Snapshot returns the current records, or ErrNotLoaded before the first
// successful load.
func (d *Dataset) Snapshot() (Snapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.gen == 0 {
		return Snapshot{}, ErrNotLoaded
	}
	return Snapshot{Records: d.records, LoadedAt: d.loadedAt, Generation: d.gen}, nil
}

// Source describes the underlying loader.
func (d *Dataset) Source() string { return d.loader.Describe() }

// LocalPath returns the file path when the dataset is file backed.
func (d *Dataset) LocalPath() (string, bool) {
	fl, ok := d.loader.(*FileLoader)
	if !ok {
		return "", false
	}
	return fl.Path, true
}

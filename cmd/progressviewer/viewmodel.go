package main

import (
	"fmt"
	"sync"

	"github.com/abhineetsingh10/aml2practice/src/analysis"
	"github.com/abhineetsingh10/aml2practice/src/chartgeom"
	"github.com/abhineetsingh10/aml2practice/src/progress"
)

type loadState int

const (
	stateUninitialized loadState = iota
	stateLoading
	stateIdle
	stateFailed
)

func (s loadState) String() string {
	switch s {
	case stateLoading:
		return "loading"
	case stateIdle:
		return "idle"
	case stateFailed:
		return "failed"
	}
	return "uninitialized"
}

// viewModel holds everything the window draws from, without any fyne types.
// Every load, subject change or resize bumps gen and animation ticks carrying
// an older gen are dropped. Loads carry their own token so that a redraw while
// loading does not discard the result.
type viewModel struct {
	mu      sync.Mutex
	state   loadState
	gen     uint64
	loadGen uint64
	records []progress.WeeklyRecord
	subject string
	opts    chartgeom.Options
	lastErr error
}

func newViewModel(opts chartgeom.Options) *viewModel {
	return &viewModel{opts: opts}
}

func (m *viewModel) bump() uint64 {
	m.gen++
	return m.gen
}

// beginLoad moves to loading and returns the token the load must present.
func (m *viewModel) beginLoad() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = stateLoading
	m.loadGen++
	return m.loadGen
}

// finishLoad applies a completed load. It reports false when a newer request
// superseded this one. A failed reload keeps the previous records.
func (m *viewModel) finishLoad(gen uint64, recs []progress.WeeklyRecord, err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.loadGen {
		return false
	}
	m.bump()
	if err != nil {
		m.state = stateFailed
		m.lastErr = err
		return true
	}
	m.records = recs
	m.state = stateIdle
	m.lastErr = nil
	subjects := analysis.Subjects(recs)
	if !contains(subjects, m.subject) && len(subjects) > 0 {
		m.subject = subjects[0]
	}
	return true
}

// selectSubject switches subject and returns the new token.
func (m *viewModel) selectSubject(id string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subject = id
	return m.bump()
}

// setOptions replaces the chart options and returns the new token.
func (m *viewModel) setOptions(o chartgeom.Options) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opts = o
	return m.bump()
}

// invalidate bumps the token, e.g. on resize.
func (m *viewModel) invalidate() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bump()
}

func (m *viewModel) current(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen == m.gen
}

func (m *viewModel) snapshot() (loadState, string, chartgeom.Options, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.subject, m.opts, m.lastErr
}

func (m *viewModel) subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return analysis.Subjects(m.records)
}

// frame builds the fully revealed frame for the selected subject.
func (m *viewModel) frame(vp chartgeom.Viewport) chartgeom.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return chartgeom.Build(analysis.SelectSeries(m.records, m.subject), vp, m.opts)
}

func (m *viewModel) summary() analysis.Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return analysis.Summarize(analysis.SelectSeries(m.records, m.subject))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// statusText is the status-line readout for the selected subject.
func (m *viewModel) statusText() string {
	sum := m.summary()
	if sum.Weeks == 0 {
		return "no weeks for " + sum.SubjectID
	}
	vs := sum.Headline
	if sum.PercentAdditional != nil {
		vs += "%"
	}
	return fmt.Sprintf("%s: %d weeks, %d active, %s vs class", sum.SubjectID, sum.Weeks, sum.ActiveWeeks, vs)
}

package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	FeedsProcessed        int64
	FeedsFailed           int64
	EntriesSeen           int64
	StaleFiltered         int64
	PhotoFiltered         int64
	DuplicatesFiltered    int64
	ClassificationsOK     int64
	ClassificationsFailed int64
	RecordsPersisted      int64
	PersistFailures       int64

	// Timings
	LastRunDuration time.Duration

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementFeedsProcessed() {
	m.add(&m.FeedsProcessed)
}

func (m *Metrics) IncrementFeedsFailed() {
	m.add(&m.FeedsFailed)
}

func (m *Metrics) AddEntriesSeen(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntriesSeen += int64(n)
}

func (m *Metrics) IncrementStaleFiltered() {
	m.add(&m.StaleFiltered)
}

func (m *Metrics) IncrementPhotoFiltered() {
	m.add(&m.PhotoFiltered)
}

func (m *Metrics) IncrementDuplicatesFiltered() {
	m.add(&m.DuplicatesFiltered)
}

func (m *Metrics) IncrementClassificationsOK() {
	m.add(&m.ClassificationsOK)
}

func (m *Metrics) IncrementClassificationsFailed() {
	m.add(&m.ClassificationsFailed)
}

func (m *Metrics) IncrementRecordsPersisted() {
	m.add(&m.RecordsPersisted)
}

func (m *Metrics) IncrementPersistFailures() {
	m.add(&m.PersistFailures)
}

func (m *Metrics) add(field *int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*field++
}

func (m *Metrics) RecordRun(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunDuration = duration
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"feeds_processed":        m.FeedsProcessed,
		"feeds_failed":           m.FeedsFailed,
		"entries_seen":           m.EntriesSeen,
		"stale_filtered":         m.StaleFiltered,
		"photo_filtered":         m.PhotoFiltered,
		"duplicates_filtered":    m.DuplicatesFiltered,
		"classifications_ok":     m.ClassificationsOK,
		"classifications_failed": m.ClassificationsFailed,
		"records_persisted":      m.RecordsPersisted,
		"persist_failures":       m.PersistFailures,
		"last_run_duration_ms":   m.LastRunDuration.Milliseconds(),
		"last_run_time":          m.LastRunTime.Format(time.RFC3339),
		"last_error_time":        m.LastErrorTime.Format(time.RFC3339),
		"last_error":             m.LastError,
		"is_healthy":             m.IsHealthy,
	}
}

package migrate

import (
	"sync"
	"time"
)

// maxProgressErrors bounds the error ring; older entries fall off.
const maxProgressErrors = 50

// Progress is the single-writer mutable state of one migration run. The
// migrator updates it per batch; readers take Snapshots.
type Progress struct {
	mu sync.Mutex

	total      int64
	processed  int64
	successful int64
	failed     int64
	skipped    int64

	currentSource string
	startTime     time.Time
	completedAt   time.Time

	errors []string // ring, most recent last
}

// NewProgress starts a progress record now.
func NewProgress() *Progress {
	return &Progress{startTime: time.Now()}
}

// SetTotal sets the total record count after the counting phase.
func (p *Progress) SetTotal(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = n
}

// SetCurrentSource marks which source is being migrated.
func (p *Progress) SetCurrentSource(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentSource = s
}

// RecordBatch folds one batch's outcome counts in.
func (p *Progress) RecordBatch(processed, successful, failed, skipped int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed += int64(processed)
	p.successful += int64(successful)
	p.failed += int64(failed)
	p.skipped += int64(skipped)
}

// AddError appends to the bounded error ring.
func (p *Progress) AddError(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors = append(p.errors, msg)
	if len(p.errors) > maxProgressErrors {
		p.errors = p.errors[len(p.errors)-maxProgressErrors:]
	}
}

// MarkCompleted stamps the completion time.
func (p *Progress) MarkCompleted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completedAt = time.Now()
}

// Snapshot is an immutable view of Progress, also the checkpoint and
// status-endpoint wire shape.
type Snapshot struct {
	TotalRecords      int64    `json:"total_records"`
	ProcessedRecords  int64    `json:"processed_records"`
	SuccessfulRecords int64    `json:"successful_records"`
	FailedRecords     int64    `json:"failed_records"`
	SkippedRecords    int64    `json:"skipped_records"`
	CurrentSource     string   `json:"current_source,omitempty"`
	StartTime         string   `json:"start_time,omitempty"`
	CompletedAt       string   `json:"completed_at,omitempty"`
	EstimatedDone     string   `json:"estimated_completion,omitempty"`
	PercentComplete   float64  `json:"percentage_complete"`
	SuccessRate       float64  `json:"success_rate"`
	Errors            []string `json:"errors,omitempty"`
}

// Snapshot captures the current state with derived percentages.
func (p *Progress) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		TotalRecords:      p.total,
		ProcessedRecords:  p.processed,
		SuccessfulRecords: p.successful,
		FailedRecords:     p.failed,
		SkippedRecords:    p.skipped,
		CurrentSource:     p.currentSource,
		Errors:            append([]string(nil), p.errors...),
	}
	if !p.startTime.IsZero() {
		s.StartTime = p.startTime.UTC().Format(time.RFC3339)
	}
	if !p.completedAt.IsZero() {
		s.CompletedAt = p.completedAt.UTC().Format(time.RFC3339)
	}
	if p.total > 0 {
		s.PercentComplete = float64(p.processed) / float64(p.total) * 100
	}
	if p.processed > 0 {
		s.SuccessRate = float64(p.successful) / float64(p.processed) * 100
	}
	// project completion from throughput so far; meaningless once done
	if p.completedAt.IsZero() && p.processed > 0 && p.total > p.processed {
		elapsed := time.Since(p.startTime)
		eta := p.startTime.Add(time.Duration(float64(elapsed) * float64(p.total) / float64(p.processed)))
		s.EstimatedDone = eta.UTC().Format(time.RFC3339)
	}
	return s
}

// Restore rehydrates counters from a checkpoint snapshot. Derived fields
// and timestamps recompute from the live run.
func (p *Progress) Restore(s Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = s.TotalRecords
	p.processed = s.ProcessedRecords
	p.successful = s.SuccessfulRecords
	p.failed = s.FailedRecords
	p.skipped = s.SkippedRecords
	p.currentSource = s.CurrentSource
}

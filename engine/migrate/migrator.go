package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CryptiqueAI/cryptique-mvp/engine/domain"
	"github.com/CryptiqueAI/cryptique-mvp/engine/embed"
	"github.com/CryptiqueAI/cryptique-mvp/engine/semantic"
	"github.com/CryptiqueAI/cryptique-mvp/pkg/fn"
	"github.com/CryptiqueAI/cryptique-mvp/pkg/repo"
)

// State of a migration run.
type State string

const (
	StateIdle      State = "idle"
	StateCounting  State = "counting"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

var (
	// ErrAlreadyRunning guards against concurrent runs on one migrator.
	ErrAlreadyRunning = errors.New("migration already running")

	errDuplicate = errors.New("document already migrated")
	errPaused    = errors.New("pause requested")
)

// Indexer mirrors migrated vectors into a search index. Optional;
// satisfied by semantic.VectorStore.
type Indexer interface {
	Upsert(ctx context.Context, records []semantic.IndexRecord) error
}

// Result summarizes one migration run.
type Result struct {
	Success        bool
	Paused         bool
	Progress       Snapshot
	ProcessingTime time.Duration
	Error          string
}

// Migrator drives migration runs. Collaborators are injected; one
// migrator supports one run at a time.
type Migrator struct {
	cfg    Config
	store  repo.Store
	gen    *embed.Generator
	index  Indexer
	events *Events
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	running  bool
	progress *Progress

	pauseRequested atomic.Bool
}

// Option configures optional collaborators.
type Option func(*Migrator)

// WithIndexer mirrors migrated vectors into idx.
func WithIndexer(idx Indexer) Option {
	return func(m *Migrator) { m.index = idx }
}

// WithEvents broadcasts progress and listens for control commands.
func WithEvents(ev *Events) Option {
	return func(m *Migrator) { m.events = ev }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Migrator) { m.logger = l }
}

// New builds a migrator.
func New(cfg Config, store repo.Store, gen *embed.Generator, opts ...Option) (*Migrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Migrator{
		cfg:      cfg,
		store:    store,
		gen:      gen,
		logger:   slog.Default(),
		state:    StateIdle,
		progress: NewProgress(),
	}
	for _, o := range opts {
		o(m)
	}
	if m.events != nil {
		m.events.listenControl(m)
	}
	return m, nil
}

// Pause requests a cooperative pause. The in-flight batch completes; the
// run checkpoints and returns at the next batch boundary.
func (m *Migrator) Pause() {
	m.pauseRequested.Store(true)
	m.logger.Info("migration pause requested")
}

// Resume clears a pause request so the next Run picks up from the
// checkpoint.
func (m *Migrator) Resume() {
	m.pauseRequested.Store(false)
	m.logger.Info("migration resume requested")
}

// Status reports the migrator's current state for the status endpoint.
type Status struct {
	IsRunning      bool     `json:"is_running"`
	PauseRequested bool     `json:"pause_requested"`
	State          State    `json:"state"`
	Progress       Snapshot `json:"progress"`
}

// Status snapshots the run state.
func (m *Migrator) Status() Status {
	m.mu.Lock()
	running, state, progress := m.running, m.state, m.progress
	m.mu.Unlock()
	return Status{
		IsRunning:      running,
		PauseRequested: m.pauseRequested.Load(),
		State:          state,
		Progress:       progress.Snapshot(),
	}
}

func (m *Migrator) begin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return false
	}
	m.running = true
	m.progress = NewProgress()
	return true
}

// end clears the running flag no matter how the run finished.
func (m *Migrator) end() {
	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
}

func (m *Migrator) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Run executes a full migration across the configured sources. It never
// panics outward; failures land in the Result. A paused run returns
// Success true with Paused set and a checkpoint on disk.
func (m *Migrator) Run(ctx context.Context) Result {
	start := time.Now()
	if !m.begin() {
		return Result{Success: false, Error: ErrAlreadyRunning.Error()}
	}
	defer m.end()

	startSource := ""
	if m.cfg.ResumeFromCheckpoint {
		cp, found, err := LoadCheckpoint(m.cfg.checkpointPath())
		switch {
		case err != nil:
			m.logger.Warn("checkpoint load failed, starting fresh", "error", err)
		case found:
			m.progress.Restore(cp.Progress)
			startSource = cp.Progress.CurrentSource
			m.logger.Info("resuming from checkpoint",
				"processed", cp.Progress.ProcessedRecords,
				"source", startSource)
		}
	}

	m.setState(StateCounting)
	total, err := m.countAll(ctx)
	if err != nil {
		return m.fail(start, err)
	}
	m.progress.SetTotal(total)
	m.logger.Info("migration starting", "total_records", total, "sources", len(m.cfg.Sources))

	m.setState(StateRunning)
	skipping := startSource != ""
	for _, source := range m.cfg.Sources {
		if skipping {
			if string(source) != startSource {
				m.logger.Info("source already migrated, skipping", "source", source)
				continue
			}
			skipping = false
		}

		// boundary is the progress as of the last completed source;
		// a mid-source pause checkpoints here so the interrupted
		// source restarts cleanly (already-written documents get
		// skipped by the duplicate check).
		boundary := m.progress.Snapshot()

		if m.pauseRequested.Load() {
			return m.pause(start, boundary, source)
		}

		m.progress.SetCurrentSource(string(source))
		if err := m.migrateSource(ctx, source); err != nil {
			if errors.Is(err, errPaused) {
				return m.pause(start, boundary, source)
			}
			return m.fail(start, err)
		}
	}

	m.progress.SetCurrentSource("")
	m.progress.MarkCompleted()
	if err := DeleteCheckpoint(m.cfg.checkpointPath()); err != nil {
		m.logger.Warn("checkpoint cleanup failed", "error", err)
	}
	m.setState(StateCompleted)

	final := m.progress.Snapshot()
	m.publishProgress(ctx, final)
	m.logger.Info("migration completed",
		"processed", final.ProcessedRecords,
		"successful", final.SuccessfulRecords,
		"failed", final.FailedRecords,
		"skipped", final.SkippedRecords)
	return Result{Success: true, Progress: final, ProcessingTime: time.Since(start)}
}

// MigrateSource runs a single source through the batch pipeline,
// bypassing checkpoints. Useful for targeted re-migration.
func (m *Migrator) MigrateSource(ctx context.Context, source domain.SourceType) Result {
	start := time.Now()
	if !source.Valid() {
		return Result{Success: false, Error: fmt.Sprintf("unknown source %q", source)}
	}
	if !m.begin() {
		return Result{Success: false, Error: ErrAlreadyRunning.Error()}
	}
	defer m.end()

	m.setState(StateCounting)
	total, err := m.countSource(ctx, source)
	if err != nil {
		return m.fail(start, err)
	}
	m.progress.SetTotal(total)

	m.setState(StateRunning)
	m.progress.SetCurrentSource(string(source))
	if err := m.migrateSource(ctx, source); err != nil && !errors.Is(err, errPaused) {
		return m.fail(start, err)
	}
	m.progress.MarkCompleted()
	m.setState(StateCompleted)
	return Result{Success: true, Progress: m.progress.Snapshot(), ProcessingTime: time.Since(start)}
}

func (m *Migrator) fail(start time.Time, err error) Result {
	m.setState(StateFailed)
	m.progress.AddError(err.Error())
	m.logger.Error("migration failed", "error", err)
	return Result{
		Success:        false,
		Progress:       m.progress.Snapshot(),
		ProcessingTime: time.Since(start),
		Error:          err.Error(),
	}
}

func (m *Migrator) pause(start time.Time, boundary Snapshot, source domain.SourceType) Result {
	boundary.CurrentSource = string(source)
	if err := SaveCheckpoint(m.cfg.checkpointPath(), boundary, m.cfg); err != nil {
		m.logger.Error("checkpoint save failed", "error", err)
	}
	m.setState(StatePaused)
	m.logger.Info("migration paused", "resume_source", source)
	return Result{
		Success:        true,
		Paused:         true,
		Progress:       m.progress.Snapshot(),
		ProcessingTime: time.Since(start),
	}
}

// countAll tallies records across every configured source.
func (m *Migrator) countAll(ctx context.Context) (int64, error) {
	var total int64
	for _, source := range m.cfg.Sources {
		n, err := m.countSource(ctx, source)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (m *Migrator) countSource(ctx context.Context, source domain.SourceType) (int64, error) {
	coll := m.store.Collection(source.Collection())
	n, err := coll.Count(ctx, m.sourceFilter(source))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", source, err)
	}
	return n, nil
}

// sourceFilter builds the scoping filter for one source collection.
func (m *Migrator) sourceFilter(source domain.SourceType) repo.Filter {
	f := repo.Filter{}
	if len(m.cfg.SiteIDs) == 1 && source != domain.SourceTransactions {
		f["siteId"] = m.cfg.SiteIDs[0]
	}
	if len(m.cfg.TeamIDs) == 1 {
		f["teamId"] = m.cfg.TeamIDs[0]
	}
	if m.cfg.StartDate != "" || m.cfg.EndDate != "" {
		r := repo.Range{}
		if m.cfg.StartDate != "" {
			r.GTE = m.cfg.StartDate
		}
		if m.cfg.EndDate != "" {
			r.LTE = m.cfg.EndDate
		}
		f["createdAt"] = r
	}
	return f
}

// migrateSource processes one source in fixed-size batches, honoring
// pause requests between batches.
func (m *Migrator) migrateSource(ctx context.Context, source domain.SourceType) error {
	coll := m.store.Collection(source.Collection())
	docs, err := coll.Find(ctx, m.sourceFilter(source), repo.FindOpts{Sort: "_id"})
	if err != nil {
		return fmt.Errorf("load %s: %w", source, err)
	}
	if len(docs) == 0 {
		m.logger.Warn("no records to migrate", "source", source)
		return nil
	}

	for i, batch := range fn.Chunk(docs, m.cfg.BatchSize) {
		if i > 0 && m.pauseRequested.Load() {
			return errPaused
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		m.processBatch(ctx, source, batch)

		snap := m.progress.Snapshot()
		m.publishProgress(ctx, snap)
		m.logger.Info("batch processed",
			"source", source,
			"processed", snap.ProcessedRecords,
			"total", snap.TotalRecords,
			"percent", fmt.Sprintf("%.1f", snap.PercentComplete))
	}
	return nil
}

// processBatch runs one batch of records through the per-record pipeline
// with bounded concurrency and folds the outcomes into progress. One
// failed record never aborts the batch.
func (m *Migrator) processBatch(ctx context.Context, source domain.SourceType, batch []repo.Doc) {
	pipeline := m.recordPipeline(source)

	outcomes := fn.ParMapResult(batch, m.cfg.MaxWorkers, func(_ int, doc repo.Doc) fn.Result[recordOut] {
		return pipeline(ctx, doc)
	})

	var successful, failed, skipped int
	var indexed []semantic.IndexRecord
	for _, r := range outcomes {
		out, err := r.Unwrap()
		switch {
		case err == nil:
			successful++
			if m.index != nil {
				indexed = append(indexed, out.index)
			}
		case errors.Is(err, errDuplicate):
			skipped++
		default:
			failed++
			m.progress.AddError(err.Error())
			m.logger.Error("record migration failed", "source", source, "error", err)
		}
	}
	m.progress.RecordBatch(len(batch), successful, failed, skipped)

	if m.index != nil && len(indexed) > 0 {
		if err := m.index.Upsert(ctx, indexed); err != nil {
			m.logger.Warn("index mirror failed", "error", err)
		}
	}
}

func (m *Migrator) publishProgress(ctx context.Context, s Snapshot) {
	if m.events == nil {
		return
	}
	m.events.PublishProgress(ctx, s)
}

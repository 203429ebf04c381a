package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bharath-k9/Analytics-dashboard/internal/models"
	"github.com/bharath-k9/Analytics-dashboard/internal/observability"
	"github.com/bharath-k9/Analytics-dashboard/internal/source"
	"github.com/bharath-k9/Analytics-dashboard/internal/view"
)

var (
	// ErrSuperseded is returned by a load whose result was discarded because
	// a newer load was started after it.
	ErrSuperseded = errors.New("load superseded by a newer load")
	// ErrClosed is returned by loads that finish after Close.
	ErrClosed = errors.New("analytics service closed")
	// ErrLoadFailed marks a load that could not produce a view model at all.
	ErrLoadFailed = errors.New("load failed")
)

// Fetcher returns one result per analytics source. Implementations must not
// fail as a whole; per-source failures are reported inside the results.
type Fetcher interface {
	FetchAll(ctx context.Context) source.Results
}

type Options struct {
	LoadTimeout time.Duration
	// Build derives the view model from fetched results. Defaults to
	// view.Build.
	Build func(source.Results) models.ViewModel
}

// Snapshot is the state of the service as seen by one reader.
type Snapshot struct {
	View     models.ViewModel    `json:"view"`
	Loading  bool                `json:"loading"`
	Err      error               `json:"-"`
	LoadID   string              `json:"load_id,omitempty"`
	LoadedAt time.Time           `json:"loaded_at"`
	Sources  []source.Diagnostic `json:"sources"`
}

// Ready reports whether at least one load has been committed.
func (s Snapshot) Ready() bool {
	return s.LoadID != ""
}

// Analytics owns the current view model. Loads run in the background and
// replace the view model wholesale when they complete, unless they have been
// superseded or the service has been closed in the meantime.
type Analytics struct {
	fetcher     Fetcher
	build       func(source.Results) models.ViewModel
	loadTimeout time.Duration
	logger      *slog.Logger

	mu      sync.RWMutex
	snap    Snapshot
	current string
	cancel  context.CancelFunc
	closed  bool
	wg      sync.WaitGroup

	loads      atomic.Int64
	superseded atomic.Int64
	failures   atomic.Int64
}

func NewAnalytics(fetcher Fetcher, opts Options, logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	build := opts.Build
	if build == nil {
		build = view.Build
	}
	return &Analytics{
		fetcher:     fetcher,
		build:       build,
		loadTimeout: opts.LoadTimeout,
		logger:      logger,
		snap: Snapshot{
			View:    models.EmptyViewModel(),
			Sources: []source.Diagnostic{},
		},
	}
}

// LoadHandle tracks one background load.
type LoadHandle struct {
	ID     string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func (h *LoadHandle) Cancel() { h.cancel() }

func (h *LoadHandle) Done() <-chan struct{} { return h.done }

// Wait blocks until the load finishes. It returns nil when the load's result
// was committed.
func (h *LoadHandle) Wait() error {
	<-h.done
	return h.err
}

// Start begins a new load and cancels any load still in flight. The returned
// handle's ID is the token that must still be current for the result to be
// committed.
func (a *Analytics) Start(ctx context.Context) *LoadHandle {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(ctx)
	h := &LoadHandle{ID: id, cancel: cancel, done: make(chan struct{})}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		cancel()
		h.err = ErrClosed
		close(h.done)
		return h
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.current = id
	a.cancel = cancel
	a.snap.Loading = true
	a.wg.Add(1)
	a.mu.Unlock()

	a.loads.Add(1)
	go func() {
		defer a.wg.Done()
		defer close(h.done)
		defer cancel()
		h.err = a.run(ctx, id)
	}()
	return h
}

// Load runs one load and waits for it.
func (a *Analytics) Load(ctx context.Context) error {
	return a.Start(ctx).Wait()
}

func (a *Analytics) run(ctx context.Context, id string) error {
	ctx = observability.WithLoadID(ctx, id)
	if a.loadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.loadTimeout)
		defer cancel()
	}

	ctx, span := observability.StartSpan(ctx, "analytics.load")
	defer func() {
		span.Finish()
		a.logger.Debug("span finished", span.LogAttrs()...)
	}()

	start := time.Now()
	a.logger.Info("loading dashboard data", "load_id", id)

	vm, diagnostics, err := a.assemble(ctx)
	if err != nil {
		span.SetError(err)
		a.failures.Add(1)
		a.logger.Error("dashboard load failed", "load_id", id, "error", err)
	}

	if commitErr := a.commit(id, vm, diagnostics, err); commitErr != nil {
		a.superseded.Add(1)
		a.logger.Info("discarding load result", "load_id", id, "reason", commitErr)
		return commitErr
	}

	a.logger.Info("dashboard data loaded",
		"load_id", id,
		"months", len(vm.MonthlyTrends),
		"states", len(vm.StateAnalysis),
		"duration", time.Since(start),
	)
	return err
}

// assemble fetches and builds the view model. A panic anywhere in between is
// converted into ErrLoadFailed.
func (a *Analytics) assemble(ctx context.Context) (vm models.ViewModel, diagnostics []source.Diagnostic, err error) {
	defer func() {
		if p := recover(); p != nil {
			vm = models.EmptyViewModel()
			err = fmt.Errorf("%w: %v", ErrLoadFailed, p)
		}
	}()

	results := a.fetcher.FetchAll(ctx)
	diagnostics = results.Diagnostics()
	return a.build(results), diagnostics, nil
}

func (a *Analytics) commit(id string, vm models.ViewModel, diagnostics []source.Diagnostic, loadErr error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.current != id {
		return ErrSuperseded
	}

	if diagnostics == nil {
		diagnostics = []source.Diagnostic{}
	}
	a.snap = Snapshot{
		View:     vm,
		Err:      loadErr,
		LoadID:   id,
		LoadedAt: time.Now().UTC(),
		Sources:  diagnostics,
	}
	if loadErr != nil {
		a.snap.View = models.EmptyViewModel()
	}
	a.cancel = nil
	return nil
}

// Close cancels any in-flight load and waits for it to return. Loads that
// complete afterwards never touch the view model.
func (a *Analytics) Close() {
	a.mu.Lock()
	a.closed = true
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.snap.Loading = false
	a.mu.Unlock()

	a.wg.Wait()
}

func (a *Analytics) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap
}

// View returns the view model filtered to sel.
func (a *Analytics) View(sel view.Selection) models.ViewModel {
	return view.Compose(a.Snapshot().View, sel)
}

// Stats reports load counters, snapshot sizes and per-source diagnostics,
// plus fetch latency when the fetcher records it.
func (a *Analytics) Stats() map[string]any {
	snap := a.Snapshot()

	stats := map[string]any{
		"load_id":         snap.LoadID,
		"loaded_at":       snap.LoadedAt,
		"loading":         snap.Loading,
		"loads_started":   a.loads.Load(),
		"loads_discarded": a.superseded.Load(),
		"loads_failed":    a.failures.Load(),
		"sources":         snap.Sources,
		"months":          len(snap.View.MonthlyTrends),
		"states":          len(snap.View.StateAnalysis),
		"products":        len(snap.View.TopProducts),
		"sellers":         len(snap.View.SellerPerformance),
	}
	if snap.Err != nil {
		stats["error"] = snap.Err.Error()
	}
	if l, ok := a.fetcher.(interface{ Latency() source.LatencySummary }); ok {
		stats["fetch_latency"] = l.Latency()
	}
	return stats
}

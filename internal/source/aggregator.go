package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"golang.org/x/sync/errgroup"

	"github.com/bharath-k9/Analytics-dashboard/internal/observability"
)

const (
	defaultConcurrency = 8
	// Latency is recorded in microseconds, up to ten minutes.
	maxLatencyMicros = int64(10 * time.Minute / time.Microsecond)
)

type AggregatorOptions struct {
	Resources   []Resource
	Timeout     time.Duration
	Concurrency int
}

// Aggregator issues one query per resource and never lets a single failure
// abort its siblings.
type Aggregator struct {
	querier     Querier
	resources   []Resource
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger

	mu      sync.Mutex
	latency *hdrhistogram.Histogram
}

func NewAggregator(querier Querier, opts AggregatorOptions, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	resources := opts.Resources
	if len(resources) == 0 {
		resources = Resources
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Aggregator{
		querier:     querier,
		resources:   resources,
		timeout:     opts.Timeout,
		concurrency: concurrency,
		logger:      logger,
		latency:     hdrhistogram.New(1, maxLatencyMicros, 3),
	}
}

// FetchAll queries every resource concurrently and returns one result per
// resource name. It only returns once every fetch has finished.
func (a *Aggregator) FetchAll(ctx context.Context) Results {
	ctx, span := observability.StartSpan(ctx, "source.fetch_all")
	defer func() {
		span.Finish()
		a.logger.Debug("span finished", span.LogAttrs()...)
	}()

	results := make([]Result, len(a.resources))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, res := range a.resources {
		g.Go(func() error {
			results[i] = a.fetch(ctx, res)
			return nil
		})
	}
	_ = g.Wait()

	out := make(Results, len(a.resources))
	failed := 0
	for i, res := range a.resources {
		out[res.Name] = results[i]
		if results[i].Status != StatusSuccess {
			failed++
		}
	}
	span.SetTag("sources", fmt.Sprint(len(out)))
	span.SetTag("failed", fmt.Sprint(failed))
	return out
}

func (a *Aggregator) fetch(ctx context.Context, res Resource) (result Result) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			result = Result{Status: StatusFailure, Rows: []Row{}, Err: fmt.Errorf("query %s panicked: %v", res.Name, p)}
		}
		result.Duration = time.Since(start)
		a.record(result.Duration)
		a.report(res, result)
	}()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	rows, err := a.querier.Query(ctx, res)
	switch {
	case errors.Is(err, ErrAbsent):
		return Result{Status: StatusAbsent, Rows: []Row{}, Err: err}
	case err != nil:
		return Result{Status: StatusFailure, Rows: []Row{}, Err: err}
	}
	if rows == nil {
		rows = []Row{}
	}
	return Result{Status: StatusSuccess, Rows: rows}
}

func (a *Aggregator) report(res Resource, result Result) {
	switch result.Status {
	case StatusSuccess:
		a.logger.Info("source loaded",
			"source", res.Name,
			"rows", len(result.Rows),
			"duration", result.Duration)
	case StatusAbsent:
		a.logger.Warn("source not available, using empty data",
			"source", res.Name,
			"duration", result.Duration)
	default:
		a.logger.Warn("source query failed, using empty data",
			"source", res.Name,
			"error", result.Err,
			"duration", result.Duration)
	}
}

func (a *Aggregator) record(d time.Duration) {
	micros := d.Microseconds()
	if micros < 1 {
		micros = 1
	}
	if micros > maxLatencyMicros {
		micros = maxLatencyMicros
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	_ = a.latency.RecordValue(micros)
}

type LatencySummary struct {
	Count int64         `json:"count"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
	Max   time.Duration `json:"max"`
}

// Latency summarises every fetch recorded since the aggregator was created.
func (a *Aggregator) Latency() LatencySummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return LatencySummary{
		Count: a.latency.TotalCount(),
		P50:   us(a.latency.ValueAtQuantile(50)),
		P95:   us(a.latency.ValueAtQuantile(95)),
		P99:   us(a.latency.ValueAtQuantile(99)),
		Max:   us(a.latency.Max()),
	}
}

// Package aggregator owns the aggregation cycle: fan-out fetch over all
// sources, merge, enrich, publish. Exactly one cycle runs at a time; triggers
// arriving mid-cycle are coalesced.
package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Fredkai/kaitech-news-intelligence/app/archive"
	"github.com/Fredkai/kaitech-news-intelligence/app/cache"
	"github.com/Fredkai/kaitech-news-intelligence/app/enrich"
	"github.com/Fredkai/kaitech-news-intelligence/app/feed"
	"github.com/Fredkai/kaitech-news-intelligence/app/pipeline"
	"github.com/Fredkai/kaitech-news-intelligence/app/sources"
	"github.com/robfig/cron/v3"
)

// Cycle states, for health reporting.
const (
	StateIdle       = "idle"
	StateFetching   = "fetching"
	StateMerging    = "merging"
	StateEnriching  = "enriching"
	StatePublishing = "publishing"
)

const (
	breakingThreshold = 70.0
	breakingLimit     = 20
)

// Fetcher retrieves one source's items. Implementations never fail upward.
type Fetcher interface {
	Run(ctx context.Context, src sources.Source) []feed.Item
}

type Aggregator struct {
	fetcher Fetcher
	srcs    []sources.Source
	runner  *enrich.Runner
	store   cache.Store
	archive *archive.Archive // nil when the mirror is not configured
	ttl     time.Duration

	cron    *cron.Cron
	running atomic.Bool
	state   atomic.Value
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(fetcher Fetcher, srcs []sources.Source, runner *enrich.Runner,
	store cache.Store, arch *archive.Archive, ttl time.Duration) *Aggregator {
	ctx, cancel := context.WithCancel(context.Background())

	a := &Aggregator{
		fetcher: fetcher,
		srcs:    srcs,
		runner:  runner,
		store:   store,
		archive: arch,
		ttl:     ttl,
		ctx:     ctx,
		cancel:  cancel,
	}
	a.state.Store(StateIdle)
	return a
}

// Start runs one cycle immediately and schedules recurring cycles at the
// cache TTL period.
func (a *Aggregator) Start() error {
	a.cron = cron.New()

	schedule := fmt.Sprintf("@every %ds", int(a.ttl.Seconds()))
	if _, err := a.cron.AddFunc(schedule, func() { a.Trigger() }); err != nil {
		return fmt.Errorf("failed to schedule aggregation cycle: %w", err)
	}
	a.cron.Start()

	a.Trigger()

	slog.Info("Aggregator started", "sources", len(a.srcs), "period", a.ttl)
	return nil
}

// Stop halts the schedule and waits for any in-flight cycle to drain.
func (a *Aggregator) Stop() {
	if a.cron != nil {
		a.cron.Stop()
	}
	a.cancel()
	a.wg.Wait()
	slog.Info("Aggregator stopped")
}

// Trigger starts a cycle in the background. A trigger arriving while a cycle
// is in flight is dropped, not queued; the return value reports whether a
// cycle was actually started.
func (a *Aggregator) Trigger() bool {
	if !a.running.CompareAndSwap(false, true) {
		slog.Debug("Aggregation trigger coalesced, cycle already in flight")
		return false
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.running.Store(false)
		a.runCycle(a.ctx)
	}()
	return true
}

// RunOnce executes a full cycle synchronously, under the same single-flight
// rule as Trigger.
func (a *Aggregator) RunOnce(ctx context.Context) bool {
	if !a.running.CompareAndSwap(false, true) {
		return false
	}
	defer a.running.Store(false)

	a.runCycle(ctx)
	return true
}

// State reports the current cycle phase.
func (a *Aggregator) State() string {
	return a.state.Load().(string)
}

func (a *Aggregator) setState(state string) {
	a.state.Store(state)
}

func (a *Aggregator) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	defer a.setState(StateIdle)

	// All sources fetch in parallel; the cycle waits for every one to settle.
	// A failed source contributed an empty batch, which degrades coverage but
	// never fails the cycle.
	a.setState(StateFetching)
	batches := make([][]feed.Item, len(a.srcs))
	var wg sync.WaitGroup
	for i, src := range a.srcs {
		wg.Add(1)
		go func(i int, src sources.Source) {
			defer wg.Done()
			batches[i] = a.fetcher.Run(ctx, src)
		}(i, src)
	}
	wg.Wait()

	a.setState(StateMerging)
	items := pipeline.Merge(batches, time.Now().UTC())

	a.setState(StateEnriching)
	items = a.runner.Apply(ctx, items)

	a.setState(StatePublishing)
	snap := &feed.Snapshot{
		Articles:    items,
		Total:       len(items),
		GeneratedAt: time.Now().UTC(),
		SourceCount: len(a.srcs),
	}
	a.publish(ctx, snap)

	slog.Info("Aggregation cycle completed",
		"items", len(items),
		"sources", len(a.srcs),
		"duration", time.Since(start))
}

// publish writes the snapshot and its breaking tier. Each key is replaced
// wholesale, so readers observe either the previous or the new value, never
// a partial write. Cache failures leave the pipeline in recompute-only mode.
func (a *Aggregator) publish(ctx context.Context, snap *feed.Snapshot) {
	if err := a.store.Set(ctx, cache.KeySnapshot, snap, a.ttl); err != nil {
		slog.Warn("Failed to publish snapshot", "error", err)
	}

	if err := a.store.Set(ctx, cache.KeyBreaking, BreakingTier(snap), a.ttl); err != nil {
		slog.Warn("Failed to publish breaking tier", "error", err)
	}

	if a.archive != nil {
		if err := a.archive.SaveSnapshot(ctx, snap); err != nil {
			slog.Warn("Failed to mirror snapshot to archive", "error", err)
		}
	}
}

// BreakingTier derives the breaking subset of a snapshot: items scoring above
// the threshold, in snapshot order, capped.
func BreakingTier(snap *feed.Snapshot) *feed.Snapshot {
	breaking := make([]feed.Item, 0, breakingLimit)
	for _, item := range snap.Articles {
		if item.TrendingScore > breakingThreshold {
			breaking = append(breaking, item)
			if len(breaking) == breakingLimit {
				break
			}
		}
	}

	return &feed.Snapshot{
		Articles:    breaking,
		Total:       len(breaking),
		GeneratedAt: snap.GeneratedAt,
		SourceCount: snap.SourceCount,
	}
}

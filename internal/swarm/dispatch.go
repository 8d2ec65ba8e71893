package swarm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/swarmworks/swarm/internal/memory"
	"github.com/swarmworks/swarm/internal/metrics"
)

// Dispatcher maps an ordered subtopic list to exactly one draft per
// subtopic, preserving subtopic order in the returned slice regardless of
// execution order. The research stage is built over this interface so the
// single-worker and team variants are interchangeable at construction.
type Dispatcher interface {
	Dispatch(ctx context.Context, query string, subtopics []string) ([]Draft, error)
}

// unit is one worker as seen by a dispatcher. Production code uses *Worker;
// tests substitute recorders.
type unit interface {
	Research(ctx context.Context, topic string) (Draft, error)
}

// Team dispatches subtopics across a fixed pool of differently-configured
// workers. Assignment is static round-robin: subtopic i goes to worker
// i mod M, independent of any load signal. Execution is concurrent, bounded
// by min(M, N); collection drains completions into a slot array indexed by
// original subtopic position, so downstream citation numbering stays
// deterministic across runs.
type Team struct {
	workers []unit
	store   memory.Store
	logger  *zap.Logger
}

// NewTeam builds the multi-worker dispatcher. The pool must not be empty.
func NewTeam(workers []*Worker, store memory.Store, logger *zap.Logger) (*Team, error) {
	if len(workers) == 0 {
		return nil, fmt.Errorf("researcher team requires at least one worker")
	}
	units := make([]unit, len(workers))
	for i, w := range workers {
		units[i] = w
	}
	return &Team{workers: units, store: store, logger: logger}, nil
}

// Dispatch fans out, fans in, and mirrors results into the memory store in
// original subtopic order. The first worker failure cancels the remaining
// units and fails the whole stage; there is no partial-result delivery.
func (t *Team) Dispatch(ctx context.Context, query string, subtopics []string) ([]Draft, error) {
	metrics.DispatchFanout.Observe(float64(len(subtopics)))

	drafts := make([]Draft, len(subtopics))
	if len(subtopics) > 0 {
		limit := len(t.workers)
		if len(subtopics) < limit {
			limit = len(subtopics)
		}
		t.logger.Info("dispatching research",
			zap.Int("subtopics", len(subtopics)),
			zap.Int("workers", len(t.workers)),
			zap.Int("concurrency", limit),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)
		for i, topic := range subtopics {
			worker := t.workers[i%len(t.workers)]
			g.Go(func() error {
				draft, err := worker.Research(gctx, topic)
				if err != nil {
					return err
				}
				// Disjoint slots by original index; no locking needed.
				drafts[i] = draft
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("research dispatch failed: %w", err)
		}
	}

	// Memory writes happen after the fan-in, iterating the slot array in
	// order. Field names embed the 1-based original index.
	for i, draft := range drafts {
		field := fmt.Sprintf("research:%d", i+1)
		if err := t.store.Write(ctx, query, field, draft); err != nil {
			return nil, err
		}
	}
	if err := t.store.Write(ctx, query, "drafts", drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}

// Solo is the single-worker dispatcher: the same contract as Team, executed
// sequentially by one worker.
type Solo struct {
	worker unit
	store  memory.Store
	logger *zap.Logger
}

func NewSolo(worker *Worker, store memory.Store, logger *zap.Logger) *Solo {
	return &Solo{worker: worker, store: store, logger: logger}
}

func (s *Solo) Dispatch(ctx context.Context, query string, subtopics []string) ([]Draft, error) {
	metrics.DispatchFanout.Observe(float64(len(subtopics)))

	drafts := make([]Draft, len(subtopics))
	for i, topic := range subtopics {
		draft, err := s.worker.Research(ctx, topic)
		if err != nil {
			return nil, fmt.Errorf("research dispatch failed: %w", err)
		}
		drafts[i] = draft
		field := fmt.Sprintf("research:%d", i+1)
		if err := s.store.Write(ctx, query, field, draft); err != nil {
			return nil, err
		}
	}
	if err := s.store.Write(ctx, query, "drafts", drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}

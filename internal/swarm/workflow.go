package swarm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/swarmworks/swarm/internal/config"
	"github.com/swarmworks/swarm/internal/llm"
	"github.com/swarmworks/swarm/internal/memory"
	"github.com/swarmworks/swarm/internal/search"
)

// Result is what a completed workflow run hands back to the caller.
type Result struct {
	State  State
	Memory memory.Store
}

// Run executes the full research workflow for one query: construct the
// collaborators from configuration, wire the graph, drive it to completion,
// and mirror the final state into memory. The caller owns closing
// Result.Memory.
func Run(ctx context.Context, query string, cfg *config.Config, providerName string, logger *zap.Logger) (*Result, error) {
	store, err := memory.New(cfg.RedisAddr, logger)
	if err != nil {
		return nil, err
	}

	provider, err := search.New(providerName, cfg.TavilyAPIKey, cfg.ResearcherBatchSize)
	if err != nil {
		store.Close()
		return nil, err
	}

	client, err := llm.NewOpenAI(cfg.APIKey, cfg.BaseURL, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	runLogger := logger.With(zap.String("run_id", uuid.New().String()))

	workers := make([]*Worker, 0, len(DefaultProfiles(cfg)))
	for _, profile := range DefaultProfiles(cfg) {
		workers = append(workers, NewWorker(profile, client, provider, cfg.ResearcherBatchSize, runLogger))
	}
	dispatcher, err := newDispatcher(workers, store, cfg.MaxSubtopics, runLogger)
	if err != nil {
		store.Close()
		return nil, err
	}

	planner := NewPlanner(client, store, cfg.ScoutModel, cfg.MaxSubtopics, runLogger)
	synthesizer := NewSynthesizer(client, store, cfg.Model, cfg.EnableEvaluator, runLogger)
	publisher := NewPublisher(client, store, cfg.Model, cfg.OutputDir, runLogger)
	var evaluator *Evaluator
	if cfg.EnableEvaluator {
		evaluator = NewEvaluator(client, store, cfg.Model, runLogger)
	}

	graph := Build(planner, dispatcher, synthesizer, publisher, evaluator, runLogger)

	final, err := graph.Run(ctx, State{Query: query})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("workflow run failed: %w", err)
	}

	if err := store.Write(ctx, query, "final_state", final); err != nil {
		store.Close()
		return nil, err
	}
	return &Result{State: final, Memory: store}, nil
}

// newDispatcher picks the dispatcher for the run. A one-subtopic plan never
// fans out, so a single researcher handles it sequentially; anything larger
// gets the round-robin team.
func newDispatcher(workers []*Worker, store memory.Store, maxSubtopics int, logger *zap.Logger) (Dispatcher, error) {
	if maxSubtopics == 1 && len(workers) > 0 {
		return NewSolo(workers[0], store, logger), nil
	}
	return NewTeam(workers, store, logger)
}

package swarm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/swarmworks/swarm/internal/llm"
	"github.com/swarmworks/swarm/internal/memory"
	"github.com/swarmworks/swarm/internal/metrics"
)

// Evaluator reviews the synthesis for unsupported claims, missing evidence,
// and bias. It only owns the critique text.
type Evaluator struct {
	llm    llm.Client
	store  memory.Store
	model  string
	logger *zap.Logger
}

func NewEvaluator(client llm.Client, store memory.Store, model string, logger *zap.Logger) *Evaluator {
	return &Evaluator{llm: client, store: store, model: model, logger: logger}
}

func (e *Evaluator) Run(ctx context.Context, state State) (State, error) {
	synthesis := state.Synthesis
	if synthesis == "" {
		if _, err := e.store.Read(ctx, state.Query, "synthesis", &synthesis); err != nil {
			return state, err
		}
	}
	drafts := state.Drafts
	if len(drafts) == 0 {
		if _, err := e.store.Read(ctx, state.Query, "drafts", &drafts); err != nil {
			return state, err
		}
	}

	critique, err := e.llm.Generate(ctx, llm.Request{
		Model: e.model,
		System: "You are a critical reviewer. Inspect the synthesis for unsupported claims, " +
			"missing evidence, and potential bias.",
		User: llm.Render(
			"Original question: {query}\nSynthesis:\n{synthesis}\nResearch notes:\n{notes}\n"+
				"Provide:\n"+
				"1. Validation of well-supported insights.\n"+
				"2. Flagged claims needing verification.\n"+
				"3. Missing perspectives or follow-up questions.",
			map[string]string{
				"query":     state.Query,
				"synthesis": synthesis,
				"notes":     formatNotes(drafts),
			}),
		Temperature: 0,
	})
	if err != nil {
		metrics.ModelCalls.WithLabelValues("evaluate", "error").Inc()
		return state, fmt.Errorf("evaluator failed: %w", err)
	}
	metrics.ModelCalls.WithLabelValues("evaluate", "ok").Inc()

	if err := e.store.Write(ctx, state.Query, "critique", critique); err != nil {
		return state, err
	}

	e.logger.Info("evaluated synthesis", zap.Int("critique_chars", len(critique)))
	state.Critique = critique
	return state, nil
}

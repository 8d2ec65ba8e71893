package swarm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/swarmworks/swarm/internal/llm"
	"github.com/swarmworks/swarm/internal/memory"
	"github.com/swarmworks/swarm/internal/metrics"
)

// Planner breaks the user query into focused research subtopics.
type Planner struct {
	llm          llm.Client
	store        memory.Store
	model        string
	maxSubtopics int
	logger       *zap.Logger
}

func NewPlanner(client llm.Client, store memory.Store, model string, maxSubtopics int, logger *zap.Logger) *Planner {
	return &Planner{
		llm:          client,
		store:        store,
		model:        model,
		maxSubtopics: maxSubtopics,
		logger:       logger,
	}
}

// Run produces the ordered subtopic list. A model failure is fatal for the
// run; unparseable output degrades to a single-item plan instead.
func (p *Planner) Run(ctx context.Context, state State) (State, error) {
	plan, err := p.llm.Generate(ctx, llm.Request{
		Model: p.model,
		System: "You are a research planner. Break the user request into concise subtopics " +
			"that will guide researchers. Focus on coverage and avoid redundancy.",
		User: llm.Render(
			"User request: {query}\nProvide between 3 and {max_subtopics} bullet points outlining the research plan.",
			map[string]string{
				"query":         state.Query,
				"max_subtopics": fmt.Sprintf("%d", p.maxSubtopics),
			}),
		Temperature: 0.2,
	})
	if err != nil {
		metrics.ModelCalls.WithLabelValues("plan", "error").Inc()
		return state, fmt.Errorf("planner failed: %w", err)
	}
	metrics.ModelCalls.WithLabelValues("plan", "ok").Inc()

	subtopics := parsePlan(plan, p.maxSubtopics)
	if err := p.store.Write(ctx, state.Query, "subtopics", subtopics); err != nil {
		return state, err
	}

	p.logger.Info("planned research", zap.Int("subtopics", len(subtopics)))
	state.Subtopics = subtopics
	return state, nil
}

// parsePlan extracts bullet items line by line, stripping known markers.
// Zero parseable items falls back to the whole trimmed response as a single
// subtopic.
func parsePlan(plan string, max int) []string {
	markers := []string{"- ", "* ", "• ", "1.", "2.", "3.", "4.", "5."}
	var subtopics []string
	for _, line := range strings.Split(plan, "\n") {
		item := strings.TrimSpace(line)
		if item == "" {
			continue
		}
		for _, marker := range markers {
			if strings.HasPrefix(item, marker) {
				item = strings.TrimSpace(item[len(marker):])
				break
			}
		}
		subtopics = append(subtopics, item)
		if len(subtopics) >= max {
			break
		}
	}
	if len(subtopics) == 0 {
		subtopics = []string{strings.TrimSpace(plan)}
	}
	return subtopics
}

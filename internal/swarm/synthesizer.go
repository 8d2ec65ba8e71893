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

// Route labels returned by the synthesizer's branch function.
const (
	RouteEvaluate = "evaluate"
	RouteEnd      = "end"
)

// Synthesizer merges the researcher drafts into one narrative and owns the
// workflow graph's conditional edge.
type Synthesizer struct {
	llm             llm.Client
	store           memory.Store
	model           string
	enableEvaluator bool
	logger          *zap.Logger
}

func NewSynthesizer(client llm.Client, store memory.Store, model string, enableEvaluator bool, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		llm:             client,
		store:           store,
		model:           model,
		enableEvaluator: enableEvaluator,
		logger:          logger,
	}
}

// Run builds the notes block and the deduplicated citation table, then
// invokes the model once. Drafts are recovered from the memory store when
// the state record is incomplete.
func (s *Synthesizer) Run(ctx context.Context, state State) (State, error) {
	drafts := state.Drafts
	if len(drafts) == 0 {
		if _, err := s.store.Read(ctx, state.Query, "drafts", &drafts); err != nil {
			return state, err
		}
	}

	citations := BuildCitations(drafts)
	if err := s.store.Write(ctx, state.Query, "citation_entries", citations); err != nil {
		return state, err
	}

	synthesis, err := s.llm.Generate(ctx, llm.Request{
		Model: s.model,
		System: "You are a lead analyst. Merge the researcher summaries into a unified deliverable. " +
			"Highlight consensus, disagreements, and notable data with citations.",
		User: llm.Render(
			"Original question: {query}\nResearch notes:\n{notes}\nCitation table:\n{citations}\n"+
				"Craft a comprehensive yet digestible synthesis. Include an executive summary, "+
				"key insights, and opportunities for further investigation. "+
				"Append citation ids in brackets after sourced sentences.",
			map[string]string{
				"query":     state.Query,
				"notes":     formatNotes(drafts),
				"citations": formatCitationTable(citations),
			}),
		Temperature: 0.3,
	})
	if err != nil {
		metrics.ModelCalls.WithLabelValues("synthesize", "error").Inc()
		return state, fmt.Errorf("synthesizer failed: %w", err)
	}
	metrics.ModelCalls.WithLabelValues("synthesize", "ok").Inc()

	if err := s.store.Write(ctx, state.Query, "synthesis", synthesis); err != nil {
		return state, err
	}

	s.logger.Info("synthesized drafts",
		zap.Int("drafts", len(drafts)),
		zap.Int("citations", len(citations)),
	)
	state.Drafts = drafts
	state.Citations = citations
	state.Synthesis = synthesis
	return state, nil
}

// Route is the conditional edge selector. The decision was captured at
// construction and does not depend on state contents.
func (s *Synthesizer) Route(State) string {
	if s.enableEvaluator {
		return RouteEvaluate
	}
	return RouteEnd
}

// BuildCitations scans every draft's source list in subtopic order and
// assigns sequential ids to first-seen URLs. Empty and duplicate URLs are
// skipped, so ids stay stable for the publish step's link injection.
func BuildCitations(drafts []Draft) []Citation {
	var citations []Citation
	seen := make(map[string]bool)
	for _, draft := range drafts {
		for _, src := range draft.Sources {
			url := strings.TrimSpace(src.URL)
			if url == "" || seen[url] {
				continue
			}
			seen[url] = true
			citations = append(citations, Citation{ID: len(citations) + 1, Title: src.Title, URL: url})
		}
	}
	return citations
}

// formatNotes renders each subtopic and its summary in insertion order.
func formatNotes(drafts []Draft) string {
	if len(drafts) == 0 {
		return "No research drafts available."
	}
	lines := make([]string, 0, len(drafts))
	for i, draft := range drafts {
		lines = append(lines, fmt.Sprintf("%d. %s\n%s", i+1, draft.Topic, draft.Summary))
	}
	return strings.Join(lines, "\n\n")
}

func formatCitationTable(citations []Citation) string {
	if len(citations) == 0 {
		return "No citations collected."
	}
	lines := make([]string, 0, len(citations))
	for _, c := range citations {
		lines = append(lines, fmt.Sprintf("[%d] %s - %s", c.ID, c.Title, c.URL))
	}
	return strings.Join(lines, "\n")
}

package swarm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/swarmworks/swarm/internal/llm"
	"github.com/swarmworks/swarm/internal/metrics"
	"github.com/swarmworks/swarm/internal/search"
)

// Worker turns one subtopic plus its searched sources into a summary draft.
type Worker struct {
	profile   Profile
	llm       llm.Client
	search    search.Provider
	batchSize int
	logger    *zap.Logger
}

// NewWorker builds a worker from its profile. batchSize is the number of
// sources fetched per subtopic.
func NewWorker(profile Profile, client llm.Client, provider search.Provider, batchSize int, logger *zap.Logger) *Worker {
	return &Worker{
		profile:   profile,
		llm:       client,
		search:    provider,
		batchSize: batchSize,
		logger:    logger.With(zap.String("worker", profile.Name)),
	}
}

// Name returns the profile name, used for draft attribution.
func (w *Worker) Name() string { return w.profile.Name }

// Research performs the two blocking calls for one subtopic: the web search
// and the model inference. Either failure aborts the dispatch.
func (w *Worker) Research(ctx context.Context, topic string) (Draft, error) {
	sources, err := w.search.Search(ctx, topic, w.batchSize)
	if err != nil {
		metrics.SearchCalls.WithLabelValues("error").Inc()
		return Draft{}, fmt.Errorf("search failed for subtopic %q: %w", topic, err)
	}
	metrics.SearchCalls.WithLabelValues("ok").Inc()

	summary, err := w.llm.Generate(ctx, llm.Request{
		Model:       w.profile.Model,
		System:      w.profile.System,
		User: llm.Render(w.profile.User, map[string]string{
			"topic":   topic,
			"sources": formatSources(sources),
		}),
		Temperature: w.profile.Temperature,
		TopP:        w.profile.TopP,
	})
	if err != nil {
		metrics.ModelCalls.WithLabelValues("research", "error").Inc()
		metrics.WorkerExecutions.WithLabelValues(w.profile.Name, "error").Inc()
		return Draft{}, fmt.Errorf("worker %s failed on subtopic %q: %w", w.profile.Name, topic, err)
	}
	metrics.ModelCalls.WithLabelValues("research", "ok").Inc()
	metrics.WorkerExecutions.WithLabelValues(w.profile.Name, "ok").Inc()

	w.logger.Debug("drafted subtopic",
		zap.String("topic", topic),
		zap.Int("sources", len(sources)),
	)
	return Draft{Topic: topic, Summary: summary, Worker: w.profile.Name, Sources: sources}, nil
}

// formatSources renders search hits into the numbered block the researcher
// prompts expect.
func formatSources(sources []search.Result) string {
	if len(sources) == 0 {
		return "No sources found."
	}
	blocks := make([]string, 0, len(sources))
	for i, src := range sources {
		title := src.Title
		if title == "" {
			title = "Untitled"
		}
		blocks = append(blocks, fmt.Sprintf("[%d] %s\nURL: %s\n%s", i+1, title, src.URL, src.Snippet))
	}
	return strings.Join(blocks, "\n\n")
}

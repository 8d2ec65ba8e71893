package swarm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/swarmworks/swarm/internal/llm"
	"github.com/swarmworks/swarm/internal/memory"
	"github.com/swarmworks/swarm/internal/metrics"
)

// citationToken matches [n] not already followed by a link.
var citationToken = regexp.MustCompile(`\[([0-9]+)\](\()?`)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

const titlePromptLimit = 500

// Publisher derives a report title, rewrites citation markers as Markdown
// links, and writes the report file, disambiguating filenames on disk.
type Publisher struct {
	llm       llm.Client
	store     memory.Store
	model     string
	outputDir string
	logger    *zap.Logger
}

func NewPublisher(client llm.Client, store memory.Store, model, outputDir string, logger *zap.Logger) *Publisher {
	return &Publisher{
		llm:       client,
		store:     store,
		model:     model,
		outputDir: outputDir,
		logger:    logger,
	}
}

func (p *Publisher) Run(ctx context.Context, state State) (State, error) {
	synthesis := state.Synthesis
	if synthesis == "" {
		if _, err := p.store.Read(ctx, state.Query, "synthesis", &synthesis); err != nil {
			return state, err
		}
	}
	citations := state.Citations
	if len(citations) == 0 {
		if _, err := p.store.Read(ctx, state.Query, "citation_entries", &citations); err != nil {
			return state, err
		}
	}

	linked := InjectCitationLinks(synthesis, citations)

	// Truncate on a rune boundary so the prompt stays valid UTF-8.
	summary := linked
	if runes := []rune(summary); len(runes) > titlePromptLimit {
		summary = string(runes[:titlePromptLimit])
	}
	title, err := p.llm.Generate(ctx, llm.Request{
		Model: p.model,
		System: "You craft concise report titles. Keep titles under 8 words, " +
			"informative, and free of punctuation except hyphens. Use underscores for spaces.",
		User: llm.Render(
			"Research question: {query}\nExecutive summary (truncated): {summary}\nReturn only the title text.",
			map[string]string{"query": state.Query, "summary": summary}),
		Temperature: 0.3,
	})
	if err != nil {
		metrics.ModelCalls.WithLabelValues("publish", "error").Inc()
		return state, fmt.Errorf("publisher failed to derive title: %w", err)
	}
	metrics.ModelCalls.WithLabelValues("publish", "ok").Inc()
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Research Summary"
	}

	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return state, fmt.Errorf("failed to create output directory: %w", err)
	}
	path := p.reportPath(title)
	content := buildMarkdown(title, state.Query, linked)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return state, fmt.Errorf("failed to write report: %w", err)
	}
	metrics.ReportsPublished.Inc()

	if err := p.store.Write(ctx, state.Query, "report_path", path); err != nil {
		return state, err
	}

	p.logger.Info("published report",
		zap.String("path", path),
		zap.String("title", title),
	)
	state.ReportPath = path
	state.ReportTitle = title
	return state, nil
}

// reportPath slugifies the title into a filesystem-safe base name and
// disambiguates against existing files with a numeric suffix.
func (p *Publisher) reportPath(title string) string {
	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		slug = "research-summary"
	}
	if len(slug) > 60 {
		slug = strings.TrimRight(slug[:60], "-")
	}

	candidate := filepath.Join(p.outputDir, slug+".md")
	for counter := 2; ; counter++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(p.outputDir, slug+"-"+strconv.Itoa(counter)+".md")
	}
}

func buildMarkdown(title, query, synthesis string) string {
	body := strings.TrimSpace(synthesis)
	if body == "" {
		body = "_No synthesis available._"
	}
	return fmt.Sprintf("# %s\n\n**Query:** %s\n\n%s\n", title, query, body)
}

// InjectCitationLinks rewrites every [n] token not already followed by a
// link into [n](<url>) using the citation table. Unmatched ids are left
// untouched, and running the rewrite twice produces no double-linking.
func InjectCitationLinks(synthesis string, citations []Citation) string {
	if synthesis == "" || len(citations) == 0 {
		return synthesis
	}
	urls := make(map[int]string, len(citations))
	for _, c := range citations {
		if c.ID > 0 && strings.TrimSpace(c.URL) != "" {
			urls[c.ID] = strings.TrimSpace(c.URL)
		}
	}
	if len(urls) == 0 {
		return synthesis
	}

	return citationToken.ReplaceAllStringFunc(synthesis, func(token string) string {
		// Already linked: the bracket is directly followed by "(".
		if strings.HasSuffix(token, "(") {
			return token
		}
		id, err := strconv.Atoi(strings.Trim(token, "[]"))
		if err != nil {
			return token
		}
		url, ok := urls[id]
		if !ok {
			return token
		}
		return fmt.Sprintf("[%d](<%s>)", id, url)
	})
}

package swarm

import "github.com/swarmworks/swarm/internal/config"

// Profile is the static descriptor of one researcher worker: which model it
// runs, its sampling parameters, and its prompt templates. Profiles are
// fixed at startup for the lifetime of the process.
type Profile struct {
	Name        string
	Model       string
	Temperature float64
	TopP        float64
	System      string
	User        string
}

const baseSystem = `You are a research agent. Follow these guardrails:
• Ground every claim in the provided snippets only; never infer beyond them.
• Quote short spans when possible and include inline citations like [1], [2].
• Use the exact JSON schema:
{
"subtopic":"...",
"claims":[{"text":"...","quote":"...","citation_id":1}],
"citation_map":[{"id":1,"url":"...","title":"..."}],
"confidence":0.0_to_1.0,
"tokens_read":1234
}
• Keep outputs concise; no intro/outro prose; no markdown fences.
• Respect per-doc token caps; do not exceed the context budget.`

// DefaultProfiles returns the stock researcher team: three fast scouts on
// the low-capability tier for breadth, two analysts on the high-capability
// tier for depth and verification.
func DefaultProfiles(cfg *config.Config) []Profile {
	return []Profile{
		{
			Name:        "scout-alpha",
			Model:       cfg.ScoutModel,
			Temperature: 0.14,
			TopP:        0.95,
			System:      baseSystem + "\nROLE: Fast-turnaround evidence scout; prefer crisp, atomic facts.",
			User: "Topic: {topic}\n\nSources:\n{sources}\n" +
				"Task: Produce EXACTLY three short factual sentences, each with an inline citation [id].\n" +
				"Return the JSON schema only.",
		},
		{
			Name:        "scout-beta",
			Model:       cfg.ScoutModel,
			Temperature: 0.14,
			TopP:        0.95,
			System:      baseSystem + "\nROLE: Coverage-focused scout; surface the biggest takeaways and divergent viewpoints.",
			User: "Topic: {topic}\n\nSources:\n{sources}\n" +
				"Task: Summarize the top findings in 3-5 sentences with inline citations [id].\n" +
				"Return the JSON schema only.",
		},
		{
			Name:        "scout-gamma",
			Model:       cfg.ScoutModel,
			Temperature: 0.14,
			TopP:        0.95,
			System:      baseSystem + "\nROLE: Precision note-taker; prioritize numbers, dates, and named entities.",
			User: "Topic: {topic}\n\nSources:\n{sources}\n" +
				"Task: List 3-4 key facts emphasizing statistics/dates, with inline citations [id].\n" +
				"Return the JSON schema only.",
		},
		{
			Name:        "analyst-delta",
			Model:       cfg.AnalystModel,
			Temperature: 0.09,
			TopP:        0.90,
			System:      baseSystem + "\nROLE: Senior analyst; connect themes, call out contradictions, keep to evidence.",
			User: "Topic: {topic}\n\nSources:\n{sources}\n" +
				"Task: Write a cohesive mini-brief (4-6 sentences) that highlights agreements/conflicts.\n" +
				"Every sentence must have at least one inline citation [id]. Return the JSON schema only.",
		},
		{
			Name:        "analyst-epsilon",
			Model:       cfg.AnalystModel,
			Temperature: 0.09,
			TopP:        0.90,
			System:      baseSystem + "\nROLE: Verification-minded analyst; separate well-supported facts from tentative items.",
			User: "Topic: {topic}\n\nSources:\n{sources}\n" +
				"Task: Produce a cautious summary (4-5 sentences) that labels uncertainties and grades reliability.\n" +
				"Cite each sentence with [id]. Return the JSON schema only.",
		},
	}
}

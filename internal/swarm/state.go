// Package swarm implements the research workflow: a directed stage graph
// that turns a user query into a published Markdown report, with a
// round-robin researcher team fanning out over subtopics.
package swarm

import "github.com/swarmworks/swarm/internal/search"

// Draft is the result of one (subtopic, worker) pairing.
type Draft struct {
	Topic   string          `json:"topic"`
	Summary string          `json:"summary"`
	Worker  string          `json:"worker"`
	Sources []search.Result `json:"sources"`
}

// Citation is a deduplicated (id, title, url) triple referenced by bracketed
// ids in generated text. IDs start at 1 and are assigned in first-seen order
// while scanning drafts in subtopic order.
type Citation struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// State is the record threaded through the workflow graph. Every field is
// declared upfront; each stage only adds or overwrites its own fields and
// returns the patched copy. Draft order equals subtopic order, which is what
// makes citation numbering deterministic.
type State struct {
	Query       string     `json:"query"`
	Subtopics   []string   `json:"subtopics"`
	Drafts      []Draft    `json:"drafts"`
	Synthesis   string     `json:"synthesis"`
	Citations   []Citation `json:"citation_entries"`
	Critique    string     `json:"critique"`
	ReportPath  string     `json:"report_path"`
	ReportTitle string     `json:"report_title"`
}

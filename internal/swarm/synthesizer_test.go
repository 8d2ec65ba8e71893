package swarm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/swarmworks/swarm/internal/llm"
	"github.com/swarmworks/swarm/internal/memory"
	"github.com/swarmworks/swarm/internal/search"
)

func TestBuildCitations(t *testing.T) {
	drafts := []Draft{
		{
			Topic: "first",
			Sources: []search.Result{
				{Title: "Site A", URL: "https://a.example"},
				{Title: "Site B", URL: "https://b.example"},
			},
		},
		{
			Topic: "second",
			Sources: []search.Result{
				{Title: "Site A again", URL: "https://a.example"},
				{Title: "No provider", URL: ""},
			},
		},
	}

	citations := BuildCitations(drafts)
	require.Len(t, citations, 2)
	assert.Equal(t, Citation{ID: 1, Title: "Site A", URL: "https://a.example"}, citations[0])
	assert.Equal(t, Citation{ID: 2, Title: "Site B", URL: "https://b.example"}, citations[1])
}

func TestBuildCitationsEmptyDrafts(t *testing.T) {
	assert.Empty(t, BuildCitations(nil))
	assert.Empty(t, BuildCitations([]Draft{{Topic: "t"}}))
}

func TestFormatNotes(t *testing.T) {
	notes := formatNotes([]Draft{
		{Topic: "alpha", Summary: "about alpha"},
		{Topic: "beta", Summary: "about beta"},
	})
	assert.Equal(t, "1. alpha\nabout alpha\n\n2. beta\nabout beta", notes)

	assert.Equal(t, "No research drafts available.", formatNotes(nil))
}

func TestSynthesizerRun(t *testing.T) {
	store := memory.NewMapStore()
	var gotUser string
	client := &stubLLM{fn: func(req llm.Request) (string, error) {
		gotUser = req.User
		return "merged narrative [1]", nil
	}}
	syn := NewSynthesizer(client, store, "test-model", false, zap.NewNop())

	state := State{
		Query: "q",
		Drafts: []Draft{
			{Topic: "alpha", Summary: "sum", Sources: []search.Result{{Title: "A", URL: "https://a.example"}}},
		},
	}
	out, err := syn.Run(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, "merged narrative [1]", out.Synthesis)
	require.Len(t, out.Citations, 1)
	assert.Contains(t, gotUser, "1. alpha")
	assert.Contains(t, gotUser, "https://a.example")

	var storedSynthesis string
	ok, err := store.Read(context.Background(), "q", "synthesis", &storedSynthesis)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "merged narrative [1]", storedSynthesis)

	var storedCitations []Citation
	ok, err = store.Read(context.Background(), "q", "citation_entries", &storedCitations)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, storedCitations, 1)
}

func TestSynthesizerRecoversDraftsFromMemory(t *testing.T) {
	store := memory.NewMapStore()
	drafts := []Draft{{Topic: "alpha", Summary: "sum"}}
	require.NoError(t, store.Write(context.Background(), "q", "drafts", drafts))

	syn := NewSynthesizer(echoLLM("narrative"), store, "test-model", false, zap.NewNop())
	out, err := syn.Run(context.Background(), State{Query: "q"})
	require.NoError(t, err)

	assert.Equal(t, drafts, out.Drafts)
	assert.Equal(t, "narrative", out.Synthesis)
}

func TestSynthesizerRoute(t *testing.T) {
	store := memory.NewMapStore()

	withEval := NewSynthesizer(echoLLM(""), store, "m", true, zap.NewNop())
	withoutEval := NewSynthesizer(echoLLM(""), store, "m", false, zap.NewNop())

	// The branch decision ignores state contents entirely.
	for _, state := range []State{{}, {Query: "x", Synthesis: "y"}} {
		assert.Equal(t, RouteEvaluate, withEval.Route(state))
		assert.Equal(t, RouteEnd, withoutEval.Route(state))
	}
}

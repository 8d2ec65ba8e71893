package swarm

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/swarmworks/swarm/internal/llm"
	"github.com/swarmworks/swarm/internal/memory"
	"github.com/swarmworks/swarm/internal/search"
)

func TestGraphRunsLinearPath(t *testing.T) {
	g := NewGraph(zap.NewNop())
	var visited []string
	for _, name := range []string{"a", "b", "c"} {
		g.AddNode(name, func(_ context.Context, s State) (State, error) {
			visited = append(visited, name)
			return s, nil
		})
	}
	g.SetEntryPoint("a")
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("c", End)

	_, err := g.Run(context.Background(), State{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, visited)
}

func TestGraphConditionalEdge(t *testing.T) {
	build := func(label string) (*Graph, *[]string) {
		g := NewGraph(zap.NewNop())
		var visited []string
		for _, name := range []string{"start", "left", "right"} {
			g.AddNode(name, func(_ context.Context, s State) (State, error) {
				visited = append(visited, name)
				return s, nil
			})
		}
		g.SetEntryPoint("start")
		g.AddConditionalEdges("start", func(State) string { return label },
			map[string]string{"l": "left", "r": "right"})
		g.AddEdge("left", End)
		g.AddEdge("right", End)
		return g, &visited
	}

	g, visited := build("l")
	_, err := g.Run(context.Background(), State{})
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "left"}, *visited)

	g, visited = build("r")
	_, err = g.Run(context.Background(), State{})
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "right"}, *visited)
}

func TestGraphErrorsPropagate(t *testing.T) {
	g := NewGraph(zap.NewNop())
	g.AddNode("boom", func(_ context.Context, s State) (State, error) {
		return s, fmt.Errorf("kaput")
	})
	g.SetEntryPoint("boom")
	g.AddEdge("boom", End)

	_, err := g.Run(context.Background(), State{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage boom")
}

func TestGraphRejectsMiswiring(t *testing.T) {
	g := NewGraph(zap.NewNop())
	_, err := g.Run(context.Background(), State{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entry point")

	g.AddNode("lonely", func(_ context.Context, s State) (State, error) { return s, nil })
	g.SetEntryPoint("lonely")
	_, err = g.Run(context.Background(), State{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no outgoing edge")
}

// buildTestWorkflow wires the full graph with a stub model and the noop
// search provider, the way swarm.Run does with real collaborators.
func buildTestWorkflow(t *testing.T, evaluatorEnabled bool, store memory.Store, outputDir string) *Graph {
	t.Helper()

	client := &stubLLM{fn: func(req llm.Request) (string, error) {
		switch {
		case req.Temperature == 0.2: // planner
			return "- history\n- applications\n- open problems", nil
		default:
			return "Echoed findings [1].", nil
		}
	}}
	logger := zap.NewNop()

	provider := &search.Noop{}
	workers := []*Worker{
		NewWorker(Profile{Name: "w0", Model: "m"}, client, provider, 3, logger),
		NewWorker(Profile{Name: "w1", Model: "m"}, client, provider, 3, logger),
	}
	team, err := NewTeam(workers, store, logger)
	require.NoError(t, err)

	planner := NewPlanner(client, store, "m", 5, logger)
	synthesizer := NewSynthesizer(client, store, "m", evaluatorEnabled, logger)
	publisher := NewPublisher(client, store, "m", outputDir, logger)
	var evaluator *Evaluator
	if evaluatorEnabled {
		evaluator = NewEvaluator(client, store, "m", logger)
	}
	return Build(planner, team, synthesizer, publisher, evaluator, logger)
}

func TestWorkflowEndToEnd(t *testing.T) {
	store := memory.NewMapStore()
	g := buildTestWorkflow(t, false, store, t.TempDir())

	final, err := g.Run(context.Background(), State{Query: "X"})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(final.Subtopics), 3)
	assert.LessOrEqual(t, len(final.Subtopics), 5)
	assert.Len(t, final.Drafts, len(final.Subtopics))
	assert.NotEmpty(t, final.Synthesis)
	assert.Empty(t, final.Critique)
	assert.NotEmpty(t, final.ReportPath)

	// The memory store mirrors each stage's output.
	var subtopics []string
	ok, err := store.Read(context.Background(), "X", "subtopics", &subtopics)
	require.NoError(t, err)
	assert.True(t, ok)

	var synthesis string
	ok, err = store.Read(context.Background(), "X", "synthesis", &synthesis)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWorkflowEndToEndWithEvaluator(t *testing.T) {
	store := memory.NewMapStore()
	g := buildTestWorkflow(t, true, store, t.TempDir())

	final, err := g.Run(context.Background(), State{Query: "X"})
	require.NoError(t, err)

	assert.NotEmpty(t, final.Critique)
	assert.NotEmpty(t, final.ReportPath)

	var critique string
	ok, err := store.Read(context.Background(), "X", "critique", &critique)
	require.NoError(t, err)
	assert.True(t, ok)
}

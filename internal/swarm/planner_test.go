package swarm

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/swarmworks/swarm/internal/llm"
	"github.com/swarmworks/swarm/internal/memory"
	"github.com/swarmworks/swarm/internal/metrics"
)

// stubLLM returns canned responses, optionally inspecting the request.
type stubLLM struct {
	fn func(req llm.Request) (string, error)
}

func (s *stubLLM) Generate(_ context.Context, req llm.Request) (string, error) {
	return s.fn(req)
}

func echoLLM(text string) *stubLLM {
	return &stubLLM{fn: func(llm.Request) (string, error) { return text, nil }}
}

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name string
		plan string
		max  int
		want []string
	}{
		{
			name: "dash bullets",
			plan: "- first topic\n- second topic\n- third topic",
			max:  5,
			want: []string{"first topic", "second topic", "third topic"},
		},
		{
			name: "star and dot bullets",
			plan: "* alpha\n• beta\n1. gamma\n2. delta",
			max:  5,
			want: []string{"alpha", "beta", "gamma", "delta"},
		},
		{
			name: "caps at max subtopics",
			plan: "- a\n- b\n- c\n- d\n- e\n- f\n- g",
			max:  5,
			want: []string{"a", "b", "c", "d", "e"},
		},
		{
			name: "blank lines skipped",
			plan: "- a\n\n\n- b\n",
			max:  5,
			want: []string{"a", "b"},
		},
		{
			name: "single paragraph falls back to one item",
			plan: "  Research quantum error correction broadly.  ",
			max:  5,
			want: []string{"Research quantum error correction broadly."},
		},
		{
			name: "empty response falls back to trimmed whole",
			plan: "   \n  ",
			max:  5,
			want: []string{""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePlan(tt.plan, tt.max))
		})
	}
}

func TestPlannerRunWritesMemory(t *testing.T) {
	store := memory.NewMapStore()
	planner := NewPlanner(echoLLM("- one\n- two"), store, "test-model", 5, zap.NewNop())

	state, err := planner.Run(context.Background(), State{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, state.Subtopics)

	var stored []string
	ok, err := store.Read(context.Background(), "q", "subtopics", &stored)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"one", "two"}, stored)
}

func TestPlannerRunPropagatesModelFailure(t *testing.T) {
	store := memory.NewMapStore()
	planner := NewPlanner(&stubLLM{fn: func(llm.Request) (string, error) {
		return "", assert.AnError
	}}, store, "test-model", 5, zap.NewNop())

	_, err := planner.Run(context.Background(), State{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "planner failed")
}

func TestPlannerRunCountsModelCalls(t *testing.T) {
	store := memory.NewMapStore()
	okBefore := testutil.ToFloat64(metrics.ModelCalls.WithLabelValues("plan", "ok"))
	errBefore := testutil.ToFloat64(metrics.ModelCalls.WithLabelValues("plan", "error"))

	planner := NewPlanner(echoLLM("- one"), store, "test-model", 5, zap.NewNop())
	_, err := planner.Run(context.Background(), State{Query: "q"})
	require.NoError(t, err)

	failing := NewPlanner(&stubLLM{fn: func(llm.Request) (string, error) {
		return "", assert.AnError
	}}, store, "test-model", 5, zap.NewNop())
	_, err = failing.Run(context.Background(), State{Query: "q"})
	require.Error(t, err)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.ModelCalls.WithLabelValues("plan", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(metrics.ModelCalls.WithLabelValues("plan", "error")))
}

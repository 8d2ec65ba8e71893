package swarm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/swarmworks/swarm/internal/llm"
	"github.com/swarmworks/swarm/internal/memory"
)

func TestEvaluatorRun(t *testing.T) {
	store := memory.NewMapStore()
	var gotUser string
	client := &stubLLM{fn: func(req llm.Request) (string, error) {
		gotUser = req.User
		return "critique text", nil
	}}
	eval := NewEvaluator(client, store, "m", zap.NewNop())

	state := State{
		Query:     "q",
		Synthesis: "the synthesis",
		Drafts:    []Draft{{Topic: "alpha", Summary: "sum"}},
	}
	out, err := eval.Run(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, "critique text", out.Critique)
	assert.Contains(t, gotUser, "the synthesis")
	assert.Contains(t, gotUser, "1. alpha")

	var stored string
	ok, err := store.Read(context.Background(), "q", "critique", &stored)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "critique text", stored)
}

func TestEvaluatorRecoversFromMemory(t *testing.T) {
	store := memory.NewMapStore()
	require.NoError(t, store.Write(context.Background(), "q", "synthesis", "stored synthesis"))
	require.NoError(t, store.Write(context.Background(), "q", "drafts", []Draft{{Topic: "beta", Summary: "s"}}))

	var gotUser string
	client := &stubLLM{fn: func(req llm.Request) (string, error) {
		gotUser = req.User
		return "c", nil
	}}
	eval := NewEvaluator(client, store, "m", zap.NewNop())

	_, err := eval.Run(context.Background(), State{Query: "q"})
	require.NoError(t, err)
	assert.Contains(t, gotUser, "stored synthesis")
	assert.Contains(t, gotUser, "1. beta")
}

func TestEvaluatorPropagatesModelFailure(t *testing.T) {
	client := &stubLLM{fn: func(llm.Request) (string, error) { return "", assert.AnError }}
	eval := NewEvaluator(client, memory.NewMapStore(), "m", zap.NewNop())

	_, err := eval.Run(context.Background(), State{Query: "q", Synthesis: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evaluator failed")
}

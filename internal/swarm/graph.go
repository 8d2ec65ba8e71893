package swarm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/swarmworks/swarm/internal/metrics"
)

// End is the terminal edge target.
const End = "end"

// NodeFunc is one stage of the workflow: it consumes the state and returns
// the patched copy.
type NodeFunc func(ctx context.Context, state State) (State, error)

// RouteFunc evaluates a conditional edge and returns a route label.
type RouteFunc func(state State) string

type conditionalEdge struct {
	route   RouteFunc
	targets map[string]string // route label -> node name (or End)
}

// Graph is a directed stage graph with plain edges and at most one
// conditional edge per node. It is a strict DAG executed single-threaded,
// stage by stage, in a single pass.
type Graph struct {
	entry       string
	nodes       map[string]NodeFunc
	edges       map[string]string
	conditional map[string]conditionalEdge
	logger      *zap.Logger
}

func NewGraph(logger *zap.Logger) *Graph {
	return &Graph{
		nodes:       make(map[string]NodeFunc),
		edges:       make(map[string]string),
		conditional: make(map[string]conditionalEdge),
		logger:      logger,
	}
}

func (g *Graph) AddNode(name string, fn NodeFunc) {
	g.nodes[name] = fn
}

func (g *Graph) AddEdge(from, to string) {
	g.edges[from] = to
}

// AddConditionalEdges routes from a node through a route function; targets
// maps each route label to the next node name or End.
func (g *Graph) AddConditionalEdges(from string, route RouteFunc, targets map[string]string) {
	g.conditional[from] = conditionalEdge{route: route, targets: targets}
}

func (g *Graph) SetEntryPoint(name string) {
	g.entry = name
}

// Run drives the graph from the entry point to End. Each node runs to
// completion before the next edge is evaluated; the step cap guards against
// a miswired cycle, which is a programming error, not a runtime condition.
func (g *Graph) Run(ctx context.Context, state State) (State, error) {
	if g.entry == "" {
		return state, fmt.Errorf("workflow graph has no entry point")
	}

	current := g.entry
	for steps := 0; current != End; steps++ {
		if steps > len(g.nodes) {
			return state, fmt.Errorf("workflow graph exceeded %d steps at node %q", len(g.nodes), current)
		}
		fn, ok := g.nodes[current]
		if !ok {
			return state, fmt.Errorf("workflow graph references unknown node %q", current)
		}

		g.logger.Debug("running stage", zap.String("stage", current))
		start := time.Now()
		next, err := fn(ctx, state)
		metrics.StageDuration.WithLabelValues(current).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.StagesCompleted.WithLabelValues(current, "error").Inc()
			return state, fmt.Errorf("stage %s: %w", current, err)
		}
		metrics.StagesCompleted.WithLabelValues(current, "ok").Inc()
		state = next

		if cond, ok := g.conditional[current]; ok {
			label := cond.route(state)
			target, ok := cond.targets[label]
			if !ok {
				return state, fmt.Errorf("stage %s routed to unknown label %q", current, label)
			}
			current = target
			continue
		}
		target, ok := g.edges[current]
		if !ok {
			return state, fmt.Errorf("stage %s has no outgoing edge", current)
		}
		current = target
	}
	return state, nil
}

// Build wires the research workflow:
// plan -> research -> synthesize -> (evaluate?) -> publish -> end.
// When the evaluator is nil the synthesize edge is unconditional.
func Build(planner *Planner, dispatcher Dispatcher, synthesizer *Synthesizer, publisher *Publisher, evaluator *Evaluator, logger *zap.Logger) *Graph {
	g := NewGraph(logger)
	g.AddNode("plan", planner.Run)
	g.AddNode("research", func(ctx context.Context, state State) (State, error) {
		drafts, err := dispatcher.Dispatch(ctx, state.Query, state.Subtopics)
		if err != nil {
			return state, err
		}
		state.Drafts = drafts
		return state, nil
	})
	g.AddNode("synthesize", synthesizer.Run)
	g.AddNode("publish", publisher.Run)

	g.SetEntryPoint("plan")
	g.AddEdge("plan", "research")
	g.AddEdge("research", "synthesize")

	if evaluator != nil {
		g.AddNode("evaluate", evaluator.Run)
		g.AddConditionalEdges("synthesize", synthesizer.Route, map[string]string{
			RouteEvaluate: "evaluate",
			RouteEnd:      "publish",
		})
		g.AddEdge("evaluate", "publish")
	} else {
		g.AddEdge("synthesize", "publish")
	}

	g.AddEdge("publish", End)
	return g
}

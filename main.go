package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/swarmworks/swarm/internal/config"
	"github.com/swarmworks/swarm/internal/swarm"
)

var (
	queryFile  string
	provider   string
	evaluate   bool
	noEvaluate bool
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "swarm [query]",
	Short: "Run the collaborative research swarm on a topic",
	Long: `swarm orchestrates a pipeline of language-model agents (planner,
researcher team, synthesizer, optional evaluator, publisher) that turns a
research question into a Markdown report with deduplicated citations.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runResearch,
}

func init() {
	rootCmd.Flags().StringVarP(&queryFile, "file", "f", "", "path to a text file containing the research question")
	rootCmd.Flags().StringVar(&provider, "provider", "tavily", "search provider to use (tavily or noop)")
	rootCmd.Flags().BoolVar(&evaluate, "evaluate", false, "enable the evaluator agent for critique")
	rootCmd.Flags().BoolVar(&noEvaluate, "no-evaluate", false, "disable the evaluator agent even if enabled by environment")
	rootCmd.MarkFlagsMutuallyExclusive("evaluate", "no-evaluate")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug logging")
}

func runResearch(cmd *cobra.Command, args []string) error {
	query, err := loadQuery(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	applyEvaluatorFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	result, err := swarm.Run(cmd.Context(), query, cfg, provider, logger)
	if err != nil {
		return err
	}
	defer result.Memory.Close()

	state := result.State
	fmt.Println("=== Research Plan ===")
	for i, item := range state.Subtopics {
		fmt.Printf("%d. %s\n", i+1, item)
	}

	fmt.Println("\n=== Synthesis ===")
	if state.Synthesis != "" {
		fmt.Println(state.Synthesis)
	} else {
		fmt.Println("(empty)")
	}

	if state.Critique != "" {
		fmt.Println("\n=== Critique ===")
		fmt.Println(state.Critique)
	}

	if state.ReportPath != "" {
		fmt.Printf("\nMarkdown report saved to: %s\n", state.ReportPath)
	}
	return nil
}

// applyEvaluatorFlags resolves the evaluator tri-state: the environment
// default stands unless one of the flags was given, and --no-evaluate wins.
func applyEvaluatorFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("evaluate") {
		cfg.EnableEvaluator = evaluate
	}
	if noEvaluate {
		cfg.EnableEvaluator = false
	}
}

func loadQuery(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	if queryFile != "" {
		content, err := os.ReadFile(queryFile)
		if err != nil {
			return "", fmt.Errorf("failed to read query file: %w", err)
		}
		return strings.TrimSpace(string(content)), nil
	}
	return "", fmt.Errorf("provide a query argument or --file pointing to a prompt")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

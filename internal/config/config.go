package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config carries every runtime knob for a swarm run. It is built once at
// startup and passed by parameter into component constructors; nothing
// reads the environment after Load returns.
type Config struct {
	Model        string // default model identifier
	APIKey       string // OpenAI-compatible API key
	BaseURL      string // optional override for self-hosted endpoints
	TavilyAPIKey string

	MaxSubtopics        int
	ResearcherBatchSize int // sources fetched per subtopic

	ScoutModel   string // low-capability tier for breadth researchers
	AnalystModel string // high-capability tier for depth researchers

	EnableEvaluator bool

	RedisAddr string // empty means in-process memory store
	OutputDir string // where Markdown reports land
}

// Load reads configuration from the environment, after loading a .env file
// when one is present. Malformed numeric values are configuration errors.
func Load() (*Config, error) {
	// Ignore a missing .env; only explicit values matter.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("MAX_SUBTOPICS", 5)
	v.SetDefault("RESEARCHER_BATCH_SIZE", 3)
	v.SetDefault("RESEARCHER_SCOUT_MODEL", "qwen2.5-7b-instruct-q4")
	v.SetDefault("RESEARCHER_ANALYST_MODEL", "qwen2.5-7b-instruct-q8")
	v.SetDefault("SWARM_OUTPUT_DIR", ".")

	maxSubtopics, err := intValue(v, "MAX_SUBTOPICS")
	if err != nil {
		return nil, err
	}
	batchSize, err := intValue(v, "RESEARCHER_BATCH_SIZE")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Model:               v.GetString("OPENAI_MODEL"),
		APIKey:              v.GetString("OPENAI_API_KEY"),
		BaseURL:             v.GetString("OPENAI_BASE_URL"),
		TavilyAPIKey:        v.GetString("TAVILY_API_KEY"),
		MaxSubtopics:        maxSubtopics,
		ResearcherBatchSize: batchSize,
		ScoutModel:          v.GetString("RESEARCHER_SCOUT_MODEL"),
		AnalystModel:        v.GetString("RESEARCHER_ANALYST_MODEL"),
		EnableEvaluator:     boolValue(v.GetString("ENABLE_EVALUATOR")),
		RedisAddr:           v.GetString("REDIS_ADDR"),
		OutputDir:           v.GetString("SWARM_OUTPUT_DIR"),
	}
	return cfg, nil
}

// Validate checks the constraints that must hold before any stage runs.
func (c *Config) Validate() error {
	if c.APIKey == "" && c.BaseURL == "" {
		return fmt.Errorf("OPENAI_API_KEY not configured; set it in the environment or a .env file")
	}
	if c.MaxSubtopics < 1 {
		return fmt.Errorf("MAX_SUBTOPICS must be at least 1, got %d", c.MaxSubtopics)
	}
	if c.ResearcherBatchSize < 1 {
		return fmt.Errorf("RESEARCHER_BATCH_SIZE must be at least 1, got %d", c.ResearcherBatchSize)
	}
	return nil
}

func intValue(v *viper.Viper, name string) (int, error) {
	raw := strings.TrimSpace(v.GetString(name))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be an integer, got %q", name, raw)
	}
	return n, nil
}

func boolValue(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

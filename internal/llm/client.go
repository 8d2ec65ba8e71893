// Package llm provides the language-model invocation interface used by every
// stage, plus the OpenAI-compatible implementation.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// Request is one chat completion call. Model selection and sampling
// parameters come from the worker profile making the call.
type Request struct {
	Model       string
	System      string
	User        string
	Temperature float64
	TopP        float64
}

// Client is implemented by language-model backends. Stage code depends on
// this interface so tests can substitute a stub.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// OpenAI talks to any OpenAI-compatible chat completion endpoint. A base URL
// override covers self-hosted servers; in that case a placeholder key is
// substituted when none is configured, since such servers ignore it.
type OpenAI struct {
	client openai.Client
	logger *zap.Logger
}

// NewOpenAI builds the client. Key and base URL come from configuration, not
// the ambient environment.
func NewOpenAI(apiKey, baseURL string, logger *zap.Logger) (*OpenAI, error) {
	if apiKey == "" {
		if baseURL == "" {
			return nil, fmt.Errorf("OpenAI API key not configured")
		}
		apiKey = "local-server"
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAI{client: openai.NewClient(opts...), logger: logger}, nil
}

// Generate performs one chat completion. Failures propagate to the caller
// and abort the workflow run; there is no retry at this layer.
func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.TopP > 0 {
		params.TopP = openai.Float(req.TopP)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed for model %s: %w", req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion for model %s returned no choices", req.Model)
	}

	o.logger.Debug("chat completion",
		zap.String("model", req.Model),
		zap.Int64("input_tokens", resp.Usage.PromptTokens),
		zap.Int64("output_tokens", resp.Usage.CompletionTokens),
		zap.Duration("duration", time.Since(start)),
	)
	return resp.Choices[0].Message.Content, nil
}

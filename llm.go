package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/openai/openai-go/v3"
	oaioption "github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"golang.org/x/time/rate"
	gapioption "google.golang.org/api/option"
)

// Generator turns a prompt into model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var errEmptyCompletion = errors.New("model returned no text")

// newGenerator builds the configured provider wrapped in rate limiting. The
// returned close func releases provider clients.
func newGenerator(ctx context.Context, cfg Config, log *Logger) (Generator, func(), error) {
	var (
		gen     Generator
		closers []func()
	)
	switch cfg.Provider {
	case providerGemini:
		primary, err := newGeminiGenerator(ctx, cfg.GoogleAPIKey, cfg.GeminiModel, cfg.Temperature)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, primary.Close)
		gen = primary
		if cfg.GoogleAPIKeyAlt != "" {
			alternate, err := newGeminiGenerator(ctx, cfg.GoogleAPIKeyAlt, cfg.GeminiModel, cfg.Temperature)
			if err != nil {
				primary.Close()
				return nil, nil, err
			}
			closers = append(closers, alternate.Close)
			gen = newFallbackGenerator(primary, alternate, log)
		}
	case providerOpenRouter:
		gen = newOpenRouterGenerator(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL, cfg.OpenRouterModel, cfg.Temperature)
	default:
		return nil, nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return newRateLimitedGenerator(gen, cfg.TokensPerSecond, cfg.MaxRetries, log), closeAll, nil
}

type geminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func newGeminiGenerator(ctx context.Context, apiKey, modelName string, temperature float64) (*geminiGenerator, error) {
	client, err := genai.NewClient(ctx, gapioption.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(float32(temperature))
	model.SetTopP(0.8)
	model.SetTopK(40)
	return &geminiGenerator{client: client, model: model}, nil
}

func (g *geminiGenerator) Close() {
	g.client.Close()
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}
	if text.Len() == 0 {
		return "", errEmptyCompletion
	}
	return text.String(), nil
}

// openRouterGenerator talks to OpenRouter through its OpenAI-compatible
// chat completions endpoint.
type openRouterGenerator struct {
	client      openai.Client
	model       string
	temperature float64
}

func newOpenRouterGenerator(apiKey, baseURL, model string, temperature float64) *openRouterGenerator {
	client := openai.NewClient(
		oaioption.WithAPIKey(apiKey),
		oaioption.WithBaseURL(baseURL),
		oaioption.WithHeader("X-Title", "docqa"),
	)
	return &openRouterGenerator{client: client, model: model, temperature: temperature}
}

func (g *openRouterGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You answer strictly from the document text you are given."),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(g.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openrouter completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// fallbackGenerator retries a failed call once on the other key. After a
// successful retry the other key stays active for later calls.
type fallbackGenerator struct {
	mu      sync.Mutex
	gens    [2]Generator
	current int
	log     *Logger
}

func newFallbackGenerator(primary, alternate Generator, log *Logger) *fallbackGenerator {
	return &fallbackGenerator{gens: [2]Generator{primary, alternate}, log: log}
}

func (g *fallbackGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	idx := g.current
	g.mu.Unlock()

	out, err := g.gens[idx].Generate(ctx, prompt)
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return "", err
	}

	g.log.Warn("model call failed, retrying with alternate key", "error", err)
	other := 1 - idx
	out, retryErr := g.gens[other].Generate(ctx, prompt)
	if retryErr != nil {
		return "", fmt.Errorf("both api keys failed: %v; %w", err, retryErr)
	}

	g.mu.Lock()
	g.current = other
	g.mu.Unlock()
	return out, nil
}

const (
	baseRetryDelay = 1 * time.Second
	maxRetryDelay  = 32 * time.Second
)

// rateLimitedGenerator waits on a token bucket sized in estimated prompt
// tokens and retries rate limit (429) failures with exponential backoff.
type rateLimitedGenerator struct {
	next       Generator
	limiter    *rate.Limiter
	burst      int
	maxRetries int
	baseDelay  time.Duration
	log        *Logger
}

func newRateLimitedGenerator(next Generator, tokensPerSecond, maxRetries int, log *Logger) *rateLimitedGenerator {
	if tokensPerSecond <= 0 {
		tokensPerSecond = 30000
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	burst := tokensPerSecond * 2
	return &rateLimitedGenerator{
		next:       next,
		limiter:    rate.NewLimiter(rate.Limit(tokensPerSecond), burst),
		burst:      burst,
		maxRetries: maxRetries,
		baseDelay:  baseRetryDelay,
		log:        log,
	}
}

func estimateTokens(prompt string) int {
	return len(prompt)/4 + 1
}

func (g *rateLimitedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	tokens := estimateTokens(prompt)
	if tokens > g.burst {
		tokens = g.burst
	}
	if err := g.limiter.WaitN(ctx, tokens); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(g.baseDelay) * math.Pow(2, float64(attempt-1)))
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}
			g.log.Info("retrying model call", "attempt", attempt, "max_retries", g.maxRetries, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		out, err := g.next.Generate(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isRateLimitError(err) {
			return "", err
		}
		g.log.Warn("model rate limited", "attempt", attempt+1, "error", err)
	}
	return "", fmt.Errorf("max retries (%d) exceeded, last error: %w", g.maxRetries, lastErr)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == 429 {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"429", "rate limit", "rate_limit_exceeded", "Too Many Requests", "RESOURCE_EXHAUSTED"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

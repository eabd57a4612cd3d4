// Package llm calls the text generation provider (OpenRouter through its
// OpenAI-compatible API) and decodes the structured reply.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"golang.org/x/time/rate"

	"github.com/AlexKimmel/prayerlite/internal/prompt"
)

var (
	// ErrUnauthorized means the provider rejected the API key.
	ErrUnauthorized = errors.New("llm: provider rejected api key")
	// ErrUnavailable covers network failures, timeouts and provider overload.
	ErrUnavailable = errors.New("llm: provider unavailable")
	// ErrEmptyOutput means the reply could not be decoded into an Output.
	ErrEmptyOutput = errors.New("llm: no usable output")
)

const maxBlessingCardRunes = 80

type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	// MaxRPS paces calls to the provider across the whole process; 0 disables.
	MaxRPS float64
}

// Usage is the token count of one call. A zero count means the provider did
// not report that field; Reported is true when at least one was reported.
type Usage struct {
	InputTokens  int
	OutputTokens int
	Reported     bool
}

type Result struct {
	Output prompt.Output
	Usage  Usage
	Model  string
}

// Generator produces an Output for a prompt. apiKey is per call because a
// client may bring its own provider key.
type Generator interface {
	Generate(ctx context.Context, apiKey, text string) (*Result, error)
}

type Client struct {
	client  openai.Client
	cfg     Config
	limiter *rate.Limiter
}

func New(cfg Config, httpClient *http.Client) *Client {
	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(1),
		option.WithHeader("X-Title", "prayerlite"),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	lim := rate.NewLimiter(rate.Inf, 0)
	if cfg.MaxRPS > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.MaxRPS), int(math.Max(1, math.Ceil(cfg.MaxRPS))))
	}

	return &Client{
		client:  openai.NewClient(opts...),
		cfg:     cfg,
		limiter: lim,
	}
}

func (c *Client) Generate(ctx context.Context, apiKey, text string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: waiting for send slot: %v", ErrUnavailable, err)
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(text),
		},
		Temperature: openai.Float(c.cfg.Temperature),
		MaxTokens:   openai.Int(int64(c.cfg.MaxTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	completion, err := c.client.Chat.Completions.New(ctx, params, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, classify(err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrEmptyOutput)
	}

	out, err := DecodeOutput(completion.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	return &Result{
		Output: out,
		Usage: Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
			Reported:     completion.Usage.PromptTokens > 0 || completion.Usage.CompletionTokens > 0,
		},
		Model: completion.Model,
	}, nil
}

// DecodeOutput parses the model's JSON reply, tolerating a markdown fence.
func DecodeOutput(content string) (prompt.Output, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var out prompt.Output
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return prompt.Output{}, fmt.Errorf("%w: decode: %v", ErrEmptyOutput, err)
	}
	if strings.TrimSpace(out.Reframe) == "" || strings.TrimSpace(out.Prayer) == "" {
		return prompt.Output{}, fmt.Errorf("%w: reframe or prayer missing", ErrEmptyOutput)
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if r := []rune(out.BlessingCard); len(r) > maxBlessingCardRunes {
		out.BlessingCard = string(r[:maxBlessingCardRunes])
	}
	out.IsSafetyResponse = false
	return out, nil
}

func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized, apiErr.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		case apiErr.StatusCode == http.StatusTooManyRequests, apiErr.StatusCode >= 500:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return fmt.Errorf("llm: %w", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return fmt.Errorf("llm: %w", err)
}

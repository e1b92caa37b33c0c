package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dshills/codegraph-mcp/pkg/types"
)

const (
	DefaultModel = openai.GPT4oMini

	// MaxContentChars truncates file content placed in a prompt
	MaxContentChars = 24000

	// DefaultMaxMethods bounds the methods described per file
	DefaultMaxMethods = 20

	temperature    = 0.3
	requestTimeout = 60 * time.Second
)

// ErrEmptyResponse is returned when the model answers with no text
var ErrEmptyResponse = errors.New("model returned an empty response")

// Summarizer writes detailed natural-language summaries of files and methods
type Summarizer interface {
	SummarizeFile(ctx context.Context, path string, lang types.Language, content string) (string, error)
	SummarizeMethod(ctx context.Context, path string, m types.Method) (string, error)
}

// Option configures an OpenAI summarizer
type Option func(*OpenAI)

// WithModel overrides the chat model
func WithModel(model string) Option {
	return func(o *OpenAI) {
		if model != "" {
			o.model = model
		}
	}
}

// WithBaseURL points the client at a different API root
func WithBaseURL(url string) Option {
	return func(o *OpenAI) {
		o.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used for API calls
func WithHTTPClient(c *http.Client) Option {
	return func(o *OpenAI) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithMaxMethods bounds the methods described per file. Zero skips methods.
func WithMaxMethods(n int) Option {
	return func(o *OpenAI) {
		if n >= 0 {
			o.maxMethods = n
		}
	}
}

// OpenAI is a Summarizer backed by the chat completions endpoint
type OpenAI struct {
	client     *openai.Client
	httpClient *http.Client
	baseURL    string
	model      string
	maxMethods int
}

// NewOpenAI creates a summarizer authenticated with apiKey
func NewOpenAI(apiKey string, opts ...Option) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("summarizer: api key required")
	}

	o := &OpenAI{
		httpClient: &http.Client{Timeout: requestTimeout},
		model:      DefaultModel,
		maxMethods: DefaultMaxMethods,
	}
	for _, opt := range opts {
		opt(o)
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = o.httpClient
	if o.baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(o.baseURL, "/")
	}
	o.client = openai.NewClientWithConfig(cfg)
	return o, nil
}

// Model returns the chat model in use
func (o *OpenAI) Model() string {
	return o.model
}

// MaxMethods returns how many methods per file are described
func (o *OpenAI) MaxMethods() int {
	return o.maxMethods
}

func (o *OpenAI) SummarizeFile(ctx context.Context, path string, lang types.Language, content string) (string, error) {
	return o.complete(ctx, filePrompt(path, lang, content))
}

func (o *OpenAI) SummarizeMethod(ctx context.Context, path string, m types.Method) (string, error) {
	return o.complete(ctx, methodPrompt(path, m))
}

func (o *OpenAI) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// methodLimiter is implemented by summarizers that cap per-file method calls
type methodLimiter interface {
	MaxMethods() int
}

// Describe asks s for a file summary and a summary of each method. Method
// summaries are written into methods in place. Every failure is collected;
// whatever succeeded is kept.
func Describe(ctx context.Context, s Summarizer, path string, lang types.Language, content string, methods []types.Method) (string, error) {
	var errs []error

	detail, err := s.SummarizeFile(ctx, path, lang, content)
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", path, err))
	}

	limit := len(methods)
	if ml, ok := s.(methodLimiter); ok {
		limit = min(limit, ml.MaxMethods())
	}
	for i := 0; i < limit; i++ {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		text, err := s.SummarizeMethod(ctx, path, methods[i])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %s: %w", path, methods[i].Name, err))
			continue
		}
		methods[i].DetailedSummary = text
	}

	return detail, errors.Join(errs...)
}

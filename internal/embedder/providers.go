package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	openai "github.com/sashabaranov/go-openai"
)

// Provider configuration
const (
	ProviderJina   = "jina"
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	// Default models
	DefaultJinaModel   = "jina-embeddings-v3"
	DefaultOpenAIModel = string(openai.SmallEmbedding3)
	DefaultLocalModel  = "local-hashing"

	// Default endpoints
	DefaultJinaBaseURL = "https://api.jina.ai/v1"

	// Dimensions
	JinaDimension   = 1024
	OpenAIDimension = 1536
	LocalDimension  = 384

	// Batch limits
	MaxBatchSize     = 100
	DefaultCacheSize = 10000

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0

	requestTimeout = 30 * time.Second
)

// Option customizes a provider
type Option func(*options)

type options struct {
	baseURL    string
	model      string
	dimension  int
	httpClient *http.Client
	retry      RetryConfig
	batchSize  int
}

func defaultOptions() options {
	return options{
		httpClient: &http.Client{Timeout: requestTimeout},
		retry:      DefaultRetryConfig(),
		batchSize:  MaxBatchSize,
	}
}

// WithBaseURL points the provider at a different API root
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithModel overrides the provider's default model
func WithModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

// WithDimension overrides the reported vector length
func WithDimension(dim int) Option {
	return func(o *options) {
		if dim > 0 {
			o.dimension = dim
		}
	}
}

// WithHTTPClient sets the HTTP client used for API calls
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithRetryConfig sets the retry policy for API calls
func WithRetryConfig(rc RetryConfig) Option {
	return func(o *options) {
		o.retry = rc
	}
}

// WithBatchSize caps the number of texts sent in one API request
func WithBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 && n <= MaxBatchSize {
			o.batchSize = n
		}
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// JinaProvider implements Embedder using the Jina AI API
type JinaProvider struct {
	apiKey     string
	model      string
	baseURL    string
	dimension  int
	httpClient *http.Client
	cache      *Cache
	retry      RetryConfig
	batchSize  int
}

// NewJinaProvider creates a new Jina AI embedder
func NewJinaProvider(apiKey string, cache *Cache, opts ...Option) (*JinaProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvJinaAPIKey)
	}

	o := applyOptions(opts)
	j := &JinaProvider{
		apiKey:     apiKey,
		model:      DefaultJinaModel,
		baseURL:    DefaultJinaBaseURL,
		dimension:  JinaDimension,
		httpClient: o.httpClient,
		cache:      cache,
		retry:      o.retry,
		batchSize:  o.batchSize,
	}
	if o.model != "" {
		j.model = o.model
	}
	if o.baseURL != "" {
		j.baseURL = o.baseURL
	}
	if o.dimension > 0 {
		j.dimension = o.dimension
	}
	return j, nil
}

func (j *JinaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedOne(ctx, j, text)
}

func (j *JinaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedCached(ctx, j.cache, texts, j.batchSize, func(ctx context.Context, chunk []string) ([][]float32, error) {
		vecs, err := retryWithBackoff(ctx, j.retry, func() ([][]float32, error) {
			return j.callAPI(ctx, chunk)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: jina: %w", ErrProviderFailed, err)
		}
		return vecs, nil
	})
}

func (j *JinaProvider) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := map[string]any{
		"input": texts,
		"model": j.model,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+j.apiKey)

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
		Model string `json:"model"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([][]float32, len(texts))
	for _, data := range apiResp.Data {
		if data.Index < 0 || data.Index >= len(out) {
			return nil, fmt.Errorf("%w: index %d out of range", ErrDimensionMismatch, data.Index)
		}
		out[data.Index] = data.Embedding
	}
	for i, vec := range out {
		if vec == nil {
			return nil, fmt.Errorf("%w: missing embedding %d", ErrDimensionMismatch, i)
		}
	}

	return out, nil
}

func (j *JinaProvider) Dimension() int {
	return j.dimension
}

func (j *JinaProvider) Name() string {
	return ProviderJina
}

// Model returns the model name
func (j *JinaProvider) Model() string {
	return j.model
}

func (j *JinaProvider) Close() error {
	j.httpClient.CloseIdleConnections()
	return nil
}

// OpenAIProvider implements Embedder using the OpenAI embeddings endpoint
type OpenAIProvider struct {
	client     *openai.Client
	httpClient *http.Client
	model      string
	dimension  int
	cache      *Cache
	retry      RetryConfig
	batchSize  int
}

// NewOpenAIProvider creates a new OpenAI embedder
func NewOpenAIProvider(apiKey string, cache *Cache, opts ...Option) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}

	o := applyOptions(opts)
	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = o.httpClient
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}

	p := &OpenAIProvider{
		client:     openai.NewClientWithConfig(cfg),
		httpClient: o.httpClient,
		model:      DefaultOpenAIModel,
		dimension:  OpenAIDimension,
		cache:      cache,
		retry:      o.retry,
		batchSize:  o.batchSize,
	}
	if o.model != "" {
		p.model = o.model
	}
	if o.dimension > 0 {
		p.dimension = o.dimension
	}
	return p, nil
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedOne(ctx, p, text)
}

func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedCached(ctx, p.cache, texts, p.batchSize, func(ctx context.Context, chunk []string) ([][]float32, error) {
		vecs, err := retryWithBackoff(ctx, p.retry, func() ([][]float32, error) {
			return p.callAPI(ctx, chunk)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: openai: %w", ErrProviderFailed, err)
		}
		return vecs, nil
	})
}

func (p *OpenAIProvider) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(p.model),
	}
	if p.dimension != OpenAIDimension {
		req.Dimensions = p.dimension
	}

	resp, err := p.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(out) {
			return nil, fmt.Errorf("%w: index %d out of range", ErrDimensionMismatch, data.Index)
		}
		out[data.Index] = data.Embedding
	}
	for i, vec := range out {
		if vec == nil {
			return nil, fmt.Errorf("%w: missing embedding %d", ErrDimensionMismatch, i)
		}
	}
	return out, nil
}

func (p *OpenAIProvider) Dimension() int {
	return p.dimension
}

func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

// Model returns the model name
func (p *OpenAIProvider) Model() string {
	return p.model
}

func (p *OpenAIProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// LocalProvider embeds text offline by hashing its words into a fixed number
// of buckets. Texts that share words have a positive cosine similarity.
type LocalProvider struct {
	model     string
	dimension int
	cache     *Cache
}

// NewLocalProvider creates a new local embedder
func NewLocalProvider(cache *Cache, opts ...Option) (*LocalProvider, error) {
	o := applyOptions(opts)
	l := &LocalProvider{
		model:     DefaultLocalModel,
		dimension: LocalDimension,
		cache:     cache,
	}
	if o.model != "" {
		l.model = o.model
	}
	if o.dimension > 0 {
		l.dimension = o.dimension
	}
	return l, nil
}

func (l *LocalProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedOne(ctx, l, text)
}

func (l *LocalProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedCached(ctx, l.cache, texts, MaxBatchSize, func(ctx context.Context, chunk []string) ([][]float32, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := make([][]float32, len(chunk))
		for i, text := range chunk {
			out[i] = l.vector(text)
		}
		return out, nil
	})
}

func (l *LocalProvider) vector(text string) []float32 {
	vec := make([]float32, l.dimension)
	for _, word := range localTokens(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(word))
		sum := h.Sum64()

		// High bit picks the sign so unrelated words tend to cancel
		sign := float32(1)
		if sum>>63 == 1 {
			sign = -1
		}
		vec[sum%uint64(l.dimension)] += sign
	}
	return NormalizeVector(vec)
}

// localTokens lower-cases text and splits it on anything that is not a
// letter or digit
func localTokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func (l *LocalProvider) Dimension() int {
	return l.dimension
}

func (l *LocalProvider) Name() string {
	return ProviderLocal
}

// Model returns the model name
func (l *LocalProvider) Model() string {
	return l.model
}

func (l *LocalProvider) Close() error {
	return nil
}

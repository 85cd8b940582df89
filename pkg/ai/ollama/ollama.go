package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"kgrag/pkg/ai"
	"kgrag/pkg/logger"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/semaphore"
)

// DefaultBaseURL is the address of a locally running Ollama server.
const DefaultBaseURL = "http://127.0.0.1:11434"

const (
	// Ollama truncates prompts beyond its default context window.
	defaultContextTokens = 4096
	contextReserveTokens = 200
	contextEncoding      = "o200k_base"
)

// GraphOllamaClient implements the ai.GraphAIClient interface using Ollama as the backend.
// Requests are serialised through a weighted semaphore.
type GraphOllamaClient struct {
	ai.MetricsRecorder

	model       string
	temperature float64
	lenientJSON bool

	reqLock *semaphore.Weighted

	encOnce sync.Once
	enc     *tiktoken.Tiktoken

	baseURL *url.URL

	Client *api.Client
}

// NewGraphOllamaClientParams contains configuration options for creating a new GraphOllamaClient.
type NewGraphOllamaClientParams struct {
	Model       string
	Temperature float64
	LenientJSON bool

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewGraphOllamaClient creates a new Ollama-based AI client. An empty BaseURL
// connects to DefaultBaseURL.
func NewGraphOllamaClient(
	params NewGraphOllamaClientParams,
) (*GraphOllamaClient, error) {
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	httpClient := http.DefaultClient
	if params.ApiKey != "" {
		httpClient = &http.Client{
			Transport: &headerTransport{
				headers: map[string]string{
					"Authorization": "Bearer " + params.ApiKey,
				},
				rt: http.DefaultTransport,
			},
		}
	}

	maxRequests := params.MaxConcurrentRequests
	if maxRequests < 1 {
		maxRequests = 1
	}

	return &GraphOllamaClient{
		model:       params.Model,
		temperature: params.Temperature,
		lenientJSON: params.LenientJSON,

		reqLock: semaphore.NewWeighted(maxRequests),

		baseURL: u,

		Client: api.NewClient(u, httpClient),
	}, nil
}

func (c *GraphOllamaClient) defaults() ai.GenerateOptions {
	return ai.GenerateOptions{
		Model:       c.model,
		Temperature: c.temperature,
		LenientJSON: c.lenientJSON,
	}
}

// contextSize returns the num_ctx to request for the given prompt text, or 0
// when the default window suffices or the size cannot be estimated.
func (c *GraphOllamaClient) contextSize(text string) int {
	c.encOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(contextEncoding)
		if err != nil {
			logger.Warn("Context estimation disabled", "encoding", contextEncoding, "err", err)
			return
		}
		c.enc = enc
	})
	if c.enc == nil {
		return 0
	}

	tokens := len(c.enc.Encode(text, nil, nil)) + contextReserveTokens
	if tokens > defaultContextTokens {
		return tokens
	}
	return 0
}

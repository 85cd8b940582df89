package openai

import (
	"kgrag/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// placeholderKey is sent to OpenAI-compatible local servers that do not
// check credentials; the SDK refuses to build requests without a key.
const placeholderKey = "none"

// GraphOpenAIClient implements ai.GraphAIClient against any OpenAI-compatible
// chat completions endpoint.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	ai.MetricsRecorder

	model       string
	temperature float64
	lenientJSON bool

	reqLock *semaphore.Weighted

	ChatClient *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration parameters for
// creating a new GraphOpenAIClient.
//
// ChatURL and ChatKey configure the chat/completion API endpoint. An empty
// ChatURL talks to api.openai.com.
type NewGraphOpenAIClientParams struct {
	Model       string
	Temperature float64
	LenientJSON bool

	ChatURL string
	ChatKey string

	MaxConcurrentRequests int64
}

// NewGraphOpenAIClient creates a new GraphOpenAIClient.
//
// Example:
//
//	client := openai.NewGraphOpenAIClient(openai.NewGraphOpenAIClientParams{
//		Model:   "llama3",
//		ChatURL: "http://localhost:8000/v1",
//	})
func NewGraphOpenAIClient(
	params NewGraphOpenAIClientParams,
) *GraphOpenAIClient {
	maxRequests := params.MaxConcurrentRequests
	if maxRequests < 1 {
		maxRequests = 1
	}

	return &GraphOpenAIClient{
		model:       params.Model,
		temperature: params.Temperature,
		lenientJSON: params.LenientJSON,

		reqLock: semaphore.NewWeighted(maxRequests),

		ChatClient: newOpenaiClient(params.ChatURL, params.ChatKey),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		apiKey = placeholderKey
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

func (c *GraphOpenAIClient) defaults() ai.GenerateOptions {
	return ai.GenerateOptions{
		Model:       c.model,
		Temperature: c.temperature,
		LenientJSON: c.lenientJSON,
	}
}

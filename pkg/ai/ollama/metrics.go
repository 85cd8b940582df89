package ollama

import (
	"kgrag/pkg/ai"

	"github.com/ollama/ollama/api"
)

func (c *GraphOllamaClient) recordResponse(res api.ChatResponse) {
	c.Record(ai.ModelMetrics{
		InputTokens:  res.Metrics.PromptEvalCount,
		OutputTokens: res.Metrics.EvalCount,
		TotalTokens:  res.Metrics.PromptEvalCount + res.Metrics.EvalCount,
		DurationMs:   res.Metrics.TotalDuration.Milliseconds(),
	})
}

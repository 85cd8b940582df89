package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kgrag/pkg/ai"
	"kgrag/pkg/logger"

	"github.com/openai/openai-go/v3"
)

func (c *GraphOpenAIClient) complete(
	ctx context.Context,
	body openai.ChatCompletionNewParams,
) (string, error) {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	start := time.Now()
	response, err := c.ChatClient.Chat.Completions.New(ctx, body)
	if err != nil {
		return "", fmt.Errorf("chat completion with %s failed: %w", body.Model, err)
	}
	duration := time.Since(start).Milliseconds()

	c.Record(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   duration,
	})
	logger.Debug("Chat completion", "model", body.Model, "duration_ms", duration, "total_tokens", response.Usage.TotalTokens)

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in response from model")
	}
	return response.Choices[0].Message.Content, nil
}

func messagesWithSystem(options ai.GenerateOptions, messages ...openai.ChatCompletionMessageParamUnion) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(options.SystemPrompts)+len(messages))
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	return append(msgs, messages...)
}

// GenerateCompletion sends a single-turn prompt to the chat model and
// returns the generated completion as plain text.
func (c *GraphOpenAIClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.ApplyOptions(c.defaults(), opts...)

	return c.complete(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    messagesWithSystem(options, openai.UserMessage(prompt)),
		Temperature: openai.Float(options.Temperature),
	})
}

// GenerateCompletionWithFormat sends a prompt with the JSON schema of out as
// response format and decodes the reply into out.
//
// Strict schema mode is only requested when the schema root is an object;
// the API rejects strict schemas with any other root type.
func (c *GraphOpenAIClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	if out == nil {
		return errors.New("out must be a non-nil pointer")
	}

	schema := ai.GenerateSchema(out)
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String(description),
		Schema:      schema,
		Strict:      openai.Bool(schema.Type == "object"),
	}

	options := ai.ApplyOptions(c.defaults(), opts...)

	message, err := c.complete(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(options.Model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
		Messages:    messagesWithSystem(options, openai.UserMessage(prompt)),
		Temperature: openai.Float(options.Temperature),
	})
	if err != nil {
		return err
	}
	if message == "" {
		return fmt.Errorf("%s: %w: empty response", name, ai.ErrMalformedOutput)
	}

	if err := ai.Decode(message, out, options); err != nil {
		logger.Debug("Malformed model output", "name", name, "raw", ai.CompactJSON([]byte(message)))
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// LoadModel is a no-op for OpenAI-compatible servers as models are loaded on-demand.
// It exists to satisfy the GraphAIClient interface.
func (c *GraphOpenAIClient) LoadModel(ctx context.Context, opts ...ai.GenerateOption) error {
	return nil
}

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"kgrag/pkg/ai"
	"kgrag/pkg/logger"

	"github.com/ollama/ollama/api"
)

func (c *GraphOllamaClient) chat(
	ctx context.Context,
	messages []api.Message,
	format json.RawMessage,
	options ai.GenerateOptions,
) (string, error) {
	msgs := make([]api.Message, 0, len(options.SystemPrompts)+len(messages))
	for _, sys := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: ai.RoleSystem, Content: sys})
	}
	msgs = append(msgs, messages...)

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Format:   format,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	var text strings.Builder
	for _, m := range msgs {
		text.WriteString(m.Content)
	}
	if n := c.contextSize(text.String()); n > 0 {
		req.Options["num_ctx"] = n
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("ollama chat with %s failed: %w", options.Model, err)
	}

	c.recordResponse(final)
	logger.Debug("Ollama response", "model", options.Model, "input_tokens", final.Metrics.PromptEvalCount, "output_tokens", final.Metrics.EvalCount)

	return final.Message.Content, nil
}

// GenerateCompletion sends a single-turn prompt and returns assistant text.
func (c *GraphOllamaClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.ApplyOptions(c.defaults(), opts...)

	return c.chat(ctx, []api.Message{
		{Role: ai.RoleUser, Content: prompt},
	}, nil, options)
}

// GenerateCompletionWithFormat constrains the reply to the JSON schema of out
// and decodes it into out.
func (c *GraphOllamaClient) GenerateCompletionWithFormat(
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
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("out must be a non-nil pointer")
	}

	format, err := json.Marshal(ai.GenerateSchema(out))
	if err != nil {
		return err
	}

	options := ai.ApplyOptions(c.defaults(), opts...)

	content, err := c.chat(ctx, []api.Message{
		{Role: ai.RoleUser, Content: prompt},
	}, format, options)
	if err != nil {
		return err
	}

	if err := ai.Decode(content, out, options); err != nil {
		logger.Debug("Malformed model output", "name", name, "raw", ai.CompactJSON([]byte(content)))
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// LoadModel preloads a model into memory to reduce latency on subsequent requests.
func (c *GraphOllamaClient) LoadModel(ctx context.Context, opts ...ai.GenerateOption) error {
	options := ai.ApplyOptions(c.defaults(), opts...)

	req := &api.ChatRequest{
		Model: options.Model,
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.reqLock.Release(1)

	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		return nil
	}); err != nil {
		return fmt.Errorf("failed to load model %s: %w", options.Model, err)
	}

	return nil
}

package ai

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.yaml
var promptFiles embed.FS

const (
	extractionPromptFile = "prompts/extraction.yaml"
	cypherPromptFile     = "prompts/cypher.yaml"
)

// ExtractionExample is one worked example shown to the model.
type ExtractionExample struct {
	Text     string `yaml:"text" json:"text"`
	Head     string `yaml:"head" json:"head"`
	HeadType string `yaml:"head_type" json:"head_type"`
	Relation string `yaml:"relation" json:"relation"`
	Tail     string `yaml:"tail" json:"tail"`
	TailType string `yaml:"tail_type" json:"tail_type"`
}

// ExtractionPrompt is the versioned prompt configuration for relation
// extraction.
type ExtractionPrompt struct {
	Version            string              `yaml:"version"`
	System             string              `yaml:"system"`
	Human              string              `yaml:"human"`
	FormatInstructions string              `yaml:"format_instructions"`
	Examples           []ExtractionExample `yaml:"examples"`
}

// CypherPrompt holds the templates for query generation and answering.
type CypherPrompt struct {
	Version    string `yaml:"version"`
	Generation string `yaml:"generation"`
	QA         string `yaml:"qa"`
}

// LoadExtractionPrompt reads the extraction prompt from path, or the
// embedded default when path is empty.
func LoadExtractionPrompt(path string) (*ExtractionPrompt, error) {
	var p ExtractionPrompt
	if err := loadPromptFile(path, extractionPromptFile, &p); err != nil {
		return nil, err
	}
	if p.System == "" || p.Human == "" || p.FormatInstructions == "" {
		return nil, fmt.Errorf("extraction prompt %s: system, human and format_instructions are required", promptName(path, extractionPromptFile))
	}
	return &p, nil
}

// LoadCypherPrompt reads the Cypher prompt from path, or the embedded
// default when path is empty.
func LoadCypherPrompt(path string) (*CypherPrompt, error) {
	var p CypherPrompt
	if err := loadPromptFile(path, cypherPromptFile, &p); err != nil {
		return nil, err
	}
	if p.Generation == "" || p.QA == "" {
		return nil, fmt.Errorf("cypher prompt %s: generation and qa are required", promptName(path, cypherPromptFile))
	}
	return &p, nil
}

func promptName(path, embedded string) string {
	if path != "" {
		return path
	}
	return "embedded:" + embedded
}

func loadPromptFile(path, embedded string, out any) error {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = promptFiles.ReadFile(embedded)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read prompt %s: %w", promptName(path, embedded), err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse prompt %s: %w", promptName(path, embedded), err)
	}
	return nil
}

// Render builds the system and user messages for one chunk of text. schema
// is the JSON schema of the expected output.
func (p *ExtractionPrompt) Render(schema string, input string) ([]ChatMessage, error) {
	instructions, err := prompts.NewPromptTemplate(p.FormatInstructions, []string{"schema"}).
		Format(map[string]any{"schema": schema})
	if err != nil {
		return nil, fmt.Errorf("failed to render format instructions: %w", err)
	}

	examples, err := json.MarshalIndent(p.Examples, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render examples: %w", err)
	}

	chat := prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
		prompts.NewSystemMessagePromptTemplate(p.System, nil),
		prompts.HumanMessagePromptTemplate{
			Prompt: prompts.PromptTemplate{
				Template:       p.Human,
				TemplateFormat: prompts.TemplateFormatGoTemplate,
				InputVariables: []string{"input"},
				PartialVariables: map[string]any{
					"examples":            string(examples),
					"format_instructions": instructions,
				},
			},
		},
	})

	msgs, err := chat.FormatMessages(map[string]any{"input": input})
	if err != nil {
		return nil, fmt.Errorf("failed to render extraction prompt: %w", err)
	}
	return toChatMessages(msgs), nil
}

// RenderGeneration renders the prompt asking for a Cypher statement.
func (p *CypherPrompt) RenderGeneration(schema string, question string) (string, error) {
	return prompts.NewPromptTemplate(p.Generation, []string{"schema", "question"}).
		Format(map[string]any{"schema": schema, "question": question})
}

// RenderQA renders the prompt asking for an answer from query results.
func (p *CypherPrompt) RenderQA(context string, question string) (string, error) {
	return prompts.NewPromptTemplate(p.QA, []string{"context", "question"}).
		Format(map[string]any{"context": context, "question": question})
}

func toChatMessages(msgs []llms.ChatMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		role := RoleUser
		switch m.GetType() {
		case llms.ChatMessageTypeSystem:
			role = RoleSystem
		case llms.ChatMessageTypeAI:
			role = RoleAssistant
		}
		out = append(out, ChatMessage{Role: role, Message: m.GetContent()})
	}
	return out
}

package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kgrag/pkg/ai"
	oai "kgrag/pkg/ai/ollama"
	gai "kgrag/pkg/ai/openai"
	"kgrag/pkg/common"
	"kgrag/pkg/graph"
	"kgrag/pkg/loader"
	"kgrag/pkg/store/memory"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"AI_ADAPTER", "AI_CHAT_MODEL", "AI_MAX_RETRIES", "NEO4J_URI", "FILES_DIR", "FILES_EXT", "CHUNK_SIZE", "CHUNK_OVERLAP", "TOKEN_ENCODER", "GRAPH_INCLUDE_SOURCE", "QUERY_TOP_K", "PORT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg := LoadConfig()
	if cfg.AIAdapter != AdapterOllama || cfg.AIChatModel != "llama3" || cfg.AIMaxRetries != 1 {
		t.Errorf("unexpected model defaults: %+v", cfg)
	}
	if cfg.Neo4jURI != "bolt://localhost:7687" {
		t.Errorf("unexpected neo4j uri %q", cfg.Neo4jURI)
	}
	if cfg.FilesDir != "files" || cfg.FilesExt != ".pdf" {
		t.Errorf("unexpected file defaults %q %q", cfg.FilesDir, cfg.FilesExt)
	}
	if cfg.ChunkSize != 512 || cfg.ChunkOverlap != 24 || cfg.TokenEncoder != "r50k_base" {
		t.Errorf("unexpected chunking defaults: %d %d %s", cfg.ChunkSize, cfg.ChunkOverlap, cfg.TokenEncoder)
	}
	if !cfg.IncludeSource || !cfg.BaseEntityLabel {
		t.Error("expected source documents and base label by default")
	}
	if cfg.QueryTopK != 10 || cfg.Port != "8080" {
		t.Errorf("unexpected query defaults: %d %s", cfg.QueryTopK, cfg.Port)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("AI_ADAPTER", "openai")
	t.Setenv("CHUNK_OVERLAP", "0")
	t.Setenv("AI_JSON_REPAIR", "true")
	t.Setenv("GRAPH_INCLUDE_SOURCE", "false")

	cfg := LoadConfig()
	if cfg.AIAdapter != AdapterOpenAI || cfg.ChunkOverlap != 0 || !cfg.AIJSONRepair || cfg.IncludeSource {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestNewAIClient(t *testing.T) {
	c, err := NewAIClient(Config{AIAdapter: AdapterOllama, AIChatModel: "llama3"})
	if err != nil {
		t.Fatalf("NewAIClient() error = %v", err)
	}
	if _, ok := c.(*oai.GraphOllamaClient); !ok {
		t.Errorf("expected ollama client, got %T", c)
	}

	c, err = NewAIClient(Config{AIAdapter: AdapterOpenAI, AIChatURL: "http://localhost:8000/v1"})
	if err != nil {
		t.Fatalf("NewAIClient() error = %v", err)
	}
	if _, ok := c.(*gai.GraphOpenAIClient); !ok {
		t.Errorf("expected openai client, got %T", c)
	}

	if _, err := NewAIClient(Config{AIAdapter: "bedrock"}); err == nil {
		t.Error("expected error for unknown adapter")
	}
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(context.Background(), Config{FilesSource: SourceLocal, FilesDir: "files", FilesExt: ".pdf"})
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}
	if _, ok := src.(loader.DirSource); !ok {
		t.Errorf("expected DirSource, got %T", src)
	}

	if _, err := NewSource(context.Background(), Config{FilesSource: SourceS3}); err == nil {
		t.Error("expected error without bucket")
	}
	if _, err := NewSource(context.Background(), Config{FilesSource: "ftp"}); err == nil {
		t.Error("expected error for unknown source")
	}
}

type spaceTokenizer struct{ words []string }

func (t *spaceTokenizer) Encode(text string) []int {
	out := []int{}
	for _, w := range strings.Fields(text) {
		out = append(out, len(t.words))
		t.words = append(t.words, w)
	}
	return out
}

func (t *spaceTokenizer) Decode(tokens []int) string {
	words := make([]string, 0, len(tokens))
	for _, id := range tokens {
		words = append(words, t.words[id])
	}
	return strings.Join(words, " ")
}

type staticExtractor struct{}

func (staticExtractor) Extract(ctx context.Context, chunk common.Chunk) ([]common.RelationRecord, error) {
	return []common.RelationRecord{{Head: "John Doe", HeadType: "Person", Relation: "SUSPECT_IN", Tail: chunk.Text, TailType: "Crime"}}, nil
}

type textPages struct{}

func (textPages) GetPages(ctx context.Context, file loader.GraphFile) ([]string, error) {
	content, err := file.GetContent(ctx)
	if err != nil {
		return nil, err
	}
	return []string{string(content)}, nil
}

type countingModel struct {
	ai.MetricsRecorder
}

func (m *countingModel) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", nil
}

func (m *countingModel) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	return nil
}

func (m *countingModel) LoadModel(ctx context.Context, opts ...ai.GenerateOption) error {
	return nil
}

func newTestPipeline(t *testing.T, dir string) (*Pipeline, *memory.GraphStore, *countingModel) {
	t.Helper()
	g, err := graph.NewGraphClient(graph.NewGraphClientParams{
		Tokenizer:       &spaceTokenizer{},
		ChunkSize:       512,
		ChunkOverlap:    24,
		Extractor:       staticExtractor{},
		BaseEntityLabel: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	s := memory.New()
	model := &countingModel{}
	return &Pipeline{
		NewSource: SourceFor(Config{FilesSource: SourceLocal, FilesDir: dir, FilesExt: ".txt"}),
		NewPages:  func() loader.PageLoader { return textPages{} },
		Graph:     g,
		Store:     s,
		Model:     model,
	}, s, model
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	for name, text := range map[string]string{"a.txt": "Robbery", "b.txt": "Assault", "c.md": "Ignored"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	p, s, model := newTestPipeline(t, dir)
	model.Record(ai.ModelMetrics{Requests: 2, InputTokens: 10})

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.Files != 2 || stats.Records != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if got := len(s.Nodes()); got != 3 {
		t.Errorf("expected 3 nodes, got %d", got)
	}
	if model.GetMetrics().Requests != 0 {
		t.Error("expected model metrics to be reset after the run")
	}
}

func TestPipelineRereadsReplacedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("Robbery"), 0o600); err != nil {
		t.Fatal(err)
	}
	p, s, _ := newTestPipeline(t, dir)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if err := os.WriteFile(path, []byte("Burglary"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	found := false
	for _, n := range s.Nodes() {
		if n.ID == "Burglary" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the second run to see the replaced file, got nodes %v", s.Nodes())
	}
}

func TestPipelineMissingDir(t *testing.T) {
	p, _, _ := newTestPipeline(t, filepath.Join(t.TempDir(), "missing"))

	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestPipelineTryRunWhileRunning(t *testing.T) {
	p, _, _ := newTestPipeline(t, t.TempDir())
	p.running.Lock()
	defer p.running.Unlock()

	if _, err := p.TryRun(context.Background()); !errors.Is(err, ErrIngestRunning) {
		t.Errorf("expected ErrIngestRunning, got %v", err)
	}
}

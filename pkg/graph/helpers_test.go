package graph

import (
	"context"
	"errors"
	"strings"
	"sync"

	"kgrag/pkg/ai"
	"kgrag/pkg/common"
	"kgrag/pkg/loader"
)

// wordTokenizer treats every whitespace separated word as one token.
type wordTokenizer struct {
	mu    sync.Mutex
	ids   map[string]int
	words []string
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{ids: make(map[string]int)}
}

func (t *wordTokenizer) Encode(text string) []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	fields := strings.Fields(text)
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		id, ok := t.ids[f]
		if !ok {
			id = len(t.words)
			t.ids[f] = id
			t.words = append(t.words, f)
		}
		out = append(out, id)
	}
	return out
}

func (t *wordTokenizer) Decode(tokens []int) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	words := make([]string, 0, len(tokens))
	for _, id := range tokens {
		words = append(words, t.words[id])
	}
	return strings.Join(words, " ")
}

// scriptedModel replays replies in order and records the prompts it saw.
type scriptedModel struct {
	ai.MetricsRecorder

	replies []string
	err     error
	// leading calls that fail with errUnavailable
	failures int

	prompts []string
	system  [][]string
	options []ai.GenerateOptions
}

var errUnavailable = errors.New("model unavailable")

func (m *scriptedModel) next() (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.failures > 0 {
		m.failures--
		return "", errUnavailable
	}
	if len(m.replies) == 0 {
		return "", errors.New("no scripted reply left")
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

func (m *scriptedModel) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.next()
}

func (m *scriptedModel) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	options := ai.ApplyOptions(ai.GenerateOptions{}, opts...)
	m.prompts = append(m.prompts, prompt)
	m.system = append(m.system, options.SystemPrompts)
	m.options = append(m.options, options)

	reply, err := m.next()
	if err != nil {
		return err
	}
	return ai.Decode(reply, out, options)
}

func (m *scriptedModel) LoadModel(ctx context.Context, opts ...ai.GenerateOption) error {
	return nil
}

// fakeExtractor returns records keyed by chunk text.
type fakeExtractor struct {
	records map[string][]common.RelationRecord
	failOn  string
	calls   []string
}

func (f *fakeExtractor) Extract(ctx context.Context, chunk common.Chunk) ([]common.RelationRecord, error) {
	f.calls = append(f.calls, chunk.Text)
	if f.failOn != "" && strings.Contains(chunk.Text, f.failOn) {
		return nil, errors.New("model unavailable")
	}
	return f.records[chunk.Text], nil
}

// pageMap serves pages from memory keyed by file path.
type pageMap map[string][]string

func (p pageMap) GetPages(ctx context.Context, file loader.GraphFile) ([]string, error) {
	pages, ok := p[file.FilePath]
	if !ok {
		return nil, errors.New("no such file")
	}
	return pages, nil
}

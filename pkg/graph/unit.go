package graph

import (
	"errors"
	"fmt"
	"strings"

	"kgrag/pkg/common"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pkoukk/tiktoken-go"
)

// ErrInvalidChunking is returned for a chunk size below one or an overlap
// outside [0, size).
var ErrInvalidChunking = errors.New("invalid chunk size or overlap")

// Tokenizer converts between text and token ids.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// TiktokenTokenizer is a Tokenizer backed by a tiktoken BPE encoding.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads the named encoding, e.g. "r50k_base".
func NewTiktokenTokenizer(encoding string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoding %s: %w", encoding, err)
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

func (t *TiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *TiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// Window is a half-open token range [Start, End).
type Window struct {
	Start int
	End   int
}

func validateChunking(size, overlap int) error {
	if size <= 0 || overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidChunking, size, overlap)
	}
	return nil
}

// SplitTokens returns the windows covering total tokens. Each window holds at
// most size tokens and shares overlap tokens with its predecessor. The last
// window ends at total.
func SplitTokens(total, size, overlap int) ([]Window, error) {
	if err := validateChunking(size, overlap); err != nil {
		return nil, err
	}
	if total <= 0 {
		return nil, nil
	}

	step := size - overlap
	windows := make([]Window, 0, max(1, (total-overlap+step-1)/step))
	for start := 0; ; start += step {
		end := min(start+size, total)
		windows = append(windows, Window{Start: start, End: end})
		if end == total {
			break
		}
	}
	return windows, nil
}

// ChunkDocument splits the text of one page into chunks. Text without
// anything but whitespace yields no chunks.
func ChunkDocument(
	tok Tokenizer,
	source string,
	page int,
	text string,
	size int,
	overlap int,
) ([]common.Chunk, error) {
	if err := validateChunking(size, overlap); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	tokens := tok.Encode(text)
	windows, err := SplitTokens(len(tokens), size, overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]common.Chunk, 0, len(windows))
	for _, w := range windows {
		id, err := gonanoid.New()
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, common.Chunk{
			ID:     id,
			Source: source,
			Page:   page,
			Offset: w.Start,
			Text:   tok.Decode(tokens[w.Start:w.End]),
		})
	}
	return chunks, nil
}

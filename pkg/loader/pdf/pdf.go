package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"kgrag/pkg/loader"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/singleflight"
)

// PDFGraphLoader loads PDF files and extracts their text page by page.
type PDFGraphLoader struct {
	loader loader.GraphFileLoader

	cache   map[string][]string
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewPDFGraphLoader creates a PDF loader reading raw bytes through l. A nil
// l reads through the loader of each file.
func NewPDFGraphLoader(l loader.GraphFileLoader) *PDFGraphLoader {
	return &PDFGraphLoader{
		loader: l,
		cache:  make(map[string][]string),
	}
}

// GetPages extracts the plain text of every page of a PDF file.
func (l *PDFGraphLoader) GetPages(ctx context.Context, file loader.GraphFile) ([]string, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		var (
			content []byte
			err     error
		)
		if l.loader != nil {
			content, err = l.loader.GetFileText(ctx, file)
		} else {
			content, err = file.GetContent(ctx)
		}
		if err != nil {
			return nil, err
		}

		pages, err := ParsePages(content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file.FilePath, err)
		}

		l.cacheMu.Lock()
		l.cache[key] = pages
		l.cacheMu.Unlock()

		return pages, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]string), nil
}

// ParsePages returns the plain text of each page of a PDF document.
func ParsePages(content []byte) (pages []string, err error) {
	// the parser panics on some malformed content streams
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("pdf parser: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	pages = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	return pages, nil
}

package loader

import (
	"context"
)

// GraphFile is a source document for graph construction. The actual content
// is retrieved via the associated GraphFileLoader.
type GraphFile struct {
	ID       string
	FilePath string
	Loader   GraphFileLoader
}

// NewGraphFile creates a GraphFile identified by its path.
func NewGraphFile(filePath string, l GraphFileLoader) GraphFile {
	return GraphFile{
		ID:       filePath,
		FilePath: filePath,
		Loader:   l,
	}
}

// GetContent retrieves the raw bytes of the file using its Loader.
//
// Example:
//
//	b, err := file.GetContent(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
func (f *GraphFile) GetContent(ctx context.Context) ([]byte, error) {
	return f.Loader.GetFileText(ctx, *f)
}

// GraphFileLoader defines the interface for loading the raw contents of a GraphFile.
// Implementations may load files from disk, cloud storage, or other sources.
type GraphFileLoader interface {
	GetFileText(ctx context.Context, file GraphFile) ([]byte, error)
}

// PageLoader extracts the text of a document page by page. Page i of the
// result is page i+1 of the document; pages without text are empty strings.
type PageLoader interface {
	GetPages(ctx context.Context, file GraphFile) ([]string, error)
}

// Source enumerates the documents to ingest and the loader that reads them.
type Source interface {
	Discover(ctx context.Context) ([]GraphFile, error)
}

// CacheKey identifies a file in loader caches.
func CacheKey(file GraphFile) string {
	return file.ID + ":" + file.FilePath
}

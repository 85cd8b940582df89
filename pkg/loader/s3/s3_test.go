package s3

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const listResponse = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>evidence</Name>
  <Prefix>files/</Prefix>
  <Delimiter>/</Delimiter>
  <KeyCount>4</KeyCount>
  <MaxKeys>1000</MaxKeys>
  <IsTruncated>false</IsTruncated>
  <Contents><Key>files/b.pdf</Key><Size>3</Size></Contents>
  <Contents><Key>files/a.pdf</Key><Size>3</Size></Contents>
  <Contents><Key>files/notes.txt</Key><Size>3</Size></Contents>
  <CommonPrefixes><Prefix>files/archive/</Prefix></CommonPrefixes>
</ListBucketResult>`

func newTestLoader(t *testing.T, handler http.HandlerFunc) *S3GraphFileLoader {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	l, err := NewS3GraphFileLoader(context.Background(), NewS3GraphFileLoaderParams{
		Bucket:    "evidence",
		Endpoint:  srv.URL,
		Region:    "us-east-1",
		AccessKey: "key",
		SecretKey: "secret",
	})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestListFiles(t *testing.T) {
	var query string
	l := newTestLoader(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(listResponse))
	})

	keys, err := l.ListFiles(context.Background(), "files", ".pdf")
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	if len(keys) != 2 || keys[0] != "files/a.pdf" || keys[1] != "files/b.pdf" {
		t.Errorf("unexpected keys %v", keys)
	}
	if !strings.Contains(query, "delimiter=%2F") || !strings.Contains(query, "prefix=files%2F") {
		t.Errorf("expected prefix and delimiter in query, got %s", query)
	}
}

func TestS3SourceAndGetFileText(t *testing.T) {
	l := newTestLoader(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("list-type") == "2" {
			w.Header().Set("Content-Type", "application/xml")
			_, _ = w.Write([]byte(listResponse))
			return
		}
		if r.URL.Path != "/evidence/files/a.pdf" && r.URL.Path != "/evidence/files/b.pdf" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("pdf"))
	})

	files, err := S3Source{Prefix: "files/", Ext: ".pdf", Loader: l}.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}

	content, err := files[0].GetContent(context.Background())
	if err != nil {
		t.Fatalf("GetContent() error = %v", err)
	}
	if string(content) != "pdf" {
		t.Errorf("unexpected content %q", content)
	}
}

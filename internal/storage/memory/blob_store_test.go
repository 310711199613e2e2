package memory

import (
	"context"
	"testing"
)

func TestBlobStorePutObject(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	uri, err := store.PutObject(context.Background(), "jobs/1/page.html", "text/html", []byte("<html/>"))
	if err != nil {
		t.Fatalf("PutObject() error = %v", err)
	}
	if uri != "memory://jobs/1/page.html" {
		t.Fatalf("unexpected uri %s", uri)
	}
	data, ok := store.GetObject("jobs/1/page.html")
	if !ok || string(data) != "<html/>" {
		t.Fatalf("stored content mismatch: %q ok=%v", data, ok)
	}
}

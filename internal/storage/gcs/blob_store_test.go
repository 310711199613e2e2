package gcs_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	gstorage "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/sailscout/sailscout/internal/storage/gcs"
)

func newTestStore(t *testing.T, handler http.Handler) (*gcs.BlobStore, func()) {
	t.Helper()

	server := httptest.NewServer(handler)

	client, err := gstorage.NewClient(context.Background(),
		option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)

	store, err := gcs.New(client, gcs.Config{Bucket: "test-bucket"})
	require.NoError(t, err)

	return store, server.Close
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := gcs.New(nil, gcs.Config{Bucket: "b"})
	assert.Error(t, err)

	client := &gstorage.Client{}
	_, err = gcs.New(client, gcs.Config{})
	assert.Error(t, err)
}

func TestPutObject(t *testing.T) {
	objectPath := "jobs/job-1/page.html"
	objectData := []byte("<html>archived</html>")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/upload/storage/v1/b/test-bucket/o")
		assert.Equal(t, objectPath, r.URL.Query().Get("name"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), string(objectData))

		fmt.Fprintln(w, `{ "name": "`+objectPath+`" }`)
	})

	store, cleanup := newTestStore(t, handler)
	defer cleanup()

	uri, err := store.PutObject(context.Background(), objectPath, "text/html", objectData)
	require.NoError(t, err)
	assert.Equal(t, "gs://test-bucket/"+objectPath, uri)
}

func TestPutObjectServerError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	store, cleanup := newTestStore(t, handler)
	defer cleanup()

	_, err := store.PutObject(context.Background(), "jobs/x", "text/html", []byte("data"))
	assert.Error(t, err)
}

func TestPutObjectEmptyPath(t *testing.T) {
	store, cleanup := newTestStore(t, http.NotFoundHandler())
	defer cleanup()

	_, err := store.PutObject(context.Background(), " ", "text/html", []byte("data"))
	assert.Error(t, err)
}

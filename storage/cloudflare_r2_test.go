package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"abc123"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestCloudflareR2Uploader(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	server := httptest.NewServer(fake)
	defer server.Close()

	uploader, err := NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BucketName:      "avatars",
		PublicBaseURL:   "https://cdn.example.com/",
		Endpoint:        server.URL,
	})
	require.NoError(t, err)

	result, err := uploader.Upload(context.Background(), "atleti/1/a.png", "image/png", bytes.NewReader([]byte("png-bytes")))
	require.NoError(t, err)
	assert.Equal(t, "abc123", result.ETag)
	assert.Equal(t, "https://cdn.example.com/atleti/1/a.png", result.Location)

	fake.mu.Lock()
	assert.Equal(t, []byte("png-bytes"), fake.objects["/avatars/atleti/1/a.png"])
	assert.Equal(t, "image/png", fake.types["/avatars/atleti/1/a.png"])
	fake.mu.Unlock()

	require.NoError(t, uploader.Delete(context.Background(), "atleti/1/a.png"))
	fake.mu.Lock()
	assert.Empty(t, fake.objects)
	fake.mu.Unlock()
}

func TestCloudflareR2UploaderConfig(t *testing.T) {
	_, err := NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{AccessKeyID: "k"})
	assert.Error(t, err)

	_, err = NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{
		AccessKeyID: "k", SecretAccessKey: "s", BucketName: "b", PublicBaseURL: "https://x",
	})
	assert.Error(t, err, "account id is required without an endpoint override")
}

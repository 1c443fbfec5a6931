package storage

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Storage_Validation(t *testing.T) {
	_, err := NewS3Storage(&S3Config{Bucket: "b"})
	assert.Error(t, err)

	_, err = NewS3Storage(&S3Config{Endpoint: "minio:9000"})
	assert.Error(t, err)
}

func TestS3Storage_URL(t *testing.T) {
	s, err := NewS3Storage(&S3Config{Endpoint: "http://minio:9000", Bucket: "stats", AccessKey: "a", SecretKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/stats/reports/app.json", s.URL("reports/app.json"))

	s, err = NewS3Storage(&S3Config{Endpoint: "s3.amazonaws.com", Bucket: "stats", AccessKey: "a", SecretKey: "s", UseSSL: true})
	require.NoError(t, err)
	assert.Equal(t, "https://s3.amazonaws.com/stats/x.json", s.URL("x.json"))
}

func TestIsS3NotFound(t *testing.T) {
	assert.True(t, isS3NotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isS3NotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isS3NotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isS3NotFound(io.EOF))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("a/stats.json"))
	assert.Equal(t, "application/gzip", contentType("a.tree.json.gz"))
	assert.Equal(t, "text/plain; charset=utf-8", contentType("a.folded"))
}

// Runs against a real S3-compatible service when S3_TEST_ENDPOINT is set, e.g.
// a local MinIO container with the bucket already created.
func TestS3Storage_Integration(t *testing.T) {
	endpoint := os.Getenv("S3_TEST_ENDPOINT")
	if endpoint == "" || testing.Short() {
		t.Skip("S3_TEST_ENDPOINT not set")
	}

	s, err := NewS3Storage(&S3Config{
		Endpoint:  endpoint,
		Bucket:    os.Getenv("S3_TEST_BUCKET"),
		Region:    "us-east-1",
		AccessKey: os.Getenv("S3_TEST_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_TEST_SECRET_KEY"),
	})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "it/stats.json", strings.NewReader(`{"modules":[]}`)))
	t.Cleanup(func() { s.Delete(ctx, "it/stats.json") })

	ok, err := s.Exists(ctx, "it/stats.json")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Get(ctx, "it/stats.json")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"modules":[]}`, string(data))
}

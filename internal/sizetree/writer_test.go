package sizetree

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpack-chart/internal/report"
)

func TestJSONWriter(t *testing.T) {
	tree := build(t, exampleReport())

	var buf bytes.Buffer
	require.NoError(t, NewJSONWriter().Write(tree, &buf))

	var decoded struct {
		Root struct {
			Label    string `json:"label"`
			Value    int64  `json:"value"`
			Children []struct {
				Label string `json:"label"`
			} `json:"children"`
		} `json:"root"`
		TotalSize int64 `json:"totalSize"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "/", decoded.Root.Label)
	assert.Equal(t, int64(45), decoded.Root.Value)
	assert.Len(t, decoded.Root.Children, 2)
	assert.Equal(t, int64(45), decoded.TotalSize)
	assert.Contains(t, buf.String(), `"children":[]`)
}

func TestGzipWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewGzipWriter().Write(build(t, exampleReport()), &buf))

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"label":"a"`)
}

func TestFoldedWriter(t *testing.T) {
	tree := build(t, &report.Report{Modules: []report.Module{
		{Name: "src", Size: 7},
		{Name: "src/app.js", Size: 10},
		{Name: "my lib/x;y.js", Size: 3},
		{Name: "empty.js", Size: 0},
	}})

	var buf bytes.Buffer
	require.NoError(t, NewFoldedWriter().Write(tree, &buf))
	assert.Equal(t, "src 7\nsrc;app.js 10\nmy_lib;x_y.js 3\n", buf.String())

	buf.Reset()
	require.NoError(t, NewFoldedWriter().Write(nil, &buf))
	assert.Empty(t, buf.String())
}

func TestNewWriter(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatPretty, FormatGzip, FormatZstd, FormatFolded} {
		w, err := NewWriter(f)
		require.NoError(t, err, f)
		assert.NotNil(t, w)
	}

	_, err := NewWriter("svg")
	assert.Error(t, err)
}

func TestFormat_Extension(t *testing.T) {
	assert.Equal(t, ".tree.json", FormatJSON.Extension())
	assert.Equal(t, ".tree.json", FormatPretty.Extension())
	assert.Equal(t, ".tree.json.gz", FormatGzip.Extension())
	assert.Equal(t, ".tree.json.zst", FormatZstd.Extension())
	assert.Equal(t, ".folded", FormatFolded.Extension())
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats"+FormatFolded.Extension())

	res, err := WriteFile(NewFoldedWriter(), build(t, exampleReport()), path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a;c 30\na;b 10\nd 5\n", string(data))
	assert.Equal(t, int64(len(data)), res.Bytes)
}

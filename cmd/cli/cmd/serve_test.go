package cmd

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpack-chart/pkg/utils"
)

func TestNewViewer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Type = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "viewer.db")

	server, cleanup, err := newViewer(context.Background(), cfg, false, &utils.NullLogger{})
	require.NoError(t, err)
	defer cleanup()

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/reports")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"reports":[],"count":0}`, string(body))
}

func TestNewViewer_InvalidStyle(t *testing.T) {
	cfg := testConfig(t)
	cfg.Chart.Style = "neon"

	_, _, err := newViewer(context.Background(), cfg, false, &utils.NullLogger{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown chart style")
}

func TestNewLogger(t *testing.T) {
	log, err := newLogger(testConfig(t).Log, true)
	require.NoError(t, err)
	assert.NotNil(t, log)

	path := filepath.Join(t.TempDir(), "logs", "chart.log")
	log, err = newLogger(configLog("warn", path), false)
	require.NoError(t, err)
	log.Warn("written")
	assert.FileExists(t, path)
}

package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpack-chart/pkg/config"
)

func configLog(level, path string) config.LogConfig {
	return config.LogConfig{Level: level, OutputPath: path}
}

func TestVersionCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "version "+Version)
	assert.Contains(t, out.String(), "Go Version:")
	assert.NotNil(t, GetConfig())
}

func TestGetConfig_DefaultsBeforeLoad(t *testing.T) {
	saved := appConfig
	appConfig = nil
	t.Cleanup(func() { appConfig = saved })

	assert.Equal(t, 8080, GetConfig().Server.Port)
}

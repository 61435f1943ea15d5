package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir is a stand-in for t.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestSetup(t *testing.T) {
	chdir(t, t.TempDir())

	logger, err := Setup(false)
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Info("hello")
	logger.Debug("details")
	// Sync can fail on stderr depending on the platform; the file sink
	// is what matters here.
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join("log", "rainman2.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	// The file sink records debug output even when the console does
	// not.
	assert.Contains(t, string(data), "details")
}

func TestNop(t *testing.T) {
	assert.NotNil(t, Nop())
}

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesRedactedLogFile(t *testing.T) {
	dir := t.TempDir()

	closeFile, err := Setup(Options{Dir: dir, Secrets: []string{"super-secret"}})
	require.NoError(t, err)

	log.Info().Str("token", "super-secret").Msg("Connecting to raindrop")
	closeFile()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "raintag_"))
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".log"))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[REDACTED]")
	assert.NotContains(t, string(data), "super-secret")
	assert.Contains(t, string(data), "Connecting to raindrop")
}

func TestSetupWithoutDirSkipsFile(t *testing.T) {
	closeFile, err := Setup(Options{})
	require.NoError(t, err)
	require.NotNil(t, closeFile)
	closeFile()
}

func TestSetupCreatesMissingLogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	closeFile, err := Setup(Options{Dir: dir})
	require.NoError(t, err)
	defer closeFile()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

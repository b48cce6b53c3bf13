package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// GoldenUpdateEnv names the environment variable that rewrites golden files.
const GoldenUpdateEnv = "TODOSYNC_GOLDEN_UPDATE"

// Golden compares got with testdata/<name>.golden in the calling package.
// With TODOSYNC_GOLDEN_UPDATE set, the file is rewritten from got instead.
func Golden(t testing.TB, name, got string) {
	t.Helper()

	path := filepath.Join("testdata", name+".golden")

	if os.Getenv(GoldenUpdateEnv) != "" {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(got), 0o644))
		return
	}

	want, err := os.ReadFile(path)
	require.NoError(t, err, "missing golden file; rerun with %s=1", GoldenUpdateEnv)

	// Checkouts on Windows may turn the files into CRLF.
	assert.Equal(t, strings.ReplaceAll(string(want), "\r\n", "\n"), got, "output mismatch for %s", name)
}

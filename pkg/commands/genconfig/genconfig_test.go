package genconfig

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/changepack/pkg/config"
	"github.com/arthur-debert/changepack/pkg/testutil"
)

func TestGenConfig(t *testing.T) {
	t.Run("output to stdout", func(t *testing.T) {
		env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)

		result, err := GenConfig(Options{Root: env.Root, FS: env.FS})
		require.NoError(t, err)
		assert.Empty(t, result.FilesWritten)
		assert.Contains(t, result.ConfigContent, "[packaging]")
		assert.Contains(t, result.ConfigContent, `# pointer_suffix = ".refresh"`)

		for _, line := range strings.Split(result.ConfigContent, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") ||
				(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
				continue
			}
			assert.Fail(t, "Found uncommented configuration line", "Line: %s", line)
		}
	})

	t.Run("write to root", func(t *testing.T) {
		env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)

		result, err := GenConfig(Options{Root: env.Root, FS: env.FS, Write: true})
		require.NoError(t, err)
		configPath := filepath.Join(env.Root, ".changepack.toml")
		assert.Equal(t, []string{configPath}, result.FilesWritten)
		assert.Contains(t, env.ReadFile(configPath), "# kind = \"tfvc\"")
	})

	t.Run("skip existing config file", func(t *testing.T) {
		env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
		configPath := env.WriteRoot(".changepack.toml", "# existing config")

		result, err := GenConfig(Options{Root: env.Root, FS: env.FS, Write: true})
		require.NoError(t, err)
		assert.Empty(t, result.FilesWritten)
		assert.Equal(t, "# existing config", env.ReadFile(configPath))
	})

	t.Run("effective configuration", func(t *testing.T) {
		env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
		cfg, err := config.Default()
		require.NoError(t, err)
		cfg.Backend.Token = "secret"

		result, err := GenConfig(Options{Root: env.Root, FS: env.FS, Effective: cfg})
		require.NoError(t, err)
		assert.NotContains(t, result.ConfigContent, "secret")
		assert.Contains(t, result.ConfigContent, "<redacted>")
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/changepack/pkg/errors"
)

func noUserConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.toml")
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, BackendTFVC, cfg.Backend.Kind)
	assert.Equal(t, "7.1", cfg.Backend.APIVersion)
	assert.Equal(t, 60*time.Second, cfg.Backend.Timeout.Std())
	assert.Equal(t, 100, cfg.Backend.PageSize)
	assert.Equal(t, ".refresh", cfg.Packaging.PointerSuffix)
	assert.Equal(t, 8, cfg.Packaging.CompressionLevel)
	assert.Equal(t, ".zip", cfg.Packaging.DeploySuffix)
	assert.Equal(t, "_rollback.zip", cfg.Packaging.BackupSuffix)
	assert.Empty(t, cfg.Packaging.Exclude)
	assert.True(t, cfg.Packaging.Manifest)
	assert.True(t, cfg.Verify.Enabled)
	assert.Equal(t, 65536, cfg.Verify.DiffMaxBytes)
}

func TestLoad_Layers(t *testing.T) {
	t.Run("root_config_overrides_defaults", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, ".changepack.toml"), []byte(`
[backend]
url = "https://tfs.example.com/tfs/DefaultCollection"
timeout = "5s"

[packaging]
exclude = ["/Tests/", "web.Debug.config"]
compression_level = 6

[[workspace.mappings]]
server = "$/Shop/Main"
local = "."

[[workspace.mappings]]
server = "$/Shop/Main/Docs"
cloak = true
`), 0644))

		cfg, err := Load(LoadOptions{Root: root, UserConfigPath: noUserConfig(t)})
		require.NoError(t, err)

		assert.Equal(t, "https://tfs.example.com/tfs/DefaultCollection", cfg.Backend.URL)
		assert.Equal(t, 5*time.Second, cfg.Backend.Timeout.Std())
		assert.Equal(t, []string{"/Tests/", "web.Debug.config"}, cfg.Packaging.Exclude)
		assert.Equal(t, 6, cfg.Packaging.CompressionLevel)
		require.Len(t, cfg.Workspace.Mappings, 2)
		assert.Equal(t, Mapping{Server: "$/Shop/Main", Local: "."}, cfg.Workspace.Mappings[0])
		assert.True(t, cfg.Workspace.Mappings[1].Cloak)

		// untouched values keep their defaults
		assert.Equal(t, ".refresh", cfg.Packaging.PointerSuffix)
	})

	t.Run("user_config_is_below_root_config", func(t *testing.T) {
		root := t.TempDir()
		userPath := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(userPath, []byte(`
[backend]
url = "https://user.example.com"
project = "Shop"
`), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(root, "changepack.toml"), []byte(`
[backend]
url = "https://root.example.com"
`), 0644))

		cfg, err := Load(LoadOptions{Root: root, UserConfigPath: userPath})
		require.NoError(t, err)
		assert.Equal(t, "https://root.example.com", cfg.Backend.URL)
		assert.Equal(t, "Shop", cfg.Backend.Project)
	})

	t.Run("env_overrides_files", func(t *testing.T) {
		t.Setenv("CHANGEPACK_BACKEND_TOKEN", "secret")
		t.Setenv("CHANGEPACK_PACKAGING_POINTER_SUFFIX", ".link")
		t.Setenv("CHANGEPACK_PACKAGING_EXCLUDE", "obj/, .pdb")

		cfg, err := Load(LoadOptions{UserConfigPath: noUserConfig(t)})
		require.NoError(t, err)
		assert.Equal(t, "secret", cfg.Backend.Token)
		assert.Equal(t, ".link", cfg.Packaging.PointerSuffix)
		assert.Equal(t, []string{"obj/", ".pdb"}, cfg.Packaging.Exclude)
	})

	t.Run("overrides_win", func(t *testing.T) {
		t.Setenv("CHANGEPACK_BACKEND_KIND", "tfvc")

		cfg, err := Load(LoadOptions{
			UserConfigPath: noUserConfig(t),
			Overrides: map[string]interface{}{
				"backend.kind":       "mirror",
				"backend.mirror_dir": "/srv/export",
				"packaging.exclude":  []string{"a", "b"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, BackendMirror, cfg.Backend.Kind)
		assert.Equal(t, "/srv/export", cfg.Backend.MirrorDir)
		assert.Equal(t, []string{"a", "b"}, cfg.Packaging.Exclude)
	})

	t.Run("explicit_config_file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ci.toml")
		require.NoError(t, os.WriteFile(path, []byte("[verify]\nenabled = false\n"), 0644))

		cfg, err := Load(LoadOptions{UserConfigPath: noUserConfig(t), ConfigFile: path})
		require.NoError(t, err)
		assert.False(t, cfg.Verify.Enabled)
	})

	t.Run("broken_toml_is_a_parse_error", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, ".changepack.toml"), []byte("[backend\nurl="), 0644))

		_, err := Load(LoadOptions{Root: root, UserConfigPath: noUserConfig(t)})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse))
	})
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "backend.api_version", envKey("CHANGEPACK_BACKEND_API_VERSION"))
	assert.Equal(t, "verify.enabled", envKey("CHANGEPACK_VERIFY_ENABLED"))
}

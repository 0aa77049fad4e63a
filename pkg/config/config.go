package config

import (
	"time"
)

// Backend kinds
const (
	BackendTFVC   = "tfvc"
	BackendMirror = "mirror"
)

// Config is the complete changepack configuration
type Config struct {
	Backend   Backend   `koanf:"backend" toml:"backend"`
	Workspace Workspace `koanf:"workspace" toml:"workspace"`
	Packaging Packaging `koanf:"packaging" toml:"packaging"`
	Verify    Verify    `koanf:"verify" toml:"verify"`
}

// Backend selects and configures the version-control backend
type Backend struct {
	Kind       string   `koanf:"kind" toml:"kind"`
	URL        string   `koanf:"url" toml:"url"`
	Project    string   `koanf:"project" toml:"project"`
	Token      string   `koanf:"token" toml:"token"`
	APIVersion string   `koanf:"api_version" toml:"api_version"`
	Timeout    Duration `koanf:"timeout" toml:"timeout"`
	PageSize   int      `koanf:"page_size" toml:"page_size"`
	MirrorDir  string   `koanf:"mirror_dir" toml:"mirror_dir"`
}

// Workspace describes the local deployment root and its working folders
type Workspace struct {
	Root       string    `koanf:"root" toml:"root"`
	ServerRoot string    `koanf:"server_root" toml:"server_root"`
	Mappings   []Mapping `koanf:"mappings" toml:"mappings"`
}

// Mapping maps a server folder to a local folder
type Mapping struct {
	Server string `koanf:"server" toml:"server"`
	Local  string `koanf:"local" toml:"local"`
	Cloak  bool   `koanf:"cloak" toml:"cloak"`
}

// Packaging controls how archives and scripts are produced
type Packaging struct {
	Exclude            []string `koanf:"exclude" toml:"exclude"`
	ExcludeGlobs       []string `koanf:"exclude_globs" toml:"exclude_globs"`
	PointerSuffix      string   `koanf:"pointer_suffix" toml:"pointer_suffix"`
	CompressionLevel   int      `koanf:"compression_level" toml:"compression_level"`
	OutputDir          string   `koanf:"output_dir" toml:"output_dir"`
	DeploySuffix       string   `koanf:"deploy_suffix" toml:"deploy_suffix"`
	BackupSuffix       string   `koanf:"backup_suffix" toml:"backup_suffix"`
	DeleteScriptSuffix string   `koanf:"delete_script_suffix" toml:"delete_script_suffix"`
	ManifestSuffix     string   `koanf:"manifest_suffix" toml:"manifest_suffix"`
	DeleteCommand      string   `koanf:"delete_command" toml:"delete_command"`
	Manifest           bool     `koanf:"manifest" toml:"manifest"`
}

// Verify controls backup verification
type Verify struct {
	Enabled      bool `koanf:"enabled" toml:"enabled"`
	DiffMaxBytes int  `koanf:"diff_max_bytes" toml:"diff_max_bytes"`
}

// Duration is a time.Duration that reads and writes as "60s" in TOML
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

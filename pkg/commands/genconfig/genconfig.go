// Package genconfig prints or writes a starting configuration file.
package genconfig

import (
	"path/filepath"

	"github.com/arthur-debert/changepack/pkg/config"
	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/logging"
	"github.com/arthur-debert/changepack/pkg/types"
)

// Options holds options for the genconfig command
type Options struct {
	// Root is the deployment root the config file is written to
	Root  string
	Write bool
	// Effective renders this loaded configuration instead of the commented
	// defaults
	Effective *config.Config
	FS        types.FS
}

// Result holds the generated content and the files written
type Result struct {
	ConfigContent string   `json:"configContent"`
	FilesWritten  []string `json:"filesWritten"`
}

// GenConfig outputs or writes the configuration
func GenConfig(opts Options) (*Result, error) {
	logger := logging.GetLogger("commands.genconfig")

	content := config.GenerateConfigContent()
	if opts.Effective != nil {
		var err error
		if content, err = config.GenerateEffective(opts.Effective); err != nil {
			return nil, err
		}
	}

	result := &Result{ConfigContent: content, FilesWritten: []string{}}
	if !opts.Write {
		logger.Debug().Msg("Outputting config to stdout")
		return result, nil
	}

	targetPath := filepath.Join(opts.Root, config.RootConfigFiles[0])
	if _, err := opts.FS.Stat(targetPath); err == nil {
		logger.Warn().Str("path", targetPath).Msg("Config file already exists, skipping")
		return result, nil
	}
	if err := opts.FS.MkdirAll(opts.Root, 0755); err != nil {
		return result, errors.Wrapf(err, errors.ErrDirCreate, "failed to create directory %s", opts.Root)
	}
	if err := opts.FS.WriteFile(targetPath, []byte(content), 0644); err != nil {
		return result, errors.Wrapf(err, errors.ErrFileWrite, "failed to write config to %s", targetPath)
	}

	logger.Info().Str("path", targetPath).Msg("Written config file")
	result.FilesWritten = append(result.FilesWritten, targetPath)
	return result, nil
}

package config

import (
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/changepack/pkg/errors"
)

// GenerateConfigContent returns the embedded defaults with every value
// commented out, ready to be saved as a starting config file
func GenerateConfigContent() string {
	return commentOutConfigValues(GetDefaultsContent())
}

// GenerateEffective renders a loaded configuration as TOML. The token is
// never written out.
func GenerateEffective(cfg *Config) (string, error) {
	redacted := *cfg
	if redacted.Backend.Token != "" {
		redacted.Backend.Token = "<redacted>"
	}
	out, err := toml.Marshal(redacted)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to render configuration")
	}
	return string(out), nil
}

// commentOutConfigValues takes the TOML content and comments out all non-comment, non-blank lines
// that contain configuration values (assignments)
func commentOutConfigValues(content string) string {
	lines := strings.Split(content, "\n")
	var result []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			result = append(result, line)
			continue
		}

		if strings.HasPrefix(trimmed, "#") {
			result = append(result, line)
			continue
		}

		// Keep section headers (e.g., [backend], [packaging]) as-is
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			result = append(result, line)
			continue
		}

		result = append(result, "# "+line)
	}

	return strings.Join(result, "\n")
}

package branches

import (
	"strings"

	"github.com/temirov/prunebranch/internal/repository"
)

const (
	configurationBackendKeyConstant    = "backend"
	configurationRepositoryKeyConstant = "repository"
	configurationForceKeyConstant      = "force"
	configurationAccessibleKeyConstant = "accessible"
	configurationColorKeyConstant      = "color"
	configurationKeySeparatorConstant  = "."
	defaultRepositoryPathConstant      = "."
)

// CommandConfiguration captures configuration values for the prune command.
type CommandConfiguration struct {
	Backend    repository.Backend `mapstructure:"backend"`
	Repository string             `mapstructure:"repository"`
	Force      bool               `mapstructure:"force"`
	Accessible bool               `mapstructure:"accessible"`
	Color      bool               `mapstructure:"color"`
}

// DefaultCommandConfiguration provides baseline configuration values for the prune command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Backend:    repository.BackendGoGit,
		Repository: defaultRepositoryPathConstant,
		Force:      false,
		Accessible: false,
		Color:      true,
	}
}

// DefaultConfigurationValues returns the defaults keyed for Viper under configurationPrefix.
func DefaultConfigurationValues(configurationPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefixedKey(configurationPrefix, configurationBackendKeyConstant):    string(defaults.Backend),
		prefixedKey(configurationPrefix, configurationRepositoryKeyConstant): defaults.Repository,
		prefixedKey(configurationPrefix, configurationForceKeyConstant):      defaults.Force,
		prefixedKey(configurationPrefix, configurationAccessibleKeyConstant): defaults.Accessible,
		prefixedKey(configurationPrefix, configurationColorKeyConstant):      defaults.Color,
	}
}

// sanitize trims configuration values and restores defaults for blank entries.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.Backend = repository.Backend(strings.ToLower(strings.TrimSpace(string(configuration.Backend))))
	if len(sanitized.Backend) == 0 {
		sanitized.Backend = repository.BackendGoGit
	}

	sanitized.Repository = strings.TrimSpace(configuration.Repository)
	if len(sanitized.Repository) == 0 {
		sanitized.Repository = defaultRepositoryPathConstant
	}

	return sanitized
}

func prefixedKey(configurationPrefix string, key string) string {
	trimmedPrefix := strings.TrimSpace(configurationPrefix)
	if len(trimmedPrefix) == 0 {
		return key
	}
	return trimmedPrefix + configurationKeySeparatorConstant + key
}

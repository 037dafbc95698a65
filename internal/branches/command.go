package branches

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/prunebranch/internal/execshell"
	"github.com/temirov/prunebranch/internal/prompt"
	"github.com/temirov/prunebranch/internal/repository"
	"github.com/temirov/prunebranch/internal/ui"
)

const (
	commandUseConstant                    = "prunebranch"
	commandShortDescriptionConstant       = "Interactively select and delete local Git branches"
	commandLongDescriptionConstant        = "prunebranch lists the local branches of the current repository except the checked-out one, lets you pick several, asks once for confirmation, and deletes them one by one."
	commandExecutionErrorTemplateConstant = "branch pruning failed: %w"
	repositoryOpenErrorTemplateConstant   = "unable to open repository: %w"
	unexpectedArgumentsMessageConstant    = "prunebranch does not accept positional arguments"
	repositoryOpenedMessageConstant       = "repository opened"
	logFieldBackendConstant               = "backend"
	logFieldRepositoryPathConstant        = "repository_path"
	flagBackendNameConstant               = "backend"
	flagBackendDescriptionConstant        = "Repository backend: gogit (built-in) or cli (git executable)"
	flagRepositoryNameConstant            = "repository"
	flagRepositoryShorthandConstant       = "C"
	flagRepositoryDescriptionConstant     = "Path inside the repository to prune"
	flagForceNameConstant                 = "force"
	flagForceDescriptionConstant          = "With the cli backend, delete branches even when Git reports them as unmerged"
	flagAccessibleNameConstant            = "accessible"
	flagAccessibleDescriptionConstant     = "Use line-based prompts instead of the full-screen list"
	flagNoColorNameConstant               = "no-color"
	flagNoColorDescriptionConstant        = "Disable colored result markers"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the loaded prune configuration.
type ConfigurationProvider func() CommandConfiguration

// HumanReadableLoggingProvider reports whether console logging is active.
type HumanReadableLoggingProvider func() bool

// RepositoryOpener opens a repository handle.
type RepositoryOpener func(executionContext context.Context, options repository.Options) (repository.Handle, error)

// SelectorFactory builds the interactive selector.
type SelectorFactory func(options prompt.Options) Selector

// CommandBuilder assembles the Cobra command for branch pruning.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider HumanReadableLoggingProvider
	RepositoryOpener             RepositoryOpener
	SelectorFactory              SelectorFactory
}

// Build constructs the prunebranch command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(flagBackendNameConstant, "", flagBackendDescriptionConstant)
	command.Flags().StringP(flagRepositoryNameConstant, flagRepositoryShorthandConstant, "", flagRepositoryDescriptionConstant)
	command.Flags().Bool(flagForceNameConstant, false, flagForceDescriptionConstant)
	command.Flags().Bool(flagAccessibleNameConstant, false, flagAccessibleDescriptionConstant)
	command.Flags().Bool(flagNoColorNameConstant, false, flagNoColorDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	configuration, configurationError := builder.resolveConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	executionContext := command.Context()
	if executionContext == nil {
		executionContext = context.Background()
	}

	logger := builder.resolveLogger()
	gitRepository, openError := builder.openRepository(executionContext, configuration, logger)
	if openError != nil {
		return fmt.Errorf(repositoryOpenErrorTemplateConstant, openError)
	}
	logger.Info(repositoryOpenedMessageConstant,
		zap.String(logFieldBackendConstant, string(configuration.Backend)),
		zap.String(logFieldRepositoryPathConstant, configuration.Repository),
	)

	service, serviceError := NewService(ServiceDependencies{
		Logger:   logger,
		Selector: builder.resolveSelector(command, configuration),
		Reporter: NewReporter(command.OutOrStdout(), command.ErrOrStderr(), configuration.Color),
	})
	if serviceError != nil {
		return serviceError
	}

	if _, runError := service.Run(executionContext, gitRepository); runError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, runError)
	}

	return nil
}

// resolveConfiguration layers explicitly set flags over the loaded configuration.
func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) (CommandConfiguration, error) {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	flagSet := command.Flags()
	if flagSet.Changed(flagBackendNameConstant) {
		backendValue, _ := flagSet.GetString(flagBackendNameConstant)
		var backend repository.Backend
		if backendError := backend.UnmarshalText([]byte(backendValue)); backendError != nil {
			return CommandConfiguration{}, backendError
		}
		configuration.Backend = backend
	}
	if flagSet.Changed(flagRepositoryNameConstant) {
		configuration.Repository, _ = flagSet.GetString(flagRepositoryNameConstant)
	}
	if flagSet.Changed(flagForceNameConstant) {
		configuration.Force, _ = flagSet.GetBool(flagForceNameConstant)
	}
	if flagSet.Changed(flagAccessibleNameConstant) {
		configuration.Accessible, _ = flagSet.GetBool(flagAccessibleNameConstant)
	}
	if flagSet.Changed(flagNoColorNameConstant) {
		noColor, _ := flagSet.GetBool(flagNoColorNameConstant)
		configuration.Color = !noColor
	}

	return configuration.sanitize(), nil
}

func (builder *CommandBuilder) openRepository(executionContext context.Context, configuration CommandConfiguration, logger *zap.Logger) (repository.Handle, error) {
	opener := builder.RepositoryOpener
	if opener == nil {
		opener = repository.Open
	}

	var eventsObserver execshell.CommandEventObserver
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		eventsObserver = ui.NewConsoleCommandEventLogger(logger)
	}

	return opener(executionContext, repository.Options{
		Backend:        configuration.Backend,
		Path:           strings.TrimSpace(configuration.Repository),
		ForceDelete:    configuration.Force,
		Logger:         logger,
		EventsObserver: eventsObserver,
	})
}

func (builder *CommandBuilder) resolveSelector(command *cobra.Command, configuration CommandConfiguration) Selector {
	selectorOptions := prompt.Options{
		Input:      command.InOrStdin(),
		Output:     command.OutOrStdout(),
		Accessible: configuration.Accessible,
	}
	if builder.SelectorFactory != nil {
		return builder.SelectorFactory(selectorOptions)
	}
	return prompt.NewHuhSelector(selectorOptions)
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

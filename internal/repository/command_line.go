package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/prunebranch/internal/execshell"
)

const (
	gitRevParseSubcommandConstant            = "rev-parse"
	gitShowTopLevelFlagConstant              = "--show-toplevel"
	gitForEachRefSubcommandConstant          = "for-each-ref"
	// refname:short would print heads/<name> when a tag shares the name.
	gitBranchNameFormatConstant              = "--format=%(refname:lstrip=2)"
	gitLocalBranchNamespaceConstant          = "refs/heads/"
	gitSymbolicRefSubcommandConstant         = "symbolic-ref"
	gitQuietFlagConstant                     = "--quiet"
	gitShortFlagConstant                     = "--short"
	gitHeadReferenceConstant                 = "HEAD"
	gitBranchSubcommandConstant              = "branch"
	gitDeleteFlagConstant                    = "--delete"
	gitForceFlagConstant                     = "--force"
	gitTerminalPromptEnvironmentNameConstant = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValueConstant   = "0"
	localeEnvironmentNameConstant            = "LC_ALL"
	localeEnvironmentValueConstant           = "C"
	symbolicRefDetachedExitCodeConstant      = 1
	branchNotFoundStandardErrorMarker        = "not found"
	branchCheckedOutStandardErrorMarker      = "checked out"
	branchWorktreeStandardErrorMarker        = "used by worktree"
	standardErrorErrorPrefixConstant         = "error: "
	locateRepositoryErrorTemplateConstant    = "unable to locate repository from %s: %w"
	notARepositoryDetailsTemplateConstant    = "%w: %s (%s)"
	rejectedDeletionTemplateConstant         = "%w: %s"
	commandLineListErrorTemplateConstant     = "unable to list local branches: %w"
	commandLineHeadErrorTemplateConstant     = "unable to read HEAD: %w"
	commandLineDeleteErrorTemplateConstant   = "unable to delete branch %q: %w"
)

// GitExecutor runs git commands for the command-line backend.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// CommandLineRepository implements the branch operations by invoking the git executable.
type CommandLineRepository struct {
	executor    GitExecutor
	rootPath    string
	forceDelete bool
}

// OpenCommandLineRepository resolves the repository root enclosing path using git rev-parse.
func OpenCommandLineRepository(executionContext context.Context, executor GitExecutor, path string, forceDelete bool) (*CommandLineRepository, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}

	executionResult, executionError := executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitRevParseSubcommandConstant, gitShowTopLevelFlagConstant},
		WorkingDirectory:     path,
		EnvironmentVariables: gitEnvironment(),
	})
	if executionError != nil {
		var failedError execshell.CommandFailedError
		if errors.As(executionError, &failedError) {
			return nil, fmt.Errorf(notARepositoryDetailsTemplateConstant, ErrNotARepository, path, trimStandardError(failedError.Result.StandardError))
		}
		return nil, fmt.Errorf(locateRepositoryErrorTemplateConstant, path, executionError)
	}

	return &CommandLineRepository{
		executor:    executor,
		rootPath:    strings.TrimSpace(executionResult.StandardOutput),
		forceDelete: forceDelete,
	}, nil
}

// RootPath reports the repository top-level directory.
func (commandLineRepository *CommandLineRepository) RootPath() string {
	return commandLineRepository.rootPath
}

// ListLocalBranches returns local branch names in for-each-ref order.
func (commandLineRepository *CommandLineRepository) ListLocalBranches(executionContext context.Context) ([]string, error) {
	executionResult, executionError := commandLineRepository.executeGit(executionContext, gitForEachRefSubcommandConstant, gitBranchNameFormatConstant, gitLocalBranchNamespaceConstant)
	if executionError != nil {
		return nil, fmt.Errorf(commandLineListErrorTemplateConstant, executionError)
	}

	branchNames := make([]string, 0)
	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		trimmedLine := strings.TrimSpace(outputLine)
		if len(trimmedLine) == 0 {
			continue
		}
		branchNames = append(branchNames, trimmedLine)
	}
	return branchNames, nil
}

// CurrentBranch returns the branch HEAD points at, or DetachedHeadSentinel when HEAD is detached.
func (commandLineRepository *CommandLineRepository) CurrentBranch(executionContext context.Context) (string, error) {
	executionResult, executionError := commandLineRepository.executeGit(executionContext, gitSymbolicRefSubcommandConstant, gitQuietFlagConstant, gitShortFlagConstant, gitHeadReferenceConstant)
	if executionError != nil {
		var failedError execshell.CommandFailedError
		if errors.As(executionError, &failedError) && failedError.Result.ExitCode == symbolicRefDetachedExitCodeConstant {
			return DetachedHeadSentinel, nil
		}
		return "", fmt.Errorf(commandLineHeadErrorTemplateConstant, executionError)
	}

	currentBranch := strings.TrimSpace(executionResult.StandardOutput)
	if len(currentBranch) == 0 {
		return DetachedHeadSentinel, nil
	}
	return currentBranch, nil
}

// DeleteBranch runs git branch --delete, adding --force when configured.
func (commandLineRepository *CommandLineRepository) DeleteBranch(executionContext context.Context, branchName string) error {
	arguments := []string{gitBranchSubcommandConstant, gitDeleteFlagConstant}
	if commandLineRepository.forceDelete {
		arguments = append(arguments, gitForceFlagConstant)
	}
	arguments = append(arguments, branchName)

	_, executionError := commandLineRepository.executeGit(executionContext, arguments...)
	if executionError == nil {
		return nil
	}

	var failedError execshell.CommandFailedError
	if !errors.As(executionError, &failedError) {
		return fmt.Errorf(commandLineDeleteErrorTemplateConstant, branchName, executionError)
	}

	return classifyDeletionFailure(trimStandardError(failedError.Result.StandardError))
}

func (commandLineRepository *CommandLineRepository) executeGit(executionContext context.Context, arguments ...string) (execshell.ExecutionResult, error) {
	return commandLineRepository.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     commandLineRepository.rootPath,
		EnvironmentVariables: gitEnvironment(),
	})
}

func classifyDeletionFailure(standardError string) error {
	loweredStandardError := strings.ToLower(standardError)
	switch {
	case strings.Contains(loweredStandardError, branchNotFoundStandardErrorMarker):
		return fmt.Errorf(rejectedDeletionTemplateConstant, ErrBranchNotFound, standardError)
	case strings.Contains(loweredStandardError, branchCheckedOutStandardErrorMarker),
		strings.Contains(loweredStandardError, branchWorktreeStandardErrorMarker):
		return fmt.Errorf(rejectedDeletionTemplateConstant, ErrBranchCheckedOut, standardError)
	default:
		return fmt.Errorf(rejectedDeletionTemplateConstant, ErrBranchDeletionRejected, standardError)
	}
}

// trimStandardError keeps the first diagnostic line without git's "error: " prefix.
func trimStandardError(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if newlineIndex := strings.Index(trimmedStandardError, "\n"); newlineIndex >= 0 {
		trimmedStandardError = strings.TrimSpace(trimmedStandardError[:newlineIndex])
	}
	return strings.TrimPrefix(trimmedStandardError, standardErrorErrorPrefixConstant)
}

func gitEnvironment() map[string]string {
	return map[string]string{
		gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptDisabledValueConstant,
		localeEnvironmentNameConstant:            localeEnvironmentValueConstant,
	}
}

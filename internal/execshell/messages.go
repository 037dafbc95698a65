package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	gitRevParseSubcommandNameConstant    = "rev-parse"
	gitShowTopLevelFlagConstant          = "--show-toplevel"
	gitForEachRefSubcommandNameConstant  = "for-each-ref"
	gitSymbolicRefSubcommandNameConstant = "symbolic-ref"
	gitBranchSubcommandNameConstant      = "branch"
	gitDeleteFlagConstant                = "--delete"
	gitForceFlagConstant                 = "--force"
)

const (
	gitTopLevelStartTemplateConstant                  = "Locating repository root from %s"
	gitTopLevelSuccessTemplateConstant                = "Located repository root from %s"
	gitTopLevelFailureTemplateConstant                = "Could not locate a repository from %s (exit code %d%s)"
	gitTopLevelExecutionFailureTemplateConstant       = "Unable to locate a repository from %s: %s"
	gitForEachRefStartTemplateConstant                = "Listing local branches in %s"
	gitForEachRefSuccessTemplateConstant              = "Listed local branches in %s"
	gitForEachRefFailureTemplateConstant              = "Failed to list local branches in %s (exit code %d%s)"
	gitForEachRefExecutionFailureTemplateConstant     = "Unable to list local branches in %s: %s"
	gitCurrentBranchStartTemplateConstant             = "Identifying current branch in %s"
	gitCurrentBranchSuccessTemplateConstant           = "Identified current branch in %s"
	gitCurrentBranchDetachedTemplateConstant          = "%s is in a detached HEAD state"
	gitCurrentBranchExecutionFailureTemplateConstant  = "Unable to identify current branch in %s: %s"
	gitBranchDeletionStartTemplateConstant            = "Removing local branch %s in %s"
	gitBranchForceDeletionStartTemplateConstant       = "Force removing local branch %s in %s"
	gitBranchDeletionSuccessTemplateConstant          = "Removed local branch %s in %s"
	gitBranchDeletionFailureTemplateConstant          = "Failed to remove local branch %s in %s (exit code %d%s)"
	gitBranchDeletionExecutionFailureTemplateConstant = "Unable to remove local branch %s in %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(command.Details.Arguments[0])
	switch subcommand {
	case gitRevParseSubcommandNameConstant:
		if containsArgument(command.Details.Arguments, gitShowTopLevelFlagConstant) {
			return formatter.describeGitTopLevelMessage(command, result, failure, stage)
		}
	case gitForEachRefSubcommandNameConstant:
		return formatter.describeGitForEachRefMessage(command, result, failure, stage)
	case gitSymbolicRefSubcommandNameConstant:
		return formatter.describeGitCurrentBranchMessage(command, result, failure, stage)
	case gitBranchSubcommandNameConstant:
		if containsArgument(command.Details.Arguments, gitDeleteFlagConstant) {
			return formatter.describeGitBranchDeletionMessage(command, result, failure, stage)
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitTopLevelMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitTopLevelStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitTopLevelSuccessTemplateConstant, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitTopLevelFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitTopLevelExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitForEachRefMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitForEachRefStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitForEachRefSuccessTemplateConstant, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitForEachRefFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitForEachRefExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	}
}

// symbolic-ref --quiet exits with code 1 and no output when HEAD is detached.
func (formatter CommandMessageFormatter) describeGitCurrentBranchMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitCurrentBranchStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitCurrentBranchSuccessTemplateConstant, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitCurrentBranchDetachedTemplateConstant, workingDirectory)
	default:
		return fmt.Sprintf(gitCurrentBranchExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitBranchDeletionMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)
	branchName := formatter.ensureValue(formatter.extractBranchName(arguments))

	switch stage {
	case messageStageStart:
		if containsArgument(arguments, gitForceFlagConstant) {
			return fmt.Sprintf(gitBranchForceDeletionStartTemplateConstant, branchName, workingDirectory)
		}
		return fmt.Sprintf(gitBranchDeletionStartTemplateConstant, branchName, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitBranchDeletionSuccessTemplateConstant, branchName, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitBranchDeletionFailureTemplateConstant, branchName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitBranchDeletionExecutionFailureTemplateConstant, branchName, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	workingDirectorySuffix := formatter.formatWorkingDirectorySuffix(command)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) extractBranchName(arguments []string) string {
	for index := len(arguments) - 1; index >= 0; index-- {
		argument := strings.TrimSpace(arguments[index])
		if len(argument) == 0 {
			continue
		}
		if strings.HasPrefix(argument, "-") {
			continue
		}
		return argument
	}
	return emptyStringConstant
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/prunebranch/internal/execshell"
)

const (
	unsupportedBackendTemplateConstant = "%w: %q"
	defaultRepositoryPathConstant      = "."
)

// Backend names a repository implementation.
type Backend string

// Supported backends.
const (
	BackendGoGit       Backend = "gogit"
	BackendCommandLine Backend = "cli"
)

// UnmarshalText accepts a backend name case-insensitively and rejects unknown names.
func (backend *Backend) UnmarshalText(text []byte) error {
	normalizedBackend := Backend(strings.ToLower(strings.TrimSpace(string(text))))
	switch normalizedBackend {
	case "":
		*backend = BackendGoGit
	case BackendGoGit, BackendCommandLine:
		*backend = normalizedBackend
	default:
		return fmt.Errorf(unsupportedBackendTemplateConstant, ErrUnsupportedBackend, string(text))
	}
	return nil
}

// Handle is the set of repository operations the branch workflow consumes.
type Handle interface {
	ListLocalBranches(executionContext context.Context) ([]string, error)
	CurrentBranch(executionContext context.Context) (string, error)
	DeleteBranch(executionContext context.Context, branchName string) error
}

// Options select and configure a backend.
type Options struct {
	Backend        Backend
	Path           string
	ForceDelete    bool
	Logger         *zap.Logger
	EventsObserver execshell.CommandEventObserver
	// CommandRunner overrides the os/exec runner of the command-line backend.
	CommandRunner execshell.CommandRunner
}

// Open opens the repository containing options.Path with the requested backend.
func Open(executionContext context.Context, options Options) (Handle, error) {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	repositoryPath := strings.TrimSpace(options.Path)
	if len(repositoryPath) == 0 {
		repositoryPath = defaultRepositoryPathConstant
	}

	switch Backend(strings.ToLower(strings.TrimSpace(string(options.Backend)))) {
	case BackendGoGit, "":
		goGitRepository, openError := OpenGoGitRepository(repositoryPath, logger)
		if openError != nil {
			return nil, openError
		}
		return goGitRepository, nil
	case BackendCommandLine:
		commandRunner := options.CommandRunner
		if commandRunner == nil {
			commandRunner = execshell.NewOSCommandRunner()
		}
		shellExecutor, executorError := execshell.NewShellExecutorWithObserver(logger, commandRunner, options.EventsObserver)
		if executorError != nil {
			return nil, executorError
		}
		commandLineRepository, openError := OpenCommandLineRepository(executionContext, shellExecutor, repositoryPath, options.ForceDelete)
		if openError != nil {
			return nil, openError
		}
		return commandLineRepository, nil
	default:
		return nil, fmt.Errorf(unsupportedBackendTemplateConstant, ErrUnsupportedBackend, options.Backend)
	}
}

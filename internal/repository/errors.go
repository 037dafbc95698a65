package repository

import "errors"

const (
	notARepositoryMessageConstant         = "not a git repository"
	branchNotFoundMessageConstant         = "branch not found"
	branchCheckedOutMessageConstant       = "branch is checked out"
	branchDeletionRejectedMessageConstant = "git rejected the deletion"
	unsupportedBackendMessageConstant     = "unsupported repository backend"
	executorNotConfiguredMessageConstant  = "git executor not configured"

	// DetachedHeadSentinel is reported as the current branch when HEAD does not point at a branch.
	// Git forbids "HEAD" as a branch name, so the sentinel never matches a local branch.
	DetachedHeadSentinel = "HEAD"
)

// ErrNotARepository indicates that no repository was found at or above the requested path.
var ErrNotARepository = errors.New(notARepositoryMessageConstant)

// ErrBranchNotFound indicates that the requested local branch does not exist.
var ErrBranchNotFound = errors.New(branchNotFoundMessageConstant)

// ErrBranchCheckedOut indicates that the branch is checked out and cannot be deleted.
var ErrBranchCheckedOut = errors.New(branchCheckedOutMessageConstant)

// ErrBranchDeletionRejected indicates that git refused the deletion for another reason.
var ErrBranchDeletionRejected = errors.New(branchDeletionRejectedMessageConstant)

// ErrUnsupportedBackend indicates an unknown backend name in the options.
var ErrUnsupportedBackend = errors.New(unsupportedBackendMessageConstant)

// ErrGitExecutorNotConfigured indicates the command-line backend was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

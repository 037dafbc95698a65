package branches

import "context"

// Repository exposes the repository operations the workflow consumes.
type Repository interface {
	ListLocalBranches(executionContext context.Context) ([]string, error)
	CurrentBranch(executionContext context.Context) (string, error)
	DeleteBranch(executionContext context.Context, branchName string) error
}

// Selector asks the operator which branches to delete and whether to proceed.
type Selector interface {
	// SelectMany returns indices into items chosen by the operator. An empty result is a valid answer.
	SelectMany(executionContext context.Context, title string, items []string) ([]int, error)
	// Confirm returns the operator's yes/no answer, defaulting to no.
	Confirm(executionContext context.Context, title string) (bool, error)
}

// DeletionObserver receives per-branch notices while a batch runs.
type DeletionObserver interface {
	BranchDeleted(branchName string)
	BranchDeletionFailed(branchName string, failure error)
}

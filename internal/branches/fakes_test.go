package branches_test

import (
	"context"
	"slices"
)

type fakeRepository struct {
	branches       []string
	currentBranch  string
	listError      error
	currentError   error
	deleteFailures map[string]error
	attempted      []string
	onDelete       func(branchName string)
}

func newFakeRepository(currentBranch string, branches ...string) *fakeRepository {
	return &fakeRepository{branches: append([]string{}, branches...), currentBranch: currentBranch, deleteFailures: map[string]error{}}
}

func (repository *fakeRepository) ListLocalBranches(context.Context) ([]string, error) {
	if repository.listError != nil {
		return nil, repository.listError
	}
	return append([]string{}, repository.branches...), nil
}

func (repository *fakeRepository) CurrentBranch(context.Context) (string, error) {
	if repository.currentError != nil {
		return "", repository.currentError
	}
	return repository.currentBranch, nil
}

func (repository *fakeRepository) DeleteBranch(_ context.Context, branchName string) error {
	repository.attempted = append(repository.attempted, branchName)
	if repository.onDelete != nil {
		repository.onDelete(branchName)
	}
	if failure, exists := repository.deleteFailures[branchName]; exists {
		return failure
	}
	repository.branches = slices.DeleteFunc(repository.branches, func(existing string) bool {
		return existing == branchName
	})
	return nil
}

type scriptedSelector struct {
	selection         []int
	selectionError    error
	confirmation      bool
	confirmationError error
	offeredItems      []string
	selectionTitles   []string
	confirmTitles     []string
}

func (selector *scriptedSelector) SelectMany(_ context.Context, title string, items []string) ([]int, error) {
	selector.selectionTitles = append(selector.selectionTitles, title)
	selector.offeredItems = append([]string{}, items...)
	if selector.selectionError != nil {
		return nil, selector.selectionError
	}
	return append([]int{}, selector.selection...), nil
}

func (selector *scriptedSelector) Confirm(_ context.Context, title string) (bool, error) {
	selector.confirmTitles = append(selector.confirmTitles, title)
	if selector.confirmationError != nil {
		return false, selector.confirmationError
	}
	return selector.confirmation, nil
}

type recordingDeletionObserver struct {
	deleted []string
	failed  []string
}

func (observer *recordingDeletionObserver) BranchDeleted(branchName string) {
	observer.deleted = append(observer.deleted, branchName)
}

func (observer *recordingDeletionObserver) BranchDeletionFailed(branchName string, _ error) {
	observer.failed = append(observer.failed, branchName)
}

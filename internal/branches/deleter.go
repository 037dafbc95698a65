package branches

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	logMessageBranchDeletedConstant        = "branch deleted"
	logMessageBranchDeletionFailedConstant = "branch deletion failed"
	logMessageBatchInterruptedConstant     = "branch deletion interrupted"
	logFieldBranchConstant                 = "branch"
	logFieldRemainingConstant              = "remaining"
	deletionFailureTemplateConstant        = "failed to delete branch '%s': %w"
)

// DeletionOutcome records the result of deleting one branch. A nil Error means the branch was deleted.
type DeletionOutcome struct {
	BranchName string
	Error      error
}

// Succeeded reports whether the branch was deleted.
func (outcome DeletionOutcome) Succeeded() bool {
	return outcome.Error == nil
}

// BranchFailure pairs a branch with the reason its deletion failed.
type BranchFailure struct {
	BranchName string
	Reason     string
}

// BatchResult collects the outcomes of a batch in attempt order.
type BatchResult struct {
	Outcomes []DeletionOutcome
}

// SuccessCount returns the number of deleted branches.
func (result BatchResult) SuccessCount() int {
	successCount := 0
	for _, outcome := range result.Outcomes {
		if outcome.Succeeded() {
			successCount++
		}
	}
	return successCount
}

// Failures returns the failed branches with human-readable reasons in attempt order.
func (result BatchResult) Failures() []BranchFailure {
	failures := make([]BranchFailure, 0)
	for _, outcome := range result.Outcomes {
		if outcome.Succeeded() {
			continue
		}
		failures = append(failures, BranchFailure{BranchName: outcome.BranchName, Reason: outcome.Error.Error()})
	}
	return failures
}

// BatchDeleter deletes branches one at a time and never stops on a per-branch failure.
type BatchDeleter struct {
	logger   *zap.Logger
	observer DeletionObserver
}

// NewBatchDeleter constructs a BatchDeleter. A nil observer discards notices.
func NewBatchDeleter(logger *zap.Logger, observer DeletionObserver) BatchDeleter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = discardingDeletionObserver{}
	}
	return BatchDeleter{logger: logger, observer: observer}
}

// Delete attempts every branch in order and returns one outcome per attempted branch.
// The only error is the context's, returned when the batch is interrupted; the result then covers the
// branches attempted before the interruption.
func (deleter BatchDeleter) Delete(executionContext context.Context, repository Repository, branchNames []string) (BatchResult, error) {
	result := BatchResult{Outcomes: make([]DeletionOutcome, 0, len(branchNames))}

	for branchIndex, branchName := range branchNames {
		if contextError := executionContext.Err(); contextError != nil {
			deleter.logger.Warn(logMessageBatchInterruptedConstant, zap.Int(logFieldRemainingConstant, len(branchNames)-branchIndex))
			return result, contextError
		}

		deletionError := repository.DeleteBranch(executionContext, branchName)
		if deletionError != nil && executionContext.Err() != nil {
			deleter.logger.Warn(logMessageBatchInterruptedConstant, zap.Int(logFieldRemainingConstant, len(branchNames)-branchIndex))
			return result, executionContext.Err()
		}

		if deletionError != nil {
			deletionError = fmt.Errorf(deletionFailureTemplateConstant, branchName, deletionError)
		}

		result.Outcomes = append(result.Outcomes, DeletionOutcome{BranchName: branchName, Error: deletionError})
		if deletionError != nil {
			deleter.logger.Warn(logMessageBranchDeletionFailedConstant, zap.String(logFieldBranchConstant, branchName), zap.Error(deletionError))
			deleter.observer.BranchDeletionFailed(branchName, deletionError)
			continue
		}

		deleter.logger.Info(logMessageBranchDeletedConstant, zap.String(logFieldBranchConstant, branchName))
		deleter.observer.BranchDeleted(branchName)
	}

	return result, nil
}

type discardingDeletionObserver struct{}

func (discardingDeletionObserver) BranchDeleted(string) {}

func (discardingDeletionObserver) BranchDeletionFailed(string, error) {}

package branches

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/temirov/prunebranch/internal/repository"
)

const (
	selectionTitleConstant              = "Select branches to delete (Space to select, Enter to confirm)"
	confirmationTitleConstant           = "Are you sure you want to delete these branches?"
	listBranchesErrorTemplateConstant   = "unable to list local branches: %w"
	currentBranchErrorTemplateConstant  = "unable to determine current branch: %w"
	selectionErrorTemplateConstant      = "branch selection failed: %w"
	confirmationErrorTemplateConstant   = "confirmation failed: %w"
	deletionInterruptedTemplateConstant = "branch deletion interrupted: %w"
	invalidSelectionTemplateConstant    = "%w: index %d outside 0..%d"
	serviceLogBranchesListedConstant    = "local branches listed"
	serviceLogDetachedHeadConstant      = "HEAD is detached; current branch cannot be excluded"
	serviceLogStateConstant             = "branch pruning finished"
	serviceLogFieldCountConstant        = "count"
	serviceLogFieldCurrentConstant      = "current_branch"
	serviceLogFieldStateConstant        = "state"
	serviceLogFieldSelectedConstant     = "selected"
	serviceLogFieldSucceededConstant    = "succeeded"
	serviceLogFieldFailedConstant       = "failed"
)

// ErrSelectorNotConfigured indicates that a service was constructed without a selector.
var ErrSelectorNotConfigured = errors.New("branch selector not configured")

// ErrReporterNotConfigured indicates that a service was constructed without a reporter.
var ErrReporterNotConfigured = errors.New("branch reporter not configured")

// ErrInvalidSelection indicates that the selector returned an index outside the candidate list.
var ErrInvalidSelection = errors.New("selection index out of range")

// RunState names the terminal state of a run.
type RunState string

// Terminal states.
const (
	RunStateNothingToDelete RunState = "nothing_to_delete"
	RunStateNothingSelected RunState = "nothing_selected"
	RunStateCancelled       RunState = "cancelled"
	RunStateCompleted       RunState = "completed"
)

// RunReport describes how a run ended.
type RunReport struct {
	State      RunState
	Candidates []string
	Selected   []string
	Result     BatchResult
}

// ServiceDependencies enumerates collaborators required by Service.
type ServiceDependencies struct {
	Logger   *zap.Logger
	Selector Selector
	Reporter *Reporter
}

// Service runs the list, filter, select, confirm, delete workflow.
type Service struct {
	logger   *zap.Logger
	selector Selector
	reporter *Reporter
	deleter  BatchDeleter
}

// NewService constructs a Service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Selector == nil {
		return nil, ErrSelectorNotConfigured
	}
	if dependencies.Reporter == nil {
		return nil, ErrReporterNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:   logger,
		selector: dependencies.Selector,
		reporter: dependencies.Reporter,
		deleter:  NewBatchDeleter(logger, dependencies.Reporter),
	}, nil
}

// Run executes one pass of the workflow against the repository.
// Declining, an empty candidate list and an empty selection are normal endings and return a nil error.
// Per-branch failures are recorded in the report; only setup, prompt and interruption failures are returned.
func (service *Service) Run(executionContext context.Context, gitRepository Repository) (RunReport, error) {
	allBranches, listError := gitRepository.ListLocalBranches(executionContext)
	if listError != nil {
		return RunReport{}, fmt.Errorf(listBranchesErrorTemplateConstant, listError)
	}

	currentBranch, currentBranchError := gitRepository.CurrentBranch(executionContext)
	if currentBranchError != nil {
		return RunReport{}, fmt.Errorf(currentBranchErrorTemplateConstant, currentBranchError)
	}

	service.logger.Debug(serviceLogBranchesListedConstant,
		zap.Int(serviceLogFieldCountConstant, len(allBranches)),
		zap.String(serviceLogFieldCurrentConstant, currentBranch),
	)

	if currentBranch == repository.DetachedHeadSentinel {
		service.logger.Warn(serviceLogDetachedHeadConstant)
		service.reporter.DetachedHead()
	}

	report := RunReport{Candidates: FilterCandidates(allBranches, currentBranch)}
	if len(report.Candidates) == 0 {
		service.reporter.NothingToDelete()
		return service.finish(report, RunStateNothingToDelete), nil
	}

	selectedIndices, selectionError := service.selector.SelectMany(executionContext, selectionTitleConstant, report.Candidates)
	if selectionError != nil {
		return report, fmt.Errorf(selectionErrorTemplateConstant, selectionError)
	}

	selectedBranches, resolveError := resolveSelection(report.Candidates, selectedIndices)
	if resolveError != nil {
		return report, fmt.Errorf(selectionErrorTemplateConstant, resolveError)
	}
	report.Selected = selectedBranches

	if len(report.Selected) == 0 {
		service.reporter.NothingSelected()
		return service.finish(report, RunStateNothingSelected), nil
	}

	service.reporter.ReviewSelection(report.Selected)

	confirmed, confirmationError := service.selector.Confirm(executionContext, confirmationTitleConstant)
	if confirmationError != nil {
		return report, fmt.Errorf(confirmationErrorTemplateConstant, confirmationError)
	}
	if !confirmed {
		service.reporter.Cancelled()
		return service.finish(report, RunStateCancelled), nil
	}

	batchResult, deletionError := service.deleter.Delete(executionContext, gitRepository, report.Selected)
	report.Result = batchResult
	if deletionError != nil {
		return report, fmt.Errorf(deletionInterruptedTemplateConstant, deletionError)
	}

	service.reporter.Summary(batchResult)
	return service.finish(report, RunStateCompleted), nil
}

func (service *Service) finish(report RunReport, state RunState) RunReport {
	report.State = state
	service.logger.Info(serviceLogStateConstant,
		zap.String(serviceLogFieldStateConstant, string(state)),
		zap.Int(serviceLogFieldSelectedConstant, len(report.Selected)),
		zap.Int(serviceLogFieldSucceededConstant, report.Result.SuccessCount()),
		zap.Int(serviceLogFieldFailedConstant, len(report.Result.Failures())),
	)
	return report
}

// resolveSelection maps indices to names in candidate order, dropping duplicates.
func resolveSelection(candidates []string, selectedIndices []int) ([]string, error) {
	sortedIndices := append([]int(nil), selectedIndices...)
	sort.Ints(sortedIndices)

	selectedBranches := make([]string, 0, len(sortedIndices))
	previousIndex := -1
	for _, selectedIndex := range sortedIndices {
		if selectedIndex < 0 || selectedIndex >= len(candidates) {
			return nil, fmt.Errorf(invalidSelectionTemplateConstant, ErrInvalidSelection, selectedIndex, len(candidates)-1)
		}
		if selectedIndex == previousIndex {
			continue
		}
		previousIndex = selectedIndex
		selectedBranches = append(selectedBranches, candidates[selectedIndex])
	}
	return selectedBranches, nil
}

package branches_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/prunebranch/internal/branches"
	"github.com/temirov/prunebranch/internal/prompt"
	"github.com/temirov/prunebranch/internal/repository"
)

const (
	testSelectionTitleConstant    = "Select branches to delete (Space to select, Enter to confirm)"
	testConfirmationTitleConstant = "Are you sure you want to delete these branches?"
)

type serviceHarness struct {
	service      *branches.Service
	selector     *scriptedSelector
	outputBuffer *bytes.Buffer
	errorBuffer  *bytes.Buffer
}

func newServiceHarness(testInstance *testing.T, selector *scriptedSelector, logger *zap.Logger) serviceHarness {
	testInstance.Helper()
	outputBuffer := &bytes.Buffer{}
	errorBuffer := &bytes.Buffer{}
	service, serviceError := branches.NewService(branches.ServiceDependencies{
		Logger:   logger,
		Selector: selector,
		Reporter: branches.NewReporter(outputBuffer, errorBuffer, false),
	})
	require.NoError(testInstance, serviceError)
	return serviceHarness{service: service, selector: selector, outputBuffer: outputBuffer, errorBuffer: errorBuffer}
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	_, missingSelectorError := branches.NewService(branches.ServiceDependencies{Reporter: branches.NewReporter(nil, nil, false)})
	require.ErrorIs(testInstance, missingSelectorError, branches.ErrSelectorNotConfigured)

	_, missingReporterError := branches.NewService(branches.ServiceDependencies{Selector: &scriptedSelector{}})
	require.ErrorIs(testInstance, missingReporterError, branches.ErrReporterNotConfigured)
}

func TestServiceRunScenarios(testInstance *testing.T) {
	testCases := []struct {
		name                  string
		currentBranch         string
		branches              []string
		failures              map[string]error
		selector              scriptedSelector
		expectedState         branches.RunState
		expectedOffered       []string
		expectedAttempted     []string
		expectedRemaining     []string
		expectedSuccessCount  int
		expectedConfirmations int
		expectedOutput        string
		expectedErrors        string
	}{
		{
			name:              "nothing_to_delete",
			currentBranch:     "main",
			branches:          []string{"main"},
			expectedState:     branches.RunStateNothingToDelete,
			expectedRemaining: []string{"main"},
			expectedOutput:    "No branches available for deletion.\n",
		},
		{
			name:              "nothing_selected",
			currentBranch:     "main",
			branches:          []string{"main", "feature-a", "feature-b"},
			selector:          scriptedSelector{selection: []int{}},
			expectedState:     branches.RunStateNothingSelected,
			expectedOffered:   []string{"feature-a", "feature-b"},
			expectedRemaining: []string{"main", "feature-a", "feature-b"},
			expectedOutput:    "No branches selected.\n",
		},
		{
			name:                  "declined_confirmation",
			currentBranch:         "main",
			branches:              []string{"main", "feature-a", "feature-b"},
			selector:              scriptedSelector{selection: []int{0, 1}, confirmation: false},
			expectedState:         branches.RunStateCancelled,
			expectedOffered:       []string{"feature-a", "feature-b"},
			expectedRemaining:     []string{"main", "feature-a", "feature-b"},
			expectedConfirmations: 1,
			expectedOutput:        "\nThe following branches will be deleted:\n- feature-a\n- feature-b\nOperation cancelled.\n",
		},
		{
			name:                  "confirmed_deletion",
			currentBranch:         "main",
			branches:              []string{"main", "feature-a", "feature-b", "hotfix"},
			selector:              scriptedSelector{selection: []int{0, 2}, confirmation: true},
			expectedState:         branches.RunStateCompleted,
			expectedOffered:       []string{"feature-a", "feature-b", "hotfix"},
			expectedAttempted:     []string{"feature-a", "hotfix"},
			expectedRemaining:     []string{"main", "feature-b"},
			expectedSuccessCount:  2,
			expectedConfirmations: 1,
			expectedOutput: "\nThe following branches will be deleted:\n- feature-a\n- hotfix\n" +
				"✓ Deleted 'feature-a'\n✓ Deleted 'hotfix'\n\nResults:\nSuccess: 2 branch(es)\n",
		},
		{
			name:                  "partial_failure",
			currentBranch:         "main",
			branches:              []string{"main", "feature-a", "feature-b", "feature-c"},
			failures:              map[string]error{"feature-b": repository.ErrBranchNotFound},
			selector:              scriptedSelector{selection: []int{0, 1, 2}, confirmation: true},
			expectedState:         branches.RunStateCompleted,
			expectedOffered:       []string{"feature-a", "feature-b", "feature-c"},
			expectedAttempted:     []string{"feature-a", "feature-b", "feature-c"},
			expectedRemaining:     []string{"main", "feature-b"},
			expectedSuccessCount:  2,
			expectedConfirmations: 1,
			expectedOutput: "\nThe following branches will be deleted:\n- feature-a\n- feature-b\n- feature-c\n" +
				"✓ Deleted 'feature-a'\n✓ Deleted 'feature-c'\n\nResults:\nSuccess: 2 branch(es)\nFailed: 1 branch(es)\n\nError details:\n",
			expectedErrors: "✗ Failed to delete 'feature-b'\n- feature-b: failed to delete branch 'feature-b': branch not found\n",
		},
		{
			name:                  "selection_order_and_duplicates_normalized",
			currentBranch:         "main",
			branches:              []string{"feature-a", "main", "feature-b", "feature-c"},
			selector:              scriptedSelector{selection: []int{2, 0, 2}, confirmation: true},
			expectedState:         branches.RunStateCompleted,
			expectedOffered:       []string{"feature-a", "feature-b", "feature-c"},
			expectedAttempted:     []string{"feature-a", "feature-c"},
			expectedRemaining:     []string{"main", "feature-b"},
			expectedSuccessCount:  2,
			expectedConfirmations: 1,
			expectedOutput: "\nThe following branches will be deleted:\n- feature-a\n- feature-c\n" +
				"✓ Deleted 'feature-a'\n✓ Deleted 'feature-c'\n\nResults:\nSuccess: 2 branch(es)\n",
		},
		{
			name:                  "detached_head_offers_every_branch",
			currentBranch:         repository.DetachedHeadSentinel,
			branches:              []string{"main", "feature-a"},
			selector:              scriptedSelector{selection: []int{1}, confirmation: true},
			expectedState:         branches.RunStateCompleted,
			expectedOffered:       []string{"main", "feature-a"},
			expectedAttempted:     []string{"feature-a"},
			expectedRemaining:     []string{"main"},
			expectedSuccessCount:  1,
			expectedConfirmations: 1,
			expectedOutput: "\nThe following branches will be deleted:\n- feature-a\n" +
				"✓ Deleted 'feature-a'\n\nResults:\nSuccess: 1 branch(es)\n",
			expectedErrors: "HEAD is detached; every local branch is listed.\n",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fakeRepo := newFakeRepository(testCase.currentBranch, testCase.branches...)
			if testCase.failures != nil {
				fakeRepo.deleteFailures = testCase.failures
			}
			selector := testCase.selector
			harness := newServiceHarness(testInstance, &selector, zap.NewNop())

			report, runError := harness.service.Run(context.Background(), fakeRepo)
			require.NoError(testInstance, runError)

			require.Equal(testInstance, testCase.expectedState, report.State)
			require.Equal(testInstance, testCase.expectedOffered, selector.offeredItems)
			require.NotContains(testInstance, selector.offeredItems, testCase.currentBranch)
			require.Equal(testInstance, testCase.expectedAttempted, fakeRepo.attempted)
			require.ElementsMatch(testInstance, testCase.expectedRemaining, fakeRepo.branches)
			require.Equal(testInstance, testCase.expectedSuccessCount, report.Result.SuccessCount())
			require.Equal(testInstance, len(report.Result.Outcomes), report.Result.SuccessCount()+len(report.Result.Failures()))
			require.Len(testInstance, selector.confirmTitles, testCase.expectedConfirmations)
			require.Equal(testInstance, testCase.expectedOutput, harness.outputBuffer.String())
			require.Equal(testInstance, testCase.expectedErrors, harness.errorBuffer.String())

			if len(testCase.expectedOffered) > 0 {
				require.Equal(testInstance, []string{testSelectionTitleConstant}, selector.selectionTitles)
			}
			if testCase.expectedConfirmations > 0 {
				require.Equal(testInstance, []string{testConfirmationTitleConstant}, selector.confirmTitles)
			}
		})
	}
}

func TestServiceRunFailures(testInstance *testing.T) {
	listFailure := errors.New("corrupt packed-refs")
	headFailure := errors.New("unreadable HEAD")

	testCases := []struct {
		name          string
		prepare       func(fakeRepo *fakeRepository, selector *scriptedSelector)
		expectedError error
		expectPrompt  bool
	}{
		{
			name: "listing_fails",
			prepare: func(fakeRepo *fakeRepository, _ *scriptedSelector) {
				fakeRepo.listError = listFailure
			},
			expectedError: listFailure,
		},
		{
			name: "head_unreadable",
			prepare: func(fakeRepo *fakeRepository, _ *scriptedSelector) {
				fakeRepo.currentError = headFailure
			},
			expectedError: headFailure,
		},
		{
			name: "selection_aborted",
			prepare: func(_ *fakeRepository, selector *scriptedSelector) {
				selector.selectionError = prompt.ErrAborted
			},
			expectedError: prompt.ErrAborted,
			expectPrompt:  true,
		},
		{
			name: "confirmation_aborted",
			prepare: func(_ *fakeRepository, selector *scriptedSelector) {
				selector.selection = []int{0}
				selector.confirmationError = prompt.ErrAborted
			},
			expectedError: prompt.ErrAborted,
			expectPrompt:  true,
		},
		{
			name: "selection_out_of_range",
			prepare: func(_ *fakeRepository, selector *scriptedSelector) {
				selector.selection = []int{0, 7}
				selector.confirmation = true
			},
			expectedError: branches.ErrInvalidSelection,
			expectPrompt:  true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fakeRepo := newFakeRepository("main", "main", "feature-a", "feature-b")
			selector := &scriptedSelector{}
			testCase.prepare(fakeRepo, selector)
			harness := newServiceHarness(testInstance, selector, zap.NewNop())

			_, runError := harness.service.Run(context.Background(), fakeRepo)
			require.ErrorIs(testInstance, runError, testCase.expectedError)
			require.Empty(testInstance, fakeRepo.attempted)
			require.Equal(testInstance, testCase.expectPrompt, len(selector.selectionTitles) > 0)
			require.NotContains(testInstance, harness.outputBuffer.String(), "Results:")
		})
	}
}

func TestServiceRunInterruptedDuringBatch(testInstance *testing.T) {
	executionContext, cancel := context.WithCancel(context.Background())
	defer cancel()

	fakeRepo := newFakeRepository("main", "main", "feature-a", "feature-b")
	fakeRepo.onDelete = func(string) { cancel() }
	harness := newServiceHarness(testInstance, &scriptedSelector{selection: []int{0, 1}, confirmation: true}, zap.NewNop())

	report, runError := harness.service.Run(executionContext, fakeRepo)
	require.ErrorIs(testInstance, runError, context.Canceled)
	require.Equal(testInstance, []string{"feature-a"}, fakeRepo.attempted)
	require.Equal(testInstance, 1, report.Result.SuccessCount())
	require.Contains(testInstance, fakeRepo.branches, "feature-b")
}

func TestServiceRunLogsTerminalState(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	fakeRepo := newFakeRepository(repository.DetachedHeadSentinel, "feature-a")
	harness := newServiceHarness(testInstance, &scriptedSelector{selection: []int{0}, confirmation: false}, zap.New(observedCore))

	_, runError := harness.service.Run(context.Background(), fakeRepo)
	require.NoError(testInstance, runError)

	require.Equal(testInstance, 1, observedLogs.FilterMessage("HEAD is detached; current branch cannot be excluded").FilterLevelExact(zapcore.WarnLevel).Len())
	finishedLogs := observedLogs.FilterMessage("branch pruning finished").All()
	require.Len(testInstance, finishedLogs, 1)
	require.Equal(testInstance, string(branches.RunStateCancelled), finishedLogs[0].ContextMap()["state"])
}

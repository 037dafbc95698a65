package branches

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

const (
	nothingToDeleteMessageConstant    = "No branches available for deletion."
	nothingSelectedMessageConstant    = "No branches selected."
	cancelledMessageConstant          = "Operation cancelled."
	detachedHeadMessageConstant       = "HEAD is detached; every local branch is listed."
	reviewHeaderMessageConstant       = "\nThe following branches will be deleted:"
	reviewLineTemplateConstant        = "- %s\n"
	deletedNoticeTemplateConstant     = "%s Deleted '%s'\n"
	failedNoticeTemplateConstant      = "%s Failed to delete '%s'\n"
	successMarkerConstant             = "✓"
	failureMarkerConstant             = "✗"
	resultsHeaderMessageConstant      = "\nResults:"
	successSummaryTemplateConstant    = "Success: %d branch(es)\n"
	failureSummaryTemplateConstant    = "Failed: %d branch(es)\n"
	errorDetailsHeaderMessageConstant = "\nError details:"
	errorDetailLineTemplateConstant   = "- %s: %s\n"
)

// Reporter prints the operator-facing messages of a run. Failure notices and error details go to the error writer.
type Reporter struct {
	outputWriter  io.Writer
	errorWriter   io.Writer
	successMarker string
	failureMarker string
}

// NewReporter constructs a Reporter; colorEnabled toggles the green and red markers.
func NewReporter(outputWriter io.Writer, errorWriter io.Writer, colorEnabled bool) *Reporter {
	if outputWriter == nil {
		outputWriter = io.Discard
	}
	if errorWriter == nil {
		errorWriter = outputWriter
	}

	successColor := color.New(color.FgGreen)
	failureColor := color.New(color.FgRed)
	if !colorEnabled {
		successColor.DisableColor()
		failureColor.DisableColor()
	}

	return &Reporter{
		outputWriter:  outputWriter,
		errorWriter:   errorWriter,
		successMarker: successColor.Sprint(successMarkerConstant),
		failureMarker: failureColor.Sprint(failureMarkerConstant),
	}
}

// NothingToDelete reports that every local branch was filtered out.
func (reporter *Reporter) NothingToDelete() {
	fmt.Fprintln(reporter.outputWriter, nothingToDeleteMessageConstant)
}

// NothingSelected reports that the operator confirmed an empty selection.
func (reporter *Reporter) NothingSelected() {
	fmt.Fprintln(reporter.outputWriter, nothingSelectedMessageConstant)
}

// Cancelled reports that the operator declined the confirmation.
func (reporter *Reporter) Cancelled() {
	fmt.Fprintln(reporter.outputWriter, cancelledMessageConstant)
}

// DetachedHead warns that the current branch could not be excluded.
func (reporter *Reporter) DetachedHead() {
	fmt.Fprintln(reporter.errorWriter, detachedHeadMessageConstant)
}

// ReviewSelection lists the branches about to be deleted.
func (reporter *Reporter) ReviewSelection(branchNames []string) {
	fmt.Fprintln(reporter.outputWriter, reviewHeaderMessageConstant)
	for _, branchName := range branchNames {
		fmt.Fprintf(reporter.outputWriter, reviewLineTemplateConstant, branchName)
	}
}

// BranchDeleted implements DeletionObserver.
func (reporter *Reporter) BranchDeleted(branchName string) {
	fmt.Fprintf(reporter.outputWriter, deletedNoticeTemplateConstant, reporter.successMarker, branchName)
}

// BranchDeletionFailed implements DeletionObserver. The reason is reported once, in the summary.
func (reporter *Reporter) BranchDeletionFailed(branchName string, _ error) {
	fmt.Fprintf(reporter.errorWriter, failedNoticeTemplateConstant, reporter.failureMarker, branchName)
}

// Summary prints the aggregated result after the batch has finished.
func (reporter *Reporter) Summary(result BatchResult) {
	fmt.Fprintln(reporter.outputWriter, resultsHeaderMessageConstant)
	fmt.Fprintf(reporter.outputWriter, successSummaryTemplateConstant, result.SuccessCount())

	failures := result.Failures()
	if len(failures) == 0 {
		return
	}

	fmt.Fprintf(reporter.outputWriter, failureSummaryTemplateConstant, len(failures))
	fmt.Fprintln(reporter.outputWriter, errorDetailsHeaderMessageConstant)
	for _, failure := range failures {
		fmt.Fprintf(reporter.errorWriter, errorDetailLineTemplateConstant, failure.BranchName, failure.Reason)
	}
}

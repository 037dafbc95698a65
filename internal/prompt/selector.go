package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
)

const (
	affirmativeLabelConstant     = "Yes"
	negativeLabelConstant        = "No"
	maximumListHeightConstant    = 15
	listHeightPaddingConstant    = 2
	abortedErrorTemplateConstant = "%w: %w"
)

// ErrAborted indicates that the operator interrupted a prompt.
var ErrAborted = errors.New("prompt aborted")

// Options configure a HuhSelector.
type Options struct {
	Input      io.Reader
	Output     io.Writer
	Accessible bool
}

type formRunner func(executionContext context.Context, form *huh.Form) error

// HuhSelector presents a multi-select list and a yes/no confirmation.
type HuhSelector struct {
	input      io.Reader
	output     io.Writer
	accessible bool
	runForm    formRunner
}

// NewHuhSelector constructs a selector reading from options.Input and drawing on options.Output,
// defaulting to the process's standard streams.
func NewHuhSelector(options Options) *HuhSelector {
	input := options.Input
	if input == nil {
		input = os.Stdin
	}
	output := options.Output
	if output == nil {
		output = os.Stdout
	}
	return &HuhSelector{
		input:      input,
		output:     output,
		accessible: options.Accessible,
		runForm:    runHuhForm,
	}
}

// SelectMany returns the indices of the chosen items. No items chosen yields an empty slice.
func (selector *HuhSelector) SelectMany(executionContext context.Context, title string, items []string) ([]int, error) {
	selectedIndices := make([]int, 0, len(items))
	field := huh.NewMultiSelect[int]().
		Title(title).
		Options(buildOptions(items)...).
		Height(listHeight(len(items))).
		Value(&selectedIndices)

	if runError := selector.run(executionContext, field); runError != nil {
		return nil, runError
	}
	return selectedIndices, nil
}

// Confirm asks a yes/no question. The answer defaults to no.
func (selector *HuhSelector) Confirm(executionContext context.Context, title string) (bool, error) {
	confirmed := false
	field := huh.NewConfirm().
		Title(title).
		Affirmative(affirmativeLabelConstant).
		Negative(negativeLabelConstant).
		Value(&confirmed)

	if runError := selector.run(executionContext, field); runError != nil {
		return false, runError
	}
	return confirmed, nil
}

func (selector *HuhSelector) run(executionContext context.Context, field huh.Field) error {
	if contextError := executionContext.Err(); contextError != nil {
		return fmt.Errorf(abortedErrorTemplateConstant, ErrAborted, contextError)
	}

	form := huh.NewForm(huh.NewGroup(field)).
		WithAccessible(selector.accessible).
		WithInput(selector.input).
		WithOutput(selector.output)

	runError := runUntilDone(executionContext, func() error {
		return selector.runForm(executionContext, form)
	})
	return translateError(executionContext, runError)
}

func runHuhForm(executionContext context.Context, form *huh.Form) error {
	return form.RunWithContext(executionContext)
}

// runUntilDone returns when runFunction does or when the context ends, whichever comes first.
// Accessible forms read standard input without watching the context, so an abandoned
// runFunction keeps its goroutine until the process exits.
func runUntilDone(executionContext context.Context, runFunction func() error) error {
	runResult := make(chan error, 1)
	go func() {
		runResult <- runFunction()
	}()

	select {
	case runError := <-runResult:
		return runError
	case <-executionContext.Done():
		return executionContext.Err()
	}
}

func translateError(executionContext context.Context, runError error) error {
	if runError == nil {
		if contextError := executionContext.Err(); contextError != nil {
			return fmt.Errorf(abortedErrorTemplateConstant, ErrAborted, contextError)
		}
		return nil
	}
	switch {
	case errors.Is(runError, huh.ErrUserAborted):
		return ErrAborted
	case errors.Is(runError, context.Canceled), errors.Is(runError, context.DeadlineExceeded):
		return fmt.Errorf(abortedErrorTemplateConstant, ErrAborted, runError)
	// The full-screen program reports a cancelled context as a timeout.
	case errors.Is(runError, huh.ErrTimeout) && executionContext.Err() != nil:
		return fmt.Errorf(abortedErrorTemplateConstant, ErrAborted, executionContext.Err())
	default:
		return runError
	}
}

func buildOptions(items []string) []huh.Option[int] {
	options := make([]huh.Option[int], 0, len(items))
	for itemIndex, item := range items {
		options = append(options, huh.NewOption(item, itemIndex))
	}
	return options
}

// listHeight keeps short lists compact and caps long ones so the title stays visible.
func listHeight(itemCount int) int {
	height := itemCount + listHeightPaddingConstant
	if height > maximumListHeightConstant {
		return maximumListHeightConstant
	}
	return height
}

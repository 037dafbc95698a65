package cli

import "github.com/temirov/prunebranch/internal/branches"

// NewApplicationWithCommandBuilder exposes newApplication to external tests.
var NewApplicationWithCommandBuilder = func(pruneBuilder branches.CommandBuilder) *Application {
	return newApplication(pruneBuilder)
}

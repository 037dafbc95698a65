// Package branches implements the interactive bulk deletion of local Git
// branches.
//
// Service walks the workflow: list local branches, drop the current one, let
// the operator pick candidates, confirm once, then delete each selection in
// order. BatchDeleter isolates every deletion so one failure never blocks the
// rest, and Reporter prints per-branch notices and the final summary.
// CommandBuilder wires the workflow into a Cobra command.
package branches

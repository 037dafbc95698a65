// Package execshell runs the git executable on behalf of the command-line
// repository backend.
//
// ShellExecutor wraps a CommandRunner with zap logging and lifecycle events,
// OSCommandRunner provides the os/exec implementation, and
// CommandMessageFormatter renders human-readable descriptions of the git
// invocations used to list, inspect, and delete local branches.
package execshell

// Package repository opens the Git repository prunebranch operates on and
// exposes the four operations the branch workflow needs: listing local
// branches, resolving the current branch, and deleting one branch by name.
//
// Two backends are available. GoGitRepository uses go-git directly and is the
// default; CommandLineRepository drives the git executable through execshell
// and therefore inherits Git's own safety checks for unmerged branches and
// branches checked out in other worktrees.
package repository

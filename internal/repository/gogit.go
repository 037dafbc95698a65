package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"go.uber.org/zap"
)

const (
	openRepositoryErrorTemplateConstant      = "unable to open repository at %s: %w"
	notARepositoryErrorTemplateConstant      = "%w: %s"
	listBranchesErrorTemplateConstant        = "unable to list local branches: %w"
	readHeadErrorTemplateConstant            = "unable to read HEAD: %w"
	lookupBranchErrorTemplateConstant        = "unable to look up branch %q: %w"
	branchErrorTemplateConstant              = "%w: %s"
	removeReferenceErrorTemplateConstant     = "unable to remove reference %s: %w"
	removeConfigurationErrorTemplateConstant = "unable to remove configuration of branch %q: %w"
	readWorktreeHeadsErrorTemplateConstant   = "unable to read worktree HEADs: %w"
	headFileNameConstant                     = "HEAD"
	commonDirectoryFileNameConstant          = "commondir"
	worktreesDirectoryNameConstant           = "worktrees"
	symbolicReferencePrefixConstant          = "ref: "
	logMessageCheckedOutElsewhereConstant    = "branch is checked out in a worktree"
	logMessageDetachedHeadConstant           = "HEAD is detached"
	logMessageReferenceRemovedConstant       = "branch reference removed"
	logFieldReferenceConstant                = "reference"
	logFieldPathConstant                     = "path"
)

// GoGitRepository implements the branch operations with go-git.
type GoGitRepository struct {
	repository *git.Repository
	path       string
	logger     *zap.Logger
}

// OpenGoGitRepository opens the repository containing path, walking up to the enclosing .git directory.
// Linked worktrees resolve refs through their common directory.
func OpenGoGitRepository(path string, logger *zap.Logger) (*GoGitRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	gitRepository, openError := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true, EnableDotGitCommonDir: true})
	if openError != nil {
		if errors.Is(openError, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf(notARepositoryErrorTemplateConstant, ErrNotARepository, path)
		}
		return nil, fmt.Errorf(openRepositoryErrorTemplateConstant, path, openError)
	}

	return &GoGitRepository{repository: gitRepository, path: path, logger: logger}, nil
}

// NewGoGitRepository wraps an already opened go-git repository.
func NewGoGitRepository(gitRepository *git.Repository, logger *zap.Logger) *GoGitRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoGitRepository{repository: gitRepository, logger: logger}
}

// ListLocalBranches returns the short names of refs/heads in storage order.
func (gitRepository *GoGitRepository) ListLocalBranches(executionContext context.Context) ([]string, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return nil, contextError
	}

	branchIterator, iteratorError := gitRepository.repository.Branches()
	if iteratorError != nil {
		return nil, fmt.Errorf(listBranchesErrorTemplateConstant, iteratorError)
	}
	defer branchIterator.Close()

	branchNames := make([]string, 0)
	iterationError := branchIterator.ForEach(func(reference *plumbing.Reference) error {
		branchNames = append(branchNames, reference.Name().Short())
		return nil
	})
	if iterationError != nil {
		return nil, fmt.Errorf(listBranchesErrorTemplateConstant, iterationError)
	}

	return branchNames, nil
}

// CurrentBranch resolves the symbolic HEAD to a branch name without requiring the branch to have commits.
// A detached HEAD yields DetachedHeadSentinel.
func (gitRepository *GoGitRepository) CurrentBranch(executionContext context.Context) (string, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return "", contextError
	}

	headReference, headError := gitRepository.repository.Storer.Reference(plumbing.HEAD)
	if headError != nil {
		return "", fmt.Errorf(readHeadErrorTemplateConstant, headError)
	}

	if headReference.Type() != plumbing.SymbolicReference || !headReference.Target().IsBranch() {
		gitRepository.logger.Debug(logMessageDetachedHeadConstant, zap.String(logFieldPathConstant, gitRepository.path))
		return DetachedHeadSentinel, nil
	}

	return headReference.Target().Short(), nil
}

// DeleteBranch removes refs/heads/<branchName> and its [branch] configuration section.
// A branch checked out in this or any linked worktree is refused with ErrBranchCheckedOut.
func (gitRepository *GoGitRepository) DeleteBranch(executionContext context.Context, branchName string) error {
	if contextError := executionContext.Err(); contextError != nil {
		return contextError
	}

	referenceName := plumbing.NewBranchReferenceName(branchName)
	if _, lookupError := gitRepository.repository.Storer.Reference(referenceName); lookupError != nil {
		if errors.Is(lookupError, plumbing.ErrReferenceNotFound) {
			return fmt.Errorf(branchErrorTemplateConstant, ErrBranchNotFound, branchName)
		}
		return fmt.Errorf(lookupBranchErrorTemplateConstant, branchName, lookupError)
	}

	currentBranch, currentBranchError := gitRepository.CurrentBranch(executionContext)
	if currentBranchError != nil {
		return currentBranchError
	}
	if currentBranch == branchName {
		return fmt.Errorf(branchErrorTemplateConstant, ErrBranchCheckedOut, branchName)
	}

	checkedOutReferences, worktreeHeadsError := gitRepository.worktreeHeadReferences()
	if worktreeHeadsError != nil {
		return fmt.Errorf(readWorktreeHeadsErrorTemplateConstant, worktreeHeadsError)
	}
	for _, checkedOutReference := range checkedOutReferences {
		if checkedOutReference == referenceName {
			gitRepository.logger.Debug(logMessageCheckedOutElsewhereConstant, zap.String(logFieldReferenceConstant, referenceName.String()))
			return fmt.Errorf(branchErrorTemplateConstant, ErrBranchCheckedOut, branchName)
		}
	}

	if removeError := gitRepository.repository.Storer.RemoveReference(referenceName); removeError != nil {
		return fmt.Errorf(removeReferenceErrorTemplateConstant, referenceName, removeError)
	}

	// Branches without tracking configuration report git.ErrBranchNotFound here.
	if configurationError := gitRepository.repository.DeleteBranch(branchName); configurationError != nil && !errors.Is(configurationError, git.ErrBranchNotFound) {
		return fmt.Errorf(removeConfigurationErrorTemplateConstant, branchName, configurationError)
	}

	gitRepository.logger.Debug(logMessageReferenceRemovedConstant, zap.String(logFieldReferenceConstant, referenceName.String()))
	return nil
}

// worktreeHeadReferences returns the symbolic targets of the main worktree HEAD and of every
// <commondir>/worktrees/*/HEAD. Storage that is not backed by a filesystem has no worktrees.
func (gitRepository *GoGitRepository) worktreeHeadReferences() ([]plumbing.ReferenceName, error) {
	commonFilesystem, filesystemError := gitRepository.commonFilesystem()
	if filesystemError != nil || commonFilesystem == nil {
		return nil, filesystemError
	}

	headPaths := []string{headFileNameConstant}
	worktreeEntries, readDirectoryError := commonFilesystem.ReadDir(worktreesDirectoryNameConstant)
	if readDirectoryError != nil && !os.IsNotExist(readDirectoryError) {
		return nil, readDirectoryError
	}
	for _, worktreeEntry := range worktreeEntries {
		if !worktreeEntry.IsDir() {
			continue
		}
		headPaths = append(headPaths, commonFilesystem.Join(worktreesDirectoryNameConstant, worktreeEntry.Name(), headFileNameConstant))
	}

	references := make([]plumbing.ReferenceName, 0, len(headPaths))
	for _, headPath := range headPaths {
		headContent, readError := util.ReadFile(commonFilesystem, headPath)
		if readError != nil {
			// A worktree directory may be pruned concurrently.
			if os.IsNotExist(readError) {
				continue
			}
			return nil, readError
		}
		headLine := strings.TrimSpace(string(headContent))
		if !strings.HasPrefix(headLine, symbolicReferencePrefixConstant) {
			continue
		}
		references = append(references, plumbing.ReferenceName(strings.TrimPrefix(headLine, symbolicReferencePrefixConstant)))
	}

	return references, nil
}

// commonFilesystem returns the directory shared by all worktrees. Inside a linked worktree the
// .git directory names it in a commondir file, relative to itself unless absolute.
func (gitRepository *GoGitRepository) commonFilesystem() (billy.Filesystem, error) {
	storage, isFilesystemStorage := gitRepository.repository.Storer.(*filesystem.Storage)
	if !isFilesystemStorage {
		return nil, nil
	}

	dotGitFilesystem := storage.Filesystem()
	commonDirectoryContent, readError := util.ReadFile(dotGitFilesystem, commonDirectoryFileNameConstant)
	if readError != nil {
		if os.IsNotExist(readError) {
			return dotGitFilesystem, nil
		}
		return nil, readError
	}

	commonDirectoryPath := strings.TrimSpace(string(commonDirectoryContent))
	if !filepath.IsAbs(commonDirectoryPath) {
		commonDirectoryPath = filepath.Join(dotGitFilesystem.Root(), commonDirectoryPath)
	}
	return osfs.New(commonDirectoryPath), nil
}

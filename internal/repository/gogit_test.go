package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/prunebranch/internal/repository"
)

const (
	testInitialBranchConstant  = "master"
	testFeatureBranchAConstant = "feature-a"
	testFeatureBranchBConstant = "feature-b"
	testReadmeFileNameConstant = "README.md"
	testCommitMessageConstant  = "initial commit"
	testAuthorNameConstant     = "Branch Tester"
	testAuthorEmailConstant    = "tester@example.com"
	testRemoteNameConstant     = "origin"
	testWorktreeNameConstant   = "linked"
)

type repositoryFixture struct {
	path          string
	gitRepository *git.Repository
	commitHash    plumbing.Hash
}

func newRepositoryFixture(testInstance *testing.T, branchNames ...string) repositoryFixture {
	testInstance.Helper()

	repositoryPath := testInstance.TempDir()
	gitRepository, initError := git.PlainInit(repositoryPath, false)
	require.NoError(testInstance, initError)

	worktree, worktreeError := gitRepository.Worktree()
	require.NoError(testInstance, worktreeError)

	writeError := os.WriteFile(filepath.Join(repositoryPath, testReadmeFileNameConstant), []byte("fixture\n"), 0o600)
	require.NoError(testInstance, writeError)

	_, addError := worktree.Add(testReadmeFileNameConstant)
	require.NoError(testInstance, addError)

	commitHash, commitError := worktree.Commit(testCommitMessageConstant, &git.CommitOptions{
		Author: &object.Signature{Name: testAuthorNameConstant, Email: testAuthorEmailConstant, When: time.Unix(1700000000, 0)},
	})
	require.NoError(testInstance, commitError)

	for _, branchName := range branchNames {
		reference := plumbing.NewHashReference(plumbing.NewBranchReferenceName(branchName), commitHash)
		require.NoError(testInstance, gitRepository.Storer.SetReference(reference))
	}

	return repositoryFixture{path: repositoryPath, gitRepository: gitRepository, commitHash: commitHash}
}

// addLinkedWorktree lays out the files `git worktree add` writes for a worktree on branchName and
// returns the worktree directory.
func addLinkedWorktree(testInstance *testing.T, fixture repositoryFixture, branchName string) string {
	testInstance.Helper()

	worktreePath := testInstance.TempDir()
	administrativePath := filepath.Join(fixture.path, git.GitDirName, "worktrees", testWorktreeNameConstant)
	require.NoError(testInstance, os.MkdirAll(administrativePath, 0o755))

	administrativeFiles := map[string]string{
		"HEAD":      "ref: " + plumbing.NewBranchReferenceName(branchName).String() + "\n",
		"commondir": "../..\n",
		"gitdir":    filepath.Join(worktreePath, git.GitDirName) + "\n",
	}
	for fileName, content := range administrativeFiles {
		require.NoError(testInstance, os.WriteFile(filepath.Join(administrativePath, fileName), []byte(content), 0o600))
	}

	dotGitFileContent := "gitdir: " + administrativePath + "\n"
	require.NoError(testInstance, os.WriteFile(filepath.Join(worktreePath, git.GitDirName), []byte(dotGitFileContent), 0o600))

	return worktreePath
}

func TestGoGitRepositoryListsBranchesAndCurrentBranch(testInstance *testing.T) {
	fixture := newRepositoryFixture(testInstance, testFeatureBranchAConstant, testFeatureBranchBConstant)

	gitRepository, openError := repository.OpenGoGitRepository(fixture.path, zap.NewNop())
	require.NoError(testInstance, openError)

	branchNames, listError := gitRepository.ListLocalBranches(context.Background())
	require.NoError(testInstance, listError)
	require.ElementsMatch(testInstance, []string{testInitialBranchConstant, testFeatureBranchAConstant, testFeatureBranchBConstant}, branchNames)

	currentBranch, currentBranchError := gitRepository.CurrentBranch(context.Background())
	require.NoError(testInstance, currentBranchError)
	require.Equal(testInstance, testInitialBranchConstant, currentBranch)
}

func TestGoGitRepositoryOpensFromSubdirectory(testInstance *testing.T) {
	fixture := newRepositoryFixture(testInstance)
	nestedPath := filepath.Join(fixture.path, "nested", "directory")
	require.NoError(testInstance, os.MkdirAll(nestedPath, 0o755))

	gitRepository, openError := repository.OpenGoGitRepository(nestedPath, nil)
	require.NoError(testInstance, openError)

	currentBranch, currentBranchError := gitRepository.CurrentBranch(context.Background())
	require.NoError(testInstance, currentBranchError)
	require.Equal(testInstance, testInitialBranchConstant, currentBranch)
}

func TestGoGitRepositoryReportsMissingRepository(testInstance *testing.T) {
	_, openError := repository.OpenGoGitRepository(testInstance.TempDir(), zap.NewNop())
	require.ErrorIs(testInstance, openError, repository.ErrNotARepository)
}

func TestGoGitRepositoryDetachedHeadUsesSentinel(testInstance *testing.T) {
	fixture := newRepositoryFixture(testInstance, testFeatureBranchAConstant)
	detachedHead := plumbing.NewHashReference(plumbing.HEAD, fixture.commitHash)
	require.NoError(testInstance, fixture.gitRepository.Storer.SetReference(detachedHead))

	gitRepository := repository.NewGoGitRepository(fixture.gitRepository, zap.NewNop())
	currentBranch, currentBranchError := gitRepository.CurrentBranch(context.Background())
	require.NoError(testInstance, currentBranchError)
	require.Equal(testInstance, repository.DetachedHeadSentinel, currentBranch)
}

func TestGoGitRepositoryDeleteBranch(testInstance *testing.T) {
	testCases := []struct {
		name             string
		branchToDelete   string
		expectedError    error
		expectedBranches []string
	}{
		{
			name:             "deletes_existing_branch",
			branchToDelete:   testFeatureBranchAConstant,
			expectedBranches: []string{testInitialBranchConstant, testFeatureBranchBConstant},
		},
		{
			name:             "rejects_missing_branch",
			branchToDelete:   "does-not-exist",
			expectedError:    repository.ErrBranchNotFound,
			expectedBranches: []string{testInitialBranchConstant, testFeatureBranchAConstant, testFeatureBranchBConstant},
		},
		{
			name:             "rejects_checked_out_branch",
			branchToDelete:   testInitialBranchConstant,
			expectedError:    repository.ErrBranchCheckedOut,
			expectedBranches: []string{testInitialBranchConstant, testFeatureBranchAConstant, testFeatureBranchBConstant},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newRepositoryFixture(testInstance, testFeatureBranchAConstant, testFeatureBranchBConstant)
			gitRepository := repository.NewGoGitRepository(fixture.gitRepository, zap.NewNop())

			deleteError := gitRepository.DeleteBranch(context.Background(), testCase.branchToDelete)
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, deleteError, testCase.expectedError)
			} else {
				require.NoError(testInstance, deleteError)
			}

			branchNames, listError := gitRepository.ListLocalBranches(context.Background())
			require.NoError(testInstance, listError)
			require.ElementsMatch(testInstance, testCase.expectedBranches, branchNames)
		})
	}
}

func TestGoGitRepositoryDeleteBranchRemovesTrackingConfiguration(testInstance *testing.T) {
	fixture := newRepositoryFixture(testInstance, testFeatureBranchAConstant)
	createError := fixture.gitRepository.CreateBranch(&config.Branch{
		Name:   testFeatureBranchAConstant,
		Remote: testRemoteNameConstant,
		Merge:  plumbing.NewBranchReferenceName(testFeatureBranchAConstant),
	})
	require.NoError(testInstance, createError)

	gitRepository := repository.NewGoGitRepository(fixture.gitRepository, zap.NewNop())
	require.NoError(testInstance, gitRepository.DeleteBranch(context.Background(), testFeatureBranchAConstant))

	_, branchConfigurationError := fixture.gitRepository.Branch(testFeatureBranchAConstant)
	require.ErrorIs(testInstance, branchConfigurationError, git.ErrBranchNotFound)
}

func TestGoGitRepositoryFailureDoesNotAffectLaterDeletion(testInstance *testing.T) {
	fixture := newRepositoryFixture(testInstance, testFeatureBranchAConstant)
	gitRepository := repository.NewGoGitRepository(fixture.gitRepository, zap.NewNop())

	require.ErrorIs(testInstance, gitRepository.DeleteBranch(context.Background(), "missing"), repository.ErrBranchNotFound)
	require.NoError(testInstance, gitRepository.DeleteBranch(context.Background(), testFeatureBranchAConstant))
}

func TestGoGitRepositoryHonorsCancelledContext(testInstance *testing.T) {
	fixture := newRepositoryFixture(testInstance, testFeatureBranchAConstant)
	gitRepository := repository.NewGoGitRepository(fixture.gitRepository, zap.NewNop())

	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(testInstance, gitRepository.DeleteBranch(cancelledContext, testFeatureBranchAConstant), context.Canceled)

	branchNames, listError := gitRepository.ListLocalBranches(context.Background())
	require.NoError(testInstance, listError)
	require.Contains(testInstance, branchNames, testFeatureBranchAConstant)
}

func TestGoGitRepositoryRefusesBranchCheckedOutInLinkedWorktree(testInstance *testing.T) {
	fixture := newRepositoryFixture(testInstance, testFeatureBranchAConstant, testFeatureBranchBConstant)
	addLinkedWorktree(testInstance, fixture, testFeatureBranchBConstant)

	gitRepository, openError := repository.OpenGoGitRepository(fixture.path, zap.NewNop())
	require.NoError(testInstance, openError)

	require.ErrorIs(testInstance, gitRepository.DeleteBranch(context.Background(), testFeatureBranchBConstant), repository.ErrBranchCheckedOut)
	require.NoError(testInstance, gitRepository.DeleteBranch(context.Background(), testFeatureBranchAConstant))

	branchNames, listError := gitRepository.ListLocalBranches(context.Background())
	require.NoError(testInstance, listError)
	require.ElementsMatch(testInstance, []string{testInitialBranchConstant, testFeatureBranchBConstant}, branchNames)
}

func TestGoGitRepositoryOpensFromLinkedWorktree(testInstance *testing.T) {
	fixture := newRepositoryFixture(testInstance, testFeatureBranchAConstant, testFeatureBranchBConstant)
	worktreePath := addLinkedWorktree(testInstance, fixture, testFeatureBranchBConstant)

	gitRepository, openError := repository.OpenGoGitRepository(worktreePath, zap.NewNop())
	require.NoError(testInstance, openError)

	branchNames, listError := gitRepository.ListLocalBranches(context.Background())
	require.NoError(testInstance, listError)
	require.ElementsMatch(testInstance, []string{testInitialBranchConstant, testFeatureBranchAConstant, testFeatureBranchBConstant}, branchNames)

	currentBranch, currentBranchError := gitRepository.CurrentBranch(context.Background())
	require.NoError(testInstance, currentBranchError)
	require.Equal(testInstance, testFeatureBranchBConstant, currentBranch)

	testCases := []struct {
		name           string
		branchToDelete string
		expectedError  error
	}{
		{name: "rejects_branch_of_this_worktree", branchToDelete: testFeatureBranchBConstant, expectedError: repository.ErrBranchCheckedOut},
		{name: "rejects_branch_of_main_worktree", branchToDelete: testInitialBranchConstant, expectedError: repository.ErrBranchCheckedOut},
		{name: "deletes_unused_branch", branchToDelete: testFeatureBranchAConstant},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			deleteError := gitRepository.DeleteBranch(context.Background(), testCase.branchToDelete)
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, deleteError, testCase.expectedError)
				return
			}
			require.NoError(testInstance, deleteError)
		})
	}

	remainingBranches, remainingError := fixture.gitRepository.Branches()
	require.NoError(testInstance, remainingError)
	remainingNames := make([]string, 0)
	require.NoError(testInstance, remainingBranches.ForEach(func(reference *plumbing.Reference) error {
		remainingNames = append(remainingNames, reference.Name().Short())
		return nil
	}))
	require.ElementsMatch(testInstance, []string{testInitialBranchConstant, testFeatureBranchBConstant}, remainingNames)
}

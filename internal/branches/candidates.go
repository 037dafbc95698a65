package branches

// FilterCandidates returns every branch except currentBranch, preserving order.
func FilterCandidates(allBranches []string, currentBranch string) []string {
	candidates := make([]string, 0, len(allBranches))
	for _, branchName := range allBranches {
		if branchName == currentBranch {
			continue
		}
		candidates = append(candidates, branchName)
	}
	return candidates
}

package gitrepo

import (
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// anyBranchDivergent implements §4.E.4's divergence test: a branch is
// divergent if it has no configured upstream, or its upstream exists but
// its tip is not an ancestor of the upstream tip. An upstream that is
// configured but not present locally (never fetched) is treated
// conservatively as divergent too, since ancestry can't be established.
func anyBranchDivergent(repoDir string) (bool, []string, error) {
	repo, err := gogit.PlainOpen(repoDir)
	if err != nil {
		return false, nil, err
	}

	cfg, err := repo.Config()
	if err != nil {
		return false, nil, err
	}

	refs, err := repo.Branches()
	if err != nil {
		return false, nil, err
	}

	var divergent []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		branchCfg, ok := cfg.Branches[name]
		if !ok || branchCfg.Remote == "" || branchCfg.Merge == "" {
			divergent = append(divergent, name)
			return nil
		}

		upstreamRefName := plumbing.NewRemoteReferenceName(branchCfg.Remote, branchCfg.Merge.Short())
		upstreamRef, err := repo.Reference(upstreamRefName, true)
		if err != nil {
			divergent = append(divergent, name)
			return nil
		}

		localCommit, err := repo.CommitObject(ref.Hash())
		if err != nil {
			return err
		}
		upstreamCommit, err := repo.CommitObject(upstreamRef.Hash())
		if err != nil {
			return err
		}

		isAncestor, err := localCommit.IsAncestor(upstreamCommit)
		if err != nil {
			return err
		}
		if !isAncestor {
			divergent = append(divergent, name)
		}
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return len(divergent) > 0, divergent, nil
}

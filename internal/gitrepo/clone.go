package gitrepo

import (
	gogit "github.com/go-git/go-git/v5"

	"github.com/henneberg-systemdesign/devsync/internal/devsyncerr"
)

// bareClone produces a full bare mirror of sourceDir at destDir (§4.E.4),
// used when a branch has diverged from its upstream and a plain stash/diff
// snapshot would not be enough to reconstruct the local history. Mirror
// brings over every ref, not just the checked-out branch.
func bareClone(sourceDir, destDir string) error {
	_, err := gogit.PlainClone(destDir, true, &gogit.CloneOptions{
		URL:    sourceDir,
		Mirror: true,
	})
	if err != nil {
		return devsyncerr.New(devsyncerr.Vcs, sourceDir, err)
	}
	return nil
}

package handler

import (
	"os"

	"github.com/henneberg-systemdesign/devsync/internal/devsyncerr"
	"github.com/henneberg-systemdesign/devsync/internal/fsutil"
)

// removeIfExists deletes path if it exists; a missing path is not an error.
func removeIfExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return devsyncerr.New(devsyncerr.Io, path, err)
	}
	return fsutil.RemoveTree(path)
}

//go:build unix

package fsutil

import (
	"os"
	"syscall"
)

func isOwnedBy(info os.FileInfo, uid int) (bool, error) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return true, nil
	}
	return int(st.Uid) == uid, nil
}

// CurrentUID returns the invoking user's uid, used to populate
// CopyOptions.OwnedOnlyUID when owned_only is set.
func CurrentUID() int {
	return os.Getuid()
}

//go:build linux || freebsd || darwin

package filesource

import "golang.org/x/sys/unix"

// adviseRandomAccess hints that the mapped region will be accessed in B-tree
// traversal order rather than sequentially, matching the kernel's readahead
// behavior to how a page-tree Walker actually visits pages. Failure is
// non-fatal: it only affects cache warmth, never correctness.
func adviseRandomAccess(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_RANDOM)
}

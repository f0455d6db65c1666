//go:build linux

package recorder

import "golang.org/x/sys/unix"

const bytesPerGB = 1024 * 1024 * 1024

func statFreeSpace(path string) (FreeSpace, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return FreeSpace{}, err
	}
	bs := uint64(st.Bsize)
	return FreeSpace{
		AvailableGB: float64(st.Bavail*bs) / bytesPerGB,
		TotalGB:     float64(st.Blocks*bs) / bytesPerGB,
	}, nil
}

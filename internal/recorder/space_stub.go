//go:build !linux

package recorder

import "errors"

func statFreeSpace(string) (FreeSpace, error) {
	return FreeSpace{}, errors.New("free space query not supported on this platform")
}

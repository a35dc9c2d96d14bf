//go:build !linux
// +build !linux

package numa

// discoverPlatform has no topology backend on non-Linux platforms; callers
// fall back to a single uniform ring (see Discover).
func discoverPlatform(n int) (nodes []int, ok bool) {
	return nil, false
}

//go:build linux
// +build linux

package numa

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// discoverPlatform parses /sys/devices/system/node/node*/cpulist to build
// real NUMA node membership. Returns ok=false (falling back to a single
// ring) when the sysfs hierarchy is absent, as under containers or on
// non-NUMA hardware.
func discoverPlatform(n int) (nodes []int, ok bool) {
	const base = "/sys/devices/system/node"

	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, false
	}

	nodes = make([]int, n)
	for i := range nodes {
		nodes[i] = -1
	}

	found := false
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "node") {
			continue
		}
		nodeID, err := strconv.Atoi(strings.TrimPrefix(name, "node"))
		if err != nil {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(base, name, "cpulist"))
		if err != nil {
			continue
		}
		for _, cpu := range parseCPUList(strings.TrimSpace(string(raw))) {
			if cpu >= 0 && cpu < n {
				nodes[cpu] = nodeID
				found = true
			}
		}
	}

	if !found {
		return nil, false
	}
	return nodes, true
}

// parseCPUList expands a Linux cpulist string such as "0-3,8,10-11" into
// individual CPU indices.
func parseCPUList(s string) []int {
	var out []int
	if s == "" {
		return out
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, found := strings.Cut(part, "-"); found {
			a, errA := strconv.Atoi(lo)
			b, errB := strconv.Atoi(hi)
			if errA != nil || errB != nil {
				continue
			}
			for v := a; v <= b; v++ {
				out = append(out, v)
			}
		} else {
			v, err := strconv.Atoi(part)
			if err != nil {
				continue
			}
			out = append(out, v)
		}
	}
	return out
}

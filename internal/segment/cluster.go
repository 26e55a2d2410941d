package segment

import (
	"sort"
	"strings"
)

// DefaultClusterDepth is the number of leading directories that form a cluster.
const DefaultClusterDepth = 2

// DirCluster returns the first depth directory segments of path, excluding
// the file name. Top-level files and empty paths yield "".
func DirCluster(path string, depth int) string {
	if path == "" {
		return ""
	}
	if depth <= 0 {
		depth = DefaultClusterDepth
	}
	var parts []string
	for _, p := range strings.Split(strings.ReplaceAll(path, `\`, "/"), "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) <= 1 {
		return ""
	}
	dirs := parts[:len(parts)-1]
	if len(dirs) > depth {
		dirs = dirs[:depth]
	}
	return strings.Join(dirs, "/")
}

// clusterCount is a frequency counter that remembers first-seen order.
type clusterCount struct {
	order  []string
	counts map[string]int
}

func countClusters[T any](items []T, file func(T) string, depth int) clusterCount {
	cc := clusterCount{counts: map[string]int{}}
	for _, it := range items {
		f := file(it)
		if f == "" {
			continue
		}
		c := DirCluster(f, depth)
		if _, seen := cc.counts[c]; !seen {
			cc.order = append(cc.order, c)
		}
		cc.counts[c]++
	}
	return cc
}

func (cc clusterCount) empty() bool { return len(cc.order) == 0 }

func (cc clusterCount) has(c string) bool {
	_, ok := cc.counts[c]
	return ok
}

// top returns the n most frequent clusters. Equal counts keep first-seen order.
func (cc clusterCount) top(n int) []string {
	ranked := append([]string(nil), cc.order...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return cc.counts[ranked[i]] > cc.counts[ranked[j]]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

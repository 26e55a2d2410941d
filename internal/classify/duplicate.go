package classify

import (
	"regexp"
	"sort"
	"strings"
)

// DuplicateThreshold is the minimum Jaccard overlap treated as a duplicate.
const DuplicateThreshold = 0.60

var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

func tokens(s string) map[string]bool {
	set := map[string]bool{}
	for _, w := range wordRe.FindAllString(strings.ToLower(s), -1) {
		set[w] = true
	}
	return set
}

// Similarity returns the Jaccard overlap of the word sets of a and b.
func Similarity(a, b string) float64 {
	ta, tb := tokens(a), tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for w := range ta {
		if tb[w] {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

// FindDuplicate returns the key of the first summary (in key order) whose
// overlap with candidate reaches DuplicateThreshold.
func FindDuplicate(candidate string, summaries map[string]string) (string, bool) {
	keys := make([]string, 0, len(summaries))
	for k := range summaries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if summaries[k] == "" {
			continue
		}
		if Similarity(candidate, summaries[k]) >= DuplicateThreshold {
			return k, true
		}
	}
	return "", false
}

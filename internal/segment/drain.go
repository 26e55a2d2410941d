// Package segment turns the raw activity buffer into work chunks.
package segment

import (
	"sort"

	"github.com/google/uuid"

	"github.com/fakeyudi/autopilot/internal/session"
)

// DefaultIdleMinutes is the idle threshold used when none is configured.
const DefaultIdleMinutes = 15

// IdleThreshold scales the configured idle threshold by accuracy and returns
// it in seconds. High accuracy uses a third of the base with a five minute
// floor, low accuracy doubles it.
func IdleThreshold(baseMinutes, accuracy int) int64 {
	if baseMinutes <= 0 {
		baseMinutes = DefaultIdleMinutes
	}
	minutes := baseMinutes
	switch {
	case accuracy >= 8:
		minutes = max(baseMinutes/3, 5)
	case accuracy <= 3:
		minutes = baseMinutes * 2
	}
	return int64(minutes) * 60
}

// Options controls how a buffer is split.
type Options struct {
	IdleThreshold int64 // seconds
	Accuracy      int
	ClusterDepth  int
	NewID         func() string // defaults to uuid.NewString
}

type group struct {
	acts     []session.Activity
	idleGap  int64 // gap that opened this group, 0 unless idle-triggered
	dirShift bool
}

// Segment groups activities into chunks. A new chunk starts when the gap to
// the previous activity exceeds the idle threshold, when the issue changes,
// or when a file moves into a directory cluster the current group (of at
// least two activities) has not touched.
func Segment(buf []session.Activity, opt Options) []session.WorkChunk {
	if len(buf) == 0 {
		return nil
	}
	if opt.NewID == nil {
		opt.NewID = uuid.NewString
	}
	if opt.IdleThreshold <= 0 {
		opt.IdleThreshold = IdleThreshold(DefaultIdleMinutes, opt.Accuracy)
	}

	sorted := append([]session.Activity(nil), buf...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	groups := []group{{acts: []session.Activity{sorted[0]}}}
	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		cur := &groups[len(groups)-1]
		gap := curr.Timestamp - prev.Timestamp

		idle := gap > opt.IdleThreshold
		issueChanged := prev.Issue != curr.Issue
		shift := !idle && !issueChanged && dirShift(cur.acts, prev, curr, opt.ClusterDepth)

		if idle || issueChanged || shift {
			g := group{acts: []session.Activity{curr}, dirShift: shift}
			if idle {
				g.idleGap = gap
			}
			groups = append(groups, g)
			continue
		}
		cur.acts = append(cur.acts, curr)
	}

	chunks := make([]session.WorkChunk, 0, len(groups))
	for i, g := range groups {
		switched := i > 0 && ContextSwitch(groups[i-1].acts, g.acts, opt.Accuracy, opt.ClusterDepth)
		chunks = append(chunks, toChunk(g, opt.NewID(), switched))
	}
	return chunks
}

func dirShift(current []session.Activity, prev, curr session.Activity, depth int) bool {
	if len(current) < 2 {
		return false
	}
	pd, cd := DirCluster(prev.File, depth), DirCluster(curr.File, depth)
	if pd == "" || cd == "" || pd == cd {
		return false
	}
	return !countClusters(current, activityFile, depth).has(cd)
}

func toChunk(g group, id string, switched bool) session.WorkChunk {
	first, last := g.acts[0], g.acts[len(g.acts)-1]
	c := session.WorkChunk{
		ID:               id,
		Issue:            first.Issue,
		StartTime:        first.Timestamp,
		EndTime:          last.Timestamp,
		Activities:       g.acts,
		FilesChanged:     []string{},
		IdleGaps:         []session.IdleGap{},
		NeedsAttribution: g.dirShift || switched,
	}
	seen := map[string]bool{}
	for _, a := range g.acts {
		if a.File != "" && !seen[a.File] {
			seen[a.File] = true
			c.FilesChanged = append(c.FilesChanged, a.File)
		}
	}
	if g.idleGap > 0 {
		c.IdleGaps = append(c.IdleGaps, session.IdleGap{
			StartTime: first.Timestamp - g.idleGap,
			EndTime:   first.Timestamp,
			Seconds:   g.idleGap,
		})
	}
	return c
}

// Drain segments the session buffer, appends the chunks and clears the
// buffer. It returns the new chunks.
func Drain(s *session.Session, opt Options) []session.WorkChunk {
	chunks := Segment(s.Buffer, opt)
	s.Chunks = append(s.Chunks, chunks...)
	s.Buffer = []session.Activity{}
	return chunks
}

package segment

import "github.com/fakeyudi/autopilot/internal/session"

func activityFile(a session.Activity) string { return a.File }

// ContextSwitch reports whether curr's top-2 directory clusters are disjoint
// from prev's. Low accuracy additionally requires both groups to hold at least
// three activities. Groups without file activity never switch.
func ContextSwitch(prev, curr []session.Activity, accuracy, depth int) bool {
	if len(prev) == 0 || len(curr) == 0 {
		return false
	}
	pc := countClusters(prev, activityFile, depth)
	cc := countClusters(curr, activityFile, depth)
	if pc.empty() || cc.empty() {
		return false
	}

	prevTop := pc.top(2)
	for _, c := range cc.top(2) {
		for _, p := range prevTop {
			if c == p {
				return false
			}
		}
	}

	if accuracy <= 3 {
		return len(prev) >= 3 && len(curr) >= 3
	}
	return true
}

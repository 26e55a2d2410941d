package hook

import (
	"regexp"
	"strings"

	"github.com/tidwall/sjson"

	"github.com/fakeyudi/autopilot/internal/session"
)

// gitCommit skips global options before the subcommand, including the ones
// that take a separate argument.
var gitCommit = regexp.MustCompile(`\bgit\s+(?:(?:-[Cc]|--git-dir|--work-tree|--namespace)\s+\S+\s+|-\S+\s+)*commit\b`)

// CommitHint returns the pre-tool-use response asking for the current issue
// key in a commit message. It reports false when no hint is needed.
func CommitHint(ev Event, current session.IssueRef) ([]byte, bool) {
	b, ok := ev.(Bash)
	if !ok || !gitCommit.MatchString(b.Command) {
		return nil, false
	}
	key, ok := current.Key()
	if !ok || strings.Contains(b.Command, key) {
		return nil, false
	}
	out, err := sjson.SetBytes([]byte(`{}`), "systemMessage",
		"Include the issue key "+key+" in the commit message (for example \""+key+": <summary>\").")
	if err != nil {
		return nil, false
	}
	return out, true
}

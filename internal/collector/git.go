package collector

import (
	"errors"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// GitRunner executes a git command and returns its output.
// This abstraction allows mocking in tests.
type GitRunner func(workDir string, args ...string) (string, error)

// GitCollector reads branch and commit information from a repository.
// Every method treats "not a repository" as empty output.
type GitCollector struct {
	WorkDir string
	Runner  GitRunner // if nil, uses the real git subprocess
}

// defaultGitRunner runs git as a real subprocess.
func defaultGitRunner(workDir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = workDir
	out, err := cmd.Output()
	return string(out), err
}

func (g *GitCollector) run(args ...string) (string, error) {
	runner := g.Runner
	if runner == nil {
		runner = defaultGitRunner
	}
	return runner(g.WorkDir, args...)
}

// Branch returns the current branch name, or "" outside a repository.
func (g *GitCollector) Branch() (string, error) {
	out, err := g.run("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		if isExitCode128(err) || errors.Is(err, exec.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// BranchIssue extracts an issue key from the current branch using pattern,
// where {key} stands for the project key. The first capture group is the
// issue key; without groups the whole match is used.
func (g *GitCollector) BranchIssue(pattern, projectKey string) string {
	branch, err := g.Branch()
	if err != nil || branch == "" || branch == "HEAD" {
		return ""
	}
	return MatchBranch(branch, pattern, projectKey)
}

// MatchBranch applies a branch pattern to a branch name.
func MatchBranch(branch, pattern, projectKey string) string {
	key := `[A-Z][A-Z0-9]+`
	if projectKey != "" {
		key = regexp.QuoteMeta(projectKey)
	}
	re, err := regexp.Compile(strings.ReplaceAll(pattern, "{key}", key))
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(branch)
	switch {
	case m == nil:
		return ""
	case len(m) > 1:
		return m[1]
	default:
		return m[0]
	}
}

var commitHash = regexp.MustCompile(`^[0-9a-f]{7,}\s+`)

// RecentCommits returns up to n commit subjects, newest first, without hashes.
func (g *GitCollector) RecentCommits(n int) []string {
	out, err := g.run("log", "--oneline", "-"+strconv.Itoa(n))
	if err != nil {
		return nil
	}
	lines := parseLogLines(out)
	for i, l := range lines {
		lines[i] = commitHash.ReplaceAllString(l, "")
	}
	return lines
}

var issuePrefix = regexp.MustCompile(`\b([A-Z][A-Z0-9]+)-\d+`)

// DetectProjectKey returns the most common issue prefix found in recent
// commit subjects and branch names. Ties go to the first seen.
func (g *GitCollector) DetectProjectKey() string {
	var text []string
	if out, err := g.run("log", "--oneline", "-50"); err == nil {
		text = append(text, out)
	}
	if out, err := g.run("branch", "-a"); err == nil {
		text = append(text, out)
	}
	return mostCommonPrefix(strings.Join(text, "\n"))
}

func mostCommonPrefix(text string) string {
	counts := map[string]int{}
	var order []string
	for _, m := range issuePrefix.FindAllStringSubmatch(text, -1) {
		if counts[m[1]] == 0 {
			order = append(order, m[1])
		}
		counts[m[1]]++
	}
	best := ""
	for _, k := range order {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

// isExitCode128 reports whether err is an *exec.ExitError with exit code 128.
func isExitCode128(err error) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode() == 128
	}
	return false
}

// parseLogLines splits git log output into individual commit lines,
// discarding empty lines.
func parseLogLines(output string) []string {
	lines := strings.Split(output, "\n")
	result := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			result = append(result, l)
		}
	}
	return result
}

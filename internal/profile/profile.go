// Package profile runs the interactive setup that writes the user's global
// autopilot file (~/.claude/autopilot.global.json): tracker credentials plus
// default settings used by every project.
package profile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fakeyudi/autopilot/internal/config"
	"github.com/fakeyudi/autopilot/internal/session"
)

// Wizard asks the setup questions on In and prints prompts to Out.
// Secret, when set, reads a value without echo (API tokens).
type Wizard struct {
	In     io.Reader
	Out    io.Writer
	Secret func() (string, error)
}

// Run walks through the prompts. Fields of existing are offered as defaults
// (edit mode); secrets already set are kept when the answer is empty.
func (w Wizard) Run(existing *config.Global) (*config.Global, error) {
	r := bufio.NewReader(w.In)

	readLine := func() (string, error) {
		line, err := r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(w.Out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(w.Out, "%s: ", prompt)
		}
		line, err := readLine()
		if err != nil {
			return "", err
		}
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askSecret := func(prompt, current string) (string, error) {
		if current != "" {
			prompt += " [keep existing]"
		}
		fmt.Fprintf(w.Out, "%s: ", prompt)
		var line string
		var err error
		if w.Secret != nil {
			line, err = w.Secret()
			fmt.Fprintln(w.Out)
		} else {
			line, err = readLine()
		}
		if err != nil {
			return "", err
		}
		if line = strings.TrimSpace(line); line == "" {
			return current, nil
		}
		return line, nil
	}

	askBool := func(prompt string, defaultVal bool) (bool, error) {
		def := "n"
		if defaultVal {
			def = "y"
		}
		ans, err := ask(prompt+" (y/n)", def)
		if err != nil {
			return false, err
		}
		return strings.EqualFold(ans, "y") || strings.EqualFold(ans, "yes"), nil
	}

	g := &config.Global{}
	if existing != nil {
		*g = *existing
	}
	defaults := config.Defaults()

	fmt.Fprintln(w.Out)
	fmt.Fprintln(w.Out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(w.Out, "  │         autopilot setup         │")
	fmt.Fprintln(w.Out, "  └─────────────────────────────────┘")
	fmt.Fprintln(w.Out)

	var err error
	if g.BaseURL, err = ask("  Jira site URL (https://<site>.atlassian.net)", g.BaseURL); err != nil {
		return nil, err
	}
	g.BaseURL = strings.TrimRight(g.BaseURL, "/")
	if g.Email, err = ask("  Atlassian account email", g.Email); err != nil {
		return nil, err
	}
	if g.APIToken, err = askSecret("  API token", g.APIToken); err != nil {
		return nil, err
	}
	if g.AnthropicAPIKey, err = askSecret("  Anthropic API key for summaries (optional)", g.AnthropicAPIKey); err != nil {
		return nil, err
	}

	autonomy := string(g.AutonomyLevel)
	if autonomy == "" {
		autonomy = string(defaults.AutonomyLevel)
	}
	if autonomy, err = ask("  Autonomy level (A auto-post and create, B auto-post, C approve everything)", autonomy); err != nil {
		return nil, err
	}
	g.AutonomyLevel = session.ParseAutonomy(autonomy)

	accuracy := g.Accuracy
	if accuracy == 0 {
		accuracy = defaults.Accuracy
	}
	answer, err := ask("  Accuracy 1-10", strconv.Itoa(accuracy))
	if err != nil {
		return nil, err
	}
	if n, convErr := strconv.Atoi(answer); convErr == nil {
		accuracy = n
	}
	g.Accuracy = min(max(accuracy, 1), 10)

	lang := g.LogLanguage
	if lang == "" {
		lang = defaults.LogLanguage
	}
	if g.LogLanguage, err = ask("  Worklog language", lang); err != nil {
		return nil, err
	}

	autoCreate, err := askBool("  Create issues automatically for untracked work", g.AutoCreateEnabled())
	if err != nil {
		return nil, err
	}
	g.AutoCreate = &autoCreate

	fmt.Fprintln(w.Out)
	return g, nil
}

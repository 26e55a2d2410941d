package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/autopilot/internal/collector"
	"github.com/fakeyudi/autopilot/internal/config"
	"github.com/fakeyudi/autopilot/internal/session"
)

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err = root.ExecuteC()
	return buf.String(), err
}

// executeWithInput runs rootCmd with input on stdin, as the host does for hooks.
func executeWithInput(input string, args ...string) (string, error) {
	rootCmd.SetIn(strings.NewReader(input))
	defer rootCmd.SetIn(nil)
	return executeCommand(rootCmd, args...)
}

// resetFlags restores flag variables, which cobra leaves set between runs.
func resetFlags() {
	rootDir = ""
	startSummary = ""
	approveAll = false
	approveIssue = ""
	jsonOutput = false
	summaryFormat = "markdown"
	summaryTUI = false
	summaryOutput = ""
	installBinary = ""
	installUninstall = false
}

// fakeGit answers the git commands the collector runs.
func fakeGit(branch, log string) collector.GitRunner {
	return func(workDir string, args ...string) (string, error) {
		switch args[0] {
		case "rev-parse":
			return branch + "\n", nil
		case "log":
			return log, nil
		}
		return "", nil
	}
}

// newProject isolates HOME, writes a global file holding creds (so the
// first-run wizard never starts) and returns a fresh project root.
func newProject(t *testing.T, project *config.Config, creds config.Credentials) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AUTOPILOT_DEBUG_LOG", "")
	t.Setenv("AUTOPILOT_API_LOG", "")
	resetFlags()
	gitRunner = fakeGit("main", "")
	t.Cleanup(func() { gitRunner = nil })

	if err := config.SaveGlobal(&config.Global{Credentials: creds}); err != nil {
		t.Fatalf("SaveGlobal: %v", err)
	}
	root := t.TempDir()
	if project != nil {
		if err := config.SaveProject(root, project); err != nil {
			t.Fatalf("SaveProject: %v", err)
		}
	}
	return root
}

func saveState(t *testing.T, root string, s *session.Session) {
	t.Helper()
	store, err := session.NewStore(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(s); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func loadState(t *testing.T, root string) *session.Session {
	t.Helper()
	store, err := session.NewStore(root)
	if err != nil {
		t.Fatal(err)
	}
	s, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

// jira is a recording stand-in for the Jira REST API.
type jira struct {
	mu       sync.Mutex
	posted   []string
	created  []string
	failPost bool
	onCreate func() // runs before the create response is sent
}

func (j *jira) postedKeys() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.posted...)
}

// serve starts the fake server and returns credentials pointing at it.
func (j *jira) serve(t *testing.T) config.Credentials {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/api/3/project/search", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values":[{"key":"ABC","name":"Alpha"},{"key":"XYZ","name":"Other"}],"isLast":true}`))
	})
	mux.HandleFunc("GET /rest/api/3/issue/{key}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"key":"` + r.PathValue("key") + `","fields":{"summary":"Login page"}}`))
	})
	mux.HandleFunc("POST /rest/api/3/issue", func(w http.ResponseWriter, r *http.Request) {
		j.mu.Lock()
		j.created = append(j.created, "ABC-9")
		j.mu.Unlock()
		if j.onCreate != nil {
			j.onCreate()
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"10009","key":"ABC-9"}`))
	})
	mux.HandleFunc("POST /rest/api/3/issue/{key}/worklog", func(w http.ResponseWriter, r *http.Request) {
		if j.failPost {
			http.Error(w, `{"errorMessages":["nope"]}`, http.StatusInternalServerError)
			return
		}
		j.mu.Lock()
		j.posted = append(j.posted, r.PathValue("key"))
		j.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return config.Credentials{BaseURL: srv.URL, Email: "me@example.com", APIToken: "token"}
}

func boolPtr(b bool) *bool { return &b }

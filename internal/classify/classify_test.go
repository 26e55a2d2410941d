package classify

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClassify(t *testing.T) {
	k := DefaultKeyword()
	tests := []struct {
		summary  string
		ctx      *Context
		wantType IssueType
		wantConf float64
	}{
		{"fix broken crash error regression", nil, Bug, 0.95},
		{"add create implement build setup", nil, Task, 0.95},
		{"update configuration", nil, Task, 0.65},
		{"write docs", nil, Task, 0.65},
		{"Login page crash", nil, Bug, 0.65},
		{"add fix for login", nil, Task, 0.65},
		{"fix the error", nil, Bug, 0.8},
		{"login page", &Context{FilesEdited: 2}, Bug, 0.65},
		{"login page", &Context{NewFilesCreated: 1, FilesEdited: 2}, Task, 0.65},
	}
	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			got := k.Classify(tt.summary, tt.ctx)
			if got.Type != tt.wantType {
				t.Errorf("Type = %s, want %s (signals %v)", got.Type, tt.wantType, got.Signals)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConf)
			}
		})
	}
}

func TestClassifyStrongBugConfidence(t *testing.T) {
	r := DefaultKeyword().Classify("fix broken crash error regression", nil)
	if r.Type != Bug || r.Confidence <= 0.7 {
		t.Fatalf("got %+v", r)
	}
}

func TestClassifySignalsFromBothLists(t *testing.T) {
	r := DefaultKeyword().Classify("Fix and refactor parser", nil)
	if want := []string{"fix", "refactor"}; !reflect.DeepEqual(r.Signals, want) {
		t.Errorf("Signals = %v, want %v", r.Signals, want)
	}
}

func TestClassifierIsPluggable(t *testing.T) {
	var c Classifier = Keyword{BugSignals: []string{"oops"}}
	if r := c.Classify("oops", nil); r.Type != Bug {
		t.Errorf("custom signals ignored: %+v", r)
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("Fix login crash on mobile", "fix login crash"); got < DuplicateThreshold {
		t.Errorf("Similarity = %v, want >= %v", got, DuplicateThreshold)
	}
	if got := Similarity("Add payment page", "fix login crash"); got != 0 {
		t.Errorf("Similarity = %v, want 0", got)
	}
	if got := Similarity("", "x"); got != 0 {
		t.Errorf("empty similarity = %v", got)
	}
}

func TestFindDuplicate(t *testing.T) {
	issues := map[string]string{
		"P-1": "Add payment page",
		"P-2": "Fix login crash on mobile",
		"P-3": "",
	}
	key, ok := FindDuplicate("fix login crash", issues)
	if !ok || key != "P-2" {
		t.Fatalf("FindDuplicate = %q, %v", key, ok)
	}
	if _, ok := FindDuplicate("Write release notes", issues); ok {
		t.Errorf("unexpected duplicate")
	}
}

func TestExtractSummary(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"please fix the login crash. It happens on mobile", "Fix the login crash"},
		{"Can you please add dark mode?", "Add dark mode"},
		{"I need to refactor the parser\nand more", "Refactor the parser"},
		{"let's   build the thing!", "Build the thing"},
		{"please", ""},
		{"   ", ""},
		{"עדכון המסמך", "עדכון המסמך"},
	}
	for _, tt := range tests {
		if got := ExtractSummary(tt.in); got != tt.want {
			t.Errorf("ExtractSummary(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractSummaryTruncates(t *testing.T) {
	got := ExtractSummary(strings.Repeat("word ", 40))
	if n := utf8.RuneCountInString(got); n > MaxSummaryLen {
		t.Errorf("length = %d", n)
	}
	if !strings.HasPrefix(got, "Word") {
		t.Errorf("not capitalised: %q", got)
	}
}

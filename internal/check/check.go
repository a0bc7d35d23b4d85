package check

import (
	"fmt"
	"io"
	"time"
)

const (
	NameInternalLinksValid = "internal_links_valid"
	NameAllHeadersLinked   = "all_headers_linked"
	NameSecondLevelSorted  = "second_level_headers_sorted"
	NameThirdLevelSorted   = "third_level_headers_sorted"
	NameLinksSortedInLists = "links_sorted_in_lists"
	NameExternalLinksValid = "external_links_valid"
)

// Violation is one offending item. Subject names the item (a URL, a header).
type Violation struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Message, v.Subject)
}

// Result is the outcome of one check. Warnings never fail a run.
type Result struct {
	Name       string      `json:"name"`
	Checked    int         `json:"checked"`
	Violations []Violation `json:"violations,omitempty"`
	Warnings   []Violation `json:"warnings,omitempty"`
}

func (r Result) Passed() bool { return len(r.Violations) == 0 }

// Options configures which headers and links the checks look at.
type Options struct {
	HeaderLinkSkip map[string]bool
	HeaderSortSkip map[string]bool
	LinkSortSkip   map[string]map[string]bool
	MaxHeaderLevel int
	Ignored        map[string]bool
	Accepted       map[int]bool
}

type Report struct {
	RunID    string        `json:"run_id"`
	Document string        `json:"document"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Results  []Result      `json:"results"`
}

func (r *Report) Passed() bool {
	return r.Failures() == 0
}

// Failures counts violations across all checks.
func (r *Report) Failures() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.Violations)
	}
	return n
}

// WriteText renders a human-readable summary listing every violation.
func (r *Report) WriteText(w io.Writer) error {
	for _, res := range r.Results {
		status := "PASS"
		if !res.Passed() {
			status = "FAIL"
		}
		if _, err := fmt.Fprintf(w, "%s %s (%d checked, %d failed, %d warnings)\n",
			status, res.Name, res.Checked, len(res.Violations), len(res.Warnings)); err != nil {
			return err
		}
		for _, v := range res.Violations {
			if _, err := fmt.Fprintf(w, "  - %s\n", v); err != nil {
				return err
			}
		}
		for _, v := range res.Warnings {
			if _, err := fmt.Fprintf(w, "  - %s\n", v); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, ">>> Failures: %d\n", r.Failures())
	return err
}

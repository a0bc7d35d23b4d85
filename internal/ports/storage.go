package ports

import "github.com/olgkv/readmecheck/internal/check"

// RunStore describes persistence of finished check runs.
type RunStore interface {
	Load() error
	Append(report *check.Report) error
	Recent(n int) []*check.Report
	Stats() (total int, passed int)
}

package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/olgkv/readmecheck/internal/check"
)

// maxRecordSize bounds a single history line; a report with thousands of
// violations stays well below it.
const maxRecordSize = 16 << 20

// JSONRepository keeps run reports as newline-delimited JSON, one run per line.
type JSONRepository struct {
	path string
}

func NewJSONRepository(path string) *JSONRepository {
	return &JSONRepository{path: path}
}

// Load reads every run in the file. Lines that do not decode, such as a
// record cut short by an interrupted write, are skipped with a warning.
func (r *JSONRepository) Load() ([]*check.Report, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, os.ErrNotExist
		}
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	var reports []*check.Report
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var report check.Report
		if err := json.Unmarshal(line, &report); err != nil {
			slog.Warn("Skipping malformed history record",
				"path", r.path, "line", lineNo, "error", err)
			continue
		}
		reports = append(reports, &report)
	}
	if err := sc.Err(); err != nil {
		return reports, fmt.Errorf("read %s line %d: %w", r.path, lineNo+1, err)
	}
	return reports, nil
}

// Append writes report as a single line. The file is created on first use.
// A previous record left without its newline is terminated first so the new
// run does not end up on the same line.
func (r *JSONRepository) Append(report *check.Report) error {
	line, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if size := info.Size(); size > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, size-1); err != nil {
			return err
		}
		if last[0] != '\n' {
			line = append([]byte{'\n'}, line...)
		}
	}

	_, err = f.Write(append(line, '\n'))
	return err
}

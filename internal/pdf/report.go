package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/olgkv/readmecheck/internal/check"
)

// BuildReport renders a run report: one section per check with every
// violation and warning.
func BuildReport(report *check.Report) ([]byte, error) {
	p := gofpdf.New("P", "mm", "A4", "")
	tr := p.UnicodeTranslatorFromDescriptor("")
	p.AddPage()
	p.SetFont("Arial", "B", 14)

	p.Cell(40, 10, tr(fmt.Sprintf("README check: %s", report.Document)))
	p.Ln(10)

	p.SetFont("Arial", "", 10)
	p.Cell(40, 6, fmt.Sprintf("Run %s, %s, %d failures", report.RunID, report.Started.Format("2006-01-02 15:04:05 MST"), report.Failures()))
	p.Ln(10)

	for _, res := range report.Results {
		status := "PASS"
		if !res.Passed() {
			status = "FAIL"
		}
		p.SetFont("Arial", "B", 12)
		p.Cell(40, 8, fmt.Sprintf("%s %s (%d checked)", status, res.Name, res.Checked))
		p.Ln(8)

		p.SetFont("Arial", "", 9)
		for _, v := range res.Violations {
			p.MultiCell(0, 5, tr("- "+v.String()), "", "L", false)
		}
		for _, v := range res.Warnings {
			p.MultiCell(0, 5, tr("- "+v.String()), "", "L", false)
		}
		p.Ln(4)
	}

	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

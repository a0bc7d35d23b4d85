package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/olgkv/readmecheck/internal/app"
	"github.com/olgkv/readmecheck/internal/config"
)

// errChecksFailed signals a completed run with violations.
var errChecksFailed = errors.New("checks failed")

type CLI struct {
	Config  string `short:"c" help:"Configuration file path (optional)" type:"path"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Check   CheckCmd   `cmd:"" default:"withargs" help:"Check a README (default command)"`
	History HistoryCmd `cmd:"" help:"Show past runs recorded in a history file"`
}

// AfterApply sets up logging once flags are parsed.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

type CheckCmd struct {
	Readme       string `arg:"" optional:"" help:"README to check (defaults to README.md)" type:"path"`
	SkipExternal bool   `help:"Run only the structural checks"`
	HistoryFile  string `help:"Append the run to this NDJSON history file" type:"path"`
	ReportPDF    string `name:"report-pdf" help:"Write a PDF report to this path" type:"path"`
	MetricsFile  string `help:"Write Prometheus metrics in textfile format to this path" type:"path"`
}

func (c *CheckCmd) Run(cli *CLI, stdout io.Writer) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.Readme != "" {
		cfg.ReadmePath = c.Readme
	}

	runner, err := app.New(cfg, app.RunOptions{
		SkipExternal: c.SkipExternal,
		HistoryFile:  c.HistoryFile,
		PDFFile:      c.ReportPDF,
		MetricsFile:  c.MetricsFile,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := runner.Run(ctx)
	if report != nil {
		if werr := report.WriteText(stdout); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}
	if !report.Passed() {
		return errChecksFailed
	}
	return nil
}

type HistoryCmd struct {
	File  string `arg:"" help:"NDJSON history file" type:"path"`
	Limit int    `short:"n" help:"Number of runs to show" default:"10"`
}

func (c *HistoryCmd) Run(stdout io.Writer) error {
	history, err := app.History(c.File, c.Limit)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%d runs, %d passed, %d failed\n", history.Total, history.Passed, history.Total-history.Passed)
	for _, r := range history.Runs {
		status := "PASS"
		if !r.Passed() {
			status = "FAIL"
		}
		fmt.Fprintf(stdout, "%s %s %s %s failures=%d duration=%s\n",
			r.Started.Format("2006-01-02T15:04:05Z07:00"), r.RunID, status, r.Document, r.Failures(), r.Duration)
	}
	return nil
}

func run(args []string, stdout io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("readmecheck"),
		kong.Description("Validate the structure and links of an awesome-list style README."),
		kong.BindTo(stdout, (*io.Writer)(nil)),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kctx.Run(&cli)
}

func main() {
	// .env is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env", "error", err)
	}

	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errChecksFailed) {
			slog.Error("readmecheck failed", "error", err)
		}
		os.Exit(1)
	}
}

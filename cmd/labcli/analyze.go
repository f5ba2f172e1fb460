package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"labassist/internal/app"
	"labassist/internal/config"
	"labassist/internal/domain"
	"labassist/internal/logging"
	"labassist/internal/present"
)

var fileFlag = &cli.StringFlag{
	Name:     "file",
	Aliases:  []string{"f"},
	Usage:    "lab report to analyze (PDF, image or text)",
	Required: true,
}

var cmdAnalyze = &cli.Command{
	Name:  "analyze",
	Usage: "Extract and interpret a lab report",
	Flags: []cli.Flag{
		fileFlag,
		&cli.StringSliceFlag{
			Name:  "ask",
			Usage: "question to ask after interpretation (repeatable)",
		},
		&cli.BoolFlag{
			Name:    "interactive",
			Aliases: []string{"i"},
			Usage:   "keep asking questions from stdin until 'exit'",
		},
		&cli.BoolFlag{
			Name:  "metrics",
			Usage: "print stage timings and error counts before exiting",
		},
	},
	Action: analyze,
}

func analyze(ctx context.Context, cmd *cli.Command) error {
	a, logger, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	session, err := analyzeFile(ctx, a, cmd.String("file"))
	if err != nil {
		return err
	}
	defer func() { _ = a.Orchestrator.End(session.ID) }()

	out := cmd.Root().Writer
	if out == nil {
		out = os.Stdout
	}
	if cmd.Bool("metrics") {
		defer present.Metrics(out, a.Metrics)
	}
	present.ExtractionSummary(out, session.Report)
	present.Interpretation(out, session.Interpretation)

	for _, q := range cmd.StringSlice("ask") {
		ask(ctx, a, out, session.ID, q)
	}
	if cmd.Bool("interactive") {
		return interactive(ctx, a, os.Stdin, out, session.ID)
	}
	return nil
}

// setup loads configuration and wires the services. Logs go to stderr at warn
// level unless LABASSIST_LOG_LEVEL says otherwise, keeping stdout for results.
func setup(ctx context.Context) (*app.App, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if os.Getenv("LABASSIST_LOG_LEVEL") == "" {
		cfg.Log.Level = "warn"
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

func analyzeFile(ctx context.Context, a *app.App, path string) (*domain.Session, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	session, err := a.Orchestrator.Analyze(ctx, uuid.Nil, doc)
	if err != nil {
		return nil, describe(err)
	}
	return session, nil
}

func ask(ctx context.Context, a *app.App, out io.Writer, id uuid.UUID, question string) {
	fmt.Fprintf(out, "\nQ: %s\n", question)
	answer, _, err := a.Orchestrator.Ask(ctx, id, question)
	if err != nil {
		fmt.Fprintf(out, "!! %v\n", describe(err))
		return
	}
	fmt.Fprintf(out, "A: %s\n", answer)
}

func interactive(ctx context.Context, a *app.App, in io.Reader, out io.Writer, id uuid.UUID) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		ask(ctx, a, out, id, line)
	}
}

// describe turns pipeline errors into a message naming the failed stage.
func describe(err error) error {
	var stageErr *domain.StageError
	if !errors.As(err, &stageErr) {
		return err
	}
	hint := "the document or question could not be processed"
	if stageErr.Transient {
		hint = "the reasoning service is unavailable, try again shortly"
	}
	return fmt.Errorf("%s: %w", hint, err)
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"labassist/internal/service"
)

var cmdExport = &cli.Command{
	Name:  "export",
	Usage: "Analyze a lab report and write the results as CSV or XLSX",
	Flags: []cli.Flag{
		fileFlag,
		&cli.StringFlag{
			Name:  "format",
			Value: service.FormatCSV,
			Usage: "csv or xlsx",
		},
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "output path (defaults to a name derived from the patient)",
		},
	},
	Action: export,
}

func export(ctx context.Context, cmd *cli.Command) error {
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

	out, err := a.Exports.Export(ctx, session.ID, cmd.String("format"))
	if err != nil {
		return err
	}
	path := cmd.String("out")
	if path == "" {
		path = out.Filename
	}
	if err := os.WriteFile(path, out.Data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Printf("Wrote %d tests to %s\n", len(session.Report.TestResults), path)
	return nil
}

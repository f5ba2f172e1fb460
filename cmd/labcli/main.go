package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "labcli",
		Usage: "Analyze lab reports and ask follow-up questions from the terminal",
		Commands: []*cli.Command{
			cmdAnalyze,
			cmdExport,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// students-api is the entry point of the student records service.
//
// Commands:
//
//	serve   load config, ensure the schema, serve the JSON API (default)
//	setup   ensure the schema and optionally insert sample students
//
// Running:
//
//	go run ./cmd/students-api --config=config/local.yaml serve
//	CONFIG_PATH=config/local.yaml go run ./cmd/students-api setup --seed
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

const version = "1.1.0"

func main() {
	app := &cli.Command{
		Name:    "students-api",
		Usage:   "Student record service",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the configuration YAML file (environment only when empty)",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			serveCommand(),
			setupCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "students-api: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "ignitectl",
		Usage: "administer the ignite challenge",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the configuration file"},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			awardsCommand(),
			judgingCommand(),
			timeslotsCommand(),
			blogCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

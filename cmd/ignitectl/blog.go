package main

import (
	"fmt"

	blogservice "github.com/mozilla/mozilla-ignite/app/modules/blog/application"
	"github.com/urfave/cli/v2"
)

func blogCommand() *cli.Command {
	return &cli.Command{
		Name:  "blog",
		Usage: "site feed entries",
		Subcommands: []*cli.Command{
			{
				Name:  "import",
				Usage: "import configured feeds, or one feed with --page and --url",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "page"},
					&cli.StringFlag{Name: "url"},
				},
				Action: withEnv(func(c *cli.Context, e *env) error {
					m, err := e.blog(c.Context)
					if err != nil {
						return err
					}

					var imported []blogservice.ImportResult
					if c.IsSet("url") {
						if c.String("page") == "" {
							return fmt.Errorf("--page is required with --url")
						}
						res, err := m.BlogService.ImportFeed(c.Context, c.String("page"), c.String("url"))
						if err != nil {
							return err
						}
						imported = append(imported, res)
					} else {
						imported, err = m.BlogService.ImportAll(c.Context)
					}

					for _, r := range imported {
						fmt.Fprintf(c.App.Writer, "%s: %d new, %d kept, %d removed\n", r.Page, r.Created, r.Existing, r.Deleted)
					}
					return err
				}),
			},
		},
	}
}

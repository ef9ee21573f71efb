package main

import (
	"fmt"

	"github.com/mozilla/mozilla-ignite/pkg/clock"
	"github.com/urfave/cli/v2"
)

func timeslotsCommand() *cli.Command {
	return &cli.Command{
		Name:  "timeslots",
		Usage: "webcast releases and booking availability",
		Subcommands: []*cli.Command{
			{
				Name:  "assign",
				Usage: "give every green-lit submission of a release the date it may start booking",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "release", Required: true},
					&cli.StringFlag{Name: "start", Value: "now", Usage: `first availability date, RFC3339 or e.g. "next monday 9am"`},
					&cli.BoolFlag{Name: "dry-run", Usage: "print the plan without writing it"},
				},
				Action: withEnv(func(c *cli.Context, e *env) error {
					start, err := clock.ParseTime(c.String("start"), e.clock.Now())
					if err != nil {
						return err
					}
					m, err := e.timeslot(c.Context)
					if err != nil {
						return err
					}
					plan, err := m.TimeslotService.AssignAvailability(c.Context, c.Int64("release"), start, !c.Bool("dry-run"))
					if err != nil {
						return err
					}
					for _, entry := range plan.Entries {
						fmt.Fprintf(c.App.Writer, "submission %d available on %s\n", entry.SubmissionID, entry.AvailableOn.Format("2006-01-02 15:04 MST"))
					}
					if plan.Committed {
						fmt.Fprintf(c.App.Writer, "Saved availability for %d submissions\n", len(plan.Entries))
					} else {
						fmt.Fprintf(c.App.Writer, "Dry run: %d submissions planned, nothing written\n", len(plan.Entries))
					}
					return nil
				}),
			},
			{
				Name:  "current",
				Usage: "make a release the one open for booking",
				Flags: []cli.Flag{&cli.Int64Flag{Name: "release", Required: true}},
				Action: withEnv(func(c *cli.Context, e *env) error {
					m, err := e.timeslot(c.Context)
					if err != nil {
						return err
					}
					if err := m.TimeslotService.SetCurrentRelease(c.Context, c.Int64("release")); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Release %d is now current\n", c.Int64("release"))
					return nil
				}),
			},
			{
				Name:  "notify",
				Usage: "remind owners of unbooked green-lit submissions",
				Action: withEnv(func(c *cli.Context, e *env) error {
					m, err := e.timeslot(c.Context)
					if err != nil {
						return err
					}
					sent, err := m.TimeslotService.NotifyPending(c.Context)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Sent %d booking reminders\n", sent)
					return nil
				}),
			},
		},
	}
}

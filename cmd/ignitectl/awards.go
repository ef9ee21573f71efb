package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
)

func awardsCommand() *cli.Command {
	return &cli.Command{
		Name:  "awards",
		Usage: "manage judge award budgets",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "create a pending award for a phase",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "phase", Required: true},
					&cli.Int64Flag{Name: "round"},
					&cli.Int64Flag{Name: "amount", Required: true},
					&cli.StringFlag{Name: "note"},
				},
				Action: withEnv(func(c *cli.Context, e *env) error {
					m, err := e.award(c.Context)
					if err != nil {
						return err
					}
					a, err := m.AwardService.CreateAward(c.Context, c.Int64("phase"), optionalID(c, "round"), c.Int64("amount"), c.String("note"))
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Created award %d (%s) for $%d\n", a.ID, a.Status, a.Amount)
					return nil
				}),
			},
			{
				Name:      "distribute",
				Usage:     "split an award evenly among the judges",
				ArgsUsage: "<award id>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					awardID, err := idArg(c, "award")
					if err != nil {
						return err
					}
					m, err := e.award(c.Context)
					if err != nil {
						return err
					}
					d, err := m.AwardService.Distribute(c.Context, awardID)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Distributed $%d to each of %d judges, $%d left undistributed\n", d.Share, len(d.Allowances), d.Undistributed)
					return nil
				}),
			},
			{
				Name:      "release",
				Usage:     "let judges spend an award",
				ArgsUsage: "<award id>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					awardID, err := idArg(c, "award")
					if err != nil {
						return err
					}
					m, err := e.award(c.Context)
					if err != nil {
						return err
					}
					if err := m.AwardService.ReleaseAward(c.Context, awardID); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Award %d released\n", awardID)
					return nil
				}),
			},
			{
				Name:      "freeze",
				Usage:     "stop further allocation from an award",
				ArgsUsage: "<award id>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					awardID, err := idArg(c, "award")
					if err != nil {
						return err
					}
					m, err := e.award(c.Context)
					if err != nil {
						return err
					}
					if err := m.AwardService.FreezeAward(c.Context, awardID); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Award %d frozen\n", awardID)
					return nil
				}),
			},
			{
				Name:      "summary",
				Usage:     "print how much each judge has used",
				ArgsUsage: "<award id>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					awardID, err := idArg(c, "award")
					if err != nil {
						return err
					}
					m, err := e.award(c.Context)
					if err != nil {
						return err
					}
					s, err := m.AwardService.Summary(c.Context, awardID)
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintf(tw, "Award %d\t%s\t$%d\n", s.AwardID, s.Status, s.Amount)
					fmt.Fprintln(tw, "JUDGE\tAMOUNT\tUSED\tREMAINING")
					for _, l := range s.Lines {
						fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", l.Judge, l.Amount, l.Used, l.Remaining)
					}
					return tw.Flush()
				}),
			},
			{
				Name:      "export",
				Usage:     "write the award spreadsheet",
				ArgsUsage: "<award id>",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "out", Value: "award.xlsx"}},
				Action: withEnv(func(c *cli.Context, e *env) error {
					awardID, err := idArg(c, "award")
					if err != nil {
						return err
					}
					m, err := e.award(c.Context)
					if err != nil {
						return err
					}
					data, err := m.AwardService.ExportAward(c.Context, awardID)
					if err != nil {
						return err
					}
					return writeFile(c, c.String("out"), data)
				}),
			},
			{
				Name:      "chart",
				Usage:     "render budget usage per judge as PNG",
				ArgsUsage: "<award id>",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "out", Value: "award-usage.png"}},
				Action: withEnv(func(c *cli.Context, e *env) error {
					awardID, err := idArg(c, "award")
					if err != nil {
						return err
					}
					m, err := e.award(c.Context)
					if err != nil {
						return err
					}
					data, err := m.AwardService.UsageChart(c.Context, awardID)
					if err != nil {
						return err
					}
					return writeFile(c, c.String("out"), data)
				}),
			},
		},
	}
}

package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func judgingCommand() *cli.Command {
	return &cli.Command{
		Name:  "judging",
		Usage: "judge assignment and reporting",
		Subcommands: []*cli.Command{
			{
				Name:  "assign",
				Usage: "assign judges to every unjudged submission of a phase",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "phase", Usage: "phase id, defaults to the phase that ended last"},
					&cli.Int64Flag{Name: "round"},
					&cli.IntFlag{Name: "k", Usage: "judges per submission, defaults to judging.judges_per_submission"},
					&cli.BoolFlag{Name: "dry-run", Usage: "print the plan without writing it"},
				},
				Action: withEnv(func(c *cli.Context, e *env) error {
					phaseID, err := phaseOrJudgingPhase(c, e)
					if err != nil {
						return err
					}
					k := e.cfg.Judging.JudgesPerSubmission
					if c.IsSet("k") {
						k = c.Int("k")
					}
					m, err := e.judging(c.Context)
					if err != nil {
						return err
					}
					plan, err := m.JudgingService.AssignJudges(c.Context, phaseID, optionalID(c, "round"), k, !c.Bool("dry-run"))
					if err != nil {
						return err
					}
					for _, p := range plan.Pairs {
						fmt.Fprintf(c.App.Writer, "submission %d -> judge %d\n", p.SubmissionID, p.ProfileID)
					}
					if plan.Committed {
						fmt.Fprintf(c.App.Writer, "Assigned %d pairs across %d submissions and %d judges\n", plan.Written, plan.Submissions, plan.Judges)
					} else {
						fmt.Fprintf(c.App.Writer, "Dry run: %d pairs planned, nothing written\n", len(plan.Pairs))
					}
					return nil
				}),
			},
			{
				Name:  "export",
				Usage: "write judgements and assignments of a phase as a spreadsheet",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "phase"},
					&cli.StringFlag{Name: "out", Value: "judgements.xlsx"},
				},
				Action: withEnv(func(c *cli.Context, e *env) error {
					phaseID, err := phaseOrJudgingPhase(c, e)
					if err != nil {
						return err
					}
					m, err := e.judging(c.Context)
					if err != nil {
						return err
					}
					data, err := m.JudgingService.ExportJudgements(c.Context, phaseID)
					if err != nil {
						return err
					}
					return writeFile(c, c.String("out"), data)
				}),
			},
		},
	}
}

// phaseOrJudgingPhase uses --phase, or the phase of the challenge that ended last.
func phaseOrJudgingPhase(c *cli.Context, e *env) (int64, error) {
	if c.IsSet("phase") {
		return c.Int64("phase"), nil
	}
	ch, err := e.challenge(c.Context)
	if err != nil {
		return 0, err
	}
	phase, err := ch.ChallengeService.JudgingPhase(c.Context, e.cfg.Challenge.Slug)
	if err != nil {
		return 0, fmt.Errorf("no phase given and none has ended: %w", err)
	}
	return phase.ID, nil
}

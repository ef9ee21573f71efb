package judgingservice

import (
	"context"
	"errors"

	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
	judgingdomain "github.com/mozilla/mozilla-ignite/app/modules/judging/domain"
	"github.com/mozilla/mozilla-ignite/pkg/results"
	"github.com/mozilla/mozilla-ignite/pkg/spreadsheet"
	"github.com/uptrace/bun"
)

// ExportJudgements renders the phase's judgements and assignments as an
// xlsx workbook. Incomplete judgements have an empty score cell.
func (s *JudgingService) ExportJudgements(ctx context.Context, phaseID int64) ([]byte, error) {
	return execute(s, ctx, "ExportJudgements", phaseID, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]byte, error], error) {
		criteria, err := s.phaseCriteria(ctx, db, phaseID)
		if err != nil {
			return infraError[[]byte]("failed to load criteria: %w", err)
		}
		judgements, err := s.repo.ListJudgementsForPhase(ctx, db, phaseID)
		if err != nil {
			return infraError[[]byte]("failed to list judgements: %w", err)
		}
		assignments, err := s.repo.ListAssignmentsForPhase(ctx, db, phaseID)
		if err != nil {
			return infraError[[]byte]("failed to list assignments: %w", err)
		}

		var profileIDs []int64
		for _, j := range judgements {
			profileIDs = append(profileIDs, j.ProfileID)
		}
		for _, a := range assignments {
			profileIDs = append(profileIDs, a.ProfileID)
		}
		profiles, err := s.challenges.GetProfiles(ctx, db, profileIDs)
		if err != nil {
			return infraError[[]byte]("failed to load judges: %w", err)
		}
		names := make(map[int64]string, len(profiles))
		for _, p := range profiles {
			names[p.ID] = p.Name
		}

		titles := map[int64]string{}
		title := func(submissionID int64) (string, error) {
			if t, ok := titles[submissionID]; ok {
				return t, nil
			}
			sub, err := s.challenges.GetSubmission(ctx, db, submissionID)
			if err != nil && !errors.Is(err, challengedb.ErrNotFound) {
				return "", err
			}
			if sub != nil {
				titles[submissionID] = sub.Title
			}
			return titles[submissionID], nil
		}

		judged := map[[2]int64]bool{}
		judgementRows := make([][]any, 0, len(judgements))
		for _, j := range judgements {
			t, err := title(j.SubmissionID)
			if err != nil {
				return infraError[[]byte]("failed to get submission: %w", err)
			}
			judged[[2]int64{j.SubmissionID, j.ProfileID}] = true
			var score any = ""
			if v, err := judgingdomain.Score(criteria, j.DomainAnswers()); err == nil {
				score = v
			}
			judgementRows = append(judgementRows, []any{j.SubmissionID, t, names[j.ProfileID], score, j.Notes})
		}

		assignmentRows := make([][]any, 0, len(assignments))
		for _, a := range assignments {
			t, err := title(a.SubmissionID)
			if err != nil {
				return infraError[[]byte]("failed to get submission: %w", err)
			}
			status := "no"
			if judged[[2]int64{a.SubmissionID, a.ProfileID}] {
				status = "yes"
			}
			assignmentRows = append(assignmentRows, []any{a.SubmissionID, t, names[a.ProfileID], status})
		}

		data, err := spreadsheet.Build(
			spreadsheet.Sheet{
				Name:   "Judgements",
				Header: []string{"Submission", "Title", "Judge", "Score", "Notes"},
				Rows:   judgementRows,
			},
			spreadsheet.Sheet{
				Name:   "Assignments",
				Header: []string{"Submission", "Title", "Judge", "Judged"},
				Rows:   assignmentRows,
			},
		)
		if err != nil {
			return infraError[[]byte]("failed to build workbook: %w", err)
		}
		return success(data)
	})
}

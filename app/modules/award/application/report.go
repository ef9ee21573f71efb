package awardservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	awarddomain "github.com/mozilla/mozilla-ignite/app/modules/award/domain"
	awarddb "github.com/mozilla/mozilla-ignite/app/modules/award/infrastructure/repositories"
	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
	"github.com/mozilla/mozilla-ignite/pkg/results"
	"github.com/mozilla/mozilla-ignite/pkg/spreadsheet"
	"github.com/uptrace/bun"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNothingToChart is returned for awards that have no funded allowances yet.
var ErrNothingToChart = errors.New("award has no allowances to chart")

// Summary reports each judge's allowance against what they have awarded.
func (s *AwardService) Summary(ctx context.Context, awardID int64) (Summary, error) {
	return execute(s, ctx, "Summary", id64(awardID), func(ctx context.Context, db bun.IDB) (results.OperationResult[Summary, error], error) {
		return s.summary(ctx, db, awardID)
	})
}

func (s *AwardService) summary(ctx context.Context, db bun.IDB, awardID int64) (results.OperationResult[Summary, error], error) {
	award, err := s.repo.GetAward(ctx, db, awardID)
	if err != nil {
		if errors.Is(err, awarddb.ErrNotFound) {
			return failure[Summary](awarddomain.ErrAwardNotFound)
		}
		return infraError[Summary]("failed to get award: %w", err)
	}

	usage, err := s.repo.Usage(ctx, db, awardID)
	if err != nil {
		return infraError[Summary]("failed to load usage: %w", err)
	}

	names, err := s.judgeNames(ctx, db, usage)
	if err != nil {
		return infraError[Summary]("failed to load judges: %w", err)
	}

	summary := Summary{
		AwardID: award.ID,
		Status:  string(award.Status),
		Amount:  award.Amount,
		Lines:   make([]SummaryLine, 0, len(usage)),
	}
	for _, u := range usage {
		summary.Distributed += u.Amount
		summary.Used += u.Used
		summary.Lines = append(summary.Lines, SummaryLine{
			AllowanceID: u.AllowanceID,
			ProfileID:   u.ProfileID,
			Judge:       names[u.ProfileID],
			Amount:      u.Amount,
			Used:        u.Used,
			Remaining:   u.Amount - u.Used,
		})
	}
	return success(summary)
}

func (s *AwardService) judgeNames(ctx context.Context, db bun.IDB, usage []awarddb.AllowanceUsage) (map[int64]string, error) {
	ids := make([]int64, 0, len(usage))
	for _, u := range usage {
		ids = append(ids, u.ProfileID)
	}
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	profiles, err := s.challenges.GetProfiles(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		names[p.ID] = p.Name
	}
	return names, nil
}

// ExportAward renders the award summary and every submission award as xlsx.
func (s *AwardService) ExportAward(ctx context.Context, awardID int64) ([]byte, error) {
	return execute(s, ctx, "ExportAward", id64(awardID), func(ctx context.Context, db bun.IDB) (results.OperationResult[[]byte, error], error) {
		res, err := s.summary(ctx, db, awardID)
		if err != nil || res.IsFailure() {
			return results.OperationResult[[]byte, error]{Failure: res.Failure}, err
		}
		summary := *res.Success

		allowances := spreadsheet.Sheet{
			Name:   "Allowances",
			Header: []string{"Judge", "Allowance", "Used", "Remaining"},
		}
		awards := spreadsheet.Sheet{
			Name:   "Awards",
			Header: []string{"Judge", "Submission", "Amount", "Updated"},
		}
		titles := map[int64]string{}
		for _, line := range summary.Lines {
			allowances.Rows = append(allowances.Rows, []any{line.Judge, line.Amount, line.Used, line.Remaining})

			rows, err := s.repo.ListSubmissionAwards(ctx, db, line.AllowanceID)
			if err != nil {
				return infraError[[]byte]("failed to list submission awards: %w", err)
			}
			for _, sa := range rows {
				title, err := s.submissionTitle(ctx, db, titles, sa.SubmissionID)
				if err != nil {
					return infraError[[]byte]("failed to get submission: %w", err)
				}
				awards.Rows = append(awards.Rows, []any{line.Judge, title, sa.Amount, sa.UpdatedAt.UTC().Format("2006-01-02 15:04")})
			}
		}

		data, err := spreadsheet.Build(allowances, awards)
		if err != nil {
			return infraError[[]byte]("failed to build export: %w", err)
		}
		return success(data)
	})
}

func (s *AwardService) submissionTitle(ctx context.Context, db bun.IDB, cache map[int64]string, submissionID int64) (string, error) {
	if title, ok := cache[submissionID]; ok {
		return title, nil
	}
	sub, err := s.challenges.GetSubmission(ctx, db, submissionID)
	if err != nil {
		if errors.Is(err, challengedb.ErrNotFound) {
			return fmt.Sprintf("#%d", submissionID), nil
		}
		return "", err
	}
	cache[submissionID] = sub.Title
	return sub.Title, nil
}

// UsageChart draws one stacked bar per judge: used against remaining.
func (s *AwardService) UsageChart(ctx context.Context, awardID int64) ([]byte, error) {
	return execute(s, ctx, "UsageChart", id64(awardID), func(ctx context.Context, db bun.IDB) (results.OperationResult[[]byte, error], error) {
		res, err := s.summary(ctx, db, awardID)
		if err != nil || res.IsFailure() {
			return results.OperationResult[[]byte, error]{Failure: res.Failure}, err
		}
		data, err := renderUsageChart(*res.Success)
		if err != nil {
			if errors.Is(err, ErrNothingToChart) {
				return failure[[]byte](err)
			}
			return infraError[[]byte]("failed to render chart: %w", err)
		}
		return success(data)
	})
}

var (
	usedColor      = drawing.ColorFromHex("e66000")
	remainingColor = drawing.ColorFromHex("9bb8d3")
)

func renderUsageChart(summary Summary) ([]byte, error) {
	var bars []chart.StackedBar
	for _, line := range summary.Lines {
		if line.Amount <= 0 {
			continue
		}
		name := line.Judge
		if name == "" {
			name = fmt.Sprintf("judge %d", line.ProfileID)
		}
		bars = append(bars, chart.StackedBar{
			Name: name,
			Values: []chart.Value{
				{Label: "Used", Value: float64(line.Used), Style: chart.Style{FillColor: usedColor, StrokeColor: usedColor}},
				{Label: "Remaining", Value: float64(max(line.Remaining, 0)), Style: chart.Style{FillColor: remainingColor, StrokeColor: remainingColor}},
			},
		})
	}
	if len(bars) == 0 {
		return nil, ErrNothingToChart
	}

	graph := chart.StackedBarChart{
		Title:      fmt.Sprintf("Award %d usage", summary.AwardID),
		Width:      max(400, 120*len(bars)),
		Height:     400,
		BarSpacing: 40,
		Bars:       bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

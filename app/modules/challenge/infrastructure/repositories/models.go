package challengedb

import (
	"time"

	challengedomain "github.com/mozilla/mozilla-ignite/app/modules/challenge/domain"
	"github.com/uptrace/bun"
)

// Challenge is a top-level competition.
type Challenge struct {
	bun.BaseModel `bun:"table:challenges,alias:c"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Slug      string    `bun:"slug,notnull,unique"`
	Title     string    `bun:"title,notnull"`
	Summary   string    `bun:"summary,notnull,default:''"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Phase is a top-level time window of a challenge.
type Phase struct {
	bun.BaseModel `bun:"table:phases,alias:p"`

	ID               int64        `bun:"id,pk,autoincrement"`
	ChallengeID      int64        `bun:"challenge_id,notnull"`
	Name             string       `bun:"name,notnull"`
	Order            int          `bun:"sort_order,notnull"`
	StartDate        time.Time    `bun:"start_date,notnull"`
	EndDate          time.Time    `bun:"end_date,notnull"`
	JudgingStartDate *time.Time   `bun:"judging_start_date"`
	JudgingEndDate   *time.Time   `bun:"judging_end_date"`
	Rounds           []PhaseRound `bun:"rel:has-many,join:id=phase_id"`
}

// PhaseRound narrows submission and editing within a phase.
type PhaseRound struct {
	bun.BaseModel `bun:"table:phase_rounds,alias:pr"`

	ID               int64      `bun:"id,pk,autoincrement"`
	PhaseID          int64      `bun:"phase_id,notnull"`
	Name             string     `bun:"name,notnull"`
	StartDate        time.Time  `bun:"start_date,notnull"`
	EndDate          time.Time  `bun:"end_date,notnull"`
	JudgingStartDate *time.Time `bun:"judging_start_date"`
	JudgingEndDate   *time.Time `bun:"judging_end_date"`
}

// Profile is a platform user.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:pf"`

	ID      int64  `bun:"id,pk,autoincrement"`
	Name    string `bun:"name,notnull"`
	Email   string `bun:"email,notnull,unique"`
	IsJudge bool   `bun:"is_judge,notnull,default:false"`
	IsStaff bool   `bun:"is_staff,notnull,default:false"`
}

// Submission is a user's entry into a phase.
type Submission struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID           int64     `bun:"id,pk,autoincrement"`
	PhaseID      int64     `bun:"phase_id,notnull"`
	PhaseRoundID *int64    `bun:"phase_round_id"`
	CreatedBy    int64     `bun:"created_by,notnull"`
	Title        string    `bun:"title,notnull,unique"`
	Brief        string    `bun:"brief_description,notnull,default:''"`
	IsWinner     bool      `bun:"is_winner,notnull,default:false"`
	IsDraft      bool      `bun:"is_draft,notnull,default:false"`
	IsLive       bool      `bun:"is_live,notnull,default:true"`
	Excluded     bool      `bun:"excluded,notnull,default:false"`
	CreatedOn    time.Time `bun:"created_on,notnull,default:current_timestamp"`
}

// Window converts the phase and its rounds for clock resolution.
func (p Phase) Window() challengedomain.PhaseWindow {
	w := challengedomain.PhaseWindow{
		ID:      p.ID,
		Name:    p.Name,
		Order:   p.Order,
		Window:  challengedomain.Window{Start: p.StartDate, End: p.EndDate},
		Judging: judgingWindow(p.JudgingStartDate, p.JudgingEndDate),
	}
	for _, r := range p.Rounds {
		w.Rounds = append(w.Rounds, r.Window())
	}
	return w
}

// Window converts the round for clock resolution.
func (r PhaseRound) Window() challengedomain.RoundWindow {
	return challengedomain.RoundWindow{
		ID:      r.ID,
		Name:    r.Name,
		Window:  challengedomain.Window{Start: r.StartDate, End: r.EndDate},
		Judging: judgingWindow(r.JudgingStartDate, r.JudgingEndDate),
	}
}

func judgingWindow(start, end *time.Time) *challengedomain.Window {
	if start == nil || end == nil {
		return nil
	}
	return &challengedomain.Window{Start: *start, End: *end}
}

// Domain returns the flags view of the submission.
func (s Submission) Domain() challengedomain.Submission {
	return challengedomain.Submission{
		ID:       s.ID,
		PhaseID:  s.PhaseID,
		RoundID:  s.PhaseRoundID,
		OwnerID:  s.CreatedBy,
		IsWinner: s.IsWinner,
		IsDraft:  s.IsDraft,
		IsLive:   s.IsLive,
		Excluded: s.Excluded,
	}
}

// Domain returns the capability view of the profile.
func (p Profile) Domain() challengedomain.Profile {
	return challengedomain.Profile{ID: p.ID, IsJudge: p.IsJudge, IsStaff: p.IsStaff}
}

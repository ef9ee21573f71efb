package challengedomain

import "time"

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// RoundWindow is a sub-window of a phase.
type RoundWindow struct {
	ID      int64
	Name    string
	Window  Window
	Judging *Window
}

// PhaseWindow is a phase with its rounds, ready for clock resolution.
type PhaseWindow struct {
	ID      int64
	Name    string
	Order   int
	Window  Window
	Judging *Window
	Rounds  []RoundWindow
}

// HasRounds reports whether the phase is split into rounds.
func (p PhaseWindow) HasRounds() bool {
	return len(p.Rounds) > 0
}

// PhaseStatus is what the clock reports for a given instant.
type PhaseStatus struct {
	PhaseID       int64      `json:"phase_id,omitempty"`
	PhaseName     string     `json:"phase_name,omitempty"`
	RoundID       *int64     `json:"round_id,omitempty"`
	RoundName     string     `json:"round_name,omitempty"`
	IsOpen        bool       `json:"is_open"`
	DaysRemaining int        `json:"days_remaining"`
	EndDate       *time.Time `json:"end_date,omitempty"`
}

// Submission holds the flags that gate judging, awarding and booking.
type Submission struct {
	ID       int64
	PhaseID  int64
	RoundID  *int64
	OwnerID  int64
	IsWinner bool
	IsDraft  bool
	IsLive   bool
	Excluded bool
}

// Profile is the capability view of a user.
type Profile struct {
	ID      int64
	IsJudge bool
	IsStaff bool
}

package challengedomain

import (
	"sort"
	"time"
)

const day = 24 * time.Hour

// ResolvePhase finds the phase open at now and, when the phase is split into
// rounds, the open round. A phase with rounds but no open round is closed
// even though its own window contains now.
func ResolvePhase(phases []PhaseWindow, now time.Time) PhaseStatus {
	closed := PhaseStatus{DaysRemaining: -1}

	phase, ok := phaseAt(phases, now)
	if !ok {
		return closed
	}

	status := PhaseStatus{PhaseID: phase.ID, PhaseName: phase.Name, DaysRemaining: -1}
	end := phase.Window.End

	if phase.HasRounds() {
		round, ok := roundAt(phase.Rounds, now)
		if !ok {
			return status
		}
		id := round.ID
		status.RoundID = &id
		status.RoundName = round.Name
		end = round.Window.End
	}

	status.IsOpen = true
	status.EndDate = &end
	status.DaysRemaining = DaysRemaining(now, end)
	return status
}

// DaysRemaining floors the time to end into whole days. An end in the past
// reports -1.
func DaysRemaining(now, end time.Time) int {
	if end.Before(now) {
		return -1
	}
	return int(end.Sub(now) / day)
}

func phaseAt(phases []PhaseWindow, now time.Time) (PhaseWindow, bool) {
	for _, p := range sortedByOrder(phases) {
		if p.Window.Contains(now) {
			return p, true
		}
	}
	return PhaseWindow{}, false
}

func roundAt(rounds []RoundWindow, now time.Time) (RoundWindow, bool) {
	for _, r := range rounds {
		if r.Window.Contains(now) {
			return r, true
		}
	}
	return RoundWindow{}, false
}

// JudgingPhase returns the most recently ended phase, counting a phase as
// ended once any of its rounds has ended.
func JudgingPhase(phases []PhaseWindow, now time.Time) (PhaseWindow, bool) {
	var (
		best  PhaseWindow
		found bool
	)
	for _, p := range phases {
		if !hasEnded(p, now) {
			continue
		}
		if !found || p.Window.End.After(best.Window.End) {
			best, found = p, true
		}
	}
	return best, found
}

func hasEnded(p PhaseWindow, now time.Time) bool {
	if !p.Window.End.After(now) {
		return true
	}
	for _, r := range p.Rounds {
		if !r.Window.End.After(now) {
			return true
		}
	}
	return false
}

// JudgingOpen reports whether judges may score entries at now. Without an
// explicit judging window judging follows the phase being over.
func JudgingOpen(p PhaseWindow, round *RoundWindow, now time.Time) bool {
	if round != nil && round.Judging != nil {
		return round.Judging.Contains(now)
	}
	if p.Judging != nil {
		return p.Judging.Contains(now)
	}
	return hasEnded(p, now)
}

func sortedByOrder(phases []PhaseWindow) []PhaseWindow {
	out := make([]PhaseWindow, len(phases))
	copy(out, phases)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

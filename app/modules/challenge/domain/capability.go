package challengedomain

// IsJudge is the single capability check for judging and awarding. Staff do
// not judge unless explicitly marked as judges.
func IsJudge(p Profile) bool {
	return p.ID != 0 && p.IsJudge
}

// IsEligible reports whether a submission can be judged or assigned.
func IsEligible(s Submission) bool {
	return !s.IsDraft && !s.Excluded
}

// IsGreenLit reports whether a submission was picked as a winner and may be
// awarded or book a webcast slot.
func IsGreenLit(s Submission) bool {
	return IsEligible(s) && s.IsWinner
}

// OwnedBy reports whether profileID created the submission.
func OwnedBy(s Submission, profileID int64) bool {
	return profileID != 0 && s.OwnerID == profileID
}

// MatchesPhase reports whether the submission belongs to phaseID and, when
// roundID is set, to that round.
func MatchesPhase(s Submission, phaseID int64, roundID *int64) bool {
	if s.PhaseID != phaseID {
		return false
	}
	if roundID == nil {
		return true
	}
	return s.RoundID != nil && *s.RoundID == *roundID
}

package awarddomain

import "errors"

// Status is the lifecycle state of an award.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusReleased Status = "RELEASED"
	StatusFrozen   Status = "FROZEN"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReleased, StatusFrozen:
		return true
	}
	return false
}

// Messages shown to judges after an award attempt.
const (
	MsgAwarded             = "You have successfuly awarded this Entry"
	MsgInvalidAmount       = "Please enter a valid amount for the award"
	MsgInsufficientFunds   = "You don't have enough funding for award this submission"
	MsgAlreadyDistributed  = "Award already distributed"
	MsgNoJudges            = "There are no judges to distribute this award to"
	MsgAllowanceNotFound   = "You don't have an allowance for this submission"
	MsgSubmissionNotWinner = "This submission can't receive awards"
	MsgNotJudge            = "Only judges can award submissions"
	MsgAwardFrozen         = "This award is frozen"
)

var (
	ErrInvalidAmount      = errors.New(MsgInvalidAmount)
	ErrInsufficientFunds  = errors.New(MsgInsufficientFunds)
	ErrAlreadyDistributed = errors.New(MsgAlreadyDistributed)
	ErrNoJudges           = errors.New(MsgNoJudges)
	ErrAllowanceNotFound  = errors.New(MsgAllowanceNotFound)
	ErrNotGreenLit        = errors.New(MsgSubmissionNotWinner)
	ErrNotJudge           = errors.New(MsgNotJudge)
	ErrAwardFrozen        = errors.New(MsgAwardFrozen)
	ErrAwardNotFound      = errors.New("award not found")
	ErrAwardExists        = errors.New("this phase/round combination already has an award")
	ErrInvalidTransition  = errors.New("invalid award status transition")
)

// CanAllocate is the ledger rule: the requested amount must be positive and
// fit in what the allowance has left once every other submission's award is
// counted. The submission's own previous amount is not counted, so upgrades
// and downgrades are measured against the full remaining budget.
func CanAllocate(allowance, usedByOthers, amount int64) bool {
	return amount > 0 && allowance-usedByOthers >= amount
}

// EvenSplit divides total across n judges. The remainder is not distributed.
func EvenSplit(total int64, n int) (share, remainder int64) {
	if n <= 0 {
		return 0, total
	}
	share = total / int64(n)
	return share, total - share*int64(n)
}

// CanTransition reports whether an award may move from one status to another.
func CanTransition(from, to Status) bool {
	switch {
	case from == StatusPending && to == StatusReleased:
		return true
	case from == StatusReleased && to == StatusFrozen:
		return true
	case from == StatusFrozen && to == StatusReleased:
		return true
	}
	return false
}

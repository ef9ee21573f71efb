package awarddomain

// Topics published by the award module.
const (
	AwardDistributedTopic  = "award.distributed"
	SubmissionAwardedTopic = "submission.awarded"
)

// AwardDistributedPayload is published once an award is split among judges.
type AwardDistributedPayload struct {
	AwardID       int64 `json:"award_id"`
	Judges        int   `json:"judges"`
	Share         int64 `json:"share"`
	Undistributed int64 `json:"undistributed"`
}

// SubmissionAwardedPayload is published after a successful allocation.
type SubmissionAwardedPayload struct {
	AllowanceID  int64 `json:"allowance_id"`
	SubmissionID int64 `json:"submission_id"`
	ProfileID    int64 `json:"profile_id"`
	Amount       int64 `json:"amount"`
	Created      bool  `json:"created"`
}

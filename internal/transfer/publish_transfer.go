package transfer

import "time"

// AccountResult is the per-account detail of one publish attempt.
type AccountResult struct {
	AccountID      int64  `json:"account_id"`
	Platform       string `json:"platform"`
	Success        bool   `json:"success"`
	PlatformPostID string `json:"platform_post_id,omitempty"`
	ErrorKind      string `json:"error_kind,omitempty"`
	Error          string `json:"error,omitempty"`
	Skipped        bool   `json:"skipped,omitempty"`
}

// PostReport is the final state of one post after a batch pass.
type PostReport struct {
	PostID   int64           `json:"post_id"`
	Status   string          `json:"status"`
	Accounts []AccountResult `json:"accounts"`
}

// BatchReport is the JSON body returned to the cron caller.
type BatchReport struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	TotalDue   int          `json:"total_due"`
	Published  int          `json:"published"`
	Failed     int          `json:"failed"`
	Skipped    int          `json:"skipped"`
	Posts      []PostReport `json:"posts"`
}

type PublishNowRequest struct {
	PostID int64 `json:"post_id" validate:"required,gt=0"`
}

package models

import "time"

// PublishRun is the persisted summary of one batch invocation.
type PublishRun struct {
	ID         string    `db:"id" json:"id"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
	TotalDue   int       `db:"total_due" json:"total_due"`
	Published  int       `db:"published" json:"published"`
	Failed     int       `db:"failed" json:"failed"`
	Skipped    int       `db:"skipped" json:"skipped"`
	Detail     []byte    `db:"detail" json:"-"`
}

// PostAnalytics is the zeroed placeholder row created for every account a
// post was successfully published to, updated later by the analytics job.
type PostAnalytics struct {
	ID             int64     `db:"id" json:"id"`
	PostID         int64     `db:"post_id" json:"post_id"`
	AccountID      int64     `db:"account_id" json:"account_id"`
	Platform       string    `db:"platform" json:"platform"`
	PlatformPostID string    `db:"platform_post_id" json:"platform_post_id"`
	Impressions    int64     `db:"impressions" json:"impressions"`
	Likes          int64     `db:"likes" json:"likes"`
	Comments       int64     `db:"comments" json:"comments"`
	Shares         int64     `db:"shares" json:"shares"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

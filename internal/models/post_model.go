package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type Post struct {
	ID            int64         `db:"id" json:"id"`
	UserID        int64         `db:"user_id" json:"user_id"`
	Caption       string        `db:"caption" json:"caption"`
	Hashtags      []string      `db:"hashtags" json:"hashtags"`
	ScheduledFor  sql.NullTime  `db:"scheduled_for" json:"scheduled_for"`
	Status        string        `db:"status" json:"status"` // draft, scheduled, publishing, published, failed
	PublishedAt   sql.NullTime  `db:"published_at" json:"published_at"`
	PlatformPosts PlatformPosts `db:"platform_posts" json:"platform_posts"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft      = "draft"
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// MediaItem is one ordered media attachment of a post, already joined with
// its asset row. FileURL may be a storage key until resolved for publishing.
type MediaItem struct {
	ID           int64  `db:"id" json:"id"`
	PostID       int64  `db:"post_id" json:"post_id"`
	DisplayOrder int    `db:"display_order" json:"display_order"`
	MediaType    string `db:"media_type" json:"media_type"`
	FileURL      string `db:"file_url" json:"file_url"`
	ThumbnailURL string `db:"thumbnail_url" json:"thumbnail_url"`
}

// PlatformPost records the outcome of publishing a post to one account.
type PlatformPost struct {
	Platform       string `json:"platform"`
	PlatformPostID string `json:"platform_post_id,omitempty"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
}

// PlatformPosts maps target account id to its publish record. Stored as a
// JSONB column; JSON object keys are the account ids.
type PlatformPosts map[int64]PlatformPost

func (p PlatformPosts) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func (p *PlatformPosts) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.New("platform_posts: expected []byte")
	}
	return json.Unmarshal(b, p)
}

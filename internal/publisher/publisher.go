package publisher

import (
	"context"
	"fmt"
	"strings"

	"github.com/postflowhq/publisher/internal/models"
	"golang.org/x/oauth2"
)

// Error kinds, logged per account so outages can be told apart from bad
// payloads and dead credentials.
const (
	ErrKindAuth      = "auth"
	ErrKindRejected  = "rejected"
	ErrKindTransport = "transport"
)

// Error is the typed failure every adapter surfaces. The orchestrator folds
// all kinds into a failed outcome for the account but keeps the kind for the
// report.
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string {
	return e.Kind + ": " + e.Message
}

func authErrorf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrKindAuth, Message: fmt.Sprintf(format, args...)}
}

func rejectedErrorf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrKindRejected, Message: fmt.Sprintf(format, args...)}
}

func transportErrorf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrKindTransport, Message: fmt.Sprintf(format, args...)}
}

// ErrorKind extracts the adapter error kind, defaulting to transport for
// anything untyped.
func ErrorKind(err error) string {
	if pe, ok := err.(*Error); ok {
		return pe.Kind
	}
	return ErrKindTransport
}

// Publisher turns a post plus its resolved media into the platform's publish
// call sequence. Implementations must not mutate the post or media.
type Publisher interface {
	Publish(ctx context.Context, post *models.Post, media []*models.MediaItem, account *models.SocialAccount, token *oauth2.Token) (string, error)
}

// Registry maps a platform name to its adapter. Platforms without an entry
// are skipped by the orchestrator rather than treated as failures.
type Registry map[string]Publisher

func (r Registry) Lookup(platform string) (Publisher, bool) {
	p, ok := r[platform]
	return p, ok
}

func captionWithTags(post *models.Post) string {
	if len(post.Hashtags) == 0 {
		return post.Caption
	}
	return strings.TrimSpace(post.Caption + "\n\n" + strings.Join(post.Hashtags, " "))
}

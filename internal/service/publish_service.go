package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/postflowhq/publisher/internal/models"
	"github.com/postflowhq/publisher/internal/publisher"
	"github.com/postflowhq/publisher/internal/repository"
	"github.com/postflowhq/publisher/internal/transfer"
)

// DueWindow bounds how far back the selector looks for scheduled posts. It
// matches the trigger cadence: together with the publishing claim it limits
// reprocessing after a partial failure to one window's length, at the cost
// of missing posts if the job is down longer than the window.
const DueWindow = 5 * time.Minute

type PublishService interface {
	PublishDueScheduled(ctx context.Context) (*transfer.BatchReport, error)
	PublishPost(ctx context.Context, postID int64) (*transfer.PostReport, error)
}

type publishService struct {
	pr       repository.PostRepository
	pm       repository.PostMediaRepository
	ac       repository.SocialAccountRepository
	an       repository.AnalyticsRepository
	runs     repository.PublishRunRepository
	tokens   TokenProvider
	media    MediaResolver
	registry publisher.Registry
}

func NewPublishService(
	pr repository.PostRepository,
	pm repository.PostMediaRepository,
	ac repository.SocialAccountRepository,
	an repository.AnalyticsRepository,
	runs repository.PublishRunRepository,
	tokens TokenProvider,
	media MediaResolver,
	registry publisher.Registry) PublishService {
	return &publishService{
		pr:       pr,
		pm:       pm,
		ac:       ac,
		an:       an,
		runs:     runs,
		tokens:   tokens,
		media:    media,
		registry: registry,
	}
}

// PublishDueScheduled runs one batch pass: select due posts, publish each to
// its target accounts, and return the run summary. A selection error is
// fatal for the batch; everything after that is contained per post or per
// account.
func (s *publishService) PublishDueScheduled(ctx context.Context) (*transfer.BatchReport, error) {
	started := time.Now()

	posts, err := s.pr.ListDue(ctx, started.Add(-DueWindow), started)
	if err != nil {
		return nil, fmt.Errorf("selecting due posts: %w", err)
	}

	runID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	report := &transfer.BatchReport{
		RunID:     runID,
		StartedAt: started,
		TotalDue:  len(posts),
	}

	for _, post := range posts {
		result, err := s.publishOne(ctx, post)
		if err != nil {
			slog.Error("publish aborted", "post_id", post.ID, "error", err.Error())
			report.Skipped++
			continue
		}
		if result == nil {
			// another run already claimed it
			report.Skipped++
			continue
		}
		report.Posts = append(report.Posts, *result)
		if result.Status == models.PostStatusPublished {
			report.Published++
		} else {
			report.Failed++
		}
	}

	report.FinishedAt = time.Now()
	s.recordRun(ctx, report)

	return report, nil
}

// PublishPost publishes a single post immediately, outside the batch
// window. Used by the publish-now queue worker.
func (s *publishService) PublishPost(ctx context.Context, postID int64) (*transfer.PostReport, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, errors.New("post not found")
	}

	result, err := s.publishOne(ctx, post)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("post is not in scheduled state")
	}

	return result, nil
}

// publishOne claims the post and attempts every target account, then settles
// the terminal status. The claim happens before any network call so a crash
// mid-publish leaves the post in publishing rather than back in the
// scheduled pool. Returns nil when the claim was lost. A store error after
// the claim is a system error, not a publish failure: the post is left in
// publishing for operator recovery instead of being settled to failed.
func (s *publishService) publishOne(ctx context.Context, post *models.Post) (*transfer.PostReport, error) {
	claimed, err := s.pr.ClaimForPublishing(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("claiming post %d: %w", post.ID, err)
	}
	if !claimed {
		return nil, nil
	}

	media, err := s.resolveMedia(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("loading media for post %d: %w", post.ID, err)
	}

	accounts, err := s.ac.ListByPostID(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("loading target accounts for post %d: %w", post.ID, err)
	}

	outcomes := models.PlatformPosts{}
	var results []transfer.AccountResult
	anySuccess := false

	for _, acc := range accounts {
		if acc == nil {
			continue
		}

		pub, ok := s.registry.Lookup(acc.Platform)
		if !ok {
			slog.Info("no adapter registered for platform, skipping", "platform", acc.Platform, "account_id", acc.ID)
			results = append(results, transfer.AccountResult{
				AccountID: acc.ID,
				Platform:  acc.Platform,
				Skipped:   true,
			})
			continue
		}

		result := s.publishToAccount(ctx, pub, post, media, acc)
		results = append(results, result)

		outcome := models.PlatformPost{
			Platform:       result.Platform,
			PlatformPostID: result.PlatformPostID,
			Success:        result.Success,
			Error:          result.Error,
		}
		outcomes[acc.ID] = outcome

		if result.Success {
			anySuccess = true
			s.recordAnalyticsPlaceholder(ctx, post, acc, result.PlatformPostID)
		}
	}

	status := models.PostStatusFailed
	if anySuccess {
		status = models.PostStatusPublished
		if err := s.pr.MarkPublished(ctx, post.ID, time.Now(), outcomes); err != nil {
			slog.Info(err.Error())
		}
	} else {
		if err := s.pr.MarkFailed(ctx, post.ID, outcomes); err != nil {
			slog.Info(err.Error())
		}
	}

	return &transfer.PostReport{
		PostID:   post.ID,
		Status:   status,
		Accounts: results,
	}, nil
}

func (s *publishService) publishToAccount(ctx context.Context, pub publisher.Publisher, post *models.Post, media []*models.MediaItem, acc *models.SocialAccount) transfer.AccountResult {
	result := transfer.AccountResult{
		AccountID: acc.ID,
		Platform:  acc.Platform,
	}

	if acc.AccountStatus != models.AccountStatusActive {
		result.ErrorKind = publisher.ErrKindAuth
		result.Error = "account is disconnected"
		return result
	}

	token, err := s.tokens.AccessToken(ctx, acc)
	if err != nil {
		result.ErrorKind = publisher.ErrKindAuth
		result.Error = err.Error()
		return result
	}

	platformPostID, err := pub.Publish(ctx, post, media, acc, token)
	if err != nil {
		result.ErrorKind = publisher.ErrorKind(err)
		result.Error = err.Error()
		slog.Info("publish failed", "platform", acc.Platform, "account_id", acc.ID, "post_id", post.ID, "kind", result.ErrorKind, "error", err.Error())
		return result
	}

	result.Success = true
	result.PlatformPostID = platformPostID
	return result
}

// resolveMedia loads the ordered media list and swaps storage keys for
// fetchable URLs. Resolution works on copies; the stored rows stay
// untouched. A failed presign falls back to the stored URL per item; a
// failed list is a store error and aborts the post.
func (s *publishService) resolveMedia(ctx context.Context, postID int64) ([]*models.MediaItem, error) {
	items, err := s.pm.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	resolved := make([]*models.MediaItem, 0, len(items))
	for _, item := range items {
		copied := *item
		url, err := s.media.ResolveURL(ctx, item.FileURL)
		if err != nil {
			slog.Info(err.Error())
		} else {
			copied.FileURL = url
		}
		resolved = append(resolved, &copied)
	}

	return resolved, nil
}

func (s *publishService) recordAnalyticsPlaceholder(ctx context.Context, post *models.Post, acc *models.SocialAccount, platformPostID string) {
	_, err := s.an.CreatePlaceholder(ctx, &models.PostAnalytics{
		PostID:         post.ID,
		AccountID:      acc.ID,
		Platform:       acc.Platform,
		PlatformPostID: platformPostID,
	})
	if err != nil {
		slog.Info("failed to create analytics placeholder", "post_id", post.ID, "account_id", acc.ID, "error", err.Error())
	}
}

func (s *publishService) recordRun(ctx context.Context, report *transfer.BatchReport) {
	detail, err := json.Marshal(report.Posts)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	run := &models.PublishRun{
		ID:         report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		TotalDue:   report.TotalDue,
		Published:  report.Published,
		Failed:     report.Failed,
		Skipped:    report.Skipped,
		Detail:     detail,
	}

	if err := s.runs.Create(ctx, run); err != nil {
		slog.Info("failed to persist publish run", "run_id", run.ID, "error", err.Error())
	}
}

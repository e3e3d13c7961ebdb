package publisher

import (
	"context"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/postflowhq/publisher/internal/models"
	"github.com/postflowhq/publisher/internal/transfer"
	"golang.org/x/oauth2"
)

const linkedinAPIURL = "https://api.linkedin.com"

// LinkedInPublisher builds one UGC share and posts it in a single call.
// Image media become attached descriptors; anything else is left off the
// share.
type LinkedInPublisher struct {
	client  *resty.Client
	baseURL string
}

func NewLinkedInPublisher(client *resty.Client) *LinkedInPublisher {
	return &LinkedInPublisher{client: client, baseURL: linkedinAPIURL}
}

func (p *LinkedInPublisher) Publish(ctx context.Context, post *models.Post, media []*models.MediaItem, account *models.SocialAccount, token *oauth2.Token) (string, error) {
	share := transfer.LinkedInUGCPost{
		Author:         "urn:li:person:" + account.AccountID,
		LifecycleState: "PUBLISHED",
	}
	share.Visibility.MemberNetworkVisibility = "PUBLIC"

	content := transfer.LinkedInShareContent{
		ShareCommentary:    transfer.LinkedInShareText{Text: captionWithTags(post)},
		ShareMediaCategory: "NONE",
	}
	for _, m := range media {
		if m.MediaType != models.MediaTypeImage {
			continue
		}
		content.Media = append(content.Media, transfer.LinkedInShareMedia{
			Status:      "READY",
			OriginalURL: m.FileURL,
		})
	}
	if len(content.Media) > 0 {
		content.ShareMediaCategory = "IMAGE"
	}
	share.SpecificContent.ShareContent = content

	var result transfer.LinkedInUGCResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		SetHeader("X-Restli-Protocol-Version", "2.0.0").
		SetBody(&share).
		SetResult(&result).
		Post(p.baseURL + "/v2/ugcPosts")
	if err != nil {
		slog.Info(err.Error())
		return "", transportErrorf("linkedin request failed: %v", err)
	}

	if resp.IsError() {
		if resp.StatusCode() == 401 {
			return "", authErrorf("linkedin: %s", resp.String())
		}
		return "", rejectedErrorf("linkedin: %s", resp.String())
	}

	if result.ID == "" {
		// restli puts the created urn in a header when the body is empty
		result.ID = resp.Header().Get("X-RestLi-Id")
	}

	return result.ID, nil
}

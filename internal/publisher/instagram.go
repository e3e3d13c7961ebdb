package publisher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/postflowhq/publisher/internal/models"
	"github.com/postflowhq/publisher/internal/transfer"
	"golang.org/x/oauth2"
)

const instagramGraphURL = "https://graph.instagram.com/v21.0"

// InstagramPublisher implements the container protocol: every media item is
// staged as a container before anything becomes visible, carousels stage one
// child container per item plus a parent referencing the children, and a
// final media_publish call makes the container live.
type InstagramPublisher struct {
	client  *resty.Client
	baseURL string
}

func NewInstagramPublisher(client *resty.Client) *InstagramPublisher {
	return &InstagramPublisher{client: client, baseURL: instagramGraphURL}
}

func (p *InstagramPublisher) Publish(ctx context.Context, post *models.Post, media []*models.MediaItem, account *models.SocialAccount, token *oauth2.Token) (string, error) {
	if len(media) == 0 {
		return "", rejectedErrorf("instagram requires at least one media item")
	}

	caption := captionWithTags(post)

	var creationID string
	if len(media) == 1 {
		id, err := p.createContainer(ctx, account.AccountID, media[0], caption, false, token.AccessToken)
		if err != nil {
			return "", err
		}
		creationID = id
	} else {
		children := make([]string, 0, len(media))
		for _, m := range media {
			id, err := p.createContainer(ctx, account.AccountID, m, "", true, token.AccessToken)
			if err != nil {
				return "", err
			}
			children = append(children, id)
		}

		id, err := p.createCarousel(ctx, account.AccountID, children, caption, token.AccessToken)
		if err != nil {
			return "", err
		}
		creationID = id
	}

	return p.publishContainer(ctx, account.AccountID, creationID, token.AccessToken)
}

func (p *InstagramPublisher) createContainer(ctx context.Context, accountID string, media *models.MediaItem, caption string, carouselItem bool, accessToken string) (string, error) {
	payload := map[string]interface{}{
		"access_token": accessToken,
	}
	switch media.MediaType {
	case models.MediaTypeVideo:
		payload["video_url"] = media.FileURL
		if carouselItem {
			payload["media_type"] = "VIDEO"
		} else {
			payload["media_type"] = "REELS"
		}
	default:
		payload["image_url"] = media.FileURL
	}
	if caption != "" {
		payload["caption"] = caption
	}
	if carouselItem {
		payload["is_carousel_item"] = true
	}

	return p.postForID(ctx, fmt.Sprintf("%s/%s/media", p.baseURL, accountID), payload)
}

func (p *InstagramPublisher) createCarousel(ctx context.Context, accountID string, children []string, caption string, accessToken string) (string, error) {
	payload := map[string]interface{}{
		"media_type":   "CAROUSEL",
		"children":     children,
		"caption":      caption,
		"access_token": accessToken,
	}

	return p.postForID(ctx, fmt.Sprintf("%s/%s/media", p.baseURL, accountID), payload)
}

func (p *InstagramPublisher) publishContainer(ctx context.Context, accountID, creationID, accessToken string) (string, error) {
	payload := map[string]interface{}{
		"creation_id":  creationID,
		"access_token": accessToken,
	}

	return p.postForID(ctx, fmt.Sprintf("%s/%s/media_publish", p.baseURL, accountID), payload)
}

func (p *InstagramPublisher) postForID(ctx context.Context, url string, payload map[string]interface{}) (string, error) {
	var result transfer.GraphIDResponse
	var graphErr transfer.GraphErrorResponse

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		SetError(&graphErr).
		Post(url)
	if err != nil {
		slog.Info(err.Error())
		return "", transportErrorf("instagram request failed: %v", err)
	}

	if resp.IsError() {
		return "", classifyGraphError("instagram", resp.StatusCode(), &graphErr)
	}

	if result.ID == "" {
		return "", rejectedErrorf("instagram returned no container id")
	}

	return result.ID, nil
}

// classifyGraphError maps a Graph API error envelope onto the adapter error
// taxonomy. Code 190 is the Graph family's invalid/expired token code.
func classifyGraphError(platform string, status int, graphErr *transfer.GraphErrorResponse) *Error {
	msg := graphErr.Error.Message
	if msg == "" {
		msg = fmt.Sprintf("unexpected status %d", status)
	}
	if status == 401 || graphErr.Error.Code == 190 {
		return authErrorf("%s: %s", platform, msg)
	}
	return rejectedErrorf("%s: %s", platform, msg)
}

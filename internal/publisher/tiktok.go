package publisher

import (
	"context"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/postflowhq/publisher/internal/models"
	"github.com/postflowhq/publisher/internal/transfer"
	"golang.org/x/oauth2"
)

const tiktokAPIURL = "https://open.tiktokapis.com"

// TiktokPublisher uses the direct-post API with PULL_FROM_URL sourcing: a
// single video goes through video/init, image sets through content/init.
type TiktokPublisher struct {
	client  *resty.Client
	baseURL string
}

func NewTiktokPublisher(client *resty.Client) *TiktokPublisher {
	return &TiktokPublisher{client: client, baseURL: tiktokAPIURL}
}

func (p *TiktokPublisher) Publish(ctx context.Context, post *models.Post, media []*models.MediaItem, account *models.SocialAccount, token *oauth2.Token) (string, error) {
	if len(media) == 0 {
		return "", rejectedErrorf("tiktok requires at least one media item")
	}

	var images []string
	videos := 0
	for _, m := range media {
		switch m.MediaType {
		case models.MediaTypeVideo:
			videos++
		case models.MediaTypeImage:
			images = append(images, m.FileURL)
		}
	}

	switch {
	case videos == 1 && len(images) == 0:
		return p.publishVideo(ctx, post, media[0], token.AccessToken)
	case videos == 0 && len(images) > 0:
		return p.publishPhotos(ctx, post, images, token.AccessToken)
	default:
		return "", rejectedErrorf("tiktok supports a single video or an image set, not both")
	}
}

func (p *TiktokPublisher) publishVideo(ctx context.Context, post *models.Post, media *models.MediaItem, accessToken string) (string, error) {
	body := transfer.TiktokVideoUploadRequest{
		PostInfo: transfer.TiktokVideoPostInfo{
			Title:                 captionWithTags(post),
			PrivacyLevel:          "PUBLIC_TO_EVERYONE",
			VideoCoverTimestampMs: 1000,
		},
		SourceInfo: transfer.TiktokVideoSourceInfo{
			Source:   "PULL_FROM_URL",
			VideoURL: media.FileURL,
		},
	}

	return p.postInit(ctx, p.baseURL+"/v2/post/publish/video/init/", &body, accessToken)
}

func (p *TiktokPublisher) publishPhotos(ctx context.Context, post *models.Post, images []string, accessToken string) (string, error) {
	body := transfer.TiktokPhotoUploadRequest{
		PostInfo: transfer.TiktokPhotoPostInfo{
			Title:        captionWithTags(post),
			PrivacyLevel: "PUBLIC_TO_EVERYONE",
			AutoAddMusic: true,
		},
		SourceInfo: transfer.TiktokPhotoSourceInfo{
			Source:          "PULL_FROM_URL",
			PhotoCoverIndex: 0,
			PhotoImages:     images,
		},
		PostMode:  "DIRECT_POST",
		MediaType: "PHOTO",
	}

	return p.postInit(ctx, p.baseURL+"/v2/post/publish/content/init/", &body, accessToken)
}

func (p *TiktokPublisher) postInit(ctx context.Context, url string, body interface{}, accessToken string) (string, error) {
	var result transfer.TiktokUploadResponse

	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetHeader("Content-Type", "application/json; charset=UTF-8").
		SetBody(body).
		SetResult(&result).
		SetError(&result).
		Post(url)
	if err != nil {
		slog.Info(err.Error())
		return "", transportErrorf("tiktok request failed: %v", err)
	}

	if resp.IsError() {
		if resp.StatusCode() == 401 || result.Error.Code == "access_token_invalid" {
			return "", authErrorf("tiktok: %s", result.Error.Message)
		}
		return "", rejectedErrorf("tiktok: %s", result.Error.Message)
	}

	return result.Data.PublishID, nil
}

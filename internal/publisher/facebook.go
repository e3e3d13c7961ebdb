package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/h2non/filetype"
	"github.com/postflowhq/publisher/internal/models"
	"github.com/postflowhq/publisher/internal/transfer"
	"golang.org/x/oauth2"
)

const facebookGraphURL = "https://graph.facebook.com"

// FacebookPublisher posts to a connected page. The account id is the page id
// and the token provider hands back a page access token, so no /me/accounts
// lookup happens here. Dispatch is by media count: text-only feed post,
// single photo/video, or unpublished photo uploads batched into one feed
// post. Only image items participate in the multi-photo path.
type FacebookPublisher struct {
	client     *resty.Client
	baseURL    string
	apiVersion string
}

func NewFacebookPublisher(client *resty.Client, apiVersion string) *FacebookPublisher {
	return &FacebookPublisher{client: client, baseURL: facebookGraphURL, apiVersion: apiVersion}
}

func (p *FacebookPublisher) Publish(ctx context.Context, post *models.Post, media []*models.MediaItem, account *models.SocialAccount, token *oauth2.Token) (string, error) {
	caption := captionWithTags(post)

	switch {
	case len(media) == 0:
		return p.publishFeed(ctx, account.AccountID, caption, nil, token.AccessToken)
	case len(media) == 1:
		if media[0].MediaType == models.MediaTypeVideo {
			return p.publishVideo(ctx, account.AccountID, media[0], caption, token.AccessToken)
		}
		return p.uploadPhoto(ctx, account.AccountID, media[0], caption, true, token.AccessToken)
	default:
		return p.publishAlbum(ctx, account.AccountID, media, caption, token.AccessToken)
	}
}

func (p *FacebookPublisher) publishAlbum(ctx context.Context, pageID string, media []*models.MediaItem, caption, accessToken string) (string, error) {
	var photoIDs []string
	for _, m := range media {
		if m.MediaType != models.MediaTypeImage {
			continue
		}
		id, err := p.uploadPhoto(ctx, pageID, m, "", false, accessToken)
		if err != nil {
			return "", err
		}
		photoIDs = append(photoIDs, id)
	}

	if len(photoIDs) == 0 {
		return "", rejectedErrorf("facebook: no image media to attach")
	}

	return p.publishFeed(ctx, pageID, caption, photoIDs, accessToken)
}

func (p *FacebookPublisher) publishFeed(ctx context.Context, pageID, caption string, photoIDs []string, accessToken string) (string, error) {
	payload := map[string]interface{}{
		"message": caption,
	}
	if len(photoIDs) > 0 {
		attached := make([]map[string]string, 0, len(photoIDs))
		for _, id := range photoIDs {
			attached = append(attached, map[string]string{"media_fbid": id})
		}
		payload["attached_media"] = attached
	}

	var result transfer.GraphIDResponse
	var graphErr transfer.GraphErrorResponse

	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(payload).
		SetResult(&result).
		SetError(&graphErr).
		Post(fmt.Sprintf("%s/%s/%s/feed", p.baseURL, p.apiVersion, pageID))
	if err != nil {
		slog.Info(err.Error())
		return "", transportErrorf("facebook request failed: %v", err)
	}

	if resp.IsError() {
		return "", classifyGraphError("facebook", resp.StatusCode(), &graphErr)
	}

	return result.ID, nil
}

// uploadPhoto fetches the media bytes and uploads them as a page photo.
// Unpublished uploads only stage the photo for a later feed post referencing
// its id.
func (p *FacebookPublisher) uploadPhoto(ctx context.Context, pageID string, media *models.MediaItem, caption string, published bool, accessToken string) (string, error) {
	buf, err := p.fetchMedia(ctx, media.FileURL)
	if err != nil {
		return "", err
	}
	if !filetype.IsImage(buf) {
		return "", rejectedErrorf("facebook: media %d is not a valid image", media.ID)
	}

	formData := map[string]string{}
	if caption != "" {
		formData["message"] = caption
	}
	if !published {
		formData["published"] = "false"
	}

	var result transfer.GraphIDResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetFileReader("source", fmt.Sprintf("media_%d", media.ID), bytes.NewReader(buf)).
		SetFormData(formData).
		Post(fmt.Sprintf("%s/%s/%s/photos", p.baseURL, p.apiVersion, pageID))
	if err != nil {
		slog.Info(err.Error())
		return "", transportErrorf("facebook photo upload failed: %v", err)
	}

	if resp.IsError() {
		var graphErr transfer.GraphErrorResponse
		json.Unmarshal(resp.Body(), &graphErr)
		return "", classifyGraphError("facebook", resp.StatusCode(), &graphErr)
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", rejectedErrorf("facebook: invalid photo response: %v", err)
	}
	if result.ID == "" {
		return "", rejectedErrorf("facebook returned no photo id")
	}

	return result.ID, nil
}

func (p *FacebookPublisher) publishVideo(ctx context.Context, pageID string, media *models.MediaItem, caption, accessToken string) (string, error) {
	var result transfer.GraphIDResponse
	var graphErr transfer.GraphErrorResponse

	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetFormData(map[string]string{
			"file_url":    media.FileURL,
			"description": caption,
		}).
		SetResult(&result).
		SetError(&graphErr).
		Post(fmt.Sprintf("%s/%s/%s/videos", p.baseURL, p.apiVersion, pageID))
	if err != nil {
		slog.Info(err.Error())
		return "", transportErrorf("facebook video upload failed: %v", err)
	}

	if resp.IsError() {
		return "", classifyGraphError("facebook", resp.StatusCode(), &graphErr)
	}

	return result.ID, nil
}

func (p *FacebookPublisher) fetchMedia(ctx context.Context, fileURL string) ([]byte, error) {
	resp, err := p.client.R().SetContext(ctx).Get(fileURL)
	if err != nil {
		slog.Info(err.Error())
		return nil, transportErrorf("facebook: fetching media failed: %v", err)
	}
	if resp.IsError() {
		return nil, transportErrorf("facebook: media fetch returned status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

package publisher

import (
	"context"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/postflowhq/publisher/internal/models"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YoutubePublisher uploads a single video through the Data API. Posts with
// anything other than exactly one video item are rejected up front. The
// fetched video body streams straight into the upload.
type YoutubePublisher struct {
	client   *resty.Client
	endpoint string
}

func NewYoutubePublisher(client *resty.Client) *YoutubePublisher {
	return &YoutubePublisher{client: client}
}

func (p *YoutubePublisher) Publish(ctx context.Context, post *models.Post, media []*models.MediaItem, account *models.SocialAccount, token *oauth2.Token) (string, error) {
	if len(media) != 1 || media[0].MediaType != models.MediaTypeVideo {
		return "", rejectedErrorf("youtube requires exactly one video media item")
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(media[0].FileURL)
	if err != nil {
		slog.Info(err.Error())
		return "", transportErrorf("youtube: fetching video failed: %v", err)
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.IsError() {
		return "", transportErrorf("youtube: video fetch returned status %d", resp.StatusCode())
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		slog.Info(err.Error())
		return "", transportErrorf("youtube: creating service failed: %v", err)
	}

	title := post.Caption
	if len(title) > 100 {
		title = title[:100]
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       title,
			Description: captionWithTags(post),
		},
		Status: &youtube.VideoStatus{PrivacyStatus: "public"},
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, video)
	uploaded, err := call.Media(body).Do()
	if err != nil {
		if gerr, ok := err.(*googleapi.Error); ok {
			if gerr.Code == 401 || gerr.Code == 403 {
				return "", authErrorf("youtube: %s", gerr.Message)
			}
			return "", rejectedErrorf("youtube: %s", gerr.Message)
		}
		slog.Info(err.Error())
		return "", transportErrorf("youtube upload failed: %v", err)
	}

	return uploaded.Id, nil
}

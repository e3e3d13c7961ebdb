package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/postflowhq/publisher/internal/models"
	"github.com/postflowhq/publisher/internal/transfer"
	"golang.org/x/oauth2"
)

func newTestTiktokPublisher(baseURL string) *TiktokPublisher {
	p := NewTiktokPublisher(resty.New().SetTimeout(5 * time.Second))
	p.baseURL = baseURL
	return p
}

func ttFixtures() (*models.Post, *models.SocialAccount, *oauth2.Token) {
	post := &models.Post{ID: 4, Caption: "new drop", Hashtags: []string{"#fyp"}}
	account := &models.SocialAccount{ID: 40, Platform: "tiktok", AccountID: "tt_user"}
	token := &oauth2.Token{AccessToken: "tt-token", Expiry: time.Now().Add(time.Hour)}
	return post, account, token
}

func TestTiktokSingleVideoInit(t *testing.T) {
	var calls int
	var gotPath string
	var got transfer.TiktokVideoUploadRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"publish_id":"pub_1"},"error":{"code":"ok"}}`)
	}))
	defer server.Close()

	p := newTestTiktokPublisher(server.URL)
	post, account, token := ttFixtures()
	media := []*models.MediaItem{
		{ID: 1, MediaType: models.MediaTypeVideo, FileURL: "https://cdn.example.com/clip.mp4"},
	}

	id, err := p.Publish(context.Background(), post, media, account, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single init call, got %d", calls)
	}
	if gotPath != "/v2/post/publish/video/init/" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if id != "pub_1" {
		t.Errorf("unexpected publish id %s", id)
	}
	if got.SourceInfo.Source != "PULL_FROM_URL" {
		t.Errorf("video should be pulled from URL, got %s", got.SourceInfo.Source)
	}
	if got.SourceInfo.VideoURL != "https://cdn.example.com/clip.mp4" {
		t.Errorf("unexpected video url %s", got.SourceInfo.VideoURL)
	}
	if got.PostInfo.Title != "new drop\n\n#fyp" {
		t.Errorf("unexpected title %q", got.PostInfo.Title)
	}
}

func TestTiktokPhotoSetDirectPost(t *testing.T) {
	var gotPath string
	var got transfer.TiktokPhotoUploadRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"publish_id":"pub_2"},"error":{"code":"ok"}}`)
	}))
	defer server.Close()

	p := newTestTiktokPublisher(server.URL)
	post, account, token := ttFixtures()
	media := []*models.MediaItem{
		{ID: 1, MediaType: models.MediaTypeImage, FileURL: "https://cdn.example.com/1.jpg"},
		{ID: 2, MediaType: models.MediaTypeImage, FileURL: "https://cdn.example.com/2.jpg"},
	}

	id, err := p.Publish(context.Background(), post, media, account, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v2/post/publish/content/init/" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if id != "pub_2" {
		t.Errorf("unexpected publish id %s", id)
	}
	if got.PostMode != "DIRECT_POST" || got.MediaType != "PHOTO" {
		t.Errorf("unexpected post mode/media type: %s/%s", got.PostMode, got.MediaType)
	}
	if len(got.SourceInfo.PhotoImages) != 2 {
		t.Errorf("expected both image urls, got %v", got.SourceInfo.PhotoImages)
	}
}

func TestTiktokRejectsWithoutHTTP(t *testing.T) {
	tests := []struct {
		name  string
		media []*models.MediaItem
	}{
		{"zero media", nil},
		{"mixed media", []*models.MediaItem{
			{ID: 1, MediaType: models.MediaTypeVideo, FileURL: "https://cdn.example.com/clip.mp4"},
			{ID: 2, MediaType: models.MediaTypeImage, FileURL: "https://cdn.example.com/1.jpg"},
		}},
		{"two videos", []*models.MediaItem{
			{ID: 1, MediaType: models.MediaTypeVideo, FileURL: "https://cdn.example.com/a.mp4"},
			{ID: 2, MediaType: models.MediaTypeVideo, FileURL: "https://cdn.example.com/b.mp4"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
			}))
			defer server.Close()

			p := newTestTiktokPublisher(server.URL)
			post, account, token := ttFixtures()

			_, err := p.Publish(context.Background(), post, tt.media, account, token)
			if err == nil {
				t.Fatal("expected error")
			}
			if ErrorKind(err) != ErrKindRejected {
				t.Errorf("expected rejected kind, got %s", ErrorKind(err))
			}
			if calls != 0 {
				t.Errorf("expected no HTTP calls, got %d", calls)
			}
		})
	}
}

func TestTiktokErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind string
	}{
		{"invalid token code", http.StatusBadRequest, `{"error":{"code":"access_token_invalid","message":"bad token"}}`, ErrKindAuth},
		{"unauthorized status", http.StatusUnauthorized, `{"error":{"code":"unauthorized","message":"no"}}`, ErrKindAuth},
		{"spam risk", http.StatusForbidden, `{"error":{"code":"spam_risk_too_many_posts","message":"slow down"}}`, ErrKindRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			p := newTestTiktokPublisher(server.URL)
			post, account, token := ttFixtures()
			media := []*models.MediaItem{
				{ID: 1, MediaType: models.MediaTypeVideo, FileURL: "https://cdn.example.com/clip.mp4"},
			}

			_, err := p.Publish(context.Background(), post, media, account, token)
			if err == nil {
				t.Fatal("expected error")
			}
			if ErrorKind(err) != tt.wantKind {
				t.Errorf("expected kind %s, got %s (%v)", tt.wantKind, ErrorKind(err), err)
			}
		})
	}
}

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
	"golang.org/x/oauth2"
)

type igCall struct {
	path    string
	payload map[string]interface{}
}

func newInstagramTestServer(t *testing.T, calls *[]igCall) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		*calls = append(*calls, igCall{path: r.URL.Path, payload: payload})

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"obj_%d"}`, len(*calls))
	}))
}

func newTestInstagramPublisher(baseURL string) *InstagramPublisher {
	p := NewInstagramPublisher(resty.New().SetTimeout(5 * time.Second))
	p.baseURL = baseURL
	return p
}

func igFixtures() (*models.Post, *models.SocialAccount, *oauth2.Token) {
	post := &models.Post{ID: 1, Caption: "hello world", Hashtags: []string{"#go"}}
	account := &models.SocialAccount{ID: 10, Platform: "instagram", AccountID: "178414123"}
	token := &oauth2.Token{AccessToken: "ig-token", Expiry: time.Now().Add(time.Hour)}
	return post, account, token
}

func TestInstagramZeroMediaRejectedWithoutHTTP(t *testing.T) {
	var calls []igCall
	server := newInstagramTestServer(t, &calls)
	defer server.Close()

	p := newTestInstagramPublisher(server.URL)
	post, account, token := igFixtures()

	_, err := p.Publish(context.Background(), post, nil, account, token)
	if err == nil {
		t.Fatal("expected error for zero media")
	}
	if ErrorKind(err) != ErrKindRejected {
		t.Errorf("expected rejected kind, got %s", ErrorKind(err))
	}
	if len(calls) != 0 {
		t.Errorf("expected no HTTP calls, got %d", len(calls))
	}
}

func TestInstagramSingleMediaTwoCalls(t *testing.T) {
	var calls []igCall
	server := newInstagramTestServer(t, &calls)
	defer server.Close()

	p := newTestInstagramPublisher(server.URL)
	post, account, token := igFixtures()
	media := []*models.MediaItem{
		{ID: 1, MediaType: models.MediaTypeImage, FileURL: "https://cdn.example.com/a.jpg"},
	}

	id, err := p.Publish(context.Background(), post, media, account, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 HTTP calls (container + publish), got %d", len(calls))
	}

	container := calls[0]
	if container.path != "/178414123/media" {
		t.Errorf("unexpected container path %s", container.path)
	}
	if container.payload["image_url"] != "https://cdn.example.com/a.jpg" {
		t.Errorf("container missing image_url: %v", container.payload)
	}
	if container.payload["caption"] != "hello world\n\n#go" {
		t.Errorf("unexpected caption %v", container.payload["caption"])
	}

	publish := calls[1]
	if publish.path != "/178414123/media_publish" {
		t.Errorf("unexpected publish path %s", publish.path)
	}
	if publish.payload["creation_id"] != "obj_1" {
		t.Errorf("publish should reference the container id, got %v", publish.payload["creation_id"])
	}
	if id != "obj_2" {
		t.Errorf("unexpected platform post id %s", id)
	}
}

func TestInstagramCarouselCallSequence(t *testing.T) {
	var calls []igCall
	server := newInstagramTestServer(t, &calls)
	defer server.Close()

	p := newTestInstagramPublisher(server.URL)
	post, account, token := igFixtures()
	media := []*models.MediaItem{
		{ID: 1, MediaType: models.MediaTypeImage, FileURL: "https://cdn.example.com/1.jpg"},
		{ID: 2, MediaType: models.MediaTypeImage, FileURL: "https://cdn.example.com/2.jpg"},
		{ID: 3, MediaType: models.MediaTypeImage, FileURL: "https://cdn.example.com/3.jpg"},
	}

	_, err := p.Publish(context.Background(), post, media, account, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 3 children + 1 parent + 1 publish
	if len(calls) != 5 {
		t.Fatalf("expected 5 HTTP calls, got %d", len(calls))
	}

	for i := 0; i < 3; i++ {
		child := calls[i]
		if child.payload["is_carousel_item"] != true {
			t.Errorf("child %d should be a carousel item: %v", i, child.payload)
		}
		if _, ok := child.payload["caption"]; ok {
			t.Errorf("child %d must not carry a caption", i)
		}
	}

	parent := calls[3]
	if parent.payload["media_type"] != "CAROUSEL" {
		t.Errorf("parent should be CAROUSEL, got %v", parent.payload["media_type"])
	}
	children, ok := parent.payload["children"].([]interface{})
	if !ok || len(children) != 3 {
		t.Errorf("parent should reference 3 children, got %v", parent.payload["children"])
	}
	if parent.payload["caption"] != "hello world\n\n#go" {
		t.Errorf("caption belongs on the parent, got %v", parent.payload["caption"])
	}

	if calls[4].path != "/178414123/media_publish" {
		t.Errorf("final call should publish, got %s", calls[4].path)
	}
}

func TestInstagramErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind string
	}{
		{"expired token", http.StatusBadRequest, `{"error":{"message":"Error validating access token","code":190}}`, ErrKindAuth},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"no","code":10}}`, ErrKindAuth},
		{"policy rejection", http.StatusBadRequest, `{"error":{"message":"Invalid image","code":9004}}`, ErrKindRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			p := newTestInstagramPublisher(server.URL)
			post, account, token := igFixtures()
			media := []*models.MediaItem{{ID: 1, MediaType: models.MediaTypeImage, FileURL: "https://cdn.example.com/a.jpg"}}

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

func TestInstagramAbortsCarouselOnChildFailure(t *testing.T) {
	var count int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		w.Header().Set("Content-Type", "application/json")
		if count == 2 {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"message":"bad media","code":9004}}`)
			return
		}
		fmt.Fprintf(w, `{"id":"obj_%d"}`, count)
	}))
	defer server.Close()

	p := newTestInstagramPublisher(server.URL)
	post, account, token := igFixtures()
	media := []*models.MediaItem{
		{ID: 1, MediaType: models.MediaTypeImage, FileURL: "https://cdn.example.com/1.jpg"},
		{ID: 2, MediaType: models.MediaTypeImage, FileURL: "https://cdn.example.com/2.jpg"},
		{ID: 3, MediaType: models.MediaTypeImage, FileURL: "https://cdn.example.com/3.jpg"},
	}

	_, err := p.Publish(context.Background(), post, media, account, token)
	if err == nil {
		t.Fatal("expected error")
	}
	if count != 2 {
		t.Errorf("expected abort after second call, got %d calls", count)
	}
}

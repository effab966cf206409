// Instagram adapter, backed by the RapidAPI instagram-scraper-20251 API.
//
// The upstream listing is a single page of recent posts, so no pagination or
// cutoff loop applies here. Photo posts have no play count; views fall back to
// zero for them, and the API exposes no share count at all.
package scrape

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"github.com/clippulse/go-clipper-backend/internal/domain"
)

const instagramHost = "instagram-scraper-20251.p.rapidapi.com"

// captionMaxLen caps stored titles; Instagram captions can run to thousands
// of characters.
const captionMaxLen = 100

// Instagram lists and refreshes a user's posts.
type Instagram struct {
	client *resty.Client
	cfg    Config
}

// NewInstagram constructs the Instagram adapter.
func NewInstagram(cfg Config) *Instagram {
	return &Instagram{
		client: newClient(instagramHost, cfg),
		cfg:    cfg,
	}
}

type igPost struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Caption struct {
		Text string `json:"text"`
	} `json:"caption"`
	ThumbnailURL string `json:"thumbnail_url"`
	PlayCount    int64  `json:"play_count"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
	TakenAt      int64  `json:"taken_at"`
}

type igPostsResponse struct {
	Data struct {
		Items []igPost `json:"items"`
	} `json:"data"`
	Items []igPost `json:"items"`
	Posts []igPost `json:"posts"`
}

type igPostInfoResponse struct {
	Data igPost `json:"data"`
}

// FetchRecentPosts lists the user's recent posts. The upstream response nests
// the item list under varying keys; all known shapes are accepted.
func (s *Instagram) FetchRecentPosts(ctx context.Context, identifier string) ([]NormalizedPost, error) {
	username := cleanUsername(identifier)
	if username == "" {
		return nil, nil
	}

	var out igPostsResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("username_or_id_or_url", username).
		SetResult(&out).
		Get("/v1/posts")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, upstreamError(domain.PlatformInstagram, resp)
	}

	items := out.Data.Items
	if len(items) == 0 {
		items = out.Items
	}
	if len(items) == 0 {
		items = out.Posts
	}

	posts := make([]NormalizedPost, 0, len(items))
	for _, p := range items {
		posts = append(posts, normalizeInstagramPost(p, "https://instagram.com/p/"+p.Code))
	}
	return posts, nil
}

// FetchPostMetrics refreshes a single post by URL.
func (s *Instagram) FetchPostMetrics(ctx context.Context, postURL string) (*NormalizedPost, error) {
	var out igPostInfoResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("code_or_id_or_url", postURL).
		SetResult(&out).
		Get("/v1/post_info")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, upstreamError(domain.PlatformInstagram, resp)
	}
	if out.Data.ID == "" {
		return nil, nil
	}
	p := normalizeInstagramPost(out.Data, postURL)
	return &p, nil
}

func normalizeInstagramPost(p igPost, postURL string) NormalizedPost {
	n := NormalizedPost{
		PostID:    p.ID,
		PostURL:   postURL,
		Title:     truncateCaption(p.Caption.Text),
		Thumbnail: p.ThumbnailURL,
		// Play count exists only for videos/reels; photo posts read zero.
		Views:    p.PlayCount,
		Likes:    p.LikeCount,
		Comments: p.CommentCount,
		// The Instagram API exposes no share count.
		Shares: 0,
	}
	if p.TakenAt > 0 {
		t := time.Unix(p.TakenAt, 0).UTC()
		n.PostedAt = &t
	}
	return n
}

// truncateCaption clips a caption to captionMaxLen runes.
func truncateCaption(text string) string {
	if utf8.RuneCountInString(text) <= captionMaxLen {
		return text
	}
	return string([]rune(text)[:captionMaxLen])
}

// TikTok adapter, backed by the RapidAPI tiktok-scraper7 API.
//
// User listings are cursor-paginated; the adapter follows the cursor until the
// upstream reports no more pages, the page ceiling is hit, or a video older
// than the recency cutoff appears. TikTok is the only platform that exposes
// profile info, so this adapter also implements ProfileFetcher.
package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/clippulse/go-clipper-backend/internal/domain"
)

const tiktokHost = "tiktok-scraper7.p.rapidapi.com"

// postsPerPage is the upstream page size for /user/posts.
const postsPerPage = 35

// TikTok lists and refreshes a user's videos.
type TikTok struct {
	client *resty.Client
	cfg    Config
	now    func() time.Time
}

// NewTikTok constructs the TikTok adapter.
func NewTikTok(cfg Config) *TikTok {
	return &TikTok{
		client: newClient(tiktokHost, cfg),
		cfg:    cfg,
		now:    time.Now,
	}
}

type ttVideo struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	Cover        string `json:"cover"`
	PlayCount    int64  `json:"play_count"`
	DiggCount    int64  `json:"digg_count"`
	CommentCount int64  `json:"comment_count"`
	ShareCount   int64  `json:"share_count"`
	CreateTime   int64  `json:"create_time"`
}

type ttUserPostsResponse struct {
	Data struct {
		Videos  []ttVideo `json:"videos"`
		Cursor  string    `json:"cursor"`
		HasMore bool      `json:"hasMore"`
	} `json:"data"`
}

type ttUserInfoResponse struct {
	Data struct {
		User struct {
			AvatarLarger string `json:"avatarLarger"`
			AvatarMedium string `json:"avatarMedium"`
			AvatarThumb  string `json:"avatarThumb"`
		} `json:"user"`
	} `json:"data"`
}

type ttVideoInfoResponse struct {
	Data struct {
		ID           string `json:"id"`
		Title        string `json:"title"`
		Cover        string `json:"cover"`
		PlayCount    int64  `json:"play_count"`
		DiggCount    int64  `json:"digg_count"`
		CommentCount int64  `json:"comment_count"`
		ShareCount   int64  `json:"share_count"`
		CreateTime   int64  `json:"create_time"`
	} `json:"data"`
}

// FetchRecentPosts pages through the user's videos newest-first, stopping at
// the recency cutoff, the page ceiling, or the end of the listing.
func (s *TikTok) FetchRecentPosts(ctx context.Context, identifier string) ([]NormalizedPost, error) {
	username := cleanUsername(identifier)
	if username == "" {
		return nil, nil
	}
	cutoff := s.now().Add(-s.cfg.RecencyCutoff)

	var posts []NormalizedPost
	cursor := ""
	for page := 0; page < s.cfg.MaxPages; page++ {
		params := map[string]string{
			"unique_id": username,
			"count":     fmt.Sprintf("%d", postsPerPage),
		}
		if cursor != "" {
			params["cursor"] = cursor
		}

		var out ttUserPostsResponse
		resp, err := s.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(&out).
			Get("/user/posts")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, upstreamError(domain.PlatformTikTok, resp)
		}
		if len(out.Data.Videos) == 0 {
			break
		}

		reachedOld := false
		for _, v := range out.Data.Videos {
			postedAt := time.Unix(v.CreateTime, 0).UTC()
			if postedAt.Before(cutoff) {
				reachedOld = true
				break
			}
			posts = append(posts, NormalizedPost{
				PostID:    v.VideoID,
				PostURL:   fmt.Sprintf("https://tiktok.com/@%s/video/%s", username, v.VideoID),
				Title:     v.Title,
				Thumbnail: v.Cover,
				Views:     v.PlayCount,
				Likes:     v.DiggCount,
				Comments:  v.CommentCount,
				Shares:    v.ShareCount,
				PostedAt:  &postedAt,
			})
		}

		cursor = out.Data.Cursor
		if reachedOld || !out.Data.HasMore || cursor == "" {
			break
		}
		if err := pageDelay(ctx, s.cfg.PageDelay); err != nil {
			return posts, err
		}
	}
	return posts, nil
}

// FetchPostMetrics refreshes a single video by URL.
func (s *TikTok) FetchPostMetrics(ctx context.Context, postURL string) (*NormalizedPost, error) {
	var out ttVideoInfoResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("url", postURL).
		SetResult(&out).
		Get("/video/info")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, upstreamError(domain.PlatformTikTok, resp)
	}
	v := out.Data
	if v.ID == "" {
		return nil, nil
	}

	p := &NormalizedPost{
		PostID:    v.ID,
		PostURL:   postURL,
		Title:     v.Title,
		Thumbnail: v.Cover,
		Views:     v.PlayCount,
		Likes:     v.DiggCount,
		Comments:  v.CommentCount,
		Shares:    v.ShareCount,
	}
	if v.CreateTime > 0 {
		t := time.Unix(v.CreateTime, 0).UTC()
		p.PostedAt = &t
	}
	return p, nil
}

// FetchProfile resolves the user's avatar, preferring the largest variant.
func (s *TikTok) FetchProfile(ctx context.Context, identifier string) (*Profile, error) {
	username := cleanUsername(identifier)
	if username == "" {
		return nil, nil
	}

	var out ttUserInfoResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("unique_id", username).
		SetResult(&out).
		Get("/user/info")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, upstreamError(domain.PlatformTikTok, resp)
	}

	u := out.Data.User
	avatar := u.AvatarLarger
	if avatar == "" {
		avatar = u.AvatarMedium
	}
	if avatar == "" {
		avatar = u.AvatarThumb
	}
	if avatar == "" {
		return nil, nil
	}
	return &Profile{ProfilePicture: avatar}, nil
}

// cleanUsername strips a leading @ and surrounding whitespace from a handle.
func cleanUsername(identifier string) string {
	return strings.TrimPrefix(strings.TrimSpace(identifier), "@")
}

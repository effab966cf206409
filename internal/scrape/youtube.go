// YouTube adapter, backed by the RapidAPI YouTube v3 mirror.
//
// Listing an account is a three-step flow: resolve the channel ID, look up the
// channel's uploads playlist, then page through the playlist collecting video
// IDs until the page ceiling or the recency cutoff is reached. Statistics are
// fetched in batches of up to 50 IDs per call.
package scrape

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/clippulse/go-clipper-backend/internal/domain"
)

const youtubeHost = "youtube-v31.p.rapidapi.com"

// videosPerStatsBatch is the upstream maximum for the /videos id parameter.
const videosPerStatsBatch = 50

// channelIDRe recognizes a literal channel ID: the fixed "UC" prefix followed
// by 22 ID characters. Anything else is treated as a searchable handle.
var channelIDRe = regexp.MustCompile(`^UC[a-zA-Z0-9_-]{22}$`)

// channelURLRes extract a channel ID or handle from full profile URLs.
var channelURLRes = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/channel/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`youtube\.com/@([a-zA-Z0-9_.-]+)`),
	regexp.MustCompile(`youtube\.com/c/([a-zA-Z0-9_.-]+)`),
}

// videoURLRes extract a video ID from the supported post URL shapes.
var videoURLRes = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?v=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]+)`),
}

// YouTube lists and refreshes channel videos.
type YouTube struct {
	client *resty.Client
	cfg    Config
	now    func() time.Time
}

// NewYouTube constructs the YouTube adapter.
func NewYouTube(cfg Config) *YouTube {
	return &YouTube{
		client: newClient(youtubeHost, cfg),
		cfg:    cfg,
		now:    time.Now,
	}
}

// Upstream payload shapes (only the fields the adapter extracts).

type ytSearchResponse struct {
	Items []struct {
		ID struct {
			ChannelID string `json:"channelId"`
		} `json:"id"`
	} `json:"items"`
}

type ytChannelsResponse struct {
	Items []struct {
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type ytPlaylistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			PublishedAt string `json:"publishedAt"`
			ResourceID  struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

type ytVideosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
			Thumbnails  struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// FetchRecentPosts lists the channel's recent uploads. An identifier that
// resolves to no channel yields an empty slice, not an error.
func (s *YouTube) FetchRecentPosts(ctx context.Context, identifier string) ([]NormalizedPost, error) {
	channelID, err := s.resolveChannelID(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if channelID == "" {
		return nil, nil
	}

	uploads, err := s.uploadsPlaylist(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if uploads == "" {
		return nil, nil
	}

	videoIDs, err := s.collectVideoIDs(ctx, uploads)
	if err != nil {
		return nil, err
	}
	if len(videoIDs) == 0 {
		return nil, nil
	}

	var posts []NormalizedPost
	for start := 0; start < len(videoIDs); start += videosPerStatsBatch {
		end := start + videosPerStatsBatch
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		batch, err := s.videoStats(ctx, videoIDs[start:end])
		if err != nil {
			return nil, err
		}
		posts = append(posts, batch...)
	}
	return posts, nil
}

// FetchPostMetrics refreshes a single video by URL. Unrecognized URLs and
// unknown videos yield nil without error.
func (s *YouTube) FetchPostMetrics(ctx context.Context, postURL string) (*NormalizedPost, error) {
	videoID := extractFirst(videoURLRes, postURL)
	if videoID == "" {
		return nil, nil
	}
	posts, err := s.videoStats(ctx, []string{videoID})
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	p := posts[0]
	p.PostURL = postURL
	return &p, nil
}

// resolveChannelID turns a handle, profile URL, or literal channel ID into a
// channel ID. Handles go through the search endpoint; an unknown handle
// resolves to "".
func (s *YouTube) resolveChannelID(ctx context.Context, identifier string) (string, error) {
	id := strings.TrimSpace(identifier)
	if extracted := extractFirst(channelURLRes, id); extracted != "" {
		id = extracted
	}
	id = strings.TrimPrefix(id, "@")
	if id == "" {
		return "", nil
	}
	if channelIDRe.MatchString(id) {
		return id, nil
	}

	var out ytSearchResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"part":       "snippet",
			"q":          id,
			"type":       "channel",
			"maxResults": "1",
		}).
		SetResult(&out).
		Get("/search")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", upstreamError(domain.PlatformYouTube, resp)
	}
	if len(out.Items) == 0 {
		return "", nil
	}
	return out.Items[0].ID.ChannelID, nil
}

// uploadsPlaylist returns the channel's uploads playlist ID, or "" when the
// channel is unknown.
func (s *YouTube) uploadsPlaylist(ctx context.Context, channelID string) (string, error) {
	var out ytChannelsResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"part": "contentDetails",
			"id":   channelID,
		}).
		SetResult(&out).
		Get("/channels")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", upstreamError(domain.PlatformYouTube, resp)
	}
	if len(out.Items) == 0 {
		return "", nil
	}
	return out.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// collectVideoIDs pages through the uploads playlist until no more pages are
// reported, the page ceiling is hit, or a video older than the recency cutoff
// appears. Reaching the cutoff is a normal early-terminating success.
func (s *YouTube) collectVideoIDs(ctx context.Context, playlistID string) ([]string, error) {
	cutoff := s.now().Add(-s.cfg.RecencyCutoff)

	var ids []string
	pageToken := ""
	for page := 0; page < s.cfg.MaxPages; page++ {
		params := map[string]string{
			"part":       "snippet",
			"playlistId": playlistID,
			"maxResults": "50",
		}
		if pageToken != "" {
			params["pageToken"] = pageToken
		}

		var out ytPlaylistItemsResponse
		resp, err := s.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(&out).
			Get("/playlistItems")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, upstreamError(domain.PlatformYouTube, resp)
		}
		if len(out.Items) == 0 {
			break
		}

		reachedOld := false
		for _, item := range out.Items {
			if ts, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil && ts.Before(cutoff) {
				reachedOld = true
				break
			}
			if vid := item.Snippet.ResourceID.VideoID; vid != "" {
				ids = append(ids, vid)
			}
		}
		if reachedOld || out.NextPageToken == "" {
			break
		}
		pageToken = out.NextPageToken

		if err := pageDelay(ctx, s.cfg.PageDelay); err != nil {
			return ids, err
		}
	}
	return ids, nil
}

// videoStats fetches snippet+statistics for up to 50 video IDs per call.
func (s *YouTube) videoStats(ctx context.Context, videoIDs []string) ([]NormalizedPost, error) {
	var out ytVideosResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"part": "snippet,statistics",
			"id":   strings.Join(videoIDs, ","),
		}).
		SetResult(&out).
		Get("/videos")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, upstreamError(domain.PlatformYouTube, resp)
	}

	posts := make([]NormalizedPost, 0, len(out.Items))
	for _, v := range out.Items {
		p := NormalizedPost{
			PostID:    v.ID,
			PostURL:   "https://youtube.com/watch?v=" + v.ID,
			Title:     v.Snippet.Title,
			Thumbnail: v.Snippet.Thumbnails.Default.URL,
			Views:     parseCount(v.Statistics.ViewCount),
			Likes:     parseCount(v.Statistics.LikeCount),
			Comments:  parseCount(v.Statistics.CommentCount),
			// The YouTube API exposes no share count.
			Shares: 0,
		}
		if ts, err := time.Parse(time.RFC3339, v.Snippet.PublishedAt); err == nil {
			t := ts.UTC()
			p.PostedAt = &t
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// extractFirst returns the first capture group of the first pattern matching s.
func extractFirst(patterns []*regexp.Regexp, s string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(s); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

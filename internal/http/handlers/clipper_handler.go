// Clipper HTTP handlers.
//
// This file exposes REST endpoints for clipper resources:
//   - POST   /clippers        (register)
//   - GET    /clippers        (leaderboard, optionally grouped, ETag support)
//   - GET    /clippers/{id}   (detail with posts and snapshots)
//   - PUT    /clippers/{id}   (update identifiers)
//   - DELETE /clippers/{id}   (remove with cascading posts/snapshots)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clippulse/go-clipper-backend/internal/domain"
	"github.com/clippulse/go-clipper-backend/internal/repo"
	"github.com/clippulse/go-clipper-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// ClipperService defines clipper roster operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ClipperService interface {
	// Create registers a clipper with optional per-platform identifiers.
	Create(ctx context.Context, in services.CreateClipperInput) (*domain.Clipper, error)
	// Update applies partial identifier/name updates to a clipper.
	Update(ctx context.Context, id string, in services.UpdateClipperInput) (*domain.Clipper, error)
	// Delete removes a clipper and its posts/snapshots.
	Delete(ctx context.Context, id string) error
	// List returns the leaderboard, per page or consolidated per group.
	List(ctx context.Context, q services.ListClippersQuery) ([]services.ClipperStats, []services.GroupStats, error)
	// Get returns one clipper with posts and recent snapshots.
	Get(ctx context.Context, id string, from, to *time.Time) (*services.ClipperDetail, error)
	// Status reports the roster's most recent refresh timestamp.
	Status(ctx context.Context) (*time.Time, error)
}

// RefreshService triggers ingestion runs.
type RefreshService interface {
	// Run executes one ingestion pass, optionally bypassing the cache window.
	Run(ctx context.Context, force bool) (*services.RefreshSummary, error)
}

// HashtagService computes the hashtag leaderboard.
type HashtagService interface {
	List(ctx context.Context, q services.HashtagQuery) ([]services.HashtagStats, error)
}

// FrequencyService computes posting-cadence statistics.
type FrequencyService interface {
	List(ctx context.Context, q services.FrequencyQuery) ([]services.FrequencyStats, error)
}

// ActivityService computes the gap-filled posting calendar.
type ActivityService interface {
	List(ctx context.Context, q services.ActivityQuery) ([]services.ActivityDay, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for clippers, ingestion, and analytics.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	clipperSvc   ClipperService
	refreshSvc   RefreshService
	hashtagSvc   HashtagService
	frequencySvc FrequencyService
	activitySvc  ActivityService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(clipperSvc ClipperService, refreshSvc RefreshService, hashtagSvc HashtagService, frequencySvc FrequencyService, activitySvc ActivityService) *Handlers {
	return &Handlers{
		clipperSvc:   clipperSvc,
		refreshSvc:   refreshSvc,
		hashtagSvc:   hashtagSvc,
		frequencySvc: frequencySvc,
		activitySvc:  activitySvc,
	}
}

//
// DTOs
//

// CreateClipperRequest is the JSON payload for registering a clipper.
type CreateClipperRequest struct {
	// Name is the display name; "Group - Page" derives the group when no
	// explicit clipperGroup is given.
	Name              string `json:"name" binding:"required,min=1,max=100" example:"Acme - Shorts"`
	ClipperGroup      string `json:"clipperGroup" example:"Acme"`
	YouTubeChannel    string `json:"youtubeChannel" example:"@acmeshorts"`
	TikTokUsername    string `json:"tiktokUsername" example:"@acmeshorts"`
	InstagramUsername string `json:"instagramUsername" example:"acmeshorts"`
}

// UpdateClipperRequest is the JSON payload for partial clipper updates.
// Absent fields are left unchanged.
type UpdateClipperRequest struct {
	Name              *string `json:"name"`
	ClipperGroup      *string `json:"clipperGroup"`
	YouTubeChannel    *string `json:"youtubeChannel"`
	TikTokUsername    *string `json:"tiktokUsername"`
	InstagramUsername *string `json:"instagramUsername"`
}

// ListClippersResponse wraps the leaderboard; exactly one of Clippers or
// Groups is present depending on the grouped query flag.
type ListClippersResponse struct {
	Clippers []services.ClipperStats `json:"clippers,omitempty"`
	Groups   []services.GroupStats   `json:"groups,omitempty"`
}

//
// Handlers
//

// CreateClipper registers a new clipper.
//
// @ID          createClipper
// @Summary     Register a clipper
// @Tags        Clippers
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.CreateClipperRequest  true  "Clipper payload"
// @Success     201  {object}  domain.Clipper
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /clippers [post]
func (h *Handlers) CreateClipper(c *gin.Context) {
	var req CreateClipperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	clipper, err := h.clipperSvc.Create(c.Request.Context(), services.CreateClipperInput{
		Name:              req.Name,
		ClipperGroup:      req.ClipperGroup,
		YouTubeChannel:    req.YouTubeChannel,
		TikTokUsername:    req.TikTokUsername,
		InstagramUsername: req.InstagramUsername,
	})
	if err != nil {
		if errors.Is(err, services.ErrNameRequired) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, clipper)
}

// ListClippers returns the leaderboard.
//
// @ID          listClippers
// @Summary     List clippers with aggregated metrics
// @Tags        Clippers
// @Produce     json
// @Param       group     query  string  false "Restrict to one clipper group"
// @Param       grouped   query  bool    false "Consolidate pages by group"
// @Param       fromDate  query  string  false "Inclusive lower bound (YYYY-MM-DD)"
// @Param       toDate    query  string  false "Inclusive upper bound (YYYY-MM-DD)"
// @Success     200  {object} handlers.ListClippersResponse
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /clippers [get]
func (h *Handlers) ListClippers(c *gin.Context) {
	ctx := c.Request.Context()
	from, to, derr := parseDateRange(c)
	if derr != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, derr.Error())
		return
	}

	// ETag pre-check (best effort).
	if db := h.clipperDB(); db != nil {
		count, last, updated, err := repo.RosterStats(ctx, db)
		if err == nil {
			var ts, uts int64
			if last != nil {
				ts = last.Unix()
			}
			if updated != nil {
				uts = updated.Unix()
			}
			// updated_at covers roster edits that never touch the refresh
			// timestamp, such as renames.
			etag := fmt.Sprintf(`W/"clippers:%d:%d:%d"`, count, ts, uts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	rows, groups, err := h.clipperSvc.List(ctx, services.ListClippersQuery{
		Group:   c.Query("group"),
		From:    from,
		To:      to,
		Grouped: boolQuery(c, "grouped"),
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidDateRange) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListClippersResponse{Clippers: rows, Groups: groups})
}

// GetClipper returns one clipper with posts and snapshot history.
//
// @ID          getClipper
// @Summary     Fetch clipper detail
// @Tags        Clippers
// @Produce     json
// @Param       id        path   string  true  "Clipper ID (UUID)" format(uuid)
// @Param       fromDate  query  string  false "Inclusive lower bound (YYYY-MM-DD)"
// @Param       toDate    query  string  false "Inclusive upper bound (YYYY-MM-DD)"
// @Success     200  {object} services.ClipperDetail
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Clipper not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /clippers/{id} [get]
func (h *Handlers) GetClipper(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "clipper id must be a UUID")
		return
	}
	from, to, derr := parseDateRange(c)
	if derr != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, derr.Error())
		return
	}

	// ETag pre-check (best effort).
	if db := h.clipperDB(); db != nil {
		count, maxTS, err := repo.PostsStats(ctx, db, id)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"clipper:%s:%d:%d"`, id, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	detail, err := h.clipperSvc.Get(ctx, id, from, to)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrClipperNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "clipper not found")
		case errors.Is(err, services.ErrInvalidDateRange):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, detail)
}

// UpdateClipper applies partial updates to a clipper.
//
// @ID          updateClipper
// @Summary     Update a clipper
// @Tags        Clippers
// @Accept      json
// @Produce     json
// @Param       id    path  string  true  "Clipper ID (UUID)" format(uuid)
// @Param       body  body  handlers.UpdateClipperRequest  true  "Fields to update"
// @Success     200  {object} domain.Clipper
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Clipper not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /clippers/{id} [put]
func (h *Handlers) UpdateClipper(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "clipper id must be a UUID")
		return
	}
	var req UpdateClipperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	clipper, err := h.clipperSvc.Update(c.Request.Context(), id, services.UpdateClipperInput{
		Name:              req.Name,
		ClipperGroup:      req.ClipperGroup,
		YouTubeChannel:    req.YouTubeChannel,
		TikTokUsername:    req.TikTokUsername,
		InstagramUsername: req.InstagramUsername,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrClipperNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "clipper not found")
		case errors.Is(err, services.ErrNameRequired):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, clipper)
}

// DeleteClipper removes a clipper and its posts/snapshots.
//
// @ID          deleteClipper
// @Summary     Delete a clipper
// @Tags        Clippers
// @Param       id  path  string  true  "Clipper ID (UUID)" format(uuid)
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Clipper not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /clippers/{id} [delete]
func (h *Handlers) DeleteClipper(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "clipper id must be a UUID")
		return
	}
	if err := h.clipperSvc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrClipperNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "clipper not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// clipperDB exposes the concrete service's DB handle for ETag prechecks.
func (h *Handlers) clipperDB() *gorm.DB {
	if svc, ok := h.clipperSvc.(*services.ClipperService); ok {
		return svc.DB
	}
	return nil
}

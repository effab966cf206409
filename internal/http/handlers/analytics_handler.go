// Analytics HTTP handlers: hashtag leaderboard, posting cadence, and the
// gap-filled activity calendar.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clippulse/go-clipper-backend/internal/services"
	"github.com/clippulse/go-clipper-backend/internal/utils"
)

// HashtagFilters echoes the filters a hashtag query was computed under.
type HashtagFilters struct {
	FromDate  string `json:"fromDate,omitempty"`
	ToDate    string `json:"toDate,omitempty"`
	ClipperID string `json:"clipperId,omitempty"`
	Group     string `json:"group,omitempty"`
	Platform  string `json:"platform,omitempty"`
	SortBy    string `json:"sortBy,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// HashtagsResponse wraps the leaderboard with its row count and the filters
// that produced it.
type HashtagsResponse struct {
	Hashtags []services.HashtagStats `json:"hashtags"`
	Total    int                     `json:"total"`
	Filters  HashtagFilters          `json:"filters"`
}

// Hashtags returns the hashtag leaderboard across all tracked posts.
//
// @ID          hashtags
// @Summary     Aggregate hashtag performance
// @Tags        Analytics
// @Produce     json
// @Param       fromDate   query  string  false "Inclusive lower bound (YYYY-MM-DD)"
// @Param       toDate     query  string  false "Inclusive upper bound (YYYY-MM-DD)"
// @Param       clipperId  query  string  false "Restrict to one clipper"
// @Param       group      query  string  false "Restrict to one clipper group"
// @Param       platform   query  string  false "Restrict to one platform" Enums(youtube, tiktok, instagram)
// @Param       sortBy     query  string  false "Sort key" Enums(views, posts, avgViews, trend)
// @Param       limit      query  int     false "Maximum rows (default 50)"
// @Success     200  {object} handlers.HashtagsResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /hashtags [get]
func (h *Handlers) Hashtags(c *gin.Context) {
	from, to, derr := parseDateRange(c)
	if derr != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, derr.Error())
		return
	}

	q := services.HashtagQuery{
		From:      from,
		To:        to,
		ClipperID: c.Query("clipperId"),
		Group:     c.Query("group"),
		Platform:  c.Query("platform"),
		SortBy:    c.Query("sortBy"),
		Limit:     utils.AtoiDefault(c.Query("limit"), 0),
	}
	rows, err := h.hashtagSvc.List(c.Request.Context(), q)
	if err != nil {
		if isAnalyticsInputErr(err) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if rows == nil {
		rows = []services.HashtagStats{}
	}
	ok(c, http.StatusOK, HashtagsResponse{
		Hashtags: rows,
		Total:    len(rows),
		Filters: HashtagFilters{
			FromDate:  c.Query("fromDate"),
			ToDate:    c.Query("toDate"),
			ClipperID: q.ClipperID,
			Group:     q.Group,
			Platform:  q.Platform,
			SortBy:    q.SortBy,
			Limit:     q.Limit,
		},
	})
}

// Frequency returns posting-cadence statistics per page or per group.
//
// @ID          frequency
// @Summary     Report posting cadence
// @Tags        Analytics
// @Produce     json
// @Param       fromDate  query  string  false "Inclusive lower bound (YYYY-MM-DD)"
// @Param       toDate    query  string  false "Inclusive upper bound (YYYY-MM-DD)"
// @Param       group     query  string  false "Restrict to one clipper group"
// @Param       platform  query  string  false "Restrict to one platform" Enums(youtube, tiktok, instagram)
// @Param       groupBy   query  string  false "Aggregation key" Enums(page, clipper)
// @Success     200  {array}  services.FrequencyStats
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /frequency [get]
func (h *Handlers) Frequency(c *gin.Context) {
	from, to, derr := parseDateRange(c)
	if derr != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, derr.Error())
		return
	}

	rows, err := h.frequencySvc.List(c.Request.Context(), services.FrequencyQuery{
		From:     from,
		To:       to,
		Group:    c.Query("group"),
		Platform: c.Query("platform"),
		GroupBy:  c.Query("groupBy"),
	})
	if err != nil {
		if isAnalyticsInputErr(err) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, rows)
}

// Activity returns the per-day posting calendar, including empty days.
//
// @ID          activity
// @Summary     Report daily posting activity
// @Tags        Analytics
// @Produce     json
// @Param       fromDate   query  string  false "Inclusive lower bound (YYYY-MM-DD); default one year ago"
// @Param       toDate     query  string  false "Inclusive upper bound (YYYY-MM-DD); default today"
// @Param       clipperId  query  string  false "Restrict to one clipper"
// @Param       group      query  string  false "Restrict to one clipper group"
// @Param       platform   query  string  false "Restrict to one platform" Enums(youtube, tiktok, instagram)
// @Success     200  {array}  services.ActivityDay
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /activity [get]
func (h *Handlers) Activity(c *gin.Context) {
	from, to, derr := parseDateRange(c)
	if derr != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, derr.Error())
		return
	}

	days, err := h.activitySvc.List(c.Request.Context(), services.ActivityQuery{
		From:      from,
		To:        to,
		ClipperID: c.Query("clipperId"),
		Group:     c.Query("group"),
		Platform:  c.Query("platform"),
	})
	if err != nil {
		if isAnalyticsInputErr(err) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, days)
}

// isAnalyticsInputErr reports whether err stems from caller input rather than
// the backing store.
func isAnalyticsInputErr(err error) bool {
	return errors.Is(err, services.ErrInvalidDateRange) ||
		errors.Is(err, services.ErrInvalidPlatform) ||
		errors.Is(err, services.ErrInvalidGroupBy) ||
		errors.Is(err, services.ErrInvalidSortBy)
}

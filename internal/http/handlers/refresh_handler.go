package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clippulse/go-clipper-backend/internal/services"
	"github.com/clippulse/go-clipper-backend/internal/sysutil"
)

// RefreshStatusResponse reports the roster's most recent refresh time.
type RefreshStatusResponse struct {
	LastRefreshedAt *time.Time `json:"lastRefreshedAt"`
}

// Refresh triggers an ingestion run across all platforms.
//
// @ID          refresh
// @Summary     Fetch fresh metrics from all configured platforms
// @Tags        Refresh
// @Produce     json
// @Param       force  query  bool  false  "Bypass the refresh cache window"
// @Success     200  {object} services.RefreshSummary
// @Failure     500  {object} handlers.ErrorResponse "Refresh failed"
// @Failure     503  {object} handlers.ErrorResponse "Scraping not configured"
// @Router      /refresh [post]
func (h *Handlers) Refresh(c *gin.Context) {
	force := sysutil.IsTruthy(c.Query("force"))

	summary, err := h.refreshSvc.Run(c.Request.Context(), force)
	if err != nil {
		if errors.Is(err, services.ErrNotConfigured) {
			fail(c, http.StatusServiceUnavailable, ErrCodeNotConfigured, "metrics ingestion is not configured; set RAPIDAPI_KEY")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeRefreshFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, summary)
}

// RefreshStatus reports when the roster was last refreshed.
//
// @ID          refreshStatus
// @Summary     Report the most recent refresh timestamp
// @Tags        Refresh
// @Produce     json
// @Success     200  {object} handlers.RefreshStatusResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /refresh/status [get]
func (h *Handlers) RefreshStatus(c *gin.Context) {
	last, err := h.clipperSvc.Status(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, RefreshStatusResponse{LastRefreshedAt: last})
}

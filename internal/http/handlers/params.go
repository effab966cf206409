package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clippulse/go-clipper-backend/internal/sysutil"
)

const dateLayout = "2006-01-02"

// parseDateRange reads the optional fromDate/toDate query parameters
// (YYYY-MM-DD). toDate is extended to the end of its calendar day in UTC so
// the bound is inclusive.
func parseDateRange(c *gin.Context) (from, to *time.Time, err error) {
	if raw := c.Query("fromDate"); raw != "" {
		t, perr := time.ParseInLocation(dateLayout, raw, time.UTC)
		if perr != nil {
			return nil, nil, fmt.Errorf("fromDate must be YYYY-MM-DD")
		}
		from = &t
	}
	if raw := c.Query("toDate"); raw != "" {
		t, perr := time.ParseInLocation(dateLayout, raw, time.UTC)
		if perr != nil {
			return nil, nil, fmt.Errorf("toDate must be YYYY-MM-DD")
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	return from, to, nil
}

// boolQuery interprets a query parameter as a boolean flag.
func boolQuery(c *gin.Context, key string) bool {
	return sysutil.IsTruthy(c.Query(key))
}

// Package services defines the business logic for ingestion and analytics.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import (
	"errors"

	"github.com/clippulse/go-clipper-backend/internal/scrape"
)

var (
	// ErrClipperNotFound indicates that the requested clipper does not exist.
	ErrClipperNotFound = errors.New("clipper not found")

	// ErrNameRequired is returned when a clipper is created without a name.
	ErrNameRequired = errors.New("name is required")

	// ErrNotConfigured is returned by the ingestion trigger when the shared
	// scraping credential is absent. It is detected before any clipper is
	// touched and is distinct from runtime fetch failures.
	ErrNotConfigured = scrape.ErrNotConfigured

	// ErrInvalidDateRange is returned when a query's toDate precedes its
	// fromDate.
	ErrInvalidDateRange = errors.New("toDate must not precede fromDate")

	// ErrInvalidPlatform is returned when a filter names no supported platform.
	ErrInvalidPlatform = errors.New("unknown platform")

	// ErrInvalidGroupBy is returned when a frequency query's groupBy is
	// neither "page" nor "clipper".
	ErrInvalidGroupBy = errors.New(`groupBy must be "page" or "clipper"`)

	// ErrInvalidSortBy is returned when a hashtag query's sortBy names no
	// supported ordering.
	ErrInvalidSortBy = errors.New(`sortBy must be "views", "posts", "avgViews", or "trend"`)
)

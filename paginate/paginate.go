// Package paginate walks cursor or page-number paginated upstream listings.
package paginate

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

const DefaultMaxPages = 200

// Page is one upstream response. HasMore is nil when the upstream does not report it,
// in which case an empty NextCursor ends the walk.
type Page[T any] struct {
	Items      []T
	NextCursor string
	HasMore    *bool
}

type FetchFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

type Options struct {
	// PageSize, when positive, ends the walk on a short page.
	PageSize int
	MaxPages int
	Logger   logrus.FieldLogger
	Label    string
}

type Result[T any] struct {
	Items     []T
	Pages     int
	Truncated bool
	Warnings  []string
}

// Walk fetches pages until the upstream is exhausted or MaxPages is reached.
// Reaching the ceiling is not an error: the items gathered so far are returned with a warning.
// A fetch error stops the walk and is returned along with the items gathered before it.
func Walk[T any](ctx context.Context, fetch FetchFunc[T], opts Options) (Result[T], error) {
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var res Result[T]
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if res.Pages >= maxPages {
			msg := fmt.Sprintf("%s: stopped after %d pages, more records may exist upstream", label(opts), maxPages)
			logger.WithFields(logrus.Fields{
				"label":     label(opts),
				"max_pages": maxPages,
				"items":     len(res.Items),
			}).Warn("pagination ceiling reached")
			res.Truncated = true
			res.Warnings = append(res.Warnings, msg)
			return res, nil
		}

		page, err := fetch(ctx, cursor)
		if err != nil {
			return res, fmt.Errorf("%s page %d: %w", label(opts), res.Pages+1, err)
		}
		res.Pages++
		res.Items = append(res.Items, page.Items...)

		if page.HasMore != nil && !*page.HasMore {
			return res, nil
		}
		if page.HasMore == nil && page.NextCursor == "" {
			return res, nil
		}
		if opts.PageSize > 0 && len(page.Items) < opts.PageSize {
			return res, nil
		}
		cursor = page.NextCursor
	}
}

func label(opts Options) string {
	if opts.Label == "" {
		return "listing"
	}
	return opts.Label
}

// Bool is a helper for building Page.HasMore.
func Bool(v bool) *bool {
	return &v
}

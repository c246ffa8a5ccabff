package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/margindesk/margindesk_backend/config"
	"github.com/margindesk/margindesk_backend/finance"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

var reportBuildGroup singleflight.Group

// singleflightBuild shares one build per key. The build runs detached from the caller's
// cancellation so one disconnecting client does not fail the others waiting on it.
func singleflightBuild(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error, bool) {
	resultChan := reportBuildGroup.DoChan(key, func() (interface{}, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}

type podReportQuery struct {
	PodID      int    `form:"pod_id" binding:"required,gt=0"`
	StartMonth string `form:"start_month" binding:"required"`
	EndMonth   string `form:"end_month" binding:"required"`
}

func (q podReportQuery) window() (time.Time, time.Time, error) {
	start, err := finance.ParseReportDate(q.StartMonth, false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := finance.ParseReportDate(q.EndMonth, true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func reportCacheKey(podID int, start, end time.Time) string {
	return fmt.Sprintf("margindesk:report:pod:%d:%s:%s", podID, start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// podReport serves a rounded report from Redis when possible; concurrent misses for the same
// key share one build.
func podReport(ctx context.Context, d *Deps, podID int, start, end time.Time) (*finance.PodReport, error) {
	key := reportCacheKey(podID, start, end)
	useCache := !config.ReportCacheDisabled()
	logger := d.Logger.WithFields(logrus.Fields{"pod_id": podID, "cache_key": key})

	if useCache {
		var cached finance.PodReport
		ok, err := config.GetRedisObject(ctx, key, &cached)
		if err != nil {
			logger.WithError(err).Warn("report cache read failed")
		}
		if ok {
			return &cached, nil
		}
	}

	v, err, shared := singleflightBuild(ctx, key, func(ctx context.Context) (interface{}, error) {
		started := time.Now()
		rep, err := d.Reports.PodReport(ctx, podID, start, end)
		if err != nil {
			return nil, err
		}
		rounded := rep.Rounded()
		if useCache {
			if err := config.SetRedisObject(ctx, key, rounded, d.cacheTTL()); err != nil {
				logger.WithError(err).Warn("report cache write failed")
			}
		}
		logger.WithField("ms", time.Since(started).Milliseconds()).Debug("pod report built")
		return &rounded, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("pod report shared with a concurrent request")
	}
	return v.(*finance.PodReport), nil
}

func bindPodReport(c *gin.Context) (podReportQuery, time.Time, time.Time, bool) {
	var q podReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return q, time.Time{}, time.Time{}, false
	}
	start, end, err := q.window()
	if err != nil {
		badRequest(c, err)
		return q, time.Time{}, time.Time{}, false
	}
	return q, start, end, true
}

func PodFinancialsHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, start, end, ok := bindPodReport(c)
		if !ok {
			return
		}
		rep, err := podReport(c.Request.Context(), d, q.PodID, start, end)
		if err != nil {
			abortWithError(c, d, "PodFinancialsHandler", q, err)
			return
		}
		c.JSON(http.StatusOK, rep)
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func PodFinancialsExportHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, start, end, ok := bindPodReport(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		rep, err := podReport(ctx, d, q.PodID, start, end)
		if err != nil {
			abortWithError(c, d, "PodFinancialsExportHandler", q, err)
			return
		}
		data, err := finance.Workbook(rep)
		if err != nil {
			abortWithError(c, d, "PodFinancialsExportHandler", q, err)
			return
		}

		filename := fmt.Sprintf("pod-%d-%s-%s.xlsx", q.PodID, start.Format("200601"), end.Format("200601"))
		if d.Archive != nil {
			object := fmt.Sprintf("reports/%s/%s", d.now().UTC().Format("2006/01/02"), filename)
			loc, err := d.Archive(ctx, object, xlsxContentType, data)
			if err != nil {
				d.Logger.WithError(err).WithField("object", object).Warn("report archive failed")
			} else {
				c.Header("X-Archive-Location", loc)
			}
		}

		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Data(http.StatusOK, xlsxContentType, data)
	}
}
